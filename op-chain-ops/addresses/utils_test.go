package addresses

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

func TestCheckNoZeroAddresses(t *testing.T) {
	t.Run("no zero addresses", func(t *testing.T) {
		require.NoError(t, CheckNoZeroAddresses(TestBridgeImplArgs))
	})

	t.Run("detects zero address", func(t *testing.T) {
		roles := BridgeRoles{
			Governor: common.HexToAddress("0x1111111111111111111111111111111111111111"),
		}
		err := CheckNoZeroAddresses(roles)
		require.ErrorIs(t, err, ErrZeroAddress)
		require.Contains(t, err.Error(), "Caller")
	})

	t.Run("embedded structs", func(t *testing.T) {
		d := MainnetBridge()
		require.NoError(t, CheckNoZeroAddresses(d))

		d.L1Erc20BridgeProxy = common.Address{}
		err := CheckNoZeroAddresses(d)
		require.ErrorIs(t, err, ErrZeroAddress)
		require.Contains(t, err.Error(), "L1Erc20BridgeProxy")
	})

	t.Run("error for non-address fields", func(t *testing.T) {
		roles := struct {
			Governor common.Address
			Caller   common.Address
			chainId  uint64
		}{
			Governor: common.HexToAddress("0x1111111111111111111111111111111111111111"),
			Caller:   common.HexToAddress("0x3333333333333333333333333333333333333333"),
			chainId:  1,
		}

		err := CheckNoZeroAddresses(roles)
		require.ErrorIs(t, err, ErrNotAddressType)
		require.Contains(t, err.Error(), "chainId")
	})

	t.Run("struct pointer works", func(t *testing.T) {
		d := MainnetBridge()
		require.NoError(t, CheckNoZeroAddresses(&d))
	})

	t.Run("nil struct pointer fails", func(t *testing.T) {
		var roles *BridgeRoles = nil

		err := CheckNoZeroAddresses(roles)
		require.Error(t, err)
		require.Contains(t, err.Error(), "nil pointer provided")
	})

	t.Run("not a struct", func(t *testing.T) {
		require.Error(t, CheckNoZeroAddresses(MainnetGovernor.Hex()))
	})
}

func TestMainnetBridge(t *testing.T) {
	d := MainnetBridge()
	require.Equal(t, common.HexToAddress("0x927ddfcc55164a59e0f33918d13a2d559bc10ce7"), d.L1Erc20BridgeProxy)
	require.Equal(t, MainnetGovernor, d.Governor)
	require.NotEqual(t, d.Governor, d.Caller)
}

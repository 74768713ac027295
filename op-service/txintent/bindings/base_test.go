package bindings

import (
	"context"
	"encoding/hex"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"
)

type TestPair struct {
	Owner   common.Address
	Balance *big.Int
}

type TestEntry struct {
	Key  [32]byte
	Data []byte
}

type TestContract struct {
	Transfer   func(to common.Address, amount *big.Int) TypedCall[bool] `sol:"transfer"`
	Pair       func() TypedCall[TestPair]                               `sol:"pair"`
	Entries    func(owner common.Address) TypedCall[[]TestEntry]        `sol:"entries"`
	SetEntries func(entries []TestEntry) TypedCall[any]                 `sol:"setEntries"`
	Count      func() TypedCall[*big.Int]                               `sol:"count"`
	Hash       func() TypedCall[common.Hash]                            `sol:"hash"`
}

type nopClient struct{}

func (nopClient) Call(ctx context.Context, msg ethereum.CallMsg) ([]byte, error) {
	return nil, nil
}

func (nopClient) Send(ctx context.Context, msg ethereum.CallMsg) (*types.Receipt, error) {
	return nil, nil
}

func selector(sig string) []byte {
	return crypto.Keccak256([]byte(sig))[:4]
}

func TestProxySelectors(t *testing.T) {
	proxy := NewTransparentUpgradeableProxy()

	calldata, err := proxy.Implementation().EncodeInput()
	require.NoError(t, err)
	require.Equal(t, "5c60da1b", hex.EncodeToString(calldata))

	calldata, err = proxy.Admin().EncodeInput()
	require.NoError(t, err)
	require.Equal(t, "f851a440", hex.EncodeToString(calldata))

	calldata, err = proxy.UpgradeTo(common.HexToAddress("0x927DdFcc55164a59E0F33918D13a2D559bC10ce7")).EncodeInput()
	require.NoError(t, err)
	require.Equal(t, "3659cfe6000000000000000000000000927ddfcc55164a59e0f33918d13a2d559bc10ce7",
		hex.EncodeToString(calldata))
}

func TestBridgeSelectors(t *testing.T) {
	bridge := NewL1ERC20BridgeTest()
	for _, c := range []struct {
		call TypedCall[common.Address]
		sel  string
	}{
		{bridge.GetAllowList(), "a7cd63b7"},
		{bridge.GetZkSyncMailbox(), "e478b383"},
		{bridge.L2Bridge(), "ae1f6aaf"},
	} {
		calldata, err := c.call.EncodeInput()
		require.NoError(t, err)
		require.Equal(t, c.sel, hex.EncodeToString(calldata), c.call.MethodName)
	}
}

func TestFactoryOptions(t *testing.T) {
	target := common.HexToAddress("0x1234")
	from := common.HexToAddress("0x5678")
	client := nopClient{}
	proxy := NewTransparentUpgradeableProxy(WithTo(target), WithFrom(from), WithClient(client))

	call := proxy.Implementation()
	to, err := call.To()
	require.NoError(t, err)
	require.Equal(t, target, *to)
	require.Equal(t, from, call.From())
	require.Equal(t, client, call.Client())
	require.Equal(t, "implementation", call.MethodName)
}

func TestEncodeArguments(t *testing.T) {
	c := NewBindings[TestContract]()

	to := common.HexToAddress("0x15d34AAf54267DB7D7c367839AAf71A00a2C6A65")
	calldata, err := c.Transfer(to, big.NewInt(500000000000)).EncodeInput()
	require.NoError(t, err)
	require.Equal(t, selector("transfer(address,uint256)"), calldata[:4])
	require.Equal(t, common.LeftPadBytes(to.Bytes(), 32), calldata[4:36])
	require.Equal(t, common.LeftPadBytes(big.NewInt(500000000000).Bytes(), 32), calldata[36:68])
	require.Len(t, calldata, 68)

	calldata, err = c.SetEntries([]TestEntry{{Key: [32]byte{1}, Data: []byte{0xaa}}}).EncodeInput()
	require.NoError(t, err)
	require.Equal(t, selector("setEntries((bytes32,bytes)[])"), calldata[:4])
}

func TestDecodeAddress(t *testing.T) {
	proxy := NewTransparentUpgradeableProxy()
	call := proxy.Implementation()
	addr := common.HexToAddress("0xdeadbeafdeadbeafdeadbeafdeadbeafdeadbeaf")
	out, err := call.DecodeOutput(common.LeftPadBytes(addr.Bytes(), 32))
	require.NoError(t, err)
	require.Equal(t, addr, out)

	_, err = call.DecodeOutput(nil)
	require.Error(t, err, "empty return data must not decode as the zero address")
}

func TestDecodeScalars(t *testing.T) {
	c := NewBindings[TestContract]()

	count := c.Count()
	n, err := count.DecodeOutput(common.LeftPadBytes([]byte{0x01, 0x00}, 32))
	require.NoError(t, err)
	require.Equal(t, big.NewInt(256), n)

	transfer := c.Transfer(common.Address{}, big.NewInt(0))
	ok, err := transfer.DecodeOutput(common.LeftPadBytes([]byte{1}, 32))
	require.NoError(t, err)
	require.True(t, ok)

	hash := c.Hash()
	h, err := hash.DecodeOutput(common.HexToHash("0x43").Bytes())
	require.NoError(t, err)
	require.Equal(t, common.HexToHash("0x43"), h)
}

func TestDecodeStaticStruct(t *testing.T) {
	c := NewBindings[TestContract]()
	call := c.Pair()
	owner := common.HexToAddress("0x42")
	data := append(common.LeftPadBytes(owner.Bytes(), 32), common.LeftPadBytes([]byte{7}, 32)...)
	out, err := call.DecodeOutput(data)
	require.NoError(t, err)
	require.Equal(t, owner, out.Owner)
	require.Equal(t, big.NewInt(7), out.Balance)
}

func TestDecodeDynamicSlice(t *testing.T) {
	c := NewBindings[TestContract]()
	call := c.Entries(common.Address{})
	// abi.encode([(bytes32(0x01..), hex"aabb")])
	data := hexutil.MustDecode("0x" +
		"0000000000000000000000000000000000000000000000000000000000000020" +
		"0000000000000000000000000000000000000000000000000000000000000001" +
		"0000000000000000000000000000000000000000000000000000000000000020" +
		"0100000000000000000000000000000000000000000000000000000000000000" +
		"0000000000000000000000000000000000000000000000000000000000000040" +
		"0000000000000000000000000000000000000000000000000000000000000002" +
		"aabb000000000000000000000000000000000000000000000000000000000000")
	out, err := call.DecodeOutput(data)
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Equal(t, [32]byte{1}, out[0].Key)
	require.Equal(t, []byte{0xaa, 0xbb}, out[0].Data)
}

func TestDecodeAny(t *testing.T) {
	proxy := NewTransparentUpgradeableProxy()
	call := proxy.UpgradeTo(common.Address{})
	out, err := call.DecodeOutput([]byte{0x01})
	require.NoError(t, err)
	require.Nil(t, out)
}

func TestCheckImplPanics(t *testing.T) {
	type untagged struct {
		Foo func() TypedCall[any]
	}
	require.Panics(t, func() { NewBindings[untagged]() })
	type multiReturn struct {
		Foo func() (TypedCall[any], error) `sol:"foo"`
	}
	require.Panics(t, func() { NewBindings[multiReturn]() })
}

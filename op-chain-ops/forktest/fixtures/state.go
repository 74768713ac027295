package fixtures

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/lmittmann/w3/w3types"
)

// DefaultLegacyImplementation is where ForkState installs the legacy bridge when none is given.
var DefaultLegacyImplementation = common.HexToAddress("0x8191975d8B0851C7f0740918896Cf298c09aA05E")

// DefaultL2Bridge is the l2Bridge value stored in the proxy when none is given.
var DefaultL2Bridge = common.HexToAddress("0x11f943b2c77b743AB90f4A0Ae7d5A4e7FCA3E102")

// Chain lists the accounts of the emulated forked chain.
type Chain struct {
	Proxy                common.Address
	Governor             common.Address
	LegacyImplementation common.Address
	L2Bridge             common.Address
}

// ForkState returns a state with the bridge proxy deployed at c.Proxy,
// administered by c.Governor and pointing at the legacy bridge implementation.
func ForkState(c Chain) w3types.State {
	if c.LegacyImplementation == (common.Address{}) {
		c.LegacyImplementation = DefaultLegacyImplementation
	}
	if c.L2Bridge == (common.Address{}) {
		c.L2Bridge = DefaultL2Bridge
	}
	return w3types.State{
		c.Proxy: {
			Code: ProxyRuntime(),
			Storage: w3types.Storage{
				ImplementationSlot: common.BytesToHash(c.LegacyImplementation.Bytes()),
				AdminSlot:          common.BytesToHash(c.Governor.Bytes()),
				L2BridgeSlot:       common.BytesToHash(c.L2Bridge.Bytes()),
			},
		},
		c.LegacyImplementation: {
			Code: LegacyBridgeRuntime(),
		},
		c.Governor: {
			Balance: new(big.Int),
		},
	}
}

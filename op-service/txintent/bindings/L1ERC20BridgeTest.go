package bindings

import (
	"github.com/ethereum/go-ethereum/common"
)

// L1ERC20BridgeTest is the L1 ERC20 bridge implementation exposing the
// accessors of the upgraded interface.
type L1ERC20BridgeTest struct {
	GetAllowList     func() TypedCall[common.Address] `sol:"getAllowList"`
	GetZkSyncMailbox func() TypedCall[common.Address] `sol:"getZkSyncMailbox"`
	L2Bridge         func() TypedCall[common.Address] `sol:"l2Bridge"`
}

func NewL1ERC20BridgeTest(opts ...CallFactoryOption) *L1ERC20BridgeTest {
	bridge := NewBindings[L1ERC20BridgeTest](opts...)
	return &bridge
}

package bindings

import (
	"github.com/ethereum/go-ethereum/common"
)

// TransparentUpgradeableProxy is the admin interface of an EIP-1967 transparent proxy.
// These functions only answer calls from the proxy admin; calls from any other
// account are forwarded to the implementation.
type TransparentUpgradeableProxy struct {
	Implementation func() TypedCall[common.Address]                      `sol:"implementation"`
	Admin          func() TypedCall[common.Address]                      `sol:"admin"`
	UpgradeTo      func(newImplementation common.Address) TypedCall[any] `sol:"upgradeTo"`
}

func NewTransparentUpgradeableProxy(opts ...CallFactoryOption) *TransparentUpgradeableProxy {
	proxy := NewBindings[TransparentUpgradeableProxy](opts...)
	return &proxy
}

package addresses

import (
	"github.com/ethereum/go-ethereum/common"
)

// DefaultCaller is an account without any role, used to call the bridge through its proxy.
var DefaultCaller = common.HexToAddress("0x00000000000000000000000000000000000c4a11")

type BridgeRoles struct {
	// Governor is the admin of the bridge proxy, allowed to upgrade it.
	Governor common.Address
	// Caller is any other account. A transparent proxy never delegates calls from its admin,
	// so the bridge interface is only visible to other accounts.
	Caller common.Address
}

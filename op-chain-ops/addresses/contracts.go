package addresses

import "github.com/ethereum/go-ethereum/common"

// BridgeContracts are the L1 contracts of the ERC20 bridge.
//   - the proxy address is the bridge address known to users, and never changes
//   - the implementation is whatever the proxy delegates to, and is swapped by upgrades
type BridgeContracts struct {
	L1Erc20BridgeProxy common.Address
}

// BridgeImplArgs are the constructor arguments of the upgraded bridge implementation.
type BridgeImplArgs struct {
	Mailbox   common.Address
	AllowList common.Address
}

// BridgeDeployment is a bridge deployment, with the accounts that operate it.
type BridgeDeployment struct {
	BridgeContracts
	BridgeRoles
}

var (
	// MainnetL1Erc20BridgeProxy is the proxy of the L1 ERC20 bridge on Ethereum mainnet.
	MainnetL1Erc20BridgeProxy = common.HexToAddress("0x927DdFcc55164a59E0F33918D13a2D559bC10ce7")
	// MainnetGovernor administers the bridge proxy on Ethereum mainnet.
	MainnetGovernor = common.HexToAddress("0x98591957D9741e7E7d58FC253044e0A014A3a323")
)

// MainnetBridge returns the bridge deployment of Ethereum mainnet, with DefaultCaller as caller.
func MainnetBridge() BridgeDeployment {
	return BridgeDeployment{
		BridgeContracts: BridgeContracts{L1Erc20BridgeProxy: MainnetL1Erc20BridgeProxy},
		BridgeRoles:     BridgeRoles{Governor: MainnetGovernor, Caller: DefaultCaller},
	}
}

// TestBridgeImplArgs are the values the upgraded implementation is checked with.
// They are recognizable patterns, not contracts.
var TestBridgeImplArgs = BridgeImplArgs{
	Mailbox:   common.HexToAddress("0x1234567890123456789012345678901234567890"),
	AllowList: common.HexToAddress("0xdeadbeafdeadbeafdeadbeafdeadbeafdeadbeaf"),
}

// Package fixtures provides hand-assembled EVM contracts that reproduce the
// externally visible behaviour of the bridge proxy and its implementations,
// so the upgrade check can run on an in-process chain without a compiler.
package fixtures

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/vm"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
)

var (
	// ImplementationSlot is the EIP-1967 implementation slot, keccak256("eip1967.proxy.implementation") - 1.
	ImplementationSlot = common.HexToHash("0x360894a13ba1a3210667c828492db98dca3e2076cc3735a920a3ca505d382bbc")
	// AdminSlot is the EIP-1967 admin slot, keccak256("eip1967.proxy.admin") - 1.
	AdminSlot = common.HexToHash("0xb53127684a568b3173ae13b9f8a6016e243e63b6e8ee1178d6a717850b5d6103")
	// L2BridgeSlot holds the l2Bridge address in the bridge storage layout.
	L2BridgeSlot = common.Hash{}

	// UpgradedTopic is the topic of the Upgraded(address) event.
	UpgradedTopic = crypto.Keccak256Hash([]byte("Upgraded(address)"))

	selectorShift = new(uint256.Int).Lsh(uint256.NewInt(1), 224)
	addressMask   = new(uint256.Int).SubUint64(new(uint256.Int).Lsh(uint256.NewInt(1), 160), 1)
)

var (
	selImplementation   = sig("implementation()")
	selAdmin            = sig("admin()")
	selUpgradeTo        = sig("upgradeTo(address)")
	selL2Bridge         = sig("l2Bridge()")
	selGetAllowList     = sig("getAllowList()")
	selGetZkSyncMailbox = sig("getZkSyncMailbox()")
)

func sig(s string) []byte {
	return crypto.Keccak256([]byte(s))[:4]
}

// ProxyRuntime is the runtime code of a transparent upgradeable proxy.
// Calls from the admin are answered by the proxy itself: implementation(), admin()
// and upgradeTo(address), which requires code at the new implementation and emits
// Upgraded(address). Any other admin call reverts. Calls from other accounts are
// delegated to the implementation, and its return or revert data is forwarded.
func ProxyRuntime() []byte {
	a := newAssembler()
	a.push(AdminSlot.Bytes()).op(vm.SLOAD, vm.CALLER, vm.EQ).jumpIf("admin")

	// delegatecall(gas, impl, 0, calldatasize, 0, 0)
	a.op(vm.CALLDATASIZE).push(0).push(0).op(vm.CALLDATACOPY)
	a.push(0).push(0).op(vm.CALLDATASIZE).push(0)
	a.push(ImplementationSlot.Bytes()).op(vm.SLOAD, vm.GAS, vm.DELEGATECALL)
	a.op(vm.RETURNDATASIZE).push(0).push(0).op(vm.RETURNDATACOPY)
	a.jumpIf("delegated")
	a.op(vm.RETURNDATASIZE).push(0).op(vm.REVERT)
	a.label("delegated")
	a.op(vm.RETURNDATASIZE).push(0).op(vm.RETURN)

	a.label("admin")
	a.selector()
	a.dispatch(selImplementation, "implementation")
	a.dispatch(selAdmin, "getAdmin")
	a.dispatch(selUpgradeTo, "upgradeTo")
	a.revertEmpty()

	a.label("implementation")
	a.push(ImplementationSlot.Bytes()).op(vm.SLOAD)
	a.returnWord()

	a.label("getAdmin")
	a.push(AdminSlot.Bytes()).op(vm.SLOAD)
	a.returnWord()

	a.label("upgradeTo")
	a.push(addressMask).push(4).op(vm.CALLDATALOAD, vm.AND)
	a.op(vm.DUP1, vm.EXTCODESIZE).jumpIf("hasCode")
	a.revertEmpty()
	a.label("hasCode")
	a.op(vm.DUP1).push(ImplementationSlot.Bytes()).op(vm.SSTORE)
	// log2(0, 0, Upgraded, impl)
	a.push(UpgradedTopic.Bytes()).push(0).push(0).op(vm.LOG2)
	a.op(vm.STOP)
	return a.assemble()
}

// ProxyInitCode deploys ProxyRuntime with the given admin and implementation.
func ProxyInitCode(admin, implementation common.Address) []byte {
	return initCode(ProxyRuntime(), func(a *assembler, _ int) {
		a.push(admin.Bytes()).push(AdminSlot.Bytes()).op(vm.SSTORE)
		a.push(implementation.Bytes()).push(ImplementationSlot.Bytes()).op(vm.SSTORE)
	})
}

// LegacyBridgeRuntime is the bridge implementation before the upgrade.
// It only exposes l2Bridge(), read from storage.
func LegacyBridgeRuntime() []byte {
	a := newAssembler()
	a.selector()
	a.dispatch(selL2Bridge, "l2Bridge")
	a.revertEmpty()
	a.label("l2Bridge")
	a.push(L2BridgeSlot.Bytes()).op(vm.SLOAD)
	a.returnWord()
	return a.assemble()
}

// LegacyBridgeInitCode deploys LegacyBridgeRuntime.
func LegacyBridgeInitCode() []byte {
	return initCode(LegacyBridgeRuntime(), nil)
}

const (
	mailboxImmutable   = "mailbox"
	allowListImmutable = "allowList"
)

// bridgeTestRuntime assembles the upgraded bridge with zeroed immutables.
func bridgeTestRuntime(allowListValue []byte) *assembler {
	a := newAssembler()
	a.selector()
	a.dispatch(selGetAllowList, "getAllowList")
	a.dispatch(selGetZkSyncMailbox, "getZkSyncMailbox")
	a.dispatch(selL2Bridge, "l2Bridge")
	a.revertEmpty()

	a.label("getAllowList")
	if allowListValue != nil {
		a.push(allowListValue)
	} else {
		a.placeholder(allowListImmutable, common.AddressLength)
	}
	a.returnWord()

	a.label("getZkSyncMailbox")
	a.placeholder(mailboxImmutable, common.AddressLength)
	a.returnWord()

	a.label("l2Bridge")
	a.push(L2BridgeSlot.Bytes()).op(vm.SLOAD)
	a.returnWord()
	return a
}

// BridgeTestInitCode is the creation code of the upgraded bridge, with the
// constructor signature (address mailbox, address allowList).
// The abi encoded constructor arguments are appended to it at deployment,
// and embedded into the runtime code as immutables.
func BridgeTestInitCode() []byte {
	return bridgeInitCode(bridgeTestRuntime(nil))
}

// BrokenBridgeTestInitCode is BridgeTestInitCode, except getAllowList() returns
// a constant instead of the constructor argument.
func BrokenBridgeTestInitCode(allowList common.Address) []byte {
	return bridgeInitCode(bridgeTestRuntime(allowList.Bytes()))
}

func bridgeInitCode(runtime *assembler) []byte {
	return initCode(runtime.assemble(), func(a *assembler, argsStart int) {
		for i, name := range []string{mailboxImmutable, allowListImmutable} {
			off, ok := runtime.marks[name]
			if !ok {
				continue
			}
			// codecopy(off, argsStart + 32*i + 12, 20)
			a.push(common.AddressLength).push2(argsStart + 32*i + 12).push2(off).op(vm.CODECOPY)
		}
	})
}

// initCode copies runtime into memory, runs prologue, and returns the patched runtime.
// argsStart is the offset of the constructor arguments appended to the init code.
// The prologue must emit code of a size independent of argsStart.
func initCode(runtime []byte, prologue func(a *assembler, argsStart int)) []byte {
	build := func(prefixLen int) []byte {
		a := newAssembler()
		// codecopy(0, prefixLen, len(runtime))
		a.push2(len(runtime)).push2(prefixLen).push(0).op(vm.CODECOPY)
		if prologue != nil {
			prologue(a, prefixLen+len(runtime))
		}
		a.push2(len(runtime)).push(0).op(vm.RETURN)
		return a.assemble()
	}
	prefix := build(len(build(0)))
	return append(prefix, runtime...)
}

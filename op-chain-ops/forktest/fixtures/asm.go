package fixtures

import (
	"encoding/binary"
	"fmt"

	"github.com/ethereum/go-ethereum/core/vm"
	"github.com/ethereum/go-ethereum/core/vm/program"
	"github.com/holiman/uint256"
)

// assembler adds named jump labels and immutable placeholders on top of program.Program.
// Label references are PUSH2 operands, resolved once the code is complete.
type assembler struct {
	p      *program.Program
	labels map[string]int
	refs   map[int]string
	marks  map[string]int
}

func newAssembler() *assembler {
	return &assembler{
		p:      program.New(),
		labels: make(map[string]int),
		refs:   make(map[int]string),
		marks:  make(map[string]int),
	}
}

func (a *assembler) op(ops ...vm.OpCode) *assembler {
	a.p.Op(ops...)
	return a
}

// push pushes an int, big-endian bytes or *uint256.Int with the smallest PUSH.
// Zero is pushed with PUSH1, so the code runs under pre-Shanghai rules.
func (a *assembler) push(v any) *assembler {
	var n uint256.Int
	switch v := v.(type) {
	case int:
		n.SetUint64(uint64(v))
	case []byte:
		n.SetBytes(v)
	case *uint256.Int:
		n.Set(v)
	default:
		panic(fmt.Sprintf("unsupported push value %T", v))
	}
	if n.IsZero() {
		a.p.Op(vm.PUSH1)
		a.p.Append([]byte{0})
		return a
	}
	a.p.Push(&n)
	return a
}

// push2 pushes v with a fixed-width PUSH2, so the code size does not depend on v.
func (a *assembler) push2(v int) *assembler {
	a.p.Op(vm.PUSH2)
	a.p.Append(binary.BigEndian.AppendUint16(nil, uint16(v)))
	return a
}

func (a *assembler) pushLabel(name string) *assembler {
	a.p.Op(vm.PUSH2)
	a.refs[a.p.Size()] = name
	a.p.Append([]byte{0, 0})
	return a
}

func (a *assembler) jumpIf(name string) *assembler {
	return a.pushLabel(name).op(vm.JUMPI)
}

func (a *assembler) label(name string) *assembler {
	if _, ok := a.labels[name]; ok {
		panic(fmt.Sprintf("duplicate label %q", name))
	}
	_, pc := a.p.Jumpdest()
	a.labels[name] = int(pc)
	return a
}

// placeholder emits a PUSH of size zero bytes, to be patched at deployment.
func (a *assembler) placeholder(name string, size int) *assembler {
	a.p.Op(vm.PUSH1 + vm.OpCode(size-1))
	a.marks[name] = a.p.Size()
	a.p.Append(make([]byte, size))
	return a
}

// selector pushes the first 4 bytes of the calldata, right-aligned.
func (a *assembler) selector() *assembler {
	return a.push(selectorShift).push(0).op(vm.CALLDATALOAD, vm.DIV)
}

// dispatch jumps to target if the selector on top of the stack equals sig, keeping the selector.
func (a *assembler) dispatch(sig []byte, target string) *assembler {
	return a.op(vm.DUP1).push(sig).op(vm.EQ).jumpIf(target)
}

// returnWord returns the value on top of the stack as a single abi word.
func (a *assembler) returnWord() *assembler {
	return a.push(0).op(vm.MSTORE).push(32).push(0).op(vm.RETURN)
}

func (a *assembler) revertEmpty() *assembler {
	return a.push(0).op(vm.DUP1, vm.REVERT)
}

func (a *assembler) assemble() []byte {
	code := append([]byte(nil), a.p.Bytes()...)
	for off, name := range a.refs {
		dest, ok := a.labels[name]
		if !ok {
			panic(fmt.Sprintf("undefined label %q", name))
		}
		binary.BigEndian.PutUint16(code[off:], uint16(dest))
	}
	return code
}

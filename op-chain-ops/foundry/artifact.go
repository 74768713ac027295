package foundry

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/mantlenetworkio/upgrade-check/op-chain-ops/solc"
)

// ErrLinkingUnsupported is returned for bytecode that references external libraries.
var ErrLinkingUnsupported = errors.New("cannot load bytecode with external library references")

// Artifact is a forge build artifact, with its bytecode decoded.
type Artifact struct {
	ABI              abi.ABI
	Bytecode         Bytecode
	DeployedBytecode Bytecode
	Metadata         solc.ForgeCompilerMetadata
	StorageLayout    *solc.StorageLayout
}

type Bytecode struct {
	Object              hexutil.Bytes
	ImmutableReferences solc.ImmutableReferences
}

func (a *Artifact) UnmarshalJSON(data []byte) error {
	var raw solc.ForgeArtifact
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	initCode, err := decodeBytecode(raw.Bytecode)
	if err != nil {
		return fmt.Errorf("invalid bytecode: %w", err)
	}
	deployed, err := decodeBytecode(raw.DeployedBytecode)
	if err != nil {
		return fmt.Errorf("invalid deployed bytecode: %w", err)
	}
	*a = Artifact{
		ABI:              raw.Abi.Parsed,
		Bytecode:         initCode,
		DeployedBytecode: deployed,
		Metadata:         raw.Metadata,
		StorageLayout:    raw.StorageLayout,
	}
	return nil
}

func decodeBytecode(b solc.CompilerOutputBytecode) (Bytecode, error) {
	// unlinked library addresses are __$<hash>$__ placeholders in the hex
	if len(b.LinkReferences) > 0 || strings.Contains(b.Object, "__$") {
		return Bytecode{}, ErrLinkingUnsupported
	}
	obj := b.Object
	if !strings.HasPrefix(obj, "0x") {
		obj = "0x" + obj
	}
	code, err := hexutil.Decode(obj)
	if err != nil {
		return Bytecode{}, err
	}
	return Bytecode{Object: code, ImmutableReferences: b.ImmutableReferences}, nil
}

// ConstructorInputs returns the solidity types of the constructor parameters.
func (a *Artifact) ConstructorInputs() []string {
	out := make([]string, 0, len(a.ABI.Constructor.Inputs))
	for _, in := range a.ABI.Constructor.Inputs {
		out = append(out, in.Type.String())
	}
	return out
}

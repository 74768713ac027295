package solc

import (
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

type AbiType struct {
	Parsed abi.ABI
	Raw    interface{}
}

func (a *AbiType) UnmarshalJSON(data []byte) error {
	if err := json.Unmarshal(data, &a.Raw); err != nil {
		return err
	}
	return json.Unmarshal(data, &a.Parsed)
}

type CompilerSettings struct {
	Optimizer         OptimizerSettings            `json:"optimizer"`
	CompilationTarget map[string]string            `json:"compilationTarget"`
	EvmVersion        string                       `json:"evmVersion,omitempty"`
	Libraries         map[string]map[string]string `json:"libraries,omitempty"`
}

type OptimizerSettings struct {
	Enabled bool `json:"enabled"`
	Runs    uint `json:"runs"`
}

// StorageLayout represents the solc compilers output storage layout for
// a contract.
type StorageLayout struct {
	Storage []StorageLayoutEntry         `json:"storage"`
	Types   map[string]StorageLayoutType `json:"types"`
}

// GetStorageLayoutEntry returns the StorageLayoutEntry where the label matches
// the provided name.
func (s *StorageLayout) GetStorageLayoutEntry(name string) (StorageLayoutEntry, error) {
	for _, entry := range s.Storage {
		if entry.Label == name {
			return entry, nil
		}
	}
	return StorageLayoutEntry{}, fmt.Errorf("%s not found", name)
}

type StorageLayoutEntry struct {
	AstId    uint   `json:"astId"`
	Contract string `json:"contract"`
	Label    string `json:"label"`
	Offset   uint   `json:"offset"`
	Slot     uint   `json:"slot,string"`
	Type     string `json:"type"`
}

type StorageLayoutType struct {
	Encoding      string `json:"encoding"`
	Label         string `json:"label"`
	NumberOfBytes uint   `json:"numberOfBytes,string"`
}

// Object must be a string because its not guaranteed to be
// a hex string
type CompilerOutputBytecode struct {
	Object              string              `json:"object"`
	SourceMap           string              `json:"sourceMap"`
	LinkReferences      LinkReferences      `json:"linkReferences"`
	ImmutableReferences ImmutableReferences `json:"immutableReferences"`
}

type LinkReferences map[string]LinkReference
type LinkReference map[string][]LinkReferenceOffset

type LinkReferenceOffset struct {
	Length uint `json:"length"`
	Start  uint `json:"start"`
}

type ImmutableReferences map[string][]ImmutableReference

type ImmutableReference struct {
	Start  uint `json:"start"`
	Length uint `json:"length"`
}

type ForgeArtifact struct {
	Abi               AbiType                `json:"abi"`
	Bytecode          CompilerOutputBytecode `json:"bytecode"`
	DeployedBytecode  CompilerOutputBytecode `json:"deployedBytecode"`
	MethodIdentifiers map[string]string      `json:"methodIdentifiers"`
	Metadata          ForgeCompilerMetadata  `json:"metadata"`
	StorageLayout     *StorageLayout         `json:"storageLayout,omitempty"`
}

type ForgeCompilerMetadata struct {
	Compiler ForgeCompilerInfo          `json:"compiler"`
	Language string                     `json:"language"`
	Settings CompilerSettings           `json:"settings"`
	Sources  map[string]ForgeSourceInfo `json:"sources"`
	Version  int                        `json:"version"`
}

type ForgeCompilerInfo struct {
	Version string `json:"version"`
}

type ForgeSourceInfo struct {
	Keccak256 string   `json:"keccak256"`
	License   string   `json:"license"`
	Urls      []string `json:"urls"`
}

// Package forktest runs upgrade checks of proxied contracts against a forked chain.
package forktest

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/mantlenetworkio/upgrade-check/op-service/apis"
)

// Flavor selects the fork backend, and for JSON-RPC nodes the namespace of the dev methods.
type Flavor string

const (
	FlavorHardhat Flavor = "hardhat"
	FlavorAnvil   Flavor = "anvil"
	FlavorVM      Flavor = "vm"
)

var Flavors = []Flavor{FlavorHardhat, FlavorAnvil, FlavorVM}

func ParseFlavor(s string) (Flavor, error) {
	for _, f := range Flavors {
		if strings.EqualFold(string(f), s) {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFlavor, s)
}

func (f Flavor) String() string {
	return string(f)
}

// IsRPC reports whether the flavor is served by a JSON-RPC node.
func (f Flavor) IsRPC() bool {
	return f == FlavorHardhat || f == FlavorAnvil
}

var (
	_ apis.ForkClient = (*RPCFork)(nil)
	_ apis.ForkClient = (*VMFork)(nil)
)

func decodeHex(s string) []byte {
	b, err := hexutil.Decode(s)
	if err != nil {
		return nil
	}
	return b
}

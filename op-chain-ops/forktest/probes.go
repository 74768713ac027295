package forktest

import (
	"bytes"
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/lmittmann/w3"
	"github.com/lmittmann/w3/w3types"

	"github.com/mantlenetworkio/upgrade-check/op-service/apis"
)

// Probe is a view without arguments, called through the proxy to check its storage is
// preserved when the implementation changes.
type Probe struct {
	Signature string
	fn        w3types.Func
}

// ParseProbe parses a function signature such as "l2Bridge()".
func ParseProbe(signature string) (Probe, error) {
	fn, err := w3.NewFunc(signature, "")
	if err != nil {
		return Probe{}, fmt.Errorf("invalid probe %q: %w", signature, err)
	}
	if _, err := fn.EncodeArgs(); err != nil {
		return Probe{}, fmt.Errorf("probe %q must not take arguments: %w", signature, err)
	}
	return Probe{Signature: signature, fn: fn}, nil
}

func MustParseProbe(signature string) Probe {
	p, err := ParseProbe(signature)
	if err != nil {
		panic(err)
	}
	return p
}

// Read calls the probe on target and returns the raw return data.
func (p Probe) Read(ctx context.Context, cl apis.ContractCaller, from, target common.Address) ([]byte, error) {
	input, err := p.fn.EncodeArgs()
	if err != nil {
		return nil, err
	}
	out, err := cl.Call(ctx, ethereum.CallMsg{From: from, To: &target, Data: input})
	if err != nil {
		return nil, fmt.Errorf("probe %s: %w", p.Signature, err)
	}
	return out, nil
}

// probeSet holds the baseline readings of the probes.
type probeSet struct {
	probes   []Probe
	baseline map[string][]byte
}

func (s *probeSet) record(ctx context.Context, cl apis.ContractCaller, from, target common.Address) error {
	s.baseline = make(map[string][]byte, len(s.probes))
	for _, p := range s.probes {
		out, err := p.Read(ctx, cl, from, target)
		if err != nil {
			return err
		}
		s.baseline[p.Signature] = out
	}
	return nil
}

// verify checks every probe still returns its baseline reading.
func (s *probeSet) verify(ctx context.Context, cl apis.ContractCaller, from, target common.Address) error {
	for _, p := range s.probes {
		out, err := p.Read(ctx, cl, from, target)
		if err != nil {
			return err
		}
		if want := s.baseline[p.Signature]; !bytes.Equal(want, out) {
			return fmt.Errorf("probe %s changed from 0x%x to 0x%x", p.Signature, want, out)
		}
	}
	return nil
}

package contractio

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/mantlenetworkio/upgrade-check/op-service/txintent/bindings"
)

// Option modifies the message planned from a call.
type Option func(msg *ethereum.CallMsg)

// WithGas sets an explicit gas limit. The client estimates or defaults it otherwise.
func WithGas(gas uint64) Option {
	return func(msg *ethereum.CallMsg) {
		msg.Gas = gas
	}
}

// Write sends the call as a transaction from the sender the call is bound to.
func Write[O any](call bindings.TypedCall[O], ctx context.Context, opts ...Option) (*types.Receipt, error) {
	msg, err := Plan(call, opts...)
	if err != nil {
		return nil, err
	}
	client := call.Client()
	if client == nil {
		return nil, fmt.Errorf("no client bound to %s call", call.MethodName)
	}
	receipt, err := client.Send(ctx, msg)
	if err != nil {
		return receipt, fmt.Errorf("failed to send %s: %w", call.MethodName, err)
	}
	return receipt, nil
}

// Read executes the call without persisting it, and decodes the return data.
func Read[O any](view bindings.TypedCall[O], ctx context.Context, opts ...Option) (O, error) {
	msg, err := Plan(view, opts...)
	if err != nil {
		return *new(O), err
	}
	client := view.Client()
	if client == nil {
		return *new(O), fmt.Errorf("no client bound to %s call", view.MethodName)
	}
	res, err := client.Call(ctx, msg)
	if err != nil {
		return *new(O), fmt.Errorf("failed to call %s: %w", view.MethodName, err)
	}
	decoded, err := view.DecodeOutput(res)
	if err != nil {
		return *new(O), err
	}
	return decoded, nil
}

// Plan turns a call into a message from the bound sender to the bound target.
func Plan[O any](call bindings.TypedCall[O], opts ...Option) (ethereum.CallMsg, error) {
	target, err := call.To()
	if err != nil {
		return ethereum.CallMsg{}, err
	}
	calldata, err := call.EncodeInput()
	if err != nil {
		return ethereum.CallMsg{}, err
	}
	msg := ethereum.CallMsg{
		From: call.From(),
		To:   target,
		Data: calldata,
	}
	for _, opt := range opts {
		opt(&msg)
	}
	return msg, nil
}

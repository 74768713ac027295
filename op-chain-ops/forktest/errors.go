package forktest

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/rpc"
)

var (
	// ErrReverted is returned when a call or an included transaction reverted.
	ErrReverted = errors.New("execution reverted")
	// ErrNotImpersonated is returned when sending from an account the fork cannot sign for.
	ErrNotImpersonated = errors.New("sender is not impersonated")
	// ErrUnknownFlavor is returned for an unsupported fork node flavor.
	ErrUnknownFlavor = errors.New("unknown fork flavor")
)

// revertErrorCode is the JSON-RPC error code of a reverted eth_call, with the revert data attached.
const revertErrorCode = 3

// IsRevert reports whether err means the EVM reverted, as opposed to a transport or decoding failure.
func IsRevert(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrReverted) {
		return true
	}
	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) {
		return rpcErr.ErrorCode() == revertErrorCode || strings.Contains(strings.ToLower(rpcErr.Error()), "revert")
	}
	return false
}

// RevertError is a revert with the data returned by the reverting frame.
type RevertError struct {
	Data []byte
}

func (e *RevertError) Error() string {
	if reason, err := abi.UnpackRevert(e.Data); err == nil {
		return fmt.Sprintf("%s: %s", ErrReverted, reason)
	}
	if len(e.Data) == 0 {
		return ErrReverted.Error()
	}
	return fmt.Sprintf("%s: 0x%x", ErrReverted, e.Data)
}

func (e *RevertError) Unwrap() error {
	return ErrReverted
}

// asRevert converts JSON-RPC revert errors into a RevertError, and leaves any other error untouched.
func asRevert(err error) error {
	if err == nil || errors.Is(err, ErrReverted) || !IsRevert(err) {
		return err
	}
	revert := &RevertError{}
	var dataErr rpc.DataError
	if errors.As(err, &dataErr) {
		if data, ok := dataErr.ErrorData().(string); ok {
			revert.Data = decodeHex(data)
		}
	}
	return fmt.Errorf("%w (%v)", revert, err)
}

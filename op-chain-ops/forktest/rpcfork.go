package forktest

import (
	"context"
	"fmt"
	"math"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/rpc"

	"github.com/mantlenetworkio/upgrade-check/op-service/apis"
	"github.com/mantlenetworkio/upgrade-check/op-service/dial"
	"github.com/mantlenetworkio/upgrade-check/op-service/retry"
)

const defaultReceiptPollInterval = 100 * time.Millisecond

// RPCFork is a fork served by a Hardhat or Anvil node.
type RPCFork struct {
	log     log.Logger
	rpc     *rpc.Client
	flavor  Flavor
	metrics RPCMetricer

	pollInterval time.Duration

	mu sync.Mutex
	// senders the node can sign for: impersonated accounts and the node's own accounts
	senders map[common.Address]struct{}
}

type RPCForkOption func(f *RPCFork)

// WithReceiptPollInterval sets how often the receipt of a sent transaction is polled for.
func WithReceiptPollInterval(d time.Duration) RPCForkOption {
	return func(f *RPCFork) {
		f.pollInterval = d
	}
}

func WithRPCMetrics(m RPCMetricer) RPCForkOption {
	return func(f *RPCFork) {
		f.metrics = m
	}
}

// DialRPCFork dials a Hardhat or Anvil node, retrying until it is ready or the timeout passes.
func DialRPCFork(ctx context.Context, logger log.Logger, url string, flavor Flavor, timeout time.Duration, opts ...RPCForkOption) (*RPCFork, error) {
	if !flavor.IsRPC() {
		return nil, fmt.Errorf("%w: %q is not served over JSON-RPC", ErrUnknownFlavor, flavor)
	}
	client, err := dial.DialRPCClientWithTimeout(ctx, timeout, logger, url)
	if err != nil {
		return nil, fmt.Errorf("failed to dial fork rpc: %w", err)
	}
	f, err := NewRPCFork(ctx, logger, client, flavor, opts...)
	if err != nil {
		client.Close()
		return nil, err
	}
	return f, nil
}

// NewRPCFork wraps a connected client. The node's own accounts, from eth_accounts,
// may send without impersonation.
func NewRPCFork(ctx context.Context, logger log.Logger, client *rpc.Client, flavor Flavor, opts ...RPCForkOption) (*RPCFork, error) {
	if !flavor.IsRPC() {
		return nil, fmt.Errorf("%w: %q is not served over JSON-RPC", ErrUnknownFlavor, flavor)
	}
	f := &RPCFork{
		log:          logger.New("fork", flavor),
		rpc:          client,
		flavor:       flavor,
		metrics:      NoopMetrics,
		pollInterval: defaultReceiptPollInterval,
		senders:      make(map[common.Address]struct{}),
	}
	for _, opt := range opts {
		opt(f)
	}
	var accounts []common.Address
	if err := f.call(ctx, &accounts, "eth_accounts"); err != nil {
		return nil, fmt.Errorf("failed to list node accounts: %w", err)
	}
	for _, acc := range accounts {
		f.senders[acc] = struct{}{}
	}
	f.log.Debug("connected to fork", "accounts", len(accounts))
	return f, nil
}

// call performs a JSON-RPC call and records it.
func (f *RPCFork) call(ctx context.Context, result any, method string, args ...any) error {
	start := time.Now()
	err := f.rpc.CallContext(ctx, result, method, args...)
	f.metrics.RecordRPC(method, time.Since(start), err)
	return err
}

func (f *RPCFork) devMethod(name string) string {
	return string(f.flavor) + "_" + name
}

func (f *RPCFork) Impersonate(ctx context.Context, addr common.Address) error {
	if err := f.call(ctx, nil, f.devMethod("impersonateAccount"), addr); err != nil {
		return fmt.Errorf("failed to impersonate %s: %w", addr, err)
	}
	f.mu.Lock()
	f.senders[addr] = struct{}{}
	f.mu.Unlock()
	f.log.Info("impersonating account", "addr", addr)
	return nil
}

func (f *RPCFork) StopImpersonating(ctx context.Context, addr common.Address) error {
	if err := f.call(ctx, nil, f.devMethod("stopImpersonatingAccount"), addr); err != nil {
		return fmt.Errorf("failed to stop impersonating %s: %w", addr, err)
	}
	f.mu.Lock()
	delete(f.senders, addr)
	f.mu.Unlock()
	return nil
}

func (f *RPCFork) SetBalance(ctx context.Context, addr common.Address, wei *big.Int) error {
	if err := f.call(ctx, nil, f.devMethod("setBalance"), addr, (*hexutil.Big)(wei)); err != nil {
		return fmt.Errorf("failed to set balance of %s: %w", addr, err)
	}
	return nil
}

func (f *RPCFork) BalanceAt(ctx context.Context, addr common.Address) (*big.Int, error) {
	var result hexutil.Big
	if err := f.call(ctx, &result, "eth_getBalance", addr, "latest"); err != nil {
		return nil, err
	}
	return (*big.Int)(&result), nil
}

func (f *RPCFork) CodeAt(ctx context.Context, addr common.Address) ([]byte, error) {
	var result hexutil.Bytes
	if err := f.call(ctx, &result, "eth_getCode", addr, "latest"); err != nil {
		return nil, err
	}
	return result, nil
}

func (f *RPCFork) StorageAt(ctx context.Context, addr common.Address, slot common.Hash) (common.Hash, error) {
	var result hexutil.Bytes
	if err := f.call(ctx, &result, "eth_getStorageAt", addr, slot, "latest"); err != nil {
		return common.Hash{}, err
	}
	return common.BytesToHash(result), nil
}

func (f *RPCFork) Call(ctx context.Context, msg ethereum.CallMsg) ([]byte, error) {
	var result hexutil.Bytes
	if err := f.call(ctx, &result, "eth_call", toCallArg(msg), "latest"); err != nil {
		return nil, asRevert(err)
	}
	return result, nil
}

func (f *RPCFork) Send(ctx context.Context, msg ethereum.CallMsg) (*types.Receipt, error) {
	f.mu.Lock()
	_, ok := f.senders[msg.From]
	f.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotImpersonated, msg.From)
	}

	var txHash common.Hash
	if err := f.call(ctx, &txHash, "eth_sendTransaction", toCallArg(msg)); err != nil {
		// nodes that automine may reject a reverting transaction instead of including it
		return nil, asRevert(err)
	}
	f.log.Debug("sent transaction", "tx", txHash, "from", msg.From)

	receipt, err := retry.Do(ctx, math.MaxInt, retry.Fixed(f.pollInterval), func() (*types.Receipt, error) {
		var r *types.Receipt
		if err := f.call(ctx, &r, "eth_getTransactionReceipt", txHash); err != nil {
			// only a receipt that is not there yet is polled for again
			return nil, retry.Permanent(err)
		}
		if r == nil {
			return nil, ethereum.NotFound
		}
		return r, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get receipt of %s: %w", txHash, err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return receipt, fmt.Errorf("transaction %s: %w", txHash, ErrReverted)
	}
	return receipt, nil
}

func (f *RPCFork) Snapshot(ctx context.Context) (apis.SnapshotID, error) {
	var id string
	if err := f.call(ctx, &id, "evm_snapshot"); err != nil {
		return "", fmt.Errorf("failed to snapshot fork: %w", err)
	}
	return apis.SnapshotID(id), nil
}

func (f *RPCFork) Revert(ctx context.Context, id apis.SnapshotID) error {
	var ok bool
	if err := f.call(ctx, &ok, "evm_revert", string(id)); err != nil {
		return fmt.Errorf("failed to revert fork to snapshot %s: %w", id, err)
	}
	if !ok {
		return fmt.Errorf("fork did not revert to snapshot %s", id)
	}
	return nil
}

func (f *RPCFork) Close() {
	f.rpc.Close()
}

func toCallArg(msg ethereum.CallMsg) any {
	arg := map[string]any{
		"from": msg.From,
	}
	if msg.To != nil {
		arg["to"] = msg.To
	}
	if len(msg.Data) > 0 {
		arg["data"] = hexutil.Bytes(msg.Data)
	}
	if msg.Value != nil {
		arg["value"] = (*hexutil.Big)(msg.Value)
	}
	if msg.Gas != 0 {
		arg["gas"] = hexutil.Uint64(msg.Gas)
	}
	return arg
}

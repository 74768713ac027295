package forktest

import (
	"context"
	"fmt"
	"math/big"
	"strconv"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/state"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/params"
	"github.com/lmittmann/w3"
	"github.com/lmittmann/w3/w3types"
	"github.com/lmittmann/w3/w3vm"

	"github.com/mantlenetworkio/upgrade-check/op-service/apis"
)

// DefaultVMGasLimit is the gas limit of messages that do not set one.
const DefaultVMGasLimit = 30_000_000

// VMFork is an in-process EVM, either lazily forking a remote chain or starting from a given state.
// Messages are not signed, so any sender may be impersonated.
type VMFork struct {
	log log.Logger
	vm  *w3vm.VM

	gasLimit uint64
	closer   func()

	mu           sync.Mutex
	senders      map[common.Address]struct{}
	snapshots    map[apis.SnapshotID]*state.StateDB
	nextSnapshot uint64
}

type vmForkConfig struct {
	client   *w3.Client
	block    *big.Int
	state    w3types.State
	gasLimit uint64
	owned    bool
}

type VMForkOption func(cfg *vmForkConfig)

// WithRemoteFork lazily loads state from client, at block or the latest block if nil.
func WithRemoteFork(client *w3.Client, block *big.Int) VMForkOption {
	return func(cfg *vmForkConfig) {
		cfg.client = client
		cfg.block = block
	}
}

// WithInitialState starts the fork from s. With a remote fork, s overrides the remote state.
func WithInitialState(s w3types.State) VMForkOption {
	return func(cfg *vmForkConfig) {
		cfg.state = s
	}
}

func WithVMGasLimit(gas uint64) VMForkOption {
	return func(cfg *vmForkConfig) {
		cfg.gasLimit = gas
	}
}

// DialVMFork forks the chain served at url. Closing the fork closes the connection.
func DialVMFork(logger log.Logger, url string, block *big.Int, opts ...VMForkOption) (*VMFork, error) {
	client, err := w3.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", url, err)
	}
	opts = append(opts, WithRemoteFork(client, block), func(cfg *vmForkConfig) { cfg.owned = true })
	f, err := NewVMFork(logger, opts...)
	if err != nil {
		client.Close()
		return nil, err
	}
	return f, nil
}

func NewVMFork(logger log.Logger, opts ...VMForkOption) (*VMFork, error) {
	cfg := vmForkConfig{gasLimit: DefaultVMGasLimit}
	for _, opt := range opts {
		opt(&cfg)
	}

	vmOpts := []w3vm.Option{
		w3vm.WithChainConfig(params.AllDevChainProtocolChanges),
		w3vm.WithNoBaseFee(),
	}
	if cfg.client != nil {
		vmOpts = append(vmOpts, w3vm.WithFork(cfg.client, cfg.block))
	}
	if cfg.state != nil {
		vmOpts = append(vmOpts, w3vm.WithState(cfg.state))
	}
	vm, err := w3vm.New(vmOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create vm: %w", err)
	}

	f := &VMFork{
		log:       logger.New("fork", FlavorVM),
		vm:        vm,
		gasLimit:  cfg.gasLimit,
		senders:   make(map[common.Address]struct{}),
		snapshots: make(map[apis.SnapshotID]*state.StateDB),
	}
	if cfg.owned {
		client := cfg.client
		f.closer = func() {
			if err := client.Close(); err != nil {
				f.log.Warn("failed to close fork client", "err", err)
			}
		}
	}
	f.log.Debug("created vm fork", "remote", cfg.client != nil, "block", cfg.block, "accounts", len(cfg.state))
	return f, nil
}

func (f *VMFork) Impersonate(ctx context.Context, addr common.Address) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.senders[addr] = struct{}{}
	f.log.Info("impersonating account", "addr", addr)
	return nil
}

func (f *VMFork) StopImpersonating(ctx context.Context, addr common.Address) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.senders, addr)
	return nil
}

func (f *VMFork) SetBalance(ctx context.Context, addr common.Address, wei *big.Int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.vm.SetBalance(addr, new(big.Int).Set(wei))
	return nil
}

func (f *VMFork) BalanceAt(ctx context.Context, addr common.Address) (*big.Int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.vm.Balance(addr)
}

func (f *VMFork) CodeAt(ctx context.Context, addr common.Address) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.vm.Code(addr)
}

func (f *VMFork) StorageAt(ctx context.Context, addr common.Address, slot common.Hash) (common.Hash, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.vm.StorageAt(addr, slot)
}

func (f *VMFork) Call(ctx context.Context, msg ethereum.CallMsg) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	receipt, err := f.vm.Call(f.message(msg))
	if err := vmError(receipt, err); err != nil {
		return nil, err
	}
	return receipt.Output, nil
}

func (f *VMFork) Send(ctx context.Context, msg ethereum.CallMsg) (*types.Receipt, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.senders[msg.From]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotImpersonated, msg.From)
	}
	receipt, err := f.vm.Apply(f.message(msg))
	if receipt == nil {
		if err == nil {
			err = fmt.Errorf("no receipt")
		}
		return nil, fmt.Errorf("failed to apply message: %w", err)
	}
	out := &types.Receipt{
		Type:              types.LegacyTxType,
		Status:            types.ReceiptStatusSuccessful,
		GasUsed:           receipt.GasUsed,
		CumulativeGasUsed: receipt.GasUsed,
		Logs:              receipt.Logs,
	}
	if receipt.ContractAddress != nil {
		out.ContractAddress = *receipt.ContractAddress
	}
	if err := vmError(receipt, err); err != nil {
		out.Status = types.ReceiptStatusFailed
		return out, err
	}
	return out, nil
}

func (f *VMFork) Snapshot(ctx context.Context) (apis.SnapshotID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextSnapshot++
	id := apis.SnapshotID(strconv.FormatUint(f.nextSnapshot, 10))
	f.snapshots[id] = f.vm.Snapshot()
	return id, nil
}

func (f *VMFork) Revert(ctx context.Context, id apis.SnapshotID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	snap, ok := f.snapshots[id]
	if !ok {
		return fmt.Errorf("unknown snapshot %q", id)
	}
	f.vm.Rollback(snap)
	// like evm_revert, a snapshot is consumed by reverting to it, and so are later ones
	reverted := mustParseID(id)
	for other := range f.snapshots {
		if mustParseID(other) >= reverted {
			delete(f.snapshots, other)
		}
	}
	return nil
}

func (f *VMFork) Close() {
	if f.closer != nil {
		f.closer()
	}
}

func (f *VMFork) message(msg ethereum.CallMsg) *w3types.Message {
	gas := msg.Gas
	if gas == 0 {
		gas = f.gasLimit
	}
	return &w3types.Message{
		From:  msg.From,
		To:    msg.To,
		Gas:   gas,
		Value: msg.Value,
		Input: msg.Data,
	}
}

func mustParseID(id apis.SnapshotID) uint64 {
	n, err := strconv.ParseUint(string(id), 10, 64)
	if err != nil {
		panic(fmt.Errorf("invalid snapshot id %q: %w", id, err))
	}
	return n
}

// vmError classifies the outcome of a message: a receipt with an error is a revert,
// an error without a receipt is a failure to execute at all.
func vmError(receipt *w3vm.Receipt, err error) error {
	if receipt == nil {
		if err == nil {
			return fmt.Errorf("no receipt")
		}
		return err
	}
	if receipt.Err != nil {
		return fmt.Errorf("%w (%v)", &RevertError{Data: receipt.Output}, receipt.Err)
	}
	if err != nil {
		return fmt.Errorf("%w (%v)", &RevertError{Data: receipt.Output}, err)
	}
	return nil
}

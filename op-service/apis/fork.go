package apis

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// SnapshotID identifies a saved fork state.
type SnapshotID string

type ContractCaller interface {
	// Call executes a message against the latest fork state without persisting it.
	// msg.From is the caller seen by the contract.
	Call(ctx context.Context, msg ethereum.CallMsg) ([]byte, error)
}

type TxSender interface {
	// Send executes a message as a transaction from msg.From and returns its receipt.
	// A nil msg.To deploys msg.Data as creation code.
	// A transaction that was included but reverted is returned as an error, along with its receipt.
	Send(ctx context.Context, msg ethereum.CallMsg) (*types.Receipt, error)
}

type StateReader interface {
	BalanceAt(ctx context.Context, addr common.Address) (*big.Int, error)
	CodeAt(ctx context.Context, addr common.Address) ([]byte, error)
	StorageAt(ctx context.Context, addr common.Address, slot common.Hash) (common.Hash, error)
}

type Impersonator interface {
	// Impersonate allows sending transactions from addr without its private key.
	Impersonate(ctx context.Context, addr common.Address) error
	StopImpersonating(ctx context.Context, addr common.Address) error
}

type BalanceSetter interface {
	SetBalance(ctx context.Context, addr common.Address, wei *big.Int) error
}

type Snapshotter interface {
	Snapshot(ctx context.Context) (SnapshotID, error)
	// Revert restores the state saved by Snapshot. The id cannot be reused afterwards.
	Revert(ctx context.Context, id SnapshotID) error
}

// ContractClient is what the typed contract bindings need to read and write.
type ContractClient interface {
	ContractCaller
	TxSender
}

// ForkClient is a client of a forked chain that can be freely manipulated.
type ForkClient interface {
	ContractClient
	StateReader
	Impersonator
	BalanceSetter
	Snapshotter
	Close()
}

package dial

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/rpc"

	"github.com/mantlenetworkio/upgrade-check/op-service/retry"
)

// DefaultDialTimeout is a default timeout for dialing a client.
const DefaultDialTimeout = 1 * time.Minute
const defaultRetryCount = 30
const defaultRetryTime = 2 * time.Second
const defaultConnectTimeout = 10 * time.Second

// DialRPCClientWithTimeout attempts to dial the RPC provider using the provided URL.
// If the dial doesn't complete within timeout, this method will return an error.
func DialRPCClientWithTimeout(ctx context.Context, timeout time.Duration, log log.Logger, url string, opts ...rpc.ClientOption) (*rpc.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	return dialRPCClientWithBackoff(ctx, log, url, opts...)
}

// Dials a JSON-RPC endpoint repeatedly, with a backoff, until a client connection is established.
func dialRPCClientWithBackoff(ctx context.Context, log log.Logger, addr string, opts ...rpc.ClientOption) (*rpc.Client, error) {
	bOff := retry.Fixed(defaultRetryTime)
	return retry.Do(ctx, defaultRetryCount, bOff, func() (*rpc.Client, error) {
		return dialRPCClient(ctx, log, addr, opts...)
	})
}

// Dials a JSON-RPC endpoint once, and checks it answers eth_chainId.
func dialRPCClient(ctx context.Context, log log.Logger, addr string, opts ...rpc.ClientOption) (*rpc.Client, error) {
	dialCtx, cancel := context.WithTimeout(ctx, defaultConnectTimeout)
	defer cancel()

	client, err := rpc.DialOptions(dialCtx, addr, opts...)
	if err != nil {
		log.Warn("failed to dial rpc endpoint", "addr", addr, "err", err)
		return nil, fmt.Errorf("failed to dial address (%s): %w", addr, err)
	}
	var chainID hexutil.Big
	if err := client.CallContext(dialCtx, &chainID, "eth_chainId"); err != nil {
		client.Close()
		log.Warn("rpc endpoint not ready", "addr", addr, "err", err)
		return nil, fmt.Errorf("endpoint %s not ready: %w", addr, err)
	}
	log.Info("connected to rpc endpoint", "addr", addr, "chain_id", (*hexutil.Big)(&chainID).ToInt())
	return client, nil
}

package dial

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/stretchr/testify/require"

	"github.com/mantlenetworkio/upgrade-check/op-service/testlog"
)

type ethAPI struct{}

func (ethAPI) ChainId() hexutil.Uint64 {
	return 1
}

func TestDialRPCClientWithTimeout(t *testing.T) {
	srv := rpc.NewServer()
	require.NoError(t, srv.RegisterName("eth", ethAPI{}))
	httpSrv := httptest.NewServer(srv)
	t.Cleanup(httpSrv.Close)
	t.Cleanup(srv.Stop)

	logger := testlog.Logger(t, log.LevelDebug)
	cl, err := DialRPCClientWithTimeout(context.Background(), 5*time.Second, logger, httpSrv.URL)
	require.NoError(t, err)
	defer cl.Close()

	var id hexutil.Uint64
	require.NoError(t, cl.CallContext(context.Background(), &id, "eth_chainId"))
	require.EqualValues(t, 1, id)
}

func TestDialRPCClientTimesOut(t *testing.T) {
	logger := testlog.Logger(t, log.LevelDebug)
	_, err := DialRPCClientWithTimeout(context.Background(), 100*time.Millisecond, logger, "http://127.0.0.1:1")
	require.Error(t, err)
}

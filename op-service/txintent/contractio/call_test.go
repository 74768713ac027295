package contractio

import (
	"context"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/require"

	"github.com/mantlenetworkio/upgrade-check/op-service/txintent/bindings"
)

type recordingClient struct {
	calls   []ethereum.CallMsg
	sends   []ethereum.CallMsg
	ret     []byte
	sendErr error
}

func (c *recordingClient) Call(ctx context.Context, msg ethereum.CallMsg) ([]byte, error) {
	c.calls = append(c.calls, msg)
	return c.ret, nil
}

func (c *recordingClient) Send(ctx context.Context, msg ethereum.CallMsg) (*types.Receipt, error) {
	c.sends = append(c.sends, msg)
	return &types.Receipt{Status: types.ReceiptStatusSuccessful}, c.sendErr
}

var (
	proxyAddr    = common.HexToAddress("0x927DdFcc55164a59E0F33918D13a2D559bC10ce7")
	governorAddr = common.HexToAddress("0x98591957D9741e7E7d58FC253044e0A014A3a323")
)

func TestRead(t *testing.T) {
	impl := common.HexToAddress("0x1111")
	cl := &recordingClient{ret: common.LeftPadBytes(impl.Bytes(), 32)}
	proxy := bindings.NewTransparentUpgradeableProxy(
		bindings.WithTo(proxyAddr), bindings.WithFrom(governorAddr), bindings.WithClient(cl))

	got, err := Read(proxy.Implementation(), context.Background())
	require.NoError(t, err)
	require.Equal(t, impl, got)
	require.Len(t, cl.calls, 1)
	require.Equal(t, governorAddr, cl.calls[0].From)
	require.Equal(t, proxyAddr, *cl.calls[0].To)
	require.Equal(t, []byte{0x5c, 0x60, 0xda, 0x1b}, cl.calls[0].Data)
	require.Empty(t, cl.sends)
}

func TestWrite(t *testing.T) {
	cl := &recordingClient{}
	proxy := bindings.NewTransparentUpgradeableProxy(
		bindings.WithTo(proxyAddr), bindings.WithFrom(governorAddr), bindings.WithClient(cl))

	newImpl := common.HexToAddress("0x2222")
	rec, err := Write(proxy.UpgradeTo(newImpl), context.Background(), WithGas(100_000))
	require.NoError(t, err)
	require.Equal(t, types.ReceiptStatusSuccessful, rec.Status)
	require.Len(t, cl.sends, 1)
	require.Equal(t, uint64(100_000), cl.sends[0].Gas)
	require.Equal(t, governorAddr, cl.sends[0].From)
	require.Equal(t, common.LeftPadBytes(newImpl.Bytes(), 32), cl.sends[0].Data[4:])
}

func TestWriteError(t *testing.T) {
	boom := errors.New("boom")
	cl := &recordingClient{sendErr: boom}
	proxy := bindings.NewTransparentUpgradeableProxy(bindings.WithTo(proxyAddr), bindings.WithClient(cl))
	rec, err := Write(proxy.UpgradeTo(common.Address{}), context.Background())
	require.ErrorIs(t, err, boom)
	require.NotNil(t, rec, "receipt of a reverted transaction is still returned")
}

func TestNoClient(t *testing.T) {
	proxy := bindings.NewTransparentUpgradeableProxy(bindings.WithTo(proxyAddr))
	_, err := Read(proxy.Implementation(), context.Background())
	require.ErrorContains(t, err, "no client")
}

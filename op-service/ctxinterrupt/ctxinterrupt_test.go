package ctxinterrupt

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWaitReturnsContextError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, Wait(ctx), context.Canceled)
}

func TestWithCancelOnInterruptFollowsParent(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	ctx := WithCancelOnInterrupt(parent)
	require.NoError(t, ctx.Err())
	cancel()
	<-ctx.Done()
	require.ErrorIs(t, ctx.Err(), context.Canceled)
}

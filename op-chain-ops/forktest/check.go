package forktest

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/log"

	"github.com/mantlenetworkio/upgrade-check/op-service/apis"
)

// Check sets up and runs an upgrade check on fork. Unless keepState is set,
// the fork is reverted to its prior state afterwards.
// The error is only set when the check could not run; failing steps are in the report.
func Check(ctx context.Context, logger log.Logger, fork apis.ForkClient, cfg Config, m Metricer, keepState bool) (*Report, error) {
	uc, err := NewUpgradeCheck(logger, fork, cfg, m)
	if err != nil {
		return nil, err
	}
	if !keepState {
		id, err := fork.Snapshot(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to snapshot fork: %w", err)
		}
		defer func() {
			// the run context may be cancelled by now
			if err := fork.Revert(context.WithoutCancel(ctx), id); err != nil {
				logger.Warn("failed to revert fork", "snapshot", id, "err", err)
			} else {
				logger.Debug("reverted fork", "snapshot", id)
			}
		}()
	}
	if err := uc.Setup(ctx); err != nil {
		if m != nil {
			m.RecordRun(false)
		}
		return nil, fmt.Errorf("failed to set up upgrade check: %w", err)
	}
	return uc.Run(ctx), nil
}

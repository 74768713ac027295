package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/ethereum/go-ethereum/log"
	"github.com/urfave/cli/v2"

	"github.com/mantlenetworkio/upgrade-check/op-chain-ops/forktest"
	"github.com/mantlenetworkio/upgrade-check/op-chain-ops/forktest/fixtures"
	"github.com/mantlenetworkio/upgrade-check/op-chain-ops/foundry"
	opservice "github.com/mantlenetworkio/upgrade-check/op-service"
	"github.com/mantlenetworkio/upgrade-check/op-service/apis"
	"github.com/mantlenetworkio/upgrade-check/op-service/ctxinterrupt"
	oplog "github.com/mantlenetworkio/upgrade-check/op-service/log"
)

func main() {
	ctx := ctxinterrupt.WithCancelOnInterrupt(context.Background())
	oplog.SetupDefaults()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		log.Crit("Application failed", "err", err)
	}
}

func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = "check-bridge-upgrade"
	app.Version = opservice.DefaultFormatVersion()
	app.Usage = "Upgrades the L1 ERC20 bridge proxy to a new implementation and back on a fork, checking the interface exposed by the proxy"
	app.Flags = Flags
	app.Action = Main
	app.Commands = []*cli.Command{docCommand}
	return app
}

// Main is the entrypoint of the check. It returns an error if the check could not run, or any step failed.
func Main(cliCtx *cli.Context) error {
	logger := oplog.NewLogger(logOut(cliCtx), oplog.ReadCLIConfig(cliCtx))
	oplog.SetGlobalLogHandler(logger.Handler())
	opservice.ValidateEnvVars(EnvVarPrefix, Flags, logger)

	cfg, err := LoadConfig(cliCtx)
	if err != nil {
		return err
	}
	ctx := cliCtx.Context

	initCode, err := implementationInitCode(logger, cfg)
	if err != nil {
		return err
	}
	probes := make([]forktest.Probe, 0, len(cfg.Probes))
	for _, sig := range cfg.Probes {
		p, err := forktest.ParseProbe(sig)
		if err != nil {
			return err
		}
		probes = append(probes, p)
	}

	m := forktest.NewMetrics("")
	fork, err := openFork(ctx, logger, cfg, m)
	if err != nil {
		return err
	}
	defer fork.Close()

	report, err := forktest.Check(ctx, logger, fork, forktest.Config{
		Proxy:           cfg.Proxy,
		Governor:        cfg.Governor,
		Caller:          cfg.Caller,
		Mailbox:         cfg.Mailbox,
		AllowList:       cfg.AllowList,
		GovernorBalance: cfg.GovernorBalance,
		InitCode:        initCode,
		Probes:          probes,
	}, m, cfg.KeepState)
	if cfg.MetricsTextfile != "" {
		if err := m.WriteTextfile(cfg.MetricsTextfile); err != nil {
			logger.Error("Failed to write metrics", "path", cfg.MetricsTextfile, "err", err)
		}
	}
	if err != nil {
		return err
	}

	out := oplog.AppOut(cliCtx)
	switch cfg.Output {
	case outputJSON:
		if err := report.WriteJSON(out); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
	default:
		report.WriteTable(out)
	}
	if err := report.Err(); err != nil {
		return fmt.Errorf("upgrade check failed: %w", err)
	}
	logger.Info("Upgrade check passed", "proxy", cfg.Proxy, "impl", report.NewImplementation)
	return nil
}

// logOut keeps logs apart from the report, which is written to the app output.
func logOut(cliCtx *cli.Context) io.Writer {
	if cliCtx.App != nil && cliCtx.App.ErrWriter != nil {
		return cliCtx.App.ErrWriter
	}
	return os.Stderr
}

func openFork(ctx context.Context, logger log.Logger, cfg *Config, m *forktest.Metrics) (apis.ForkClient, error) {
	switch flavor := cfg.flavor(); {
	case cfg.Simulate:
		logger.Info("Simulating bridge proxy", "proxy", cfg.Proxy, "governor", cfg.Governor)
		return forktest.NewVMFork(logger, forktest.WithVMGasLimit(cfg.VMGasLimit),
			forktest.WithInitialState(fixtures.ForkState(fixtures.Chain{
				Proxy:    cfg.Proxy,
				Governor: cfg.Governor,
			})))
	case flavor == forktest.FlavorVM:
		logger.Info("Forking in-process", "rpc", cfg.ForkRPC, "block", cfg.forkBlock())
		return forktest.DialVMFork(logger, cfg.ForkRPC, cfg.forkBlock(), forktest.WithVMGasLimit(cfg.VMGasLimit))
	default:
		logger.Info("Connecting to fork", "rpc", cfg.ForkRPC, "flavor", flavor)
		return forktest.DialRPCFork(ctx, logger, cfg.ForkRPC, flavor, cfg.DialTimeout, forktest.WithRPCMetrics(m))
	}
}

// implementationInitCode reads the creation code of the new implementation from a forge artifact,
// which must have the (address mailbox, address allowList) constructor.
// Without an artifact, the simulated implementation is used.
func implementationInitCode(logger log.Logger, cfg *Config) ([]byte, error) {
	if cfg.Artifact == "" {
		logger.Info("Using simulated bridge implementation")
		return fixtures.BridgeTestInitCode(), nil
	}
	var (
		artifact *foundry.Artifact
		err      error
	)
	if strings.HasSuffix(cfg.Artifact, ".json") {
		artifact, err = foundry.ReadArtifactFile(cfg.Artifact)
	} else {
		artifact, err = foundry.OpenArtifactsDir(cfg.Artifact).ReadArtifact(cfg.Contract+".sol", cfg.Contract)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load implementation artifact: %w", err)
	}
	if inputs := artifact.ConstructorInputs(); !slices.Equal(inputs, []string{"address", "address"}) {
		return nil, fmt.Errorf("implementation constructor takes (%s), expected (address,address)", strings.Join(inputs, ","))
	}
	for _, method := range []string{"getAllowList", "getZkSyncMailbox"} {
		if _, ok := artifact.ABI.Methods[method]; !ok {
			logger.Warn("Implementation ABI lacks method", "method", method)
		}
	}
	logger.Info("Loaded implementation artifact", "path", filepath.Clean(cfg.Artifact),
		"compiler", artifact.Metadata.Compiler.Version, "size", len(artifact.Bytecode.Object))
	return artifact.Bytecode.Object, nil
}

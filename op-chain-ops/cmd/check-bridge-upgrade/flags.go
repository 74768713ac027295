package main

import (
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/mantlenetworkio/upgrade-check/op-chain-ops/addresses"
	"github.com/mantlenetworkio/upgrade-check/op-chain-ops/forktest"
	opservice "github.com/mantlenetworkio/upgrade-check/op-service"
	oplog "github.com/mantlenetworkio/upgrade-check/op-service/log"
)

const EnvVarPrefix = "CHECK_BRIDGE_UPGRADE"

const (
	ForkRPCFlagName         = "fork-rpc"
	ForkFlavorFlagName      = "fork-flavor"
	ForkBlockFlagName       = "fork-block"
	SimulateFlagName        = "simulate"
	ProxyFlagName           = "proxy"
	GovernorFlagName        = "governor"
	CallerFlagName          = "caller"
	MailboxFlagName         = "mailbox"
	AllowListFlagName       = "allow-list"
	GovernorBalanceFlagName = "governor-balance"
	ArtifactFlagName        = "artifact"
	ContractFlagName        = "contract"
	ProbeFlagName           = "probe"
	ConfigFlagName          = "config"
	KeepStateFlagName       = "keep-state"
	MetricsTextfileFlagName = "metrics.textfile"
	OutputFlagName          = "output"
	DialTimeoutFlagName     = "dial-timeout"
	VMGasLimitFlagName      = "vm-gas-limit"
)

func prefixEnvVars(name string) []string {
	return opservice.PrefixEnvVar(EnvVarPrefix, strings.ToUpper(strings.NewReplacer("-", "_", ".", "_").Replace(name)))
}

var (
	ForkRPCFlag = &cli.StringFlag{
		Name:    ForkRPCFlagName,
		Usage:   "JSON-RPC endpoint of the fork node, or of the chain to fork in-process with --fork-flavor=vm",
		Value:   defaultForkRPC,
		EnvVars: prefixEnvVars(ForkRPCFlagName),
	}
	ForkFlavorFlag = &cli.StringFlag{
		Name:    ForkFlavorFlagName,
		Usage:   fmt.Sprintf("Fork backend. One of: %s", flavorNames()),
		Value:   forktest.FlavorHardhat.String(),
		EnvVars: prefixEnvVars(ForkFlavorFlagName),
	}
	ForkBlockFlag = &cli.Uint64Flag{
		Name:    ForkBlockFlagName,
		Usage:   "Block to fork at with --fork-flavor=vm. Zero forks the latest block",
		EnvVars: prefixEnvVars(ForkBlockFlagName),
	}
	SimulateFlag = &cli.BoolFlag{
		Name:    SimulateFlagName,
		Usage:   "Run against an in-process chain with a simulated bridge proxy, instead of a fork",
		EnvVars: prefixEnvVars(SimulateFlagName),
	}
	ProxyFlag = &cli.StringFlag{
		Name:    ProxyFlagName,
		Usage:   "Address of the bridge proxy",
		Value:   addresses.MainnetL1Erc20BridgeProxy.Hex(),
		EnvVars: prefixEnvVars(ProxyFlagName),
	}
	GovernorFlag = &cli.StringFlag{
		Name:    GovernorFlagName,
		Usage:   "Admin of the bridge proxy. It is impersonated",
		Value:   addresses.MainnetGovernor.Hex(),
		EnvVars: prefixEnvVars(GovernorFlagName),
	}
	CallerFlag = &cli.StringFlag{
		Name:    CallerFlagName,
		Usage:   "Account without any role, deploying the new implementation and calling the bridge. It is impersonated",
		Value:   addresses.DefaultCaller.Hex(),
		EnvVars: prefixEnvVars(CallerFlagName),
	}
	MailboxFlag = &cli.StringFlag{
		Name:    MailboxFlagName,
		Usage:   "Mailbox constructor argument of the new implementation",
		Value:   addresses.TestBridgeImplArgs.Mailbox.Hex(),
		EnvVars: prefixEnvVars(MailboxFlagName),
	}
	AllowListFlag = &cli.StringFlag{
		Name:    AllowListFlagName,
		Usage:   "Allow-list constructor argument of the new implementation",
		Value:   addresses.TestBridgeImplArgs.AllowList.Hex(),
		EnvVars: prefixEnvVars(AllowListFlagName),
	}
	GovernorBalanceFlag = &cli.StringFlag{
		Name:    GovernorBalanceFlagName,
		Usage:   "Balance in wei the governor is funded with, decimal or 0x-prefixed hex",
		Value:   "0x" + forktest.DefaultGovernorBalance.Text(16),
		EnvVars: prefixEnvVars(GovernorBalanceFlagName),
	}
	ArtifactFlag = &cli.StringFlag{
		Name:    ArtifactFlagName,
		Usage:   "Forge artifact JSON file, or forge artifacts directory, of the new implementation. A simulated implementation is deployed if not set",
		EnvVars: prefixEnvVars(ArtifactFlagName),
	}
	ContractFlag = &cli.StringFlag{
		Name:    ContractFlagName,
		Usage:   "Contract to read from the artifacts directory",
		Value:   defaultContract,
		EnvVars: prefixEnvVars(ContractFlagName),
	}
	ProbeFlag = &cli.StringSliceFlag{
		Name:    ProbeFlagName,
		Usage:   "View without arguments, e.g. 'l2Bridge()', whose result must survive the upgrade. Defaults to l2Bridge()",
		EnvVars: prefixEnvVars(ProbeFlagName),
	}
	ConfigFlag = &cli.PathFlag{
		Name:    ConfigFlagName,
		Usage:   "TOML file with the same settings as the flags. Flags that are set take precedence",
		EnvVars: prefixEnvVars(ConfigFlagName),
	}
	KeepStateFlag = &cli.BoolFlag{
		Name:    KeepStateFlagName,
		Usage:   "Leave the fork in its final state instead of reverting it",
		EnvVars: prefixEnvVars(KeepStateFlagName),
	}
	MetricsTextfileFlag = &cli.PathFlag{
		Name:    MetricsTextfileFlagName,
		Usage:   "Write metrics of the run to this file, for the node-exporter textfile collector",
		EnvVars: prefixEnvVars(MetricsTextfileFlagName),
	}
	OutputFlag = &cli.StringFlag{
		Name:    OutputFlagName,
		Usage:   "Report format: table or json",
		Value:   outputTable,
		EnvVars: prefixEnvVars(OutputFlagName),
	}
	VMGasLimitFlag = &cli.Uint64Flag{
		Name:    VMGasLimitFlagName,
		Usage:   "Gas limit of transactions on the in-process fork, with --simulate or --fork-flavor=vm",
		Value:   forktest.DefaultVMGasLimit,
		EnvVars: prefixEnvVars(VMGasLimitFlagName),
	}
	DialTimeoutFlag = &cli.DurationFlag{
		Name:    DialTimeoutFlagName,
		Usage:   "How long to wait for the fork node to be ready",
		Value:   defaultDialTimeout,
		EnvVars: prefixEnvVars(DialTimeoutFlagName),
	}
)

func flavorNames() string {
	names := make([]string, 0, len(forktest.Flavors))
	for _, f := range forktest.Flavors {
		names = append(names, f.String())
	}
	return strings.Join(names, ", ")
}

var requiredFlags []cli.Flag

var optionalFlags = []cli.Flag{
	ForkRPCFlag,
	ForkFlavorFlag,
	ForkBlockFlag,
	SimulateFlag,
	ProxyFlag,
	GovernorFlag,
	CallerFlag,
	MailboxFlag,
	AllowListFlag,
	GovernorBalanceFlag,
	ArtifactFlag,
	ContractFlag,
	ProbeFlag,
	ConfigFlag,
	KeepStateFlag,
	MetricsTextfileFlag,
	OutputFlag,
	DialTimeoutFlag,
	VMGasLimitFlag,
}

func init() {
	optionalFlags = append(optionalFlags, oplog.CLIFlags(EnvVarPrefix)...)
	Flags = append(requiredFlags, optionalFlags...)
}

// Flags contains the list of configuration options available to the binary.
var Flags []cli.Flag

package main

import (
	"errors"
	"fmt"
	"math/big"
	"slices"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/ethereum/go-ethereum/common"
	"github.com/urfave/cli/v2"

	"github.com/mantlenetworkio/upgrade-check/op-chain-ops/addresses"
	"github.com/mantlenetworkio/upgrade-check/op-chain-ops/forktest"
	"github.com/mantlenetworkio/upgrade-check/op-service/cliutil"
)

const (
	defaultForkRPC     = "http://127.0.0.1:8545"
	defaultContract    = "L1ERC20BridgeTest"
	defaultDialTimeout = time.Minute

	outputTable = "table"
	outputJSON  = "json"
)

var defaultProbes = []string{"l2Bridge()"}

// Config is read from the TOML file given with --config, then overlaid by the flags that are set.
type Config struct {
	ForkRPC     string        `toml:"fork-rpc" cli:"fork-rpc"`
	ForkFlavor  string        `toml:"fork-flavor" cli:"fork-flavor"`
	ForkBlock   uint64        `toml:"fork-block" cli:"fork-block"`
	Simulate    bool          `toml:"simulate" cli:"simulate"`
	DialTimeout time.Duration `toml:"dial-timeout" cli:"dial-timeout"`
	VMGasLimit  uint64        `toml:"vm-gas-limit" cli:"vm-gas-limit"`

	Proxy     common.Address `toml:"proxy" cli:"proxy"`
	Governor  common.Address `toml:"governor" cli:"governor"`
	Caller    common.Address `toml:"caller" cli:"caller"`
	Mailbox   common.Address `toml:"mailbox" cli:"mailbox"`
	AllowList common.Address `toml:"allow-list" cli:"allow-list"`

	GovernorBalance *big.Int `toml:"governor-balance" cli:"governor-balance"`

	Artifact string   `toml:"artifact" cli:"artifact"`
	Contract string   `toml:"contract" cli:"contract"`
	Probes   []string `toml:"probes" cli:"probe"`

	KeepState       bool   `toml:"keep-state" cli:"keep-state"`
	MetricsTextfile string `toml:"metrics-textfile" cli:"metrics.textfile"`
	Output          string `toml:"output" cli:"output"`
}

func DefaultConfig() *Config {
	bridge := addresses.MainnetBridge()
	return &Config{
		ForkRPC:         defaultForkRPC,
		ForkFlavor:      forktest.FlavorHardhat.String(),
		DialTimeout:     defaultDialTimeout,
		VMGasLimit:      forktest.DefaultVMGasLimit,
		Proxy:           bridge.L1Erc20BridgeProxy,
		Governor:        bridge.Governor,
		Caller:          bridge.Caller,
		Mailbox:         addresses.TestBridgeImplArgs.Mailbox,
		AllowList:       addresses.TestBridgeImplArgs.AllowList,
		GovernorBalance: new(big.Int).Set(forktest.DefaultGovernorBalance),
		Contract:        defaultContract,
		Probes:          slices.Clone(defaultProbes),
		Output:          outputTable,
	}
}

// LoadConfig reads the config file if one is given, and applies the flags that are set on top.
func LoadConfig(ctx *cli.Context) (*Config, error) {
	cfg := DefaultConfig()
	if path := ctx.Path(ConfigFlagName); path != "" {
		md, err := toml.DecodeFile(path, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("unknown keys in config file %s: %v", path, undecoded)
		}
	}
	if err := cliutil.OverlayStruct(cfg, ctx); err != nil {
		return nil, err
	}
	if err := cfg.Check(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Check() error {
	if !c.Simulate {
		if c.ForkRPC == "" {
			return errors.New("missing fork RPC endpoint")
		}
		if _, err := forktest.ParseFlavor(c.ForkFlavor); err != nil {
			return err
		}
	}
	if err := addresses.CheckNoZeroAddresses(c.deployment()); err != nil {
		return fmt.Errorf("invalid bridge deployment: %w", err)
	}
	if c.VMGasLimit == 0 && c.flavor() == forktest.FlavorVM {
		return errors.New("vm gas limit must be positive")
	}
	if c.GovernorBalance == nil || c.GovernorBalance.Sign() <= 0 {
		return errors.New("governor balance must be positive")
	}
	switch c.Output {
	case outputTable, outputJSON:
	default:
		return fmt.Errorf("unknown output format %q", c.Output)
	}
	if c.Artifact != "" && c.Contract == "" {
		return errors.New("missing contract to read from the artifacts")
	}
	return nil
}

func (c *Config) deployment() addresses.BridgeDeployment {
	return addresses.BridgeDeployment{
		BridgeContracts: addresses.BridgeContracts{L1Erc20BridgeProxy: c.Proxy},
		BridgeRoles:     addresses.BridgeRoles{Governor: c.Governor, Caller: c.Caller},
	}
}

func (c *Config) flavor() forktest.Flavor {
	if c.Simulate {
		return forktest.FlavorVM
	}
	// checked by Check
	f, _ := forktest.ParseFlavor(c.ForkFlavor)
	return f
}

func (c *Config) forkBlock() *big.Int {
	if c.ForkBlock == 0 {
		return nil
	}
	return new(big.Int).SetUint64(c.ForkBlock)
}

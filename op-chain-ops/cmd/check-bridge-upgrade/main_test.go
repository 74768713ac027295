package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"github.com/mantlenetworkio/upgrade-check/op-chain-ops/addresses"
	"github.com/mantlenetworkio/upgrade-check/op-chain-ops/forktest"
	"github.com/mantlenetworkio/upgrade-check/op-chain-ops/forktest/fixtures"
	opmetrics "github.com/mantlenetworkio/upgrade-check/op-service/metrics"
)

func runApp(t *testing.T, args ...string) (string, error) {
	app := newApp()
	var out, logs bytes.Buffer
	app.Writer = &out
	app.ErrWriter = &logs
	err := app.Run(append([]string{"check-bridge-upgrade"}, args...))
	t.Log(logs.String())
	return out.String(), err
}

const bridgeABI = `[
	{"type":"constructor","inputs":[{"name":"_mailbox","type":"address"},{"name":"_allowList","type":"address"}],"stateMutability":"nonpayable"},
	{"type":"function","name":"getAllowList","inputs":[],"outputs":[{"name":"","type":"address"}],"stateMutability":"view"},
	{"type":"function","name":"getZkSyncMailbox","inputs":[],"outputs":[{"name":"","type":"address"}],"stateMutability":"view"}
]`

func writeArtifact(t *testing.T, abiJSON string, initCode []byte) string {
	path := filepath.Join(t.TempDir(), "L1ERC20BridgeTest.json")
	data := fmt.Sprintf(`{"abi":%s,"bytecode":{"object":%q,"linkReferences":{}},"deployedBytecode":{"object":"0x"},"metadata":{"compiler":{"version":"0.8.20"}}}`,
		abiJSON, hexutil.Encode(initCode))
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
	return path
}

type jsonReport struct {
	Proxy             common.Address `json:"proxy"`
	OldImplementation common.Address `json:"oldImplementation"`
	NewImplementation common.Address `json:"newImplementation"`
	Passed            bool           `json:"passed"`
	Steps             []struct {
		Name   string `json:"name"`
		Passed bool   `json:"passed"`
	} `json:"steps"`
}

func TestSimulate(t *testing.T) {
	metricsPath := filepath.Join(t.TempDir(), "upgrade.prom")
	out, err := runApp(t, "--simulate", "--output=json", "--metrics.textfile="+metricsPath)
	require.NoError(t, err)

	var report jsonReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	require.True(t, report.Passed)
	require.Equal(t, addresses.MainnetL1Erc20BridgeProxy, report.Proxy)
	require.Equal(t, fixtures.DefaultLegacyImplementation, report.OldImplementation)
	require.NotEqual(t, common.Address{}, report.NewImplementation)
	require.Len(t, report.Steps, 6)

	metrics, err := os.ReadFile(metricsPath)
	require.NoError(t, err)
	require.Contains(t, string(metrics), "upgrade_check_last_run_passed 1")
}

func TestSimulateTable(t *testing.T) {
	out, err := runApp(t, "--simulate", "--probe=l2Bridge()")
	require.NoError(t, err)
	for _, step := range []string{forktest.StepLegacyRejectsNewMethods, forktest.StepUpgrade, forktest.StepLegacyInterfaceRestored} {
		require.Contains(t, out, step)
	}
}

func TestSimulateArtifact(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		path := writeArtifact(t, bridgeABI, fixtures.BridgeTestInitCode())
		_, err := runApp(t, "--simulate", "--artifact="+path)
		require.NoError(t, err)
	})

	t.Run("wrong constants", func(t *testing.T) {
		path := writeArtifact(t, bridgeABI, fixtures.BrokenBridgeTestInitCode(common.HexToAddress("0x0bad")))
		out, err := runApp(t, "--simulate", "--artifact="+path, "--output=json")
		require.ErrorContains(t, err, "upgrade check failed")

		var report jsonReport
		require.NoError(t, json.Unmarshal([]byte(out), &report))
		require.False(t, report.Passed)
		for _, s := range report.Steps {
			require.Equal(t, s.Name != forktest.StepNewInterfaceExposed, s.Passed, s.Name)
		}
	})

	t.Run("wrong constructor", func(t *testing.T) {
		path := writeArtifact(t, `[{"type":"constructor","inputs":[{"name":"x","type":"uint256"}]}]`, fixtures.BridgeTestInitCode())
		_, err := runApp(t, "--simulate", "--artifact="+path)
		require.ErrorContains(t, err, "expected (address,address)")
	})
}

func TestSimulateCustomDeployment(t *testing.T) {
	proxy := common.HexToAddress("0x00000000000000000000000000000000000b4d6e")
	governor := common.HexToAddress("0x000000000000000000000000000000000000900d")
	out, err := runApp(t, "--simulate", "--output=json",
		"--proxy="+proxy.Hex(), "--governor="+governor.Hex(), "--governor-balance=1000000000000000000")
	require.NoError(t, err)
	var report jsonReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	require.Equal(t, proxy, report.Proxy)
	require.True(t, report.Passed)
}

func TestSimulateVMGasLimit(t *testing.T) {
	_, err := runApp(t, "--simulate", "--vm-gas-limit=50000")
	require.ErrorContains(t, err, "failed to deploy new implementation")

	_, err = runApp(t, "--simulate", "--vm-gas-limit=0")
	require.ErrorContains(t, err, "vm gas limit must be positive")

	_, err = runApp(t, "--simulate", "--vm-gas-limit=10000000")
	require.NoError(t, err)
}

func TestDocMetrics(t *testing.T) {
	out, err := runApp(t, "doc", "metrics", "--format=json")
	require.NoError(t, err)
	var docs []opmetrics.DocumentedMetric
	require.NoError(t, json.Unmarshal([]byte(out), &docs))
	labels := make(map[string][]string)
	for _, d := range docs {
		labels[d.Name] = d.Labels
	}
	require.Equal(t, []string{"step", "result"}, labels["upgrade_check_steps_total"])
	require.Contains(t, labels, "upgrade_check_last_run_passed")

	out, err = runApp(t, "doc", "metrics")
	require.NoError(t, err)
	require.Contains(t, out, "`upgrade_check_rpc_client_requests_total`")

	_, err = runApp(t, "doc", "metrics", "--format=yaml")
	require.Error(t, err)
}

func TestInvalidFlags(t *testing.T) {
	for name, args := range map[string][]string{
		"flavor":           {"--fork-flavor=ganache"},
		"output":           {"--simulate", "--output=yaml"},
		"zero proxy":       {"--simulate", "--proxy=0x0000000000000000000000000000000000000000"},
		"caller governor":  {"--simulate", "--caller=" + addresses.MainnetGovernor.Hex()},
		"probe":            {"--simulate", "--probe=balanceOf(address)"},
		"governor balance": {"--simulate", "--governor-balance=0"},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := runApp(t, args...)
			require.Error(t, err)
		})
	}
}

func loadConfig(t *testing.T, args ...string) (*Config, error) {
	var cfg *Config
	app := &cli.App{
		Name:  "test",
		Flags: Flags,
		Action: func(ctx *cli.Context) error {
			var err error
			cfg, err = LoadConfig(ctx)
			return err
		},
	}
	err := app.Run(append([]string{"test"}, args...))
	return cfg, err
}

func TestLoadConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg, err := loadConfig(t)
		require.NoError(t, err)
		require.Equal(t, DefaultConfig(), cfg)
		require.Equal(t, forktest.FlavorHardhat, cfg.flavor())
		require.Nil(t, cfg.forkBlock())
	})

	t.Run("file and flags", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "check.toml")
		require.NoError(t, os.WriteFile(path, []byte(`
fork-rpc = "http://localhost:9545"
fork-flavor = "vm"
fork-block = 19000000
dial-timeout = "5s"
proxy = "0x0000000000000000000000000000000000001111"
governor = "0x0000000000000000000000000000000000002222"
governor-balance = "0x10"
probes = ["l2Bridge()", "owner()"]
`), 0o644))

		cfg, err := loadConfig(t, "--config="+path, "--governor=0x0000000000000000000000000000000000003333", "--fork-flavor=anvil")
		require.NoError(t, err)
		require.Equal(t, "http://localhost:9545", cfg.ForkRPC)
		require.Equal(t, forktest.FlavorAnvil, cfg.flavor())
		require.Equal(t, uint64(19000000), cfg.forkBlock().Uint64())
		require.Equal(t, common.HexToAddress("0x1111"), cfg.Proxy)
		require.Equal(t, common.HexToAddress("0x3333"), cfg.Governor)
		require.Equal(t, int64(16), cfg.GovernorBalance.Int64())
		require.Equal(t, []string{"l2Bridge()", "owner()"}, cfg.Probes)
		require.Equal(t, "5s", cfg.DialTimeout.String())
	})

	t.Run("unknown key", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "check.toml")
		require.NoError(t, os.WriteFile(path, []byte(`unknown = 1`), 0o644))
		_, err := loadConfig(t, "--config="+path)
		require.ErrorContains(t, err, "unknown keys")
	})
}

package op_service

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func TestPrefixEnvVar(t *testing.T) {
	require.Equal(t, []string{"CHECK_BRIDGE_UPGRADE_PROXY"}, PrefixEnvVar("CHECK_BRIDGE_UPGRADE", "PROXY"))
}

func TestValidateEnvVars(t *testing.T) {
	provided := []string{"OP_BATCHER_FAKE=false", "OP_BATCHER_KNOWN=1", "NOT_RELATED=x"}
	defined := map[string]struct{}{
		"OP_BATCHER_KNOWN": {},
	}
	invalids := validateEnvVars("OP_BATCHER", provided, defined)
	require.ElementsMatch(t, invalids, []string{"OP_BATCHER_FAKE=false"})
}

func TestCLIFlagsToEnvVars(t *testing.T) {
	flags := []cli.Flag{
		&cli.StringFlag{
			Name:    "test",
			EnvVars: []string{"OP_NODE_TEST_VAR"},
		},
		&cli.IntFlag{
			Name: "no env var",
		},
	}
	res := cliFlagsToEnvVars(flags)
	require.Contains(t, res, "OP_NODE_TEST_VAR")
	require.Len(t, res, 1)
}

func TestFormatVersion(t *testing.T) {
	require.Equal(t, "v1.2.3", FormatVersion("v1.2.3", "", "", ""))
	require.Equal(t, "v1.2.3-0123abcd-1700000000-dev", FormatVersion("v1.2.3", "0123abcdef456789", "1700000000", "dev"))
	require.Equal(t, "v1.2.3-abc-rc", FormatVersion("v1.2.3", "abc", "", "rc"))
}

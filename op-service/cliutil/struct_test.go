package cliutil

import (
	"fmt"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

type textUnmarshalerThing struct {
	text string
}

func (t *textUnmarshalerThing) UnmarshalText(text []byte) error {
	t.text = string(text)
	return nil
}

type overlayStruct struct {
	Str             string                `cli:"str"`
	Bool            bool                  `cli:"bool"`
	Uint64          uint64                `cli:"uint64"`
	Address         common.Address        `cli:"address"`
	Balance         *big.Int              `cli:"balance"`
	Probes          []string              `cli:"probe"`
	Timeout         time.Duration         `cli:"timeout"`
	TextUnmarshaler *textUnmarshalerThing `cli:"text-unmarshaler"`
	NotTagged       string
}

func TestOverlayStruct(t *testing.T) {
	base := overlayStruct{
		Str:       "from-file",
		Address:   common.HexToAddress("0x01"),
		Balance:   big.NewInt(7),
		NotTagged: "kept",
	}

	tests := []struct {
		name   string
		args   []string
		exp    overlayStruct
		expErr string
	}{
		{
			name: "all flags",
			args: []string{
				"--str=test",
				"--bool",
				"--uint64=3",
				fmt.Sprintf("--address=%s", common.HexToAddress("0x42")),
				"--balance=0x10",
				"--probe=l2Bridge()",
				"--probe=owner()",
				"--timeout=3s",
				"--text-unmarshaler=hello",
			},
			exp: overlayStruct{
				Str:             "test",
				Bool:            true,
				Uint64:          3,
				Address:         common.HexToAddress("0x42"),
				Balance:         big.NewInt(16),
				Probes:          []string{"l2Bridge()", "owner()"},
				Timeout:         3 * time.Second,
				TextUnmarshaler: &textUnmarshalerThing{text: "hello"},
				NotTagged:       "kept",
			},
		},
		{
			name: "unset flags keep existing values",
			args: []string{},
			exp:  base,
		},
		{
			name:   "invalid address flag",
			args:   []string{"--address=not-an-address"},
			expErr: "invalid address",
		},
		{
			name:   "invalid big int flag",
			args:   []string{"--balance=0xzz"},
			expErr: "error parsing bigint flag",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := &cli.App{
				Name: "test",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "str"},
					&cli.BoolFlag{Name: "bool"},
					&cli.Uint64Flag{Name: "uint64"},
					&cli.StringFlag{Name: "address"},
					&cli.StringFlag{Name: "balance"},
					&cli.StringSliceFlag{Name: "probe"},
					&cli.DurationFlag{Name: "timeout"},
					&cli.StringFlag{Name: "text-unmarshaler"},
				},
				Action: func(cliCtx *cli.Context) error {
					ts := base
					if tt.expErr == "" {
						require.NoError(t, OverlayStruct(&ts, cliCtx))
						require.EqualValues(t, tt.exp, ts)
					} else {
						require.ErrorContains(t, OverlayStruct(&ts, cliCtx), tt.expErr)
					}
					return nil
				},
			}

			require.NoError(t, app.Run(append([]string{"program-goes-here"}, tt.args...)))
		})
	}
}

func TestOverlayStructRequiresPointer(t *testing.T) {
	app := &cli.App{
		Name: "test",
		Action: func(cliCtx *cli.Context) error {
			return OverlayStruct(overlayStruct{}, cliCtx)
		},
	}
	require.ErrorContains(t, app.Run([]string{"program-goes-here"}), "pointer to struct")
}

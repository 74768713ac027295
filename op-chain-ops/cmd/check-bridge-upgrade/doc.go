package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v2"

	"github.com/mantlenetworkio/upgrade-check/op-chain-ops/forktest"
	oplog "github.com/mantlenetworkio/upgrade-check/op-service/log"
)

var docCommand = &cli.Command{
	Name:  "doc",
	Usage: "Produces documentation for the check",
	Subcommands: []*cli.Command{
		{
			Name:  "metrics",
			Usage: "Dumps a list of the metrics the check records",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "format",
					Value: "markdown",
					Usage: "Output format (json|markdown)",
				},
			},
			Action: docMetrics,
		},
	},
}

func docMetrics(ctx *cli.Context) error {
	supported := forktest.NewMetrics("").Document()
	out := oplog.AppOut(ctx)
	switch format := ctx.String("format"); format {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(supported)
	case "markdown":
		table := tablewriter.NewWriter(out)
		table.SetBorders(tablewriter.Border{Left: true, Top: false, Right: true, Bottom: false})
		table.SetCenterSeparator("|")
		table.SetAutoWrapText(false)
		table.SetHeader([]string{"Metric", "Description", "Labels"})
		for _, m := range supported {
			table.Append([]string{fmt.Sprintf("`%s`", m.Name), m.Help, strings.Join(m.Labels, ",")})
		}
		table.Render()
		return nil
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

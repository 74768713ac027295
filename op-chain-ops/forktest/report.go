package forktest

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/hashicorp/go-multierror"
	"github.com/olekukonko/tablewriter"
)

// StepResult is the outcome of one step of an upgrade check.
type StepResult struct {
	Name     string
	Err      error
	Duration time.Duration
}

func (r StepResult) Passed() bool {
	return r.Err == nil
}

type stepResultJSON struct {
	Name     string  `json:"name"`
	Passed   bool    `json:"passed"`
	Error    string  `json:"error,omitempty"`
	Duration float64 `json:"durationSeconds"`
}

func (r StepResult) MarshalJSON() ([]byte, error) {
	out := stepResultJSON{
		Name:     r.Name,
		Passed:   r.Passed(),
		Duration: r.Duration.Seconds(),
	}
	if r.Err != nil {
		out.Error = r.Err.Error()
	}
	return json.Marshal(out)
}

// Report lists the step results of an upgrade check, in execution order.
type Report struct {
	Proxy             common.Address `json:"proxy"`
	Governor          common.Address `json:"governor"`
	OldImplementation common.Address `json:"oldImplementation"`
	NewImplementation common.Address `json:"newImplementation"`
	Steps             []StepResult   `json:"steps"`
}

func (r *Report) Passed() bool {
	for _, s := range r.Steps {
		if !s.Passed() {
			return false
		}
	}
	return true
}

// Err combines the errors of all failed steps, or returns nil if all passed.
func (r *Report) Err() error {
	var result *multierror.Error
	for _, s := range r.Steps {
		if s.Err != nil {
			result = multierror.Append(result, fmt.Errorf("%s: %w", s.Name, s.Err))
		}
	}
	return result.ErrorOrNil()
}

// Step returns the result of the named step.
func (r *Report) Step(name string) (StepResult, bool) {
	for _, s := range r.Steps {
		if s.Name == name {
			return s, true
		}
	}
	return StepResult{}, false
}

// WriteTable renders the report as a text table.
func (r *Report) WriteTable(w io.Writer) {
	fmt.Fprintf(w, "proxy:              %s\n", r.Proxy)
	fmt.Fprintf(w, "old implementation: %s\n", r.OldImplementation)
	fmt.Fprintf(w, "new implementation: %s\n", r.NewImplementation)

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Step", "Result", "Duration", "Error"})
	table.SetAutoWrapText(false)
	table.SetBorders(tablewriter.Border{Left: true, Top: false, Right: true, Bottom: false})
	table.SetCenterSeparator("|")
	for _, s := range r.Steps {
		errStr := ""
		if s.Err != nil {
			errStr = s.Err.Error()
		}
		table.Append([]string{s.Name, result(s.Passed()), s.Duration.Round(time.Millisecond).String(), errStr})
	}
	table.Render()
}

func (r *Report) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(struct {
		*Report
		Passed bool `json:"passed"`
	}{r, r.Passed()})
}

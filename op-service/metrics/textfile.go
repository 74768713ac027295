package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// WriteTextfile writes all metrics of the registry to path, in the text format
// read by the node-exporter textfile collector.
func WriteTextfile(path string, registry *prometheus.Registry) error {
	if err := prometheus.WriteToTextfile(path, registry); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	return nil
}

package metrics

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

func TestFactory(t *testing.T) {
	registry := prometheus.NewRegistry()
	factory := With(registry)

	steps := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: "test",
		Subsystem: "check",
		Name:      "steps_total",
		Help:      "Steps run",
	}, []string{"step", "result"})
	up := factory.NewGauge(prometheus.GaugeOpts{
		Namespace: "test",
		Name:      "up",
		Help:      "Whether the check ran",
	})
	durations := factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: "test",
		Name:      "duration_seconds",
		Help:      "Durations",
	})

	steps.WithLabelValues("upgrade", "pass").Add(2)
	up.Set(1)
	durations.Observe(0.5)

	docs := factory.Document()
	require.Len(t, docs, 3)
	require.Equal(t, "test_check_steps_total", docs[0].Name)
	require.Equal(t, []string{"step", "result"}, docs[0].Labels)
	require.Equal(t, "test_up", docs[1].Name)

	checker := NewMetricChecker(t, registry)
	require.Equal(t, 2.0, checker.FindByName("test_check_steps_total").Value(map[string]string{"step": "upgrade"}))
	require.Equal(t, 1.0, checker.FindByName("test_up").Value(nil))
	require.Equal(t, 1.0, checker.FindByName("test_duration_seconds").Value(nil))
}

func TestWriteTextfile(t *testing.T) {
	registry := prometheus.NewRegistry()
	With(registry).NewCounter(prometheus.CounterOpts{Name: "written_total", Help: "Written"}).Inc()

	path := filepath.Join(t.TempDir(), "check.prom")
	require.NoError(t, WriteTextfile(path, registry))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "written_total 1")

	require.Error(t, WriteTextfile(filepath.Join(t.TempDir(), "missing", "check.prom"), registry))
}

package forktest

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	opmetrics "github.com/mantlenetworkio/upgrade-check/op-service/metrics"
)

const Namespace = "upgrade_check"

type RPCMetricer interface {
	RecordRPC(method string, duration time.Duration, err error)
}

type Metricer interface {
	RPCMetricer
	RecordStep(step string, passed bool, duration time.Duration)
	RecordRun(passed bool)
}

type Metrics struct {
	registry *prometheus.Registry
	factory  opmetrics.Factory

	rpcRequests *prometheus.CounterVec
	rpcDuration *prometheus.HistogramVec

	steps        *prometheus.CounterVec
	stepDuration *prometheus.HistogramVec

	lastRunPassed prometheus.Gauge
	lastRunTime   prometheus.Gauge
}

var _ Metricer = (*Metrics)(nil)

func NewMetrics(ns string) *Metrics {
	if ns == "" {
		ns = Namespace
	}
	registry := opmetrics.NewRegistry()
	factory := opmetrics.With(registry)
	return &Metrics{
		registry: registry,
		factory:  factory,
		rpcRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Subsystem: "rpc_client",
			Name:      "requests_total",
			Help:      "Fork RPC requests by method and result",
		}, []string{"method", "result"}),
		rpcDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: ns,
			Subsystem: "rpc_client",
			Name:      "request_duration_seconds",
			Help:      "Fork RPC request durations",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"method"}),
		steps: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "steps_total",
			Help:      "Upgrade check steps by name and result",
		}, []string{"step", "result"}),
		stepDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: ns,
			Name:      "step_duration_seconds",
			Help:      "Upgrade check step durations",
			Buckets:   prometheus.DefBuckets,
		}, []string{"step"}),
		lastRunPassed: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: ns,
			Name:      "last_run_passed",
			Help:      "1 if every step of the last run passed, 0 otherwise",
		}),
		lastRunTime: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: ns,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last run finished",
		}),
	}
}

func result(ok bool) string {
	if ok {
		return "pass"
	}
	return "fail"
}

func (m *Metrics) RecordRPC(method string, duration time.Duration, err error) {
	m.rpcRequests.WithLabelValues(method, result(err == nil)).Inc()
	m.rpcDuration.WithLabelValues(method).Observe(duration.Seconds())
}

func (m *Metrics) RecordStep(step string, passed bool, duration time.Duration) {
	m.steps.WithLabelValues(step, result(passed)).Inc()
	m.stepDuration.WithLabelValues(step).Observe(duration.Seconds())
}

func (m *Metrics) RecordRun(passed bool) {
	if passed {
		m.lastRunPassed.Set(1)
	} else {
		m.lastRunPassed.Set(0)
	}
	m.lastRunTime.SetToCurrentTime()
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) Document() []opmetrics.DocumentedMetric {
	return m.factory.Document()
}

// WriteTextfile writes the collected metrics to path, for the node-exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	return opmetrics.WriteTextfile(path, m.registry)
}

type noopMetrics struct{}

var NoopMetrics Metricer = noopMetrics{}

func (noopMetrics) RecordRPC(string, time.Duration, error) {}
func (noopMetrics) RecordStep(string, bool, time.Duration) {}
func (noopMetrics) RecordRun(bool)                         {}

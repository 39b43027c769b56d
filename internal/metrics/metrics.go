// Package metrics holds the Prometheus collectors for splitledger.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics. A nil *Metrics is valid and records
// nothing, so packages can take one optionally.
type Metrics struct {
	// Settlement core
	SettlementsBuilt    *prometheus.CounterVec
	BuildDuration       prometheus.Histogram
	SettlementTransfers prometheus.Histogram
	Verifications       *prometheus.CounterVec

	// Ledger
	Commits        *prometheus.CounterVec
	CommitDuration prometheus.Histogram

	// RPC
	RPCRequests *prometheus.CounterVec
	RPCDuration *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg. Pass
// prometheus.DefaultRegisterer in production and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		SettlementsBuilt: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "splitledger_settlements_built_total",
			Help: "Settlement builds by result (ok, empty, error)",
		}, []string{"result"}),

		BuildDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "splitledger_settlement_build_duration_seconds",
			Help:    "Time to build, encode and hash a settlement",
			Buckets: []float64{0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1},
		}),

		SettlementTransfers: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "splitledger_settlement_transfers",
			Help:    "Transfers per built settlement",
			Buckets: prometheus.LinearBuckets(0, 2, 10),
		}),

		Verifications: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "splitledger_verifications_total",
			Help: "Commitment verifications by outcome",
		}, []string{"outcome"}),

		Commits: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "splitledger_commits_total",
			Help: "Ledger commit attempts by final status",
		}, []string{"status"}),

		CommitDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "splitledger_commit_duration_seconds",
			Help:    "Time from submission to settlement id",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
		}),

		RPCRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "splitledger_rpc_requests_total",
			Help: "RPC requests by procedure and code",
		}, []string{"procedure", "code"}),

		RPCDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "splitledger_rpc_duration_seconds",
			Help:    "RPC handling time",
			Buckets: prometheus.DefBuckets,
		}, []string{"procedure"}),
	}
}

// ObserveBuild records one settlement build.
func (m *Metrics) ObserveBuild(result string, transfers int, d time.Duration) {
	if m == nil {
		return
	}
	m.SettlementsBuilt.WithLabelValues(result).Inc()
	m.BuildDuration.Observe(d.Seconds())
	if result == "ok" {
		m.SettlementTransfers.Observe(float64(transfers))
	}
}

// ObserveVerification records a verifier outcome.
func (m *Metrics) ObserveVerification(outcome string) {
	if m == nil {
		return
	}
	m.Verifications.WithLabelValues(outcome).Inc()
}

// ObserveCommit records the final status of a commit attempt.
func (m *Metrics) ObserveCommit(status string, d time.Duration) {
	if m == nil {
		return
	}
	m.Commits.WithLabelValues(status).Inc()
	m.CommitDuration.Observe(d.Seconds())
}

// ObserveRPC records one handled RPC.
func (m *Metrics) ObserveRPC(procedure, code string, d time.Duration) {
	if m == nil {
		return
	}
	m.RPCRequests.WithLabelValues(procedure, code).Inc()
	m.RPCDuration.WithLabelValues(procedure).Observe(d.Seconds())
}

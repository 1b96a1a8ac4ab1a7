// Package cpcmetrics maintains a prometheus registry of chain, mempool,
// miner, and validator gauges and counters, exposed on /metrics by
// pkg/api.
package cpcmetrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/cpc-chain/cpcd/pkg/validator"
)

// Metrics holds the node's exported prometheus collectors.
type Metrics struct {
	Registry *prometheus.Registry

	ChainHeight       prometheus.Gauge
	MempoolDepth      prometheus.Gauge
	BlocksMined       prometheus.Counter
	ValidationRejects *prometheus.CounterVec
}

// New builds and registers a fresh metrics set.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		Registry: registry,
		ChainHeight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "cpc_chain_height",
			Help: "Current block height of the chain.",
		}),
		MempoolDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "cpc_mempool_depth",
			Help: "Number of transactions currently queued in the mempool.",
		}),
		BlocksMined: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cpc_blocks_mined_total",
			Help: "Total number of blocks successfully mined and appended.",
		}),
		ValidationRejects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cpc_validation_rejections_total",
			Help: "Total transaction validation rejections, labeled by reason.",
		}, []string{"reason"}),
	}

	registry.MustRegister(m.ChainHeight, m.MempoolDepth, m.BlocksMined, m.ValidationRejects)
	return m
}

// RecordRejection increments the rejection counter for a validator reason.
func (m *Metrics) RecordRejection(reason validator.Reason) {
	m.ValidationRejects.WithLabelValues(string(reason)).Inc()
}

// RecordBlockMined bumps the mined-block counter and updates the height
// gauge.
func (m *Metrics) RecordBlockMined(height uint64) {
	m.BlocksMined.Inc()
	m.ChainHeight.Set(float64(height))
}

// SetMempoolDepth updates the mempool depth gauge.
func (m *Metrics) SetMempoolDepth(depth int) {
	m.MempoolDepth.Set(float64(depth))
}

// Package metrics defines the Prometheus collectors of the download service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ytget/ytgrab/internal/model"
)

// Transfer metrics
var (
	TransfersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ytgrab_transfers_total",
			Help: "Total number of transfers by terminal phase.",
		},
		[]string{"phase"},
	)

	TransfersActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "ytgrab_transfers_active",
			Help: "Number of transfers currently running.",
		},
	)

	DownloadedBytesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ytgrab_downloaded_bytes_total",
			Help: "Total number of bytes reported by finished transfers.",
		},
	)

	TransferRetriesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ytgrab_transfer_retries_total",
			Help: "Total number of automatic transfer retries.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		TransfersTotal,
		TransfersActive,
		DownloadedBytesTotal,
		TransferRetriesTotal,
	)
}

// ObserveTerminal records the outcome of one transfer
func ObserveTerminal(ev model.Event) {
	if !ev.IsTerminal() {
		return
	}
	TransfersTotal.WithLabelValues(ev.Phase.String()).Inc()
	if ev.Phase == model.PhaseFinished && ev.Downloaded > 0 {
		DownloadedBytesTotal.Add(float64(ev.Downloaded))
	}
}

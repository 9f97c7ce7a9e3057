// Package metrics exposes Prometheus collectors for the daemon. Collectors
// are package-level so ledger and oracle code can record without plumbing a
// registry through every constructor.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// AirlinesRegistered tracks the currently registered airline count.
	AirlinesRegistered = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "skysurety",
		Name:      "airlines_registered",
		Help:      "Number of registered airlines.",
	})

	// PoliciesSold counts insurance policy entries appended.
	PoliciesSold = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "skysurety",
		Name:      "policies_sold_total",
		Help:      "Total insurance policy entries purchased.",
	})

	// CreditsIssued accumulates credited payout amounts in cents.
	CreditsIssued = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "skysurety",
		Name:      "credits_issued_cents_total",
		Help:      "Total insurance credit issued, in cents.",
	})

	// PayoutsSettled counts settled passenger payouts.
	PayoutsSettled = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "skysurety",
		Name:      "payouts_settled_total",
		Help:      "Total passenger payouts settled.",
	})

	// OracleSubmissions counts oracle responses by outcome:
	// accepted, invalid_index, late, rejected.
	OracleSubmissions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "skysurety",
		Name:      "oracle_submissions_total",
		Help:      "Total oracle status submissions by outcome.",
	}, []string{"outcome"})

	// Finalizations counts requests finalized by agreement quorum.
	Finalizations = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "skysurety",
		Name:      "oracle_finalizations_total",
		Help:      "Total oracle requests finalized.",
	})

	// OracleWorkers tracks registered oracle workers.
	OracleWorkers = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "skysurety",
		Name:      "oracle_workers_registered",
		Help:      "Number of registered oracle workers.",
	})
)

// Handler returns the HTTP handler serving the default Prometheus registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

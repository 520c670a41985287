package match

import "github.com/prometheus/client_golang/prometheus"

var (
	SessionsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "match_sessions_created_total",
			Help: "Sessions created",
		},
	)
	SessionsFinished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "match_sessions_finished_total",
			Help: "Sessions finalized, by win reason",
		},
		[]string{"reason"},
	)
	MovesAccepted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "match_moves_total",
			Help: "Accepted moves",
		},
	)
	SweepDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "match_sweep_duration_seconds",
			Help:    "Duration of one time-control sweep",
			Buckets: prometheus.DefBuckets,
		},
	)
	ActiveSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "match_active_sessions",
			Help: "Started sessions seen by the last sweep",
		},
	)
)

func init() {
	prometheus.MustRegister(SessionsCreated, SessionsFinished, MovesAccepted, SweepDuration, ActiveSessions)
}

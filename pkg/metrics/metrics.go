package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	RateLimitAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "draftdesk", Name: "rate_limit_allowed_total", Help: "Number of allowed requests by limiter type."},
		[]string{"limiter"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "draftdesk", Name: "rate_limit_rejected_total", Help: "Number of rejected requests by limiter type."},
		[]string{"limiter"},
	)
	EditOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "draftdesk", Name: "edit_outcomes_total", Help: "Article edit submissions by outcome (committed, article_locked, save_count_expired, invalid_article, not_found, error)."},
		[]string{"outcome"},
	)
	SnapshotsCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "draftdesk", Name: "snapshots_created_total", Help: "Article version snapshots by reason."},
		[]string{"reason"},
	)
	LockConflicts = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "draftdesk", Name: "lock_conflicts_total", Help: "Soft edit lock conflicts by request path (open, submit)."},
		[]string{"path"},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(RateLimitAllowed)
	reg.MustRegister(RateLimitRejected)
	reg.MustRegister(EditOutcomes)
	reg.MustRegister(SnapshotsCreated)
	reg.MustRegister(LockConflicts)
}

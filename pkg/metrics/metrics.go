package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Workspace metrics
	WorkspacesTotal = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "workbench_workspaces_total",
			Help: "Number of workspaces by computed state",
		},
		[]string{"state"},
	)

	OrphanPVCs = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "workbench_orphan_pvcs",
			Help: "Persistent volume claims with no correlating workspace, awaiting manual action",
		},
	)

	// Loop metrics
	LoopRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "workbench_loop_runs_total",
			Help: "Total loop ticks by loop name and result",
		},
		[]string{"loop", "result"},
	)

	LoopDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "workbench_loop_duration_seconds",
			Help:    "Loop tick duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"loop"},
	)

	// Action metrics
	ScheduleFiringsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "workbench_schedule_firings_total",
			Help: "Total schedule firings by action",
		},
		[]string{"action"},
	)

	ExpiryWarningsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "workbench_expiry_warnings_total",
			Help: "Total expiry warnings annotated onto workspaces",
		},
	)

	WorkspacesExpiredTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "workbench_workspaces_expired_total",
			Help: "Total workspaces evicted by the expiry checker",
		},
	)

	StuckCreationsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "workbench_stuck_creations_total",
			Help: "Total pods flagged as stuck during creation",
		},
	)

	OrphansDeletedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "workbench_orphans_deleted_total",
			Help: "Total orphaned resources deleted by kind",
		},
		[]string{"kind"},
	)
)

func init() {
	// Register all metrics
	prometheus.MustRegister(WorkspacesTotal)
	prometheus.MustRegister(OrphanPVCs)
	prometheus.MustRegister(LoopRunsTotal)
	prometheus.MustRegister(LoopDuration)
	prometheus.MustRegister(ScheduleFiringsTotal)
	prometheus.MustRegister(ExpiryWarningsTotal)
	prometheus.MustRegister(WorkspacesExpiredTotal)
	prometheus.MustRegister(StuckCreationsTotal)
	prometheus.MustRegister(OrphansDeletedTotal)
}

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer measures the duration of one observation
type Timer struct {
	start time.Time
}

// NewTimer starts a new timer
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the elapsed time on the given observer
func (t *Timer) ObserveDuration(observer prometheus.Observer) {
	observer.Observe(time.Since(t.start).Seconds())
}

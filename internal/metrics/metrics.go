package metrics

import "github.com/prometheus/client_golang/prometheus"

// Collectors for the backend handle and the revision log.
var (
	DBAcquireTimeoutsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "deductible_db_acquire_timeouts_total",
		Help: "Cumulative number of connection acquisitions that gave up waiting.",
	}, []string{"backend"})
	DBTaskDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "deductible_db_task_duration_seconds",
		Help:    "Time spent running dispatched database work.",
		Buckets: prometheus.DefBuckets,
	}, []string{"backend"})
	RevisionsWrittenTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "deductible_revisions_written_total",
		Help: "Cumulative number of revision records written.",
	}, []string{"table", "operation"})
	// A mutation that committed without its revision shows up here. Any
	// non-zero value needs investigation.
	RevisionWriteFailuresTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "deductible_revision_write_failures_total",
		Help: "Cumulative number of committed mutations whose revision write failed.",
	}, []string{"table"})
	RegistryLookupsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "deductible_registry_lookups_total",
		Help: "Cumulative number of charity registry lookups by outcome.",
	}, []string{"outcome"})
)

// Register adds all collectors to reg.
func Register(reg prometheus.Registerer) {
	reg.MustRegister(
		DBAcquireTimeoutsTotal,
		DBTaskDuration,
		RevisionsWrittenTotal,
		RevisionWriteFailuresTotal,
		RegistryLookupsTotal,
	)
}

package metrics

import "github.com/prometheus/client_golang/prometheus"

// Namespace prefixes every metric this package registers.
const Namespace = "kupferbootstrap"

var (
	// BuildsTotal counts completed builds, partitioned by recipe bucket,
	// target architecture, and outcome ("built", "cached", "failed").
	BuildsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Subsystem: "build",
		Name:      "total",
		Help:      "Total number of recipe build attempts, by bucket, arch and outcome.",
	}, []string{"bucket", "arch", "outcome"})

	// BuildDurationSeconds observes wall-clock time of a recipe's build
	// once its strategy is resolved (package installation, the makepkg
	// prepare and build steps, and indexing of the produced artifacts),
	// partitioned by strategy (native/cross/emulated).
	BuildDurationSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: Namespace,
		Subsystem: "build",
		Name:      "duration_seconds",
		Help:      "Build duration in seconds, by strategy.",
		Buckets:   prometheus.ExponentialBuckets(5, 2, 12),
	}, []string{"strategy"})

	// ChrootsActive tracks the number of chroots with active pseudo-fs
	// mounts at any given moment, partitioned by kind.
	ChrootsActive = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: Namespace,
		Subsystem: "chroot",
		Name:      "active",
		Help:      "Number of chroots currently activated, by kind.",
	}, []string{"kind"})

	// RepoIndexUpdatesTotal counts successful repo-add invocations, by
	// bucket and architecture.
	RepoIndexUpdatesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Subsystem: "repo",
		Name:      "index_updates_total",
		Help:      "Total number of repository index updates, by bucket and arch.",
	}, []string{"bucket", "arch"})
)

// Registry is the process-wide collector registry metrics are
// registered into. A dedicated registry (rather than the global default)
// keeps a library caller from double-registering if kupferbootstrap is
// ever embedded rather than run as its own binary.
var Registry = prometheus.NewRegistry()

func init() {
	Registry.MustRegister(BuildsTotal, BuildDurationSeconds, ChrootsActive, RepoIndexUpdatesTotal)
}

// Package metrics exposes Prometheus counters and gauges for build and
// chroot activity, plus the HTTP listener that serves them.
package metrics

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds every collector of this package. A CLI run is too short to be
// scraped, so the registry is dumped to a node_exporter textfile instead.
var Registry = prometheus.NewRegistry()

var (
	documentsProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "duplexsplit",
			Name:      "documents_processed_total",
			Help:      "Documents processed by result (success, invalid_document, io_error, error)",
		},
		[]string{"result"},
	)

	pagesProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "duplexsplit",
			Name:      "pages_processed_total",
			Help:      "Pages written by output group",
		},
		[]string{"group"},
	)

	splitDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "duplexsplit",
			Name:      "split_duration_seconds",
			Help:      "Duration of a full split (load, transform, write) by result",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"result"},
	)

	printJobs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "duplexsplit",
			Name:      "print_jobs_total",
			Help:      "Print jobs handed to the OS by phase and result",
		},
		[]string{"phase", "result"},
	)
)

func init() {
	Registry.MustRegister(documentsProcessed, pagesProcessed, splitDuration, printJobs)
}

// ObserveSplit records one finished split.
func ObserveSplit(result string, dur time.Duration) {
	documentsProcessed.WithLabelValues(result).Inc()
	splitDuration.WithLabelValues(result).Observe(dur.Seconds())
}

// AddPages counts pages written into group.
func AddPages(group string, n int) { pagesProcessed.WithLabelValues(group).Add(float64(n)) }

// IncPrint counts a print hand-off.
func IncPrint(phase, result string) { printJobs.WithLabelValues(phase, result).Inc() }

// WriteTextfile dumps the registry in text exposition format to path. An empty
// path is a no-op.
func WriteTextfile(path string) error {
	if path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, Registry)
}

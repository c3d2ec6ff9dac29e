// Package metrics records per-run monitor metrics and writes them for the
// node-exporter textfile collector.
package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Park-MinJe/monthly-audit-report/internal/opengov"
	"github.com/Park-MinJe/monthly-audit-report/internal/status"
)

const (
	// Namespace prefixes every metric.
	Namespace = "opengov_monitor"

	subsystemCrawl      = "crawl"
	subsystemAttachment = "attachment"
	subsystemReport     = "report"
)

// Attachment outcomes.
const (
	OutcomeSummarized  = "summarized"
	OutcomeFailed      = "failed"
	OutcomeCached      = "cached"
	OutcomeUnsupported = "unsupported"
)

// Recorder holds the metrics of a single run on its own registry.
type Recorder struct {
	registry *prometheus.Registry

	CrawlPages      *prometheus.GaugeVec
	CrawlDocuments  prometheus.Gauge
	CrawlTotalCount prometheus.Gauge
	MonthDocuments  prometheus.Gauge
	Attachments     *prometheus.CounterVec
	QuarterStatuses *prometheus.GaugeVec
	RunDuration     prometheus.Gauge
	RunSuccess      prometheus.Gauge
	LastRun         prometheus.Gauge
}

// NewRecorder creates a Recorder with a fresh registry.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		CrawlPages: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: subsystemCrawl,
			Name:      "pages",
			Help:      "Listing pages by outcome in the last run",
		}, []string{"outcome"}),
		CrawlDocuments: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: subsystemCrawl,
			Name:      "documents",
			Help:      "Distinct documents discovered in the last run",
		}),
		CrawlTotalCount: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: subsystemCrawl,
			Name:      "reported_total",
			Help:      "Result count shown by the listing site, -1 when unknown",
		}),
		MonthDocuments: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: subsystemReport,
			Name:      "month_documents",
			Help:      "Documents published in the report month",
		}),
		Attachments: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: subsystemAttachment,
			Name:      "processed_total",
			Help:      "Attachments handled by kind and outcome",
		}, []string{"kind", "outcome"}),
		QuarterStatuses: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: subsystemReport,
			Name:      "quarter_statuses",
			Help:      "Organization quarters by upload status",
		}, []string{"status"}),
		RunDuration: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of the last run",
		}),
		RunSuccess: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "run_success",
			Help:      "1 when the last run wrote its report",
		}),
		LastRun: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last run finished",
		}),
	}
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

// ObserveCrawl records crawl statistics.
func (r *Recorder) ObserveCrawl(stats opengov.Stats) {
	r.CrawlPages.WithLabelValues("fetched").Set(float64(stats.PagesFetched))
	r.CrawlPages.WithLabelValues("failed").Set(float64(stats.PagesFailed))
	r.CrawlPages.WithLabelValues("empty").Set(float64(stats.EmptyPages))
	r.CrawlDocuments.Set(float64(stats.Documents))
	r.CrawlTotalCount.Set(float64(stats.TotalCount))
}

// ObserveAttachment counts one handled attachment.
func (r *Recorder) ObserveAttachment(kind, outcome string) {
	r.Attachments.WithLabelValues(kind, outcome).Inc()
}

// ObserveStatuses records the status table breakdown.
func (r *Recorder) ObserveStatuses(t status.Table) {
	counts := t.Counts()
	for _, s := range status.All {
		r.QuarterStatuses.WithLabelValues(string(s)).Set(float64(counts[s]))
	}
}

// ObserveRun records the run outcome.
func (r *Recorder) ObserveRun(elapsed time.Duration, ok bool, finished time.Time) {
	r.RunDuration.Set(elapsed.Seconds())
	if ok {
		r.RunSuccess.Set(1)
	} else {
		r.RunSuccess.Set(0)
	}
	r.LastRun.Set(float64(finished.Unix()))
}

// WriteTextfile writes the registry in text exposition format to path.
func (r *Recorder) WriteTextfile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create metrics dir: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}

package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	pagesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pdfword",
			Name:      "pages_total",
			Help:      "Pages converted by strategy and result (ok, failed)",
		},
		[]string{"strategy", "result"},
	)

	pageLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "pdfword",
			Name:      "page_duration_seconds",
			Help:      "Duration of single page conversions by strategy",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"strategy"},
	)

	conversionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pdfword",
			Name:      "conversions_total",
			Help:      "Document conversions by result (ok, partial, failed)",
		},
		[]string{"result"},
	)

	conversionLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "pdfword",
			Name:      "conversion_duration_seconds",
			Help:      "Duration of whole document conversions",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300, 600},
		},
	)

	tempRemoved = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "pdfword",
			Name:      "temp_artifacts_removed_total",
			Help:      "Temporary files removed by per-page cleanup and the stale sweep",
		},
	)

	jobsInflight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "pdfword",
			Name:      "jobs_inflight",
			Help:      "Conversion jobs currently running in the HTTP server",
		},
	)

	registerOnce sync.Once
)

// Init registers collectors.
func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(pagesTotal, pageLatency, conversionsTotal, conversionLatency, tempRemoved, jobsInflight)
	})
}

// Handler returns the http.Handler for /metrics
func Handler() http.Handler { return promhttp.Handler() }

func ObservePage(strategy string, ok bool, dur time.Duration) {
	pagesTotal.WithLabelValues(strategy, result(ok)).Inc()
	pageLatency.WithLabelValues(strategy).Observe(dur.Seconds())
}

func ObserveConversion(res string, dur time.Duration) {
	conversionsTotal.WithLabelValues(res).Inc()
	conversionLatency.Observe(dur.Seconds())
}

func AddTempRemoved(n int) { tempRemoved.Add(float64(n)) }

func JobStarted()  { jobsInflight.Inc() }
func JobFinished() { jobsInflight.Dec() }

func result(ok bool) string {
	if ok {
		return "ok"
	}
	return "failed"
}

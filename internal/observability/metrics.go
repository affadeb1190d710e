package observability

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Metrics are the scraper's Prometheus instruments. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	ItemsProcessed *prometheus.CounterVec
	PriceChanges   *prometheus.CounterVec
	Notifications  *prometheus.CounterVec
	CategorySweeps *prometheus.CounterVec
	SweepDuration  prometheus.Histogram
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ItemsProcessed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "avvatracker_items_processed_total",
				Help: "Catalog items reconciled, by result (new, updated, error, rejected)",
			},
			[]string{"result"},
		),
		PriceChanges: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "avvatracker_price_changes_total",
				Help: "Detected price changes, by direction",
			},
			[]string{"direction"},
		),
		Notifications: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "avvatracker_notifications_total",
				Help: "Notification events dispatched, by kind and delivery result",
			},
			[]string{"kind", "result"},
		),
		CategorySweeps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "avvatracker_category_sweeps_total",
				Help: "Finished category sweeps, by final status",
			},
			[]string{"status"},
		),
		SweepDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "avvatracker_category_sweep_duration_seconds",
				Help:    "Wall time of one category sweep",
				Buckets: prometheus.ExponentialBuckets(1, 2, 12),
			},
		),
	}
	reg.MustRegister(m.ItemsProcessed, m.PriceChanges, m.Notifications, m.CategorySweeps, m.SweepDuration)
	return m
}

func (m *Metrics) ItemProcessed(result string) {
	if m == nil {
		return
	}
	m.ItemsProcessed.WithLabelValues(result).Inc()
}

func (m *Metrics) PriceChanged(delta float64) {
	if m == nil {
		return
	}
	direction := "up"
	if delta < 0 {
		direction = "down"
	}
	m.PriceChanges.WithLabelValues(direction).Inc()
}

func (m *Metrics) NotificationSent(kind string, ok bool) {
	if m == nil {
		return
	}
	result := "sent"
	if !ok {
		result = "failed"
	}
	m.Notifications.WithLabelValues(kind, result).Inc()
}

func (m *Metrics) SweepFinished(status string, d time.Duration) {
	if m == nil {
		return
	}
	m.CategorySweeps.WithLabelValues(status).Inc()
	m.SweepDuration.Observe(d.Seconds())
}

// Listen serves /metrics for g on addr in the background. A failure to bind
// is returned; later serve errors are logged.
func Listen(addr string, g prometheus.Gatherer, logger *zap.Logger) (net.Addr, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("metrics listen %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
	go func() {
		if err := http.Serve(ln, mux); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("metrics server stopped", zap.Error(err))
		}
	}()
	return ln.Addr(), nil
}

// Start registers the metrics on the default registry and serves them on
// port. The returned Metrics are usable even when serving failed.
func Start(port string, logger *zap.Logger) (*Metrics, error) {
	m := NewMetrics(prometheus.DefaultRegisterer)
	if _, err := Listen(":"+port, prometheus.DefaultGatherer, logger); err != nil {
		return m, err
	}
	logger.Info("metrics listening", zap.String("port", port))
	return m, nil
}

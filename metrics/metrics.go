// Package metrics instruments chat bubble rendering with Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/fwojciec/chatstream"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the Prometheus instruments for rendering.
type Metrics struct {
	Renders       *prometheus.CounterVec
	RenderErrors  prometheus.Counter
	RenderLatency prometheus.Histogram
	FinalBytes    prometheus.Histogram
}

// NewMetrics registers the instruments with reg under namespace.
func NewMetrics(reg prometheus.Registerer, namespace string) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Renders: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "renders_total",
			Help:      "Bubble renders by kind (partial, final, failed).",
		}, []string{"kind"}),
		RenderErrors: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "render_errors_total",
			Help:      "Renders rejected by the surface.",
		}),
		RenderLatency: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "render_latency_ms",
			Help:      "Time spent in the surface per render in milliseconds.",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100},
		}),
		FinalBytes: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "final_text_bytes",
			Help:      "Length of terminal bubble text in bytes.",
			Buckets:   prometheus.ExponentialBuckets(64, 4, 7),
		}),
	}
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// Interface compliance check.
var _ chatstream.Surface = (*Surface)(nil)

// Surface decorates another surface, recording every render.
type Surface struct {
	next    chatstream.Surface
	metrics *Metrics
	now     func() time.Time
}

// NewSurface wraps next.
func NewSurface(next chatstream.Surface, m *Metrics) *Surface {
	return &Surface{next: next, metrics: m, now: time.Now}
}

// Render forwards u to the wrapped surface.
func (s *Surface) Render(u chatstream.MessageUpdate) error {
	start := s.now()
	err := s.next.Render(u)
	s.metrics.RenderLatency.Observe(float64(s.now().Sub(start).Microseconds()) / 1000)
	if err != nil {
		s.metrics.RenderErrors.Inc()
		return err
	}
	s.metrics.Renders.WithLabelValues(kind(u)).Inc()
	if !u.Partial {
		s.metrics.FinalBytes.Observe(float64(len(u.Text)))
	}
	return nil
}

func kind(u chatstream.MessageUpdate) string {
	switch {
	case u.Failed:
		return "failed"
	case u.Partial:
		return "partial"
	default:
		return "final"
	}
}

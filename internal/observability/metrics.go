package observability

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// TimingCollector bundles Prometheus metrics for the timing engine and
// satisfies the engine's pass-recorder interface, so pass durations and
// results flow into the registry without the core importing Prometheus.
type TimingCollector struct {
	gatherer prometheus.Gatherer

	Passes        *prometheus.CounterVec
	PassDurations *prometheus.HistogramVec

	NetsOrdered     prometheus.Gauge
	MinSlackPs      prometheus.Gauge
	PathEndpoints   prometheus.Gauge
	NegativeBudgets prometheus.Counter
}

// NewTimingCollector registers timing metrics against the provided
// registerer, defaulting to the global Prometheus registry when nil.
func NewTimingCollector(reg prometheus.Registerer) (*TimingCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	passes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "timing_passes_total",
		Help: "Total number of completed timing passes, labeled by mode (budget or analyze).",
	}, []string{"mode"})
	passes, err := registerCounterVec(reg, passes, "timing_passes_total")
	if err != nil {
		return nil, err
	}

	durations := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "timing_pass_duration_seconds",
		Help:    "Wall-clock duration of one full timing pass (linearize + forward + backward).",
		Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10},
	}, []string{"mode"})
	durations, err = registerHistogramVec(reg, durations, "timing_pass_duration_seconds")
	if err != nil {
		return nil, err
	}

	netsOrdered, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "timing_nets_ordered",
		Help: "Number of nets in the dependency order of the most recent pass.",
	}), "timing_nets_ordered")
	if err != nil {
		return nil, err
	}
	minSlack, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "timing_min_slack_ps",
		Help: "Global minimum slack of the most recent pass, in picoseconds.",
	}), "timing_min_slack_ps")
	if err != nil {
		return nil, err
	}
	endpoints, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "timing_path_endpoints",
		Help: "Number of clocked path endpoints visited by the most recent pass.",
	}), "timing_path_endpoints")
	if err != nil {
		return nil, err
	}

	negative := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "timing_negative_budgets_total",
		Help: "Total number of connections assigned a negative budget (target period infeasible).",
	})
	negative, err = registerCounter(reg, negative, "timing_negative_budgets_total")
	if err != nil {
		return nil, err
	}

	return &TimingCollector{
		gatherer:        gatherer,
		Passes:          passes,
		PassDurations:   durations,
		NetsOrdered:     netsOrdered,
		MinSlackPs:      minSlack,
		PathEndpoints:   endpoints,
		NegativeBudgets: negative,
	}, nil
}

// RecordPass satisfies the engine's PassRecorder interface.
func (c *TimingCollector) RecordPass(mode string, duration time.Duration, netsOrdered int) {
	if c == nil {
		return
	}
	if c.Passes != nil {
		c.Passes.WithLabelValues(mode).Inc()
	}
	if c.PassDurations != nil {
		c.PassDurations.WithLabelValues(mode).Observe(duration.Seconds())
	}
	if c.NetsOrdered != nil {
		c.NetsOrdered.Set(float64(netsOrdered))
	}
}

// RecordMinSlack publishes the pass's global minimum slack.
func (c *TimingCollector) RecordMinSlack(slackPs int64) {
	if c == nil || c.MinSlackPs == nil {
		return
	}
	c.MinSlackPs.Set(float64(slackPs))
}

// RecordEndpoints publishes the endpoint count of the pass.
func (c *TimingCollector) RecordEndpoints(count int) {
	if c == nil || c.PathEndpoints == nil {
		return
	}
	c.PathEndpoints.Set(float64(count))
}

// RecordNegativeBudgets accumulates infeasible-budget occurrences.
func (c *TimingCollector) RecordNegativeBudgets(count int) {
	if c == nil || c.NegativeBudgets == nil || count <= 0 {
		return
	}
	c.NegativeBudgets.Add(float64(count))
}

// Handler exposes a ready-to-use /metrics handler.
func (c *TimingCollector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerCounter(reg prometheus.Registerer, counter prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(counter); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return counter, nil
}

func registerHistogramVec(reg prometheus.Registerer, vec *prometheus.HistogramVec, name string) (*prometheus.HistogramVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.HistogramVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}

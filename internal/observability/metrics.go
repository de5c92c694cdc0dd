package observability

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SimCollector bundles Prometheus metrics for the telemetry engine and
// provides a ready-to-serve /metrics handler. It implements the scheduler's
// MetricsRecorder and the location producer's ProgressRecorder.
type SimCollector struct {
	gatherer prometheus.Gatherer

	PublishesTotal   *prometheus.CounterVec
	ProducerFailures *prometheus.CounterVec
	StepDuration     prometheus.Histogram

	RouteTraveledKm prometheus.Gauge
	RouteArrived    prometheus.Gauge
}

// NewSimCollector registers the simulator metrics against the provided
// registerer, defaulting to the global Prometheus registry when nil.
func NewSimCollector(reg prometheus.Registerer) (*SimCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	publishes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sim_publishes_total",
		Help: "Total publish attempts, labeled by topic class and result.",
	}, []string{"class", "result"})
	publishes, err := registerCounterVec(reg, publishes, "sim_publishes_total")
	if err != nil {
		return nil, err
	}

	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sim_producer_failures_total",
		Help: "Producer errors and panics caught at the scheduler boundary, labeled by topic class.",
	}, []string{"class"})
	failures, err = registerCounterVec(reg, failures, "sim_producer_failures_total")
	if err != nil {
		return nil, err
	}

	steps := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "sim_scheduler_step_duration_seconds",
		Help:    "Wall time of one scheduler step across all due producers.",
		Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
	})
	steps, err = registerHistogram(reg, steps, "sim_scheduler_step_duration_seconds")
	if err != nil {
		return nil, err
	}

	traveled, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "sim_route_traveled_km",
		Help: "Distance traveled along the route in kilometres.",
	}), "sim_route_traveled_km")
	if err != nil {
		return nil, err
	}
	arrived, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "sim_route_arrived",
		Help: "1 once the vehicle has reached the destination, otherwise 0.",
	}), "sim_route_arrived")
	if err != nil {
		return nil, err
	}

	return &SimCollector{
		gatherer:         gatherer,
		PublishesTotal:   publishes,
		ProducerFailures: failures,
		StepDuration:     steps,
		RouteTraveledKm:  traveled,
		RouteArrived:     arrived,
	}, nil
}

// RecordPublish counts one publish attempt for a topic class.
func (c *SimCollector) RecordPublish(class string, err error) {
	if c == nil || c.PublishesTotal == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	c.PublishesTotal.WithLabelValues(class, result).Inc()
}

// RecordProducerFailure counts a producer error or panic.
func (c *SimCollector) RecordProducerFailure(class string) {
	if c == nil || c.ProducerFailures == nil {
		return
	}
	c.ProducerFailures.WithLabelValues(class).Inc()
}

// ObserveStep records the duration of one scheduler step.
func (c *SimCollector) ObserveStep(d time.Duration) {
	if c == nil || c.StepDuration == nil {
		return
	}
	c.StepDuration.Observe(d.Seconds())
}

// SetRouteProgress updates the route progress gauges.
func (c *SimCollector) SetRouteProgress(traveledKm float64, arrived bool) {
	if c == nil {
		return
	}
	if c.RouteTraveledKm != nil {
		c.RouteTraveledKm.Set(traveledKm)
	}
	if c.RouteArrived != nil {
		v := 0.0
		if arrived {
			v = 1.0
		}
		c.RouteArrived.Set(v)
	}
}

// Handler exposes a ready-to-use /metrics handler.
func (c *SimCollector) Handler() http.Handler {
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

func registerHistogram(reg prometheus.Registerer, hist prometheus.Histogram, name string) (prometheus.Histogram, error) {
	if err := reg.Register(hist); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Histogram); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return hist, nil
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

// Package metrics exposes Prometheus collectors for the suggestion service.
package metrics

import (
	"strconv"
	"time"

	"github.com/Veraticus/geospice/internal/model"
	"github.com/Veraticus/geospice/internal/tools"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "geospice"

// UnknownTool labels invocations of tools that are not registered, keeping
// the tool label bounded whatever names the model sends.
const UnknownTool = "unknown"

// Collector holds the service's metric families.
type Collector struct {
	suggestions    *prometheus.CounterVec
	categories     *prometheus.CounterVec
	toolCalls      *prometheus.CounterVec
	steps          prometheus.Histogram
	duration       prometheus.Histogram
	requests       *prometheus.CounterVec
	rejectedInput  prometheus.Counter
	rateLimited    prometheus.Counter
	nearbyFiltered prometheus.Histogram
	knownTools     map[string]struct{}
}

// New creates an unregistered collector.
func New() *Collector {
	c := &Collector{knownTools: make(map[string]struct{})}
	for _, name := range tools.Default().Names() {
		c.knownTools[name] = struct{}{}
	}

	c.suggestions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "suggestions_total",
		Help:      "Suggestions returned, by outcome",
	}, []string{"outcome"})

	c.categories = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "suggested_category_total",
		Help:      "Suggestions returned, by category",
	}, []string{"category"})

	c.toolCalls = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tool_invocations_total",
		Help:      "Helper tool invocations requested by the model, by tool and status",
	}, []string{"tool", "status"})

	c.steps = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "exchange_steps",
		Help:      "Model calls made per suggestion",
		Buckets:   []float64{1, 2, 3, 4, 5, 8},
	})

	c.duration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "suggestion_duration_seconds",
		Help:      "Wall time spent producing a suggestion",
		Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
	})

	c.nearbyFiltered = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "nearby_expenses",
		Help:      "Nearby expenses included in a prompt",
		Buckets:   []float64{0, 1, 2, 5, 10, 25, 50, 100},
	})

	c.requests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests served, by route and status code",
	}, []string{"route", "code"})

	c.rejectedInput = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rejected_requests_total",
		Help:      "Requests rejected for malformed input",
	})

	c.rateLimited = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rate_limited_requests_total",
		Help:      "Requests refused by the rate limiter",
	})

	return c
}

// Register adds every metric family to reg.
func (c *Collector) Register(reg prometheus.Registerer) error {
	for _, col := range []prometheus.Collector{
		c.suggestions,
		c.categories,
		c.toolCalls,
		c.steps,
		c.duration,
		c.nearbyFiltered,
		c.requests,
		c.rejectedInput,
		c.rateLimited,
	} {
		if err := reg.Register(col); err != nil {
			return err
		}
	}
	return nil
}

// Suggestion describes one finished suggestion for recording.
type Suggestion struct {
	Outcome     model.Outcome
	Category    model.Category
	Invocations []model.ToolInvocation
	Elapsed     time.Duration
	Steps       int
	Nearby      int
}

// ObserveSuggestion records a finished suggestion. Skipped requests never
// reached the model, so only their outcome is counted.
func (c *Collector) ObserveSuggestion(s Suggestion) {
	if c == nil {
		return
	}
	c.suggestions.WithLabelValues(string(s.Outcome)).Inc()
	c.categories.WithLabelValues(string(s.Category)).Inc()
	if s.Outcome == model.OutcomeSkipped {
		return
	}

	for _, inv := range s.Invocations {
		status := "ok"
		if inv.Error != "" {
			status = "error"
		}
		c.toolCalls.WithLabelValues(c.toolLabel(inv.Name), status).Inc()
	}
	c.steps.Observe(float64(s.Steps))
	c.duration.Observe(s.Elapsed.Seconds())
	c.nearbyFiltered.Observe(float64(s.Nearby))
}

func (c *Collector) toolLabel(name string) string {
	if _, ok := c.knownTools[name]; ok {
		return name
	}
	return UnknownTool
}

// ObserveRequest records one served HTTP request.
func (c *Collector) ObserveRequest(route string, code int) {
	if c == nil {
		return
	}
	c.requests.WithLabelValues(route, strconv.Itoa(code)).Inc()
}

// ObserveRejected counts a request refused for malformed input.
func (c *Collector) ObserveRejected() {
	if c == nil {
		return
	}
	c.rejectedInput.Inc()
}

// ObserveRateLimited counts a request refused by the rate limiter.
func (c *Collector) ObserveRateLimited() {
	if c == nil {
		return
	}
	c.rateLimited.Inc()
}

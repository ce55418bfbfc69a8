package instrumentation

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/amimof/metal/pkg/events"

	eventsv1 "github.com/amimof/metal/api/services/events/v1"
	scriptsv1 "github.com/amimof/metal/api/services/scripts/v1"
	tagsv1 "github.com/amimof/metal/api/services/tags/v1"
)

const namespace = "metal"

// BuildInfo describes the running binary
type BuildInfo struct {
	Version   string
	Commit    string
	Branch    string
	GoVersion string
}

// Metrics counts what happens on an event exchange
type Metrics struct {
	events         *prometheus.CounterVec
	scriptResults  *prometheus.CounterVec
	tagPopulations *prometheus.CounterVec
	scriptRuntime  *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them, together with a
// build_info gauge, on reg
func NewMetrics(reg prometheus.Registerer, info BuildInfo) (*Metrics, error) {
	m := &Metrics{
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_published_total",
			Help:      "Number of events published on the exchange.",
		}, []string{"type"}),
		scriptResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "script_results_stored_total",
			Help:      "Number of script results stored, by resulting status.",
		}, []string{"status"}),
		tagPopulations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tag_populations_total",
			Help:      "Number of times a tag definition was evaluated against the nodes.",
		}, []string{"tag"}),
		scriptRuntime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "script_runtime_seconds",
			Help:      "Time between a script starting and its result being stored.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		}, []string{"script"}),
	}

	buildInfo := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "build_info",
		Help:      "A constant gauge with build info labels.",
		ConstLabels: prometheus.Labels{
			"branch":    info.Branch,
			"goversion": info.GoVersion,
			"commit":    info.Commit,
			"version":   info.Version,
		},
	}, func() float64 { return 1 })

	for _, c := range []prometheus.Collector{m.events, m.scriptResults, m.tagPopulations, m.scriptRuntime, buildInfo} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Observe registers handlers on e that feed the counters
func (m *Metrics) Observe(e *events.Exchange) {
	for _, t := range eventsv1.EventTypes() {
		e.On(t, m.count)
	}
}

func (m *Metrics) count(_ context.Context, ev *eventsv1.Event) error {
	m.events.WithLabelValues(ev.GetType().String()).Inc()

	switch ev.GetType() {
	case eventsv1.EventType_ScriptResultStored:
		var res scriptsv1.ScriptResult
		if err := ev.UnmarshalObject(&res); err != nil {
			return nil
		}
		m.scriptResults.WithLabelValues(res.Status.String()).Inc()
		if res.Started != nil && res.Ended != nil {
			m.scriptRuntime.WithLabelValues(res.Name()).Observe(res.Ended.Sub(*res.Started).Seconds())
		}
	case eventsv1.EventType_TagPopulated:
		var tag tagsv1.Tag
		if err := ev.UnmarshalObject(&tag); err != nil {
			return nil
		}
		m.tagPopulations.WithLabelValues(tag.GetName()).Inc()
	}
	return nil
}

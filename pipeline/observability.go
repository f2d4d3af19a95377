package pipeline

import (
	"encoding/json"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/embergine/embergine"
)

// TickSummary captures execution metadata for one universe tick.
type TickSummary struct {
	UniverseID      embergine.UniverseID
	PipelineID      PipelineID
	Tick            uint64
	Duration        time.Duration
	SystemsExecuted int
	Parallel        bool
}

// TickObserver receives summaries after a bound universe ticks.
type TickObserver interface {
	UniverseTicked(summary TickSummary)
}

type noopObserver struct{}

func (noopObserver) UniverseTicked(TickSummary) {}

type compositeObserver struct {
	observers []TickObserver
}

func (c compositeObserver) UniverseTicked(summary TickSummary) {
	for _, observer := range c.observers {
		observer.UniverseTicked(summary)
	}
}

// NewCompositeObserver fans summaries out to every given observer.
func NewCompositeObserver(observers ...TickObserver) TickObserver {
	kept := make([]TickObserver, 0, len(observers))
	for _, observer := range observers {
		if observer != nil {
			kept = append(kept, observer)
		}
	}
	switch len(kept) {
	case 0:
		return noopObserver{}
	case 1:
		return kept[0]
	default:
		return compositeObserver{observers: kept}
	}
}

// ObservationLogFormat controls logging observer encoding.
type ObservationLogFormat uint8

const (
	ObservationLogFormatJSON ObservationLogFormat = iota
	ObservationLogFormatKeyValue
)

type loggingObserver struct {
	logger embergine.Logger
	format ObservationLogFormat
}

// NewLoggingObserver logs each tick summary through the engine logger.
func NewLoggingObserver(logger embergine.Logger, format ObservationLogFormat) TickObserver {
	if logger == nil {
		return noopObserver{}
	}
	if format != ObservationLogFormatKeyValue {
		format = ObservationLogFormatJSON
	}
	return loggingObserver{logger: logger, format: format}
}

func (o loggingObserver) UniverseTicked(summary TickSummary) {
	switch o.format {
	case ObservationLogFormatKeyValue:
		o.logger.With("universe", summary.UniverseID.String()).Info("universe ticked",
			"pipeline", summary.PipelineID.String(),
			"tick", summary.Tick,
			"duration", summary.Duration,
			"systems_executed", summary.SystemsExecuted,
			"parallel", summary.Parallel,
		)
	default:
		payload := map[string]any{
			"universe":         summary.UniverseID.String(),
			"pipeline":         summary.PipelineID.String(),
			"tick":             summary.Tick,
			"duration_ms":      float64(summary.Duration) / float64(time.Millisecond),
			"systems_executed": summary.SystemsExecuted,
			"parallel":         summary.Parallel,
		}
		data, err := json.Marshal(payload)
		if err != nil {
			o.logger.Error("tick summary marshal error", "err", err)
			return
		}
		o.logger.Info(string(data))
	}
}

// PrometheusCollectorOptions tunes the Prometheus tick collector.
type PrometheusCollectorOptions struct {
	Namespace       string
	DurationBuckets []float64
}

// PrometheusTickCollector publishes tick summaries as Prometheus metrics.
type PrometheusTickCollector struct {
	ticks    *prometheus.CounterVec
	systems  *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewPrometheusTickCollector registers tick metrics with the given registerer.
func NewPrometheusTickCollector(reg prometheus.Registerer, opts *PrometheusCollectorOptions) *PrometheusTickCollector {
	if opts == nil {
		opts = &PrometheusCollectorOptions{}
	}
	namespace := opts.Namespace
	if namespace == "" {
		namespace = "embergine"
	}
	buckets := opts.DurationBuckets
	if len(buckets) == 0 {
		buckets = prometheus.DefBuckets
	}
	factory := promauto.With(reg)
	labels := []string{"universe", "parallel"}
	return &PrometheusTickCollector{
		ticks: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "universe_ticks_total",
			Help:      "Universe ticks processed.",
		}, labels),
		systems: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "universe_systems_executed_total",
			Help:      "Systems executed per universe.",
		}, labels),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "universe_tick_duration_seconds",
			Help:      "Universe tick execution duration.",
			Buckets:   buckets,
		}, labels),
	}
}

// UniverseTicked records the summary.
func (c *PrometheusTickCollector) UniverseTicked(summary TickSummary) {
	parallel := "false"
	if summary.Parallel {
		parallel = "true"
	}
	labels := prometheus.Labels{"universe": summary.UniverseID.String(), "parallel": parallel}
	c.ticks.With(labels).Inc()
	c.systems.With(labels).Add(float64(summary.SystemsExecuted))
	c.duration.With(labels).Observe(summary.Duration.Seconds())
}

var _ TickObserver = (*PrometheusTickCollector)(nil)

package metrics

import (
	"time"

	"vietime/internal/compose"
	"vietime/internal/keys"
)

// EngineMetrics holds the metrics of one input engine. It implements the
// engine's observer and monitor hooks, so it can be installed directly
// with SetObserver.
type EngineMetrics struct {
	registry *Registry

	// Counters
	KeysTotal      *Counter
	ConsumedTotal  *Counter
	EventsTotal    map[compose.Event]*Counter
	PanicsTotal    *Counter
	ConfigReloads  *Counter
	ImportRejected *Counter

	// Gauges
	Shortcuts     *Gauge
	ForeignWords  *Gauge
	UptimeSeconds *Gauge

	// Histograms
	KeyLatency *Histogram
}

// startTime records when metrics were initialized.
var startTime = time.Now()

// NewEngineMetrics creates and registers the engine metrics.
func NewEngineMetrics(registry *Registry) *EngineMetrics {
	if registry == nil {
		registry = Default()
	}

	m := &EngineMetrics{
		registry: registry,

		KeysTotal: registry.RegisterCounter(
			"keys_total",
			"Total number of keystrokes processed",
			nil,
		),
		ConsumedTotal: registry.RegisterCounter(
			"keys_consumed_total",
			"Keystrokes answered with an edit instead of passing through",
			nil,
		),
		EventsTotal: make(map[compose.Event]*Counter),
		PanicsTotal: registry.RegisterCounter(
			"panics_recovered_total",
			"Internal faults turned into pass-through results",
			nil,
		),
		ConfigReloads: registry.RegisterCounter(
			"config_reloads_total",
			"Configuration reloads applied",
			nil,
		),
		ImportRejected: registry.RegisterCounter(
			"shortcut_import_rejected_total",
			"Shortcut entries skipped during import",
			nil,
		),

		Shortcuts: registry.RegisterGauge(
			"shortcuts",
			"Number of shortcuts loaded",
			nil,
		),
		ForeignWords: registry.RegisterGauge(
			"foreign_words",
			"Number of words in the foreign word list",
			nil,
		),
		UptimeSeconds: registry.RegisterGauge(
			"uptime_seconds",
			"Number of seconds the engine has been running",
			nil,
		),

		KeyLatency: registry.RegisterHistogram(
			"key_duration_seconds",
			"Time spent handling one keystroke in seconds",
			nil,
			LatencyBuckets,
		),
	}

	for _, e := range compose.Events() {
		m.EventsTotal[e] = registry.RegisterCounter(
			"events_total",
			"Composer events by kind",
			Labels{"event": e.String()},
		)
	}
	return m
}

// Observe counts a composer event.
func (m *EngineMetrics) Observe(e compose.Event) {
	if c, ok := m.EventsTotal[e]; ok {
		c.Inc()
	}
}

// KeyProcessed counts a handled keystroke.
func (m *EngineMetrics) KeyProcessed(_ keys.Kind, a compose.Action) {
	m.KeysTotal.Inc()
	if a != compose.ActionNone {
		m.ConsumedTotal.Inc()
	}
}

// PanicRecovered counts a recovered fault.
func (m *EngineMetrics) PanicRecovered(any, []byte) {
	m.PanicsTotal.Inc()
}

// Event returns the count of one composer event.
func (m *EngineMetrics) Event(e compose.Event) uint64 {
	if c, ok := m.EventsTotal[e]; ok {
		return c.Value()
	}
	return 0
}

// UpdateUptime refreshes the uptime gauge.
func (m *EngineMetrics) UpdateUptime() {
	m.UptimeSeconds.Set(int64(time.Since(startTime).Seconds()))
}

// Snapshot returns a snapshot of key metrics.
func (m *EngineMetrics) Snapshot() map[string]any {
	m.UpdateUptime()
	s := map[string]any{
		"keys_total":             m.KeysTotal.Value(),
		"keys_consumed_total":    m.ConsumedTotal.Value(),
		"panics_recovered_total": m.PanicsTotal.Value(),
		"shortcuts":              m.Shortcuts.Value(),
		"foreign_words":          m.ForeignWords.Value(),
		"uptime_seconds":         m.UptimeSeconds.Value(),
		"key_avg_seconds":        m.KeyLatency.Mean(),
	}
	for e, c := range m.EventsTotal {
		s["event_"+e.String()] = c.Value()
	}
	return s
}

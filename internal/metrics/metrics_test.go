package metrics

import (
	"bytes"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"vietime/internal/compose"
	"vietime/internal/keys"
)

func TestCounterSeries(t *testing.T) {
	r := NewRegistry("test", "")
	a := r.RegisterCounter("events_total", "Events", Labels{"event": "tone"})
	b := r.RegisterCounter("events_total", "Events", Labels{"event": "commit"})
	if a == b {
		t.Fatal("labelled series share a counter")
	}
	if again := r.RegisterCounter("events_total", "Events", Labels{"event": "tone"}); again != a {
		t.Error("re-registering returned a new counter")
	}

	a.Inc()
	b.Add(3)
	if got := r.GetCounter("events_total", Labels{"event": "commit"}).Value(); got != 3 {
		t.Errorf("commit = %d, want 3", got)
	}
}

func TestWritePrometheus(t *testing.T) {
	r := NewRegistry("test", "")
	r.RegisterCounter("events_total", "Events", Labels{"event": "tone"}).Inc()
	r.RegisterCounter("events_total", "Events", Labels{"event": "commit"})
	r.RegisterGauge("shortcuts", "Shortcuts", nil).Set(5)
	h := r.RegisterHistogram("key_duration_seconds", "Latency", nil, []float64{0.001, 0.01})
	h.Observe(0.0005)
	h.Observe(0.005)
	h.Observe(1)

	var buf bytes.Buffer
	if err := r.WritePrometheus(&buf); err != nil {
		t.Fatal(err)
	}
	out := buf.String()

	if n := strings.Count(out, "# TYPE test_events_total counter"); n != 1 {
		t.Errorf("TYPE header written %d times", n)
	}
	for _, want := range []string{
		`test_events_total{event="tone"} 1`,
		`test_events_total{event="commit"} 0`,
		"test_shortcuts 5",
		`test_key_duration_seconds_bucket{le="0.001"} 1`,
		`test_key_duration_seconds_bucket{le="0.01"} 2`,
		`test_key_duration_seconds_bucket{le="+Inf"} 3`,
		"test_key_duration_seconds_count 3",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestHistogramTimer(t *testing.T) {
	h := NewHistogram("h", "", nil, nil)
	timer := h.Timer()
	time.Sleep(time.Millisecond)
	if d := timer.Stop(); d <= 0 {
		t.Errorf("duration = %v", d)
	}
	if h.Count() != 1 || h.Mean() <= 0 {
		t.Errorf("count=%d mean=%f", h.Count(), h.Mean())
	}
}

func TestEngineMetrics(t *testing.T) {
	r := NewRegistry("vietime", "")
	m := NewEngineMetrics(r)

	m.KeyProcessed(keys.KindLetter, compose.ActionNone)
	m.KeyProcessed(keys.KindTone, compose.ActionSend)
	m.Observe(compose.EventTone)
	m.Observe(compose.EventTone)
	m.Observe(compose.EventAutoRestore)
	m.PanicRecovered("boom", nil)

	if m.KeysTotal.Value() != 2 || m.ConsumedTotal.Value() != 1 {
		t.Errorf("keys=%d consumed=%d", m.KeysTotal.Value(), m.ConsumedTotal.Value())
	}
	if got := m.Event(compose.EventTone); got != 2 {
		t.Errorf("tone events = %d, want 2", got)
	}
	if got := m.Event(compose.EventAutoRestore); got != 1 {
		t.Errorf("auto restore events = %d, want 1", got)
	}
	if m.PanicsTotal.Value() != 1 {
		t.Errorf("panics = %d", m.PanicsTotal.Value())
	}

	snap := m.Snapshot()
	if snap["event_tone"] != uint64(2) {
		t.Errorf("snapshot event_tone = %v", snap["event_tone"])
	}

	r.Reset()
	if m.KeysTotal.Value() != 0 {
		t.Error("Reset kept counter value")
	}
}

func TestHTTPHandler(t *testing.T) {
	r := NewRegistry("test", "")
	r.RegisterCounter("keys_total", "Keys", nil).Add(7)

	rec := httptest.NewRecorder()
	r.HTTPHandler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if !strings.Contains(rec.Body.String(), "test_keys_total 7") {
		t.Errorf("text body = %q", rec.Body.String())
	}

	rec = httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/metrics", nil)
	req.Header.Set("Accept", "application/json")
	r.HTTPHandler().ServeHTTP(rec, req)
	if !strings.Contains(rec.Body.String(), `"test_keys_total": 7`) {
		t.Errorf("json body = %q", rec.Body.String())
	}
}

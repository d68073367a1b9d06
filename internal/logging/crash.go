package logging

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"slices"
	"sync"
	"sync/atomic"
	"time"
)

// CrashReport describes one recovered panic.
type CrashReport struct {
	Timestamp    time.Time      `json:"timestamp"`
	Version      string         `json:"version"`
	GoVersion    string         `json:"go_version"`
	GOOS         string         `json:"goos"`
	GOARCH       string         `json:"goarch"`
	NumGoroutine int            `json:"num_goroutine"`
	PanicValue   string         `json:"panic_value"`
	StackTrace   string         `json:"stack_trace"`
	Component    string         `json:"component,omitempty"`
	Context      map[string]any `json:"context,omitempty"`
}

// CrashHandler writes crash reports for panics the frontends recover
// from. Reports never contain typed text: callers pass context such as
// the entry point and key code only.
type CrashHandler struct {
	mu        sync.Mutex
	crashDir  string
	version   string
	component string
	logger    *Logger
	onCrash   func(CrashReport)
	seq       atomic.Uint64
}

// CrashHandlerConfig configures the crash handler.
type CrashHandlerConfig struct {
	// CrashDir is the directory crash reports are written to.
	CrashDir string

	Version   string
	Component string

	// Logger receives a one-line summary of every report. Nil means Default.
	Logger *Logger

	// OnCrash is called after a report is written.
	OnCrash func(CrashReport)
}

// DefaultCrashDir returns the platform-specific crash directory.
func DefaultCrashDir() string {
	switch runtime.GOOS {
	case "darwin":
		homeDir, _ := os.UserHomeDir()
		return filepath.Join(homeDir, "Library", "Logs", "DiagnosticReports", "vietime")
	case "windows":
		appData := os.Getenv("LOCALAPPDATA")
		if appData == "" {
			appData = os.Getenv("APPDATA")
		}
		return filepath.Join(appData, "vietime", "crashes")
	default:
		stateHome := os.Getenv("XDG_STATE_HOME")
		if stateHome == "" {
			homeDir, _ := os.UserHomeDir()
			stateHome = filepath.Join(homeDir, ".local", "state")
		}
		return filepath.Join(stateHome, "vietime", "crashes")
	}
}

// NewCrashHandler creates a CrashHandler. The directory is created lazily.
func NewCrashHandler(cfg *CrashHandlerConfig) *CrashHandler {
	if cfg == nil {
		cfg = &CrashHandlerConfig{}
	}
	dir := cfg.CrashDir
	if dir == "" {
		dir = DefaultCrashDir()
	}
	return &CrashHandler{
		crashDir:  dir,
		version:   cfg.Version,
		component: cfg.Component,
		logger:    cfg.Logger,
		onCrash:   cfg.OnCrash,
	}
}

// Dir returns the crash report directory.
func (h *CrashHandler) Dir() string { return h.crashDir }

// Recover runs fn and turns a panic into a crash report.
func (h *CrashHandler) Recover(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			h.HandlePanic(r, debug.Stack(), nil)
		}
	}()
	fn()
}

// RecoverGoroutine is deferred at the top of long-running goroutines.
//
//	go func() { defer crashHandler.RecoverGoroutine("dbus"); ... }()
func (h *CrashHandler) RecoverGoroutine(name string) {
	if r := recover(); r != nil {
		h.HandlePanic(r, debug.Stack(), map[string]any{"goroutine": name})
	}
}

// HandlePanic records a recovered panic. stack is the trace captured where
// the panic was caught; nil captures the current one.
func (h *CrashHandler) HandlePanic(v any, stack []byte, contextInfo map[string]any) CrashReport {
	if stack == nil {
		stack = debug.Stack()
	}
	report := CrashReport{
		Timestamp:    time.Now().UTC(),
		Version:      h.version,
		GoVersion:    runtime.Version(),
		GOOS:         runtime.GOOS,
		GOARCH:       runtime.GOARCH,
		NumGoroutine: runtime.NumGoroutine(),
		PanicValue:   fmt.Sprintf("%v", v),
		StackTrace:   string(stack),
		Component:    h.component,
		Context:      contextInfo,
	}

	path, err := h.write(report)
	logger := h.logger
	if logger == nil {
		logger = Default()
	}
	if err != nil {
		logger.Error("recovered panic", "panic", report.PanicValue, "error", err)
	} else {
		logger.Error("recovered panic", "panic", report.PanicValue, "report", path)
	}

	if h.onCrash != nil {
		h.onCrash(report)
	}
	return report
}

func (h *CrashHandler) write(report CrashReport) (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := os.MkdirAll(h.crashDir, 0750); err != nil {
		return "", fmt.Errorf("create crash dir: %w", err)
	}
	name := fmt.Sprintf("crash-%s-%s-%d.json",
		report.Component,
		report.Timestamp.Format("20060102-150405"),
		h.seq.Add(1))
	path := filepath.Join(h.crashDir, name)

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal crash report: %w", err)
	}
	if err := os.WriteFile(path, data, 0640); err != nil {
		return "", fmt.Errorf("write crash report: %w", err)
	}
	return path, nil
}

// Reports returns the stored crash reports, oldest first.
func (h *CrashHandler) Reports() ([]CrashReport, error) {
	files, err := filepath.Glob(filepath.Join(h.crashDir, "crash-*.json"))
	if err != nil {
		return nil, err
	}

	reports := make([]CrashReport, 0, len(files))
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			continue
		}
		var report CrashReport
		if err := json.Unmarshal(data, &report); err != nil {
			continue
		}
		reports = append(reports, report)
	}
	slices.SortFunc(reports, func(a, b CrashReport) int { return a.Timestamp.Compare(b.Timestamp) })
	return reports, nil
}

// CleanupOld removes reports older than maxAge.
func (h *CrashHandler) CleanupOld(maxAge time.Duration) error {
	files, err := filepath.Glob(filepath.Join(h.crashDir, "crash-*.json"))
	if err != nil {
		return err
	}
	cutoff := time.Now().Add(-maxAge)
	for _, file := range files {
		info, err := os.Stat(file)
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			os.Remove(file)
		}
	}
	return nil
}

// Clear removes all reports.
func (h *CrashHandler) Clear() error {
	files, err := filepath.Glob(filepath.Join(h.crashDir, "crash-*.json"))
	if err != nil {
		return err
	}
	for _, file := range files {
		os.Remove(file)
	}
	return nil
}

package logging

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"vietime/internal/config"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected Level
		hasError bool
	}{
		{"debug", LevelDebug, false},
		{"DEBUG", LevelDebug, false},
		{"info", LevelInfo, false},
		{"warn", LevelWarn, false},
		{"warning", LevelWarn, false},
		{"error", LevelError, false},
		{"invalid", LevelInfo, true},
		{"", LevelInfo, true},
	}

	for _, test := range tests {
		t.Run(test.input, func(t *testing.T) {
			level, err := ParseLevel(test.input)
			if test.hasError && err == nil {
				t.Error("expected error, got nil")
			}
			if !test.hasError && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !test.hasError && level != test.expected {
				t.Errorf("expected %v, got %v", test.expected, level)
			}
		})
	}
}

func TestLevelString(t *testing.T) {
	for _, level := range []Level{LevelDebug, LevelInfo, LevelWarn, LevelError} {
		s := LevelString(level)
		back, err := ParseLevel(s)
		if err != nil || back != level {
			t.Errorf("LevelString(%v) = %q does not parse back", level, s)
		}
	}
}

func TestFromSettings(t *testing.T) {
	s := config.DefaultConfig().Logging
	s.Level = "debug"
	s.Format = "json"
	s.Output = "file"
	s.FilePath = "/tmp/vietime-test.log"

	cfg, err := FromSettings(s, "ibus")
	if err != nil {
		t.Fatalf("FromSettings failed: %v", err)
	}
	if cfg.Level != LevelDebug || cfg.Format != FormatJSON {
		t.Errorf("unexpected level/format: %v %v", cfg.Level, cfg.Format)
	}
	if cfg.FilePath != s.FilePath || cfg.Component != "ibus" {
		t.Errorf("unexpected config %+v", cfg)
	}
	if cfg.MaxSize != int64(s.MaxSizeMB) || cfg.MaxBackups != s.MaxBackups {
		t.Errorf("rotation settings not copied: %+v", cfg)
	}

	s.Format = "xml"
	if _, err := FromSettings(s, ""); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestShouldRedact(t *testing.T) {
	tests := []struct {
		key      string
		expected bool
	}{
		{"word", true},
		{"raw", true},
		{"committed_text", true},
		{"buffer", true},
		{"trigger", true},
		{"replacement", true},
		{"password", true},
		{"api_key", true},
		{"access_token", true},
		{"keysym", false},
		{"keys_total", false},
		{"scheme", false},
		{"action", false},
		{"backspace", false},
	}

	for _, test := range tests {
		t.Run(test.key, func(t *testing.T) {
			if got := shouldRedact(test.key); got != test.expected {
				t.Errorf("shouldRedact(%q) = %v, expected %v", test.key, got, test.expected)
			}
		})
	}
}

func TestJSONOutputRedacts(t *testing.T) {
	var buf bytes.Buffer
	cfg := DefaultConfig()
	cfg.Format = FormatJSON
	cfg.Component = "test"
	cfg.Writer = &buf

	logger, err := New(cfg)
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}
	logger.Info("committed", "word", "việt", "action", "send")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("output is not JSON: %v: %s", err, buf.String())
	}
	if rec["word"] != "[REDACTED]" {
		t.Errorf("word not redacted: %v", rec["word"])
	}
	if rec["action"] != "send" || rec["component"] != "test" {
		t.Errorf("unexpected record %v", rec)
	}
}

func TestWithComponent(t *testing.T) {
	var buf bytes.Buffer
	cfg := DefaultConfig()
	cfg.Component = ""
	cfg.Writer = &buf

	logger, err := New(cfg)
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}
	logger.WithComponent("ffi").Warn("hello")
	if !strings.Contains(buf.String(), "component=ffi") {
		t.Errorf("component missing: %s", buf.String())
	}
}

func TestFileOutput(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Output = "file"
	cfg.FilePath = filepath.Join(t.TempDir(), "logs", "vietime.log")

	logger, err := New(cfg)
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}
	logger.Info("started", "scheme", "telex")
	if err := logger.Sync(); err != nil {
		t.Errorf("sync failed: %v", err)
	}
	if err := logger.Close(); err != nil {
		t.Errorf("close failed: %v", err)
	}

	data, err := os.ReadFile(cfg.FilePath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), "scheme=telex") {
		t.Errorf("unexpected log content %q", data)
	}
}

func TestLogFileRotation(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "test.log")
	lf, err := openLogFile(&Config{
		FilePath:   logPath,
		MaxSize:    1,
		MaxAge:     7,
		MaxBackups: 2,
	})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer lf.Close()

	chunk := bytes.Repeat([]byte("x"), 700*1024)
	for i := 0; i < 4; i++ {
		chunk[0] = byte('0' + i)
		if _, err := lf.Write(chunk); err != nil {
			t.Fatalf("write %d: %v", i, err)
		}
	}

	// Each write past the first rotates: the live file holds chunk 3,
	// backups 1 and 2 hold chunks 2 and 1, chunk 0 was dropped.
	for name, first := range map[string]byte{
		logPath:        '3',
		logPath + ".1": '2',
		logPath + ".2": '1',
	} {
		data, err := os.ReadFile(name)
		if err != nil {
			t.Fatalf("read %s: %v", name, err)
		}
		if len(data) != len(chunk) || data[0] != first {
			t.Errorf("%s: size %d, want %d starting %q", name, len(data), len(chunk), first)
		}
	}
	if _, err := os.Stat(logPath + ".3"); !os.IsNotExist(err) {
		t.Errorf("backup beyond MaxBackups kept: %v", err)
	}
}

func TestLogFileCompression(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "test.log")
	lf, err := openLogFile(&Config{
		FilePath:   logPath,
		MaxSize:    1,
		MaxBackups: 1,
		Compress:   true,
	})
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	chunk := bytes.Repeat([]byte("y"), 700*1024)
	for j := 0; j < 2; j++ {
		if _, err := lf.Write(chunk); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	if err := lf.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	if strings.Join(names, ",") != "test.log,test.log.1.gz" {
		t.Fatalf("files after close = %v", names)
	}

	f, err := os.Open(logPath + ".1.gz")
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	zr, err := gzip.NewReader(f)
	if err != nil {
		t.Fatalf("gzip: %v", err)
	}
	data, err := io.ReadAll(zr)
	if err != nil {
		t.Fatalf("decompress: %v", err)
	}
	if !bytes.Equal(data, chunk) {
		t.Errorf("decompressed %d bytes, want %d", len(data), len(chunk))
	}
}

func TestLogFileExpiresOldBackups(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "test.log")
	stale := logPath + ".1"
	if err := os.WriteFile(stale, []byte("old"), 0o640); err != nil {
		t.Fatal(err)
	}
	old := time.Now().Add(-30 * 24 * time.Hour)
	if err := os.Chtimes(stale, old, old); err != nil {
		t.Fatal(err)
	}

	lf, err := openLogFile(&Config{FilePath: logPath, MaxSize: 1, MaxAge: 7, MaxBackups: 3})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer lf.Close()
	chunk := bytes.Repeat([]byte("z"), 700*1024)
	for j := 0; j < 2; j++ {
		if _, err := lf.Write(chunk); err != nil {
			t.Fatalf("write: %v", err)
		}
	}

	// The stale backup shifted to .2 and aged out.
	if _, err := os.Stat(logPath + ".2"); !os.IsNotExist(err) {
		t.Errorf("stale backup kept: %v", err)
	}
	if _, err := os.Stat(logPath + ".1"); err != nil {
		t.Errorf("fresh backup missing: %v", err)
	}
}

func TestCrashHandler(t *testing.T) {
	var buf bytes.Buffer
	lcfg := DefaultConfig()
	lcfg.Writer = &buf
	logger, err := New(lcfg)
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}

	var seen []CrashReport
	handler := NewCrashHandler(&CrashHandlerConfig{
		CrashDir:  t.TempDir(),
		Version:   "1.0.0",
		Component: "test",
		Logger:    logger,
		OnCrash:   func(r CrashReport) { seen = append(seen, r) },
	})

	handler.HandlePanic("test panic value", []byte("stack"), map[string]any{"entry": "process_key"})
	handler.Recover(func() { panic("intentional test panic") })

	reports, err := handler.Reports()
	if err != nil {
		t.Fatalf("failed to get crash reports: %v", err)
	}
	if len(reports) != 2 {
		t.Fatalf("expected 2 reports, got %d", len(reports))
	}
	r := reports[0]
	if r.PanicValue != "test panic value" || r.StackTrace != "stack" {
		t.Errorf("unexpected report %+v", r)
	}
	if r.Version != "1.0.0" || r.Component != "test" || r.Context["entry"] != "process_key" {
		t.Errorf("unexpected report metadata %+v", r)
	}
	if len(seen) != 2 {
		t.Errorf("OnCrash called %d times", len(seen))
	}
	if !strings.Contains(buf.String(), "recovered panic") {
		t.Errorf("crash not logged: %s", buf.String())
	}

	if err := handler.Clear(); err != nil {
		t.Errorf("Clear failed: %v", err)
	}
	if reports, _ := handler.Reports(); len(reports) != 0 {
		t.Error("crash reports were not cleared")
	}
}

func TestCrashHandlerCleanupOld(t *testing.T) {
	handler := NewCrashHandler(&CrashHandlerConfig{CrashDir: t.TempDir(), Component: "test"})
	handler.HandlePanic("old", nil, nil)

	old := time.Now().Add(-48 * time.Hour)
	files, _ := filepath.Glob(filepath.Join(handler.Dir(), "crash-*.json"))
	for _, f := range files {
		os.Chtimes(f, old, old)
	}
	handler.HandlePanic("new", nil, nil)

	if err := handler.CleanupOld(24 * time.Hour); err != nil {
		t.Fatalf("CleanupOld failed: %v", err)
	}
	reports, _ := handler.Reports()
	if len(reports) != 1 || reports[0].PanicValue != "new" {
		t.Errorf("expected only the new report, got %+v", reports)
	}
}

package ffi

import (
	"math"
	"os"
	"runtime/debug"
	"sync"

	"github.com/rivo/uniseg"

	"vietime/internal/compose"
	"vietime/internal/config"
	"vietime/internal/ime"
	"vietime/internal/keys"
	"vietime/internal/logging"
	"vietime/internal/store"
	"vietime/internal/syllable"
	"vietime/internal/viet"
)

// KeyResult is the C view of an engine result. Backspace saturates at 255.
// Count is the number of graphemes in Chars, the unit Backspace is
// counted in.
type KeyResult struct {
	Action    uint8
	Backspace uint8
	Count     uint16
	Chars     string
}

// ImportResult counts the outcome of a shortcut import.
type ImportResult struct {
	Added    int
	Rejected int
}

// Session owns one engine. Calls are serialized, so a host may use a
// session from several threads. A nil *Session answers StatusNullEngine.
type Session struct {
	mu     sync.Mutex
	engine *ime.Engine
	crash  *logging.CrashHandler
	log    *logging.Logger
	// op names the call in progress for crash reports.
	op string
}

// NewSession creates a session with a default engine. crash and logger
// may be nil.
func NewSession(crash *logging.CrashHandler, logger *logging.Logger) *Session {
	s := &Session{
		engine: ime.NewEngine(),
		crash:  crash,
		log:    logger,
	}
	// The engine recovers its own faults; they are reported here.
	s.engine.SetPanicHandler(s.reportPanic)
	return s
}

// guard runs fn under the session lock and turns a panic into
// StatusPanic, whether fn panicked or the engine absorbed a fault while
// fn ran. The word in progress is dropped after a panic.
func (s *Session) guard(op string, fn func() Status) (st Status) {
	if s == nil {
		return StatusNullEngine
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.op = op
	var before uint64
	if s.engine != nil {
		before = s.engine.Panics()
	}
	defer func() {
		if v := recover(); v != nil {
			if s.engine != nil {
				s.engine.Clear()
			}
			s.reportPanic(v, debug.Stack())
			st = StatusPanic
		}
	}()
	st = fn()
	if s.engine != nil && s.engine.Panics() > before {
		st = StatusPanic
	}
	return st
}

func (s *Session) reportPanic(v any, stack []byte) {
	switch {
	case s.crash != nil:
		s.crash.HandlePanic(v, stack, map[string]any{"op": s.op})
	case s.log != nil:
		s.log.Error("recovered panic", "op", s.op, "panic", v)
	}
}

// ProcessKey handles one keystroke.
func (s *Session) ProcessKey(code uint16, caps, ctrl, shift bool, out *KeyResult) Status {
	if out == nil {
		return StatusNullOutput
	}
	*out = KeyResult{}
	return s.guard("process_key", func() Status {
		r := s.engine.ProcessKeyExt(keys.Code(code), caps, ctrl, shift)
		out.Action = uint8(r.Action)
		out.Backspace = uint8(min(r.Backspace, 255))
		if r.Action != compose.ActionNone {
			out.Chars = string(r.Chars)
			out.Count = uint16(min(uniseg.GraphemeClusterCount(out.Chars), math.MaxUint16))
		}
		return StatusOK
	})
}

// SetScheme selects Telex (0) or VNI (1).
func (s *Session) SetScheme(v int) Status {
	return s.guard("set_scheme", func() Status {
		if v != int(keys.Telex) && v != int(keys.VNI) {
			return StatusInvalidArgument
		}
		s.engine.SetScheme(keys.Scheme(v))
		return StatusOK
	})
}

// SetToneStyle selects modern (0) or traditional (1) placement.
func (s *Session) SetToneStyle(v int) Status {
	return s.guard("set_tone_style", func() Status {
		if v != int(syllable.Modern) && v != int(syllable.Traditional) {
			return StatusInvalidArgument
		}
		s.engine.SetToneStyle(syllable.Style(v))
		return StatusOK
	})
}

// SetOutputForm selects NFC (0) or NFD (1) output.
func (s *Session) SetOutputForm(v int) Status {
	return s.guard("set_output_form", func() Status {
		if v != int(viet.FormNFC) && v != int(viet.FormNFD) {
			return StatusInvalidArgument
		}
		s.engine.SetOutputForm(viet.Form(v))
		return StatusOK
	})
}

// SetEncoding selects the charset ConvertEncoding produces: Unicode (0),
// TCVN3 (1), VNI-Windows (2) or CP1258 (3).
func (s *Session) SetEncoding(v int) Status {
	return s.guard("set_encoding", func() Status {
		enc, ok := viet.EncodingByID(v)
		if !ok {
			return StatusInvalidArgument
		}
		s.engine.SetEncoding(enc)
		return StatusOK
	})
}

// GetEncoding stores the current charset in out.
func (s *Session) GetEncoding(out *int) Status {
	if out == nil {
		return StatusNullOutput
	}
	return s.guard("get_encoding", func() Status {
		*out = int(s.engine.Encoding())
		return StatusOK
	})
}

// ConvertEncoding stores text converted to the session charset in out.
// Characters the charset lacks become '?'.
func (s *Session) ConvertEncoding(text string, out *[]byte) Status {
	if out == nil {
		return StatusNullOutput
	}
	*out = nil
	return s.guard("convert_encoding", func() Status {
		*out = s.engine.Encode(text)
		return StatusOK
	})
}

func (s *Session) setFlag(op string, set func(*ime.Engine, bool), on bool) Status {
	return s.guard(op, func() Status {
		set(s.engine, on)
		return StatusOK
	})
}

func (s *Session) SetFreeTone(on bool) Status {
	return s.setFlag("set_free_tone", (*ime.Engine).SetFreeTone, on)
}

func (s *Session) SetEscRestore(on bool) Status {
	return s.setFlag("set_esc_restore", (*ime.Engine).SetEscRestore, on)
}

func (s *Session) SetAutoRestore(on bool) Status {
	return s.setFlag("set_auto_restore", (*ime.Engine).SetAutoRestore, on)
}

func (s *Session) SetSkipWShortcut(on bool) Status {
	return s.setFlag("set_skip_w_shortcut", (*ime.Engine).SetSkipWShortcut, on)
}

func (s *Session) SetEnabled(on bool) Status {
	return s.setFlag("set_enabled", (*ime.Engine).SetEnabled, on)
}

// AddShortcut adds an enabled word-boundary shortcut.
func (s *Session) AddShortcut(trigger, replacement string) Status {
	return s.guard("shortcut_add", func() Status {
		return StatusOf(s.engine.AddShortcut(trigger, replacement))
	})
}

// RemoveShortcut deletes the shortcut for trigger.
func (s *Session) RemoveShortcut(trigger string) Status {
	return s.guard("shortcut_remove", func() Status {
		return StatusOf(s.engine.RemoveShortcut(trigger))
	})
}

// ClearShortcuts empties the table.
func (s *Session) ClearShortcuts() Status {
	return s.guard("shortcut_clear", func() Status {
		s.engine.ClearShortcuts()
		return StatusOK
	})
}

// ShortcutCount stores the number of shortcuts in out.
func (s *Session) ShortcutCount(out *int) Status {
	if out == nil {
		return StatusNullOutput
	}
	return s.guard("shortcut_count", func() Status {
		*out = s.engine.ShortcutCount()
		return StatusOK
	})
}

// ExportShortcutsJSON stores the export document in out.
func (s *Session) ExportShortcutsJSON(out *string) Status {
	if out == nil {
		return StatusNullOutput
	}
	return s.guard("shortcuts_export_json", func() Status {
		data, err := s.engine.ExportShortcutsJSON()
		if err != nil {
			return StatusInvalidArgument
		}
		*out = string(data)
		return StatusOK
	})
}

// ImportShortcutsJSON adds the valid entries of data. Invalid entries are
// counted in out and skipped. A document that is not a list at all
// yields StatusInvalidArgument.
func (s *Session) ImportShortcutsJSON(data string, out *ImportResult) Status {
	return s.guard("shortcuts_import_json", func() Status {
		report, err := s.engine.ImportShortcutsJSON([]byte(data))
		if out != nil {
			*out = ImportResult{Added: report.Added, Rejected: len(report.Rejected)}
		}
		if err != nil {
			return StatusInvalidArgument
		}
		if s.log != nil && len(report.Rejected) > 0 {
			s.log.Warn("shortcut import skipped entries", "added", report.Added, "rejected", len(report.Rejected))
		}
		return StatusOK
	})
}

// RestoreWord starts a new word from text already on screen.
func (s *Session) RestoreWord(text string) Status {
	return s.guard("restore_word", func() Status {
		if !s.engine.RestoreWord(text) {
			return StatusInvalidArgument
		}
		return StatusOK
	})
}

// Clear drops the word in progress and the history.
func (s *Session) Clear() Status {
	return s.guard("clear", func() Status {
		s.engine.Clear()
		return StatusOK
	})
}

// LoadConfig applies the configuration file at path, or the default path
// when empty, and seeds the engine from its shortcut and word sources.
// The database is read only if it already exists.
func (s *Session) LoadConfig(path string) Status {
	return s.guard("load_config", func() Status {
		cfg, err := config.Load(path)
		if err != nil {
			s.logError("load config", err)
			return StatusInvalidArgument
		}
		if err := cfg.Validate(); err != nil {
			s.logError("validate config", err)
			return StatusInvalidArgument
		}

		var db *store.Store
		if cfg.Shortcuts.UseDatabase || cfg.Foreign.UseDatabase {
			if _, err := os.Stat(config.DatabasePath()); err == nil {
				if db, err = store.Open(config.DatabasePath()); err != nil {
					s.logError("open database", err)
					db = nil
				}
			}
		}
		if db != nil {
			defer db.Close()
		}

		src, err := ime.LoadSources(cfg, db)
		if err != nil {
			s.logError("load sources", err)
			return StatusInvalidArgument
		}
		if err := s.engine.ApplyConfig(cfg.Engine); err != nil {
			s.logError("apply config", err)
			return StatusInvalidArgument
		}
		s.engine.ClearShortcuts()
		src.Seed(s.engine)
		if s.log != nil {
			s.log.Info("configuration loaded",
				"shortcuts", s.engine.ShortcutCount(),
				"words", src.Words.Len(),
				"rejected", len(src.Report.Rejected))
		}
		return StatusOK
	})
}

func (s *Session) logError(msg string, err error) {
	if s.log != nil {
		s.log.Error(msg, "error", err)
	}
}

// Engine returns the wrapped engine.
func (s *Session) Engine() *ime.Engine { return s.engine }

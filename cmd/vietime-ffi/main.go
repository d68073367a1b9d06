// vietime-ffi is the C library a platform frontend links against.
//
// Build:
//
//	go build -buildmode=c-shared -o libvietime.so ./cmd/vietime-ffi
//
// Every engine is an opaque handle returned by vietime_engine_new. Calls
// return a status code (0 on success, negative on failure). Strings
// returned through out parameters belong to the caller and must be
// released with vietime_free_string.
package main

/*
#include <stdint.h>
#include <stdlib.h>

// count is the number of graphemes in chars, the unit backspace counts.
typedef struct {
	char     *chars;
	uint8_t   action;
	uint8_t   backspace;
	uint16_t  count;
} vietime_result;
*/
import "C"

import (
	"runtime/cgo"
	"sync"
	"unsafe"

	"vietime/internal/config"
	"vietime/internal/ffi"
	"vietime/internal/logging"
)

const version = "0.1.0"

var (
	setupOnce sync.Once
	logger    *logging.Logger
	crash     *logging.CrashHandler
)

// setup opens the library log. A host's stderr is not ours to write to,
// so console outputs are redirected to the log file.
func setup() {
	setupOnce.Do(func() {
		cfg, err := config.Load("")
		if err != nil {
			cfg = config.DefaultConfig()
		}
		logCfg, err := logging.FromSettings(cfg.Logging, "ffi")
		if err == nil {
			if logCfg.Output == "stdout" || logCfg.Output == "stderr" {
				logCfg.Output = "file"
			}
			logger, err = logging.New(logCfg)
		}
		if err != nil {
			logger = logging.Default()
		}
		crash = logging.NewCrashHandler(&logging.CrashHandlerConfig{
			Version:   version,
			Component: "ffi",
			Logger:    logger,
		})
	})
}

// session resolves a handle. Unknown handles resolve to nil, which every
// Session method answers with StatusNullEngine.
func session(h C.uintptr_t) (s *ffi.Session) {
	if h == 0 {
		return nil
	}
	defer func() {
		if recover() != nil {
			s = nil
		}
	}()
	s, _ = cgo.Handle(h).Value().(*ffi.Session)
	return s
}

func status(st ffi.Status) C.int { return C.int(st) }

//export vietime_engine_new
func vietime_engine_new() C.uintptr_t {
	setup()
	return C.uintptr_t(cgo.NewHandle(ffi.NewSession(crash, logger)))
}

//export vietime_engine_destroy
func vietime_engine_destroy(h C.uintptr_t) (rc C.int) {
	if session(h) == nil {
		return status(ffi.StatusNullEngine)
	}
	defer func() {
		if recover() != nil {
			rc = status(ffi.StatusNullEngine)
		}
	}()
	cgo.Handle(h).Delete()
	return status(ffi.StatusOK)
}

//export vietime_process_key
func vietime_process_key(h C.uintptr_t, code C.uint16_t, caps, ctrl C.int, out *C.vietime_result) C.int {
	return vietime_process_key_ext(h, code, caps, ctrl, 0, out)
}

//export vietime_process_key_ext
func vietime_process_key_ext(h C.uintptr_t, code C.uint16_t, caps, ctrl, shift C.int, out *C.vietime_result) C.int {
	s := session(h)
	if s == nil {
		return status(ffi.StatusNullEngine)
	}
	if out == nil {
		return status(ffi.StatusNullOutput)
	}
	*out = C.vietime_result{}

	var r ffi.KeyResult
	st := s.ProcessKey(uint16(code), caps != 0, ctrl != 0, shift != 0, &r)
	if st != ffi.StatusOK {
		return status(st)
	}
	out.action = C.uint8_t(r.Action)
	out.backspace = C.uint8_t(r.Backspace)
	out.count = C.uint16_t(r.Count)
	if r.Chars != "" {
		out.chars = C.CString(r.Chars)
	}
	return status(ffi.StatusOK)
}

//export vietime_set_scheme
func vietime_set_scheme(h C.uintptr_t, scheme C.int) C.int {
	return status(session(h).SetScheme(int(scheme)))
}

//export vietime_set_tone_style
func vietime_set_tone_style(h C.uintptr_t, style C.int) C.int {
	return status(session(h).SetToneStyle(int(style)))
}

//export vietime_set_output_form
func vietime_set_output_form(h C.uintptr_t, form C.int) C.int {
	return status(session(h).SetOutputForm(int(form)))
}

//export vietime_set_encoding
func vietime_set_encoding(h C.uintptr_t, enc C.int) C.int {
	return status(session(h).SetEncoding(int(enc)))
}

//export vietime_get_encoding
func vietime_get_encoding(h C.uintptr_t, out *C.int) C.int {
	s := session(h)
	if s == nil {
		return status(ffi.StatusNullEngine)
	}
	if out == nil {
		return status(ffi.StatusNullOutput)
	}
	var enc int
	st := s.GetEncoding(&enc)
	*out = C.int(enc)
	return status(st)
}

// vietime_convert_encoding converts UTF-8 text to the engine's charset.
// The NUL-terminated result is released with vietime_free_string; length
// may be NULL.
//
//export vietime_convert_encoding
func vietime_convert_encoding(h C.uintptr_t, text *C.char, out **C.char, length *C.size_t) C.int {
	s := session(h)
	if s == nil {
		return status(ffi.StatusNullEngine)
	}
	if out == nil {
		return status(ffi.StatusNullOutput)
	}
	*out = nil
	if text == nil {
		return status(ffi.StatusInvalidArgument)
	}
	var b []byte
	if st := s.ConvertEncoding(C.GoString(text), &b); st != ffi.StatusOK {
		return status(st)
	}
	*out = (*C.char)(C.CBytes(append(b, 0)))
	if length != nil {
		*length = C.size_t(len(b))
	}
	return status(ffi.StatusOK)
}

//export vietime_set_free_tone
func vietime_set_free_tone(h C.uintptr_t, on C.int) C.int {
	return status(session(h).SetFreeTone(on != 0))
}

//export vietime_set_esc_restore
func vietime_set_esc_restore(h C.uintptr_t, on C.int) C.int {
	return status(session(h).SetEscRestore(on != 0))
}

//export vietime_set_auto_restore
func vietime_set_auto_restore(h C.uintptr_t, on C.int) C.int {
	return status(session(h).SetAutoRestore(on != 0))
}

//export vietime_set_skip_w_shortcut
func vietime_set_skip_w_shortcut(h C.uintptr_t, on C.int) C.int {
	return status(session(h).SetSkipWShortcut(on != 0))
}

//export vietime_set_enabled
func vietime_set_enabled(h C.uintptr_t, on C.int) C.int {
	return status(session(h).SetEnabled(on != 0))
}

//export vietime_shortcut_add
func vietime_shortcut_add(h C.uintptr_t, trigger, replacement *C.char) C.int {
	s := session(h)
	if s == nil {
		return status(ffi.StatusNullEngine)
	}
	if trigger == nil || replacement == nil {
		return status(ffi.StatusInvalidArgument)
	}
	return status(s.AddShortcut(C.GoString(trigger), C.GoString(replacement)))
}

//export vietime_shortcut_remove
func vietime_shortcut_remove(h C.uintptr_t, trigger *C.char) C.int {
	s := session(h)
	if s == nil {
		return status(ffi.StatusNullEngine)
	}
	if trigger == nil {
		return status(ffi.StatusInvalidArgument)
	}
	return status(s.RemoveShortcut(C.GoString(trigger)))
}

//export vietime_shortcut_clear
func vietime_shortcut_clear(h C.uintptr_t) C.int {
	return status(session(h).ClearShortcuts())
}

//export vietime_shortcut_count
func vietime_shortcut_count(h C.uintptr_t, out *C.int) C.int {
	s := session(h)
	if s == nil {
		return status(ffi.StatusNullEngine)
	}
	if out == nil {
		return status(ffi.StatusNullOutput)
	}
	var n int
	st := s.ShortcutCount(&n)
	*out = C.int(n)
	return status(st)
}

//export vietime_shortcuts_export_json
func vietime_shortcuts_export_json(h C.uintptr_t, out **C.char) C.int {
	s := session(h)
	if s == nil {
		return status(ffi.StatusNullEngine)
	}
	if out == nil {
		return status(ffi.StatusNullOutput)
	}
	*out = nil
	var doc string
	if st := s.ExportShortcutsJSON(&doc); st != ffi.StatusOK {
		return status(st)
	}
	*out = C.CString(doc)
	return status(ffi.StatusOK)
}

//export vietime_shortcuts_import_json
func vietime_shortcuts_import_json(h C.uintptr_t, data *C.char, added, rejected *C.int) C.int {
	s := session(h)
	if s == nil {
		return status(ffi.StatusNullEngine)
	}
	if data == nil {
		return status(ffi.StatusInvalidArgument)
	}
	var res ffi.ImportResult
	st := s.ImportShortcutsJSON(C.GoString(data), &res)
	if added != nil {
		*added = C.int(res.Added)
	}
	if rejected != nil {
		*rejected = C.int(res.Rejected)
	}
	return status(st)
}

//export vietime_restore_word
func vietime_restore_word(h C.uintptr_t, word *C.char) C.int {
	s := session(h)
	if s == nil {
		return status(ffi.StatusNullEngine)
	}
	if word == nil {
		return status(ffi.StatusInvalidArgument)
	}
	return status(s.RestoreWord(C.GoString(word)))
}

//export vietime_clear
func vietime_clear(h C.uintptr_t) C.int {
	return status(session(h).Clear())
}

//export vietime_load_config
func vietime_load_config(h C.uintptr_t, path *C.char) C.int {
	s := session(h)
	if s == nil {
		return status(ffi.StatusNullEngine)
	}
	p := ""
	if path != nil {
		p = C.GoString(path)
	}
	return status(s.LoadConfig(p))
}

//export vietime_free_string
func vietime_free_string(s *C.char) {
	if s != nil {
		C.free(unsafe.Pointer(s))
	}
}

func main() {}

package config

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"unicode"

	"vietime/internal/keys"
	"vietime/internal/shortcut"
	"vietime/internal/syllable"
	"vietime/internal/viet"
)

// ErrInvalidConfig is returned when validation fails.
var ErrInvalidConfig = errors.New("invalid configuration")

// ValidationError is one problem found in a configuration.
type ValidationError struct {
	Field   string
	Message string
	Warning bool
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Message)
}

// IsWarning reports whether the issue is non-fatal.
func (e *ValidationError) IsWarning() bool { return e.Warning }

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Is lets errors.Is match ErrInvalidConfig when any entry is fatal.
func (e ValidationErrors) Is(target error) bool {
	return target == ErrInvalidConfig && e.HasErrors()
}

// Warnings returns only warning-level entries.
func (e ValidationErrors) Warnings() ValidationErrors {
	var out ValidationErrors
	for _, err := range e {
		if err.IsWarning() {
			out = append(out, err)
		}
	}
	return out
}

// Errors returns only fatal entries.
func (e ValidationErrors) Errors() ValidationErrors {
	var out ValidationErrors
	for _, err := range e {
		if !err.IsWarning() {
			out = append(out, err)
		}
	}
	return out
}

// HasErrors returns true if there are any fatal entries.
func (e ValidationErrors) HasErrors() bool {
	return len(e.Errors()) > 0
}

// ValidateConfig checks every section. It returns nil or ValidationErrors
// holding at least one fatal entry; warnings alone are not an error.
func ValidateConfig(c *Config) error {
	var errs ValidationErrors

	if c.Version < 1 || c.Version > Version {
		errs = append(errs, ValidationError{
			Field:   "version",
			Message: fmt.Sprintf("unsupported version %d (current: %d)", c.Version, Version),
		})
	}
	errs = append(errs, validateEngine(&c.Engine)...)
	errs = append(errs, validateShortcuts(&c.Shortcuts)...)
	errs = append(errs, validateLogging(&c.Logging)...)
	errs = append(errs, validateMetrics(&c.Metrics)...)

	if errs.HasErrors() {
		return errs
	}
	return nil
}

// Check is like ValidateConfig but also returns warnings.
func Check(c *Config) ValidationErrors {
	var errs ValidationErrors
	if err := ValidateConfig(c); err != nil {
		errors.As(err, &errs)
	}
	return append(errs, warnings(c)...)
}

func warnings(c *Config) ValidationErrors {
	var out ValidationErrors
	if c.Engine.FreeTone && c.Engine.AutoRestore {
		out = append(out, ValidationError{
			Field:   "engine.free_tone",
			Message: "free tone marks every word as Vietnamese, so auto restore rarely fires",
			Warning: true,
		})
	}
	if c.Metrics.Enabled && !isLoopback(c.Metrics.ListenAddr) {
		out = append(out, ValidationError{
			Field:   "metrics.listen_addr",
			Message: "metrics are served on a non-loopback address",
			Warning: true,
		})
	}
	return out
}

func validateEngine(e *EngineConfig) ValidationErrors {
	var errs ValidationErrors
	if _, ok := keys.ParseScheme(e.Scheme); !ok {
		errs = append(errs, ValidationError{
			Field:   "engine.scheme",
			Message: fmt.Sprintf("invalid scheme: %s (valid: telex, vni)", e.Scheme),
		})
	}
	if _, ok := syllable.ParseStyle(e.ToneStyle); !ok {
		errs = append(errs, ValidationError{
			Field:   "engine.tone_style",
			Message: fmt.Sprintf("invalid tone style: %s (valid: modern, traditional)", e.ToneStyle),
		})
	}
	if _, ok := viet.ParseForm(e.Output); !ok {
		errs = append(errs, ValidationError{
			Field:   "engine.output",
			Message: fmt.Sprintf("invalid output form: %s (valid: nfc, nfd)", e.Output),
		})
	}
	if _, ok := viet.ParseEncoding(e.Encoding); !ok {
		errs = append(errs, ValidationError{
			Field:   "engine.encoding",
			Message: fmt.Sprintf("invalid encoding: %s (valid: unicode, tcvn3, vni, cp1258)", e.Encoding),
		})
	}
	return errs
}

func validateShortcuts(s *ShortcutsConfig) ValidationErrors {
	var errs ValidationErrors
	if len(s.Entries) > shortcut.MaxEntries {
		errs = append(errs, *RangeError("shortcuts.entries", 0, shortcut.MaxEntries))
	}
	for trigger := range s.Entries {
		if trigger == "" || len([]rune(trigger)) > shortcut.MaxTriggerLen || strings.IndexFunc(trigger, unicode.IsSpace) >= 0 {
			errs = append(errs, ValidationError{
				Field:   "shortcuts.entries." + trigger,
				Message: "trigger must be a single word of 1 to 32 characters",
			})
		}
	}
	return errs
}

func validateLogging(l *LoggingConfig) ValidationErrors {
	var errs ValidationErrors

	switch l.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, ValidationError{
			Field:   "logging.level",
			Message: fmt.Sprintf("invalid log level: %s (valid: debug, info, warn, error)", l.Level),
		})
	}

	switch l.Format {
	case "text", "json":
	default:
		errs = append(errs, ValidationError{
			Field:   "logging.format",
			Message: fmt.Sprintf("invalid log format: %s (valid: text, json)", l.Format),
		})
	}

	switch l.Output {
	case "stdout", "stderr":
	case "file", "both":
		if l.FilePath == "" {
			errs = append(errs, *RequiredFieldError("logging.file_path"))
		}
	default:
		errs = append(errs, ValidationError{
			Field:   "logging.output",
			Message: fmt.Sprintf("invalid log output: %s (valid: stdout, stderr, file, both)", l.Output),
		})
	}

	if l.MaxSizeMB < 1 {
		errs = append(errs, ValidationError{
			Field:   "logging.max_size_mb",
			Message: "max size must be at least 1 MB",
		})
	}
	if l.MaxBackups < 0 {
		errs = append(errs, ValidationError{
			Field:   "logging.max_backups",
			Message: "max backups cannot be negative",
		})
	}
	if l.MaxAgeDays < 0 {
		errs = append(errs, ValidationError{
			Field:   "logging.max_age_days",
			Message: "max age cannot be negative",
		})
	}
	return errs
}

func validateMetrics(m *MetricsConfig) ValidationErrors {
	if !m.Enabled {
		return nil
	}
	if _, _, err := net.SplitHostPort(m.ListenAddr); err != nil {
		return ValidationErrors{{
			Field:   "metrics.listen_addr",
			Message: fmt.Sprintf("invalid listen address %q: %v", m.ListenAddr, err),
		}}
	}
	return nil
}

func isLoopback(addr string) bool {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return false
	}
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// RequiredFieldError creates a validation error for a required field.
func RequiredFieldError(field string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: "required field is missing",
	}
}

// RangeError creates a validation error for an out-of-range value.
func RangeError(field string, min, max any) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: fmt.Sprintf("value must be between %v and %v", min, max),
	}
}

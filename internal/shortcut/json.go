package shortcut

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ExportVersion is the version field written by ExportJSON.
const ExportVersion = 1

//go:embed schema/entry.schema.json
var schemaFS embed.FS

const entrySchemaPath = "schema/entry.schema.json"

var (
	entrySchemaOnce sync.Once
	entrySchema     *jsonschema.Schema
	entrySchemaErr  error
)

func compileEntrySchema() (*jsonschema.Schema, error) {
	entrySchemaOnce.Do(func() {
		data, err := schemaFS.ReadFile(entrySchemaPath)
		if err != nil {
			entrySchemaErr = fmt.Errorf("read entry schema: %w", err)
			return
		}
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(entrySchemaPath, bytes.NewReader(data)); err != nil {
			entrySchemaErr = fmt.Errorf("add entry schema: %w", err)
			return
		}
		entrySchema, entrySchemaErr = compiler.Compile(entrySchemaPath)
	})
	return entrySchema, entrySchemaErr
}

// ErrMalformed is returned by ImportJSON when the document is neither a
// list of entries nor an export object.
var ErrMalformed = errors.New("shortcut: malformed import document")

// wireEntry is the JSON form of an entry. Enabled defaults to true when
// absent.
type wireEntry struct {
	Trigger     string    `json:"trigger"`
	Replacement string    `json:"replacement"`
	Enabled     *bool     `json:"enabled,omitempty"`
	Method      Method    `json:"method"`
	Condition   Condition `json:"condition"`
	CaseMode    CaseMode  `json:"case_mode"`
}

type exportDoc struct {
	Version   int               `json:"version"`
	Shortcuts []json.RawMessage `json:"shortcuts"`
}

// Rejection describes an import entry that was skipped.
type Rejection struct {
	Index   int    `json:"index"`
	Trigger string `json:"trigger,omitempty"`
	Reason  string `json:"reason"`
}

// ImportReport summarizes an import. Entries are processed independently:
// a bad entry is recorded in Rejected and the rest still import.
type ImportReport struct {
	Added    int         `json:"added"`
	Rejected []Rejection `json:"rejected,omitempty"`
}

// ExportJSON serializes the table as {"version":1,"shortcuts":[...]}.
func (t *Table) ExportJSON() ([]byte, error) {
	doc := struct {
		Version   int        `json:"version"`
		Shortcuts []Shortcut `json:"shortcuts"`
	}{ExportVersion, t.All()}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("export shortcuts: %w", err)
	}
	return data, nil
}

// ImportJSON adds the entries of data, which may be an export object or a
// bare array of {trigger, replacement} objects. Existing entries are kept;
// an entry whose trigger already exists is rejected as a duplicate.
//
// The returned error is non-nil only when data cannot be read as a list
// at all; per-entry problems are reported in the ImportReport.
func (t *Table) ImportJSON(data []byte) (ImportReport, error) {
	var report ImportReport

	raws, err := splitEntries(data)
	if err != nil {
		return report, err
	}
	schema, err := compileEntrySchema()
	if err != nil {
		return report, err
	}

	for i, raw := range raws {
		var instance any
		if err := json.Unmarshal(raw, &instance); err != nil {
			report.reject(i, "", err.Error())
			continue
		}
		trigger := triggerOf(instance)
		if err := schema.Validate(instance); err != nil {
			report.reject(i, trigger, schemaReason(err))
			continue
		}
		var w wireEntry
		if err := json.Unmarshal(raw, &w); err != nil {
			report.reject(i, trigger, err.Error())
			continue
		}
		s := Shortcut{
			Trigger:     w.Trigger,
			Replacement: w.Replacement,
			Enabled:     w.Enabled == nil || *w.Enabled,
			Method:      w.Method,
			Condition:   w.Condition,
			CaseMode:    w.CaseMode,
		}
		if err := t.Add(s); err != nil {
			report.reject(i, trigger, err.Error())
			continue
		}
		report.Added++
	}
	return report, nil
}

func (r *ImportReport) reject(i int, trigger, reason string) {
	r.Rejected = append(r.Rejected, Rejection{Index: i, Trigger: trigger, Reason: reason})
}

func splitEntries(data []byte) ([]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, ErrMalformed
	}
	switch trimmed[0] {
	case '[':
		var raws []json.RawMessage
		if err := json.Unmarshal(trimmed, &raws); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		return raws, nil
	case '{':
		var doc exportDoc
		if err := json.Unmarshal(trimmed, &doc); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		if doc.Shortcuts == nil {
			return nil, fmt.Errorf("%w: missing shortcuts", ErrMalformed)
		}
		return doc.Shortcuts, nil
	}
	return nil, ErrMalformed
}

func triggerOf(instance any) string {
	if m, ok := instance.(map[string]any); ok {
		if s, ok := m["trigger"].(string); ok {
			return s
		}
	}
	return ""
}

func schemaReason(err error) string {
	var ve *jsonschema.ValidationError
	if errors.As(err, &ve) {
		leaf := ve
		for len(leaf.Causes) > 0 {
			leaf = leaf.Causes[0]
		}
		if leaf.InstanceLocation != "" {
			return leaf.InstanceLocation + ": " + leaf.Message
		}
		return leaf.Message
	}
	return err.Error()
}

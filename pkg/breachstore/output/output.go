// Package output renders command results as pretty, plain, tsv, csv,
// json, yaml, lines or template output.
//
// Commands build a Result (see the builders in reports.go) and hand it to
// a Formatter looked up by name:
//
//	f, err := output.Get("pretty", output.Options{Theme: output.DarkTheme})
//	if err != nil {
//	    return err
//	}
//	var buf bytes.Buffer
//	if err := f.Format(&buf, output.Counts(counts)); err != nil {
//	    return err
//	}
package output

import (
	"bytes"
	"fmt"
	"sort"
	"sync"

	"github.com/jamesainslie/breachstore/pkg/breachstore/logging"
)

var logger = logging.Get("output")

// Field is one labelled value in a result summary.
type Field struct {
	Label string `json:"label" yaml:"label"`
	Value string `json:"value" yaml:"value"`
}

// Result is the renderer-independent form of a command's output.
type Result struct {
	// Command names the producing command, e.g. "import".
	Command string `json:"command" yaml:"command"`

	// Title heads the pretty output.
	Title string `json:"title" yaml:"title"`

	// Fields is a key/value summary.
	Fields []Field `json:"fields,omitempty" yaml:"fields,omitempty"`

	// Columns and Rows form an optional table.
	Columns []string   `json:"columns,omitempty" yaml:"columns,omitempty"`
	Rows    [][]string `json:"rows,omitempty" yaml:"rows,omitempty"`

	// Lines are emitted verbatim, e.g. search hits.
	Lines []string `json:"lines,omitempty" yaml:"lines,omitempty"`

	// Warnings are shown after the main output.
	Warnings []string `json:"warnings,omitempty" yaml:"warnings,omitempty"`

	// Data is the structured payload for machine formats. When nil the
	// fields, table and lines are emitted instead.
	Data any `json:"-" yaml:"-"`
}

// AddField appends a labelled value.
func (r *Result) AddField(label, value string) {
	r.Fields = append(r.Fields, Field{Label: label, Value: value})
}

// Formatter writes a Result.
type Formatter interface {
	Format(w *bytes.Buffer, r *Result) error
}

// Options configures formatter construction.
type Options struct {
	Theme Theme
}

// FormatterFactory creates a Formatter.
type FormatterFactory func(opts Options) Formatter

// Registry maps names to formatter factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]FormatterFactory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]FormatterFactory)}
}

// Register adds or replaces a factory.
func (r *Registry) Register(name string, factory FormatterFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
}

// Get returns a new formatter by name.
func (r *Registry) Get(name string, opts Options) (Formatter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	factory, ok := r.factories[name]
	if !ok {
		logger.Debug("unknown formatter requested", "name", name)
		return nil, fmt.Errorf("unknown formatter: %s", name)
	}
	if opts.Theme.Name == "" {
		opts.Theme = DarkTheme
	}
	return factory(opts), nil
}

// Available returns the sorted registered names.
func (r *Registry) Available() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultRegistry holds the built-in formatters.
var DefaultRegistry = NewRegistry()

// Register adds a factory to the default registry.
func Register(name string, factory FormatterFactory) {
	DefaultRegistry.Register(name, factory)
}

// Get returns a formatter from the default registry.
func Get(name string, opts Options) (Formatter, error) {
	return DefaultRegistry.Get(name, opts)
}

// Available lists the default registry's formatters.
func Available() []string {
	return DefaultRegistry.Available()
}

// payload returns what machine formats encode for r.
func payload(r *Result) any {
	if r.Data != nil {
		return r.Data
	}
	m := map[string]any{}
	if len(r.Fields) > 0 {
		fields := make(map[string]string, len(r.Fields))
		for _, f := range r.Fields {
			fields[f.Label] = f.Value
		}
		m["fields"] = fields
	}
	if len(r.Rows) > 0 {
		rows := make([]map[string]string, 0, len(r.Rows))
		for _, row := range r.Rows {
			obj := make(map[string]string, len(r.Columns))
			for i, col := range r.Columns {
				if i < len(row) {
					obj[col] = row[i]
				}
			}
			rows = append(rows, obj)
		}
		m["rows"] = rows
	}
	if len(r.Lines) > 0 {
		m["lines"] = r.Lines
	}
	return m
}

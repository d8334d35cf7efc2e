package output

import (
	"bytes"
	"encoding/json"
)

// envelope is the document shape of the machine formats.
type envelope struct {
	Command  string   `json:"command" yaml:"command"`
	Data     any      `json:"data" yaml:"data"`
	Warnings []string `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// JSONFormatter writes one indented JSON document.
type JSONFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *JSONFormatter) Format(w *bytes.Buffer, r *Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(envelope{Command: r.Command, Data: payload(r), Warnings: r.Warnings})
}

func init() {
	Register("json", func(Options) Formatter { return &JSONFormatter{} })
}

var _ Formatter = (*JSONFormatter)(nil)

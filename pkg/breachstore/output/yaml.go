package output

import (
	"bytes"

	"gopkg.in/yaml.v3"
)

// YAMLFormatter writes one YAML document.
type YAMLFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *YAMLFormatter) Format(w *bytes.Buffer, r *Result) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(envelope{Command: r.Command, Data: payload(r), Warnings: r.Warnings}); err != nil {
		return err
	}
	return enc.Close()
}

func init() {
	Register("yaml", func(Options) Formatter { return &YAMLFormatter{} })
}

var _ Formatter = (*YAMLFormatter)(nil)

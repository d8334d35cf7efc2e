package output

import (
	"bytes"
	"strings"
	"text/tabwriter"
)

// PlainFormatter writes unstyled, tab-aligned output for scripting.
type PlainFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *PlainFormatter) Format(w *bytes.Buffer, r *Result) error {
	tw := tabwriter.NewWriter(w, 0, 0, 1, ' ', 0)

	for _, fld := range r.Fields {
		if _, err := tw.Write([]byte(fld.Label + ":\t" + fld.Value + "\n")); err != nil {
			return err
		}
	}
	if len(r.Fields) > 0 && len(r.Columns) > 0 {
		if _, err := tw.Write([]byte("\n")); err != nil {
			return err
		}
	}

	if len(r.Columns) > 0 {
		if _, err := tw.Write([]byte(strings.Join(r.Columns, "\t") + "\n")); err != nil {
			return err
		}
		for _, row := range r.Rows {
			if _, err := tw.Write([]byte(strings.Join(row, "\t") + "\n")); err != nil {
				return err
			}
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	for _, line := range r.Lines {
		w.WriteString(line)
		w.WriteByte('\n')
	}
	for _, warning := range r.Warnings {
		w.WriteString("warning: " + warning + "\n")
	}
	return nil
}

func init() {
	Register("plain", func(Options) Formatter {
		return &PlainFormatter{}
	})
}

var _ Formatter = (*PlainFormatter)(nil)

package output

import "bytes"

// LinesFormatter writes only r.Lines, one per line, for piping search
// hits to other tools.
type LinesFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *LinesFormatter) Format(w *bytes.Buffer, r *Result) error {
	for _, l := range r.Lines {
		w.WriteString(l)
		w.WriteByte('\n')
	}
	return nil
}

// NullFormatter writes r.Lines separated by NUL bytes, for xargs -0.
type NullFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *NullFormatter) Format(w *bytes.Buffer, r *Result) error {
	for _, l := range r.Lines {
		w.WriteString(l)
		w.WriteByte(0)
	}
	return nil
}

func init() {
	Register("lines", func(Options) Formatter { return &LinesFormatter{} })
	Register("null", func(Options) Formatter { return &NullFormatter{} })
}

var (
	_ Formatter = (*LinesFormatter)(nil)
	_ Formatter = (*NullFormatter)(nil)
)

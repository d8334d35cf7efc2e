package output

import (
	"bytes"
	"encoding/csv"
	"strings"
)

// TSVFormatter writes the table as tab-separated values. Results without
// a table fall back to label/value rows.
type TSVFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *TSVFormatter) Format(w *bytes.Buffer, r *Result) error {
	cols, rows := tableOf(r)
	w.WriteString(strings.Join(cols, "\t") + "\n")
	for _, row := range rows {
		w.WriteString(strings.Join(row, "\t") + "\n")
	}
	return nil
}

// CSVFormatter writes the table as RFC 4180 CSV.
type CSVFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *CSVFormatter) Format(w *bytes.Buffer, r *Result) error {
	cols, rows := tableOf(r)
	writer := csv.NewWriter(w)
	if err := writer.Write(cols); err != nil {
		return err
	}
	if err := writer.WriteAll(rows); err != nil {
		return err
	}
	return writer.Error()
}

// tableOf returns r's table, or its fields or lines as a table.
func tableOf(r *Result) ([]string, [][]string) {
	switch {
	case len(r.Columns) > 0:
		return r.Columns, r.Rows
	case len(r.Fields) > 0:
		rows := make([][]string, 0, len(r.Fields))
		for _, f := range r.Fields {
			rows = append(rows, []string{f.Label, f.Value})
		}
		return []string{"FIELD", "VALUE"}, rows
	default:
		rows := make([][]string, 0, len(r.Lines))
		for _, l := range r.Lines {
			rows = append(rows, []string{l})
		}
		return []string{"LINE"}, rows
	}
}

func init() {
	Register("tsv", func(Options) Formatter { return &TSVFormatter{} })
	Register("csv", func(Options) Formatter { return &CSVFormatter{} })
}

var (
	_ Formatter = (*TSVFormatter)(nil)
	_ Formatter = (*CSVFormatter)(nil)
)

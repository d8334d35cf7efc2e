package output

import (
	"fmt"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/jamesainslie/breachstore/pkg/breachstore/cleanup"
	"github.com/jamesainslie/breachstore/pkg/breachstore/dedup"
	"github.com/jamesainslie/breachstore/pkg/breachstore/hashid"
	"github.com/jamesainslie/breachstore/pkg/breachstore/history"
	"github.com/jamesainslie/breachstore/pkg/breachstore/pwned"
	"github.com/jamesainslie/breachstore/pkg/breachstore/search"
	"github.com/jamesainslie/breachstore/pkg/breachstore/types"
)

// Import summarizes an ingestion run.
func Import(stats *types.ImportStats) *Result {
	r := &Result{Command: "import", Title: "Import", Data: stats}
	r.AddField("Files seen", strconv.Itoa(stats.FilesSeen))
	r.AddField("Imported", strconv.Itoa(stats.FilesImported))
	r.AddField("Failed", strconv.Itoa(stats.FilesFailed))
	r.AddField("Forced kind", strconv.Itoa(stats.ForcedModeFiles))
	r.AddField("Lines", types.FormatCount(stats.LinesProcessed))
	r.AddField("Elapsed", FormatDuration(stats.Elapsed))

	r.Columns = []string{"KIND", "VALUES"}
	for _, k := range types.Kinds {
		r.Rows = append(r.Rows, []string{k.Plural(), types.FormatCount(stats.PerKind[k])})
	}
	for _, e := range stats.Errors {
		r.Warnings = append(r.Warnings, fmt.Sprintf("%s: %s", e.Path, e.Error))
	}
	return r
}

// Dedup lists per-kind dedup outcomes in canonical order.
func Dedup(results map[types.Kind]dedup.Result) *Result {
	r := &Result{Command: "dedup", Title: "Dedup", Columns: []string{"KIND", "STATUS", "ELAPSED", "DETAIL"}}
	ordered := make([]dedup.Result, 0, len(results))
	for _, k := range types.Kinds {
		res, ok := results[k]
		if !ok {
			continue
		}
		ordered = append(ordered, res)
		status := "ok"
		if !res.OK {
			status = "error"
		}
		r.Rows = append(r.Rows, []string{k.Plural(), status, FormatDuration(res.Elapsed), res.Message})
	}
	r.Data = ordered
	return r
}

// Status lists the freshness of each unique store.
func Status(statuses map[types.Kind]types.KindStatus) *Result {
	r := &Result{
		Command: "status",
		Title:   "Unique stores",
		Columns: []string{"KIND", "RAW", "UNIQUE", "LAST DEDUP", "STATE"},
	}
	ordered := make([]types.KindStatus, 0, len(statuses))
	var lastImport time.Time
	for _, k := range types.Kinds {
		st, ok := statuses[k]
		if !ok {
			continue
		}
		ordered = append(ordered, st)
		lastImport = st.LastImport

		raw, unique := "-", "-"
		if st.RawExists {
			raw = types.FormatSize(st.RawSize)
		}
		if st.UniqueExists {
			unique = types.FormatSize(st.UniqueSize)
		}
		state := "up to date"
		switch {
		case st.Outdated:
			state = "outdated"
		case !st.RawExists:
			state = "empty"
		}
		r.Rows = append(r.Rows, []string{k.Plural(), raw, unique, FormatTime(st.LastDedup), state})
	}
	r.AddField("Last import", FormatTime(lastImport))
	r.Data = ordered
	return r
}

// Search returns hits as lines.
func Search(res search.Result) *Result {
	r := &Result{Command: "search", Title: "Search", Lines: res.Hits, Data: res}
	r.AddField("Query", res.Query)
	r.AddField("Backend", string(res.Backend))
	r.AddField("Hits", strconv.Itoa(len(res.Hits)))
	return r
}

// Counts lists raw and unique line counts.
func Counts(counts []types.KindCount) *Result {
	r := &Result{
		Command: "count",
		Title:   "Line counts",
		Columns: []string{"KIND", "RAW", "UNIQUE", "DUPLICATES"},
		Data:    counts,
	}
	for _, c := range counts {
		r.Rows = append(r.Rows, []string{
			c.Kind.Plural(),
			types.FormatCount(c.Raw),
			types.FormatCount(c.Unique),
			types.FormatCount(max(c.Raw-c.Unique, 0)),
		})
	}
	return r
}

// Hash reports the detected hash family of token.
func Hash(token string, label hashid.Label) *Result {
	r := &Result{
		Command: "hash",
		Title:   "Hash identification",
		Data: map[string]any{
			"token":     token,
			"label":     label,
			"confident": label.Confident(),
		},
	}
	r.AddField("Token", token)
	r.AddField("Type", string(label))
	if !label.Confident() {
		r.Warnings = append(r.Warnings, "weak or no match; treat as a guess")
	}
	return r
}

// Pwned reports a range API lookup. A failed lookup is shown as not found.
func Pwned(res pwned.Result, err error) *Result {
	r := &Result{Command: "pwned", Title: "Pwned Passwords", Data: res}
	switch {
	case res.Pwned:
		r.AddField("Result", "found in breaches")
		r.AddField("Seen", types.FormatCount(res.Count))
	default:
		r.AddField("Result", "not found (or could not check)")
	}
	if err != nil {
		r.Warnings = append(r.Warnings, "lookup failed: "+err.Error())
	}
	return r
}

// Clean summarizes an import folder clean.
func Clean(res cleanup.Result) *Result {
	r := &Result{Command: "clean", Title: "Clean imports", Data: res}
	r.AddField("Folder", res.Root)
	r.AddField("Files deleted", strconv.Itoa(res.DeletedFiles))
	r.AddField("Dirs deleted", strconv.Itoa(res.DeletedDirs))
	r.AddField("Errors", strconv.Itoa(res.Errors))
	if !res.OK() {
		r.Warnings = append(r.Warnings, fmt.Sprintf("%d entries could not be removed; see the log", res.Errors))
	}
	return r
}

// Paths lists labelled filesystem locations.
func Paths(fields []Field) *Result {
	data := make(map[string]string, len(fields))
	for _, f := range fields {
		data[f.Label] = f.Value
	}
	return &Result{Command: "paths", Title: "Paths", Fields: fields, Data: data}
}

// History lists recorded runs.
func History(entries []history.Entry) *Result {
	r := &Result{
		Command: "history",
		Title:   "History",
		Columns: []string{"ID", "WHEN", "OPERATION", "ELAPSED", "SUMMARY"},
		Data:    entries,
	}
	for _, e := range entries {
		r.Rows = append(r.Rows, []string{
			shortID(e.ID),
			humanize.Time(e.Timestamp),
			string(e.Operation),
			FormatDuration(e.Elapsed),
			summarize(&e),
		})
	}
	return r
}

// HistoryEntry shows one recorded run in full.
func HistoryEntry(e *history.Entry) *Result {
	var r *Result
	switch {
	case e.Import != nil:
		r = Import(e.Import)
	case len(e.Dedup) > 0:
		r = &Result{Columns: []string{"KIND", "STATUS", "ELAPSED", "DETAIL"}}
		for _, d := range e.Dedup {
			status := "ok"
			if !d.OK {
				status = "error"
			}
			r.Rows = append(r.Rows, []string{d.Kind.Plural(), status, FormatDuration(d.Elapsed), d.Message})
		}
	case e.Clean != nil:
		r = &Result{}
		r.AddField("Folder", e.Clean.Root)
		r.AddField("Files deleted", strconv.Itoa(e.Clean.DeletedFiles))
		r.AddField("Dirs deleted", strconv.Itoa(e.Clean.DeletedDirs))
		r.AddField("Errors", strconv.Itoa(e.Clean.Errors))
	default:
		r = &Result{}
	}

	r.Command = "history"
	r.Title = fmt.Sprintf("%s %s", e.Operation, e.ID)
	r.Fields = append([]Field{
		{Label: "When", Value: e.Timestamp.Local().Format(time.RFC3339)},
	}, r.Fields...)
	if e.Error != "" {
		r.Warnings = append(r.Warnings, e.Error)
	}
	r.Data = e
	return r
}

func summarize(e *history.Entry) string {
	if e.Error != "" {
		return "error: " + e.Error
	}
	switch {
	case e.Import != nil:
		return fmt.Sprintf("%d files, %s values", e.Import.FilesImported, types.FormatCount(e.Import.TotalValues()))
	case len(e.Dedup) > 0:
		ok := 0
		for _, d := range e.Dedup {
			if d.OK {
				ok++
			}
		}
		return fmt.Sprintf("%d/%d kinds", ok, len(e.Dedup))
	case e.Clean != nil:
		return fmt.Sprintf("%d files, %d dirs", e.Clean.DeletedFiles, e.Clean.DeletedDirs)
	}
	return ""
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// FormatTime renders t relative to now, or "never" for the zero time.
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return humanize.Time(t)
}

// FormatDuration renders d in a compact human form.
func FormatDuration(d time.Duration) string {
	sec := d.Seconds()
	if sec < 1 {
		return fmt.Sprintf("%.0fms", sec*1000)
	}
	if sec < 60 {
		return fmt.Sprintf("%.1fs", sec)
	}
	minutes := int(sec) / 60
	seconds := int(sec) % 60
	if minutes < 60 {
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}
	return fmt.Sprintf("%dh %dm", minutes/60, minutes%60)
}

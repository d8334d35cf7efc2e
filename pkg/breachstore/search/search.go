// Package search looks up values in the unique stores and counts lines.
package search

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/jamesainslie/breachstore/pkg/breachstore/logging"
	"github.com/jamesainslie/breachstore/pkg/breachstore/store"
	"github.com/jamesainslie/breachstore/pkg/breachstore/types"
)

var logger = logging.Get("search")

// DefaultMaxHits caps the number of returned lines.
const DefaultMaxHits = 200

// ErrNoUniqueFiles is returned when no unique store exists to search.
var ErrNoUniqueFiles = errors.New("no unique files; run dedup first")

// Backend names the tool that produced a Result.
type Backend string

// Search backends.
const (
	BackendRipgrep Backend = "rg"
	BackendScan    Backend = "scan"
)

// Result holds search hits formatted as path:line_number:content.
type Result struct {
	Query   string   `json:"query" yaml:"query"`
	Backend Backend  `json:"backend" yaml:"backend"`
	Paths   []string `json:"paths" yaml:"paths"`
	Hits    []string `json:"hits" yaml:"hits"`
}

// Text joins the hits with newlines.
func (r Result) Text() string { return strings.Join(r.Hits, "\n") }

// Searcher runs fixed-string searches. The zero value prefers ripgrep.
type Searcher struct {
	// Ripgrep overrides the rg executable. "-" disables ripgrep.
	Ripgrep string
}

// Search runs a case-sensitive fixed-string search with the default
// Searcher. See (Searcher).Search.
func Search(ctx context.Context, root, query string, kind *types.Kind, maxHits int) (Result, error) {
	return Searcher{}.Search(ctx, root, query, kind, maxHits)
}

// Search looks for query in the unique store of kind, or in every unique
// store in canonical kind order when kind is nil. At most maxHits lines
// are returned. An empty query returns an empty result.
func (s Searcher) Search(ctx context.Context, root, query string, kind *types.Kind, maxHits int) (Result, error) {
	res := Result{Query: query}
	if query == "" {
		return res, nil
	}
	if maxHits <= 0 {
		maxHits = DefaultMaxHits
	}

	layout := store.New(root)
	kinds := types.Kinds
	if kind != nil {
		if !kind.Valid() {
			return res, fmt.Errorf("%w: %q", types.ErrInvalidKind, *kind)
		}
		kinds = []types.Kind{*kind}
	}
	for _, k := range kinds {
		p := layout.UniquePath(k)
		if _, err := os.Stat(p); err == nil {
			res.Paths = append(res.Paths, p)
		}
	}
	if len(res.Paths) == 0 {
		return res, ErrNoUniqueFiles
	}

	if bin := s.ripgrep(); bin != "" {
		hits, err := ripgrep(ctx, bin, query, res.Paths, maxHits)
		if err != nil {
			return res, err
		}
		res.Backend = BackendRipgrep
		res.Hits = hits
		return res, nil
	}

	hits, err := scan(ctx, query, res.Paths, maxHits)
	res.Backend = BackendScan
	res.Hits = hits
	return res, err
}

func (s Searcher) ripgrep() string {
	name := s.Ripgrep
	if name == "-" {
		return ""
	}
	if name == "" {
		name = "rg"
	}
	bin, err := exec.LookPath(name)
	if err != nil {
		logger.Debug("ripgrep unavailable, using scan", "error", err)
		return ""
	}
	return bin
}

// ripgrep runs rg once per file so hits keep kind order and the cap is
// global. Exit status 1 means no match. Any other exit status keeps what
// rg printed and logs its stderr.
func ripgrep(ctx context.Context, bin, query string, paths []string, maxHits int) ([]string, error) {
	var hits []string
	for _, p := range paths {
		remaining := maxHits - len(hits)
		if remaining <= 0 {
			break
		}
		cmd := exec.CommandContext(ctx, bin, "-n", "--fixed-strings", "--no-mmap",
			"--with-filename", "--no-heading", "--color", "never",
			"--max-count", strconv.Itoa(remaining), "-e", query, p)
		var stdout, stderr bytes.Buffer
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr

		if err := cmd.Run(); err != nil {
			if ctx.Err() != nil {
				return hits, ctx.Err()
			}
			var exitErr *exec.ExitError
			if !errors.As(err, &exitErr) {
				return hits, fmt.Errorf("rg: %w", err)
			}
			if exitErr.ExitCode() != 1 {
				logger.Warn("rg reported errors", "path", p, "exit", exitErr.ExitCode(),
					"stderr", strings.TrimSpace(stderr.String()))
			}
		}

		out := strings.TrimSuffix(stdout.String(), "\n")
		if out == "" {
			continue
		}
		lines := strings.Split(out, "\n")
		hits = append(hits, lines[:min(len(lines), remaining)]...)
	}
	return hits, nil
}

// scan reads the files in order and stops once maxHits lines matched.
func scan(ctx context.Context, query string, paths []string, maxHits int) ([]string, error) {
	var hits []string
	for _, p := range paths {
		f, err := os.Open(p)
		if err != nil {
			return hits, fmt.Errorf("opening %s: %w", p, err)
		}
		sc := bufio.NewScanner(f)
		sc.Buffer(make([]byte, 0, 64*1024), 16<<20)
		n := 0
		for sc.Scan() {
			n++
			if n%4096 == 0 && ctx.Err() != nil {
				f.Close()
				return hits, ctx.Err()
			}
			line := sc.Text()
			if !strings.Contains(line, query) {
				continue
			}
			hits = append(hits, fmt.Sprintf("%s:%d:%s", p, n, line))
			if len(hits) >= maxHits {
				f.Close()
				return hits, nil
			}
		}
		err = sc.Err()
		f.Close()
		if err != nil {
			return hits, fmt.Errorf("scanning %s: %w", p, err)
		}
	}
	return hits, nil
}

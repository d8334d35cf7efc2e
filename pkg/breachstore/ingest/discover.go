package ingest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/charlievieth/fastwalk"
	"github.com/gobwas/glob"

	"github.com/jamesainslie/breachstore/pkg/breachstore/archive"
	"github.com/jamesainslie/breachstore/pkg/breachstore/types"
)

// matcher tests paths against compiled exclude globs.
type matcher struct {
	root  string
	globs []glob.Glob
}

func newMatcher(root string, patterns []string) (*matcher, error) {
	m := &matcher{root: root}
	for _, p := range patterns {
		if p == "" {
			continue
		}
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, fmt.Errorf("invalid exclude pattern %q: %w", p, err)
		}
		m.globs = append(m.globs, g)
	}
	return m, nil
}

func (m *matcher) excluded(path string) bool {
	if len(m.globs) == 0 {
		return false
	}
	abs := filepath.ToSlash(path)
	rel := abs
	if r, err := filepath.Rel(m.root, path); err == nil {
		rel = filepath.ToSlash(r)
	}
	base := filepath.Base(path)
	for _, g := range m.globs {
		if g.Match(abs) || g.Match(rel) || g.Match(base) {
			return true
		}
	}
	return false
}

// Discover returns the files under root with a supported suffix, sorted by
// full path. A root that is a file is returned as the only candidate
// regardless of its suffix. Unreadable directories are skipped.
func Discover(ctx context.Context, root string, exclude []string) ([]string, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", root, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNoImportRoot, root)
		}
		return nil, fmt.Errorf("stat %s: %w", root, err)
	}
	if !info.IsDir() {
		return []string{abs}, nil
	}

	m, err := newMatcher(abs, exclude)
	if err != nil {
		return nil, err
	}

	var (
		mu    sync.Mutex
		found []string
	)
	conf := fastwalk.Config{Follow: false}
	walkErr := fastwalk.Walk(&conf, abs, func(path string, d fs.DirEntry, err error) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			logger.Debug("skipping unreadable path", "path", path, "error", err)
			return nil
		}
		if d.IsDir() {
			if path != abs && m.excluded(path+"/") {
				return fastwalk.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || !archive.Supported(path) || m.excluded(path) {
			return nil
		}
		mu.Lock()
		found = append(found, path)
		mu.Unlock()
		return nil
	})
	if walkErr != nil {
		return nil, fmt.Errorf("walking %s: %w", root, walkErr)
	}

	slices.Sort(found)
	return found, nil
}

// ForcedKind returns the kind implied by a users/, passwords/, emails/ or
// hashes/ folder anywhere in path. Matching ignores case and treats '\' as
// '/'. Kinds are tried in canonical order and the first match wins.
func ForcedKind(path string) (types.Kind, bool) {
	p := strings.ToLower(strings.ReplaceAll(path, `\`, "/"))
	for _, k := range types.Kinds {
		if strings.Contains(p, "/"+k.Plural()+"/") {
			return k, true
		}
	}
	return "", false
}

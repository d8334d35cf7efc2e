package search

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/jamesainslie/breachstore/pkg/breachstore/store"
	"github.com/jamesainslie/breachstore/pkg/breachstore/types"
)

// Count returns the number of newline characters in path, like wc -l.
// A missing file counts as zero. wc is used when available; otherwise the
// file is read in process.
func Count(ctx context.Context, path string) (int64, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, err
	}

	n, err := wc(ctx, path)
	if err == nil {
		return n, nil
	}
	if ctx.Err() != nil {
		return 0, ctx.Err()
	}
	logger.Debug("wc unavailable, counting in process", "path", path, "error", err)
	return countNewlines(ctx, path)
}

func wc(ctx context.Context, path string) (int64, error) {
	bin, err := exec.LookPath("wc")
	if err != nil {
		return 0, err
	}
	var stdout bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, "-l", path)
	cmd.Stdout = &stdout
	if err := cmd.Run(); err != nil {
		return 0, err
	}
	fields := strings.Fields(stdout.String())
	if len(fields) == 0 {
		return 0, errors.New("wc: empty output")
	}
	return strconv.ParseInt(fields[0], 10, 64)
}

func countNewlines(ctx context.Context, path string) (int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	r := bufio.NewReaderSize(f, 1<<20)
	buf := make([]byte, 1<<20)
	var n int64
	for {
		if err := ctx.Err(); err != nil {
			return n, err
		}
		read, err := r.Read(buf)
		n += int64(bytes.Count(buf[:read], []byte{'\n'}))
		if errors.Is(err, io.EOF) {
			return n, nil
		}
		if err != nil {
			return n, fmt.Errorf("reading %s: %w", path, err)
		}
	}
}

// Counts returns raw and unique line counts for every kind in canonical
// order.
func Counts(ctx context.Context, root string) ([]types.KindCount, error) {
	layout := store.New(root)
	out := make([]types.KindCount, 0, len(types.Kinds))
	for _, k := range types.Kinds {
		raw, err := Count(ctx, layout.RawPath(k))
		if err != nil {
			return out, err
		}
		unique, err := Count(ctx, layout.UniquePath(k))
		if err != nil {
			return out, err
		}
		out = append(out, types.KindCount{Kind: k, Raw: raw, Unique: unique})
	}
	return out, nil
}

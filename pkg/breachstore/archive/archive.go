// Package archive streams text lines out of plain and archived dump files.
//
// Every container or compression kind is a LineSource variant selected by
// Detect on the file name. Sources decode best-effort: invalid UTF-8 is
// dropped, and an unreadable member of a multi-member archive is skipped
// without aborting the rest of the archive. Failing to open the container
// itself is reported as an error.
package archive

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/jamesainslie/breachstore/pkg/breachstore/logging"
)

// readBufferSize is the initial line buffer size. The buffer grows for
// longer lines.
const readBufferSize = 256 * 1024

// ErrConsumed is returned when Each is called on a source that was already read.
var ErrConsumed = errors.New("line source already consumed")

// LineFunc receives one decoded line without its terminator.
// Returning an error stops the stream and the error is returned by Each.
type LineFunc func(line string) error

// LineSource is a single-use, ordered sequence of text lines.
type LineSource interface {
	// Format returns the container format of the source.
	Format() Format

	// Each calls fn for every line in order.
	Each(fn LineFunc) error

	// Close releases the underlying file handles.
	Close() error
}

// logger is the package-level logger for archive decoding.
var logger = logging.Get("archive")

// Open opens path and returns the LineSource for its format.
// Container-level failures (missing file, corrupt header) are returned here.
func Open(path string) (LineSource, error) {
	format := Detect(path)
	switch {
	case format == FormatZip:
		return openZip(path)
	case format == FormatSevenZip:
		return openSevenZip(path)
	case format.IsTar():
		return openTar(path, format)
	default:
		return openStream(path, format)
	}
}

// StreamLines opens path, feeds every line to fn and closes the source.
// Each call re-reads the file from the start.
func StreamLines(path string, fn LineFunc) error {
	src, err := Open(path)
	if err != nil {
		return err
	}
	defer src.Close()
	return src.Each(fn)
}

// callbackError marks an error returned by the caller's LineFunc so that
// member-skipping logic never swallows it.
type callbackError struct {
	err error
}

func (e *callbackError) Error() string { return e.err.Error() }
func (e *callbackError) Unwrap() error { return e.err }

// isCallbackError reports whether err originated in the caller's LineFunc.
func isCallbackError(err error) bool {
	var cb *callbackError
	return errors.As(err, &cb)
}

// unwrapCallback strips the callbackError marker before returning to callers.
func unwrapCallback(err error) error {
	var cb *callbackError
	if errors.As(err, &cb) {
		return cb.err
	}
	return err
}

// readLines decodes r into lines. A line ends at "\n", "\r\n" or a lone
// "\r". Invalid UTF-8 sequences are dropped. Errors from fn are wrapped in
// callbackError.
func readLines(r io.Reader, fn LineFunc) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, readBufferSize), math.MaxInt)
	sc.Split(scanLines)
	for sc.Scan() {
		line := strings.ToValidUTF8(sc.Text(), "")
		if err := fn(line); err != nil {
			return &callbackError{err: err}
		}
	}
	return sc.Err()
}

// scanLines is a bufio.SplitFunc that treats "\n", "\r\n" and a lone "\r"
// as line terminators. A final line without a terminator is still returned.
func scanLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		if data[i] == '\n' {
			return i + 1, data[:i], nil
		}
		if i+1 < len(data) {
			if data[i+1] == '\n' {
				return i + 2, data[:i], nil
			}
			return i + 1, data[:i], nil
		}
		if atEOF {
			return i + 1, data[:i], nil
		}
		// A trailing "\r" may be the first half of "\r\n".
		return 0, nil, nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

// readFile reads a regular file as text, used for extracted 7z members.
func readFile(path string, fn LineFunc) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()
	return readLines(f, fn)
}

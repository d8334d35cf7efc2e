package archive

import (
	"archive/tar"
	"bytes"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ulikunitz/xz"
	"github.com/ulikunitz/xz/lzma"
)

func TestDetect(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		want Format
	}{
		{"dump.txt", FormatPlain},
		{"DUMP.CSV", FormatPlain},
		{"noext", FormatPlain},
		{"a.gz", FormatGzip},
		{"a.txt.gz", FormatGzip},
		{"a.bz2", FormatBzip2},
		{"a.xz", FormatXz},
		{"a.lzma", FormatXz},
		{"a.zip", FormatZip},
		{"a.7z", FormatSevenZip},
		{"a.tar", FormatTar},
		{"a.tar.gz", FormatTarGzip},
		{"A.TGZ", FormatTarGzip},
		{"a.tar.bz2", FormatTarBzip2},
		{"a.tar.xz", FormatTarXz},
		{"/dir.zip/inner.txt", FormatPlain},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Detect(tt.name))
		})
	}
}

func TestSupported(t *testing.T) {
	t.Parallel()

	assert.True(t, Supported("x.log"))
	assert.True(t, Supported("x.TAR.XZ"))
	assert.False(t, Supported("x.pdf"))
	assert.False(t, Supported("README"))
	assert.Contains(t, Suffixes(), ".tgz")
}

func collect(t *testing.T, path string) []string {
	t.Helper()
	var lines []string
	err := StreamLines(path, func(line string) error {
		lines = append(lines, line)
		return nil
	})
	require.NoError(t, err)
	return lines
}

func writeFile(t *testing.T, path string, data []byte) string {
	t.Helper()
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func gzipBytes(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	_, err := w.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func xzBytes(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w, err := xz.NewWriter(&buf)
	require.NoError(t, err)
	_, err = w.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func tarBytes(t *testing.T, members map[string]string, order []string) []byte {
	t.Helper()
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	require.NoError(t, tw.WriteHeader(&tar.Header{Name: "dir/", Typeflag: tar.TypeDir, Mode: 0o755}))
	for _, name := range order {
		body := members[name]
		require.NoError(t, tw.WriteHeader(&tar.Header{Name: name, Mode: 0o644, Size: int64(len(body)), Typeflag: tar.TypeReg}))
		_, err := tw.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, tw.WriteHeader(&tar.Header{Name: "dir/link", Linkname: "a.txt", Typeflag: tar.TypeSymlink}))
	require.NoError(t, tw.Close())
	return buf.Bytes()
}

func TestStreamLinesPlain(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeFile(t, filepath.Join(dir, "dump.txt"), []byte("alice:one\r\nbob:two\n\xffcarol\nno-newline"))

	assert.Equal(t, []string{"alice:one", "bob:two", "carol", "no-newline"}, collect(t, path))
}

func TestStreamLinesUniversalNewlines(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		data string
		want []string
	}{
		{"cr only", "alice:one\rbob:two\r", []string{"alice:one", "bob:two"}},
		{"crlf", "alice:one\r\nbob:two\r\n", []string{"alice:one", "bob:two"}},
		{"mixed", "a\rb\nc\r\nd", []string{"a", "b", "c", "d"}},
		{"empty lines", "a\r\rb\n\nc", []string{"a", "", "b", "", "c"}},
		{"trailing cr", "a\r", []string{"a"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			path := writeFile(t, filepath.Join(t.TempDir(), "dump.txt"), []byte(tt.data))
			assert.Equal(t, tt.want, collect(t, path))
		})
	}
}

func TestStreamLinesCRAcrossBufferBoundary(t *testing.T) {
	t.Parallel()

	// A CRLF pair split across the initial buffer must stay one terminator.
	first := strings.Repeat("x", readBufferSize-1)
	data := first + "\r\nnext\n"
	path := writeFile(t, filepath.Join(t.TempDir(), "big.txt"), []byte(data))

	assert.Equal(t, []string{first, "next"}, collect(t, path))
}

func TestStreamLinesRereadsFromStart(t *testing.T) {
	t.Parallel()

	path := writeFile(t, filepath.Join(t.TempDir(), "a.log"), []byte("x\ny\n"))
	assert.Equal(t, collect(t, path), collect(t, path))
}

func TestStreamLinesGzip(t *testing.T) {
	t.Parallel()

	path := writeFile(t, filepath.Join(t.TempDir(), "dump.txt.GZ"), gzipBytes(t, []byte("a@b.com:pw\n")))
	assert.Equal(t, []string{"a@b.com:pw"}, collect(t, path))
}

func TestStreamLinesXzAndLzma(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	xzPath := writeFile(t, filepath.Join(dir, "d.xz"), xzBytes(t, []byte("one\ntwo\n")))
	assert.Equal(t, []string{"one", "two"}, collect(t, xzPath))

	var buf bytes.Buffer
	w, err := lzma.NewWriter(&buf)
	require.NoError(t, err)
	_, err = w.Write([]byte("legacy\n"))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	lzmaPath := writeFile(t, filepath.Join(dir, "d.lzma"), buf.Bytes())
	assert.Equal(t, []string{"legacy"}, collect(t, lzmaPath))
}

func TestStreamLinesBzip2(t *testing.T) {
	t.Parallel()

	bin, err := exec.LookPath("bzip2")
	if err != nil {
		t.Skip("bzip2 binary not available")
	}
	dir := t.TempDir()
	src := writeFile(t, filepath.Join(dir, "d.txt"), []byte("first\nsecond\n"))
	require.NoError(t, exec.Command(bin, "-k", src).Run())

	assert.Equal(t, []string{"first", "second"}, collect(t, src+".bz2"))
}

func TestStreamLinesZip(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	_, err := zw.Create("folder/")
	require.NoError(t, err)
	for _, m := range []struct{ name, body string }{
		{"folder/b.txt", "b1\nb2\n"},
		{"a.txt", "a1\n"},
	} {
		w, err := zw.Create(m.name)
		require.NoError(t, err)
		_, err = w.Write([]byte(m.body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())

	path := writeFile(t, filepath.Join(t.TempDir(), "d.zip"), buf.Bytes())
	assert.Equal(t, []string{"b1", "b2", "a1"}, collect(t, path))
}

func TestStreamLinesTarVariants(t *testing.T) {
	t.Parallel()

	members := map[string]string{"dir/a.txt": "a1\na2\n", "b.txt": "b1\n"}
	order := []string{"dir/a.txt", "b.txt"}
	raw := tarBytes(t, members, order)
	want := []string{"a1", "a2", "b1"}

	dir := t.TempDir()
	for name, data := range map[string][]byte{
		"d.tar":    raw,
		"d.tar.gz": gzipBytes(t, raw),
		"d.tgz":    gzipBytes(t, raw),
		"d.tar.xz": xzBytes(t, raw),
	} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			path := writeFile(t, filepath.Join(dir, name), data)
			assert.Equal(t, want, collect(t, path))
		})
	}
}

func TestOpenCorruptContainers(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	for _, name := range []string{"bad.gz", "bad.zip", "bad.7z", "bad.tar.gz"} {
		path := writeFile(t, filepath.Join(dir, name), []byte("definitely not an archive"))
		_, err := Open(path)
		assert.Error(t, err, name)
	}

	_, err := Open(filepath.Join(dir, "missing.txt"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestCallbackErrorStopsStream(t *testing.T) {
	t.Parallel()

	path := writeFile(t, filepath.Join(t.TempDir(), "d.txt"), []byte("1\n2\n3\n"))
	stop := errors.New("stop")

	var seen int
	err := StreamLines(path, func(string) error {
		seen++
		if seen == 2 {
			return stop
		}
		return nil
	})
	require.ErrorIs(t, err, stop)
	assert.Equal(t, 2, seen)
}

func TestEachIsSingleUse(t *testing.T) {
	t.Parallel()

	path := writeFile(t, filepath.Join(t.TempDir(), "d.txt"), []byte("1\n"))
	src, err := Open(path)
	require.NoError(t, err)
	defer src.Close()

	assert.Equal(t, FormatPlain, src.Format())
	require.NoError(t, src.Each(func(string) error { return nil }))
	require.ErrorIs(t, src.Each(func(string) error { return nil }), ErrConsumed)
}

func TestStreamLinesSevenZip(t *testing.T) {
	t.Parallel()

	// nested.7z stores b/c.txt, ../evil.txt, the directory b and a.txt,
	// in that order, with the copy coder.
	src, err := openSevenZip(filepath.Join("testdata", "nested.7z"))
	require.NoError(t, err)
	defer src.Close()

	scratch := t.TempDir()
	src.tmpRoot = scratch

	var lines []string
	require.NoError(t, src.Each(func(line string) error {
		lines = append(lines, line)
		return nil
	}))

	assert.Equal(t, []string{"a1", "c1", "c2"}, lines)

	entries, err := os.ReadDir(scratch)
	require.NoError(t, err)
	assert.Empty(t, entries, "scratch directory and escaped members must not remain")
}

func TestStreamLinesSevenZipDispatch(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"a1", "c1", "c2"}, collect(t, filepath.Join("testdata", "nested.7z")))
}

package archive

import (
	"archive/tar"
	"bufio"
	"bytes"
	"compress/bzip2"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/bodgit/sevenzip"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zip"
	"github.com/ulikunitz/xz"
	"github.com/ulikunitz/xz/lzma"
)

// xzMagic is the header of an .xz container. Anything else under an
// .xz/.lzma name is decoded as a legacy .lzma ("alone") stream.
var xzMagic = []byte{0xFD, '7', 'z', 'X', 'Z', 0x00}

// decompress wraps r with the decoder for a single-stream compression format.
func decompress(r io.Reader, format Format) (io.Reader, error) {
	switch format {
	case FormatGzip, FormatTarGzip:
		return gzip.NewReader(r)
	case FormatBzip2, FormatTarBzip2:
		return bzip2.NewReader(r), nil
	case FormatXz, FormatTarXz:
		br := bufio.NewReader(r)
		head, err := br.Peek(len(xzMagic))
		if err == nil && bytes.Equal(head, xzMagic) {
			return xz.NewReader(br)
		}
		if format == FormatTarXz {
			return nil, fmt.Errorf("not an xz stream")
		}
		return lzma.NewReader(br)
	default:
		return r, nil
	}
}

// streamSource reads a plain or single-stream compressed file.
type streamSource struct {
	format   Format
	file     *os.File
	reader   io.Reader
	consumed bool
}

func openStream(path string, format Format) (*streamSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	r, err := decompress(f, format)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("opening %s stream %s: %w", format, path, err)
	}
	return &streamSource{format: format, file: f, reader: r}, nil
}

func (s *streamSource) Format() Format { return s.format }

func (s *streamSource) Each(fn LineFunc) error {
	if s.consumed {
		return ErrConsumed
	}
	s.consumed = true
	if err := readLines(s.reader, fn); err != nil {
		if isCallbackError(err) {
			return unwrapCallback(err)
		}
		return fmt.Errorf("reading %s: %w", s.file.Name(), err)
	}
	return nil
}

func (s *streamSource) Close() error {
	if c, ok := s.reader.(io.Closer); ok && s.reader != io.Reader(s.file) {
		_ = c.Close()
	}
	return s.file.Close()
}

// zipSource reads zip members in archive order.
type zipSource struct {
	path     string
	rc       *zip.ReadCloser
	consumed bool
}

func openZip(path string) (*zipSource, error) {
	rc, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("opening zip %s: %w", path, err)
	}
	return &zipSource{path: path, rc: rc}, nil
}

func (s *zipSource) Format() Format { return FormatZip }

func (s *zipSource) Each(fn LineFunc) error {
	if s.consumed {
		return ErrConsumed
	}
	s.consumed = true
	for _, f := range s.rc.File {
		if strings.HasSuffix(f.Name, "/") || f.FileInfo().IsDir() {
			continue
		}
		if err := s.readMember(f, fn); err != nil {
			if isCallbackError(err) {
				return unwrapCallback(err)
			}
			logger.Debug("skipping zip member", "archive", s.path, "member", f.Name, "error", err)
		}
	}
	return nil
}

func (s *zipSource) readMember(f *zip.File, fn LineFunc) error {
	r, err := f.Open()
	if err != nil {
		return err
	}
	defer r.Close()
	return readLines(r, fn)
}

func (s *zipSource) Close() error {
	return s.rc.Close()
}

// tarSource reads regular tar members in archive order.
type tarSource struct {
	format   Format
	file     *os.File
	reader   io.Reader
	consumed bool
}

func openTar(path string, format Format) (*tarSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	r, err := decompress(f, format)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("opening %s stream %s: %w", format, path, err)
	}
	return &tarSource{format: format, file: f, reader: r}, nil
}

func (s *tarSource) Format() Format { return s.format }

func (s *tarSource) Each(fn LineFunc) error {
	if s.consumed {
		return ErrConsumed
	}
	s.consumed = true

	tr := tar.NewReader(s.reader)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil && !(errors.Is(err, tar.ErrInsecurePath) && hdr != nil) {
			// The tar stream cannot be resynchronized past a broken header.
			return fmt.Errorf("reading tar %s: %w", s.file.Name(), err)
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}
		if err := readLines(tr, fn); err != nil {
			if isCallbackError(err) {
				return unwrapCallback(err)
			}
			logger.Debug("skipping tar member", "archive", s.file.Name(), "member", hdr.Name, "error", err)
		}
	}
}

func (s *tarSource) Close() error {
	if c, ok := s.reader.(io.Closer); ok && s.reader != io.Reader(s.file) {
		_ = c.Close()
	}
	return s.file.Close()
}

// sevenZipSource extracts the archive to a temporary directory on each read
// and walks the extracted tree.
type sevenZipSource struct {
	path     string
	rc       *sevenzip.ReadCloser
	consumed bool

	// tmpRoot is the parent of the scratch directory. Empty means os.TempDir.
	tmpRoot string
}

func openSevenZip(path string) (*sevenZipSource, error) {
	rc, err := sevenzip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("opening 7z %s: %w", path, err)
	}
	return &sevenZipSource{path: path, rc: rc}, nil
}

func (s *sevenZipSource) Format() Format { return FormatSevenZip }

func (s *sevenZipSource) Each(fn LineFunc) error {
	if s.consumed {
		return ErrConsumed
	}
	s.consumed = true

	tmpDir, err := os.MkdirTemp(s.tmpRoot, "bm7z_")
	if err != nil {
		return fmt.Errorf("creating 7z scratch directory: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	s.extract(tmpDir)

	err = filepath.WalkDir(tmpDir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil || !d.Type().IsRegular() {
			return nil //nolint:nilerr // unreadable entries are skipped
		}
		if err := readFile(path, fn); err != nil {
			if isCallbackError(err) {
				return err
			}
			logger.Debug("skipping extracted 7z file", "archive", s.path, "file", path, "error", err)
		}
		return nil
	})
	return unwrapCallback(err)
}

// extract writes every regular member below dir. Members that fail to
// extract or whose names escape dir are skipped.
func (s *sevenZipSource) extract(dir string) {
	for _, f := range s.rc.File {
		if f.FileInfo().IsDir() {
			continue
		}
		target := filepath.Join(dir, filepath.FromSlash(f.Name))
		if !strings.HasPrefix(target, dir+string(os.PathSeparator)) {
			logger.Warn("skipping 7z member outside archive root", "archive", s.path, "member", f.Name)
			continue
		}
		if err := extractMember(f, target); err != nil {
			logger.Debug("skipping 7z member", "archive", s.path, "member", f.Name, "error", err)
		}
	}
}

func extractMember(f *sevenzip.File, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	r, err := f.Open()
	if err != nil {
		return err
	}
	defer r.Close()

	out, err := os.Create(target)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func (s *sevenZipSource) Close() error {
	return s.rc.Close()
}

// Ensure every source implements LineSource.
var (
	_ LineSource = (*streamSource)(nil)
	_ LineSource = (*zipSource)(nil)
	_ LineSource = (*tarSource)(nil)
	_ LineSource = (*sevenZipSource)(nil)
)

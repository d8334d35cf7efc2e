package archive

import (
	"path/filepath"
	"strings"
)

// Format identifies the container or compression of an input file.
type Format int

// Supported formats.
const (
	FormatPlain Format = iota
	FormatGzip
	FormatBzip2
	FormatXz
	FormatZip
	FormatSevenZip
	FormatTar
	FormatTarGzip
	FormatTarBzip2
	FormatTarXz
)

// String returns a short name for the format.
func (f Format) String() string {
	switch f {
	case FormatGzip:
		return "gzip"
	case FormatBzip2:
		return "bzip2"
	case FormatXz:
		return "xz"
	case FormatZip:
		return "zip"
	case FormatSevenZip:
		return "7z"
	case FormatTar:
		return "tar"
	case FormatTarGzip:
		return "tar.gz"
	case FormatTarBzip2:
		return "tar.bz2"
	case FormatTarXz:
		return "tar.xz"
	default:
		return "plain"
	}
}

// IsTar reports whether the format is a tar stream, compressed or not.
func (f Format) IsTar() bool {
	switch f {
	case FormatTar, FormatTarGzip, FormatTarBzip2, FormatTarXz:
		return true
	}
	return false
}

// suffixFormats is ordered so that longer, more specific suffixes are
// checked before the bare compression suffix they end with.
var suffixFormats = []struct {
	suffix string
	format Format
}{
	{".tar.gz", FormatTarGzip},
	{".tar.bz2", FormatTarBzip2},
	{".tar.xz", FormatTarXz},
	{".tgz", FormatTarGzip},
	{".tar", FormatTar},
	{".gz", FormatGzip},
	{".bz2", FormatBzip2},
	{".xz", FormatXz},
	{".lzma", FormatXz},
	{".zip", FormatZip},
	{".7z", FormatSevenZip},
	{".txt", FormatPlain},
	{".csv", FormatPlain},
	{".log", FormatPlain},
}

// Detect picks the format for a file name by its suffix, case-insensitively.
// Unrecognized names are treated as plain text.
func Detect(name string) Format {
	lower := strings.ToLower(filepath.Base(name))
	for _, sf := range suffixFormats {
		if strings.HasSuffix(lower, sf.suffix) {
			return sf.format
		}
	}
	return FormatPlain
}

// Supported reports whether name ends with one of the supported input suffixes.
func Supported(name string) bool {
	lower := strings.ToLower(filepath.Base(name))
	for _, sf := range suffixFormats {
		if strings.HasSuffix(lower, sf.suffix) {
			return true
		}
	}
	return false
}

// Suffixes returns the supported input suffixes.
func Suffixes() []string {
	out := make([]string, len(suffixFormats))
	for i, sf := range suffixFormats {
		out[i] = sf.suffix
	}
	return out
}

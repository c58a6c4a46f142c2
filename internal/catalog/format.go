package catalog

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrUnsupportedFormat is returned for an import or export format the
// catalog does not handle.
var ErrUnsupportedFormat = errors.New("unsupported format")

// Format names an import or export encoding.
type Format string

const (
	FormatCSV   Format = "csv"
	FormatText  Format = "text"
	FormatJSONL Format = "jsonl"
)

// ParseFormat accepts a format name, case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatCSV, FormatText, FormatJSONL:
		return f, nil
	case "txt":
		return FormatText, nil
	case "ndjson":
		return FormatJSONL, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
}

// FormatFromName infers the format from a file extension.
func FormatFromName(name string) (Format, error) {
	ext := strings.TrimPrefix(filepath.Ext(name), ".")
	if ext == "" {
		return "", fmt.Errorf("%w: %q has no extension", ErrUnsupportedFormat, name)
	}
	return ParseFormat(ext)
}

// ImportMode selects whether an import adds to the catalog or replaces it.
type ImportMode int

const (
	ModeAppend ImportMode = iota
	ModeReplace
)

func (m ImportMode) String() string {
	if m == ModeReplace {
		return "replace"
	}
	return "append"
}

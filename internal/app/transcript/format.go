// Package transcript renders transcription results into the supported
// output formats and reads them back.
package transcript

import (
	"strings"

	"green-needle/internal/app/errors"
)

// Format names a transcript output format.
type Format string

const (
	FormatTxt  Format = "txt"
	FormatJSON Format = "json"
	FormatSRT  Format = "srt"
	FormatVTT  Format = "vtt"
	FormatTSV  Format = "tsv"

	// FormatAll expands to every concrete format.
	FormatAll Format = "all"
)

// Formats lists the concrete formats in their canonical output order.
func Formats() []Format {
	return []Format{FormatTxt, FormatJSON, FormatSRT, FormatVTT, FormatTSV}
}

// ParseFormat normalizes a user-supplied format name.
func ParseFormat(s string) (Format, error) {
	normalized := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), "."))
	switch f := Format(normalized); f {
	case FormatTxt, FormatJSON, FormatSRT, FormatVTT, FormatTSV, FormatAll:
		return f, nil
	}
	return "", errors.Wrapf(errors.ErrUnknownFormat, "transcript: %q", s)
}

// Extension returns the file extension including the dot.
func (f Format) Extension() string {
	return "." + string(f)
}

func (f Format) String() string {
	return string(f)
}

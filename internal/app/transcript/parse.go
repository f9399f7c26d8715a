package transcript

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"green-needle/internal/app/errors"
	"green-needle/internal/app/model"
)

// Parse reads a transcript in the given format back into a result. Text is
// rebuilt from the segments for the timed formats.
func Parse(r io.Reader, format Format) (*model.TranscriptionResult, error) {
	switch format {
	case FormatTxt:
		return parseTxt(r)
	case FormatJSON:
		return parseJSON(r)
	case FormatSRT:
		return parseSRT(r)
	case FormatVTT:
		return parseVTT(r)
	case FormatTSV:
		return parseTSV(r)
	}
	return nil, errors.Wrapf(errors.ErrUnknownFormat, "transcript: %q", format)
}

// Load opens path and parses it according to its extension.
func Load(path string) (*model.TranscriptionResult, error) {
	format, err := ParseFormat(filepath.Ext(path))
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Newf(errors.KindInput, "transcript: open %s: %v", path, err)
	}
	defer f.Close()
	return Parse(f, format)
}

func parseTxt(r io.Reader) (*model.TranscriptionResult, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	result := &model.TranscriptionResult{Text: strings.TrimSpace(string(raw))}
	result.Refresh()
	return result, nil
}

func parseJSON(r io.Reader) (*model.TranscriptionResult, error) {
	var result model.TranscriptionResult
	if err := json.NewDecoder(r).Decode(&result); err != nil {
		return nil, errors.Newf(errors.KindInput, "transcript: decode json: %v", err)
	}
	return &result, nil
}

func parseSRT(r io.Reader) (*model.TranscriptionResult, error) {
	segments, err := parseCues(r)
	if err != nil {
		return nil, err
	}
	return resultFromSegments(segments), nil
}

func parseVTT(r io.Reader) (*model.TranscriptionResult, error) {
	reader := bufio.NewReader(r)
	header, err := reader.ReadString('\n')
	if err != nil && err != io.EOF {
		return nil, err
	}
	if !strings.HasPrefix(strings.TrimSpace(header), "WEBVTT") {
		return nil, errors.New(errors.KindInput, "transcript: missing WEBVTT header")
	}
	segments, err := parseCues(reader)
	if err != nil {
		return nil, err
	}
	return resultFromSegments(segments), nil
}

// parseCues reads SRT/VTT cue blocks: an optional identifier line, a
// timestamp line, then text lines until a blank line.
func parseCues(r io.Reader) ([]model.Segment, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var segments []model.Segment
	var current *model.Segment
	var textLines []string

	flush := func() {
		if current == nil {
			return
		}
		current.Text = strings.Join(textLines, "\n")
		segments = append(segments, *current)
		current = nil
		textLines = nil
	}

	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		trimmed := strings.TrimSpace(line)

		switch {
		case trimmed == "":
			flush()
		case strings.Contains(trimmed, "-->"):
			flush()
			start, end, err := parseCueTiming(trimmed)
			if err != nil {
				return nil, err
			}
			current = &model.Segment{ID: len(segments) + 1, Start: start, End: end}
		case current != nil:
			textLines = append(textLines, trimmed)
		default:
			// Cue identifier or VTT metadata line, skipped.
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	flush()
	return segments, nil
}

func parseCueTiming(line string) (float64, float64, error) {
	parts := strings.SplitN(line, "-->", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("transcript: malformed cue timing %q", line)
	}
	start, err := ParseTimestamp(parts[0])
	if err != nil {
		return 0, 0, err
	}
	// VTT cue settings may trail the end timestamp.
	endField := strings.Fields(strings.TrimSpace(parts[1]))
	if len(endField) == 0 {
		return 0, 0, fmt.Errorf("transcript: malformed cue timing %q", line)
	}
	end, err := ParseTimestamp(endField[0])
	if err != nil {
		return 0, 0, err
	}
	return start, end, nil
}

func parseTSV(r io.Reader) (*model.TranscriptionResult, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var segments []model.Segment
	first := true
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		if first {
			first = false
			if strings.HasPrefix(line, "start\t") {
				continue
			}
		}
		fields := strings.SplitN(line, "\t", 3)
		if len(fields) != 3 {
			return nil, errors.Newf(errors.KindInput, "transcript: malformed tsv row %q", line)
		}
		start, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return nil, errors.Newf(errors.KindInput, "transcript: malformed tsv start %q", fields[0])
		}
		end, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return nil, errors.Newf(errors.KindInput, "transcript: malformed tsv end %q", fields[1])
		}
		segments = append(segments, model.Segment{
			ID:    len(segments) + 1,
			Start: start,
			End:   end,
			Text:  fields[2],
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return resultFromSegments(segments), nil
}

func resultFromSegments(segments []model.Segment) *model.TranscriptionResult {
	texts := make([]string, 0, len(segments))
	for _, seg := range segments {
		texts = append(texts, strings.TrimSpace(seg.Text))
	}
	result := &model.TranscriptionResult{
		Text:     strings.Join(texts, " "),
		Segments: segments,
	}
	if len(segments) > 0 {
		result.Duration = segments[len(segments)-1].End
	}
	result.Refresh()
	return result
}

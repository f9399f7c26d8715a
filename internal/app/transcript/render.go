package transcript

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"green-needle/internal/app/errors"
	"green-needle/internal/app/model"
	"green-needle/internal/app/util/files"
)

// Render writes the result to w in the given format. FormatAll is a save
// time concept and is rejected here.
func Render(w io.Writer, result *model.TranscriptionResult, format Format) error {
	switch format {
	case FormatTxt:
		return renderTxt(w, result)
	case FormatJSON:
		return renderJSON(w, result)
	case FormatSRT:
		return renderSRT(w, result)
	case FormatVTT:
		return renderVTT(w, result)
	case FormatTSV:
		return renderTSV(w, result)
	}
	return errors.Wrapf(errors.ErrUnknownFormat, "transcript: %q", format)
}

func renderTxt(w io.Writer, result *model.TranscriptionResult) error {
	text := strings.TrimSpace(result.Text)
	_, err := fmt.Fprintln(w, text)
	return err
}

func renderJSON(w io.Writer, result *model.TranscriptionResult) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

func renderSRT(w io.Writer, result *model.TranscriptionResult) error {
	for i, segment := range result.Segments {
		_, err := fmt.Fprintf(w, "%d\n%s --> %s\n%s\n\n",
			i+1,
			FormatSRTTimestamp(segment.Start),
			FormatSRTTimestamp(segment.End),
			strings.TrimSpace(segment.Text))
		if err != nil {
			return err
		}
	}
	return nil
}

func renderVTT(w io.Writer, result *model.TranscriptionResult) error {
	if _, err := fmt.Fprint(w, "WEBVTT\n\n"); err != nil {
		return err
	}
	for _, segment := range result.Segments {
		_, err := fmt.Fprintf(w, "%s --> %s\n%s\n\n",
			FormatVTTTimestamp(segment.Start),
			FormatVTTTimestamp(segment.End),
			strings.TrimSpace(segment.Text))
		if err != nil {
			return err
		}
	}
	return nil
}

func renderTSV(w io.Writer, result *model.TranscriptionResult) error {
	if _, err := fmt.Fprintln(w, "start\tend\ttext"); err != nil {
		return err
	}
	for _, segment := range result.Segments {
		_, err := fmt.Fprintf(w, "%.3f\t%.3f\t%s\n",
			segment.Start, segment.End, flattenTSVText(segment.Text))
		if err != nil {
			return err
		}
	}
	return nil
}

// flattenTSVText keeps rows one line and three columns wide.
func flattenTSVText(text string) string {
	replacer := strings.NewReplacer("\t", " ", "\n", " ", "\r", " ")
	return strings.TrimSpace(replacer.Replace(text))
}

// TargetPaths returns the files Save would write, without writing them.
func TargetPaths(audioPath, outputDir string, format Format) []string {
	expanded := []Format{format}
	if format == FormatAll {
		expanded = Formats()
	}
	paths := make([]string, 0, len(expanded))
	for _, f := range expanded {
		paths = append(paths, files.OutputPath(outputDir, audioPath, string(f)))
	}
	return paths
}

// Save writes the result into outputDir, one file per format. FormatAll
// expands to every concrete format. It returns the written paths.
func Save(result *model.TranscriptionResult, outputDir string, format Format) ([]string, error) {
	expanded := []Format{format}
	if format == FormatAll {
		expanded = Formats()
	}
	if err := files.EnsureDir(outputDir); err != nil {
		return nil, err
	}

	paths := make([]string, 0, len(expanded))
	for _, f := range expanded {
		path := files.OutputPath(outputDir, result.AudioPath, string(f))
		if err := writeFile(path, result, f); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func writeFile(path string, result *model.TranscriptionResult, format Format) error {
	out, err := os.Create(path)
	if err != nil {
		return errors.Newf(errors.KindResource, "transcript: create %s: %v", path, err)
	}
	if err := Render(out, result, format); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

package batch

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/samber/lo"

	"green-needle/internal/app/errors"
	"green-needle/internal/app/model"
	"green-needle/internal/app/util/files"
)

// Summary condenses a batch report for display.
type Summary struct {
	RunID     string `json:"run_id"`
	Total     int    `json:"total"`
	Succeeded int    `json:"succeeded"`
	Failed    int    `json:"failed"`
	Skipped   int    `json:"skipped"`

	// AudioSeconds is the audio length transcribed across successful files.
	AudioSeconds float64 `json:"audio_seconds"`
	WallSeconds  float64 `json:"wall_seconds"`
	// Speed is audio seconds transcribed per wall-clock second.
	Speed float64 `json:"speed,omitempty"`

	Languages   map[string]int `json:"languages,omitempty"`
	FailedFiles []string       `json:"failed_files,omitempty"`
}

// Summarize aggregates a finished report.
func Summarize(report *model.BatchReport) Summary {
	counts := lo.CountValuesBy(report.Results, func(r model.FileResult) model.FileStatus {
		return r.Status
	})
	succeeded := lo.Filter(report.Results, func(r model.FileResult, _ int) bool {
		return r.Status == model.StatusSuccess
	})

	summary := Summary{
		RunID:     report.RunID,
		Total:     len(report.Results),
		Succeeded: counts[model.StatusSuccess],
		Failed:    counts[model.StatusFailed],
		Skipped:   counts[model.StatusSkipped],
		AudioSeconds: lo.SumBy(succeeded, func(r model.FileResult) float64 {
			return r.Duration
		}),
		WallSeconds: report.WallSeconds(),
		FailedFiles: lo.FilterMap(report.Results, func(r model.FileResult, _ int) (string, bool) {
			return r.File, r.Status == model.StatusFailed
		}),
	}
	if summary.WallSeconds > 0 {
		summary.Speed = summary.AudioSeconds / summary.WallSeconds
	}

	withLanguage := lo.Filter(succeeded, func(r model.FileResult, _ int) bool {
		return r.Language != ""
	})
	if len(withLanguage) > 0 {
		summary.Languages = lo.CountValuesBy(withLanguage, func(r model.FileResult) string {
			return r.Language
		})
	}
	return summary
}

// String renders the block the CLI prints after a batch run.
func (s Summary) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Run %s\n", s.RunID)
	fmt.Fprintf(&b, "  processed: %d  succeeded: %d  failed: %d  skipped: %d\n",
		s.Total, s.Succeeded, s.Failed, s.Skipped)
	fmt.Fprintf(&b, "  audio: %.1fs  wall: %.1fs", s.AudioSeconds, s.WallSeconds)
	if s.Speed > 0 {
		fmt.Fprintf(&b, "  speed: %.2fx", s.Speed)
	}
	b.WriteString("\n")

	if len(s.Languages) > 0 {
		langs := lo.Keys(s.Languages)
		sort.Strings(langs)
		parts := lo.Map(langs, func(lang string, _ int) string {
			return fmt.Sprintf("%s=%d", lang, s.Languages[lang])
		})
		fmt.Fprintf(&b, "  languages: %s\n", strings.Join(parts, " "))
	}
	for _, file := range s.FailedFiles {
		fmt.Fprintf(&b, "  failed: %s\n", file)
	}
	return b.String()
}

// ReportFileName is written into the output directory after each run.
const ReportFileName = "batch_report.json"

type reportFile struct {
	Summary Summary            `json:"summary"`
	Results []model.FileResult `json:"results"`
}

// WriteReport stores the report with its summary as JSON in outputDir and
// returns the path.
func WriteReport(report *model.BatchReport, outputDir string) (string, error) {
	if err := files.EnsureDir(outputDir); err != nil {
		return "", err
	}
	path := filepath.Join(outputDir, ReportFileName)

	payload := reportFile{Summary: Summarize(report), Results: report.Results}
	raw, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, append(raw, '\n'), 0o644); err != nil {
		return "", errors.Newf(errors.KindResource, "batch: write report: %v", err)
	}
	return path, nil
}

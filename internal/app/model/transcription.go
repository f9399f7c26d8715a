package model

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Segment is a timed span of recognized text. Segments in a result are
// ordered by start time and do not overlap.
type Segment struct {
	ID    int     `json:"id"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
	Words []Word  `json:"words,omitempty"`
}

// Word carries word-level timing when the provider supports it.
type Word struct {
	Word        string  `json:"word"`
	Start       float64 `json:"start"`
	End         float64 `json:"end"`
	Probability float64 `json:"probability,omitempty"`
}

// TranscriptionResult is the final output for one audio input. It is built
// once by the transcription path and not mutated afterwards.
type TranscriptionResult struct {
	AudioPath           string    `json:"audio_path"`
	Text                string    `json:"text"`
	Segments            []Segment `json:"segments,omitempty"`
	Language            string    `json:"language,omitempty"`
	LanguageProbability float64   `json:"language_probability,omitempty"`
	Duration            float64   `json:"duration,omitempty"`
	Model               string    `json:"model,omitempty"`
	Task                string    `json:"task,omitempty"`
	CreatedAt           time.Time `json:"created_at"`
	WordCount           int       `json:"word_count"`
	CharCount           int       `json:"char_count"`
}

// NewTranscriptionResult fills in the derived fields and stamps the creation
// time.
func NewTranscriptionResult(audioPath, text string, segments []Segment) *TranscriptionResult {
	r := &TranscriptionResult{
		AudioPath: audioPath,
		Text:      text,
		Segments:  segments,
		CreatedAt: time.Now(),
	}
	r.Refresh()
	return r
}

// Refresh recomputes word and character counts from the current text.
func (r *TranscriptionResult) Refresh() {
	r.WordCount = len(strings.Fields(r.Text))
	r.CharCount = len([]rune(r.Text))
}

// Summary returns the short human-readable block printed after a
// transcription finishes.
func (r *TranscriptionResult) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Duration: %s\n", formatClock(r.Duration))
	fmt.Fprintf(&b, "Words: %d\n", r.WordCount)
	if r.Language != "" {
		fmt.Fprintf(&b, "Language: %s\n", r.Language)
	}
	if r.Model != "" {
		fmt.Fprintf(&b, "Model: %s\n", r.Model)
	}
	return b.String()
}

func formatClock(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	total := int(seconds)
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

// ValidateSegments checks the ordering invariant: non-negative times,
// end >= start, sorted by start, and no overlap between neighbours.
func ValidateSegments(segments []Segment) error {
	for i, seg := range segments {
		if seg.Start < 0 || seg.End < 0 {
			return fmt.Errorf("segment %d has negative time (start=%f end=%f)", i, seg.Start, seg.End)
		}
		if seg.End < seg.Start {
			return fmt.Errorf("segment %d ends before it starts (start=%f end=%f)", i, seg.Start, seg.End)
		}
		if i > 0 && seg.Start < segments[i-1].End {
			return fmt.Errorf("segment %d overlaps its predecessor (start=%f prev end=%f)", i, seg.Start, segments[i-1].End)
		}
	}
	return nil
}

// NormalizeSegments sorts segments by start time, renumbers them and clamps
// each start to its predecessor's end. Whisper occasionally emits spans that
// back up a few milliseconds; callers normalize before publishing a result.
func NormalizeSegments(segments []Segment) []Segment {
	out := make([]Segment, len(segments))
	copy(out, segments)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	for i := range out {
		if out[i].Start < 0 {
			out[i].Start = 0
		}
		if i > 0 && out[i].Start < out[i-1].End {
			out[i].Start = out[i-1].End
		}
		if out[i].End < out[i].Start {
			out[i].End = out[i].Start
		}
		out[i].ID = i
	}
	return out
}

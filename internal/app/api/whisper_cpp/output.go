package whisper_cpp

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"green-needle/internal/app/api/provider"
	"green-needle/internal/app/errors"
	"green-needle/internal/app/model"
)

// Wire structs for the JSON the binary writes with -oj and -ojf. Offsets are
// milliseconds from the start of the audio; tokens appear only with -ojf.
type outputFile struct {
	Result struct {
		Language string `json:"language"`
	} `json:"result"`
	Transcription []outputSegment `json:"transcription"`
}

type outputSegment struct {
	Offsets outputOffsets `json:"offsets"`
	Text    string        `json:"text"`
	Tokens  []outputToken `json:"tokens,omitempty"`
}

type outputOffsets struct {
	From int64 `json:"from"`
	To   int64 `json:"to"`
}

type outputToken struct {
	Text    string        `json:"text"`
	Offsets outputOffsets `json:"offsets"`
	P       float64       `json:"p"`
}

// parseOutput converts the binary's JSON output into a response. Special
// tokens like [_BEG_] are dropped from the word list.
func parseOutput(raw []byte) (*provider.TranscriptionResponse, error) {
	var out outputFile
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, errors.Wrapf(errors.ErrTranscription, "whisper_cpp: malformed output: %v", err)
	}

	response := &provider.TranscriptionResponse{Language: out.Result.Language}

	var text strings.Builder
	for _, seg := range out.Transcription {
		segText := strings.TrimSpace(seg.Text)
		if segText == "" {
			continue
		}
		if text.Len() > 0 {
			text.WriteByte(' ')
		}
		text.WriteString(segText)

		segment := model.Segment{
			ID:    len(response.Segments),
			Start: float64(seg.Offsets.From) / 1000,
			End:   float64(seg.Offsets.To) / 1000,
			Text:  segText,
		}
		for _, token := range seg.Tokens {
			word := strings.TrimSpace(token.Text)
			if word == "" || strings.HasPrefix(word, "[_") {
				continue
			}
			w := model.Word{
				Word:        word,
				Start:       float64(token.Offsets.From) / 1000,
				End:         float64(token.Offsets.To) / 1000,
				Probability: token.P,
			}
			segment.Words = append(segment.Words, w)
			response.Words = append(response.Words, w)
		}
		response.Segments = append(response.Segments, segment)
	}

	response.Text = text.String()
	if n := len(response.Segments); n > 0 {
		response.Duration = response.Segments[n-1].End
	}
	return response, nil
}

// progressLine matches the "progress = NN%" lines the binary prints on
// stderr when --print-progress is set.
var progressLine = regexp.MustCompile(`progress\s*=\s*(\d+)%`)

// parseProgressLine extracts the percentage from a stderr line.
func parseProgressLine(line string) (float64, bool) {
	m := progressLine.FindStringSubmatch(line)
	if m == nil {
		return 0, false
	}
	percent, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	return percent, true
}

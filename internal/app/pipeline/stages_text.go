package pipeline

import (
	"context"
	"os"
	"strings"

	"green-needle/internal/app/api/provider"
	"green-needle/internal/app/audio"
	"green-needle/internal/app/errors"
	"green-needle/internal/app/model"
	"green-needle/internal/app/transcript"
	"green-needle/internal/app/util/files"
)

// Transcribe feeds the working audio to a transcription provider and turns
// the response into a result attached to the payload.
type Transcribe struct {
	Provider       provider.TranscriptionProvider
	Language       string
	Model          string
	Task           string
	Temperature    float32
	InitialPrompt  string
	WordTimestamps bool
	Progress       provider.ProgressFunc

	// ChunkSeconds splits inputs longer than this many seconds and runs
	// the pieces through the provider one at a time. Zero disables
	// splitting.
	ChunkSeconds float64
}

func (Transcribe) Name() string { return "transcribe" }
func (Transcribe) Input() Kind  { return KindAudio }
func (Transcribe) Output() Kind { return KindResult }

func (s Transcribe) Run(ctx context.Context, payload Payload) (Payload, error) {
	if s.Provider == nil {
		return payload, errors.New(errors.KindConfig, "transcribe: no provider configured")
	}
	task := s.Task
	if task == "" {
		task = "transcribe"
	}

	chunks, err := s.splitInput(ctx, payload.AudioPath)
	if err != nil {
		return payload, err
	}
	if len(chunks) > 1 {
		result, err := s.transcribeChunks(ctx, payload.Source, task, chunks)
		if err != nil {
			return payload, err
		}
		payload.Result = result
		return payload, nil
	}

	request := &provider.TranscriptionRequest{
		InputFilePath:  payload.AudioPath,
		Language:       s.Language,
		Model:          s.Model,
		Task:           task,
		Temperature:    s.Temperature,
		Prompt:         s.InitialPrompt,
		WordTimestamps: s.WordTimestamps,
		Progress:       provider.MonotonicProgress(s.Progress),
	}
	response, err := s.Provider.Transcribe(ctx, request)
	if err != nil {
		return payload, err
	}

	result := response.ToResult(payload.Source, task)
	payload.Result = result
	return payload, nil
}

// splitInput cuts audio longer than ChunkSeconds into pieces. Short inputs,
// and inputs whose duration cannot be probed, come back as the single
// original path; the provider surfaces any real input problem.
func (s Transcribe) splitInput(ctx context.Context, audioPath string) ([]string, error) {
	if s.ChunkSeconds <= 0 {
		return []string{audioPath}, nil
	}
	info, err := audio.Probe(ctx, audioPath)
	if err != nil || info.Duration <= s.ChunkSeconds {
		return []string{audioPath}, nil
	}
	if err := files.EnsureDir(audio.ScratchDir()); err != nil {
		return nil, err
	}
	return audio.SplitIntoChunks(ctx, audioPath, s.ChunkSeconds, audio.ScratchDir())
}

// transcribeChunks runs each piece through the provider and stitches the
// responses back into one result on the original timeline.
func (s Transcribe) transcribeChunks(ctx context.Context, source, task string, chunks []string) (*model.TranscriptionResult, error) {
	progress := provider.MonotonicProgress(s.Progress)
	merged := &provider.TranscriptionResponse{}

	var parts []string
	for i, chunk := range chunks {
		offset := float64(i) * s.ChunkSeconds
		base, count := float64(i), float64(len(chunks))

		request := &provider.TranscriptionRequest{
			InputFilePath:  chunk,
			Language:       s.Language,
			Model:          s.Model,
			Task:           task,
			Temperature:    s.Temperature,
			Prompt:         s.InitialPrompt,
			WordTimestamps: s.WordTimestamps,
		}
		if progress != nil {
			request.Progress = func(percent float64) {
				progress((base + percent/100) / count * 100)
			}
		}
		response, err := s.Provider.Transcribe(ctx, request)
		if err != nil {
			return nil, errors.Wrapf(err, "chunk %d of %d", i+1, len(chunks))
		}

		span := response.Duration
		if span == 0 && len(response.Segments) > 0 {
			span = response.Segments[len(response.Segments)-1].End
		}
		merged.Duration = offset + span

		if text := strings.TrimSpace(response.Text); text != "" {
			parts = append(parts, text)
		}
		for _, segment := range response.Segments {
			segment.Start += offset
			segment.End += offset
			for w := range segment.Words {
				segment.Words[w].Start += offset
				segment.Words[w].End += offset
			}
			merged.Segments = append(merged.Segments, segment)
		}
		if merged.Language == "" {
			merged.Language = response.Language
			merged.LanguageProbability = response.LanguageProbability
		}
		if merged.ModelUsed == "" {
			merged.ModelUsed = response.ModelUsed
		}
		merged.ProcessingTime += response.ProcessingTime
	}

	merged.Text = strings.Join(parts, " ")
	return merged.ToResult(source, task), nil
}

// TextPostProcess cleans the recognized text: filler words go, whitespace
// is normalized. Segment texts are cleaned the same way so exports agree
// with the full text.
type TextPostProcess struct {
	// Fillers overrides DefaultFillers when non-nil.
	Fillers []string
}

func (TextPostProcess) Name() string { return "text_post_process" }
func (TextPostProcess) Input() Kind  { return KindResult }
func (TextPostProcess) Output() Kind { return KindResult }

func (s TextPostProcess) Run(_ context.Context, payload Payload) (Payload, error) {
	if payload.Result == nil {
		return payload, errors.New(errors.KindInput, "text post process: no result on payload")
	}
	fillers := s.Fillers
	if fillers == nil {
		fillers = DefaultFillers
	}

	payload.Result.Text = RemoveFillers(payload.Result.Text, fillers)
	for i := range payload.Result.Segments {
		payload.Result.Segments[i].Text = RemoveFillers(payload.Result.Segments[i].Text, fillers)
	}
	payload.Result.Refresh()
	return payload, nil
}

// Summarize attaches a short extract of the transcript to the payload.
type Summarize struct{}

func (Summarize) Name() string { return "summarize" }
func (Summarize) Input() Kind  { return KindResult }
func (Summarize) Output() Kind { return KindResult }

func (Summarize) Run(_ context.Context, payload Payload) (Payload, error) {
	if payload.Result == nil {
		return payload, errors.New(errors.KindInput, "summarize: no result on payload")
	}
	payload.Summary = SummarizeText(payload.Result.Text)
	return payload, nil
}

// SaveToFile writes the result in the configured format (or all of them)
// and records the written paths on the payload.
type SaveToFile struct {
	OutputDir string
	Format    transcript.Format
}

func (SaveToFile) Name() string { return "save_to_file" }
func (SaveToFile) Input() Kind  { return KindResult }
func (SaveToFile) Output() Kind { return KindResult }

func (s SaveToFile) Run(_ context.Context, payload Payload) (Payload, error) {
	if payload.Result == nil {
		return payload, errors.New(errors.KindInput, "save to file: no result on payload")
	}
	format := s.Format
	if format == "" {
		format = transcript.FormatTxt
	}

	paths, err := transcript.Save(payload.Result, s.OutputDir, format)
	if err != nil {
		return payload, err
	}
	payload.Outputs = append(payload.Outputs, paths...)

	if payload.Summary != "" {
		summaryPath := files.OutputPath(s.OutputDir, payload.Result.AudioPath, "summary.txt")
		if err := os.WriteFile(summaryPath, []byte(payload.Summary+"\n"), 0o644); err != nil {
			return payload, errors.Newf(errors.KindResource, "save summary %s: %v", summaryPath, err)
		}
		payload.Outputs = append(payload.Outputs, summaryPath)
	}
	return payload, nil
}

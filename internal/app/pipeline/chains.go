package pipeline

import (
	"green-needle/internal/app/api/provider"
	"green-needle/internal/app/transcript"
)

// ChainOptions carries everything the prebuilt chains need.
type ChainOptions struct {
	Provider       provider.TranscriptionProvider
	Language       string
	Model          string
	Task           string
	Temperature    float32
	InitialPrompt  string
	WordTimestamps bool
	Progress       provider.ProgressFunc
	ChunkSeconds   float64

	OutputDir string
	Format    transcript.Format

	// Fillers overrides the default filler list; an empty non-nil slice
	// disables filler removal.
	Fillers []string
}

func (o ChainOptions) transcribeStage() Transcribe {
	return Transcribe{
		Provider:       o.Provider,
		Language:       o.Language,
		Model:          o.Model,
		Task:           o.Task,
		Temperature:    o.Temperature,
		InitialPrompt:  o.InitialPrompt,
		WordTimestamps: o.WordTimestamps,
		Progress:       o.Progress,
		ChunkSeconds:   o.ChunkSeconds,
	}
}

// StandardChain is the default processing path: load, transcribe, clean,
// save.
func StandardChain(opts ChainOptions) *Pipeline {
	return New("standard",
		AudioLoader{},
		opts.transcribeStage(),
		TextPostProcess{Fillers: opts.Fillers},
		SaveToFile{OutputDir: opts.OutputDir, Format: opts.Format},
	)
}

// VoiceOnlyChain adds denoising and silence trimming in front of the model,
// for noisy or mostly-quiet recordings.
func VoiceOnlyChain(opts ChainOptions) *Pipeline {
	return New("voice_only",
		AudioLoader{},
		NoiseReduction{},
		VoiceActivity{},
		opts.transcribeStage(),
		TextPostProcess{Fillers: opts.Fillers},
		SaveToFile{OutputDir: opts.OutputDir, Format: opts.Format},
	)
}

// SummarizationChain is the standard path plus a transcript summary written
// alongside the other outputs.
func SummarizationChain(opts ChainOptions) *Pipeline {
	return New("summarization",
		AudioLoader{},
		opts.transcribeStage(),
		TextPostProcess{Fillers: opts.Fillers},
		Summarize{},
		SaveToFile{OutputDir: opts.OutputDir, Format: opts.Format},
	)
}

// ChainByName resolves a chain name from configuration.
func ChainByName(name string, opts ChainOptions) (*Pipeline, bool) {
	switch name {
	case "", "standard":
		return StandardChain(opts), true
	case "voice_only":
		return VoiceOnlyChain(opts), true
	case "summarization":
		return SummarizationChain(opts), true
	}
	return nil, false
}

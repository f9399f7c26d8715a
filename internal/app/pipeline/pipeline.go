// Package pipeline chains processing stages over one audio input. Each
// stage declares the payload kind it consumes and produces, and a pipeline
// refuses to run until the whole chain lines up.
package pipeline

import (
	"context"
	"time"

	"go.uber.org/zap"

	"green-needle/internal/app/errors"
	"green-needle/internal/app/model"
)

// Kind is the payload shape flowing between stages.
type Kind string

const (
	// KindAudio is a path to a working audio file.
	KindAudio Kind = "audio"
	// KindResult is a finished transcription result.
	KindResult Kind = "result"
)

// Payload is the value passed through the chain. Source stays fixed at the
// original input; AudioPath moves to intermediates as audio stages rewrite
// the working file.
type Payload struct {
	Kind      Kind
	Source    string
	AudioPath string
	Result    *model.TranscriptionResult
	Summary   string
	Outputs   []string
}

// NewAudioPayload starts a chain from an input file.
func NewAudioPayload(path string) Payload {
	return Payload{Kind: KindAudio, Source: path, AudioPath: path}
}

// Stage is one processing step.
type Stage interface {
	Name() string
	Input() Kind
	Output() Kind
	Run(ctx context.Context, payload Payload) (Payload, error)
}

// Pipeline is an ordered stage chain.
type Pipeline struct {
	name   string
	stages []Stage
	logger *zap.Logger
}

// New assembles a pipeline. Call Validate (or Run, which validates) before
// trusting the chain.
func New(name string, stages ...Stage) *Pipeline {
	return &Pipeline{name: name, stages: stages, logger: zap.NewNop()}
}

// WithLogger attaches a logger and returns the pipeline.
func (p *Pipeline) WithLogger(logger *zap.Logger) *Pipeline {
	p.logger = logger
	return p
}

// Name returns the pipeline name.
func (p *Pipeline) Name() string { return p.name }

// StageNames lists the chain in order.
func (p *Pipeline) StageNames() []string {
	names := make([]string, 0, len(p.stages))
	for _, stage := range p.stages {
		names = append(names, stage.Name())
	}
	return names
}

// Validate checks the chain before any work starts: it must be non-empty,
// begin with an audio stage, and every stage must consume exactly what its
// predecessor produces.
func (p *Pipeline) Validate() error {
	if len(p.stages) == 0 {
		return errors.Wrapf(errors.ErrStageChain, "pipeline %s: no stages", p.name)
	}
	if first := p.stages[0].Input(); first != KindAudio {
		return errors.Wrapf(errors.ErrStageChain,
			"pipeline %s: first stage %s consumes %s, want %s",
			p.name, p.stages[0].Name(), first, KindAudio)
	}
	for i := 1; i < len(p.stages); i++ {
		prev, next := p.stages[i-1], p.stages[i]
		if prev.Output() != next.Input() {
			return errors.Wrapf(errors.ErrStageChain,
				"pipeline %s: stage %s produces %s but stage %s consumes %s",
				p.name, prev.Name(), prev.Output(), next.Name(), next.Input())
		}
	}
	return nil
}

// Run validates the chain, then feeds the payload through every stage. The
// first stage error aborts the run.
func (p *Pipeline) Run(ctx context.Context, payload Payload) (Payload, error) {
	if err := p.Validate(); err != nil {
		return payload, err
	}
	if payload.Kind != p.stages[0].Input() {
		return payload, errors.Wrapf(errors.ErrStageChain,
			"pipeline %s: payload is %s, first stage consumes %s",
			p.name, payload.Kind, p.stages[0].Input())
	}

	for _, stage := range p.stages {
		if err := ctx.Err(); err != nil {
			return payload, err
		}
		started := time.Now()
		next, err := stage.Run(ctx, payload)
		if err != nil {
			p.logger.Warn("stage failed",
				zap.String("pipeline", p.name),
				zap.String("stage", stage.Name()),
				zap.Error(err))
			return payload, errors.Wrapf(err, "stage %s", stage.Name())
		}
		next.Kind = stage.Output()
		p.logger.Debug("stage done",
			zap.String("pipeline", p.name),
			zap.String("stage", stage.Name()),
			zap.Duration("elapsed", time.Since(started)))
		payload = next
	}
	return payload, nil
}

// passthrough satisfies Stage without touching the payload. Chains use it
// where an optional step is disabled, keeping the chain shape stable.
type passthrough struct {
	name string
	kind Kind
}

// NoOp returns a stage that forwards its payload unchanged.
func NoOp(name string, kind Kind) Stage {
	return passthrough{name: name, kind: kind}
}

func (s passthrough) Name() string { return s.name }
func (s passthrough) Input() Kind  { return s.kind }
func (s passthrough) Output() Kind { return s.kind }

func (s passthrough) Run(_ context.Context, payload Payload) (Payload, error) {
	return payload, nil
}

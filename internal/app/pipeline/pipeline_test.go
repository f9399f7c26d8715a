package pipeline

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"green-needle/internal/app/errors"
)

// recordingStage notes its execution order in a shared trace.
type recordingStage struct {
	name   string
	input  Kind
	output Kind
	err    error
	trace  *[]string
}

func (s recordingStage) Name() string { return s.name }
func (s recordingStage) Input() Kind  { return s.input }
func (s recordingStage) Output() Kind { return s.output }

func (s recordingStage) Run(_ context.Context, payload Payload) (Payload, error) {
	if s.trace != nil {
		*s.trace = append(*s.trace, s.name)
	}
	return payload, s.err
}

func TestPipelineValidate(t *testing.T) {
	tests := []struct {
		name    string
		stages  []Stage
		wantErr string
	}{
		{
			name:    "empty chain",
			stages:  nil,
			wantErr: "no stages",
		},
		{
			name: "valid chain",
			stages: []Stage{
				recordingStage{name: "a", input: KindAudio, output: KindAudio},
				recordingStage{name: "b", input: KindAudio, output: KindResult},
				recordingStage{name: "c", input: KindResult, output: KindResult},
			},
		},
		{
			name: "first stage wants result",
			stages: []Stage{
				recordingStage{name: "a", input: KindResult, output: KindResult},
			},
			wantErr: "consumes result",
		},
		{
			name: "kind mismatch in the middle",
			stages: []Stage{
				recordingStage{name: "a", input: KindAudio, output: KindResult},
				recordingStage{name: "b", input: KindAudio, output: KindResult},
			},
			wantErr: "produces result but stage b consumes audio",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New("test", tt.stages...).Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, errors.ErrStageChain)
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestPipelineRunsStagesInOrder(t *testing.T) {
	var trace []string
	p := New("test",
		recordingStage{name: "load", input: KindAudio, output: KindAudio, trace: &trace},
		recordingStage{name: "transcribe", input: KindAudio, output: KindResult, trace: &trace},
		recordingStage{name: "save", input: KindResult, output: KindResult, trace: &trace},
	)

	out, err := p.Run(context.Background(), NewAudioPayload("in.wav"))
	require.NoError(t, err)
	assert.Equal(t, []string{"load", "transcribe", "save"}, trace)
	assert.Equal(t, KindResult, out.Kind)
	assert.Equal(t, "in.wav", out.Source)
}

func TestPipelineAbortsOnStageError(t *testing.T) {
	var trace []string
	boom := fmt.Errorf("boom")
	p := New("test",
		recordingStage{name: "load", input: KindAudio, output: KindAudio, trace: &trace},
		recordingStage{name: "explode", input: KindAudio, output: KindResult, trace: &trace, err: boom},
		recordingStage{name: "save", input: KindResult, output: KindResult, trace: &trace},
	)

	_, err := p.Run(context.Background(), NewAudioPayload("in.wav"))
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.ErrorContains(t, err, "stage explode")
	assert.Equal(t, []string{"load", "explode"}, trace, "later stages must not run")
}

func TestPipelineRunValidatesFirst(t *testing.T) {
	var trace []string
	p := New("test",
		recordingStage{name: "a", input: KindAudio, output: KindResult, trace: &trace},
		recordingStage{name: "b", input: KindAudio, output: KindResult, trace: &trace},
	)

	_, err := p.Run(context.Background(), NewAudioPayload("in.wav"))
	require.ErrorIs(t, err, errors.ErrStageChain)
	assert.Empty(t, trace, "invalid chains run nothing")
}

func TestPipelineRejectsWrongPayloadKind(t *testing.T) {
	p := New("test", recordingStage{name: "a", input: KindAudio, output: KindResult})

	_, err := p.Run(context.Background(), Payload{Kind: KindResult})
	assert.ErrorIs(t, err, errors.ErrStageChain)
}

func TestPipelineStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var trace []string
	p := New("test", recordingStage{name: "a", input: KindAudio, output: KindAudio, trace: &trace})

	_, err := p.Run(ctx, NewAudioPayload("in.wav"))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, trace)
}

func TestNoOpStage(t *testing.T) {
	stage := NoOp("skip_denoise", KindAudio)
	payload := NewAudioPayload("in.wav")

	out, err := stage.Run(context.Background(), payload)
	require.NoError(t, err)
	assert.Equal(t, payload, out)
	assert.Equal(t, KindAudio, stage.Input())
	assert.Equal(t, KindAudio, stage.Output())
}

func TestStageNames(t *testing.T) {
	p := New("test",
		recordingStage{name: "a", input: KindAudio, output: KindAudio},
		recordingStage{name: "b", input: KindAudio, output: KindResult},
	)
	assert.Equal(t, []string{"a", "b"}, p.StageNames())
}

func TestChainByName(t *testing.T) {
	opts := ChainOptions{OutputDir: "out"}

	for _, name := range []string{"", "standard", "voice_only", "summarization"} {
		p, ok := ChainByName(name, opts)
		require.True(t, ok, name)
		require.NoError(t, p.Validate(), name)
	}

	_, ok := ChainByName("bogus", opts)
	assert.False(t, ok)
}

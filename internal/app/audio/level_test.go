package audio

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRMS(t *testing.T) {
	tests := []struct {
		name    string
		samples []int16
		want    float64
	}{
		{name: "empty", samples: nil, want: 0},
		{name: "silence", samples: []int16{0, 0, 0, 0}, want: 0},
		{name: "constant amplitude", samples: []int16{1000, 1000, 1000}, want: 1000},
		{name: "alternating sign", samples: []int16{2000, -2000, 2000, -2000}, want: 2000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, RMS(pcmFromSamples(tt.samples)), 1e-9)
		})
	}
}

func TestNormalizedRMS(t *testing.T) {
	full := pcmFromSamples([]int16{-32768, -32768})
	assert.InDelta(t, 1.0, NormalizedRMS(full), 1e-9)

	quiet := pcmFromSamples([]int16{160, -160})
	assert.InDelta(t, 160.0/32768.0, NormalizedRMS(quiet), 1e-9)
}

func TestFrameBytes(t *testing.T) {
	// 30 ms at 16 kHz mono is 480 samples.
	assert.Equal(t, 960, FrameBytes(16000, 1, 30*time.Millisecond))
	assert.Equal(t, 1920, FrameBytes(16000, 2, 30*time.Millisecond))
	assert.Equal(t, 32000, FrameBytes(16000, 1, time.Second))
}

func TestSilenceTrackerFiresAfterWindow(t *testing.T) {
	tracker := newSilenceTracker(0.01, 3*time.Second)

	assert.False(t, tracker.observe(0.005, time.Second))
	assert.False(t, tracker.observe(0.005, time.Second))
	assert.True(t, tracker.observe(0.005, time.Second))
}

func TestSilenceTrackerResetsOnLoudFrame(t *testing.T) {
	tracker := newSilenceTracker(0.01, 3*time.Second)

	assert.False(t, tracker.observe(0.001, time.Second))
	assert.False(t, tracker.observe(0.001, time.Second))
	assert.False(t, tracker.observe(0.5, time.Second), "loud frame must reset the window")
	assert.False(t, tracker.observe(0.001, time.Second))
	assert.False(t, tracker.observe(0.001, time.Second))
	assert.True(t, tracker.observe(0.001, time.Second))
}

func TestSilenceTrackerThresholdBoundary(t *testing.T) {
	tracker := newSilenceTracker(0.01, time.Second)

	// A level exactly at the threshold counts as sound.
	assert.False(t, tracker.observe(0.01, time.Second))
	assert.True(t, tracker.observe(0.0099, time.Second))
}

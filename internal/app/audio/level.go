package audio

import (
	"encoding/binary"
	"math"
	"time"
)

// RMS returns the root-mean-square energy of 16-bit signed little-endian
// PCM samples.
func RMS(pcm []byte) float64 {
	n := len(pcm) / 2
	if n == 0 {
		return 0
	}
	var sum float64
	for i := 0; i < n; i++ {
		sample := int16(binary.LittleEndian.Uint16(pcm[i*2 : i*2+2]))
		v := float64(sample)
		sum += v * v
	}
	return math.Sqrt(sum / float64(n))
}

// NormalizedRMS scales RMS into [0,1] so thresholds are independent of the
// sample width.
func NormalizedRMS(pcm []byte) float64 {
	return RMS(pcm) / 32768.0
}

// FrameBytes returns the byte length of a PCM frame of the given duration.
func FrameBytes(sampleRate, channels int, frame time.Duration) int {
	samples := int(int64(sampleRate) * int64(frame) / int64(time.Second))
	return samples * channels * bitsPerSample / 8
}

// silenceTracker accumulates consecutive below-threshold time and fires once
// it spans the configured window. Any loud frame resets it.
type silenceTracker struct {
	threshold float64
	window    time.Duration
	quiet     time.Duration
}

func newSilenceTracker(threshold float64, window time.Duration) *silenceTracker {
	return &silenceTracker{threshold: threshold, window: window}
}

// observe feeds one frame's normalized level and reports whether the silence
// window has been reached.
func (s *silenceTracker) observe(level float64, frame time.Duration) bool {
	if level >= s.threshold {
		s.quiet = 0
		return false
	}
	s.quiet += frame
	return s.quiet >= s.window
}

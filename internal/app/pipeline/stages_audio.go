package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"green-needle/internal/app/audio"
	"green-needle/internal/app/errors"
	"green-needle/internal/app/util/files"
)

// AudioLoader verifies the input and converts it into the 16 kHz mono WAV
// the model expects.
type AudioLoader struct{}

func (AudioLoader) Name() string { return "audio_loader" }
func (AudioLoader) Input() Kind  { return KindAudio }
func (AudioLoader) Output() Kind { return KindAudio }

func (AudioLoader) Run(ctx context.Context, payload Payload) (Payload, error) {
	if _, err := os.Stat(payload.AudioPath); err != nil {
		return payload, errors.Wrapf(errors.ErrFileNotFound, "%s", payload.AudioPath)
	}
	if _, err := audio.Probe(ctx, payload.AudioPath); err != nil {
		return payload, err
	}

	ready, err := audio.IsModelReady(ctx, payload.AudioPath)
	if err != nil {
		return payload, err
	}
	if ready {
		return payload, nil
	}

	converted, err := audio.ConvertToModelWav(ctx, payload.AudioPath)
	if err != nil {
		return payload, err
	}
	payload.AudioPath = converted
	return payload, nil
}

// NoiseReduction runs the FFT denoiser over the working audio.
type NoiseReduction struct{}

func (NoiseReduction) Name() string { return "noise_reduction" }
func (NoiseReduction) Input() Kind  { return KindAudio }
func (NoiseReduction) Output() Kind { return KindAudio }

func (NoiseReduction) Run(ctx context.Context, payload Payload) (Payload, error) {
	denoised, err := audio.Denoise(ctx, payload.AudioPath)
	if err != nil {
		return payload, err
	}
	payload.AudioPath = denoised
	return payload, nil
}

// VoiceActivity trims leading and trailing silence from the working audio
// by scanning frame energy. Inputs with no frame above the threshold fail
// the run rather than sending silence to the model.
type VoiceActivity struct {
	// Threshold is the normalized RMS level treated as speech.
	Threshold float64
	// Pad keeps this much audio on each side of the detected speech.
	Pad time.Duration
}

func (VoiceActivity) Name() string { return "voice_activity" }
func (VoiceActivity) Input() Kind  { return KindAudio }
func (VoiceActivity) Output() Kind { return KindAudio }

func (s VoiceActivity) Run(_ context.Context, payload Payload) (Payload, error) {
	threshold := s.Threshold
	if threshold == 0 {
		threshold = 0.01
	}
	pad := s.Pad
	if pad == 0 {
		pad = 250 * time.Millisecond
	}

	raw, err := os.ReadFile(payload.AudioPath)
	if err != nil {
		return payload, errors.Wrapf(errors.ErrAudioProcess, "voice activity: read %s: %v", payload.AudioPath, err)
	}
	trimmed, changed, err := trimSilence(raw, threshold, pad)
	if err != nil {
		return payload, err
	}
	if !changed {
		return payload, nil
	}

	if err := files.EnsureDir(audio.ScratchDir()); err != nil {
		return payload, err
	}
	base := strings.TrimSuffix(filepath.Base(payload.AudioPath), filepath.Ext(payload.AudioPath))
	outputPath := filepath.Join(audio.ScratchDir(), files.SanitizeFilename(base)+"_speech.wav")
	if err := os.WriteFile(outputPath, trimmed, 0o644); err != nil {
		return payload, errors.Wrapf(errors.ErrAudioProcess, "voice activity: write %s: %v", outputPath, err)
	}
	payload.AudioPath = outputPath
	return payload, nil
}

const vadFrame = 30 * time.Millisecond

// trimSilence cuts everything before the first and after the last frame
// whose level reaches the threshold, keeping pad on both sides. It reports
// whether anything was actually cut.
func trimSilence(wav []byte, threshold float64, pad time.Duration) ([]byte, bool, error) {
	sampleRate, channels, pcm, err := audio.DecodeWAV(wav)
	if err != nil {
		return nil, false, errors.Wrapf(errors.ErrAudioProcess, "voice activity: %v", err)
	}
	frameSize := audio.FrameBytes(sampleRate, channels, vadFrame)
	if frameSize == 0 || len(pcm) == 0 {
		return nil, false, errors.New(errors.KindInput, "voice activity: empty audio")
	}

	frames := len(pcm) / frameSize
	firstSpeech, lastSpeech := -1, -1
	for i := 0; i < frames; i++ {
		level := audio.NormalizedRMS(pcm[i*frameSize : (i+1)*frameSize])
		if level >= threshold {
			if firstSpeech < 0 {
				firstSpeech = i
			}
			lastSpeech = i
		}
	}
	if firstSpeech < 0 {
		return nil, false, errors.New(errors.KindInput, "voice activity: no speech detected")
	}

	padFrames := int(pad / vadFrame)
	startFrame := firstSpeech - padFrames
	if startFrame < 0 {
		startFrame = 0
	}
	endFrame := lastSpeech + 1 + padFrames
	if endFrame > frames {
		endFrame = frames
	}
	if startFrame == 0 && endFrame == frames {
		return wav, false, nil
	}

	kept := pcm[startFrame*frameSize : endFrame*frameSize]
	return audio.EncodeWAV(kept, sampleRate, channels), true, nil
}

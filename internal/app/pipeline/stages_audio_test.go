package pipeline

import (
	"context"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"green-needle/internal/app/audio"
	"green-needle/internal/app/errors"
)

// syntheticWAV builds 16 kHz mono audio from (seconds, amplitude) spans.
func syntheticWAV(t *testing.T, spans ...[2]float64) []byte {
	t.Helper()
	var pcm []byte
	for _, span := range spans {
		samples := int(span[0] * 16000)
		amplitude := int16(span[1] * 32767)
		chunk := make([]byte, samples*2)
		for i := 0; i < samples; i++ {
			binary.LittleEndian.PutUint16(chunk[i*2:], uint16(amplitude))
		}
		pcm = append(pcm, chunk...)
	}
	return audio.EncodeWAV(pcm, 16000, 1)
}

func TestTrimSilenceCutsBothEnds(t *testing.T) {
	// 2 s silence, 1 s speech, 2 s silence.
	wav := syntheticWAV(t, [2]float64{2, 0}, [2]float64{1, 0.5}, [2]float64{2, 0})

	trimmed, changed, err := trimSilence(wav, 0.01, 250*time.Millisecond)
	require.NoError(t, err)
	require.True(t, changed)

	rate, channels, pcm, err := audio.DecodeWAV(trimmed)
	require.NoError(t, err)
	assert.Equal(t, 16000, rate)
	assert.Equal(t, 1, channels)

	// Kept audio is the 1 s of speech plus about 250 ms of pad each side.
	keptSeconds := float64(len(pcm)) / 2 / 16000
	assert.InDelta(t, 1.5, keptSeconds, 0.1)
}

func TestTrimSilenceAllSpeechUnchanged(t *testing.T) {
	wav := syntheticWAV(t, [2]float64{1, 0.5})

	trimmed, changed, err := trimSilence(wav, 0.01, 250*time.Millisecond)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, wav, trimmed)
}

func TestTrimSilenceNoSpeech(t *testing.T) {
	wav := syntheticWAV(t, [2]float64{2, 0})

	_, _, err := trimSilence(wav, 0.01, 250*time.Millisecond)
	require.Error(t, err)
	assert.ErrorContains(t, err, "no speech")
	assert.True(t, errors.IsInput(err))
}

func TestTrimSilenceNotAWav(t *testing.T) {
	_, _, err := trimSilence([]byte("definitely not audio"), 0.01, 0)
	assert.Error(t, err)
}

func TestVoiceActivityStage(t *testing.T) {
	dir := t.TempDir()
	inputPath := filepath.Join(dir, "padded.wav")
	wav := syntheticWAV(t, [2]float64{2, 0}, [2]float64{1, 0.5}, [2]float64{2, 0})
	require.NoError(t, os.WriteFile(inputPath, wav, 0o644))

	payload := NewAudioPayload(inputPath)
	out, err := VoiceActivity{}.Run(context.Background(), payload)
	require.NoError(t, err)
	assert.NotEqual(t, inputPath, out.AudioPath, "trimmed audio goes to a new file")
	assert.FileExists(t, out.AudioPath)
	assert.Equal(t, inputPath, out.Source, "source stays at the original input")
}

func TestVoiceActivityStageSilentInput(t *testing.T) {
	dir := t.TempDir()
	inputPath := filepath.Join(dir, "silent.wav")
	require.NoError(t, os.WriteFile(inputPath, syntheticWAV(t, [2]float64{1, 0}), 0o644))

	_, err := VoiceActivity{}.Run(context.Background(), NewAudioPayload(inputPath))
	require.Error(t, err)
	assert.True(t, errors.IsInput(err))
}

func TestVoiceActivityStageMissingFile(t *testing.T) {
	_, err := VoiceActivity{}.Run(context.Background(), NewAudioPayload("/no/such/file.wav"))
	assert.Error(t, err)
}

func TestAudioLoaderMissingFile(t *testing.T) {
	_, err := AudioLoader{}.Run(context.Background(), NewAudioPayload(filepath.Join(t.TempDir(), "gone.mp3")))
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrFileNotFound)
}

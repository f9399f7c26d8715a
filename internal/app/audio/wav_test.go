package audio

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pcmFromSamples(samples []int16) []byte {
	pcm := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(pcm[i*2:], uint16(s))
	}
	return pcm
}

func TestEncodeWAVHeaderLayout(t *testing.T) {
	pcm := pcmFromSamples([]int16{0, 100, -100, 32767})
	wav := EncodeWAV(pcm, 16000, 1)

	require.Len(t, wav, 44+len(pcm))

	assert.Equal(t, "RIFF", string(wav[0:4]))
	assert.Equal(t, uint32(36+len(pcm)), binary.LittleEndian.Uint32(wav[4:8]))
	assert.Equal(t, "WAVE", string(wav[8:12]))
	assert.Equal(t, "fmt ", string(wav[12:16]))
	assert.Equal(t, uint32(16), binary.LittleEndian.Uint32(wav[16:20]))
	assert.Equal(t, uint16(1), binary.LittleEndian.Uint16(wav[20:22]), "PCM format tag")
	assert.Equal(t, uint16(1), binary.LittleEndian.Uint16(wav[22:24]), "channels")
	assert.Equal(t, uint32(16000), binary.LittleEndian.Uint32(wav[24:28]))
	assert.Equal(t, uint32(32000), binary.LittleEndian.Uint32(wav[28:32]), "byte rate")
	assert.Equal(t, uint16(2), binary.LittleEndian.Uint16(wav[32:34]), "block align")
	assert.Equal(t, uint16(16), binary.LittleEndian.Uint16(wav[34:36]))
	assert.Equal(t, "data", string(wav[36:40]))
	assert.Equal(t, uint32(len(pcm)), binary.LittleEndian.Uint32(wav[40:44]))
	assert.Equal(t, pcm, wav[44:])
}

func TestEncodeWAVStereo(t *testing.T) {
	wav := EncodeWAV(make([]byte, 400), 44100, 2)

	assert.Equal(t, uint16(2), binary.LittleEndian.Uint16(wav[22:24]))
	assert.Equal(t, uint32(44100), binary.LittleEndian.Uint32(wav[24:28]))
	assert.Equal(t, uint32(44100*2*2), binary.LittleEndian.Uint32(wav[28:32]))
	assert.Equal(t, uint16(4), binary.LittleEndian.Uint16(wav[32:34]))
}

func TestDecodeWAV(t *testing.T) {
	pcm := pcmFromSamples([]int16{5, -5, 300})
	rate, channels, got, err := DecodeWAV(EncodeWAV(pcm, 16000, 1))
	require.NoError(t, err)
	assert.Equal(t, 16000, rate)
	assert.Equal(t, 1, channels)
	assert.Equal(t, pcm, got)

	_, _, _, err = DecodeWAV([]byte("too short"))
	assert.Error(t, err)

	notWav := make([]byte, 64)
	_, _, _, err = DecodeWAV(notWav)
	assert.Error(t, err)
}

func TestPatchWAVSizes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stream.wav")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	// Streamed write: header with zero sizes first, samples after, sizes
	// patched once the total is known.
	require.NoError(t, WriteWAVHeader(f, 0, 16000, 1))
	pcm := pcmFromSamples([]int16{1, 2, 3, 4, 5})
	_, err = f.Write(pcm)
	require.NoError(t, err)
	require.NoError(t, PatchWAVSizes(f, len(pcm)))
	require.NoError(t, f.Close())

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, EncodeWAV(pcm, 16000, 1), got)
}

package audio

import (
	"encoding/binary"
	"fmt"
	"io"
)

const (
	bitsPerSample = 16
	wavHeaderSize = 44
)

// EncodeWAV wraps raw 16-bit signed little-endian PCM in a RIFF/WAVE
// container.
func EncodeWAV(pcm []byte, sampleRate, channels int) []byte {
	buf := make([]byte, wavHeaderSize+len(pcm))
	writeWAVHeader(buf, len(pcm), sampleRate, channels)
	copy(buf[wavHeaderSize:], pcm)
	return buf
}

// WriteWAVHeader writes a 44-byte canonical PCM WAV header for dataSize
// bytes of sample data into w.
func WriteWAVHeader(w io.Writer, dataSize, sampleRate, channels int) error {
	buf := make([]byte, wavHeaderSize)
	writeWAVHeader(buf, dataSize, sampleRate, channels)
	_, err := w.Write(buf)
	return err
}

func writeWAVHeader(buf []byte, dataSize, sampleRate, channels int) {
	byteRate := sampleRate * channels * bitsPerSample / 8
	blockAlign := channels * bitsPerSample / 8

	copy(buf[0:4], "RIFF")
	binary.LittleEndian.PutUint32(buf[4:8], uint32(36+dataSize))
	copy(buf[8:12], "WAVE")

	copy(buf[12:16], "fmt ")
	binary.LittleEndian.PutUint32(buf[16:20], 16)
	binary.LittleEndian.PutUint16(buf[20:22], 1)
	binary.LittleEndian.PutUint16(buf[22:24], uint16(channels))
	binary.LittleEndian.PutUint32(buf[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(buf[28:32], uint32(byteRate))
	binary.LittleEndian.PutUint16(buf[32:34], uint16(blockAlign))
	binary.LittleEndian.PutUint16(buf[34:36], uint16(bitsPerSample))

	copy(buf[36:40], "data")
	binary.LittleEndian.PutUint32(buf[40:44], uint32(dataSize))
}

// DecodeWAV splits a canonical PCM WAV file into its stream parameters and
// raw sample data. Only 16-bit PCM is accepted.
func DecodeWAV(raw []byte) (sampleRate, channels int, pcm []byte, err error) {
	if len(raw) < wavHeaderSize ||
		string(raw[0:4]) != "RIFF" ||
		string(raw[8:12]) != "WAVE" {
		return 0, 0, nil, fmt.Errorf("audio: not a RIFF/WAVE file")
	}
	if binary.LittleEndian.Uint16(raw[20:22]) != 1 {
		return 0, 0, nil, fmt.Errorf("audio: not PCM encoded")
	}
	if binary.LittleEndian.Uint16(raw[34:36]) != bitsPerSample {
		return 0, 0, nil, fmt.Errorf("audio: expected %d-bit samples", bitsPerSample)
	}
	channels = int(binary.LittleEndian.Uint16(raw[22:24]))
	sampleRate = int(binary.LittleEndian.Uint32(raw[24:28]))
	dataSize := int(binary.LittleEndian.Uint32(raw[40:44]))
	pcm = raw[wavHeaderSize:]
	if dataSize < len(pcm) {
		pcm = pcm[:dataSize]
	}
	return sampleRate, channels, pcm, nil
}

// PatchWAVSizes rewrites the two size fields once the final data length is
// known. The recorder streams samples to disk and patches the header at the
// end.
func PatchWAVSizes(ws io.WriteSeeker, dataSize int) error {
	var field [4]byte

	if _, err := ws.Seek(4, io.SeekStart); err != nil {
		return fmt.Errorf("audio: seek riff size: %w", err)
	}
	binary.LittleEndian.PutUint32(field[:], uint32(36+dataSize))
	if _, err := ws.Write(field[:]); err != nil {
		return fmt.Errorf("audio: write riff size: %w", err)
	}

	if _, err := ws.Seek(40, io.SeekStart); err != nil {
		return fmt.Errorf("audio: seek data size: %w", err)
	}
	binary.LittleEndian.PutUint32(field[:], uint32(dataSize))
	if _, err := ws.Write(field[:]); err != nil {
		return fmt.Errorf("audio: write data size: %w", err)
	}
	return nil
}

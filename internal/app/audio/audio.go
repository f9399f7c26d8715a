package audio

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"green-needle/internal/app/errors"
	"green-needle/internal/app/util/files"
)

// The model expects 16 kHz mono 16-bit PCM. Inputs in any other shape go
// through ffmpeg first.
const (
	ModelSampleRate = 16000
	ModelChannels   = 1
)

type probeStream struct {
	CodecType  string `json:"codec_type"`
	CodecName  string `json:"codec_name"`
	SampleRate int    `json:"sample_rate,string"`
	Channels   int    `json:"channels"`
}

type probeOutput struct {
	Streams []probeStream `json:"streams"`
	Format  struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// StreamInfo summarizes the audio stream of a media file.
type StreamInfo struct {
	Codec      string
	SampleRate int
	Channels   int
	Duration   float64
}

// Probe inspects a media file with ffprobe.
func Probe(ctx context.Context, filePath string) (*StreamInfo, error) {
	cmd := exec.CommandContext(ctx, "ffprobe",
		"-v", "quiet",
		"-print_format", "json",
		"-show_streams", "-show_format",
		filePath)
	output, err := cmd.Output()
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCorruptAudio, "audio: probe %s: %v", filePath, err)
	}
	return parseProbeOutput(output)
}

func parseProbeOutput(output []byte) (*StreamInfo, error) {
	var probe probeOutput
	if err := json.Unmarshal(output, &probe); err != nil {
		return nil, fmt.Errorf("audio: decode probe output: %w", err)
	}

	info := &StreamInfo{}
	if probe.Format.Duration != "" {
		if d, err := strconv.ParseFloat(strings.TrimSpace(probe.Format.Duration), 64); err == nil {
			info.Duration = d
		}
	}
	for _, stream := range probe.Streams {
		if stream.CodecType == "audio" {
			info.Codec = stream.CodecName
			info.SampleRate = stream.SampleRate
			info.Channels = stream.Channels
			return info, nil
		}
	}
	return nil, errors.New(errors.KindInput, "audio: no audio stream found")
}

// Duration returns the length of a media file in seconds.
func Duration(ctx context.Context, filePath string) (float64, error) {
	cmd := exec.CommandContext(ctx, "ffprobe",
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		filePath)
	output, err := cmd.Output()
	if err != nil {
		return 0, errors.Wrapf(errors.ErrCorruptAudio, "audio: probe duration of %s: %v", filePath, err)
	}
	duration, err := strconv.ParseFloat(strings.TrimSpace(string(output)), 64)
	if err != nil {
		return 0, fmt.Errorf("audio: parse duration: %w", err)
	}
	return duration, nil
}

// IsModelReady reports whether the file is already 16 kHz mono PCM WAV.
func IsModelReady(ctx context.Context, filePath string) (bool, error) {
	info, err := Probe(ctx, filePath)
	if err != nil {
		return false, err
	}
	return info.Codec == "pcm_s16le" &&
		info.SampleRate == ModelSampleRate &&
		info.Channels == ModelChannels, nil
}

// ScratchDir returns the directory used for converted intermediates.
func ScratchDir() string {
	return filepath.Join(os.TempDir(), "green-needle")
}

// ConvertToModelWav transcodes any supported input into a 16 kHz mono WAV
// under the scratch directory and returns its path. An existing conversion
// of the same file is reused.
func ConvertToModelWav(ctx context.Context, inputFilePath string) (string, error) {
	if !files.IsMediaFile(inputFilePath) {
		return "", errors.Newf(errors.KindInput, "audio: unsupported input format %q", filepath.Ext(inputFilePath))
	}
	if err := files.EnsureDir(ScratchDir()); err != nil {
		return "", err
	}

	base := strings.TrimSuffix(filepath.Base(inputFilePath), filepath.Ext(inputFilePath))
	outputPath := filepath.Join(ScratchDir(), files.SanitizeFilename(base)+"_16khz.wav")
	if _, err := os.Stat(outputPath); err == nil {
		return outputPath, nil
	}

	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-hide_banner", "-loglevel", "error",
		"-i", inputFilePath,
		"-vn",
		"-acodec", "pcm_s16le",
		"-ar", strconv.Itoa(ModelSampleRate),
		"-ac", strconv.Itoa(ModelChannels),
		"-y", outputPath)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", errors.Wrapf(errors.ErrAudioProcess, "audio: convert %s: %v, stderr: %s",
			inputFilePath, err, stderr.String())
	}
	return outputPath, nil
}

// SplitIntoChunks cuts a media file into pieces of at most chunkSeconds
// without re-encoding and returns the chunk paths in order. Files shorter
// than one chunk come back unchanged.
func SplitIntoChunks(ctx context.Context, inputFilePath string, chunkSeconds float64, outputDir string) ([]string, error) {
	if chunkSeconds <= 0 {
		return nil, errors.Newf(errors.KindConfig, "audio: chunk duration must be positive, got %f", chunkSeconds)
	}
	total, err := Duration(ctx, inputFilePath)
	if err != nil {
		return nil, err
	}
	if total <= chunkSeconds {
		return []string{inputFilePath}, nil
	}
	if err := files.EnsureDir(outputDir); err != nil {
		return nil, err
	}

	ext := filepath.Ext(inputFilePath)
	base := strings.TrimSuffix(filepath.Base(inputFilePath), ext)
	count := int(math.Ceil(total / chunkSeconds))

	var chunks []string
	for i := 0; i < count; i++ {
		chunkPath := filepath.Join(outputDir, fmt.Sprintf("%s_part%03d%s", base, i, ext))
		cmd := exec.CommandContext(ctx, "ffmpeg",
			"-hide_banner", "-loglevel", "error",
			"-i", inputFilePath,
			"-ss", formatSeconds(float64(i)*chunkSeconds),
			"-t", formatSeconds(chunkSeconds),
			"-c", "copy",
			"-y", chunkPath)
		var stderr bytes.Buffer
		cmd.Stderr = &stderr
		if err := cmd.Run(); err != nil {
			return nil, errors.Wrapf(errors.ErrAudioProcess, "audio: split %s chunk %d: %v, stderr: %s",
				inputFilePath, i, err, stderr.String())
		}
		chunks = append(chunks, chunkPath)
	}
	return chunks, nil
}

// Denoise runs ffmpeg's FFT denoiser over the input and writes the result
// next to the converted intermediates.
func Denoise(ctx context.Context, inputFilePath string) (string, error) {
	if err := files.EnsureDir(ScratchDir()); err != nil {
		return "", err
	}
	base := strings.TrimSuffix(filepath.Base(inputFilePath), filepath.Ext(inputFilePath))
	outputPath := filepath.Join(ScratchDir(), files.SanitizeFilename(base)+"_denoised.wav")

	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-hide_banner", "-loglevel", "error",
		"-i", inputFilePath,
		"-af", "afftdn=nf=-25",
		"-ar", strconv.Itoa(ModelSampleRate),
		"-ac", strconv.Itoa(ModelChannels),
		"-y", outputPath)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", errors.Wrapf(errors.ErrAudioProcess, "audio: denoise %s: %v, stderr: %s",
			inputFilePath, err, stderr.String())
	}
	return outputPath, nil
}

func formatSeconds(seconds float64) string {
	return strconv.FormatFloat(seconds, 'f', 3, 64)
}

package audio

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"green-needle/internal/app/errors"
	"green-needle/internal/app/util/files"
)

// Capture delegates to ffmpeg's platform grabbers (alsa, avfoundation,
// dshow), which stream raw s16le PCM over a pipe. The recorder owns the WAV
// container, pause bookkeeping and silence detection.

const captureFrame = 30 * time.Millisecond

// DeviceInfo identifies a capture device for the record command's listing.
type DeviceInfo struct {
	Index int
	Name  string
}

// Recorder captures microphone input to WAV files.
type Recorder struct {
	sampleRate int
	channels   int
	device     string
	logger     *zap.Logger

	recording atomic.Bool
	paused    atomic.Bool

	mu       sync.Mutex
	stopCh   chan struct{}
	stopOnce *sync.Once
}

// RecorderOption configures a Recorder.
type RecorderOption func(*Recorder)

// WithSampleRate overrides the default 16 kHz capture rate.
func WithSampleRate(rate int) RecorderOption {
	return func(r *Recorder) { r.sampleRate = rate }
}

// WithChannels overrides the default mono capture.
func WithChannels(channels int) RecorderOption {
	return func(r *Recorder) { r.channels = channels }
}

// WithDevice selects a capture device instead of the system default.
func WithDevice(device string) RecorderOption {
	return func(r *Recorder) { r.device = device }
}

// WithLogger attaches a logger.
func WithLogger(logger *zap.Logger) RecorderOption {
	return func(r *Recorder) { r.logger = logger }
}

// NewRecorder creates a recorder with 16 kHz mono defaults.
func NewRecorder(opts ...RecorderOption) *Recorder {
	r := &Recorder{
		sampleRate: ModelSampleRate,
		channels:   ModelChannels,
		logger:     zap.NewNop(),
		stopCh:     make(chan struct{}),
		stopOnce:   new(sync.Once),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RecordOptions bound one capture run.
type RecordOptions struct {
	// Duration limits the captured audio; zero records until Stop.
	Duration time.Duration

	// SilenceStop ends the recording after SilenceWindow of levels below
	// SilenceThreshold (normalized RMS).
	SilenceStop      bool
	SilenceThreshold float64
	SilenceWindow    time.Duration

	// OnProgress receives the captured seconds as the recording advances.
	OnProgress func(seconds float64)
}

func (o *RecordOptions) withDefaults() RecordOptions {
	opts := *o
	if opts.SilenceThreshold == 0 {
		opts.SilenceThreshold = 0.01
	}
	if opts.SilenceWindow == 0 {
		opts.SilenceWindow = 3 * time.Second
	}
	return opts
}

// Pause suspends writing; captured audio excludes paused spans.
func (r *Recorder) Pause() { r.paused.Store(true) }

// Resume continues a paused recording.
func (r *Recorder) Resume() { r.paused.Store(false) }

// Paused reports whether the recorder is currently discarding input.
func (r *Recorder) Paused() bool { return r.paused.Load() }

// Stop ends the active recording. Safe to call from any goroutine and more
// than once.
func (r *Recorder) Stop() {
	r.mu.Lock()
	once, ch := r.stopOnce, r.stopCh
	r.mu.Unlock()
	once.Do(func() { close(ch) })
}

func (r *Recorder) resetStop() chan struct{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopCh = make(chan struct{})
	r.stopOnce = new(sync.Once)
	return r.stopCh
}

// Record captures audio into outputPath until the duration bound, a Stop
// call, context cancellation or the silence window fires. It returns the
// written path.
func (r *Recorder) Record(ctx context.Context, outputPath string, options RecordOptions) (string, error) {
	if !r.recording.CompareAndSwap(false, true) {
		return "", errors.Wrap(errors.ErrRecording, "audio: recorder already active")
	}
	defer r.recording.Store(false)
	stopCh := r.resetStop()
	r.paused.Store(false)
	opts := options.withDefaults()

	if err := files.EnsureDir(filepath.Dir(outputPath)); err != nil {
		return "", err
	}
	out, err := os.Create(outputPath)
	if err != nil {
		return "", errors.Wrapf(errors.ErrRecording, "audio: create %s: %v", outputPath, err)
	}
	defer out.Close()

	if err := WriteWAVHeader(out, 0, r.sampleRate, r.channels); err != nil {
		return "", errors.Wrapf(errors.ErrRecording, "audio: write header: %v", err)
	}

	args := append(captureInputArgs(runtime.GOOS, r.device),
		"-ac", strconv.Itoa(r.channels),
		"-ar", strconv.Itoa(r.sampleRate),
		"-f", "s16le", "-")
	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return "", errors.Wrapf(errors.ErrRecording, "audio: capture pipe: %v", err)
	}
	if err := cmd.Start(); err != nil {
		return "", errors.Wrapf(errors.ErrRecording, "audio: start capture: %v", err)
	}
	r.logger.Debug("capture started",
		zap.String("output", outputPath),
		zap.Int("sample_rate", r.sampleRate),
		zap.Int("channels", r.channels))

	frameSize := FrameBytes(r.sampleRate, r.channels, captureFrame)
	frame := make([]byte, frameSize)
	tracker := newSilenceTracker(opts.SilenceThreshold, opts.SilenceWindow)
	bytesPerSecond := float64(r.sampleRate * r.channels * bitsPerSample / 8)
	written := 0

capture:
	for {
		select {
		case <-stopCh:
			break capture
		case <-ctx.Done():
			break capture
		default:
		}

		if _, err := io.ReadFull(stdout, frame); err != nil {
			break capture
		}
		if r.paused.Load() {
			continue
		}

		if _, err := out.Write(frame); err != nil {
			r.killCapture(cmd)
			return "", errors.Wrapf(errors.ErrRecording, "audio: write samples: %v", err)
		}
		written += frameSize
		captured := float64(written) / bytesPerSecond
		if opts.OnProgress != nil {
			opts.OnProgress(captured)
		}

		if opts.SilenceStop && tracker.observe(NormalizedRMS(frame), captureFrame) {
			r.logger.Debug("silence window reached", zap.Float64("captured_sec", captured))
			break capture
		}
		if opts.Duration > 0 && captured >= opts.Duration.Seconds() {
			break capture
		}
	}

	r.killCapture(cmd)

	if written == 0 {
		os.Remove(outputPath)
		return "", errors.Wrap(errors.ErrRecording, "audio: no audio captured")
	}
	if err := PatchWAVSizes(out, written); err != nil {
		return "", errors.Wrapf(errors.ErrRecording, "audio: finalize wav: %v", err)
	}
	r.logger.Info("recording saved",
		zap.String("path", outputPath),
		zap.Float64("seconds", float64(written)/bytesPerSecond))
	return outputPath, nil
}

func (r *Recorder) killCapture(cmd *exec.Cmd) {
	if cmd.Process != nil {
		_ = cmd.Process.Kill()
	}
	_ = cmd.Wait()
}

// RecordInteractive records into outputDir with a timestamped name until the
// user presses Enter. input and output are the terminal streams.
func (r *Recorder) RecordInteractive(ctx context.Context, outputDir, prefix string, options RecordOptions, input io.Reader, output io.Writer) (string, error) {
	if prefix == "" {
		prefix = "recording"
	}
	name := fmt.Sprintf("%s_%s.wav", files.SanitizeFilename(prefix), time.Now().Format("20060102_150405"))
	outputPath := filepath.Join(outputDir, name)

	fmt.Fprintln(output, "Recording... press Enter to stop.")
	go func() {
		reader := bufio.NewReader(input)
		if _, err := reader.ReadString('\n'); err == nil {
			r.Stop()
		}
	}()

	return r.Record(ctx, outputPath, options)
}

// captureInputArgs builds the platform half of the ffmpeg capture command.
func captureInputArgs(goos, device string) []string {
	base := []string{"-hide_banner", "-loglevel", "error"}
	switch goos {
	case "darwin":
		if device == "" {
			device = "0"
		}
		return append(base, "-f", "avfoundation", "-i", ":"+device)
	case "windows":
		if device == "" {
			device = "default"
		}
		return append(base, "-f", "dshow", "-i", "audio="+device)
	default:
		if device == "" {
			device = "default"
		}
		return append(base, "-f", "alsa", "-i", device)
	}
}

// ListDevices enumerates capture devices using the platform tooling.
func ListDevices(ctx context.Context) ([]DeviceInfo, error) {
	switch runtime.GOOS {
	case "darwin":
		cmd := exec.CommandContext(ctx, "ffmpeg", "-hide_banner", "-f", "avfoundation", "-list_devices", "true", "-i", "")
		output, _ := cmd.CombinedOutput()
		return parseAVFoundationDevices(string(output)), nil
	case "windows":
		cmd := exec.CommandContext(ctx, "ffmpeg", "-hide_banner", "-list_devices", "true", "-f", "dshow", "-i", "dummy")
		output, _ := cmd.CombinedOutput()
		return parseDShowDevices(string(output)), nil
	default:
		cmd := exec.CommandContext(ctx, "arecord", "-l")
		output, err := cmd.CombinedOutput()
		if err != nil {
			return nil, errors.Wrapf(errors.ErrRecording, "audio: list devices: %v", err)
		}
		return parseAlsaDevices(string(output)), nil
	}
}

var (
	avfAudioLine  = regexp.MustCompile(`\[(\d+)\]\s+(.+)$`)
	alsaCardLine  = regexp.MustCompile(`^card (\d+): [^\[]*\[([^\]]+)\]`)
	dshowAudioRow = regexp.MustCompile(`"([^"]+)"\s+\(audio\)`)
)

func parseAVFoundationDevices(output string) []DeviceInfo {
	var devices []DeviceInfo
	inAudio := false
	for _, line := range strings.Split(output, "\n") {
		if strings.Contains(line, "AVFoundation audio devices") {
			inAudio = true
			continue
		}
		if strings.Contains(line, "AVFoundation video devices") {
			inAudio = false
			continue
		}
		if !inAudio {
			continue
		}
		if m := avfAudioLine.FindStringSubmatch(line); m != nil {
			index, _ := strconv.Atoi(m[1])
			devices = append(devices, DeviceInfo{Index: index, Name: strings.TrimSpace(m[2])})
		}
	}
	return devices
}

func parseAlsaDevices(output string) []DeviceInfo {
	var devices []DeviceInfo
	for _, line := range strings.Split(output, "\n") {
		if m := alsaCardLine.FindStringSubmatch(strings.TrimSpace(line)); m != nil {
			index, _ := strconv.Atoi(m[1])
			devices = append(devices, DeviceInfo{Index: index, Name: m[2]})
		}
	}
	return devices
}

func parseDShowDevices(output string) []DeviceInfo {
	var devices []DeviceInfo
	for _, line := range strings.Split(output, "\n") {
		if m := dshowAudioRow.FindStringSubmatch(line); m != nil {
			devices = append(devices, DeviceInfo{Index: len(devices), Name: m[1]})
		}
	}
	return devices
}

package audio

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCaptureInputArgs(t *testing.T) {
	tests := []struct {
		name   string
		goos   string
		device string
		want   []string
	}{
		{
			name: "linux default",
			goos: "linux",
			want: []string{"-hide_banner", "-loglevel", "error", "-f", "alsa", "-i", "default"},
		},
		{
			name:   "linux named device",
			goos:   "linux",
			device: "hw:1,0",
			want:   []string{"-hide_banner", "-loglevel", "error", "-f", "alsa", "-i", "hw:1,0"},
		},
		{
			name: "darwin default",
			goos: "darwin",
			want: []string{"-hide_banner", "-loglevel", "error", "-f", "avfoundation", "-i", ":0"},
		},
		{
			name:   "darwin indexed device",
			goos:   "darwin",
			device: "2",
			want:   []string{"-hide_banner", "-loglevel", "error", "-f", "avfoundation", "-i", ":2"},
		},
		{
			name:   "windows named device",
			goos:   "windows",
			device: "Microphone (Realtek Audio)",
			want:   []string{"-hide_banner", "-loglevel", "error", "-f", "dshow", "-i", "audio=Microphone (Realtek Audio)"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, captureInputArgs(tt.goos, tt.device))
		})
	}
}

func TestParseAVFoundationDevices(t *testing.T) {
	output := `[AVFoundation indev @ 0x7f8] AVFoundation video devices:
[AVFoundation indev @ 0x7f8] [0] FaceTime HD Camera
[AVFoundation indev @ 0x7f8] AVFoundation audio devices:
[AVFoundation indev @ 0x7f8] [0] MacBook Pro Microphone
[AVFoundation indev @ 0x7f8] [1] External USB Mic
: Input/output error`

	devices := parseAVFoundationDevices(output)
	assert.Equal(t, []DeviceInfo{
		{Index: 0, Name: "MacBook Pro Microphone"},
		{Index: 1, Name: "External USB Mic"},
	}, devices)
}

func TestParseAlsaDevices(t *testing.T) {
	output := `**** List of CAPTURE Hardware Devices ****
card 0: PCH [HDA Intel PCH], device 0: ALC3202 Analog [ALC3202 Analog]
  Subdevices: 1/1
  Subdevice #0: subdevice #0
card 1: Device [USB Audio Device], device 0: USB Audio [USB Audio]
  Subdevices: 1/1
`

	devices := parseAlsaDevices(output)
	assert.Equal(t, []DeviceInfo{
		{Index: 0, Name: "HDA Intel PCH"},
		{Index: 1, Name: "USB Audio Device"},
	}, devices)
}

func TestParseDShowDevices(t *testing.T) {
	output := `[dshow @ 000001] DirectShow video devices
[dshow @ 000001]  "Integrated Camera" (video)
[dshow @ 000001] DirectShow audio devices
[dshow @ 000001]  "Microphone (Realtek Audio)" (audio)
[dshow @ 000001]  "Line In (Realtek Audio)" (audio)
`

	devices := parseDShowDevices(output)
	assert.Equal(t, []DeviceInfo{
		{Index: 0, Name: "Microphone (Realtek Audio)"},
		{Index: 1, Name: "Line In (Realtek Audio)"},
	}, devices)
}

func TestRecordOptionsDefaults(t *testing.T) {
	opts := (&RecordOptions{}).withDefaults()
	assert.InDelta(t, 0.01, opts.SilenceThreshold, 1e-9)
	assert.Equal(t, 3*time.Second, opts.SilenceWindow)
	assert.Zero(t, opts.Duration)

	custom := (&RecordOptions{SilenceThreshold: 0.05, SilenceWindow: time.Second, Duration: time.Minute}).withDefaults()
	assert.InDelta(t, 0.05, custom.SilenceThreshold, 1e-9)
	assert.Equal(t, time.Second, custom.SilenceWindow)
	assert.Equal(t, time.Minute, custom.Duration)
}

func TestRecorderPauseState(t *testing.T) {
	r := NewRecorder()
	assert.False(t, r.Paused())
	r.Pause()
	assert.True(t, r.Paused())
	r.Resume()
	assert.False(t, r.Paused())
}

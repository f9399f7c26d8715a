package record

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"green-needle/internal/app"
	"green-needle/internal/app/audio"
	"green-needle/internal/app/pipeline"
	"green-needle/internal/app/progress"
	"green-needle/internal/app/transcript"
	"green-needle/internal/app/util/files"
	"green-needle/internal/config"
)

var (
	duration    float64
	output      string
	sampleRate  int
	channels    int
	device      string
	silenceStop bool
	listDevices bool
	transcribe  bool
	modelName   string
	noProgress  bool
)

func init() {
	Cmd.Flags().Float64VarP(&duration, "duration", "d", 0, "recording duration in seconds, interactive when zero")
	Cmd.Flags().StringVarP(&output, "output", "o", "", "output WAV path")
	Cmd.Flags().IntVar(&sampleRate, "sample-rate", 0, "sample rate in Hz, configured rate when zero")
	Cmd.Flags().IntVar(&channels, "channels", 0, "channel count, configured count when zero")
	Cmd.Flags().StringVar(&device, "device", "", "capture device, system default when empty")
	Cmd.Flags().BoolVar(&silenceStop, "silence-stop", false, "stop automatically after sustained silence")
	Cmd.Flags().BoolVar(&listDevices, "list-devices", false, "list capture devices and exit")
	Cmd.Flags().BoolVar(&transcribe, "transcribe", false, "transcribe the recording when it finishes")
	Cmd.Flags().StringVarP(&modelName, "model", "m", "", "model for --transcribe, configured model when empty")
	Cmd.Flags().BoolVar(&noProgress, "no-progress", false, "disable the progress bar")
}

// Cmd represents the record command
var Cmd = &cobra.Command{
	Use:   "record",
	Short: "Record audio from the microphone",
	Long: `Record audio from the microphone into a WAV file.

- With --duration the recording stops after the given number of seconds
- Without --duration the recording runs until Enter or Ctrl+C
- With --silence-stop the recording ends after sustained silence
- With --transcribe the finished recording is transcribed right away`,
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, _ := cmd.Flags().GetString("config")
		verbose, _ := cmd.Flags().GetBool("verbose")

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if listDevices {
			return printDevices(ctx)
		}
		if output == "" {
			return fmt.Errorf("record: --output is required")
		}

		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}

		if sampleRate == 0 {
			sampleRate = cfg.Audio.SampleRate
		}
		if channels == 0 {
			channels = cfg.Audio.Channels
		}
		if device == "" {
			device = cfg.Audio.Device
		}

		var application *app.App
		if transcribe {
			// Fail on provider problems before any audio is captured.
			application, err = app.InitializeApp(cfg, verbose)
			if err != nil {
				return err
			}
			defer application.Close()
		}

		recorder := audio.NewRecorder(
			audio.WithSampleRate(sampleRate),
			audio.WithChannels(channels),
			audio.WithDevice(device),
		)

		options := audio.RecordOptions{
			Duration:         time.Duration(duration * float64(time.Second)),
			SilenceStop:      silenceStop,
			SilenceThreshold: cfg.Audio.SilenceThreshold,
			SilenceWindow:    time.Duration(cfg.Audio.SilenceDuration * float64(time.Second)),
		}

		manager := progress.NewManager(progress.Config{Enabled: progress.ShouldShow(false) && !noProgress && duration > 0})
		bar := manager.FileBar("recording")
		if duration > 0 {
			options.OnProgress = func(seconds float64) {
				bar.Percent(seconds / duration * 100)
			}
		}

		var audioPath string
		if duration > 0 {
			audioPath, err = recorder.Record(ctx, output, options)
		} else {
			prefix := strings.TrimSuffix(filepath.Base(output), filepath.Ext(output))
			audioPath, err = recorder.RecordInteractive(ctx, filepath.Dir(output), prefix, options, os.Stdin, os.Stderr)
		}
		bar.Complete()
		manager.Wait()
		if err != nil {
			return err
		}

		fmt.Printf("saved: %s", audioPath)
		if info, statErr := os.Stat(audioPath); statErr == nil {
			fmt.Printf(" (%s)", files.FormatSize(info.Size()))
		}
		fmt.Println()

		if !transcribe {
			return nil
		}
		return transcribeRecording(ctx, application, cfg, audioPath)
	},
}

// transcribeRecording runs the fresh recording through the standard chain and
// saves the transcript next to the audio file.
func transcribeRecording(ctx context.Context, application *app.App, cfg *config.Config, audioPath string) error {
	prov, err := application.Provider("")
	if err != nil {
		return err
	}
	if modelName == "" {
		modelName = cfg.Whisper.Model
	}

	chain, _ := pipeline.ChainByName("standard", pipeline.ChainOptions{
		Provider:     prov,
		Language:     cfg.Whisper.Language,
		Model:        modelName,
		ChunkSeconds: cfg.Processing.SplitSeconds(),
		OutputDir:    filepath.Dir(audioPath),
		Format:       transcript.FormatTxt,
	})
	payload, err := chain.WithLogger(application.Logger).Run(ctx, pipeline.NewAudioPayload(audioPath))
	if err != nil {
		return err
	}

	fmt.Printf("words: %d\n", payload.Result.WordCount)
	for _, path := range payload.Outputs {
		fmt.Printf("saved: %s\n", path)
	}
	return nil
}

func printDevices(ctx context.Context) error {
	devices, err := audio.ListDevices(ctx)
	if err != nil {
		return err
	}
	if len(devices) == 0 {
		fmt.Println("no capture devices found")
		return nil
	}
	for _, dev := range devices {
		fmt.Printf("%3d  %s\n", dev.Index, dev.Name)
	}
	return nil
}

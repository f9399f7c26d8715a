package transcribe

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"green-needle/internal/app"
	"green-needle/internal/app/model"
	"green-needle/internal/app/pipeline"
	"green-needle/internal/app/progress"
	"green-needle/internal/app/transcript"
	"green-needle/internal/app/utils"
	"green-needle/internal/config"
)

var (
	modelName      string
	language       string
	task           string
	providerName   string
	chainName      string
	outputDir      string
	formatName     string
	temperature    float32
	initialPrompt  string
	wordTimestamps bool
	noProgress     bool
)

func init() {
	Cmd.Flags().StringVarP(&modelName, "model", "m", "", "model size (tiny, base, small, medium, large) or provider-specific model ID")
	Cmd.Flags().StringVarP(&language, "language", "l", "", "language code, auto-detected when empty")
	Cmd.Flags().StringVar(&task, "task", "transcribe", "task to perform (transcribe or translate)")
	Cmd.Flags().StringVar(&providerName, "provider", "", "transcription provider, configured default when empty")
	Cmd.Flags().StringVar(&chainName, "chain", "standard", "processing chain (standard, voice_only, summarization)")
	Cmd.Flags().StringVarP(&outputDir, "output", "o", "", "output directory, configured directory when empty")
	Cmd.Flags().StringVarP(&formatName, "format", "f", "", "output format (txt, json, srt, vtt, tsv, all)")
	Cmd.Flags().Float32Var(&temperature, "temperature", 0, "sampling temperature")
	Cmd.Flags().StringVar(&initialPrompt, "initial-prompt", "", "prompt to guide the transcription")
	Cmd.Flags().BoolVar(&wordTimestamps, "word-timestamps", false, "include word-level timestamps")
	Cmd.Flags().BoolVar(&noProgress, "no-progress", false, "disable the progress bar")
}

// Cmd represents the transcribe command
var Cmd = &cobra.Command{
	Use:   "transcribe <audio-file>",
	Short: "Transcribe a single audio or video file",
	Long: `Transcribe a single audio or video file and save the transcript.

- Runs the file through the configured processing chain
- Writes the transcript into the output directory in the selected format
- Records the transcription in history when a history backend is enabled`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, _ := cmd.Flags().GetString("config")
		verbose, _ := cmd.Flags().GetBool("verbose")

		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		application, err := app.InitializeApp(cfg, verbose)
		if err != nil {
			return err
		}
		defer application.Close()

		input := args[0]
		if _, err := os.Stat(input); err != nil {
			return fmt.Errorf("transcribe: input %s: %w", input, err)
		}

		if modelName == "" {
			modelName = cfg.Whisper.Model
		}
		if language == "" {
			language = cfg.Whisper.Language
		}
		if outputDir == "" {
			outputDir = cfg.Output.Directory
		}
		if formatName == "" {
			formatName = cfg.Output.Format
		}
		outputFormat, err := transcript.ParseFormat(formatName)
		if err != nil {
			return err
		}

		prov, err := application.Provider(providerName)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		manager := progress.NewManager(progress.Config{Enabled: progress.ShouldShow(false) && !noProgress})
		bar := manager.FileBar(filepath.Base(input))

		chain, ok := pipeline.ChainByName(chainName, pipeline.ChainOptions{
			Provider:       prov,
			Language:       language,
			Model:          modelName,
			Task:           task,
			Temperature:    temperature,
			InitialPrompt:  initialPrompt,
			WordTimestamps: wordTimestamps,
			Progress:       bar.Callback(),
			ChunkSeconds:   cfg.Processing.SplitSeconds(),
			OutputDir:      outputDir,
			Format:         outputFormat,
		})
		if !ok {
			manager.Shutdown()
			return fmt.Errorf("transcribe: unknown chain %q", chainName)
		}
		chain = chain.WithLogger(application.Logger)

		started := time.Now()
		payload, err := chain.Run(ctx, pipeline.NewAudioPayload(input))
		bar.Complete()
		manager.Wait()
		if err != nil {
			return err
		}

		recordHistory(ctx, application, input, prov.Info().Name, payload.Result)
		archiveOutputs(ctx, application, payload.Outputs)

		fmt.Print(payload.Result.Summary())
		fmt.Printf("Elapsed: %.1fs\n", time.Since(started).Seconds())
		for _, path := range payload.Outputs {
			fmt.Printf("saved: %s\n", path)
		}
		return nil
	},
}

// recordHistory mirrors what a batch run stores for each finished file. A
// history failure never fails the transcription that produced it.
func recordHistory(ctx context.Context, application *app.App, input, providerName string, result *model.TranscriptionResult) {
	if application.History == nil || result == nil {
		return
	}

	record := &model.HistoryRecord{
		Source:        sourceName(input),
		InputDir:      filepath.Dir(input),
		FileName:      filepath.Base(input),
		AudioDuration: result.Duration,
		Text:          result.Text,
		Provider:      providerName,
		Model:         result.Model,
		Language:      result.Language,
		CreatedAt:     time.Now(),
	}
	if info, err := os.Stat(input); err == nil {
		record.FileSize = info.Size()
	}
	if hash, err := utils.FileSHA256(input); err == nil {
		record.FileHash = hash
	}

	if err := application.History.Record(ctx, record); err != nil {
		application.Logger.Warn("history store failed", zap.String("file", input), zap.Error(err))
	}
}

func archiveOutputs(ctx context.Context, application *app.App, outputs []string) {
	if application.Archiver == nil {
		return
	}
	for _, output := range outputs {
		if _, err := application.Archiver.Archive(ctx, output); err != nil {
			application.Logger.Warn("archive failed", zap.String("output", output), zap.Error(err))
		}
	}
}

// sourceName groups history rows by the directory the input came from.
func sourceName(input string) string {
	base := filepath.Base(filepath.Dir(input))
	if base == "." || base == string(filepath.Separator) || base == "" {
		return "local"
	}
	return base
}

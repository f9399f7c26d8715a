package batch

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"green-needle/internal/app"
	"green-needle/internal/app/batch"
	"green-needle/internal/app/model"
	"green-needle/internal/app/pipeline"
	"green-needle/internal/app/progress"
	"green-needle/internal/app/transcript"
	"green-needle/internal/config"
)

var (
	outputDir    string
	modelName    string
	language     string
	task         string
	providerName string
	chainName    string
	formatName   string
	pattern      string
	recursive    bool
	workers      int
	skipExisting bool
	noProgress   bool
)

func init() {
	Cmd.Flags().StringVarP(&outputDir, "output-dir", "o", "", "output directory, configured directory when empty")
	Cmd.Flags().StringVarP(&modelName, "model", "m", "", "model size, configured model when empty")
	Cmd.Flags().StringVarP(&language, "language", "l", "", "language code, auto-detected when empty")
	Cmd.Flags().StringVar(&task, "task", "transcribe", "task to perform (transcribe or translate)")
	Cmd.Flags().StringVar(&providerName, "provider", "", "transcription provider, configured default when empty")
	Cmd.Flags().StringVar(&chainName, "chain", "standard", "processing chain (standard, voice_only, summarization)")
	Cmd.Flags().StringVarP(&formatName, "format", "f", "", "output format (txt, json, srt, vtt, tsv, all)")
	Cmd.Flags().StringVarP(&pattern, "pattern", "p", "", "glob filter on file names, for example '*.mp3'")
	Cmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "descend into subdirectories")
	Cmd.Flags().IntVarP(&workers, "workers", "w", 0, "parallel workers, configured count when zero")
	Cmd.Flags().BoolVar(&skipExisting, "skip-existing", false, "skip inputs whose outputs already exist or that history has seen")
	Cmd.Flags().BoolVar(&noProgress, "no-progress", false, "disable the progress bar")
}

// Cmd represents the batch command
var Cmd = &cobra.Command{
	Use:   "batch <input-dir>",
	Short: "Transcribe every audio and video file in a directory",
	Long: `Transcribe every audio and video file in a directory with a pool of
parallel workers.

- One report entry per input file: success, failure or skipped
- A failed file never stops the rest of the run
- The run report is printed and saved as JSON into the output directory`,
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

		if outputDir == "" {
			outputDir = cfg.Output.Directory
		}
		if modelName == "" {
			modelName = cfg.Whisper.Model
		}
		if language == "" {
			language = cfg.Whisper.Language
		}
		if formatName == "" {
			formatName = cfg.Output.Format
		}
		if workers == 0 {
			workers = cfg.Processing.Workers
		}
		outputFormat, err := transcript.ParseFormat(formatName)
		if err != nil {
			return err
		}

		prov, err := application.Provider(providerName)
		if err != nil {
			return err
		}

		manager := progress.NewManager(progress.Config{Enabled: progress.ShouldShow(false) && !noProgress})
		var bar *progress.Bar
		var barOnce sync.Once

		options := []batch.Option{
			batch.WithLogger(application.Logger),
			batch.WithMetrics(application.Metrics),
			batch.WithProgress(func(completed, total int, result model.FileResult) {
				barOnce.Do(func() { bar = manager.BatchBar(total, "transcribing") })
				bar.Increment()
			}),
		}
		if application.Cache != nil {
			options = append(options, batch.WithCache(application.Cache))
		}
		if application.History != nil {
			options = append(options, batch.WithHistory(application.History))
		}
		if application.Archiver != nil {
			options = append(options, batch.WithArchiver(application.Archiver))
		}

		processor, err := batch.New(batch.Options{
			InputDir:     args[0],
			Pattern:      pattern,
			Recursive:    recursive,
			OutputDir:    outputDir,
			Format:       outputFormat,
			Workers:      workers,
			SkipExisting: skipExisting,
			Chain:        chainName,
			Pipeline: pipeline.ChainOptions{
				Provider:     prov,
				Language:     language,
				Model:        modelName,
				Task:         task,
				ChunkSeconds: cfg.Processing.SplitSeconds(),
			},
		}, options...)
		if err != nil {
			manager.Shutdown()
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		report, runErr := processor.Run(ctx)
		manager.Wait()
		if report == nil {
			return runErr
		}

		fmt.Print(batch.Summarize(report).String())
		if reportPath, err := batch.WriteReport(report, outputDir); err != nil {
			application.Logger.Warn("writing batch report", zap.Error(err))
		} else {
			fmt.Printf("report: %s\n", reportPath)
		}
		return runErr
	},
}

package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"green-needle/cmd/gn/cmd/batch"
	"green-needle/cmd/gn/cmd/config"
	"green-needle/cmd/gn/cmd/export"
	"green-needle/cmd/gn/cmd/models"
	"green-needle/cmd/gn/cmd/record"
	"green-needle/cmd/gn/cmd/serve"
	"green-needle/cmd/gn/cmd/transcribe"
	"green-needle/cmd/gn/cmd/version"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "gn",
	Short: "Turn speech into text with a local or remote speech model",
	Long: `green-needle turns speech into text.
- Record from the microphone, or point it at audio and video files you already have
- Transcribe a single file or a whole directory tree with parallel workers
- Save transcripts as txt, json, srt, vtt or tsv`,
	SilenceUsage:     true,
	TraverseChildren: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(transcribe.Cmd)
	rootCmd.AddCommand(record.Cmd)
	rootCmd.AddCommand(batch.Cmd)
	rootCmd.AddCommand(config.Cmd)
	rootCmd.AddCommand(models.Cmd)
	rootCmd.AddCommand(export.Cmd)
	rootCmd.AddCommand(serve.Cmd)
	rootCmd.AddCommand(version.Cmd)

	rootCmd.PersistentFlags().StringP("config", "c", "",
		"config file (searches ./green-needle.yaml, ~/.config/green-needle/config.yaml, ~/.green-needle.yaml when unset)")
	rootCmd.PersistentFlags().BoolP("verbose", "V", false, "verbose output")
}

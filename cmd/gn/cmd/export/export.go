package export

import (
	"fmt"

	"github.com/spf13/cobra"

	"green-needle/internal/app"
	"green-needle/internal/app/export"
	"green-needle/internal/app/model"
	"green-needle/internal/config"
)

var (
	source   string
	all      bool
	output   string
	limit    int
	searched string
)

func init() {
	Cmd.Flags().StringVarP(&source, "source", "s", "", "only export transcriptions from this source directory")
	Cmd.Flags().BoolVar(&all, "all", false, "export the whole history")
	Cmd.Flags().StringVarP(&output, "output", "o", "", "path of the .xlsx file to write")
	Cmd.Flags().IntVar(&limit, "limit", 0, "maximum rows, unlimited when zero")
	Cmd.Flags().StringVar(&searched, "search", "", "only export transcriptions matching this text")

	Cmd.MarkFlagRequired("output")
}

// Cmd represents the export command
var Cmd = &cobra.Command{
	Use:   "export",
	Short: "Export transcription history to a spreadsheet",
	Long: `Export transcription history to an .xlsx spreadsheet.

- --all exports every recorded transcription
- --source exports one source directory's transcriptions
- --search exports transcriptions whose text or file name matches`,
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, _ := cmd.Flags().GetString("config")

		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		store, err := app.OpenHistory(cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		ctx := cmd.Context()
		records, err := func() ([]model.HistoryRecord, error) {
			switch {
			case searched != "":
				return store.Search(ctx, searched, limit)
			case source != "":
				return store.GetBySource(ctx, source, limit)
			case all:
				return store.GetRecent(ctx, limit)
			default:
				return nil, fmt.Errorf("export: pass --all, --source or --search")
			}
		}()
		if err != nil {
			return err
		}
		if len(records) == 0 {
			return fmt.Errorf("export: no matching transcriptions")
		}

		if err := export.ToExcel(records, output); err != nil {
			return err
		}
		fmt.Printf("exported %d transcriptions to %s\n", len(records), output)
		return nil
	},
}

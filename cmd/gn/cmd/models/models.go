package models

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"green-needle/internal/app/api/provider"
	"green-needle/internal/app/util/files"
	"green-needle/internal/config"
)

// modelSpec carries the published numbers for one model size. WER is the
// word error rate reported for multilingual audio.
type modelSpec struct {
	Name   string
	Params string
	VRAM   string
	Speed  string
	WER    string
	SizeMB int64
}

var catalog = []modelSpec{
	{Name: "tiny", Params: "39M", VRAM: "~1 GB", Speed: "~32x", WER: "17.4%", SizeMB: 75},
	{Name: "base", Params: "74M", VRAM: "~1 GB", Speed: "~16x", WER: "12.6%", SizeMB: 142},
	{Name: "small", Params: "244M", VRAM: "~2 GB", Speed: "~6x", WER: "9.5%", SizeMB: 466},
	{Name: "medium", Params: "769M", VRAM: "~5 GB", Speed: "~2x", WER: "7.4%", SizeMB: 1533},
	{Name: "large", Params: "1550M", VRAM: "~10 GB", Speed: "1x", WER: "6.2%", SizeMB: 2950},
}

var (
	listModels   bool
	downloadName string
	infoName     string
	providers    bool
)

func init() {
	Cmd.Flags().BoolVar(&listModels, "list", false, "list the model sizes")
	Cmd.Flags().StringVar(&downloadName, "download", "", "download a model file (for example small or small.en)")
	Cmd.Flags().StringVar(&infoName, "info", "", "show details for one model size")
	Cmd.Flags().BoolVar(&providers, "providers", false, "show the configured transcription providers")
}

// Cmd represents the models command
var Cmd = &cobra.Command{
	Use:   "models",
	Short: "Inspect and download speech models",
	Long: `Inspect and download speech models.

- --list shows the sizes with their parameter counts and speed trade-offs
- --download fetches a model file into the configured download directory
- --info shows the details of one size
- --providers shows which transcription backends are configured and usable`,
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, _ := cmd.Flags().GetString("config")
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}

		switch {
		case downloadName != "":
			return download(cmd.Context(), cfg, downloadName)
		case infoName != "":
			return printInfo(cfg, infoName)
		case providers:
			return printProviders(cfg)
		default:
			printCatalog()
			return nil
		}
	},
}

func printCatalog() {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "MODEL\tPARAMETERS\tREQUIRED VRAM\tRELATIVE SPEED\tWORD ERROR RATE")
	for _, spec := range catalog {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", spec.Name, spec.Params, spec.VRAM, spec.Speed, spec.WER)
	}
	w.Flush()
}

func printInfo(cfg *config.Config, name string) error {
	spec, ok := lo.Find(catalog, func(spec modelSpec) bool {
		return spec.Name == baseSize(name)
	})
	if !ok {
		return fmt.Errorf("models: unknown model %q (sizes: %s)", name, strings.Join(provider.ModelSizes, ", "))
	}

	fmt.Printf("Model: %s\n", name)
	fmt.Printf("  parameters:     %s\n", spec.Params)
	fmt.Printf("  required VRAM:  %s\n", spec.VRAM)
	fmt.Printf("  relative speed: %s\n", spec.Speed)
	fmt.Printf("  word error:     %s\n", spec.WER)
	fmt.Printf("  download size:  %s\n", files.FormatSize(spec.SizeMB*1024*1024))
	if spec.Name != "large" {
		fmt.Printf("  english-only:   %s.en\n", spec.Name)
	}

	path := modelPath(cfg, name)
	if _, err := os.Stat(path); err == nil {
		fmt.Printf("  local file:     %s\n", path)
	} else {
		fmt.Printf("  local file:     %s (not downloaded)\n", path)
	}
	return nil
}

func printProviders(cfg *config.Config) error {
	fmt.Printf("registered types: %s\n\n", strings.Join(provider.RegisteredTypes(), ", "))

	names := lo.Keys(cfg.Providers)
	sort.Strings(names)

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tTYPE\tENABLED\tSTATUS")
	for _, name := range names {
		entry := cfg.Providers[name]
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", name, entry.Type, yesNo(entry.Enabled), providerStatus(entry))
	}
	w.Flush()

	fmt.Printf("\ndefault: %s\n", cfg.DefaultProvider)
	if keys, err := config.ReadAPIKeys(); err != nil {
		fmt.Printf("api keys: %v\n", err)
	} else if available := keys.Available(); len(available) > 0 {
		fmt.Printf("api keys: %s\n", strings.Join(available, ", "))
	} else {
		fmt.Println("api keys: none")
	}
	return nil
}

// providerStatus probes one configured entry. Disabled entries are not
// probed; broken ones report their first validation error.
func providerStatus(entry provider.Config) string {
	if !entry.Enabled {
		return "-"
	}
	p, err := provider.Build(entry)
	if err == nil {
		err = p.ValidateConfig()
	}
	if err != nil {
		return err.Error()
	}
	return "ready"
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

// baseSize strips the english-only suffix so small.en resolves like small.
func baseSize(name string) string {
	return strings.TrimSuffix(name, ".en")
}

// modelPath is where a downloaded model file lives.
func modelPath(cfg *config.Config, name string) string {
	root := cfg.Whisper.DownloadRoot
	if root == "" {
		root = "models"
	}
	return filepath.Join(root, "ggml-"+ggmlName(name)+".bin")
}

package config

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	appconfig "green-needle/internal/config"
)

var (
	show     bool
	setPair  string
	initFile bool
)

func init() {
	Cmd.Flags().BoolVar(&show, "show", false, "print the effective configuration")
	Cmd.Flags().StringVar(&setPair, "set", "", "set one value as key=value, for example whisper.model=small")
	Cmd.Flags().BoolVar(&initFile, "init", false, "write a commented configuration template")
}

// Cmd represents the config command
var Cmd = &cobra.Command{
	Use:   "config",
	Short: "Show or change the configuration",
	Long: `Show or change the configuration.

- --show prints the effective configuration after defaults, file and environment
- --set changes one value by its dotted key and writes the file back
- --init writes a commented template to start from

Without flags the effective configuration is printed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, _ := cmd.Flags().GetString("config")

		switch {
		case initFile:
			return writeTemplate(configPath)
		case setPair != "":
			return setValue(configPath, setPair)
		default:
			return showConfig(configPath)
		}
	},
}

func writeTemplate(configPath string) error {
	path := configPath
	if path == "" {
		path = appconfig.DefaultPath()
	}
	if err := appconfig.WriteTemplate(path); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", path)
	return nil
}

func showConfig(configPath string) error {
	cfg, err := appconfig.Load(configPath)
	if err != nil {
		return err
	}
	dump, err := appconfig.Dump(cfg)
	if err != nil {
		return err
	}
	if path, ok := appconfig.Discover(); configPath != "" {
		fmt.Printf("# file: %s\n", configPath)
	} else if ok {
		fmt.Printf("# file: %s\n", path)
	} else {
		fmt.Println("# no config file found, showing defaults")
	}
	fmt.Print(dump)
	return nil
}

func setValue(configPath, pair string) error {
	key, value, found := strings.Cut(pair, "=")
	if !found || key == "" {
		return fmt.Errorf("config: --set wants key=value, got %q", pair)
	}

	cfg, err := appconfig.Load(configPath)
	if err != nil {
		return err
	}
	if err := appconfig.Set(cfg, key, value); err != nil {
		return err
	}
	if err := appconfig.Validate(cfg); err != nil {
		return err
	}

	target := configPath
	if target == "" {
		if discovered, ok := appconfig.Discover(); ok {
			target = discovered
		} else {
			target = appconfig.DefaultPath()
		}
	}
	if err := appconfig.Save(cfg, target); err != nil {
		return err
	}
	fmt.Printf("set %s = %s in %s\n", key, value, target)
	return nil
}

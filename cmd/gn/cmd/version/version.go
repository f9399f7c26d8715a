package version

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

var version = "v1.0.0"

// Cmd represents the version command
var Cmd = &cobra.Command{
	Use:   "version",
	Short: "Print the green-needle version",
	Long:  `All software has versions. This is green-needle's.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		printVersion()
		return nil
	},
}

func printVersion() {
	fmt.Printf("green-needle %s (%s/%s)\n", version, runtime.GOOS, runtime.GOARCH)
}

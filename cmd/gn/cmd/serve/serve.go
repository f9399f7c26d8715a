package serve

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"green-needle/internal/api/server"
	"green-needle/internal/app"
	"green-needle/internal/config"
)

var (
	host string
	port int
)

// Cmd represents the serve command
var Cmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP transcription API",
	Long: `Start the HTTP server: upload audio for synchronous transcription,
browse past transcriptions, check provider health, and scrape metrics.
Interactive documentation is served at /swagger/index.html.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, _ := cmd.Flags().GetString("config")
		verbose, _ := cmd.Flags().GetBool("verbose")

		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if host != "" {
			cfg.Server.Host = host
		}
		if port != 0 {
			cfg.Server.Port = port
		}

		application, err := app.InitializeApp(cfg, verbose)
		if err != nil {
			return err
		}
		defer application.Close()

		srv := server.New(server.Config{
			Host:        cfg.Server.Host,
			Port:        cfg.Server.Port,
			MaxUploadMB: cfg.Server.MaxUploadMB,
			Development: verbose,
		}, application)

		if err := srv.Start(); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "listening on http://%s:%d\n", displayHost(cfg.Server.Host), cfg.Server.Port)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		<-ctx.Done()
		stop()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	},
}

func init() {
	Cmd.Flags().StringVar(&host, "host", "", "bind address, overrides the configuration")
	Cmd.Flags().IntVar(&port, "port", 0, "listen port, overrides the configuration")
}

func displayHost(host string) string {
	if host == "" {
		return "localhost"
	}
	return host
}

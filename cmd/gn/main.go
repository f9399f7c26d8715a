package main

import (
	"fmt"
	"os"

	"green-needle/cmd/gn/cmd"
	"green-needle/internal/config"

	// Providers register themselves on import.
	_ "green-needle/internal/app/api/elevenlabs"
	_ "green-needle/internal/app/api/gemini"
	_ "green-needle/internal/app/api/openai"
	_ "green-needle/internal/app/api/whisper_cpp"
	_ "green-needle/internal/app/api/whisper_server"
)

func main() {
	if err := config.LoadEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
	}
	cmd.Execute()
}

package main

import (
	"log"
	"os"

	"log/slog"

	"github.com/platewell/qpcr-go/cmd"
	"github.com/platewell/qpcr-go/internal/conf"
	"github.com/platewell/qpcr-go/internal/logging"
)

// version is injected at build time via -ldflags.
var version = "dev"

func main() {
	logging.Init()

	settings, err := conf.Load()
	if err != nil {
		log.Fatalf("error loading configuration: %v", err)
	}
	settings.Version = version
	if settings.Debug {
		logging.SetLevel(slog.LevelDebug)
	}

	rootCmd := cmd.RootCommand(settings)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

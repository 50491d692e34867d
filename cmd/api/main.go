package main

import (
	"flag"
	"os"

	"github.com/miu/unidesk/internal/bootstrap"
	"github.com/miu/unidesk/internal/pkg/logger" // Still needed for initial error logging
	"github.com/miu/unidesk/internal/server"
)

func main() {
	configPath := flag.String("config", bootstrap.DefaultConfigPath, "path to the YAML configuration file")
	flag.Parse()

	// NewServer orchestrates config loading, database setup, dependency wiring and routing
	srv, err := server.NewServer(*configPath)
	if err != nil {
		// Error details are logged within NewServer's setup functions
		logger.Error().Err(err).Msg("Failed to initialize server")
		os.Exit(1)
	}

	// Run blocks until a shutdown signal arrives
	if err := srv.Run(); err != nil {
		logger.Error().Err(err).Msg("Server execution failed or shutdown encountered errors")
		os.Exit(1)
	}

	logger.Info().Msg("Application finished gracefully.")
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/zircuit-labs/mongo-status/cmd/config"
	"github.com/zircuit-labs/mongo-status/cmd/database"
	"github.com/zircuit-labs/mongo-status/cmd/logger"
	"github.com/zircuit-labs/mongo-status/cmd/metrics"
	"github.com/zircuit-labs/mongo-status/cmd/server"
)

func main() {
	// Initialize a basic logger for early startup logging
	log := logger.NewFromConfigStruct("info", "json", "stdout")

	var configFlag string

	// Parse command line arguments
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--config", "-c":
			if len(os.Args) > 2 {
				configFlag = os.Args[2]
			}
		case "--help", "-h":
			printUsage()
			return
		default:
			configFlag = os.Args[1]
		}
	}

	configPath := config.ResolvePath(configFlag)

	cfg, err := config.Load(configPath)
	if err != nil {
		log.LogError("config loading", err, "path", configPath)
		os.Exit(1)
	}

	// Reinitialize logger with configuration settings
	logger.Init(&logger.Config{
		Level:  logger.LogLevel(cfg.Logger.Level),
		Format: cfg.Logger.Format,
		Output: cfg.Logger.Output,
	})
	log = logger.Default()
	log.LogConfig(configPath, cfg.FileFound, cfg.EnvOverrides)

	metricsClient, err := metrics.NewClient(&cfg.Metrics)
	if err != nil {
		log.LogError("metrics initialization", err)
		os.Exit(1)
	}
	defer metricsClient.Close()

	connector := database.NewConnector(database.NewMongoDialer(cfg.Database))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := server.New(cfg, connector, metricsClient, log)
	if err := srv.Run(ctx); err != nil {
		operation := "HTTP server"
		if srv.State() == server.StateTerminated && srv.Addr() == nil {
			operation = "startup"
		}
		log.LogError(operation, err, "state", srv.State().String())
		stop()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  mongo-status [options]")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --config, -c <toml_file>  Load TOML config file (default: config.toml)")
	fmt.Println("  --help, -h                Show this help")
	fmt.Println()
	fmt.Println("Environment Variables:")
	fmt.Println("  PORT                 HTTP listen port (overrides [server] port)")
	fmt.Println("  MONGO_DB_URL         MongoDB connection string (overrides [database] url)")
	fmt.Println("  MONGO_STATUS_CONFIG  Path to config.toml file (default: config.toml)")
	fmt.Println()
	fmt.Println("A .env file in the working directory is loaded when present.")
}

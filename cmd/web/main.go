package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/de-tools/alm-console/pkg/chat"
	"github.com/de-tools/alm-console/pkg/orchestrator"
	"github.com/de-tools/alm-console/pkg/render"
	"github.com/de-tools/alm-console/pkg/server"
	"github.com/de-tools/alm-console/pkg/services/config"
	"github.com/de-tools/alm-console/pkg/session"
	"github.com/de-tools/alm-console/pkg/store/client"
	"github.com/de-tools/alm-console/pkg/store/remote"
	"github.com/de-tools/alm-console/pkg/upload"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	cfgPath string
	version = "dev"
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "web",
		Short: "Start the web server for the ALM console",
		RunE:  runServer,
	}

	rootCmd.Flags().StringVarP(&cfgPath, "config", "c", "",
		"Path to the YAML configuration file (defaults and environment are used when empty)")

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func newLogger(cfg config.LogConfig) zerolog.Logger {
	var logger zerolog.Logger
	if cfg.Pretty {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	} else {
		logger = zerolog.New(os.Stdout)
	}

	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	return logger.Level(level).With().Timestamp().Logger()
}

func runServer(cmd *cobra.Command, _ []string) error {
	if err := godotenv.Load(); err != nil {
		fmt.Printf("Error loading .env file: %v\n", err)
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := newLogger(cfg.Log)
	ctx, cancel := context.WithCancel(logger.WithContext(cmd.Context()))
	defer cancel()

	backend, err := client.New(client.Config{
		BaseURL:    cfg.Backend.URL,
		Token:      cfg.Backend.Token,
		HTTPClient: &http.Client{},
	})
	if err != nil {
		return fmt.Errorf("failed to create backend client: %w", err)
	}

	mode := cfg.Acquisition.Mode
	acquirer, err := orchestrator.NewAcquirer(mode, backend, cfg.Acquisition.AnalyzeTimeout)
	if err != nil {
		return err
	}

	locator, err := remote.NewS3Locator(ctx, remote.Config{
		Bucket:  cfg.Store.Bucket,
		Prefix:  cfg.Store.Prefix,
		Region:  cfg.Store.Region,
		Profile: cfg.Store.Profile,
	})
	if err != nil {
		return fmt.Errorf("failed to create remote file locator: %w", err)
	}

	renderer := render.New(chat.NewMarkdown())
	sessions := session.NewStore(mode, cfg.Session.TTL)
	go sessions.Run(ctx, cfg.Session.EvictInterval)

	logger.Info().
		Str("mode", string(mode)).
		Str("backend", cfg.Backend.URL).
		Bool("remote_store", cfg.Store.Bucket != "").
		Msg("configuration loaded")

	api := server.NewWebAPI(server.Config{
		Addr:            cfg.Server.Addr(),
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		Dependencies: server.Dependencies{
			Sessions: sessions,
			Orchestrator: orchestrator.New(acquirer, backend, renderer, orchestrator.Delays{
				Context:   cfg.Delays.Context,
				Fallback:  cfg.Delays.Fallback,
				NoContext: cfg.Delays.NoContext,
			}),
			Uploader: upload.NewUploader(backend, cfg.Acquisition.UploadTimeout),
			Chat:     chat.NewController(backend),
			Renderer: renderer,
			Backend:  backend,
			Locator:  locator,
			Version:  version,
			Logger:   logger,
		},
	})

	return api.Start(ctx)
}

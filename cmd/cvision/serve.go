package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/emposo/cvision/internal/analysis"
	"github.com/emposo/cvision/internal/auth"
	"github.com/emposo/cvision/internal/chat"
	"github.com/emposo/cvision/internal/config"
	"github.com/emposo/cvision/internal/employees"
	"github.com/emposo/cvision/internal/llm"
	"github.com/emposo/cvision/internal/logging"
	"github.com/emposo/cvision/internal/matching"
	"github.com/emposo/cvision/internal/search"
	"github.com/emposo/cvision/internal/server"
)

var (
	servePort    int
	serveLogJSON bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  `Start an HTTP server that exposes the analysis, matching, chat and directory endpoints.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (overrides PORT)")
	serveCmd.Flags().BoolVar(&serveLogJSON, "log-json", true, "Emit logs as JSON")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg := config.Load()
	if servePort != 0 {
		cfg.Port = servePort
	}

	logger, err := logging.New(serveLogJSON, cfg.Debug)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Sync()

	ctx := cmd.Context()
	services, cleanup, err := buildServices(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	srv := server.New(server.Config{
		Port:        cfg.Port,
		AppVersion:  cfg.AppVersion,
		CORSOrigins: cfg.CORSOrigins,
	}, services, logger)

	return srv.Start()
}

// buildServices wires the collaborators. Missing credentials degrade the
// affected service rather than aborting startup; only a malformed connection
// attempt is fatal.
func buildServices(ctx context.Context, cfg *config.Config, logger *zap.Logger) (server.Services, func(), error) {
	var services server.Services
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	searchClient := search.NewClient(search.Config{
		Addr:      cfg.RedisAddr,
		Password:  cfg.RedisPassword,
		DB:        cfg.RedisDB,
		IndexName: cfg.SearchIndex,
	})
	closers = append(closers, func() { searchClient.Close() })
	services.Searcher = searchClient

	if cfg.GeminiAPIKey != "" {
		gemini, err := llm.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.ChatModel, cfg.EmbeddingModel)
		if err != nil {
			cleanup()
			return server.Services{}, nil, fmt.Errorf("failed to create gemini client: %w", err)
		}
		closers = append(closers, func() { gemini.Close() })

		services.Matcher = matching.NewMatcher(gemini, gemini, searchClient, nil, logger)
		services.Analyzer = analysis.NewAnalyzer(gemini, logger)
		services.Chat = chat.NewStreamer(gemini, gemini, searchClient, logger)
	} else {
		logger.Warn("GEMINI_API_KEY not set; analysis, matching and chat disabled")
	}

	if cfg.DatabaseURL != "" {
		store, err := employees.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Warn("employee directory unavailable", zap.Error(err))
		} else {
			closers = append(closers, store.Close)
			services.Employees = store
		}
	} else {
		logger.Warn("DATABASE_URL not set; employee directory disabled")
	}

	services.Auth = auth.NewValidator(cfg.TenantID, cfg.ClientID, logger)

	return services, cleanup, nil
}

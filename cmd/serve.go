package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/kyotake/machivoice/internal/chat"
	"github.com/kyotake/machivoice/internal/chatlog"
	"github.com/kyotake/machivoice/internal/config"
	"github.com/kyotake/machivoice/internal/db"
	"github.com/kyotake/machivoice/internal/feedback"
	"github.com/kyotake/machivoice/internal/geo"
	"github.com/kyotake/machivoice/internal/llm"
	"github.com/kyotake/machivoice/internal/logging"
	"github.com/kyotake/machivoice/internal/metrics"
	"github.com/kyotake/machivoice/internal/server"
	"github.com/kyotake/machivoice/internal/summarize"
	"github.com/kyotake/machivoice/internal/survey"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the machivoice feedback server",
	Long:  `Starts the machivoice HTTP server with the feedback intake API, chat endpoints, survey endpoints and Prometheus metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Local .env is optional; environment may already be set.
		_ = godotenv.Load()

		cfg, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if cmd.Flags().Changed("port") {
			cfg.Port = servePort
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}

		logLevel := cfg.LogLevel
		if verbose {
			logLevel = "debug"
		}
		logger := logging.New(logging.Config{Level: logLevel, Pretty: cfg.LogPretty})

		registry := prometheus.NewRegistry()
		m := metrics.New(registry)

		if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
			return fmt.Errorf("creating data dir: %w", err)
		}
		dbPath := filepath.Join(cfg.DataDir, "machivoice.db")
		database, err := db.Open(dbPath)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer database.Close()

		provider, err := llm.NewProvider(string(cfg.Provider), cfg.Model)
		if err != nil {
			return fmt.Errorf("creating LLM provider: %w", err)
		}
		if cfg.ModelRPM > 0 {
			provider = llm.NewRateLimitedProvider(provider, cfg.ModelRPM)
		}

		policy, err := loadPolicy(cfg.PolicyFile)
		if err != nil {
			return err
		}

		resolver := geo.NewNominatimClient(cfg.GeocoderURL, cfg.GeocoderUserAgent)

		opinionStore := feedback.NewStore(database)
		chatLogStore := chatlog.NewStore(database)
		surveyStore := survey.NewStore(database)

		committer := feedback.NewCommitter(resolver, opinionStore, logger, m)
		engine := feedback.NewEngine(provider, cfg.Model, policy, committer, logger, m)

		srv := server.New(server.Config{
			Port:     cfg.Port,
			DataDir:  cfg.DataDir,
			AllowAll: cfg.CORSAllowAll,
		}, database, logger, registry)

		r := srv.Router()
		feedback.RegisterRoutes(r, engine, opinionStore, chatLogStore, logger)
		chat.RegisterRoutes(r, chat.NewService(provider, cfg.Model))
		summarize.RegisterRoutes(r, summarize.NewService(provider, cfg.Model))
		survey.RegisterRoutes(r, survey.NewService(provider, cfg.Model, surveyStore), surveyStore)

		// Graceful shutdown.
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		go func() {
			<-ctx.Done()
			logger.Info().Msg("shutting down server")
			srv.Shutdown(context.Background())
		}()

		logger.Info().
			Str("version", Version).
			Int("port", cfg.Port).
			Str("db", dbPath).
			Str("provider", provider.Name()).
			Str("model", cfg.Model).
			Msg("machivoice starting")

		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	},
}

// loadPolicy reads the system-prompt override file if one is configured.
// An empty path means the built-in intake policy is used.
func loadPolicy(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading policy file %s: %w", path, err)
	}
	return string(data), nil
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 8080, "Port to listen on")
	rootCmd.AddCommand(serveCmd)
}

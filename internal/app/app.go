package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/viper"

	"socratic-coach/backend/internal/api"
	"socratic-coach/backend/internal/auth"
	"socratic-coach/backend/internal/config"
	"socratic-coach/backend/internal/database"
	"socratic-coach/backend/internal/llm"
	"socratic-coach/backend/internal/metrics"
	"socratic-coach/backend/internal/repository"
	"socratic-coach/backend/internal/service"
)

const (
	ollamaReadyAttempts = 20
	ollamaRetryInterval = 3 * time.Second
	shutdownTimeout     = 15 * time.Second
)

// App holds the long-lived pieces of a running server.
type App struct {
	DB       *sql.DB
	Server   *http.Server
	Metrics  *metrics.Metrics
	Provider llm.LLMProvider
}

func Run() int {
	cfg, err := config.LoadConfig()
	if err != nil {
		// slog is not yet configured, so use the default logger for this critical error.
		slog.Error("Failed to load configuration", "error", err)
		return 1
	}

	setupLogger(cfg.LogLevel)

	logConfigSource()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if strings.EqualFold(cfg.LLMProvider, config.ProviderOllama) {
		if err := waitForOllama(ctx, cfg.OllamaURL, ollamaReadyAttempts, ollamaRetryInterval); err != nil {
			slog.Error("Ollama did not become ready", "url", cfg.OllamaURL, "error", err)
			return 1
		}
	}

	app, err := NewApp(cfg)
	if err != nil {
		slog.Error("Failed to initialize application", "error", err)
		return 1
	}
	defer func() {
		if err := app.DB.Close(); err != nil {
			slog.Error("Failed to close database connection", "error", err)
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Starting server", "port", cfg.AppPort, "llm_provider", app.Provider.Name(), "auth_mode", cfg.AuthMode)
		errCh <- app.Server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			return 1
		}
	case <-ctx.Done():
		slog.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := app.Server.Shutdown(shutdownCtx); err != nil {
			slog.Error("Graceful shutdown failed", "error", err)
			return 1
		}
	}

	return 0
}

// NewApp opens the database and wires every service and handler. The server
// is returned unstarted.
func NewApp(cfg *config.Config) (*App, error) {
	provider, err := newProvider(cfg)
	if err != nil {
		return nil, err
	}

	db, err := database.InitDB(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	slog.Info("Successfully connected to SQLite database.", "path", cfg.DatabasePath)

	m := metrics.New()
	provider = metrics.InstrumentProvider(provider, m)
	repo := repository.NewSQLiteRepository(db)

	coachService := service.NewCoachService(provider)
	conversationService := service.NewConversationService(repo)
	documentService := service.NewDocumentService(cfg.MaxUploadBytes, cfg.MaxDocumentChars, cfg.UploadDir, m)

	timeout := cfg.LLMTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	router := api.NewRouter(api.RouterDeps{
		Coach:         api.NewCoachHandler(coachService),
		Conversations: api.NewConversationHandler(conversationService),
		Documents:     api.NewDocumentHandler(documentService),
		Auth:          api.NewAuthHandler(),
		RequireUser:   newAuthMiddleware(cfg, repo),
		Metrics:       m,
		RouteTimeout:  timeout + 10*time.Second,
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.AppPort),
		Handler:           router,
		ReadHeaderTimeout: 20 * time.Second,
		WriteTimeout:      timeout + 30*time.Second,
		IdleTimeout:       120 * time.Second,
	}

	return &App{DB: db, Server: server, Metrics: m, Provider: provider}, nil
}

func newProvider(cfg *config.Config) (llm.LLMProvider, error) {
	switch strings.ToLower(cfg.LLMProvider) {
	case config.ProviderOpenAI:
		if cfg.OpenAIAPIKey == "" {
			slog.Warn("OPENAI_API_KEY is empty; every generation will fall back")
		}
		return llm.NewOpenAIProvider(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel, cfg.LLMTimeout), nil
	case config.ProviderOllama:
		return llm.NewOllamaProvider(cfg.OllamaURL, cfg.OllamaModel, cfg.LLMTimeout), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", cfg.LLMProvider)
	}
}

// newAuthMiddleware returns nil in anonymous mode.
func newAuthMiddleware(cfg *config.Config, store auth.UserStore) func(http.Handler) http.Handler {
	switch strings.ToLower(cfg.AuthMode) {
	case config.AuthExternal:
		provider := auth.NewRemoteProvider(cfg.AuthUserInfoURL, cfg.AuthSessionCookie, 10*time.Second)
		return auth.Middleware(provider, store)
	case config.AuthDev:
		slog.Warn("Running with the development identity; every request is the same user", "user_id", cfg.DevUserID)
		return auth.Middleware(&auth.DevProvider{UserID: cfg.DevUserID, Email: cfg.DevUserID + "@localhost"}, store)
	default:
		return nil
	}
}

func logConfigSource() {
	configFileUsed := viper.ConfigFileUsed()
	if configFileUsed != "" {
		slog.Info("Successfully loaded configuration from file.", "file", configFileUsed)
	} else {
		slog.Info("Configuration file not found. Using environment variables and defaults.")
	}
}

func setupLogger(logLevel string) {
	var level slog.Level
	switch strings.ToUpper(logLevel) {
	case "DEBUG":
		level = slog.LevelDebug
	case "WARN":
		level = slog.LevelWarn
	case "ERROR":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
}

// waitForOllama polls the Ollama root endpoint until it answers, the
// attempts run out or ctx is cancelled.
func waitForOllama(ctx context.Context, ollamaURL string, attempts int, interval time.Duration) error {
	slog.Info("Waiting for Ollama to be ready...")
	var err error
	for i := 0; i < attempts; i++ {
		if err = llm.Ping(ctx, ollamaURL); err == nil {
			slog.Info("Ollama is ready.")
			return nil
		}
		slog.Debug("Ollama not ready yet, retrying...", "url", ollamaURL, "attempt", i+1, "error", err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
	}
	return fmt.Errorf("gave up after %d attempts: %w", attempts, err)
}

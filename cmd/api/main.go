package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/jwebster45206/ludus/internal/config"
	"github.com/jwebster45206/ludus/internal/handlers"
	"github.com/jwebster45206/ludus/internal/logger"
	"github.com/jwebster45206/ludus/internal/middleware"
	"github.com/jwebster45206/ludus/internal/services"
	"github.com/jwebster45206/ludus/internal/session"
	"github.com/jwebster45206/ludus/internal/storage"
	"github.com/jwebster45206/ludus/pkg/werewolf"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	log := logger.Setup(cfg)

	log.Info("Starting Ludus API",
		"port", cfg.Port,
		"environment", cfg.Environment,
		"llm_provider", cfg.LLMProvider,
		"model_name", cfg.ModelName)

	var llmService services.LLMService
	switch strings.ToLower(cfg.LLMProvider) {
	case "anthropic":
		if cfg.AnthropicAPIKey == "" {
			log.Error("Anthropic API key is required when using anthropic provider")
			os.Exit(1)
		}
		llmService = services.NewAnthropicService(cfg.AnthropicAPIKey, cfg.ModelName, log)
		log.Info("Using Anthropic LLM provider")
	case "venice":
		if cfg.VeniceAPIKey == "" {
			log.Error("Venice API key is required when using venice provider")
			os.Exit(1)
		}
		llmService = services.NewVeniceService(cfg.VeniceAPIKey, cfg.ModelName)
		log.Info("Using Venice LLM provider")
	case "ollama":
		llmService = services.NewOllamaService(cfg.OllamaURL, cfg.ModelName, log)
		log.Info("Using Ollama LLM provider")
	default:
		log.Error("Invalid LLM provider specified", "provider", cfg.LLMProvider, "supported", []string{"anthropic", "venice", "ollama"})
		os.Exit(1)
	}

	store := storage.NewRedisStorage(cfg.RedisURL, log)
	storageCtx, storageCancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer storageCancel()

	if err := store.WaitForConnection(storageCtx); err != nil {
		log.Error("Failed to connect to storage", "error", err)
		os.Exit(1)
	}
	log.Info("Storage connection established successfully")

	// Initialize the model on startup
	initCtx, initCancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer initCancel()
	if err := llmService.InitModel(initCtx, cfg.ModelName); err != nil {
		log.Error("Failed to initialize LLM model", "error", err, "model", cfg.ModelName)
		os.Exit(1)
	}

	wcfg := werewolf.Config{}
	if cfg.PromptsFile != "" {
		prompts, err := werewolf.LoadPrompts(cfg.PromptsFile)
		if err != nil {
			log.Error("Failed to load prompts file", "error", err, "path", cfg.PromptsFile)
			os.Exit(1)
		}
		wcfg.Prompts = prompts
		log.Info("Loaded prompt overrides", "path", cfg.PromptsFile)
	}

	registry := session.DefaultGames(wcfg)
	manager := session.NewManager(registry, llmService, store, log, cfg.QueueSize, cfg.SessionRetention)

	mux := http.NewServeMux()

	healthHandler := handlers.NewHealthHandler(store, log)
	mux.Handle("/health", healthHandler)

	gamesHandler := handlers.NewGamesHandler(registry, log)
	mux.Handle("/v1/games", gamesHandler)

	profilesHandler := handlers.NewProfilesHandler(store, log)
	mux.Handle("/v1/profiles", profilesHandler)
	mux.Handle("/v1/profiles/", profilesHandler)

	sessionsHandler := handlers.NewSessionsHandler(manager, store, log)
	socketHandler := handlers.NewSocketHandler(manager, log)
	mux.Handle("/v1/sessions", sessionsHandler)
	mux.HandleFunc("/v1/sessions/", func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/ws") {
			socketHandler.ServeHTTP(w, r)
			return
		}
		sessionsHandler.ServeHTTP(w, r)
	})

	handler := middleware.Logger(mux)
	server := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     handler,
		ReadTimeout: 15 * time.Second,
		// WriteTimeout left unset for long-lived websocket connections
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		log.Info("Server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Server is shutting down...")

	manager.StopAll()

	if err := store.Close(); err != nil {
		log.Error("Error closing storage connection", "error", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	log.Info("Server exited")
}

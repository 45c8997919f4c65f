package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/callvia/callvia/internal/analysis"
	"github.com/callvia/callvia/internal/api"
	"github.com/callvia/callvia/internal/identity"
	"github.com/callvia/callvia/internal/notify"
	"github.com/callvia/callvia/internal/orchestrator"
	"github.com/callvia/callvia/internal/stores/calls"
	"github.com/callvia/callvia/pkg/llm"
	"github.com/callvia/callvia/pkg/utils"
	"github.com/go-sql-driver/mysql"
	"github.com/robfig/cron/v3"
)

// Start the API server
func main() {
	// Find env file
	envFile := ".env"
	if os.Getenv("ENV_FILE") != "" {
		envFile = os.Getenv("ENV_FILE")
	}

	// Load global config
	cfg := utils.NewConfigFromEnv(envFile)

	// Create MySQL config
	dbConfig := mysql.Config{
		User:      cfg.Get("MYSQL_USER"),
		Passwd:    cfg.Get("MYSQL_ROOT_PASSWORD"),
		Net:       "tcp",
		Addr:      fmt.Sprintf("%s:%s", cfg.Get("MYSQL_HOST"), cfg.Get("MYSQL_PORT")),
		DBName:    cfg.Get("MYSQL_DATABASE"),
		ParseTime: true,
	}

	// Initialize the call store
	store, err := calls.NewMySqlStore(dbConfig.FormatDSN())
	if err != nil {
		log.Fatalf("[API-MAIN]: Failed to initialize call store: %v", err)
	}

	// The identity resolver shares the store's database connection
	resolver, err := identity.NewMySqlResolverWithDB(store.GetDB())
	if err != nil {
		log.Fatalf("[API-MAIN]: Failed to initialize identity resolver: %v", err)
	}

	// Create the language model client
	model, err := llm.NewOpenAIClient(cfg)
	if err != nil {
		log.Fatalf("[API-MAIN]: Failed to initialize model client: %v", err)
	}

	// Notifications go to a webhook when configured, otherwise the log
	var notifier analysis.Notifier = &notify.LogNotifier{}
	if callbackURL := cfg.Get("NOTIFY_CALLBACK_URL"); callbackURL != "" {
		notifier = notify.NewWebhookNotifier(callbackURL, cfg.Get("NOTIFY_CLIENT_SECRET"))
	}

	// Start the analysis pipeline
	pipeline := analysis.NewPipeline(model, store, notifier, cfg.GetIntWithDefault("ANALYSIS_QUEUE_DEPTH", 100))

	// Create the orchestrator
	orch, err := orchestrator.NewOrchestrator(cfg, &orchestrator.Options{
		Resolver: resolver,
		Model:    model,
		Store:    store,
		Analyzer: pipeline,
	})
	if err != nil {
		log.Fatalf("[API-MAIN]: Failed to initialize orchestrator: %v", err)
	}

	// Janitor behind the per-session deadline timers
	janitor := cron.New()
	janitor.AddFunc("@every 1m", func() {
		if reaped := orch.ReapExpired(); reaped > 0 {
			log.Printf("[API-MAIN]: Janitor reaped %d expired sessions", reaped)
		}
	})
	janitor.Start()

	// Start the server
	go api.Start(cfg, orch)

	// Wait for a shutdown signal, then drain: sessions first so the
	// pipeline still receives them, then the pipeline itself
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("[API-MAIN]: Shutting down")
	janitor.Stop()
	orch.Shutdown(context.Background())
	pipeline.Stop()

	if err := store.Close(); err != nil {
		log.Printf("[API-MAIN]: Failed to close store: %v", err)
	}
}

package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"timed-quiz-service/internal/app"
	"timed-quiz-service/internal/config"
	"timed-quiz-service/internal/domain"
	"timed-quiz-service/internal/infra/memory"
	pgloader "timed-quiz-service/internal/infra/postgres"
	redisinfra "timed-quiz-service/internal/infra/redis"
	transport "timed-quiz-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz session server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	snapshotTTL := config.TTLDuration(cfg.Snapshot.TTL, 24*time.Hour)
	documentTTL := config.TTLDuration(cfg.Documents.TTL, 10*time.Minute)

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
	}

	var loader memory.DocumentLoader = memory.NewStaticDocumentLoader(sampleDocuments())
	if pool != nil {
		loader = pgloader.NewDocumentLoader(pool)
	}

	var docs app.DocumentRepository
	if redisClient != nil {
		docs = redisinfra.NewDocumentRepository(redisClient, loader, documentTTL)
	} else {
		docs = memory.NewDocumentRepository(loader, documentTTL)
	}

	var snapshots app.SnapshotStore
	if redisClient != nil {
		snapshots = redisinfra.NewSnapshotStore(redisClient, snapshotTTL)
	} else {
		snapshots = memory.NewSnapshotStore()
	}
	service := app.NewSessionService(docs, snapshots)
	wsHandler := transport.NewWSHandler(service)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", wsHandler.ServeWS)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting quiz session service on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// sampleDocuments provides minimal quiz content for running without Postgres.
func sampleDocuments() map[string]domain.QuizDocument {
	return map[string]domain.QuizDocument{
		"quiz-1": {
			ID:            "quiz-1",
			Title:         "Arithmetic warm-up",
			TimeLimitSec:  120,
			PassThreshold: 0.7,
			Questions: []domain.SourceQuestion{
				{
					ID:           "q1",
					Text:         "What is 2 + 2?",
					Options:      []string{"3", "4", "5"},
					CorrectIndex: 1,
				},
				{
					ID:           "q2",
					Text:         "What is 3 * 3?",
					Options:      []string{"9", "6", "12"},
					CorrectIndex: 0,
				},
			},
		},
	}
}

package cli

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"quiz-admin-console/internal/app"
	"quiz-admin-console/internal/config"
	"quiz-admin-console/internal/infra/memory"
	pglog "quiz-admin-console/internal/infra/postgres"
	redislog "quiz-admin-console/internal/infra/redis"
	transport "quiz-admin-console/internal/transport/http"
)

// NewServeCmd builds the CLI subcommand to start the backend.
func NewServeCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the quiz backend",
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

	var updateLog app.UpdateLog = memory.NewUpdateLog()
	switch {
	case cfg.Postgres.URL != "":
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
		updateLog = pglog.NewUpdateLog(pool)
	case cfg.Redis.Addr != "":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		updateLog = redislog.NewUpdateLog(client, config.Duration(cfg.Redis.TTL, 0))
	}

	session := app.NewQuizSession(updateLog, cfg.NumberOfQuestions())
	if cfg.Quiz.ID != "" {
		if err := session.StartQuiz(ctx, cfg.Quiz.ID, cfg.Quiz.Language); err != nil {
			return err
		}
		log.Printf("resumed quiz %q", cfg.Quiz.ID)
	}

	apiHandler := transport.NewAPIHandler(session)
	wsHandler := transport.NewWSHandler(session)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	apiHandler.Register(mux)
	mux.HandleFunc("/ws", wsHandler.ServeWS)

	server := &http.Server{
		Addr:    ":" + finalPort,
		Handler: mux,
		// No WriteTimeout: getUpdates may legitimately hold a response
		// open for the full long-poll budget.
		ReadHeaderTimeout: 15 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Printf("starting quiz backend on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		log.Println("shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

package cli

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"go.uber.org/zap"

	"medicohub-assessment-service/internal/app"
	"medicohub-assessment-service/internal/config"
	"medicohub-assessment-service/internal/domain"
	"medicohub-assessment-service/internal/infra/memory"
	pginfra "medicohub-assessment-service/internal/infra/postgres"
	redisinfra "medicohub-assessment-service/internal/infra/redis"
	transport "medicohub-assessment-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the assessment server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	logger, err := zap.NewProduction()
	if err != nil {
		return err
	}
	defer logger.Sync()

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

	var (
		writer      app.AssessmentWriter
		loader      memory.AssessmentLoader
		attempts    app.AttemptRepository
		leaderboard app.LeaderboardStore
		groups      app.GroupRepository
		comps       app.CompetitionRepository
	)
	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
		sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.Postgres.URL)))
		db := bun.NewDB(sqldb, pgdialect.New())
		defer db.Close()

		writer = pginfra.NewAssessmentRepository(db)
		loader = pginfra.NewAssessmentLoader(pool)
		attempts = pginfra.NewAttemptRepository(db)
		leaderboard = pginfra.NewLeaderboardStore(db)
		groups = pginfra.NewGroupRepository(db)
		comps = pginfra.NewCompetitionRepository(db)
	} else {
		store := memory.NewAssessmentStore().Seed(sampleAssessments()...)
		writer = store
		loader = store
		attempts = memory.NewAttemptRepository()
		leaderboard = memory.NewLeaderboardStore()
		groups = memory.NewGroupRepository()
		comps = memory.NewCompetitionRepository()
	}

	cacheTTL := config.TTLDuration(cfg.Cache.TTL, 10*time.Minute)
	var reader app.AssessmentReader
	if redisClient != nil {
		reader = redisinfra.NewAssessmentCache(redisClient, loader, cacheTTL)
		// The live XP board moves to Redis when available; its credits
		// are atomic increments.
		leaderboard = redisinfra.NewLeaderboardStore(redisClient)
	} else {
		reader = memory.NewAssessmentCache(loader, cacheTTL)
	}

	if len(cfg.Admins) == 0 {
		logger.Warn("no admin emails configured; authoring endpoints are disabled")
	}

	assessments := app.NewAssessmentService(writer, reader, logger)
	submissions := app.NewSubmissionService(reader, attempts, leaderboard, logger)
	groupService := app.NewGroupService(groups, logger)
	competitions := app.NewCompetitionService(comps, groups, reader, submissions,
		app.CompetitionConfig{EnforceWindow: cfg.Competitions.EnforceWindow}, logger)

	handler := transport.NewHandler(assessments, submissions, competitions, groupService, cfg.Admins, logger)
	wsHandler := transport.NewWSHandler(competitions, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	handler.Register(mux)
	mux.HandleFunc("GET /ws/standings", wsHandler.ServeWS)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		logger.Info("starting assessment service", zap.String("port", finalPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("failed to start server", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		logger.Info("shutting down server...")
	case <-ctx.Done():
		logger.Info("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// sampleAssessments seeds the in-memory store so the service is usable
// without a database; production runs configure Postgres instead.
func sampleAssessments() []domain.Assessment {
	return []domain.Assessment{
		{
			ID:         "quiz-anatomy-1",
			Type:       domain.TypeQuiz,
			Title:      "Basic Human Anatomy",
			Topic:      "anatomy",
			Difficulty: "easy",
			Questions: []domain.Question{
				{
					ID:            "q1",
					Prompt:        "How many chambers does the human heart have?",
					Options:       []string{"2", "3", "4", "5"},
					CorrectAnswer: "4",
				},
				{
					ID:            "q2",
					Prompt:        "Which organ produces insulin?",
					Options:       []string{"Liver", "Pancreas", "Kidney", "Spleen"},
					CorrectAnswer: "Pancreas",
				},
			},
			CreatedAt: time.Now(),
		},
	}
}

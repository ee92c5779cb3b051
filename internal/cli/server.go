package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"trivia-match-service/internal/app"
	"trivia-match-service/internal/config"
	"trivia-match-service/internal/domain"
	"trivia-match-service/internal/infra/memory"
	infranats "trivia-match-service/internal/infra/nats"
	pgloader "trivia-match-service/internal/infra/postgres"
	infraredis "trivia-match-service/internal/infra/redis"
	transport "trivia-match-service/internal/transport/http"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the trivia server",
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
	setupLogging(firstNonEmpty(logLevel, cfg.Log.Level), cfg.Log.Format)

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := firstNonEmpty(portFlag, cfg.Server.Port, "8080")

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
	}
	redisTTL := config.Duration(cfg.Redis.TTL, 10*time.Minute)

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
	}

	loader, err := questionLoader(cfg, pool)
	if err != nil {
		return err
	}

	questionTTL := config.Duration(cfg.Questions.TTL, 10*time.Minute)
	var questions app.QuestionRepository
	if redisClient != nil {
		questions = infraredis.NewQuestionRepository(redisClient, loader, questionTTL)
	} else {
		questions = memory.NewQuestionRepository(loader, questionTTL)
	}

	var registry app.Registry
	if redisClient != nil {
		redisRegistry := infraredis.NewRegistry(redisClient, redisTTL)
		defer redisRegistry.Close()
		registry = redisRegistry
	} else {
		registry = memory.NewRegistry()
	}

	var sinks []app.EventSink
	if cfg.NATS.URL != "" {
		natsCfg := infranats.DefaultConfig()
		natsCfg.URL = cfg.NATS.URL
		if cfg.NATS.SubjectPrefix != "" {
			natsCfg.SubjectPrefix = cfg.NATS.SubjectPrefix
		}
		publisher, err := infranats.NewPublisher(natsCfg)
		if err != nil {
			return err
		}
		defer publisher.Close()
		sinks = append(sinks, publisher)
	}

	shuffle := cfg.ShuffleEnabled()
	service := app.NewMatchService(registry, questions, app.Options{
		Defaults: app.SessionConfig{
			Capacity:         cfg.Match.Capacity,
			TimeBudget:       config.Duration(cfg.Match.TimeBudget, app.DefaultTimeBudget),
			ResultsDelay:     config.Duration(cfg.Match.ResultsDelay, app.DefaultResultsDelay),
			QuestionSetID:    firstNonEmpty(cfg.Questions.SetID, defaultQuestionSet),
			QuestionsPerGame: cfg.Match.QuestionsPerGame,
			Shuffle:          &shuffle,
		},
		ReclaimAfter: config.Duration(cfg.Match.ReclaimAfter, app.DefaultReclaimAfter),
		Sinks:        sinks,
	})

	server := &http.Server{
		Addr:        ":" + finalPort,
		Handler:     transport.NewRouter(service, cfg.Server.AllowedOrigins),
		ReadTimeout: 15 * time.Second,
	}

	go func() {
		log.Info().Str("port", finalPort).Str("questions", firstNonEmpty(cfg.Questions.Source, "static")).Msg("starting trivia service")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("failed to start server")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Info().Msg("shutting down server...")
	case <-ctx.Done():
		log.Info().Msg("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func questionLoader(cfg config.Config, pool *pgxpool.Pool) (app.QuestionLoader, error) {
	switch cfg.Questions.Source {
	case "", "static":
		return memory.NewStaticLoader(sampleQuestionSets()...), nil
	case "file":
		if cfg.Questions.File == "" {
			return nil, fmt.Errorf("questions.file not configured")
		}
		return memory.NewFileLoader(cfg.Questions.File), nil
	case "postgres":
		if pool == nil {
			return nil, fmt.Errorf("questions.source is postgres but postgres.url is empty")
		}
		return pgloader.NewQuestionLoader(pool), nil
	default:
		return nil, fmt.Errorf("unknown questions.source %q", cfg.Questions.Source)
	}
}

const defaultQuestionSet = "general"

// sampleQuestionSets provides a minimal built-in set; point questions.source
// at a file or Postgres for real content.
func sampleQuestionSets() []domain.QuestionSet {
	return []domain.QuestionSet{
		{
			ID:   defaultQuestionSet,
			Name: "General knowledge",
			Questions: []domain.Question{
				{ID: "g1", Prompt: "What is 2 + 2?", Options: []string{"3", "4", "5", "22"}, Answer: "4", Difficulty: domain.DifficultyEasy, Category: "math"},
				{ID: "g2", Prompt: "Which planet is known as the Red Planet?", Options: []string{"Venus", "Mars", "Jupiter", "Mercury"}, Answer: "Mars", Difficulty: domain.DifficultyEasy, Category: "science"},
				{ID: "g3", Prompt: "What is the capital of Australia?", Options: []string{"Sydney", "Melbourne", "Canberra", "Perth"}, Answer: "Canberra", Difficulty: domain.DifficultyMedium, Category: "geography"},
				{ID: "g4", Prompt: "In which year did the Berlin Wall fall?", Options: []string{"1987", "1989", "1991", "1993"}, Answer: "1989", Difficulty: domain.DifficultyMedium, Category: "history"},
				{ID: "g5", Prompt: "What is the chemical symbol for tungsten?", Options: []string{"Tu", "Tg", "W", "Wo"}, Answer: "W", Difficulty: domain.DifficultyHard, Category: "science"},
			},
		},
	}
}

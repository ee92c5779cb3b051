package cli

import (
	"context"
	"fmt"

	"trivia-match-service/internal/config"
	"trivia-match-service/internal/infra/memory"
	pgloader "trivia-match-service/internal/infra/postgres"
	infraredis "trivia-match-service/internal/infra/redis"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// NewSeedCmd loads question sets from a JSON file into Postgres.
func NewSeedCmd(configPath *string) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Import question sets from a JSON file into Postgres",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(cmd.Context(), *configPath, file)
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "question file to import, defaults to questions.file")
	return cmd
}

func runSeed(ctx context.Context, configPath, file string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	setupLogging(firstNonEmpty(logLevel, cfg.Log.Level), cfg.Log.Format)

	file = firstNonEmpty(file, cfg.Questions.File)
	if file == "" {
		return fmt.Errorf("no question file given")
	}
	if err := runMigrationsWithConfig(ctx, cfg); err != nil {
		return err
	}

	sets, err := memory.ReadQuestionFile(file)
	if err != nil {
		return err
	}

	pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pool.Close()

	store := pgloader.NewQuestionLoader(pool)

	// Drop cached copies so running servers pick up the new content.
	var cache *infraredis.QuestionRepository
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer client.Close()
		cache = infraredis.NewQuestionRepository(client, store, 0)
	}

	for _, set := range sets {
		if err := store.SaveQuestionSet(ctx, set); err != nil {
			return err
		}
		if cache != nil {
			if err := cache.Invalidate(ctx, set.ID); err != nil {
				log.Warn().Err(err).Str("question_set", set.ID).Msg("redis question cache invalidation failed")
			}
		}
		log.Info().Str("question_set", set.ID).Int("questions", len(set.Questions)).Msg("question set imported")
	}
	return nil
}

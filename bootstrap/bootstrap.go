// Package bootstrap assembles the server: store, Redis, demo dataset and the Fiber app.
package bootstrap

import (
	"context"

	"lifelines-backend/internal/application/seed"
	"lifelines-backend/internal/config"
	"lifelines-backend/internal/interfaces/router"
	"lifelines-backend/internal/metrics"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type Server struct {
	App *fiber.App
	DB  *gorm.DB
	Rdb *redis.Client
}

func hashPassword(p string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(p), bcrypt.DefaultCost)
	return string(b), err
}

// New builds the server from cfg. With SeedOnStart the demo dataset is loaded
// into an empty store.
func New(ctx context.Context, cfg *config.Config) (*Server, error) {
	app, db, rdb, err := router.CreateApp(cfg, metrics.New())
	if err != nil {
		return nil, err
	}
	if cfg.SeedOnStart {
		if err := SeedIfEmpty(ctx, db); err != nil {
			return nil, err
		}
	}
	return &Server{App: app, DB: db, Rdb: rdb}, nil
}

// SeedIfEmpty loads the demo dataset when the store has no actors.
func SeedIfEmpty(ctx context.Context, db *gorm.DB) error {
	empty, err := seed.IsEmpty(ctx, db)
	if err != nil || !empty {
		return err
	}
	if err := seed.Load(ctx, db, seed.SystemActor, hashPassword); err != nil {
		return err
	}
	log.Info().Int("actors", len(seed.DemoIdentities)).Msg("demo dataset loaded")
	return nil
}

package config

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/shopfront/internal/models"
	pkgconfig "github.com/Skotchmaster/shopfront/pkg/config"
	"github.com/Skotchmaster/shopfront/pkg/db"
)

// Keys the HTTP server cannot start without.
var ServerKeys = []string{"DATABASE_URL", "JWT_SECRET"}

// Load reads the environment and fails when any of required is unset.
func Load(required ...string) (pkgconfig.Config, error) {
	cfg := pkgconfig.Load()
	if err := cfg.Require(required...); err != nil {
		return cfg, err
	}

	if cfg.InstanceID == "" {
		cfg.InstanceID = uuid.NewString()[:8]
	}
	return cfg, nil
}

// InitDB opens the database and brings the schema up to date.
func InitDB(ctx context.Context, cfg pkgconfig.Config) (*gorm.DB, error) {
	gdb, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := models.Migrate(gdb.WithContext(ctx)); err != nil {
		_ = db.Close(gdb)
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return gdb, nil
}

package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	pkgdb "github.com/Skotchmaster/shopfront/pkg/db"
)

type GormRepo struct {
	DB *gorm.DB
}

func New(db *gorm.DB) *GormRepo {
	return &GormRepo{DB: db}
}

// Transaction runs fn with a repo bound to a single transaction.
func (r *GormRepo) Transaction(ctx context.Context, fn func(tx *GormRepo) error) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormRepo{DB: tx})
	})
}

// RetryTransaction is Transaction rerun on serialization failures and deadlocks.
func (r *GormRepo) RetryTransaction(ctx context.Context, opts pkgdb.TxOptions, fn func(tx *GormRepo) error) error {
	return pkgdb.WithRetry(ctx, r.DB, opts, func(tx *gorm.DB) error {
		return fn(&GormRepo{DB: tx})
	})
}

func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

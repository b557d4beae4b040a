// Package testsupport holds fixtures shared by package tests.
package testsupport

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/shopfront/internal/models"
	"github.com/Skotchmaster/shopfront/pkg/db"
	"github.com/Skotchmaster/shopfront/pkg/hash"
)

var seq atomic.Int64

// NewDB opens a private in-memory sqlite database with the schema migrated.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("sqlite:file:%s_%d?mode=memory&cache=shared&_pragma=foreign_keys(1)", name, seq.Add(1))

	gdb, err := db.Open(context.Background(), dsn)
	require.NoError(t, err)
	require.NoError(t, models.Migrate(gdb))

	t.Cleanup(func() { _ = db.Close(gdb) })
	return gdb
}

func CreateProduct(t *testing.T, gdb *gorm.DB, name, price string, stock int) *models.Product {
	t.Helper()
	p := &models.Product{
		Name:   name,
		Slug:   fmt.Sprintf("%s-%d", strings.ToLower(strings.ReplaceAll(name, " ", "-")), seq.Add(1)),
		Price:  decimal.RequireFromString(price),
		Stock:  stock,
		Active: true,
	}
	require.NoError(t, gdb.Create(p).Error)
	return p
}

func CreateUser(t *testing.T, gdb *gorm.DB, username, password, role string) *models.User {
	t.Helper()
	h, err := hash.HashPassword(password)
	require.NoError(t, err)
	u := &models.User{Username: username, PasswordHash: h, Role: role}
	require.NoError(t, gdb.Create(u).Error)
	return u
}

func Stock(t *testing.T, gdb *gorm.DB, productID uint) int {
	t.Helper()
	var p models.Product
	require.NoError(t, gdb.First(&p, productID).Error)
	return p.Stock
}

// Command createuser adds an account so it can log in. Registration is not
// exposed over HTTP.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/Skotchmaster/shopfront/internal/config"
	"github.com/Skotchmaster/shopfront/internal/models"
	"github.com/Skotchmaster/shopfront/pkg/db"
	"github.com/Skotchmaster/shopfront/pkg/hash"
	"github.com/Skotchmaster/shopfront/pkg/identity"
	"github.com/Skotchmaster/shopfront/pkg/logging"
)

func main() {
	username := flag.String("username", "", "login name")
	password := flag.String("password", "", "password")
	admin := flag.Bool("admin", false, "grant support staff role")
	first := flag.String("first-name", "", "first name")
	last := flag.String("last-name", "", "last name")
	flag.Parse()

	if *username == "" || *password == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load("DATABASE_URL")
	l := logging.New(cfg.LogLevel)
	if err != nil {
		l.Error("config_error", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	gdb, err := config.InitDB(ctx, cfg)
	if err != nil {
		l.Error("db_init_error", "error", err)
		os.Exit(1)
	}
	defer db.Close(gdb)

	pw, err := hash.HashPassword(*password)
	if err != nil {
		l.Error("hash_error", "error", err)
		os.Exit(1)
	}
	role := "user"
	if *admin {
		role = identity.RoleAdmin
	}
	u := models.User{Username: *username, PasswordHash: pw, Role: role, FirstName: *first, LastName: *last}
	if err := gdb.WithContext(ctx).Create(&u).Error; err != nil {
		l.Error("create_user_error", "username", *username, "error", err)
		os.Exit(1)
	}
	fmt.Printf("created user %d (%s)\n", u.ID, role)
}

package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Skotchmaster/shopfront/internal/domain"
	"github.com/Skotchmaster/shopfront/internal/repo"
	"github.com/Skotchmaster/shopfront/pkg/hash"
	"github.com/Skotchmaster/shopfront/pkg/logging"
	"github.com/Skotchmaster/shopfront/pkg/tokens"
)

type AuthService struct {
	Repo      *repo.GormRepo
	JWTSecret []byte
	AccessTTL time.Duration
}

type LoginResult struct {
	AccessToken string
	AccessExp   time.Time
	UserID      uint
	Role        string
}

func (s *AuthService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	username = strings.TrimSpace(username)
	l := logging.FromContext(ctx).With("svc", "auth.login", "username", username)

	fields := map[string]string{}
	if username == "" {
		fields["username"] = "This field is required."
	}
	if password == "" {
		fields["password"] = "This field is required."
	}
	if len(fields) > 0 {
		return nil, &domain.ValidationError{Fields: fields}
	}

	user, err := s.Repo.GetUserByUsername(ctx, username)
	if repo.IsNotFound(err) {
		l.Warn("login_failed", "status", 401, "reason", "unknown user")
		return nil, fmt.Errorf("%w: invalid username or password", domain.ErrUnauthorized)
	}
	if err != nil {
		return nil, err
	}
	if !hash.CheckPassword(user.PasswordHash, password) {
		l.Warn("login_failed", "status", 401, "reason", "bad password")
		return nil, fmt.Errorf("%w: invalid username or password", domain.ErrUnauthorized)
	}

	ttl := s.AccessTTL
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	exp := time.Now().Add(ttl)
	token, err := tokens.NewAccessToken(s.JWTSecret, user.ID, user.Role, user.DisplayName(), exp)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	l.Info("login_ok", "user_id", user.ID)
	return &LoginResult{AccessToken: token, AccessExp: exp, UserID: user.ID, Role: user.Role}, nil
}

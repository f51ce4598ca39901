// Package services contains server-side business logic. This file implements
// AuthService, which handles registration, login, logout, and resolving
// opaque session tokens back to users.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrijs2005/gophdrive/internal/common"
	"github.com/dmitrijs2005/gophdrive/internal/logging"
	"github.com/dmitrijs2005/gophdrive/internal/server/config"
	"github.com/dmitrijs2005/gophdrive/internal/server/models"
	"github.com/dmitrijs2005/gophdrive/internal/server/repositories/repomanager"
)

// tokenSize is the number of random bytes behind each session token; the
// URL-safe base64 form is what clients carry. Collisions are treated as
// negligible and not checked for.
const tokenSize = 24

// AuthService issues, revokes, and resolves opaque bearer tokens.
//
// The random source is injected so token unpredictability never depends on
// hidden global state; production wiring passes crypto/rand.Reader.
type AuthService struct {
	db            *sql.DB
	repomanager   repomanager.RepositoryManager
	rand          io.Reader
	tokenValidity time.Duration
	logger        logging.Logger
}

// NewAuthService constructs an AuthService using repositories, the random
// source, and server config.
func NewAuthService(db *sql.DB, m repomanager.RepositoryManager, rand io.Reader, cfg *config.Config, logger logging.Logger) *AuthService {
	return &AuthService{
		db:            db,
		repomanager:   m,
		rand:          rand,
		tokenValidity: cfg.TokenValidityDuration,
		logger:        logger.With("module", "auth_service"),
	}
}

// Register creates a new user, storing a bcrypt hash of the password.
// A taken username yields ErrorAlreadyExists.
func (s *AuthService) Register(ctx context.Context, username, password string) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error(ctx, "hashing password", "error", err.Error())
		return nil, common.ErrorInternal
	}

	user := &models.User{UserName: username, PasswordHash: hash}
	repo := s.repomanager.Users(s.db)
	u, err := repo.Create(ctx, user)
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, common.ErrorAlreadyExists
		}
		s.logger.Error(ctx, "creating user", "error", err.Error())
		return nil, common.ErrorInternal
	}

	s.logger.Info(ctx, "user registered", "username", username)
	return u, nil
}

// Login verifies the credentials and, on success, issues a fresh session
// token valid for the configured duration. An unknown username and a wrong
// password are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, username, password string) (*models.Token, error) {
	repo := s.repomanager.Users(s.db)
	user, err := repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.logger.Warn(ctx, "login failed: unknown username", "username", username)
			return nil, common.ErrorInvalidCredentials
		}
		s.logger.Error(ctx, "looking up user", "error", err.Error())
		return nil, common.ErrorInternal
	}

	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)); err != nil {
		s.logger.Warn(ctx, "login failed: wrong password", "username", username)
		return nil, common.ErrorInvalidCredentials
	}

	value, err := common.MakeURLSafeToken(s.rand, tokenSize)
	if err != nil {
		s.logger.Error(ctx, "generating token", "error", err.Error())
		return nil, common.ErrorInternal
	}

	token := &models.Token{
		UserID:    user.ID,
		Token:     value,
		ExpiresAt: time.Now().Add(s.tokenValidity),
	}

	token, err = s.repomanager.Tokens(s.db).Create(ctx, token)
	if err != nil {
		s.logger.Error(ctx, "saving token", "error", err.Error())
		return nil, common.ErrorInternal
	}

	s.logger.Info(ctx, "user logged in", "username", username)
	return token, nil
}

// Logout revokes the given token. It never fails from the caller's point of
// view: an empty, unknown, or already-revoked token is silently accepted,
// and storage problems are only logged.
func (s *AuthService) Logout(ctx context.Context, tokenValue string) {
	if strings.TrimSpace(tokenValue) == "" {
		return
	}

	normalized := normalizeToken(tokenValue)
	if err := s.repomanager.Tokens(s.db).Revoke(ctx, normalized); err != nil {
		s.logger.Warn(ctx, "revoking token", "error", err.Error())
		return
	}
	s.logger.Info(ctx, "token revoked")
}

// FindUserByToken resolves a token to its owning user. It returns (nil, nil)
// when the token is empty, unknown, revoked, or expired; the caller cannot
// tell these cases apart. Errors are reserved for storage failures.
func (s *AuthService) FindUserByToken(ctx context.Context, tokenValue string) (*models.User, error) {
	if strings.TrimSpace(tokenValue) == "" {
		return nil, nil
	}

	normalized := normalizeToken(tokenValue)
	token, err := s.repomanager.Tokens(s.db).FindByToken(ctx, normalized)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, nil
		}
		s.logger.Error(ctx, "looking up token", "error", err.Error())
		return nil, common.ErrorInternal
	}

	if token.Revoked || !token.ExpiresAt.After(time.Now()) {
		return nil, nil
	}

	user, err := s.repomanager.Users(s.db).GetByID(ctx, token.UserID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, nil
		}
		s.logger.Error(ctx, "looking up token owner", "error", err.Error())
		return nil, common.ErrorInternal
	}

	return user, nil
}

// SweepExpired deletes token rows whose expiry has passed and reports how
// many were removed. Revoked-but-unexpired rows are kept so their state
// stays observable until expiry.
func (s *AuthService) SweepExpired(ctx context.Context) (int64, error) {
	n, err := s.repomanager.Tokens(s.db).DeleteExpiredBefore(ctx, time.Now())
	if err != nil {
		return 0, fmt.Errorf("sweeping expired tokens: %w", err)
	}
	if n > 0 {
		s.logger.Info(ctx, "expired tokens removed", "count", n)
	}
	return n, nil
}

// normalizeToken trims surrounding whitespace and strips an optional
// case-insensitive "Bearer " prefix.
func normalizeToken(token string) string {
	token = strings.TrimSpace(token)
	if len(token) >= 7 && strings.EqualFold(token[:7], "bearer ") {
		return strings.TrimSpace(token[7:])
	}
	return token
}

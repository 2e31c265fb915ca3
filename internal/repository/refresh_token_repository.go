package repository

import (
	"context"
	"errors"
	"sync"

	"github.com/llanos33/Petmatch-sub000/internal/domain"
)

var (
	ErrRefreshTokenNotFound = errors.New("refresh token not found")
	ErrRefreshTokenRevoked  = errors.New("refresh token has been revoked")
)

// RefreshTokenRepository defines the interface for refresh token
// storage. Tokens are process-lifetime only: they intentionally live
// outside the three persisted tables, so a restart simply requires a
// fresh login.
type RefreshTokenRepository interface {
	Create(ctx context.Context, token *domain.RefreshToken) error
	FindByToken(ctx context.Context, token string) (*domain.RefreshToken, error)
	Revoke(ctx context.Context, token string) error
}

type refreshTokenRepository struct {
	mu     sync.Mutex
	tokens map[string]*domain.RefreshToken
}

// NewRefreshTokenRepository creates an in-memory RefreshTokenRepository.
func NewRefreshTokenRepository() RefreshTokenRepository {
	return &refreshTokenRepository{tokens: make(map[string]*domain.RefreshToken)}
}

func (r *refreshTokenRepository) Create(ctx context.Context, token *domain.RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tokens[token.Token] = token
	return nil
}

func (r *refreshTokenRepository) FindByToken(ctx context.Context, token string) (*domain.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.tokens[token]
	if !ok {
		return nil, ErrRefreshTokenNotFound
	}
	if stored.Revoked {
		return nil, ErrRefreshTokenRevoked
	}
	copied := *stored
	return &copied, nil
}

func (r *refreshTokenRepository) Revoke(ctx context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.tokens[token]
	if !ok {
		return ErrRefreshTokenNotFound
	}
	stored.Revoked = true
	return nil
}

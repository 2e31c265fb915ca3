package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/llanos33/Petmatch-sub000/internal/domain"
	"github.com/llanos33/Petmatch-sub000/internal/store"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrUserAlreadyExists = errors.New("user with this email already exists")
)

// UserRepository defines the interface for user data access.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	Update(ctx context.Context, user *domain.User) error
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id int) (*domain.User, error)
}

type userRepository struct {
	store *store.Store
}

// NewUserRepository creates a new instance of UserRepository backed by
// the JSON file store.
func NewUserRepository(s *store.Store) UserRepository {
	return &userRepository{store: s}
}

// Create normalizes the email, enforces uniqueness and assigns the
// next free id, all inside one store critical section.
func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	user.Email = NormalizeEmail(user.Email)

	return store.Mutate(r.store, store.UsersFile, func(users []domain.User) ([]domain.User, error) {
		maxID := 0
		for _, u := range users {
			if u.Email == user.Email {
				return nil, ErrUserAlreadyExists
			}
			if u.ID > maxID {
				maxID = u.ID
			}
		}
		user.ID = maxID + 1
		user.CreatedAt = time.Now()
		return append(users, *user), nil
	})
}

// Update replaces the stored user with the same id.
func (r *userRepository) Update(ctx context.Context, user *domain.User) error {
	return store.Mutate(r.store, store.UsersFile, func(users []domain.User) ([]domain.User, error) {
		for i, u := range users {
			if u.ID == user.ID {
				users[i] = *user
				return users, nil
			}
		}
		return nil, fmt.Errorf("%w: id %d", ErrUserNotFound, user.ID)
	})
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	email = NormalizeEmail(email)

	users, err := store.Read[domain.User](r.store, store.UsersFile)
	if err != nil {
		return nil, err
	}
	for i := range users {
		if users[i].Email == email {
			return &users[i], nil
		}
	}
	return nil, ErrUserNotFound
}

func (r *userRepository) FindByID(ctx context.Context, id int) (*domain.User, error) {
	users, err := store.Read[domain.User](r.store, store.UsersFile)
	if err != nil {
		return nil, err
	}
	for i := range users {
		if users[i].ID == id {
			return &users[i], nil
		}
	}
	return nil, fmt.Errorf("%w: id %d", ErrUserNotFound, id)
}

// NormalizeEmail lower-cases and trims an email address. Emails are
// stored and compared in this form only.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

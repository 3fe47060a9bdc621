package auth

import (
	"context"
	"errors"
	"time"

	"golang.org/x/crypto/bcrypt"

	"taskboard/pkg/models"
	"taskboard/pkg/taskerr"
)

var ErrUsernameTaken = errors.New("username already taken")
var ErrBadCredentials = errors.New("invalid username or password")

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	FindByID(ctx context.Context, id uint) (*models.User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
}

// Service handles registration and credential exchange. Task ownership and
// everything downstream only ever sees the resolved models.User.
type Service struct {
	users     UserRepository
	jwtSecret string
	jwtTTL    time.Duration
}

func NewService(users UserRepository, jwtSecret string, jwtTTL time.Duration) *Service {
	return &Service{users: users, jwtSecret: jwtSecret, jwtTTL: jwtTTL}
}

func (s *Service) Register(ctx context.Context, username, email, password string) (*models.User, error) {
	verr := taskerr.NewValidationError()
	if len(username) < 3 || len(username) > 100 {
		verr.Add("username", "must be between 3 and 100 characters")
	}
	if len(password) < 8 {
		verr.Add("password", "must be at least 8 characters")
	}
	if !verr.Empty() {
		return nil, verr
	}

	taken, err := s.users.ExistsByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrUsernameTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Login exchanges credentials for a signed token.
func (s *Service) Login(ctx context.Context, username, password string) (string, error) {
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, taskerr.ErrNotFound) {
			return "", ErrBadCredentials
		}
		return "", err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", ErrBadCredentials
	}
	return MintToken(*user, s.jwtSecret, s.jwtTTL)
}

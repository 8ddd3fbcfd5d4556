package service

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/luaforge/script-platform/internal/middleware"
	"github.com/luaforge/script-platform/internal/model"
	"github.com/luaforge/script-platform/internal/store"
	"github.com/luaforge/script-platform/pkg/logger"
)

const bcryptCost = 12

// ErrInvalidCredentials is returned on bad username/password pairs.
// Deliberately indistinguishable between unknown user and wrong password.
var ErrInvalidCredentials = errors.New("invalid username or password")

// AuthService handles registration, login, and token issuance.
type AuthService struct {
	store      store.Store
	jwtSecret  string
	expiration time.Duration
	logger     *logger.Logger
}

// NewAuthService creates a new auth service.
func NewAuthService(st store.Store, jwtSecret string, expiration time.Duration, log *logger.Logger) *AuthService {
	return &AuthService{
		store:      st,
		jwtSecret:  jwtSecret,
		expiration: expiration,
		logger:     log,
	}
}

// Register creates a new account and returns a signed token.
func (s *AuthService) Register(ctx context.Context, req *model.CredentialsRequest) (*model.AuthResponse, error) {
	if len(req.Username) < 3 {
		return nil, Validationf("username must be at least 3 characters")
	}
	if len(req.Password) < 8 {
		return nil, Validationf("password must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		ID:           uuid.Must(uuid.NewV7()).String(),
		Username:     req.Username,
		PasswordHash: string(hash),
		CreatedAt:    time.Now(),
	}

	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, Validationf("username is already taken")
		}
		return nil, err
	}

	s.logger.Info("user registered", zap.String("user_id", user.ID))

	return s.respond(user)
}

// Login verifies credentials and returns a signed token.
func (s *AuthService) Login(ctx context.Context, req *model.CredentialsRequest) (*model.AuthResponse, error) {
	user, err := s.store.GetUserByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		return nil, ErrInvalidCredentials
	}

	now := time.Now()
	if err := s.store.TouchUserLogin(ctx, user.ID, now); err != nil {
		s.logger.Warn("failed to record login time", zap.Error(err))
	}
	user.LastLogin = &now

	return s.respond(user)
}

// GetUser fetches a user by ID.
func (s *AuthService) GetUser(ctx context.Context, id string) (*model.User, error) {
	user, err := s.store.GetUser(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotFound
	}
	return user, err
}

func (s *AuthService) respond(user *model.User) (*model.AuthResponse, error) {
	claims := &middleware.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.expiration)),
		},
		Username: user.Username,
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.jwtSecret))
	if err != nil {
		return nil, err
	}

	return &model.AuthResponse{
		Token: token,
		User:  user,
	}, nil
}

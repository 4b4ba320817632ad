package service

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/srochno/order-exchange/internal/core/domain"
	"github.com/srochno/order-exchange/internal/core/ports"
	"github.com/srochno/order-exchange/internal/pkg/clock"
)

// AuthService implements registration and login. Actor records are created
// lazily here on first contact; the rest of the core only ever sees the
// verified actor id carried by the token.
type AuthService struct {
	actors    ports.ActorRepository
	jwtSecret string
	tokenTTL  time.Duration
	clk       clock.Clock
}

func NewAuthService(actors ports.ActorRepository, jwtSecret string, tokenTTL time.Duration, clk clock.Clock) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &AuthService{actors: actors, jwtSecret: jwtSecret, tokenTTL: tokenTTL, clk: clk}
}

func (s *AuthService) Register(ctx context.Context, username, password string) (*domain.Actor, error) {
	if username == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := s.clk.Now()
	actor := &domain.Actor{
		ID:           newActorID(),
		Username:     username,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.actors.Create(ctx, actor); err != nil {
		return nil, err
	}
	return actor, nil
}

func (s *AuthService) Login(ctx context.Context, username, password string) (string, *domain.Actor, error) {
	if username == "" || password == "" {
		return "", nil, domain.ErrInvalidCredentials
	}

	actor, err := s.actors.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrActorNotFound) {
			return "", nil, domain.ErrInvalidCredentials
		}
		return "", nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(actor.PasswordHash), []byte(password)) != nil {
		return "", nil, domain.ErrInvalidCredentials
	}

	token, err := s.generateToken(actor)
	if err != nil {
		return "", nil, err
	}
	return token, actor, nil
}

func (s *AuthService) Profile(ctx context.Context, actorID string) (*domain.Actor, error) {
	return s.actors.FindByID(ctx, actorID)
}

func (s *AuthService) generateToken(actor *domain.Actor) (string, error) {
	claims := jwt.MapClaims{
		"actor_id": actor.ID,
		"username": actor.Username,
		"exp":      s.clk.Now().Add(s.tokenTTL).Unix(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(s.jwtSecret))
}

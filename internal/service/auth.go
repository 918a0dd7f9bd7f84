package service

import (
	"context"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"

	"github.com/promptdeck/syncengine/internal/domain"
)

var tracer = otel.Tracer("service")

// AuthService verifies session tokens issued by the platform's auth provider
// and extracts the asserted identity.
type AuthService struct {
	config domain.Config
}

func NewAuthService(config domain.Config) *AuthService {
	return &AuthService{config: config}
}

type AuthResult struct {
	Identity domain.Identity
}

// VerifyToken validates an HS256 bearer token and returns the identity it
// asserts. Tokens without a subject or email claim are rejected.
func (s *AuthService) VerifyToken(ctx context.Context, token string) (*AuthResult, error) {
	_, span := tracer.Start(ctx, "Auth.Service.VerifyToken")
	defer span.End()

	parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.config.JWTSecret), nil
	})
	if err != nil || !parsed.Valid {
		if err == nil {
			err = fmt.Errorf("invalid token")
		}
		wrapped := errors.Wrap(err, "token validation failed")
		span.RecordError(wrapped)
		return nil, wrapped
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		err := fmt.Errorf("invalid claims")
		span.RecordError(err)
		return nil, err
	}

	sub, _ := claims["sub"].(string)
	email, _ := claims["email"].(string)
	if sub == "" || email == "" {
		err := fmt.Errorf("token missing sub or email claim")
		span.RecordError(err)
		return nil, err
	}

	return &AuthResult{Identity: domain.Identity{ID: sub, Email: email}}, nil
}

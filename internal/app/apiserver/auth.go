package apiserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/authorsapi/profiles/internal/app/model"
	"github.com/golang-jwt/jwt/v4"
)

type ctxKey int8

const (
	ctxKeyActor ctxKey = iota
	ctxKeyRequestID
)

var (
	errNotAuthenticated = errors.New("authentication credentials were not provided")
	errInvalidToken     = errors.New("given token not valid for any token type")
)

// Claims are issued by the auth service; only the username is needed here.
type Claims struct {
	Username string `json:"username"`

	jwt.RegisteredClaims
}

func parseJWT(r *http.Request, secret []byte) (*Claims, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return nil, errNotAuthenticated
	}
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return nil, errInvalidToken
	}

	tokenStr := strings.TrimPrefix(authHeader, "Bearer ")

	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return nil, errInvalidToken
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid && claims.Username != "" {
		return claims, nil
	}
	return nil, errInvalidToken
}

// NewToken signs a token for username. Used by tests and local tooling.
func NewToken(secret []byte, username string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// authenticate requires a valid token whose user still has a profile.
func (s *server) authenticate(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := s.actor(r)
		if err != nil {
			s.error(w, r, err)
			return
		}
		if actor == nil {
			s.error(w, r, errNotAuthenticated)
			return
		}

		next(w, r.WithContext(context.WithValue(r.Context(), ctxKeyActor, actor)))
	}
}

// authenticateOptional lets anonymous requests through but still rejects bad tokens.
func (s *server) authenticateOptional(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := s.actor(r)
		if err != nil {
			s.error(w, r, err)
			return
		}
		if actor != nil {
			r = r.WithContext(context.WithValue(r.Context(), ctxKeyActor, actor))
		}

		next(w, r)
	}
}

func (s *server) actor(r *http.Request) (*model.Profile, error) {
	claims, err := parseJWT(r, s.jwtSecret)
	if errors.Is(err, errNotAuthenticated) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	p, err := s.profiles.Lookup(r.Context(), claims.Username)
	if err != nil {
		return nil, errInvalidToken
	}

	return p, nil
}

func actorFrom(ctx context.Context) *model.Profile {
	p, _ := ctx.Value(ctxKeyActor).(*model.Profile)
	return p
}

package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/licenca-shop/licenca/internal/redisx"
)

const CookieName = "licenca_session"

var ErrNoSession = errors.New("no session")

type Session struct {
	UserID   string `json:"user_id"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	TenantID string `json:"tenant_id"`
}

// Sessions is a Redis-backed session store. Tokens are opaque uuids handed
// out in an HttpOnly cookie; the session body lives server-side only.
type Sessions struct {
	RDB *redis.Client
	TTL time.Duration
}

func (s *Sessions) Create(ctx context.Context, sess Session) (string, error) {
	token := uuid.NewString()
	b, err := json.Marshal(sess)
	if err != nil {
		return "", err
	}
	key := fmt.Sprintf(redisx.KeySession, token)
	if err := s.RDB.Set(ctx, key, b, s.TTL).Err(); err != nil {
		return "", err
	}
	return token, nil
}

func (s *Sessions) Get(ctx context.Context, token string) (Session, error) {
	key := fmt.Sprintf(redisx.KeySession, token)
	b, err := s.RDB.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return Session{}, ErrNoSession
	}
	if err != nil {
		return Session{}, err
	}
	var sess Session
	if err := json.Unmarshal(b, &sess); err != nil {
		return Session{}, err
	}
	// sliding expiry
	_ = s.RDB.Expire(ctx, key, s.TTL).Err()
	return sess, nil
}

func (s *Sessions) Delete(ctx context.Context, token string) error {
	return s.RDB.Del(ctx, fmt.Sprintf(redisx.KeySession, token)).Err()
}

func (s *Sessions) SetCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(s.TTL / time.Second),
	})
}

func ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
}

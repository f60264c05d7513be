package handler

import (
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/golang-jwt/jwt/v5"

	"github.com/hilltop-eats/hilltop/internal/domain/user"
)

// sessionCookie is the cookie carrying the session token. The Authorization
// header (Bearer scheme) is accepted as an alternative.
const sessionCookie = "hilltop_session"

// TokenConfig holds the signing parameters for session tokens.
type TokenConfig struct {
	Secret []byte
	TTL    time.Duration
}

// sessionClaims is the JWT payload: the account ID as subject plus the role
// at issue time.
type sessionClaims struct {
	jwt.RegisteredClaims
	Role user.Role `json:"role"`
}

func (h *Handler) issueToken(u *user.User) (string, error) {
	now := time.Now()
	claims := sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(h.tokens.TTL)),
		},
		Role: u.Role,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(h.tokens.Secret)
	if err != nil {
		return "", errors.Wrap(err, "sign token")
	}
	return signed, nil
}

func (h *Handler) parseToken(raw string) (*identity, error) {
	var claims sessionClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return h.tokens.Secret, nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "parse token")
	}
	if !claims.Role.Valid() {
		return nil, errors.New("token carries no valid role")
	}
	return &identity{UserID: claims.Subject, Role: claims.Role}, nil
}

func (h *Handler) setSessionCookie(w http.ResponseWriter, token string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

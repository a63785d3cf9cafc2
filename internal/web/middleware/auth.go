package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/JonMunkholm/recordflow/internal/config"
	"github.com/JonMunkholm/recordflow/internal/core"
)

// JWTAuth returns middleware that verifies an HS256 token in the configured
// header. Failures are answered with 401 and {"detail": <message>}.
func JWTAuth(cfg config.AuthConfig) func(http.Handler) http.Handler {
	header := cfg.Header
	if header == "" {
		header = "JWT"
	}
	secret := []byte(cfg.SecretKey)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, err := VerifyToken(r.Header.Get(header), secret, cfg.Leeway); err != nil {
				msg := core.MapError(err)
				slog.Warn("auth: token rejected",
					"path", r.URL.Path,
					"method", r.Method,
					"remote_addr", r.RemoteAddr,
					"code", msg.Code,
					"error", err,
				)
				writeDetail(w, http.StatusUnauthorized, msg.Message)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// VerifyToken parses raw as an HS256 token signed with secret.
//
// Errors wrap core.ErrTokenExpired for a valid but expired token,
// core.ErrTokenMalformed for a missing or unparseable one, and
// core.ErrTokenInvalid for every other verification failure.
func VerifyToken(raw string, secret []byte, leeway time.Duration) (jwt.MapClaims, error) {
	if raw == "" {
		return nil, fmt.Errorf("%w: missing token", core.ErrTokenMalformed)
	}

	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(raw, claims,
		func(*jwt.Token) (any, error) { return secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(leeway),
	)

	switch {
	case err == nil:
		return claims, nil
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, fmt.Errorf("%w: %w", core.ErrTokenExpired, err)
	case errors.Is(err, jwt.ErrTokenMalformed):
		return nil, fmt.Errorf("%w: %w", core.ErrTokenMalformed, err)
	default:
		return nil, fmt.Errorf("%w: %w", core.ErrTokenInvalid, err)
	}
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(map[string]string{"detail": detail}); err != nil {
		slog.Error("json encode error", "error", err)
	}
}

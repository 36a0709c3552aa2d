package httpserver

import (
	"context"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ContextKey is a private key type so context values cannot collide with other
// packages.
type ContextKey string

// OwnerIDCtxKey carries the authenticated owner id extracted from the bearer
// token's subject claim.
const OwnerIDCtxKey = ContextKey("owner_id")

type TokenParser interface {
	Parse(tokenString string) (string, error)
}

// JWTAuth rejects requests without a valid bearer token and stores the subject
// owner id in the request context for the handlers.
func JWTAuth(parser TokenParser, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				respondError(w, http.StatusUnauthorized, "Authorization header is missing")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				respondError(w, http.StatusUnauthorized, "Authorization header format must be Bearer <token>")
				return
			}

			ownerID, err := parser.Parse(parts[1])
			if err != nil {
				logger.Warn("Rejected request with invalid token", zap.Error(err))
				respondError(w, http.StatusUnauthorized, "Invalid or expired token")
				return
			}

			ctx := context.WithValue(r.Context(), OwnerIDCtxKey, ownerID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func ownerIDFromContext(ctx context.Context) (string, bool) {
	ownerID, ok := ctx.Value(OwnerIDCtxKey).(string)
	if !ok || ownerID == "" {
		return "", false
	}
	return ownerID, true
}

// RequestLogger logs one line per request with method, path, status and
// duration.
func RequestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			logger.Info("HTTP request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", rec.status),
				zap.Duration("duration", time.Since(start)),
			)
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

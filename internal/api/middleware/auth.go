package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	appErr "github.com/iac-studio/rolecfg/pkg/errors"
)

type userKeyType string

const UserIDKey userKeyType = "user_id"

// TokenParser validates a bearer token and returns the user it was issued to.
type TokenParser interface {
	ParseToken(token string) (uuid.UUID, error)
}

// Auth requires a valid Bearer token and adds the user id to the context.
func Auth(parser TokenParser) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ah := r.Header.Get("Authorization")
			if !strings.HasPrefix(strings.ToLower(ah), "bearer ") {
				writeError(w, http.StatusUnauthorized, string(appErr.CodeUnauthorized), "missing bearer token")
				return
			}
			uid, err := parser.ParseToken(strings.TrimSpace(ah[len("Bearer "):]))
			if err != nil {
				Logger(r.Context()).Info("rejected token", zap.Error(err))
				writeError(w, http.StatusUnauthorized, string(appErr.CodeUnauthorized), "invalid token")
				return
			}
			ctx := context.WithValue(r.Context(), UserIDKey, uid)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUserID returns the authenticated user id, if any.
func GetUserID(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(UserIDKey).(uuid.UUID)
	return id, ok && id != uuid.Nil
}

package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/surrlabs/surr/internal/logger"
	"github.com/surrlabs/surr/internal/model"
)

// TokenVerifier validates bearer tokens and resolves their subject.
type TokenVerifier interface {
	Verify(token string, expected model.TokenType) (subject string, err error)
}

type contextKey struct{}

var subjectKey contextKey

// SubjectFromContext returns the authenticated subject set by Authenticate.
func SubjectFromContext(ctx context.Context) (string, bool) {
	subject, ok := ctx.Value(subjectKey).(string)
	return subject, ok
}

// Authenticate validates access tokens and injects the subject into the
// request context.
type Authenticate struct {
	tokens TokenVerifier
	logger *logger.Logger
}

// NewAuthenticate creates a new Authenticate middleware instance.
func NewAuthenticate(tokens TokenVerifier, logger *logger.Logger) *Authenticate {
	return &Authenticate{tokens: tokens, logger: logger}
}

// RequireAccessToken rejects requests without a valid bearer access token.
func (m *Authenticate) RequireAccessToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			unauthorized(w)
			return
		}

		subject, err := m.tokens.Verify(strings.TrimPrefix(header, "Bearer "), model.TokenTypeAccess)
		if err != nil {
			unauthorized(w)
			return
		}

		ctx := context.WithValue(r.Context(), subjectKey, subject)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"message":"invalid credentials"}`))
}

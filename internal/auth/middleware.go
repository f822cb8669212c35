package auth

import (
	"net/http"
	"strings"

	"github.com/fdg312/mealcart/internal/apperr"
	"github.com/fdg312/mealcart/internal/config"
	"github.com/fdg312/mealcart/internal/userctx"
	"go.uber.org/zap"
)

// Middleware resolves the acting user for each request.
type Middleware struct {
	config  *config.Config
	service *Service
	logger  *zap.Logger
}

func NewMiddleware(cfg *config.Config, service *Service, logger *zap.Logger) *Middleware {
	return &Middleware{config: cfg, service: service, logger: logger}
}

// Authenticate puts the token subject into the request context. Without a
// token the request runs as userctx.AnonymousUserID unless auth is required.
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isPublicPath(r.URL.Path) || m.config.AuthMode == config.AuthModeNone {
			next.ServeHTTP(w, r)
			return
		}

		header := strings.TrimSpace(r.Header.Get("Authorization"))
		if header == "" {
			if m.config.AuthRequired {
				apperr.WriteJSON(w, http.StatusUnauthorized, "unauthorized", "Unauthorized", nil)
				return
			}
			next.ServeHTTP(w, r)
			return
		}

		userID, err := m.authenticateHeader(header)
		if err != nil {
			m.logger.Debug("rejected bearer token", zap.String("path", r.URL.Path), zap.Error(err))
			apperr.WriteJSON(w, http.StatusUnauthorized, "unauthorized", "Invalid or expired token", nil)
			return
		}

		next.ServeHTTP(w, r.WithContext(userctx.WithUserID(r.Context(), userID)))
	})
}

func (m *Middleware) authenticateHeader(authHeader string) (string, error) {
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", ErrInvalidToken
	}
	return m.service.VerifyJWT(strings.TrimSpace(parts[1]))
}

func isPublicPath(path string) bool {
	return path == "/healthz" || strings.HasPrefix(path, "/v1/auth/")
}

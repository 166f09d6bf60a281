package httpapi

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	"github.com/alexanderramin/stagegate/internal/domain"
)

// UserHeader carries the acting username, set by the fronting proxy.
const UserHeader = "X-Stagegate-User"

type userKey struct{}

func userFrom(ctx context.Context) *domain.User {
	u, _ := ctx.Value(userKey{}).(*domain.User)
	return u
}

// requireToken rejects requests without "Authorization: Bearer <token>". An
// empty token disables the check.
func requireToken(token string, next http.Handler) http.Handler {
	if token == "" {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		given, ok := strings.CutPrefix(auth, "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(given), []byte(token)) != 1 {
			w.Header().Set("Content-Type", "application/json")
			http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requireUser resolves the acting user from UserHeader. Unknown or inactive
// users get 401.
func (s *Server) requireUser(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimSpace(r.Header.Get(UserHeader))
		if name == "" {
			s.writeError(w, http.StatusUnauthorized, "missing "+UserHeader+" header")
			return
		}
		u, err := s.users.Authenticate(r.Context(), name)
		if errors.Is(err, domain.ErrNotFound) {
			s.writeError(w, http.StatusUnauthorized, "unknown or inactive user "+name)
			return
		}
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), userKey{}, u)))
	}
}

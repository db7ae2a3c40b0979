package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/pauljones0/rentacos/internal/identity"
	"github.com/pauljones0/rentacos/internal/override"
)

// authenticate attaches the caller and their session to the request context.
// Requests without a token continue anonymously; a bad token is rejected.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := s.auth.FromRequest(r)
		switch {
		case err == nil:
			ctx := identity.WithUser(r.Context(), user)
			ctx = override.WithSession(ctx, user.SessionID)
			r = r.WithContext(ctx)
		case errors.Is(err, identity.ErrNoToken):
		default:
			slog.Warn("Rejected bearer token", "path", r.URL.Path, "error", err)
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "invalid token", SignIn: signInPrompt})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				slog.Error("Panic in handler", "method", r.Method, "path", r.URL.Path, "panic", rec)
				writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
			}
		}()
		next.ServeHTTP(w, r)
	})
}

package middleware

import (
	"context"
	"errors"
	"net/http"
	"roombook/pkg/auth"
	apperrors "roombook/pkg/errors"
	"roombook/pkg/logger"
	"strings"

	"github.com/julienschmidt/httprouter"
)

const claimsKey contextKey = "claims"

// Authentication verifies a Bearer token when one is sent and stores its
// claims on the context. Anonymous requests pass; routes that need a caller
// are wrapped with RequireRole.
func Authentication(verifier auth.TokenVerifier, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}

			raw, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || strings.TrimSpace(raw) == "" {
				rejectAuth(w, log, r, "malformed authorization header", apperrors.Unauthorized("Authorization header must be a Bearer token"))
				return
			}

			claims, err := verifier.Verify(strings.TrimSpace(raw))
			if err != nil {
				msg := "Invalid token"
				if errors.Is(err, auth.ErrExpiredToken) {
					msg = "Token expired"
				}
				rejectAuth(w, log, r, err.Error(), apperrors.Unauthorized(msg))
				return
			}

			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

func WithClaims(ctx context.Context, claims *auth.Claims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

func ClaimsFromContext(ctx context.Context) (*auth.Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(*auth.Claims)
	return claims, ok && claims != nil
}

// RequireRole guards a single route: 401 without a caller, 403 with the
// wrong role.
func RequireRole(role string, log *logger.Logger, next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		claims, ok := ClaimsFromContext(r.Context())
		if !ok {
			rejectAuth(w, log, r, "missing credentials", apperrors.Unauthorized("Authentication required"))
			return
		}
		if claims.Role != role {
			log.Warn("Forbidden",
				"request_id", RequestIDFromContext(r.Context()),
				"subject", claims.Subject,
				"role", claims.Role,
				"required_role", role,
				"path", r.URL.Path,
			)
			reject(w, log, r, apperrors.Forbidden("Insufficient permissions"))
			return
		}
		next(w, r, ps)
	}
}

func rejectAuth(w http.ResponseWriter, log *logger.Logger, r *http.Request, reason string, err *apperrors.AppError) {
	log.Warn("Authentication failed",
		"request_id", RequestIDFromContext(r.Context()),
		"reason", reason,
		"path", r.URL.Path,
		"remote_addr", r.RemoteAddr,
	)
	w.Header().Set("WWW-Authenticate", `Bearer realm="roombook"`)
	reject(w, log, r, err)
}

package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/staffdesk/staffdesk-backend/internal/auth/jwt"
	"github.com/staffdesk/staffdesk-backend/internal/auth/repository"
	"github.com/staffdesk/staffdesk-backend/pkg/errors"
	"github.com/staffdesk/staffdesk-backend/pkg/httputil"
	"github.com/staffdesk/staffdesk-backend/pkg/identity"
	"github.com/staffdesk/staffdesk-backend/pkg/logger"
)

// CredentialResolver resolves a credential id from a validated token into
// the current credential record. Resolving on every request means deleted
// accounts lose access the moment their record is gone.
type CredentialResolver interface {
	GetByID(ctx context.Context, id string) (*repository.User, error)
}

// Authenticate validates the bearer token and attaches the caller identity
// to the request context.
func Authenticate(tokens *jwt.Manager, users CredentialResolver, log *logger.Logger) func(http.Handler) http.Handler {
	log = log.WithComponent("auth-middleware")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				httputil.Error(w, errors.Unauthorized("missing authorization header"))
				return
			}

			parts := strings.SplitN(header, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				httputil.Error(w, errors.Unauthorized("invalid authorization header"))
				return
			}

			userID, err := tokens.Validate(parts[1])
			if err != nil {
				httputil.Error(w, err)
				return
			}

			user, err := users.GetByID(r.Context(), userID)
			if err != nil {
				if errors.Is(err, errors.ErrNotFound) {
					httputil.Error(w, errors.Unauthorized("account no longer exists"))
					return
				}
				log.Error().Err(err).Str("user_id", userID).Msg("failed to resolve credential")
				httputil.Error(w, errors.Internal("failed to resolve credential"))
				return
			}

			caller := &identity.Identity{
				ID:         user.ID,
				Email:      user.Email,
				Role:       user.Role,
				EmployeeID: user.EmployeeID,
			}

			next.ServeHTTP(w, r.WithContext(identity.WithIdentity(r.Context(), caller)))
		})
	}
}

// RequireAdmin rejects callers without the admin role.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		caller, err := identity.FromContext(r.Context())
		if err != nil {
			httputil.Error(w, err)
			return
		}

		if !caller.IsAdmin() {
			httputil.Error(w, errors.Forbidden("admin access required"))
			return
		}

		next.ServeHTTP(w, r)
	})
}

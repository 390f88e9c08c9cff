package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/hris-portal-go/internal/domain/user"
	"github.com/cmlabs-hris/hris-portal-go/internal/handler/http/response"
	"github.com/cmlabs-hris/hris-portal-go/internal/pkg/jwt"
	"github.com/go-chi/jwtauth/v5"
)

type identityKey struct{}

// Identity resolves the verified claims into a user.Identity once per
// request. Handlers read it back with IdentityFrom.
func Identity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, claims, err := jwtauth.FromContext(r.Context())
		if err != nil {
			response.Unauthorized(w, "unauthorized")
			return
		}

		identity, err := jwt.IdentityFromClaims(claims)
		if err != nil {
			slog.Warn("Rejected token without identity", "error", err)
			response.Unauthorized(w, "invalid token claims")
			return
		}

		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
	})
}

func WithIdentity(ctx context.Context, identity user.Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, identity)
}

// IdentityFrom returns the caller, or a zero Identity that every scope
// resolves to deny-all.
func IdentityFrom(ctx context.Context) user.Identity {
	identity, _ := ctx.Value(identityKey{}).(user.Identity)
	return identity
}

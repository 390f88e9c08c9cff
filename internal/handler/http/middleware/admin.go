package middleware

import (
	"net/http"

	"github.com/cmlabs-hris/hris-portal-go/internal/domain/user"
	"github.com/cmlabs-hris/hris-portal-go/internal/handler/http/response"
)

// SuperAdminOnly guards manual corrections reserved for the top administrator.
func SuperAdminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity := IdentityFrom(r.Context())
		if !identity.Valid() || !identity.Is(user.RoleSuperAdmin) {
			response.HandleError(w, user.ErrInsufficientPrivilege)
			return
		}

		next.ServeHTTP(w, r)
	})
}

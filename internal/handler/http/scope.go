package http

import (
	"net/http"

	"github.com/cmlabs-hris/hris-portal-go/internal/domain/scope"
	"github.com/cmlabs-hris/hris-portal-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/hris-portal-go/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

type ScopeHandler interface {
	Get(w http.ResponseWriter, r *http.Request)
}

type scopeHandlerImpl struct {
	resolver scope.Resolver
}

func NewScopeHandler(resolver scope.Resolver) ScopeHandler {
	return &scopeHandlerImpl{resolver: resolver}
}

// Get returns the caller's visibility filter for one resource type.
func (h *scopeHandlerImpl) Get(w http.ResponseWriter, r *http.Request) {
	resource, err := scope.ParseResource(chi.URLParam(r, "resource"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	filter, err := h.resolver.ScopeFor(r.Context(), middleware.IdentityFrom(r.Context()), resource)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, filter)
}

package http

import (
	"encoding/json"
	"net/http"

	"github.com/cmlabs-hris/hris-portal-go/internal/domain/hierarchy"
	"github.com/cmlabs-hris/hris-portal-go/internal/domain/user"
	"github.com/cmlabs-hris/hris-portal-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/hris-portal-go/internal/handler/http/response"
	"github.com/cmlabs-hris/hris-portal-go/internal/pkg/validator"
	"github.com/go-chi/chi/v5"
)

type UserHandler interface {
	List(w http.ResponseWriter, r *http.Request)
	Me(w http.ResponseWriter, r *http.Request)
	Team(w http.ResponseWriter, r *http.Request)
	OrgChart(w http.ResponseWriter, r *http.Request)
	AssignManager(w http.ResponseWriter, r *http.Request)
}

type userHandlerImpl struct {
	hierarchyService hierarchy.Service
}

func NewUserHandler(hierarchyService hierarchy.Service) UserHandler {
	return &userHandlerImpl{hierarchyService: hierarchyService}
}

// List returns every user the caller may see.
func (h *userHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.hierarchyService.ListVisibleUsers(r.Context(), middleware.IdentityFrom(r.Context()))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, users)
}

// Me echoes the identity carried by the token.
func (h *userHandlerImpl) Me(w http.ResponseWriter, r *http.Request) {
	caller := middleware.IdentityFrom(r.Context())
	response.Success(w, user.UserResponse{
		ID:           caller.ID,
		Name:         caller.Name,
		Email:        caller.Email,
		Role:         caller.Role.Label(),
		ReportsTo:    caller.ReportsTo,
		IsTechnician: caller.IsTechnician,
	})
}

func (h *userHandlerImpl) Team(w http.ResponseWriter, r *http.Request) {
	team, err := h.hierarchyService.Team(r.Context(), middleware.IdentityFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, team)
}

func (h *userHandlerImpl) OrgChart(w http.ResponseWriter, r *http.Request) {
	chart, err := h.hierarchyService.OrgChart(r.Context(), middleware.IdentityFrom(r.Context()))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, chart)
}

func (h *userHandlerImpl) AssignManager(w http.ResponseWriter, r *http.Request) {
	var req user.AssignManagerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request format", nil)
		return
	}
	req.UserID = chi.URLParam(r, "id")
	if err := validator.Struct(req); err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.hierarchyService.AssignManager(r.Context(), middleware.IdentityFrom(r.Context()), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Manager updated", result)
}

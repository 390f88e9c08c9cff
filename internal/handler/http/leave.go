package http

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/hris-portal-go/internal/domain/leave"
	"github.com/cmlabs-hris/hris-portal-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/hris-portal-go/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

type LeaveHandler interface {
	CreateRequest(w http.ResponseWriter, r *http.Request)
	ListRequests(w http.ResponseWriter, r *http.Request)
	GetRequest(w http.ResponseWriter, r *http.Request)
	UpdateRequest(w http.ResponseWriter, r *http.Request)
	SetStatus(w http.ResponseWriter, r *http.Request)
	DeleteRequest(w http.ResponseWriter, r *http.Request)

	ListResponses(w http.ResponseWriter, r *http.Request)
	AddResponse(w http.ResponseWriter, r *http.Request)
	UpdateResponse(w http.ResponseWriter, r *http.Request)
	DeleteResponse(w http.ResponseWriter, r *http.Request)

	GetBalance(w http.ResponseWriter, r *http.Request)
	UpdateAllocation(w http.ResponseWriter, r *http.Request)
	RebuildBalances(w http.ResponseWriter, r *http.Request)
	Permissions(w http.ResponseWriter, r *http.Request)
}

type LeaveHandlerImpl struct {
	leaveService leave.LeaveService
	repairer     leave.LedgerRepairer
}

func NewLeaveHandler(leaveService leave.LeaveService, repairer leave.LedgerRepairer) LeaveHandler {
	return &LeaveHandlerImpl{
		leaveService: leaveService,
		repairer:     repairer,
	}
}

// CreateRequest implements LeaveHandler.
func (l *LeaveHandlerImpl) CreateRequest(w http.ResponseWriter, r *http.Request) {
	var req leave.CreateLeaveRequest

	// 1. Decode JSON
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("CreateRequest decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	// 2. Validate
	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := l.leaveService.CreateLeave(r.Context(), middleware.IdentityFrom(r.Context()), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Leave request submitted successfully", result)
}

// ListRequests implements LeaveHandler.
func (l *LeaveHandlerImpl) ListRequests(w http.ResponseWriter, r *http.Request) {
	var filter leave.ListFilter
	query := r.URL.Query()

	if employeeID := query.Get("employee_id"); employeeID != "" {
		filter.EmployeeID = &employeeID
	}
	if status := query.Get("status"); status != "" {
		filter.Status = &status
	}
	if leaveType := query.Get("leave_type"); leaveType != "" {
		filter.LeaveType = &leaveType
	}
	if startDate := query.Get("start_date"); startDate != "" {
		filter.StartDate = &startDate
	}
	if endDate := query.Get("end_date"); endDate != "" {
		filter.EndDate = &endDate
	}
	filter.Page, filter.Limit = pagination(r)

	if err := filter.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := l.leaveService.ListLeaves(r.Context(), middleware.IdentityFrom(r.Context()), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Paginated(w, result)
}

// GetRequest implements LeaveHandler.
func (l *LeaveHandlerImpl) GetRequest(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	result, err := l.leaveService.GetLeave(r.Context(), middleware.IdentityFrom(r.Context()), id)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// UpdateRequest implements LeaveHandler.
func (l *LeaveHandlerImpl) UpdateRequest(w http.ResponseWriter, r *http.Request) {
	var req leave.UpdateLeaveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request format", nil)
		return
	}
	req.ID = chi.URLParam(r, "id")

	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := l.leaveService.UpdateLeave(r.Context(), middleware.IdentityFrom(r.Context()), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Leave request updated successfully", result)
}

// SetStatus implements LeaveHandler.
func (l *LeaveHandlerImpl) SetStatus(w http.ResponseWriter, r *http.Request) {
	var req leave.UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request format", nil)
		return
	}
	req.ID = chi.URLParam(r, "id")

	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := l.leaveService.SetLeaveStatus(r.Context(), middleware.IdentityFrom(r.Context()), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Leave request updated successfully", result)
}

// DeleteRequest implements LeaveHandler.
func (l *LeaveHandlerImpl) DeleteRequest(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := l.leaveService.DeleteLeave(r.Context(), middleware.IdentityFrom(r.Context()), id); err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Leave request deleted successfully", nil)
}

// ListResponses implements LeaveHandler.
func (l *LeaveHandlerImpl) ListResponses(w http.ResponseWriter, r *http.Request) {
	result, err := l.leaveService.ListResponses(r.Context(), middleware.IdentityFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// AddResponse implements LeaveHandler.
func (l *LeaveHandlerImpl) AddResponse(w http.ResponseWriter, r *http.Request) {
	var req leave.ResponseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request format", nil)
		return
	}
	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := l.leaveService.AddResponse(r.Context(), middleware.IdentityFrom(r.Context()), chi.URLParam(r, "id"), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Response added", result)
}

// UpdateResponse implements LeaveHandler.
func (l *LeaveHandlerImpl) UpdateResponse(w http.ResponseWriter, r *http.Request) {
	var req leave.ResponseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request format", nil)
		return
	}
	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := l.leaveService.UpdateResponse(r.Context(), middleware.IdentityFrom(r.Context()),
		chi.URLParam(r, "id"), chi.URLParam(r, "responseID"), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Response updated", result)
}

// DeleteResponse implements LeaveHandler.
func (l *LeaveHandlerImpl) DeleteResponse(w http.ResponseWriter, r *http.Request) {
	err := l.leaveService.DeleteResponse(r.Context(), middleware.IdentityFrom(r.Context()),
		chi.URLParam(r, "id"), chi.URLParam(r, "responseID"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Response deleted", nil)
}

// GetBalance implements LeaveHandler.
func (l *LeaveHandlerImpl) GetBalance(w http.ResponseWriter, r *http.Request) {
	result, err := l.leaveService.GetBalance(r.Context(), middleware.IdentityFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// UpdateAllocation implements LeaveHandler.
func (l *LeaveHandlerImpl) UpdateAllocation(w http.ResponseWriter, r *http.Request) {
	var req leave.AllocationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request format", nil)
		return
	}
	req.UserID = chi.URLParam(r, "id")

	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := l.leaveService.UpdateAllocation(r.Context(), middleware.IdentityFrom(r.Context()), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Leave allocation updated", result)
}

type rebuildRequest struct {
	UserID string `json:"user_id"`
}

// RebuildBalances implements LeaveHandler. An empty body rebuilds every
// user and reports only the balances that moved.
func (l *LeaveHandlerImpl) RebuildBalances(w http.ResponseWriter, r *http.Request) {
	var req rebuildRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	if req.UserID != "" {
		drift, err := l.repairer.RebuildBalance(r.Context(), req.UserID)
		if err != nil {
			response.HandleError(w, err)
			return
		}
		response.Success(w, []leave.Drift{drift})
		return
	}

	drifts, err := l.repairer.RebuildAll(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}
	if drifts == nil {
		drifts = []leave.Drift{}
	}

	response.SuccessWithMessage(w, "Leave balances rebuilt", drifts)
}

// Permissions implements LeaveHandler.
func (l *LeaveHandlerImpl) Permissions(w http.ResponseWriter, r *http.Request) {
	caller := middleware.IdentityFrom(r.Context())
	response.Success(w, map[string]bool{
		"can_manage_holidays": l.leaveService.CanManageHolidays(caller),
	})
}

package http

import (
	"net/http"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/leave"
	"github.com/cmlabs-hris/attendance-engine/internal/handler/http/middleware"
	"github.com/cmlabs-hris/attendance-engine/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

type LeaveHandler interface {
	Validate(w http.ResponseWriter, r *http.Request)
	Apply(w http.ResponseWriter, r *http.Request)
	ListApplications(w http.ResponseWriter, r *http.Request)
	GetMyApplications(w http.ResponseWriter, r *http.Request)
	GetApplication(w http.ResponseWriter, r *http.Request)
	Approve(w http.ResponseWriter, r *http.Request)
	Reject(w http.ResponseWriter, r *http.Request)
	GetBalance(w http.ResponseWriter, r *http.Request)
}

type LeaveHandlerImpl struct {
	leaveService leave.LeaveService
}

func NewLeaveHandler(leaveService leave.LeaveService) LeaveHandler {
	return &LeaveHandlerImpl{
		leaveService: leaveService,
	}
}

// Validate implements LeaveHandler.
func (l *LeaveHandlerImpl) Validate(w http.ResponseWriter, r *http.Request) {
	var req leave.ApplyLeaveRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	preview, err := l.leaveService.Validate(r.Context(), middleware.ActorFromContext(r.Context()), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, preview.Message, preview)
}

// Apply implements LeaveHandler.
func (l *LeaveHandlerImpl) Apply(w http.ResponseWriter, r *http.Request) {
	var req leave.ApplyLeaveRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	application, err := l.leaveService.Apply(r.Context(), middleware.ActorFromContext(r.Context()), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Leave application submitted successfully", application)
}

func applicationMeta(res leave.ListApplicationResponse) *response.Meta {
	return &response.Meta{
		Page:       res.Page,
		Limit:      res.Limit,
		TotalItems: res.TotalCount,
		TotalPages: res.TotalPages,
	}
}

// ListApplications implements LeaveHandler.
func (l *LeaveHandlerImpl) ListApplications(w http.ResponseWriter, r *http.Request) {
	filter := leave.ApplicationFilter{
		EmployeeID: queryString(r, "employee_id"),
		Status:     queryString(r, "status"),
		LeaveType:  queryString(r, "leave_type"),
		Page:       queryInt(r, "page"),
		Limit:      queryInt(r, "limit"),
	}

	result, err := l.leaveService.ListApplications(r.Context(), middleware.ActorFromContext(r.Context()), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMeta(w, result.Applications, applicationMeta(result))
}

// GetMyApplications implements LeaveHandler.
func (l *LeaveHandlerImpl) GetMyApplications(w http.ResponseWriter, r *http.Request) {
	filter := leave.MyApplicationFilter{
		Status: queryString(r, "status"),
		Page:   queryInt(r, "page"),
		Limit:  queryInt(r, "limit"),
	}

	result, err := l.leaveService.MyApplications(r.Context(), middleware.ActorFromContext(r.Context()), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMeta(w, result.Applications, applicationMeta(result))
}

// GetApplication implements LeaveHandler.
func (l *LeaveHandlerImpl) GetApplication(w http.ResponseWriter, r *http.Request) {
	application, err := l.leaveService.GetApplication(r.Context(), middleware.ActorFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, application)
}

// Approve implements LeaveHandler.
func (l *LeaveHandlerImpl) Approve(w http.ResponseWriter, r *http.Request) {
	application, err := l.leaveService.Approve(r.Context(), middleware.ActorFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Leave application approved", application)
}

// Reject implements LeaveHandler.
func (l *LeaveHandlerImpl) Reject(w http.ResponseWriter, r *http.Request) {
	var req leave.RejectLeaveRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.ID = chi.URLParam(r, "id")

	application, err := l.leaveService.Reject(r.Context(), middleware.ActorFromContext(r.Context()), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Leave application rejected", application)
}

// GetBalance implements LeaveHandler. Admins may pass ?employee_id=.
func (l *LeaveHandlerImpl) GetBalance(w http.ResponseWriter, r *http.Request) {
	summary, err := l.leaveService.BalanceSummary(r.Context(), middleware.ActorFromContext(r.Context()), r.URL.Query().Get("employee_id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, summary)
}

package http

import (
	"net/http"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/branch"
	"github.com/cmlabs-hris/attendance-engine/internal/handler/http/middleware"
	"github.com/cmlabs-hris/attendance-engine/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

type BranchHandler interface {
	CreateBranch(w http.ResponseWriter, r *http.Request)
	UpdateBranch(w http.ResponseWriter, r *http.Request)
	GetBranch(w http.ResponseWriter, r *http.Request)
	ListBranches(w http.ResponseWriter, r *http.Request)

	GetWeeklyOffs(w http.ResponseWriter, r *http.Request)
	ReplaceWeeklyOffs(w http.ResponseWriter, r *http.Request)

	ListHolidays(w http.ResponseWriter, r *http.Request)
	AddHoliday(w http.ResponseWriter, r *http.Request)
	DeleteHoliday(w http.ResponseWriter, r *http.Request)
}

type branchHandlerImpl struct {
	branchService branch.BranchService
}

func NewBranchHandler(branchService branch.BranchService) BranchHandler {
	return &branchHandlerImpl{
		branchService: branchService,
	}
}

// ==================== BRANCH ====================

func (h *branchHandlerImpl) CreateBranch(w http.ResponseWriter, r *http.Request) {
	var req branch.SaveBranchRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.branchService.SaveBranch(r.Context(), middleware.ActorFromContext(r.Context()), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Branch created successfully", result)
}

func (h *branchHandlerImpl) UpdateBranch(w http.ResponseWriter, r *http.Request) {
	var req branch.SaveBranchRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.ID = chi.URLParam(r, "id")

	result, err := h.branchService.SaveBranch(r.Context(), middleware.ActorFromContext(r.Context()), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Branch updated successfully", result)
}

func (h *branchHandlerImpl) GetBranch(w http.ResponseWriter, r *http.Request) {
	result, err := h.branchService.GetBranch(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *branchHandlerImpl) ListBranches(w http.ResponseWriter, r *http.Request) {
	result, err := h.branchService.ListBranches(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// ==================== WEEKLY OFFS ====================

func (h *branchHandlerImpl) GetWeeklyOffs(w http.ResponseWriter, r *http.Request) {
	result, err := h.branchService.GetWeeklyOffs(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *branchHandlerImpl) ReplaceWeeklyOffs(w http.ResponseWriter, r *http.Request) {
	var req branch.ReplaceWeeklyOffsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.BranchID = chi.URLParam(r, "id")

	result, err := h.branchService.ReplaceWeeklyOffs(r.Context(), middleware.ActorFromContext(r.Context()), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Weekly offs updated successfully", result)
}

// ==================== HOLIDAYS ====================

func (h *branchHandlerImpl) ListHolidays(w http.ResponseWriter, r *http.Request) {
	filter := branch.HolidayFilter{
		BranchID: chi.URLParam(r, "id"),
		From:     r.URL.Query().Get("from"),
		To:       r.URL.Query().Get("to"),
	}

	result, err := h.branchService.ListHolidays(r.Context(), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *branchHandlerImpl) AddHoliday(w http.ResponseWriter, r *http.Request) {
	var req branch.AddHolidayRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.BranchID = chi.URLParam(r, "id")

	result, err := h.branchService.AddHoliday(r.Context(), middleware.ActorFromContext(r.Context()), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Holiday added successfully", result)
}

func (h *branchHandlerImpl) DeleteHoliday(w http.ResponseWriter, r *http.Request) {
	if err := h.branchService.DeleteHoliday(r.Context(), middleware.ActorFromContext(r.Context()), chi.URLParam(r, "holidayID")); err != nil {
		response.HandleError(w, err)
		return
	}

	response.NoContent(w)
}

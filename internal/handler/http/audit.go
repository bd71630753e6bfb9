package http

import (
	"net/http"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/audit"
	"github.com/cmlabs-hris/attendance-engine/internal/handler/http/middleware"
	"github.com/cmlabs-hris/attendance-engine/internal/handler/http/response"
)

type AuditHandler interface {
	List(w http.ResponseWriter, r *http.Request)
}

type auditHandlerImpl struct {
	auditService audit.AuditService
}

func NewAuditHandler(auditService audit.AuditService) AuditHandler {
	return &auditHandlerImpl{auditService: auditService}
}

func (h *auditHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	filter := audit.AuditFilter{
		ActorID:     queryString(r, "actor_id"),
		Action:      queryString(r, "action"),
		TargetTable: queryString(r, "target_table"),
		TargetID:    queryString(r, "target_id"),
		Page:        queryInt(r, "page"),
		Limit:       queryInt(r, "limit"),
	}

	result, err := h.auditService.List(r.Context(), middleware.ActorFromContext(r.Context()), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMeta(w, result.Entries, &response.Meta{
		Page:       result.Page,
		Limit:      result.Limit,
		TotalItems: result.TotalCount,
		TotalPages: result.TotalPages,
	})
}

package audit

import (
	"context"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/employee"
)

// Recorder appends audit entries. Record must be called with the ctx of the
// enclosing transaction so the entry commits or rolls back with the mutation.
type Recorder interface {
	Record(ctx context.Context, actorID, action, targetTable, targetID string, oldValues, newValues Values) error
}

type AuditService interface {
	Recorder
	List(ctx context.Context, actor employee.Actor, filter AuditFilter) (ListAuditResponse, error)
}

package audit

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/audit"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/employee"
)

type AuditServiceImpl struct {
	audit.AuditRepository
}

func NewAuditService(auditRepository audit.AuditRepository) audit.AuditService {
	return &AuditServiceImpl{
		AuditRepository: auditRepository,
	}
}

// Record implements audit.Recorder.
func (s *AuditServiceImpl) Record(ctx context.Context, actorID, action, targetTable, targetID string, oldValues, newValues audit.Values) error {
	_, err := s.AuditRepository.Append(ctx, audit.Entry{
		ActorID:     actorID,
		Action:      action,
		TargetTable: targetTable,
		TargetID:    targetID,
		OldValues:   oldValues,
		NewValues:   newValues,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to append audit entry", "action", action, "target_table", targetTable, "target_id", targetID, "error", err)
		return fmt.Errorf("%w: %w", audit.ErrAuditWriteFailed, err)
	}
	return nil
}

// List implements audit.AuditService.
func (s *AuditServiceImpl) List(ctx context.Context, actor employee.Actor, filter audit.AuditFilter) (audit.ListAuditResponse, error) {
	if err := actor.RequireAdmin(); err != nil {
		return audit.ListAuditResponse{}, err
	}
	if err := filter.Validate(); err != nil {
		return audit.ListAuditResponse{}, err
	}

	entries, total, err := s.AuditRepository.List(ctx, filter)
	if err != nil {
		return audit.ListAuditResponse{}, fmt.Errorf("failed to list audit entries: %w", err)
	}

	responses := make([]audit.EntryResponse, 0, len(entries))
	for _, e := range entries {
		responses = append(responses, audit.EntryResponse{
			ID:          e.ID,
			ActorID:     e.ActorID,
			Action:      e.Action,
			TargetTable: e.TargetTable,
			TargetID:    e.TargetID,
			OldValues:   e.OldValues,
			NewValues:   e.NewValues,
			CreatedAt:   e.CreatedAt.Format(time.RFC3339),
		})
	}

	return audit.ListAuditResponse{
		TotalCount: total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: int(math.Ceil(float64(total) / float64(filter.Limit))),
		Entries:    responses,
	}, nil
}

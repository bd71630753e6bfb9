package memory

import (
	"context"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/audit"
	"github.com/google/uuid"
)

type auditRepository struct {
	store *Store
}

func NewAuditRepository(store *Store) audit.AuditRepository {
	return &auditRepository{store: store}
}

func (r *auditRepository) Append(ctx context.Context, entry audit.Entry) (audit.Entry, error) {
	err := r.store.write(ctx, func(t *tables) error {
		entry.ID = uuid.NewString()
		entry.CreatedAt = time.Now()
		t.auditLog = append(t.auditLog, entry)
		return nil
	})
	if err != nil {
		return audit.Entry{}, err
	}
	return entry, nil
}

// List returns entries newest first.
func (r *auditRepository) List(ctx context.Context, filter audit.AuditFilter) ([]audit.Entry, int64, error) {
	var result []audit.Entry
	var total int64
	err := r.store.read(func(t *tables) error {
		var matched []audit.Entry
		for i := len(t.auditLog) - 1; i >= 0; i-- {
			e := t.auditLog[i]
			if !matches(filter.ActorID, e.ActorID) || !matches(filter.Action, e.Action) ||
				!matches(filter.TargetTable, e.TargetTable) || !matches(filter.TargetID, e.TargetID) {
				continue
			}
			matched = append(matched, e)
		}
		total = int64(len(matched))
		result = paginate(matched, filter.Page, filter.Limit)
		return nil
	})
	return result, total, err
}

func matches(want *string, got string) bool {
	return want == nil || *want == "" || *want == got
}

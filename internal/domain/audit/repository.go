package audit

import "context"

type AuditRepository interface {
	Append(ctx context.Context, entry Entry) (Entry, error)
	List(ctx context.Context, filter AuditFilter) ([]Entry, int64, error)
}

package leave

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/leave"
)

// ConflictService reports overlap with the employee's pending and approved applications.
type ConflictService struct {
	leave.ApplicationRepository
}

func NewConflictService(applicationRepository leave.ApplicationRepository) *ConflictService {
	return &ConflictService{
		ApplicationRepository: applicationRepository,
	}
}

var _ leave.ConflictDetector = (*ConflictService)(nil)

// HasOverlap uses inclusive endpoints: ranges touching on a single day overlap.
func (c *ConflictService) HasOverlap(ctx context.Context, employeeID string, start, end time.Time) (bool, error) {
	overlap, err := c.ApplicationRepository.HasOverlap(ctx, employeeID, start, end)
	if err != nil {
		return false, fmt.Errorf("failed to check leave overlap: %w", err)
	}
	return overlap, nil
}

package audit

import (
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/validator"
)

type AuditFilter struct {
	ActorID     *string `json:"actor_id,omitempty"`
	Action      *string `json:"action,omitempty"`
	TargetTable *string `json:"target_table,omitempty"`
	TargetID    *string `json:"target_id,omitempty"`

	Page  int `json:"page"`
	Limit int `json:"limit"`
}

func (f *AuditFilter) Validate() error {
	var errs validator.ValidationErrors
	if f.Page < 0 {
		errs = append(errs, validator.ValidationError{Field: "page", Message: "page must be a positive number"})
	}
	if f.Page == 0 {
		f.Page = 1
	}
	if f.Limit < 0 {
		errs = append(errs, validator.ValidationError{Field: "limit", Message: "limit must be a positive number"})
	}
	if f.Limit == 0 {
		f.Limit = 50
	}
	if f.Limit > 200 {
		errs = append(errs, validator.ValidationError{Field: "limit", Message: "limit must not exceed 200"})
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

type EntryResponse struct {
	ID          string `json:"id"`
	ActorID     string `json:"actor_id"`
	Action      string `json:"action"`
	TargetTable string `json:"target_table"`
	TargetID    string `json:"target_id"`
	OldValues   Values `json:"old_values,omitempty"`
	NewValues   Values `json:"new_values,omitempty"`
	CreatedAt   string `json:"created_at"`
}

type ListAuditResponse struct {
	TotalCount int64           `json:"total_count"`
	Page       int             `json:"page"`
	Limit      int             `json:"limit"`
	TotalPages int             `json:"total_pages"`
	Entries    []EntryResponse `json:"entries"`
}

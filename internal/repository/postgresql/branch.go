package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/branch"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/database"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

type branchRepositoryImpl struct {
	db *database.DB
}

func NewBranchRepository(db *database.DB) branch.BranchRepository {
	return &branchRepositoryImpl{db: db}
}

const branchColumns = `id, name, location, timezone, latitude, longitude, created_at, updated_at`

func scanBranch(row pgx.Row) (branch.Branch, error) {
	var b branch.Branch
	err := row.Scan(&b.ID, &b.Name, &b.Location, &b.Timezone, &b.Latitude, &b.Longitude, &b.CreatedAt, &b.UpdatedAt)
	return b, err
}

// Create implements branch.BranchRepository.
func (r *branchRepositoryImpl) Create(ctx context.Context, b branch.Branch) (branch.Branch, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO branches (name, location, timezone, latitude, longitude, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		RETURNING ` + branchColumns

	result, err := scanBranch(q.QueryRow(ctx, query, b.Name, b.Location, b.Timezone, b.Latitude, b.Longitude))
	if err != nil {
		return branch.Branch{}, fmt.Errorf("failed to create branch: %w", err)
	}
	return result, nil
}

// Update implements branch.BranchRepository.
func (r *branchRepositoryImpl) Update(ctx context.Context, b branch.Branch) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE branches
		SET name = $2, location = $3, timezone = $4, latitude = $5, longitude = $6, updated_at = NOW()
		WHERE id = $1
	`
	tag, err := q.Exec(ctx, query, b.ID, b.Name, b.Location, b.Timezone, b.Latitude, b.Longitude)
	if err != nil {
		return fmt.Errorf("failed to update branch: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return branch.ErrBranchNotFound
	}
	return nil
}

// GetByID implements branch.BranchRepository.
func (r *branchRepositoryImpl) GetByID(ctx context.Context, id string) (branch.Branch, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + branchColumns + ` FROM branches WHERE id = $1`

	result, err := scanBranch(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return branch.Branch{}, branch.ErrBranchNotFound
		}
		return branch.Branch{}, fmt.Errorf("failed to get branch by id: %w", err)
	}
	return result, nil
}

// List implements branch.BranchRepository.
func (r *branchRepositoryImpl) List(ctx context.Context) ([]branch.Branch, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `SELECT `+branchColumns+` FROM branches ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list branches: %w", err)
	}
	defer rows.Close()

	var branches []branch.Branch
	for rows.Next() {
		b, err := scanBranch(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan branch: %w", err)
		}
		branches = append(branches, b)
	}
	return branches, rows.Err()
}

// GetShiftPolicy implements branch.BranchRepository.
func (r *branchRepositoryImpl) GetShiftPolicy(ctx context.Context, branchID string) (branch.ShiftPolicy, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT branch_id, shift_start, shift_end, grace_period_minutes, half_day_after_minutes, updated_at
		FROM branch_settings
		WHERE branch_id = $1
	`

	var policy branch.ShiftPolicy
	var start, end pgtype.Time
	err := q.QueryRow(ctx, query, branchID).Scan(
		&policy.BranchID, &start, &end,
		&policy.GracePeriodMinutes, &policy.HalfDayAfterMinutes, &policy.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return branch.ShiftPolicy{}, branch.ErrShiftPolicyNotFound
		}
		return branch.ShiftPolicy{}, fmt.Errorf("failed to get shift policy: %w", err)
	}
	policy.ShiftStart = timeOfDayFromPg(start)
	policy.ShiftEnd = timeOfDayFromPg(end)
	return policy, nil
}

// UpsertShiftPolicy implements branch.BranchRepository.
func (r *branchRepositoryImpl) UpsertShiftPolicy(ctx context.Context, policy branch.ShiftPolicy) error {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO branch_settings (branch_id, shift_start, shift_end, grace_period_minutes, half_day_after_minutes, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (branch_id) DO UPDATE SET
			shift_start = EXCLUDED.shift_start,
			shift_end = EXCLUDED.shift_end,
			grace_period_minutes = EXCLUDED.grace_period_minutes,
			half_day_after_minutes = EXCLUDED.half_day_after_minutes,
			updated_at = NOW()
	`
	_, err := q.Exec(ctx, query,
		policy.BranchID,
		timeOfDayToPg(policy.ShiftStart),
		timeOfDayToPg(policy.ShiftEnd),
		policy.GracePeriodMinutes,
		policy.HalfDayAfterMinutes,
	)
	if err != nil {
		return fmt.Errorf("failed to save shift policy: %w", err)
	}
	return nil
}

func timeOfDayFromPg(t pgtype.Time) branch.TimeOfDay {
	minutes := int(t.Microseconds / int64(60_000_000))
	return branch.TimeOfDay{Hour: minutes / 60, Minute: minutes % 60}
}

func timeOfDayToPg(t branch.TimeOfDay) pgtype.Time {
	return pgtype.Time{Microseconds: int64(t.Minutes()) * 60_000_000, Valid: true}
}

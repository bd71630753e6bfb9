package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/branch"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type calendarRepositoryImpl struct {
	db *database.DB
}

func NewCalendarRepository(db *database.DB) branch.CalendarRepository {
	return &calendarRepositoryImpl{db: db}
}

// ListHolidays implements branch.CalendarRepository.
func (r *calendarRepositoryImpl) ListHolidays(ctx context.Context, branchID string, from, to time.Time) ([]branch.Holiday, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, branch_id, date, name, created_at
		FROM holidays
		WHERE branch_id = $1 AND date BETWEEN $2 AND $3
		ORDER BY date ASC
	`
	rows, err := q.Query(ctx, query, branchID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list holidays: %w", err)
	}
	defer rows.Close()

	var holidays []branch.Holiday
	for rows.Next() {
		var h branch.Holiday
		if err := rows.Scan(&h.ID, &h.BranchID, &h.Date, &h.Name, &h.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan holiday: %w", err)
		}
		holidays = append(holidays, h)
	}
	return holidays, rows.Err()
}

// GetHoliday implements branch.CalendarRepository.
func (r *calendarRepositoryImpl) GetHoliday(ctx context.Context, id string) (branch.Holiday, error) {
	q := GetQuerier(ctx, r.db)

	var h branch.Holiday
	err := q.QueryRow(ctx, `SELECT id, branch_id, date, name, created_at FROM holidays WHERE id = $1`, id).
		Scan(&h.ID, &h.BranchID, &h.Date, &h.Name, &h.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return branch.Holiday{}, branch.ErrHolidayNotFound
		}
		return branch.Holiday{}, fmt.Errorf("failed to get holiday: %w", err)
	}
	return h, nil
}

// CreateHoliday implements branch.CalendarRepository.
func (r *calendarRepositoryImpl) CreateHoliday(ctx context.Context, holiday branch.Holiday) (branch.Holiday, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO holidays (branch_id, date, name, created_at)
		VALUES ($1, $2, $3, NOW())
		RETURNING id, created_at
	`
	err := q.QueryRow(ctx, query, holiday.BranchID, holiday.Date, holiday.Name).Scan(&holiday.ID, &holiday.CreatedAt)
	if err != nil {
		if name, ok := constraintViolation(err); ok && name == "holidays_branch_date_key" {
			return branch.Holiday{}, branch.ErrHolidayExists
		}
		return branch.Holiday{}, fmt.Errorf("failed to create holiday: %w", err)
	}
	return holiday, nil
}

// DeleteHoliday implements branch.CalendarRepository.
func (r *calendarRepositoryImpl) DeleteHoliday(ctx context.Context, id string) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `DELETE FROM holidays WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete holiday: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return branch.ErrHolidayNotFound
	}
	return nil
}

// GetWeeklyOffs implements branch.CalendarRepository.
func (r *calendarRepositoryImpl) GetWeeklyOffs(ctx context.Context, branchID string) ([]time.Weekday, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `SELECT day_of_week FROM weekly_offs WHERE branch_id = $1 ORDER BY day_of_week`, branchID)
	if err != nil {
		return nil, fmt.Errorf("failed to get weekly offs: %w", err)
	}
	defer rows.Close()

	var days []time.Weekday
	for rows.Next() {
		var d int16
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("failed to scan weekly off: %w", err)
		}
		days = append(days, time.Weekday(d))
	}
	return days, rows.Err()
}

// ReplaceWeeklyOffs implements branch.CalendarRepository.
func (r *calendarRepositoryImpl) ReplaceWeeklyOffs(ctx context.Context, branchID string, days []time.Weekday) error {
	q := GetQuerier(ctx, r.db)

	if _, err := q.Exec(ctx, `DELETE FROM weekly_offs WHERE branch_id = $1`, branchID); err != nil {
		return fmt.Errorf("failed to clear weekly offs: %w", err)
	}
	for _, d := range days {
		if _, err := q.Exec(ctx, `INSERT INTO weekly_offs (branch_id, day_of_week) VALUES ($1, $2)`, branchID, int16(d)); err != nil {
			return fmt.Errorf("failed to insert weekly off: %w", err)
		}
	}
	return nil
}

package memory

import (
	"cmp"
	"context"
	"slices"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/branch"
	"github.com/google/uuid"
)

type branchRepository struct {
	store *Store
}

func NewBranchRepository(store *Store) branch.BranchRepository {
	return &branchRepository{store: store}
}

func (r *branchRepository) Create(ctx context.Context, b branch.Branch) (branch.Branch, error) {
	err := r.store.write(ctx, func(t *tables) error {
		now := time.Now()
		b.ID = uuid.NewString()
		b.CreatedAt = now
		b.UpdatedAt = now
		t.branches[b.ID] = b
		return nil
	})
	if err != nil {
		return branch.Branch{}, err
	}
	return b, nil
}

func (r *branchRepository) Update(ctx context.Context, b branch.Branch) error {
	return r.store.write(ctx, func(t *tables) error {
		existing, ok := t.branches[b.ID]
		if !ok {
			return branch.ErrBranchNotFound
		}
		b.CreatedAt = existing.CreatedAt
		b.UpdatedAt = time.Now()
		t.branches[b.ID] = b
		return nil
	})
}

func (r *branchRepository) GetByID(ctx context.Context, id string) (branch.Branch, error) {
	var b branch.Branch
	err := r.store.read(func(t *tables) error {
		found, ok := t.branches[id]
		if !ok {
			return branch.ErrBranchNotFound
		}
		b = found
		return nil
	})
	return b, err
}

func (r *branchRepository) List(ctx context.Context) ([]branch.Branch, error) {
	var branches []branch.Branch
	err := r.store.read(func(t *tables) error {
		for _, b := range t.branches {
			branches = append(branches, b)
		}
		return nil
	})
	slices.SortFunc(branches, func(a, b branch.Branch) int {
		return cmp.Or(cmp.Compare(a.Name, b.Name), cmp.Compare(a.ID, b.ID))
	})
	return branches, err
}

func (r *branchRepository) GetShiftPolicy(ctx context.Context, branchID string) (branch.ShiftPolicy, error) {
	var policy branch.ShiftPolicy
	err := r.store.read(func(t *tables) error {
		found, ok := t.shiftPolicies[branchID]
		if !ok {
			return branch.ErrShiftPolicyNotFound
		}
		policy = found
		return nil
	})
	return policy, err
}

func (r *branchRepository) UpsertShiftPolicy(ctx context.Context, policy branch.ShiftPolicy) error {
	return r.store.write(ctx, func(t *tables) error {
		if _, ok := t.branches[policy.BranchID]; !ok {
			return branch.ErrBranchNotFound
		}
		policy.UpdatedAt = time.Now()
		t.shiftPolicies[policy.BranchID] = policy
		return nil
	})
}

type calendarRepository struct {
	store *Store
}

func NewCalendarRepository(store *Store) branch.CalendarRepository {
	return &calendarRepository{store: store}
}

func (r *calendarRepository) ListHolidays(ctx context.Context, branchID string, from, to time.Time) ([]branch.Holiday, error) {
	var holidays []branch.Holiday
	err := r.store.read(func(t *tables) error {
		from, to := dateOnly(from), dateOnly(to)
		for _, h := range t.holidays {
			if h.BranchID != branchID || h.Date.Before(from) || h.Date.After(to) {
				continue
			}
			holidays = append(holidays, h)
		}
		return nil
	})
	slices.SortFunc(holidays, func(a, b branch.Holiday) int { return a.Date.Compare(b.Date) })
	return holidays, err
}

func (r *calendarRepository) GetHoliday(ctx context.Context, id string) (branch.Holiday, error) {
	var h branch.Holiday
	err := r.store.read(func(t *tables) error {
		found, ok := t.holidays[id]
		if !ok {
			return branch.ErrHolidayNotFound
		}
		h = found
		return nil
	})
	return h, err
}

func (r *calendarRepository) CreateHoliday(ctx context.Context, holiday branch.Holiday) (branch.Holiday, error) {
	err := r.store.write(ctx, func(t *tables) error {
		holiday.Date = dateOnly(holiday.Date)
		for _, h := range t.holidays {
			if h.BranchID == holiday.BranchID && h.Date.Equal(holiday.Date) {
				return branch.ErrHolidayExists
			}
		}
		holiday.ID = uuid.NewString()
		holiday.CreatedAt = time.Now()
		t.holidays[holiday.ID] = holiday
		return nil
	})
	if err != nil {
		return branch.Holiday{}, err
	}
	return holiday, nil
}

func (r *calendarRepository) DeleteHoliday(ctx context.Context, id string) error {
	return r.store.write(ctx, func(t *tables) error {
		if _, ok := t.holidays[id]; !ok {
			return branch.ErrHolidayNotFound
		}
		delete(t.holidays, id)
		return nil
	})
}

func (r *calendarRepository) GetWeeklyOffs(ctx context.Context, branchID string) ([]time.Weekday, error) {
	var days []time.Weekday
	err := r.store.read(func(t *tables) error {
		days = slices.Clone(t.weeklyOffs[branchID])
		return nil
	})
	slices.Sort(days)
	return days, err
}

func (r *calendarRepository) ReplaceWeeklyOffs(ctx context.Context, branchID string, days []time.Weekday) error {
	return r.store.write(ctx, func(t *tables) error {
		t.weeklyOffs[branchID] = slices.Clone(days)
		return nil
	})
}

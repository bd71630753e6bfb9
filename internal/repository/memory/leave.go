package memory

import (
	"cmp"
	"context"
	"slices"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/leave"
	"github.com/google/uuid"
)

type leaveApplicationRepository struct {
	store *Store
}

func NewLeaveApplicationRepository(store *Store) leave.ApplicationRepository {
	return &leaveApplicationRepository{store: store}
}

func (r *leaveApplicationRepository) Create(ctx context.Context, application leave.Application) (leave.Application, error) {
	err := r.store.write(ctx, func(t *tables) error {
		application.StartDate = dateOnly(application.StartDate)
		application.EndDate = dateOnly(application.EndDate)
		if overlaps(t, application.EmployeeID, application.StartDate, application.EndDate) {
			return leave.ErrOverlappingApplication
		}
		now := time.Now()
		application.ID = uuid.NewString()
		application.CreatedAt = now
		application.UpdatedAt = now
		application.EmployeeName = nil
		t.applications[application.ID] = application
		return nil
	})
	if err != nil {
		return leave.Application{}, err
	}
	return application, nil
}

func (r *leaveApplicationRepository) GetByID(ctx context.Context, id string) (leave.Application, error) {
	var a leave.Application
	err := r.store.read(func(t *tables) error {
		found, ok := t.applications[id]
		if !ok {
			return leave.ErrApplicationNotFound
		}
		a = withApplicantName(t, found)
		return nil
	})
	return a, err
}

func (r *leaveApplicationRepository) HasOverlap(ctx context.Context, employeeID string, start, end time.Time) (bool, error) {
	var found bool
	err := r.store.read(func(t *tables) error {
		found = overlaps(t, employeeID, dateOnly(start), dateOnly(end))
		return nil
	})
	return found, err
}

func (r *leaveApplicationRepository) UpdateStatus(ctx context.Context, id string, status leave.Status, decidedBy string, decidedAt time.Time, rejectionReason *string) error {
	return r.store.write(ctx, func(t *tables) error {
		a, ok := t.applications[id]
		if !ok {
			return leave.ErrApplicationNotFound
		}
		if a.Status != leave.StatusPending {
			return leave.ErrApplicationAlreadyProcessed
		}
		a.Status = status
		a.DecidedBy = &decidedBy
		a.DecidedAt = &decidedAt
		a.RejectionReason = rejectionReason
		a.UpdatedAt = time.Now()
		t.applications[id] = a
		return nil
	})
}

func (r *leaveApplicationRepository) List(ctx context.Context, filter leave.ApplicationFilter) ([]leave.Application, int64, error) {
	var result []leave.Application
	var total int64
	err := r.store.read(func(t *tables) error {
		var matched []leave.Application
		for _, a := range t.applications {
			if filter.EmployeeID != nil && *filter.EmployeeID != "" && a.EmployeeID != *filter.EmployeeID {
				continue
			}
			if filter.Status != nil && *filter.Status != "" && string(a.Status) != *filter.Status {
				continue
			}
			if filter.LeaveType != nil && *filter.LeaveType != "" && string(a.LeaveType) != *filter.LeaveType {
				continue
			}
			matched = append(matched, withApplicantName(t, a))
		}
		slices.SortFunc(matched, func(a, b leave.Application) int {
			return cmp.Or(b.CreatedAt.Compare(a.CreatedAt), cmp.Compare(a.ID, b.ID))
		})
		total = int64(len(matched))
		result = paginate(matched, filter.Page, filter.Limit)
		return nil
	})
	return result, total, err
}

func overlaps(t *tables, employeeID string, start, end time.Time) bool {
	for _, a := range t.applications {
		if a.EmployeeID == employeeID && a.Blocking() && a.Overlaps(start, end) {
			return true
		}
	}
	return false
}

func withApplicantName(t *tables, a leave.Application) leave.Application {
	if e, ok := t.employees[a.EmployeeID]; ok {
		name := e.FullName
		a.EmployeeName = &name
	}
	return a
}

type leaveBalanceRepository struct {
	store *Store
}

func NewLeaveBalanceRepository(store *Store) leave.BalanceRepository {
	return &leaveBalanceRepository{store: store}
}

func (r *leaveBalanceRepository) CreateGrants(ctx context.Context, grants []leave.Balance) error {
	return r.store.write(ctx, func(t *tables) error {
		for _, g := range grants {
			if _, ok := t.grants[grantKey{g.EmployeeID, g.Year, g.Month}]; ok {
				return leave.ErrBalanceAlreadyInitialized
			}
		}
		for _, g := range grants {
			t.grants[grantKey{g.EmployeeID, g.Year, g.Month}] = g
		}
		return nil
	})
}

func (r *leaveBalanceRepository) ListGrants(ctx context.Context, employeeID string, year int) ([]leave.Balance, error) {
	var grants []leave.Balance
	err := r.store.read(func(t *tables) error {
		for k, g := range t.grants {
			if k.employeeID == employeeID && k.year == year {
				grants = append(grants, g)
			}
		}
		return nil
	})
	slices.SortFunc(grants, func(a, b leave.Balance) int { return cmp.Compare(a.Month, b.Month) })
	return grants, err
}

func (r *leaveBalanceRepository) SumGrants(ctx context.Context, employeeID string, leaveType leave.LeaveType, year, fromMonth int) (int, error) {
	var sum int
	err := r.store.read(func(t *tables) error {
		for k, g := range t.grants {
			if k.employeeID == employeeID && k.year == year && k.month >= fromMonth {
				sum += g.For(leaveType)
			}
		}
		return nil
	})
	return sum, err
}

func (r *leaveBalanceRepository) SumEntries(ctx context.Context, employeeID string, leaveType leave.LeaveType, year, fromMonth int) (int, error) {
	var sum int
	err := r.store.read(func(t *tables) error {
		for _, e := range t.entries {
			if e.EmployeeID == employeeID && e.LeaveType == leaveType && e.Year == year && e.Month >= fromMonth {
				sum += e.Delta
			}
		}
		return nil
	})
	return sum, err
}

func (r *leaveBalanceRepository) NetEntriesByMonth(ctx context.Context, employeeID string, leaveType leave.LeaveType, year int) (map[int]int, error) {
	net := make(map[int]int)
	err := r.store.read(func(t *tables) error {
		for _, e := range t.entries {
			if e.EmployeeID == employeeID && e.LeaveType == leaveType && e.Year == year {
				net[e.Month] += e.Delta
			}
		}
		return nil
	})
	return net, err
}

// LockPool is a no-op: transactions on the store are already serialized.
func (r *leaveBalanceRepository) LockPool(ctx context.Context, employeeID string) error {
	return nil
}

func (r *leaveBalanceRepository) AppendEntry(ctx context.Context, entry leave.BalanceEntry) (leave.BalanceEntry, error) {
	err := r.store.write(ctx, func(t *tables) error {
		entry.ID = uuid.NewString()
		entry.CreatedAt = time.Now()
		t.entries = append(t.entries, entry)
		return nil
	})
	if err != nil {
		return leave.BalanceEntry{}, err
	}
	return entry, nil
}

func (r *leaveBalanceRepository) ListEntriesByApplication(ctx context.Context, applicationID string) ([]leave.BalanceEntry, error) {
	var entries []leave.BalanceEntry
	err := r.store.read(func(t *tables) error {
		for _, e := range t.entries {
			if e.ApplicationID == applicationID {
				entries = append(entries, e)
			}
		}
		return nil
	})
	return entries, err
}

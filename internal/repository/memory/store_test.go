package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/branch"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/leave"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedEmployee(t *testing.T, store *Store, code string) employee.Employee {
	t.Helper()
	ctx := context.Background()

	b, err := NewBranchRepository(store).Create(ctx, branch.Branch{Name: "HQ", Timezone: "UTC"})
	require.NoError(t, err)

	e, err := NewEmployeeRepository(store).Create(ctx, employee.Employee{
		EmployeeCode: code,
		FullName:     "Test " + code,
		Email:        code + "@example.com",
		BranchID:     b.ID,
		Role:         employee.RoleEmployee,
		JoiningDate:  time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	return e
}

func TestTransactor_RollsBackOnError(t *testing.T) {
	// Setup
	ctx := context.Background()
	store := NewStore()
	emp := seedEmployee(t, store, "EMP001")
	repo := NewAttendanceRepository(store)
	tx := NewTransactor(store)
	day := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)

	// Act
	boom := errors.New("boom")
	err := tx.WithinTransaction(ctx, func(ctx context.Context) error {
		_, err := repo.Create(ctx, attendance.Attendance{EmployeeID: emp.ID, Date: day, Status: attendance.StatusPresent})
		require.NoError(t, err)
		return boom
	})

	// Assert
	assert.ErrorIs(t, err, boom)
	_, err = repo.GetByEmployeeAndDate(ctx, emp.ID, day)
	assert.ErrorIs(t, err, attendance.ErrAttendanceNotFound)
}

func TestTransactor_NestedRunsInline(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	emp := seedEmployee(t, store, "EMP001")
	repo := NewAttendanceRepository(store)
	tx := NewTransactor(store)
	day := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)

	err := tx.WithinTransaction(ctx, func(ctx context.Context) error {
		return tx.WithinTransaction(ctx, func(ctx context.Context) error {
			_, err := repo.Create(ctx, attendance.Attendance{EmployeeID: emp.ID, Date: day, Status: attendance.StatusPresent})
			return err
		})
	})
	require.NoError(t, err)

	_, err = repo.GetByEmployeeAndDate(ctx, emp.ID, day)
	assert.NoError(t, err)
}

func TestAttendanceRepository_UniquePerDay(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	emp := seedEmployee(t, store, "EMP001")
	repo := NewAttendanceRepository(store)
	day := time.Date(2023, 6, 1, 9, 0, 0, 0, time.UTC)

	_, err := repo.Create(ctx, attendance.Attendance{EmployeeID: emp.ID, Date: day, Status: attendance.StatusPresent})
	require.NoError(t, err)

	_, err = repo.Create(ctx, attendance.Attendance{EmployeeID: emp.ID, Date: day.Add(3 * time.Hour), Status: attendance.StatusPresent})
	assert.ErrorIs(t, err, attendance.ErrAlreadyMarked)

	records, total, err := repo.List(ctx, attendance.AttendanceFilter{EmployeeID: &emp.ID, Page: 1, Limit: 20})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, records, 1)
	require.NotNil(t, records[0].EmployeeName)
	assert.Equal(t, "Test EMP001", *records[0].EmployeeName)
}

func TestLeaveApplicationRepository_Overlap(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	alice := seedEmployee(t, store, "EMP001")
	bob := seedEmployee(t, store, "EMP002")
	repo := NewLeaveApplicationRepository(store)

	june := func(d int) time.Time { return time.Date(2023, 6, d, 0, 0, 0, 0, time.UTC) }

	first, err := repo.Create(ctx, leave.Application{
		EmployeeID: alice.ID, LeaveType: leave.LeaveTypePrivilege,
		StartDate: june(5), EndDate: june(7), Status: leave.StatusPending,
	})
	require.NoError(t, err)

	_, err = repo.Create(ctx, leave.Application{
		EmployeeID: alice.ID, LeaveType: leave.LeaveTypeEmergency,
		StartDate: june(7), EndDate: june(8), Status: leave.StatusPending,
	})
	assert.ErrorIs(t, err, leave.ErrOverlappingApplication)

	_, err = repo.Create(ctx, leave.Application{
		EmployeeID: bob.ID, LeaveType: leave.LeaveTypeEmergency,
		StartDate: june(7), EndDate: june(8), Status: leave.StatusPending,
	})
	assert.NoError(t, err)

	reason := "team offsite"
	require.NoError(t, repo.UpdateStatus(ctx, first.ID, leave.StatusRejected, bob.ID, time.Now(), &reason))

	overlap, err := repo.HasOverlap(ctx, alice.ID, june(6), june(6))
	require.NoError(t, err)
	assert.False(t, overlap, "rejected applications release their dates")

	err = repo.UpdateStatus(ctx, first.ID, leave.StatusApproved, bob.ID, time.Now(), nil)
	assert.ErrorIs(t, err, leave.ErrApplicationAlreadyProcessed)
}

func TestLeaveBalanceRepository_Sums(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	emp := seedEmployee(t, store, "EMP001")
	repo := NewLeaveBalanceRepository(store)

	var grants []leave.Balance
	for m := 1; m <= 12; m++ {
		grants = append(grants, leave.Balance{EmployeeID: emp.ID, Year: 2023, Month: m, EmergencyLeaves: 1, PrivilegeLeaves: 2})
	}
	require.NoError(t, repo.CreateGrants(ctx, grants))
	assert.ErrorIs(t, repo.CreateGrants(ctx, grants[:1]), leave.ErrBalanceAlreadyInitialized)

	sum, err := repo.SumGrants(ctx, emp.ID, leave.LeaveTypePrivilege, 2023, 11)
	require.NoError(t, err)
	assert.Equal(t, 4, sum)

	sum, err = repo.SumGrants(ctx, emp.ID, leave.LeaveTypeUnpaid, 2023, 1)
	require.NoError(t, err)
	assert.Zero(t, sum)

	_, err = repo.AppendEntry(ctx, leave.BalanceEntry{EmployeeID: emp.ID, ApplicationID: "a1", LeaveType: leave.LeaveTypePrivilege, Year: 2023, Month: 3, Delta: -2, Reason: leave.EntryDebit})
	require.NoError(t, err)
	_, err = repo.AppendEntry(ctx, leave.BalanceEntry{EmployeeID: emp.ID, ApplicationID: "a1", LeaveType: leave.LeaveTypePrivilege, Year: 2023, Month: 4, Delta: -1, Reason: leave.EntryDebit})
	require.NoError(t, err)

	net, err := repo.SumEntries(ctx, emp.ID, leave.LeaveTypePrivilege, 2023, 1)
	require.NoError(t, err)
	assert.Equal(t, -3, net)

	net, err = repo.SumEntries(ctx, emp.ID, leave.LeaveTypePrivilege, 2023, 4)
	require.NoError(t, err)
	assert.Equal(t, -1, net, "movements of earlier months drop out with their grants")

	_, err = repo.AppendEntry(ctx, leave.BalanceEntry{EmployeeID: emp.ID, ApplicationID: "a1", LeaveType: leave.LeaveTypePrivilege, Year: 2023, Month: 3, Delta: 2, Reason: leave.EntryCredit})
	require.NoError(t, err)

	byMonth, err := repo.NetEntriesByMonth(ctx, emp.ID, leave.LeaveTypePrivilege, 2023)
	require.NoError(t, err)
	assert.Equal(t, map[int]int{3: 0, 4: -1}, byMonth)

	entries, err := repo.ListEntriesByApplication(ctx, "a1")
	require.NoError(t, err)
	assert.Len(t, entries, 3)
}

func TestCalendarRepository_HolidayUniquePerBranch(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	b, err := NewBranchRepository(store).Create(ctx, branch.Branch{Name: "HQ", Timezone: "UTC"})
	require.NoError(t, err)
	repo := NewCalendarRepository(store)
	day := time.Date(2023, 8, 15, 0, 0, 0, 0, time.UTC)

	_, err = repo.CreateHoliday(ctx, branch.Holiday{BranchID: b.ID, Date: day, Name: "Independence Day"})
	require.NoError(t, err)
	_, err = repo.CreateHoliday(ctx, branch.Holiday{BranchID: b.ID, Date: day, Name: "Duplicate"})
	assert.ErrorIs(t, err, branch.ErrHolidayExists)

	require.NoError(t, repo.ReplaceWeeklyOffs(ctx, b.ID, []time.Weekday{time.Sunday, time.Saturday}))
	offs, err := repo.GetWeeklyOffs(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, []time.Weekday{time.Sunday, time.Saturday}, offs)
}

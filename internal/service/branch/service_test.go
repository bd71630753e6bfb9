package branch

import (
	"context"
	"testing"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/audit"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/branch"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/validator"
	"github.com/cmlabs-hris/attendance-engine/internal/repository/memory"
	auditService "github.com/cmlabs-hris/attendance-engine/internal/service/audit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	admin    = employee.Actor{EmployeeID: "admin-1", Role: employee.RoleAdmin}
	staffer  = employee.Actor{EmployeeID: "emp-1", Role: employee.RoleEmployee}
	fixedNow = time.Date(2023, 6, 1, 10, 0, 0, 0, time.UTC)
)

type branchFixture struct {
	svc    *BranchServiceImpl
	audits audit.AuditRepository
}

func branchTestInit(t *testing.T) *branchFixture {
	t.Helper()
	store := memory.NewStore()
	audits := memory.NewAuditRepository(store)

	svc := NewBranchService(
		memory.NewTransactor(store),
		memory.NewBranchRepository(store),
		memory.NewCalendarRepository(store),
		auditService.NewAuditService(audits),
	).(*BranchServiceImpl)
	svc.now = func() time.Time { return fixedNow }

	return &branchFixture{svc: svc, audits: audits}
}

func validBranchRequest() branch.SaveBranchRequest {
	return branch.SaveBranchRequest{
		Name:                "Bengaluru",
		Location:            "MG Road",
		Timezone:            "Asia/Kolkata",
		Latitude:            12.9716,
		Longitude:           77.5946,
		ShiftStart:          "09:00",
		ShiftEnd:            "18:00",
		GracePeriodMinutes:  15,
		HalfDayAfterMinutes: 240,
	}
}

func (f *branchFixture) createBranch(t *testing.T) branch.BranchResponse {
	t.Helper()
	res, err := f.svc.SaveBranch(context.Background(), admin, validBranchRequest())
	require.NoError(t, err)
	return res
}

func (f *branchFixture) actions(t *testing.T) []string {
	t.Helper()
	entries, _, err := f.audits.List(context.Background(), audit.AuditFilter{Page: 1, Limit: 50})
	require.NoError(t, err)
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Action)
	}
	return out
}

func TestSaveBranch_CreateThenUpdate(t *testing.T) {
	// Setup
	f := branchTestInit(t)
	ctx := context.Background()

	// Act
	created := f.createBranch(t)

	req := validBranchRequest()
	req.ID = created.ID
	req.Name = "Bengaluru HQ"
	req.GracePeriodMinutes = 10
	updated, err := f.svc.SaveBranch(ctx, admin, req)

	// Assert
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	require.NotNil(t, created.Shift)
	assert.Equal(t, "09:00", created.Shift.ShiftStart)
	assert.Equal(t, 15, created.Shift.GracePeriodMinutes)

	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "Bengaluru HQ", updated.Name)
	assert.Equal(t, 10, updated.Shift.GracePeriodMinutes)
	assert.Equal(t, []string{audit.ActionUpdateBranch, audit.ActionCreateBranch}, f.actions(t))

	entries, _, err := f.audits.List(ctx, audit.AuditFilter{Page: 1, Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, "Bengaluru", entries[0].OldValues["name"])
	assert.Equal(t, 15, entries[0].OldValues["grace_period_minutes"])
}

func TestSaveBranch_Rejections(t *testing.T) {
	f := branchTestInit(t)
	ctx := context.Background()

	_, err := f.svc.SaveBranch(ctx, staffer, validBranchRequest())
	assert.ErrorIs(t, err, employee.ErrAdminRequired)

	req := validBranchRequest()
	req.Timezone = "Mars/Olympus"
	req.ShiftStart = "9am"
	_, err = f.svc.SaveBranch(ctx, admin, req)
	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Len(t, verrs, 2)

	req = validBranchRequest()
	req.ID = "missing"
	_, err = f.svc.SaveBranch(ctx, admin, req)
	assert.ErrorIs(t, err, branch.ErrBranchNotFound)

	assert.Empty(t, f.actions(t))
}

func TestSaveBranch_HalfDayNotAboveGraceIsAccepted(t *testing.T) {
	f := branchTestInit(t)

	req := validBranchRequest()
	req.HalfDayAfterMinutes = 10
	res, err := f.svc.SaveBranch(context.Background(), admin, req)

	require.NoError(t, err)
	assert.Equal(t, 10, res.Shift.HalfDayAfterMinutes)
}

func TestListBranches(t *testing.T) {
	f := branchTestInit(t)
	f.createBranch(t)
	req := validBranchRequest()
	req.Name = "Akola"
	_, err := f.svc.SaveBranch(context.Background(), admin, req)
	require.NoError(t, err)

	branches, err := f.svc.ListBranches(context.Background())

	require.NoError(t, err)
	require.Len(t, branches, 2)
	assert.Equal(t, "Akola", branches[0].Name)
	assert.NotNil(t, branches[1].Shift)
}

func TestReplaceWeeklyOffs(t *testing.T) {
	// Setup
	f := branchTestInit(t)
	ctx := context.Background()
	b := f.createBranch(t)

	// Act
	_, err := f.svc.ReplaceWeeklyOffs(ctx, admin, branch.ReplaceWeeklyOffsRequest{BranchID: b.ID, Days: []int{0, 6}})
	require.NoError(t, err)
	res, err := f.svc.ReplaceWeeklyOffs(ctx, admin, branch.ReplaceWeeklyOffsRequest{BranchID: b.ID, Days: []int{5, 0, 5}})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, []int{0, 5}, res.Days, "the previous set is fully replaced")

	entries, _, err := f.audits.List(ctx, audit.AuditFilter{Page: 1, Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, audit.ActionUpdateWeeklyOffs, entries[0].Action)
	assert.Equal(t, []int{0, 6}, entries[0].OldValues["days"])
	assert.Equal(t, []int{0, 5}, entries[0].NewValues["days"])
}

func TestReplaceWeeklyOffs_Rejections(t *testing.T) {
	f := branchTestInit(t)
	ctx := context.Background()
	b := f.createBranch(t)

	_, err := f.svc.ReplaceWeeklyOffs(ctx, admin, branch.ReplaceWeeklyOffsRequest{BranchID: b.ID, Days: []int{7}})
	var verrs validator.ValidationErrors
	assert.ErrorAs(t, err, &verrs)

	_, err = f.svc.ReplaceWeeklyOffs(ctx, admin, branch.ReplaceWeeklyOffsRequest{BranchID: "missing", Days: []int{0}})
	assert.ErrorIs(t, err, branch.ErrBranchNotFound)

	_, err = f.svc.ReplaceWeeklyOffs(ctx, staffer, branch.ReplaceWeeklyOffsRequest{BranchID: b.ID, Days: []int{0}})
	assert.ErrorIs(t, err, employee.ErrAdminRequired)

	res, err := f.svc.GetWeeklyOffs(ctx, b.ID)
	require.NoError(t, err)
	assert.Empty(t, res.Days)
}

func TestAddHoliday(t *testing.T) {
	// Setup
	f := branchTestInit(t)
	ctx := context.Background()
	b := f.createBranch(t)

	// Act
	today, err := f.svc.AddHoliday(ctx, admin, branch.AddHolidayRequest{BranchID: b.ID, Date: "2023-06-01", Name: "Founders Day"})
	require.NoError(t, err)
	_, dupErr := f.svc.AddHoliday(ctx, admin, branch.AddHolidayRequest{BranchID: b.ID, Date: "2023-06-01", Name: "Again"})
	_, pastErr := f.svc.AddHoliday(ctx, admin, branch.AddHolidayRequest{BranchID: b.ID, Date: "2023-05-31", Name: "Late"})

	// Assert
	assert.Equal(t, "2023-06-01", today.Date)
	assert.ErrorIs(t, dupErr, branch.ErrHolidayExists)
	assert.ErrorIs(t, pastErr, branch.ErrHolidayInPast)

	list, err := f.svc.ListHolidays(ctx, branch.HolidayFilter{BranchID: b.ID, From: "2023-01-01", To: "2023-12-31"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Founders Day", list[0].Name)
	assert.Equal(t, []string{audit.ActionAddHoliday, audit.ActionCreateBranch}, f.actions(t))
}

func TestDeleteHoliday(t *testing.T) {
	// Setup
	f := branchTestInit(t)
	ctx := context.Background()
	b := f.createBranch(t)
	h, err := f.svc.AddHoliday(ctx, admin, branch.AddHolidayRequest{BranchID: b.ID, Date: "2023-08-15", Name: "Independence Day"})
	require.NoError(t, err)

	// Act
	f.svc.now = func() time.Time { return time.Date(2023, 9, 1, 0, 0, 0, 0, time.UTC) }
	pastErr := f.svc.DeleteHoliday(ctx, admin, h.ID)

	f.svc.now = func() time.Time { return fixedNow }
	staffErr := f.svc.DeleteHoliday(ctx, staffer, h.ID)
	err = f.svc.DeleteHoliday(ctx, admin, h.ID)

	// Assert
	assert.ErrorIs(t, pastErr, branch.ErrPastHolidayImmutable)
	assert.ErrorIs(t, staffErr, employee.ErrAdminRequired)
	require.NoError(t, err)
	assert.ErrorIs(t, f.svc.DeleteHoliday(ctx, admin, h.ID), branch.ErrHolidayNotFound)

	entries, _, err := f.audits.List(ctx, audit.AuditFilter{Page: 1, Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, audit.ActionDeleteHoliday, entries[0].Action)
	assert.Equal(t, "2023-08-15", entries[0].OldValues["date"])
	assert.Nil(t, entries[0].NewValues)
}

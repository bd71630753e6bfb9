package employee

import (
	"context"
	"testing"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/audit"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/branch"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/leave"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/validator"
	"github.com/cmlabs-hris/attendance-engine/internal/repository/memory"
	auditService "github.com/cmlabs-hris/attendance-engine/internal/service/audit"
	leaveService "github.com/cmlabs-hris/attendance-engine/internal/service/leave"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var admin = employee.Actor{EmployeeID: "admin-1", Role: employee.RoleAdmin}

type employeeFixture struct {
	svc      *EmployeeServiceImpl
	ledger   *leaveService.BalanceService
	audits   audit.AuditRepository
	branchID string
	otherID  string
}

func employeeTestInit(t *testing.T) *employeeFixture {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()

	branches := memory.NewBranchRepository(store)
	hq, err := branches.Create(ctx, branch.Branch{Name: "HQ", Location: "Pune", Timezone: "UTC"})
	require.NoError(t, err)
	other, err := branches.Create(ctx, branch.Branch{Name: "Depot", Location: "Nagpur", Timezone: "UTC"})
	require.NoError(t, err)

	audits := memory.NewAuditRepository(store)
	ledger := leaveService.NewBalanceService(memory.NewLeaveBalanceRepository(store))

	svc := NewEmployeeService(
		memory.NewTransactor(store),
		memory.NewEmployeeRepository(store),
		branches,
		ledger,
		leave.Grant{EmergencyPerMonth: 1, PrivilegePerMonth: 2},
		auditService.NewAuditService(audits),
	).(*EmployeeServiceImpl)
	svc.now = func() time.Time { return time.Date(2023, 6, 1, 9, 0, 0, 0, time.UTC) }

	return &employeeFixture{svc: svc, ledger: ledger, audits: audits, branchID: hq.ID, otherID: other.ID}
}

func (f *employeeFixture) onboard(t *testing.T, code string) employee.EmployeeResponse {
	t.Helper()
	res, err := f.svc.Onboard(context.Background(), admin, employee.OnboardEmployeeRequest{
		EmployeeCode: code,
		FullName:     "Priya Nair",
		Email:        "priya@example.com",
		BranchID:     f.branchID,
	})
	require.NoError(t, err)
	return res
}

func TestOnboard_GrantsBalancesFromJoiningMonth(t *testing.T) {
	// Setup
	f := employeeTestInit(t)
	ctx := context.Background()

	// Act
	res := f.onboard(t, "EMP001")

	// Assert
	assert.Equal(t, "2023-06-01", res.JoiningDate, "joining date defaults to today")
	assert.Equal(t, string(employee.RoleEmployee), res.Role)
	require.NotNil(t, res.BranchName)
	assert.Equal(t, "HQ", *res.BranchName)

	grants, err := f.ledger.ListGrants(ctx, res.ID, 2023)
	require.NoError(t, err)
	require.Len(t, grants, 7, "June through December")
	assert.Equal(t, 6, grants[0].Month)
	assert.Equal(t, 2, grants[0].PrivilegeLeaves)

	privilege, err := f.ledger.AvailableBalance(ctx, res.ID, leave.LeaveTypePrivilege, 6, 2023)
	require.NoError(t, err)
	assert.Equal(t, 14, privilege)

	emergency, err := f.ledger.AvailableBalance(ctx, res.ID, leave.LeaveTypeEmergency, 12, 2023)
	require.NoError(t, err)
	assert.Equal(t, 1, emergency)

	entries, total, err := f.audits.List(ctx, audit.AuditFilter{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, audit.ActionCreateEmployee, entries[0].Action)
	assert.Equal(t, "EMP001", entries[0].NewValues["employee_code"])
}

func TestOnboard_ExplicitJoiningDate(t *testing.T) {
	f := employeeTestInit(t)

	res, err := f.svc.Onboard(context.Background(), admin, employee.OnboardEmployeeRequest{
		EmployeeCode: "EMP002", FullName: "Ravi", Email: "ravi@example.com",
		BranchID: f.branchID, Role: "admin", JoiningDate: "2023-11-20",
	})

	require.NoError(t, err)
	assert.Equal(t, "2023-11-20", res.JoiningDate)
	grants, err := f.ledger.ListGrants(context.Background(), res.ID, 2023)
	require.NoError(t, err)
	assert.Len(t, grants, 2)
}

func TestOnboard_Rejections(t *testing.T) {
	f := employeeTestInit(t)
	ctx := context.Background()
	f.onboard(t, "EMP001")

	_, err := f.svc.Onboard(ctx, admin, employee.OnboardEmployeeRequest{
		EmployeeCode: "EMP001", FullName: "Dup", Email: "dup@example.com", BranchID: f.branchID,
	})
	assert.ErrorIs(t, err, employee.ErrEmployeeCodeExists)

	_, err = f.svc.Onboard(ctx, admin, employee.OnboardEmployeeRequest{
		EmployeeCode: "EMP009", FullName: "Lost", Email: "lost@example.com", BranchID: "missing",
	})
	assert.ErrorIs(t, err, branch.ErrBranchNotFound)

	_, err = f.svc.Onboard(ctx, admin, employee.OnboardEmployeeRequest{
		EmployeeCode: "!", FullName: "", Email: "nope", BranchID: f.branchID, Role: "owner",
	})
	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Len(t, verrs, 4)

	_, err = f.svc.Onboard(ctx, employee.Actor{EmployeeID: "emp-1", Role: employee.RoleEmployee},
		employee.OnboardEmployeeRequest{EmployeeCode: "EMP010", FullName: "X", Email: "x@example.com", BranchID: f.branchID})
	assert.ErrorIs(t, err, employee.ErrAdminRequired)

	_, total, err := f.audits.List(ctx, audit.AuditFilter{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total, "failed onboardings leave no audit trail")
}

func TestChangeBranch(t *testing.T) {
	// Setup
	f := employeeTestInit(t)
	ctx := context.Background()
	emp := f.onboard(t, "EMP001")

	// Act
	res, err := f.svc.ChangeBranch(ctx, admin, employee.ChangeBranchRequest{EmployeeID: emp.ID, BranchID: f.otherID})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, f.otherID, res.BranchID)
	require.NotNil(t, res.BranchName)
	assert.Equal(t, "Depot", *res.BranchName)

	entries, _, err := f.audits.List(ctx, audit.AuditFilter{Page: 1, Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, audit.ActionChangeBranch, entries[0].Action)
	assert.Equal(t, f.branchID, entries[0].OldValues["branch_id"])
	assert.Equal(t, f.otherID, entries[0].NewValues["branch_id"])

	_, err = f.svc.ChangeBranch(ctx, admin, employee.ChangeBranchRequest{EmployeeID: emp.ID, BranchID: "missing"})
	assert.ErrorIs(t, err, branch.ErrBranchNotFound)
	_, err = f.svc.ChangeBranch(ctx, admin, employee.ChangeBranchRequest{EmployeeID: "missing", BranchID: f.otherID})
	assert.ErrorIs(t, err, employee.ErrEmployeeNotFound)
}

func TestGetEmployee_AccessControl(t *testing.T) {
	f := employeeTestInit(t)
	ctx := context.Background()
	emp := f.onboard(t, "EMP001")
	self := employee.Actor{EmployeeID: emp.ID, Role: employee.RoleEmployee}

	res, err := f.svc.GetEmployee(ctx, self, emp.ID)
	require.NoError(t, err)
	assert.Equal(t, "EMP001", res.EmployeeCode)

	_, err = f.svc.GetEmployee(ctx, employee.Actor{EmployeeID: "someone-else", Role: employee.RoleEmployee}, emp.ID)
	assert.ErrorIs(t, err, employee.ErrUnauthorized)

	_, err = f.svc.GetEmployee(ctx, admin, "missing")
	assert.ErrorIs(t, err, employee.ErrEmployeeNotFound)
}

func TestListEmployees(t *testing.T) {
	f := employeeTestInit(t)
	ctx := context.Background()
	f.onboard(t, "EMP001")
	f.onboard(t, "EMP002")
	f.onboard(t, "EMP003")

	res, err := f.svc.ListEmployees(ctx, admin, employee.EmployeeFilter{Limit: 2})

	require.NoError(t, err)
	assert.Equal(t, int64(3), res.TotalCount)
	assert.Equal(t, 2, res.TotalPages)
	require.Len(t, res.Employees, 2)
	assert.Equal(t, "EMP001", res.Employees[0].EmployeeCode)

	_, err = f.svc.ListEmployees(ctx, employee.Actor{EmployeeID: "emp-1", Role: employee.RoleEmployee}, employee.EmployeeFilter{})
	assert.ErrorIs(t, err, employee.ErrAdminRequired)
}

package attendance

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/audit"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/branch"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/geo"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/storage"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/validator"
	"github.com/cmlabs-hris/attendance-engine/internal/repository/memory"
	auditService "github.com/cmlabs-hris/attendance-engine/internal/service/audit"
	"github.com/cmlabs-hris/attendance-engine/internal/service/file"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	branchLat = 12.9716
	branchLon = 77.5946
)

type attendanceFixture struct {
	svc       *AttendanceServiceImpl
	repo      attendance.AttendanceRepository
	branches  branch.BranchRepository
	employees employee.EmployeeRepository
	audits    audit.AuditRepository
	photos    *storage.MemoryStorage
	employee  employee.Actor
	admin     employee.Actor
}

type failingRecorder struct{}

func (failingRecorder) Record(ctx context.Context, actorID, action, targetTable, targetID string, oldValues, newValues audit.Values) error {
	return audit.ErrAuditWriteFailed
}

func attendanceTestInit(t *testing.T, recorder audit.Recorder) *attendanceFixture {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()

	branches := memory.NewBranchRepository(store)
	b, err := branches.Create(ctx, branch.Branch{
		Name: "Bengaluru", Location: "MG Road", Timezone: "UTC",
		Latitude: branchLat, Longitude: branchLon,
	})
	require.NoError(t, err)
	require.NoError(t, branches.UpsertShiftPolicy(ctx, branch.ShiftPolicy{
		BranchID:            b.ID,
		ShiftStart:          branch.TimeOfDay{Hour: 9},
		ShiftEnd:            branch.TimeOfDay{Hour: 18},
		GracePeriodMinutes:  15,
		HalfDayAfterMinutes: 240,
	}))

	employees := memory.NewEmployeeRepository(store)
	emp, err := employees.Create(ctx, employee.Employee{
		EmployeeCode: "EMP001", FullName: "Asha Rao", Email: "asha@example.com",
		BranchID: b.ID, Role: employee.RoleEmployee,
	})
	require.NoError(t, err)
	adm, err := employees.Create(ctx, employee.Employee{
		EmployeeCode: "ADM001", FullName: "Admin", Email: "admin@example.com",
		BranchID: b.ID, Role: employee.RoleAdmin,
	})
	require.NoError(t, err)

	audits := memory.NewAuditRepository(store)
	if recorder == nil {
		recorder = auditService.NewAuditService(audits)
	}

	photoStore := storage.NewMemoryStorage("mem://")
	photos := file.NewPhotoService(photoStore, file.PhotoPolicy{
		AllowedContentTypes: []string{"image/jpeg", "image/png"},
		MaxSizeBytes:        5 << 20,
	})

	repo := memory.NewAttendanceRepository(store)
	svc := NewAttendanceService(memory.NewTransactor(store), repo, employees, branches, recorder, photos,
		Policy{MaxAccuracyMeters: 100, MaxDistanceMeters: geo.DefaultMaxDistanceMeters}).(*AttendanceServiceImpl)
	svc.now = clockAt(9, 10)

	return &attendanceFixture{
		svc:       svc,
		repo:      repo,
		branches:  branches,
		employees: employees,
		audits:    audits,
		photos:    photoStore,
		employee:  employee.Actor{EmployeeID: emp.ID, Role: employee.RoleEmployee},
		admin:     employee.Actor{EmployeeID: adm.ID, Role: employee.RoleAdmin},
	}
}

func clockAt(h, m int) func() time.Time {
	return func() time.Time { return time.Date(2023, 6, 1, h, m, 0, 0, time.UTC) }
}

func validCheckIn() attendance.CheckInRequest {
	return attendance.CheckInRequest{
		Latitude:  branchLat + 0.0002,
		Longitude: branchLon,
		Accuracy:  20,
		Photo:     &attendance.Photo{Data: []byte("jpeg"), ContentType: "image/jpeg", Size: 4},
	}
}

func (f *attendanceFixture) rowCount(t *testing.T) int64 {
	t.Helper()
	_, total, err := f.repo.List(context.Background(), attendance.AttendanceFilter{Page: 1, Limit: 20})
	require.NoError(t, err)
	return total
}

func TestMarkAttendance_ClassifiesArrival(t *testing.T) {
	cases := []struct {
		name   string
		h, m   int
		status string
		flag   string
		late   int
	}{
		{"on time", 9, 10, "present", "on_time", 0},
		{"late", 9, 20, "present", "late", 5},
		{"half-day", 13, 30, "half-day", "late", 255},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			// Setup
			f := attendanceTestInit(t, nil)
			f.svc.now = clockAt(c.h, c.m)

			// Act
			res, err := f.svc.MarkAttendance(context.Background(), f.employee, validCheckIn())

			// Assert
			require.NoError(t, err)
			assert.Equal(t, c.status, res.Status)
			require.NotNil(t, res.ArrivalFlag)
			assert.Equal(t, c.flag, *res.ArrivalFlag)
			assert.Equal(t, c.late, res.LateMinutes)
			assert.Equal(t, "2023-06-01", res.Date)
			require.NotNil(t, res.SelfieURL)
			assert.Len(t, f.photos.Keys(), 1)
		})
	}
}

func TestMarkAttendance_SecondCallAlreadyMarked(t *testing.T) {
	ctx := context.Background()
	f := attendanceTestInit(t, nil)

	_, err := f.svc.MarkAttendance(ctx, f.employee, validCheckIn())
	require.NoError(t, err)

	f.svc.now = clockAt(11, 0)
	_, err = f.svc.MarkAttendance(ctx, f.employee, validCheckIn())

	assert.ErrorIs(t, err, attendance.ErrAlreadyMarked)
	assert.Equal(t, int64(1), f.rowCount(t))
	assert.Len(t, f.photos.Keys(), 1)
}

func TestMarkAttendance_LowAccuracyWritesNothing(t *testing.T) {
	f := attendanceTestInit(t, nil)
	req := validCheckIn()
	req.Accuracy = 150

	_, err := f.svc.MarkAttendance(context.Background(), f.employee, req)

	require.ErrorIs(t, err, attendance.ErrLowAccuracy)
	assert.Zero(t, f.rowCount(t))
	assert.Empty(t, f.photos.Keys())
}

func TestMarkAttendance_TooFarReportsDistance(t *testing.T) {
	f := attendanceTestInit(t, nil)
	req := validCheckIn()
	req.Latitude = branchLat + 0.002

	_, err := f.svc.MarkAttendance(context.Background(), f.employee, req)

	require.ErrorIs(t, err, attendance.ErrTooFarFromBranch)
	var distErr *geo.DistanceError
	require.True(t, errors.As(err, &distErr))
	assert.Greater(t, distErr.Distance, 200.0)
	assert.Zero(t, f.rowCount(t))
	assert.Empty(t, f.photos.Keys())
}

func TestMarkAttendance_PhotoChecks(t *testing.T) {
	t.Run("missing", func(t *testing.T) {
		f := attendanceTestInit(t, nil)
		req := validCheckIn()
		req.Photo = nil

		_, err := f.svc.MarkAttendance(context.Background(), f.employee, req)
		assert.ErrorIs(t, err, attendance.ErrPhotoRequired)
		assert.Zero(t, f.rowCount(t))
	})

	t.Run("wrong format", func(t *testing.T) {
		f := attendanceTestInit(t, nil)
		req := validCheckIn()
		req.Photo.ContentType = "application/pdf"

		_, err := f.svc.MarkAttendance(context.Background(), f.employee, req)
		assert.ErrorIs(t, err, attendance.ErrInvalidPhotoFormat)
		assert.Empty(t, f.photos.Keys())
	})

	t.Run("geofence checked before photo", func(t *testing.T) {
		f := attendanceTestInit(t, nil)
		req := validCheckIn()
		req.Accuracy = 150
		req.Photo = nil

		_, err := f.svc.MarkAttendance(context.Background(), f.employee, req)
		assert.ErrorIs(t, err, attendance.ErrLowAccuracy)
	})
}

func TestMarkAttendance_AuditFailureRollsBackAndDeletesPhoto(t *testing.T) {
	f := attendanceTestInit(t, failingRecorder{})

	_, err := f.svc.MarkAttendance(context.Background(), f.employee, validCheckIn())

	require.ErrorIs(t, err, audit.ErrAuditWriteFailed)
	assert.Zero(t, f.rowCount(t))
	assert.Empty(t, f.photos.Keys())
}

func TestMarkAttendance_WritesAuditEntry(t *testing.T) {
	f := attendanceTestInit(t, nil)

	res, err := f.svc.MarkAttendance(context.Background(), f.employee, validCheckIn())
	require.NoError(t, err)

	entries, total, err := f.audits.List(context.Background(), audit.AuditFilter{Page: 1, Limit: 10})
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	assert.Equal(t, audit.ActionMarkAttendance, entries[0].Action)
	assert.Equal(t, res.ID, entries[0].TargetID)
	assert.Equal(t, f.employee.EmployeeID, entries[0].ActorID)
}

func TestCheckOut(t *testing.T) {
	ctx := context.Background()
	f := attendanceTestInit(t, nil)

	_, err := f.svc.CheckOut(ctx, f.employee, attendance.CheckOutRequest{})
	assert.ErrorIs(t, err, attendance.ErrNotCheckedIn)

	_, err = f.svc.MarkAttendance(ctx, f.employee, validCheckIn())
	require.NoError(t, err)

	f.svc.now = clockAt(18, 5)
	remarks := "done for the day"
	res, err := f.svc.CheckOut(ctx, f.employee, attendance.CheckOutRequest{Remarks: &remarks})
	require.NoError(t, err)
	require.NotNil(t, res.CheckOut)
	assert.Equal(t, "2023-06-01T18:05:00Z", *res.CheckOut)
	require.NotNil(t, res.Remarks)
	assert.Equal(t, remarks, *res.Remarks)

	_, err = f.svc.CheckOut(ctx, f.employee, attendance.CheckOutRequest{})
	assert.ErrorIs(t, err, attendance.ErrAlreadyCheckedOut)
}

func TestUpdateAttendance(t *testing.T) {
	ctx := context.Background()

	t.Run("check-out before check-in leaves row unchanged", func(t *testing.T) {
		f := attendanceTestInit(t, nil)
		marked, err := f.svc.MarkAttendance(ctx, f.employee, validCheckIn())
		require.NoError(t, err)

		in, out := "10:00", "09:30"
		_, err = f.svc.UpdateAttendance(ctx, f.admin, attendance.UpdateAttendanceRequest{
			ID: marked.ID, Status: "present", CheckIn: &in, CheckOut: &out,
		})
		require.ErrorIs(t, err, attendance.ErrCheckOutBeforeCheckIn)

		stored, err := f.repo.GetByID(ctx, marked.ID)
		require.NoError(t, err)
		assert.Equal(t, time.Date(2023, 6, 1, 9, 10, 0, 0, time.UTC), stored.CheckIn.UTC())
		assert.Nil(t, stored.CheckOut)
		assert.Nil(t, stored.ModifiedBy)
	})

	t.Run("check-out compared against stored check-in", func(t *testing.T) {
		f := attendanceTestInit(t, nil)
		marked, err := f.svc.MarkAttendance(ctx, f.employee, validCheckIn())
		require.NoError(t, err)

		out := "09:00"
		_, err = f.svc.UpdateAttendance(ctx, f.admin, attendance.UpdateAttendanceRequest{
			ID: marked.ID, Status: "present", CheckOut: &out,
		})
		assert.ErrorIs(t, err, attendance.ErrCheckOutBeforeCheckIn)
	})

	t.Run("new check-in reclassifies arrival", func(t *testing.T) {
		f := attendanceTestInit(t, nil)
		marked, err := f.svc.MarkAttendance(ctx, f.employee, validCheckIn())
		require.NoError(t, err)

		in := "09:45"
		res, err := f.svc.UpdateAttendance(ctx, f.admin, attendance.UpdateAttendanceRequest{
			ID: marked.ID, Status: "present", CheckIn: &in,
		})
		require.NoError(t, err)
		require.NotNil(t, res.ArrivalFlag)
		assert.Equal(t, "late", *res.ArrivalFlag)
		assert.Equal(t, 30, res.LateMinutes)
		require.NotNil(t, res.ModifiedBy)
		assert.Equal(t, f.admin.EmployeeID, *res.ModifiedBy)

		entries, _, err := f.audits.List(ctx, audit.AuditFilter{Page: 1, Limit: 10})
		require.NoError(t, err)
		require.NotEmpty(t, entries)
		assert.Equal(t, audit.ActionUpdateAttendance, entries[0].Action)
		assert.Equal(t, 0, entries[0].OldValues["late_minutes"])
		assert.Equal(t, 30, entries[0].NewValues["late_minutes"])
	})

	t.Run("edit reclassifies against the branch of the check-in", func(t *testing.T) {
		f := attendanceTestInit(t, nil)
		marked, err := f.svc.MarkAttendance(ctx, f.employee, validCheckIn())
		require.NoError(t, err)

		stored, err := f.repo.GetByID(ctx, marked.ID)
		require.NoError(t, err)
		require.NotEmpty(t, stored.BranchID)

		early, err := f.branches.Create(ctx, branch.Branch{
			Name: "Chennai", Location: "Anna Salai", Timezone: "Asia/Kolkata",
			Latitude: branchLat, Longitude: branchLon,
		})
		require.NoError(t, err)
		require.NoError(t, f.branches.UpsertShiftPolicy(ctx, branch.ShiftPolicy{
			BranchID:            early.ID,
			ShiftStart:          branch.TimeOfDay{Hour: 7},
			ShiftEnd:            branch.TimeOfDay{Hour: 16},
			HalfDayAfterMinutes: 240,
		}))
		require.NoError(t, f.employees.UpdateBranch(ctx, f.employee.EmployeeID, early.ID))

		in := "09:20"
		res, err := f.svc.UpdateAttendance(ctx, f.admin, attendance.UpdateAttendanceRequest{
			ID: marked.ID, Status: "present", CheckIn: &in,
		})
		require.NoError(t, err)
		require.NotNil(t, res.ArrivalFlag)
		assert.Equal(t, "late", *res.ArrivalFlag)
		assert.Equal(t, 5, res.LateMinutes)

		stored, err = f.repo.GetByID(ctx, marked.ID)
		require.NoError(t, err)
		require.NotNil(t, stored.CheckIn)
		assert.Equal(t, time.Date(2023, 6, 1, 9, 20, 0, 0, time.UTC), stored.CheckIn.UTC())
		assert.NotEqual(t, early.ID, stored.BranchID)
	})

	t.Run("absent override clears arrival", func(t *testing.T) {
		f := attendanceTestInit(t, nil)
		marked, err := f.svc.MarkAttendance(ctx, f.employee, validCheckIn())
		require.NoError(t, err)

		res, err := f.svc.UpdateAttendance(ctx, f.admin, attendance.UpdateAttendanceRequest{ID: marked.ID, Status: "absent"})
		require.NoError(t, err)
		assert.Equal(t, "absent", res.Status)
		assert.Nil(t, res.ArrivalFlag)
	})

	t.Run("admin only", func(t *testing.T) {
		f := attendanceTestInit(t, nil)
		_, err := f.svc.UpdateAttendance(ctx, f.employee, attendance.UpdateAttendanceRequest{ID: "x", Status: "absent"})
		assert.ErrorIs(t, err, employee.ErrAdminRequired)
	})

	t.Run("not found", func(t *testing.T) {
		f := attendanceTestInit(t, nil)
		_, err := f.svc.UpdateAttendance(ctx, f.admin, attendance.UpdateAttendanceRequest{ID: "missing", Status: "absent"})
		assert.ErrorIs(t, err, attendance.ErrAttendanceNotFound)
	})
}

func TestResolveClock(t *testing.T) {
	day := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)
	bad := "25:99"

	for _, field := range []string{"check_in", "check_out"} {
		_, err := resolveClock(field, &bad, nil, day, time.UTC)
		var verrs validator.ValidationErrors
		require.True(t, errors.As(err, &verrs), field)
		require.Len(t, verrs, 1)
		assert.Equal(t, field, verrs[0].Field)
		assert.Contains(t, verrs[0].Message, field)
	}

	current := day.Add(9 * time.Hour)
	got, err := resolveClock("check_out", nil, &current, day, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, &current, got)

	wall := "18:30"
	got, err = resolveClock("check_out", &wall, nil, day, time.FixedZone("IST", 5*3600+1800))
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, time.Date(2023, 6, 1, 13, 0, 0, 0, time.UTC), *got)
}

func TestGetAndListAttendance(t *testing.T) {
	ctx := context.Background()
	f := attendanceTestInit(t, nil)

	marked, err := f.svc.MarkAttendance(ctx, f.employee, validCheckIn())
	require.NoError(t, err)

	got, err := f.svc.GetAttendance(ctx, f.employee, marked.ID)
	require.NoError(t, err)
	assert.Equal(t, "Asha Rao", got.EmployeeName)

	_, err = f.svc.GetAttendance(ctx, employee.Actor{EmployeeID: "someone-else", Role: employee.RoleEmployee}, marked.ID)
	assert.ErrorIs(t, err, attendance.ErrUnauthorized)

	mine, err := f.svc.MyAttendance(ctx, f.employee, attendance.MyAttendanceFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), mine.TotalCount)
	assert.Equal(t, "1-1 of 1", mine.Showing)

	_, err = f.svc.ListAttendance(ctx, f.employee, attendance.AttendanceFilter{})
	assert.ErrorIs(t, err, employee.ErrAdminRequired)

	all, err := f.svc.ListAttendance(ctx, f.admin, attendance.AttendanceFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), all.TotalCount)
}

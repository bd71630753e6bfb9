package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/config"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/audit"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/branch"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/leave"
	appHTTP "github.com/cmlabs-hris/attendance-engine/internal/handler/http"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/database"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/jwt"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/storage"
	"github.com/cmlabs-hris/attendance-engine/internal/repository/memory"
	"github.com/cmlabs-hris/attendance-engine/internal/repository/postgresql"
	attendanceService "github.com/cmlabs-hris/attendance-engine/internal/service/attendance"
	auditService "github.com/cmlabs-hris/attendance-engine/internal/service/audit"
	branchService "github.com/cmlabs-hris/attendance-engine/internal/service/branch"
	"github.com/cmlabs-hris/attendance-engine/internal/service/calendar"
	employeeService "github.com/cmlabs-hris/attendance-engine/internal/service/employee"
	"github.com/cmlabs-hris/attendance-engine/internal/service/file"
	leaveService "github.com/cmlabs-hris/attendance-engine/internal/service/leave"
)

const (
	appName    = "attendance-engine"
	appVersion = "v1.0.0"
)

type repositories struct {
	tx          database.Transactor
	branches    branch.BranchRepository
	calendar    branch.CalendarRepository
	employees   employee.EmployeeRepository
	attendance  attendance.AttendanceRepository
	application leave.ApplicationRepository
	balance     leave.BalanceRepository
	audit       audit.AuditRepository
	close       func()
}

func openRepositories(ctx context.Context, cfg *config.Config) (*repositories, error) {
	if cfg.Database.Driver == config.DriverMemory {
		store := memory.NewStore()
		slog.Warn("using in-memory store, data is lost on restart")
		return &repositories{
			tx:          memory.NewTransactor(store),
			branches:    memory.NewBranchRepository(store),
			calendar:    memory.NewCalendarRepository(store),
			employees:   memory.NewEmployeeRepository(store),
			attendance:  memory.NewAttendanceRepository(store),
			application: memory.NewLeaveApplicationRepository(store),
			balance:     memory.NewLeaveBalanceRepository(store),
			audit:       memory.NewAuditRepository(store),
			close:       func() {},
		}, nil
	}

	db, err := database.NewPostgreSQLDB(cfg.DatabaseURL())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := postgresql.Migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &repositories{
		tx:          postgresql.NewTransactor(db),
		branches:    postgresql.NewBranchRepository(db),
		calendar:    postgresql.NewCalendarRepository(db),
		employees:   postgresql.NewEmployeeRepository(db),
		attendance:  postgresql.NewAttendanceRepository(db),
		application: postgresql.NewLeaveApplicationRepository(db),
		balance:     postgresql.NewLeaveBalanceRepository(db),
		audit:       postgresql.NewAuditRepository(db),
		close:       db.Close,
	}, nil
}

func openStorage(cfg config.StorageConfig) (storage.FileStorage, error) {
	switch cfg.Type {
	case "local":
		return storage.NewLocalStorage(cfg.BasePath, cfg.BaseURL)
	case "memory":
		return storage.NewMemoryStorage(cfg.BaseURL), nil
	default:
		return nil, fmt.Errorf("unsupported storage type %q", cfg.Type)
	}
}

func main() {
	if err := run(); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()})).With(
		slog.String("app", appName),
		slog.String("env", cfg.App.Env),
	))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repos, err := openRepositories(ctx, cfg)
	if err != nil {
		return err
	}
	defer repos.close()

	fileStorage, err := openStorage(cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}

	JWTService, err := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)
	if err != nil {
		return err
	}

	policy := cfg.Policy
	auditSvc := auditService.NewAuditService(repos.audit)
	photoSvc := file.NewPhotoService(fileStorage, file.PhotoPolicy{
		AllowedContentTypes: policy.Attendance.AllowedContentTypes,
		MaxSizeBytes:        policy.Attendance.MaxPhotoSizeBytes,
	})
	ledger := leaveService.NewBalanceService(repos.balance)

	attendanceSvc := attendanceService.NewAttendanceService(
		repos.tx,
		repos.attendance,
		repos.employees,
		repos.branches,
		auditSvc,
		photoSvc,
		attendanceService.Policy{
			MaxAccuracyMeters: policy.Attendance.MaxAccuracyMeters,
			MaxDistanceMeters: policy.Attendance.MaxDistanceMeters,
		},
	)
	leaveSvc := leaveService.NewLeaveService(
		repos.tx,
		repos.application,
		repos.employees,
		repos.branches,
		ledger,
		leaveService.NewConflictService(repos.application),
		calendar.NewCalendarService(repos.calendar),
		auditSvc,
	)
	branchSvc := branchService.NewBranchService(repos.tx, repos.branches, repos.calendar, auditSvc)
	employeeSvc := employeeService.NewEmployeeService(
		repos.tx,
		repos.employees,
		repos.branches,
		ledger,
		leave.Grant{
			EmergencyPerMonth: policy.Leave.EmergencyPerMonth,
			PrivilegePerMonth: policy.Leave.PrivilegePerMonth,
		},
		auditSvc,
	)

	router := appHTTP.NewRouter(
		appHTTP.RouterOptions{
			AppName:        appName,
			Version:        appVersion,
			Env:            cfg.App.Env,
			AllowedOrigins: cfg.App.AllowedOrigins,
			LogLevel:       cfg.SlogLevel(),
		},
		JWTService,
		appHTTP.Handlers{
			Attendance: appHTTP.NewAttendanceHandler(attendanceSvc, policy.Attendance.MaxPhotoSizeBytes),
			Leave:      appHTTP.NewLeaveHandler(leaveSvc),
			Branch:     appHTTP.NewBranchHandler(branchSvc),
			Employee:   appHTTP.NewEmployeeHandler(employeeSvc),
			Audit:      appHTTP.NewAuditHandler(auditSvc),
		},
	)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", server.Addr, "db_driver", cfg.Database.Driver)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	slog.Info("shutting down")
	return server.Shutdown(shutdownCtx)
}

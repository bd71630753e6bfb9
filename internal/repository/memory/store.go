// Package memory is an in-process implementation of every repository. It enforces
// the same uniqueness and overlap constraints as the PostgreSQL schema.
package memory

import (
	"context"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/audit"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/branch"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/leave"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/database"
)

type grantKey struct {
	employeeID string
	year       int
	month      int
}

type tables struct {
	branches      map[string]branch.Branch
	shiftPolicies map[string]branch.ShiftPolicy
	weeklyOffs    map[string][]time.Weekday
	holidays      map[string]branch.Holiday
	employees     map[string]employee.Employee
	attendances   map[string]attendance.Attendance
	applications  map[string]leave.Application
	grants        map[grantKey]leave.Balance
	entries       []leave.BalanceEntry
	auditLog      []audit.Entry
}

func (t tables) clone() tables {
	weeklyOffs := make(map[string][]time.Weekday, len(t.weeklyOffs))
	for k, v := range t.weeklyOffs {
		weeklyOffs[k] = slices.Clone(v)
	}
	return tables{
		branches:      maps.Clone(t.branches),
		shiftPolicies: maps.Clone(t.shiftPolicies),
		weeklyOffs:    weeklyOffs,
		holidays:      maps.Clone(t.holidays),
		employees:     maps.Clone(t.employees),
		attendances:   maps.Clone(t.attendances),
		applications:  maps.Clone(t.applications),
		grants:        maps.Clone(t.grants),
		entries:       slices.Clone(t.entries),
		auditLog:      slices.Clone(t.auditLog),
	}
}

// Store holds all tables. Transactions are serialized by txMu; writes made
// outside a transaction take txMu too so a rollback never discards them.
type Store struct {
	txMu sync.Mutex
	mu   sync.RWMutex
	t    tables
}

func NewStore() *Store {
	return &Store{t: tables{
		branches:      map[string]branch.Branch{},
		shiftPolicies: map[string]branch.ShiftPolicy{},
		weeklyOffs:    map[string][]time.Weekday{},
		holidays:      map[string]branch.Holiday{},
		employees:     map[string]employee.Employee{},
		attendances:   map[string]attendance.Attendance{},
		applications:  map[string]leave.Application{},
		grants:        map[grantKey]leave.Balance{},
	}}
}

type txKey struct{}

func inTx(ctx context.Context) bool {
	_, ok := ctx.Value(txKey{}).(bool)
	return ok
}

func (s *Store) write(ctx context.Context, fn func(t *tables) error) error {
	if !inTx(ctx) {
		s.txMu.Lock()
		defer s.txMu.Unlock()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(&s.t)
}

func (s *Store) read(fn func(t *tables) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(&s.t)
}

type transactor struct {
	store *Store
}

func NewTransactor(store *Store) database.Transactor {
	return &transactor{store: store}
}

// WithinTransaction snapshots the store and restores it when fn fails or panics.
func (tr *transactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if inTx(ctx) {
		return fn(ctx)
	}

	s := tr.store
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.RLock()
	snapshot := s.t.clone()
	s.mu.RUnlock()

	rollback := func() {
		s.mu.Lock()
		s.t = snapshot
		s.mu.Unlock()
	}

	defer func() {
		if p := recover(); p != nil {
			rollback()
			panic(p)
		}
	}()

	if err = fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		rollback()
		return err
	}
	return nil
}

func paginate[T any](items []T, page, limit int) []T {
	if limit <= 0 {
		limit = 20
	}
	if page < 1 {
		page = 1
	}
	start := (page - 1) * limit
	if start >= len(items) {
		return nil
	}
	end := min(start+limit, len(items))
	return items[start:end]
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func parseDate(s *string) (time.Time, bool) {
	if s == nil || *s == "" {
		return time.Time{}, false
	}
	d, err := time.Parse("2006-01-02", *s)
	if err != nil {
		return time.Time{}, false
	}
	return d, true
}

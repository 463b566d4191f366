// Package memory is a process-local storage.Store used for database-free runs and tests.
package memory

import (
	"context"
	"maps"
	"sync"

	"github.com/hongminglow/student-life-be/internal/models"
	"github.com/hongminglow/student-life-be/internal/storage"
)

var _ storage.Store = (*Store)(nil)

type state struct {
	users    map[string]models.User
	courses  map[string]models.Course
	tasks    map[string]models.Task
	expenses map[string]models.Expense
	tokens   map[string]models.RefreshToken
}

func newState() *state {
	return &state{
		users:    map[string]models.User{},
		courses:  map[string]models.Course{},
		tasks:    map[string]models.Task{},
		expenses: map[string]models.Expense{},
		tokens:   map[string]models.RefreshToken{},
	}
}

func (s *state) clone() *state {
	return &state{
		users:    maps.Clone(s.users),
		courses:  maps.Clone(s.courses),
		tasks:    maps.Clone(s.tasks),
		expenses: maps.Clone(s.expenses),
		tokens:   maps.Clone(s.tokens),
	}
}

// Store keeps every table in maps guarded by one RWMutex.
//
// A transactional view (the argument of a WithinTx callback) has no mutex of its
// own: the parent holds its write lock for the whole callback.
type Store struct {
	mu *sync.RWMutex
	st *state
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{mu: &sync.RWMutex{}, st: newState()}
}

func (s *Store) Users() storage.UserStore                 { return userRepo{s} }
func (s *Store) Courses() storage.CourseStore             { return courseRepo{s} }
func (s *Store) Tasks() storage.TaskStore                 { return taskRepo{s} }
func (s *Store) Expenses() storage.ExpenseStore           { return expenseRepo{s} }
func (s *Store) RefreshTokens() storage.RefreshTokenStore { return tokenRepo{s} }

// Close is a no-op.
func (s *Store) Close() {}

// WithinTx runs fn against a copy of the current state and publishes the copy
// only when fn succeeds. Calls through s itself block until fn returns, so fn
// must only use tx.
func (s *Store) WithinTx(ctx context.Context, fn func(tx storage.Store) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.mu != nil {
		s.mu.Lock()
		defer s.mu.Unlock()
	}
	view := &Store{st: s.st.clone()}
	if err := fn(view); err != nil {
		return err
	}
	s.st = view.st
	return nil
}

func (s *Store) read(fn func(st *state)) {
	if s.mu != nil {
		s.mu.RLock()
		defer s.mu.RUnlock()
	}
	fn(s.st)
}

func (s *Store) write(fn func(st *state) error) error {
	if s.mu != nil {
		s.mu.Lock()
		defer s.mu.Unlock()
	}
	return fn(s.st)
}

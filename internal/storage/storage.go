package storage

import (
	"context"
	"errors"
	"time"

	"github.com/hongminglow/student-life-be/internal/models"
)

// ErrNotFound indicates a record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrAlreadyExists indicates a uniqueness conflict.
var ErrAlreadyExists = errors.New("record already exists")

// UserStore captures persistence operations for users.
type UserStore interface {
	CreateUser(ctx context.Context, user models.User) (models.User, error)
	UpdateUser(ctx context.Context, user models.User) (models.User, error)
	FindByID(ctx context.Context, id string) (models.User, error)
	FindByUsername(ctx context.Context, username string) (models.User, error)
}

// CourseStore captures persistence operations for courses.
type CourseStore interface {
	CreateCourse(ctx context.Context, course models.Course) (models.Course, error)
	UpdateCourse(ctx context.Context, course models.Course) (models.Course, error)
	// DeleteCourse removes the course and, by cascade, its tasks.
	DeleteCourse(ctx context.Context, id string) error
	FindCourse(ctx context.Context, id string) (models.Course, error)
	ListCoursesByUser(ctx context.Context, userID string) ([]models.Course, error)
	SearchCourses(ctx context.Context, filter models.CourseFilter, page models.PageRequest) (models.Page[models.Course], error)
}

// TaskStore captures persistence operations for tasks.
type TaskStore interface {
	CreateTask(ctx context.Context, task models.Task) (models.Task, error)
	UpdateTask(ctx context.Context, task models.Task) (models.Task, error)
	DeleteTask(ctx context.Context, id string) error
	FindTask(ctx context.Context, id string) (models.Task, error)
	SearchTasks(ctx context.Context, filter models.TaskFilter, page models.PageRequest) (models.Page[models.Task], error)
}

// ExpenseStore captures persistence operations for expenses.
type ExpenseStore interface {
	CreateExpense(ctx context.Context, expense models.Expense) (models.Expense, error)
	UpdateExpense(ctx context.Context, expense models.Expense) (models.Expense, error)
	DeleteExpense(ctx context.Context, id string) error
	FindExpense(ctx context.Context, id string) (models.Expense, error)
	SearchExpenses(ctx context.Context, filter models.ExpenseFilter, page models.PageRequest) (models.Page[models.Expense], error)
	// CategoryTotals sums a user's expenses dated within [from, to), grouped by category.
	CategoryTotals(ctx context.Context, userID string, from, to time.Time) ([]models.CategoryTotal, error)
}

// RefreshTokenStore tracks issued refresh tokens for rotation and revocation.
type RefreshTokenStore interface {
	SaveRefreshToken(ctx context.Context, token models.RefreshToken) error
	FindRefreshToken(ctx context.Context, id string) (models.RefreshToken, error)
	RevokeRefreshToken(ctx context.Context, id string, at time.Time) error
}

// Store groups every repository and provides an atomic unit of work.
type Store interface {
	Users() UserStore
	Courses() CourseStore
	Tasks() TaskStore
	Expenses() ExpenseStore
	RefreshTokens() RefreshTokenStore
	// WithinTx runs fn against a transactional view of the store. Changes made
	// through tx commit when fn returns nil and roll back otherwise.
	WithinTx(ctx context.Context, fn func(tx Store) error) error
	Close()
}

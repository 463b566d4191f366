package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hongminglow/student-life-be/internal/storage"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Ensure Store satisfies the storage.Store interface at compile time.
var _ storage.Store = (*Store)(nil)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Store provides Postgres-backed persistence.
type Store struct {
	pool *pgxpool.Pool
	q    querier
}

// NewStore applies migrations, then opens a connection pool.
func NewStore(ctx context.Context, databaseURL string) (*Store, error) {
	if err := Migrate(databaseURL); err != nil {
		return nil, err
	}

	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	slog.Info("postgres store ready", "max_conns", cfg.MaxConns)
	return &Store{pool: pool, q: pool}, nil
}

// Close releases database resources. It is a no-op on transactional views.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func (s *Store) Users() storage.UserStore                 { return userRepo{q: s.q} }
func (s *Store) Courses() storage.CourseStore             { return courseRepo{q: s.q} }
func (s *Store) Tasks() storage.TaskStore                 { return taskRepo{q: s.q} }
func (s *Store) Expenses() storage.ExpenseStore           { return expenseRepo{q: s.q} }
func (s *Store) RefreshTokens() storage.RefreshTokenStore { return tokenRepo{q: s.q} }

// WithinTx runs fn inside a transaction (a savepoint when already inside one).
func (s *Store) WithinTx(ctx context.Context, fn func(tx storage.Store) error) error {
	return pgx.BeginFunc(ctx, s.q, func(tx pgx.Tx) error {
		return fn(&Store{q: tx})
	})
}

// mapErr translates driver errors into storage sentinels.
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return storage.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return storage.ErrAlreadyExists
	}
	return err
}

func execOne(ctx context.Context, q querier, query string, args ...any) error {
	tag, err := q.Exec(ctx, query, args...)
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

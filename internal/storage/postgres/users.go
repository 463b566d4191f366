package postgres

import (
	"context"

	"github.com/hongminglow/student-life-be/internal/models"
	"github.com/jackc/pgx/v5"
)

type userRepo struct {
	q querier
}

const userColumns = `id, username, email, password_hash, university, major, year_of_study,
	created_by, created_date, last_modified_by, last_modified_date`

// CreateUser inserts a new user row.
func (r userRepo) CreateUser(ctx context.Context, u models.User) (models.User, error) {
	const query = `
		INSERT INTO users (id, username, email, password_hash, university, major, year_of_study,
			created_by, created_date, last_modified_by, last_modified_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING ` + userColumns
	row := r.q.QueryRow(ctx, query, u.ID, u.Username, u.Email, u.PasswordHash, u.University, u.Major, u.YearOfStudy,
		u.CreatedBy, u.CreatedDate, u.LastModifiedBy, u.LastModifiedDate)
	return scanUser(row)
}

// UpdateUser overwrites the profile fields of an existing user.
func (r userRepo) UpdateUser(ctx context.Context, u models.User) (models.User, error) {
	const query = `
		UPDATE users
		SET email = $2, university = $3, major = $4, year_of_study = $5,
			last_modified_by = $6, last_modified_date = $7
		WHERE id = $1
		RETURNING ` + userColumns
	row := r.q.QueryRow(ctx, query, u.ID, u.Email, u.University, u.Major, u.YearOfStudy, u.LastModifiedBy, u.LastModifiedDate)
	return scanUser(row)
}

// FindByID fetches a user by primary key.
func (r userRepo) FindByID(ctx context.Context, id string) (models.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.q.QueryRow(ctx, query, id))
}

// FindByUsername fetches a user by username.
func (r userRepo) FindByUsername(ctx context.Context, username string) (models.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE username = $1`
	return scanUser(r.q.QueryRow(ctx, query, username))
}

func scanUser(row pgx.Row) (models.User, error) {
	var u models.User
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.University, &u.Major, &u.YearOfStudy,
		&u.CreatedBy, &u.CreatedDate, &u.LastModifiedBy, &u.LastModifiedDate); err != nil {
		return models.User{}, mapErr(err)
	}
	return u, nil
}

package postgres

import (
	"context"

	"github.com/hongminglow/student-life-be/internal/models"
	"github.com/jackc/pgx/v5"
)

type courseRepo struct {
	q querier
}

const courseColumns = `id, user_id, name, description, room, day_of_week, time_study, time_study_end, color,
	created_by, created_date, last_modified_by, last_modified_date`

// Absent filters are passed as NULL and disable their predicate.
const courseWhere = `
	WHERE user_id = $1
	  AND ($2::text IS NULL OR strpos(lower(name), lower($2::text)) > 0)
	  AND ($3::text IS NULL OR strpos(lower(description), lower($3::text)) > 0)
	  AND ($4::text IS NULL OR strpos(lower(room), lower($4::text)) > 0)
	  AND ($5::text IS NULL OR strpos(lower(day_of_week), lower($5::text)) > 0)
	  AND ($6::text IS NULL OR strpos(lower(color), lower($6::text)) > 0)
	  AND ($7::timestamptz IS NULL OR time_study >= $7::timestamptz)
	  AND ($8::timestamptz IS NULL OR time_study_end <= $8::timestamptz)`

const (
	sqlSearchCourses = `SELECT ` + courseColumns + ` FROM courses` + courseWhere + `
	ORDER BY id COLLATE "C"
	LIMIT $9 OFFSET $10`

	sqlCountCourses = `SELECT COUNT(*) FROM courses` + courseWhere
)

// CreateCourse inserts a new course row.
func (r courseRepo) CreateCourse(ctx context.Context, c models.Course) (models.Course, error) {
	const query = `
		INSERT INTO courses (id, user_id, name, description, room, day_of_week, time_study, time_study_end, color,
			created_by, created_date, last_modified_by, last_modified_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING ` + courseColumns
	row := r.q.QueryRow(ctx, query, c.ID, c.UserID, c.Name, c.Description, c.Room, c.DayOfWeek, c.TimeStudy, c.TimeStudyEnd,
		c.Color, c.CreatedBy, c.CreatedDate, c.LastModifiedBy, c.LastModifiedDate)
	return scanCourse(row)
}

// UpdateCourse overwrites the mutable fields of a course. The owner never changes.
func (r courseRepo) UpdateCourse(ctx context.Context, c models.Course) (models.Course, error) {
	const query = `
		UPDATE courses
		SET name = $2, description = $3, room = $4, day_of_week = $5, time_study = $6, time_study_end = $7,
			color = $8, last_modified_by = $9, last_modified_date = $10
		WHERE id = $1
		RETURNING ` + courseColumns
	row := r.q.QueryRow(ctx, query, c.ID, c.Name, c.Description, c.Room, c.DayOfWeek, c.TimeStudy, c.TimeStudyEnd,
		c.Color, c.LastModifiedBy, c.LastModifiedDate)
	return scanCourse(row)
}

// DeleteCourse removes a course; its tasks go with it via ON DELETE CASCADE.
func (r courseRepo) DeleteCourse(ctx context.Context, id string) error {
	return execOne(ctx, r.q, `DELETE FROM courses WHERE id = $1`, id)
}

// FindCourse fetches a course by id.
func (r courseRepo) FindCourse(ctx context.Context, id string) (models.Course, error) {
	return scanCourse(r.q.QueryRow(ctx, `SELECT `+courseColumns+` FROM courses WHERE id = $1`, id))
}

// ListCoursesByUser returns every course owned by userID in creation order.
func (r courseRepo) ListCoursesByUser(ctx context.Context, userID string) ([]models.Course, error) {
	rows, err := r.q.Query(ctx, `SELECT `+courseColumns+` FROM courses WHERE user_id = $1 ORDER BY id COLLATE "C"`, userID)
	if err != nil {
		return nil, mapErr(err)
	}
	return collectCourses(rows)
}

// SearchCourses returns one page of the user's courses matching f.
func (r courseRepo) SearchCourses(ctx context.Context, f models.CourseFilter, page models.PageRequest) (models.Page[models.Course], error) {
	args := []any{f.UserID, f.Name, f.Description, f.Room, f.DayOfWeek, f.Color, f.TimeStudyFrom, f.TimeStudyTo}

	var total int64
	if err := r.q.QueryRow(ctx, sqlCountCourses, args...).Scan(&total); err != nil {
		return models.Page[models.Course]{}, mapErr(err)
	}
	rows, err := r.q.Query(ctx, sqlSearchCourses, append(args, page.Size, page.Offset())...)
	if err != nil {
		return models.Page[models.Course]{}, mapErr(err)
	}
	items, err := collectCourses(rows)
	if err != nil {
		return models.Page[models.Course]{}, err
	}
	return models.Page[models.Course]{Items: items, Index: page.Index, Size: page.Size, TotalElements: total}, nil
}

func collectCourses(rows pgx.Rows) ([]models.Course, error) {
	defer rows.Close()
	out := []models.Course{}
	for rows.Next() {
		c, err := scanCourse(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, mapErr(rows.Err())
}

func scanCourse(row pgx.Row) (models.Course, error) {
	var c models.Course
	if err := row.Scan(&c.ID, &c.UserID, &c.Name, &c.Description, &c.Room, &c.DayOfWeek, &c.TimeStudy, &c.TimeStudyEnd,
		&c.Color, &c.CreatedBy, &c.CreatedDate, &c.LastModifiedBy, &c.LastModifiedDate); err != nil {
		return models.Course{}, mapErr(err)
	}
	return c, nil
}

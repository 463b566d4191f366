package postgres

import (
	"context"

	"github.com/hongminglow/student-life-be/internal/models"
	"github.com/jackc/pgx/v5"
)

type taskRepo struct {
	q querier
}

const taskColumns = `t.id, t.course_id, t.title, t.description, t.deadline, t.status, t.priority,
	t.created_by, t.created_date, t.last_modified_by, t.last_modified_date`

// Tasks are owned through their course.
const taskWhere = `
	FROM tasks t
	JOIN courses c ON c.id = t.course_id
	WHERE c.user_id = $1
	  AND ($2::text IS NULL OR t.course_id = $2::text)
	  AND ($3::text IS NULL OR strpos(lower(t.title), lower($3::text)) > 0)
	  AND ($4::text IS NULL OR strpos(lower(t.description), lower($4::text)) > 0)
	  AND ($5::text IS NULL OR t.status = $5::text)
	  AND ($6::text IS NULL OR t.priority = $6::text)
	  AND ($7::timestamptz IS NULL OR t.deadline = $7::timestamptz)
	  AND ($8::timestamptz IS NULL OR t.deadline >= $8::timestamptz)
	  AND ($9::timestamptz IS NULL OR t.deadline <= $9::timestamptz)`

const (
	sqlSearchTasks = `SELECT ` + taskColumns + taskWhere + `
	ORDER BY t.id COLLATE "C"
	LIMIT $10 OFFSET $11`

	sqlCountTasks = `SELECT COUNT(*)` + taskWhere
)

// CreateTask inserts a new task row.
func (r taskRepo) CreateTask(ctx context.Context, t models.Task) (models.Task, error) {
	const query = `
		INSERT INTO tasks AS t (id, course_id, title, description, deadline, status, priority,
			created_by, created_date, last_modified_by, last_modified_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING ` + taskColumns
	row := r.q.QueryRow(ctx, query, t.ID, t.CourseID, t.Title, t.Description, t.Deadline, string(t.Status), string(t.Priority),
		t.CreatedBy, t.CreatedDate, t.LastModifiedBy, t.LastModifiedDate)
	return scanTask(row)
}

// UpdateTask overwrites the mutable fields of a task. The course never changes.
func (r taskRepo) UpdateTask(ctx context.Context, t models.Task) (models.Task, error) {
	const query = `
		UPDATE tasks AS t
		SET title = $2, description = $3, deadline = $4, status = $5, priority = $6,
			last_modified_by = $7, last_modified_date = $8
		WHERE t.id = $1
		RETURNING ` + taskColumns
	row := r.q.QueryRow(ctx, query, t.ID, t.Title, t.Description, t.Deadline, string(t.Status), string(t.Priority),
		t.LastModifiedBy, t.LastModifiedDate)
	return scanTask(row)
}

// DeleteTask removes a task.
func (r taskRepo) DeleteTask(ctx context.Context, id string) error {
	return execOne(ctx, r.q, `DELETE FROM tasks WHERE id = $1`, id)
}

// FindTask fetches a task by id.
func (r taskRepo) FindTask(ctx context.Context, id string) (models.Task, error) {
	return scanTask(r.q.QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks t WHERE t.id = $1`, id))
}

// SearchTasks returns one page of tasks in the user's courses matching f.
func (r taskRepo) SearchTasks(ctx context.Context, f models.TaskFilter, page models.PageRequest) (models.Page[models.Task], error) {
	args := []any{f.UserID, f.CourseID, f.Title, f.Description,
		enumArg(f.Status), enumArg(f.Priority), f.Deadline, f.DeadlineFrom, f.DeadlineTo}

	var total int64
	if err := r.q.QueryRow(ctx, sqlCountTasks, args...).Scan(&total); err != nil {
		return models.Page[models.Task]{}, mapErr(err)
	}
	rows, err := r.q.Query(ctx, sqlSearchTasks, append(args, page.Size, page.Offset())...)
	if err != nil {
		return models.Page[models.Task]{}, mapErr(err)
	}
	defer rows.Close()

	items := []models.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return models.Page[models.Task]{}, err
		}
		items = append(items, t)
	}
	if err := rows.Err(); err != nil {
		return models.Page[models.Task]{}, mapErr(err)
	}
	return models.Page[models.Task]{Items: items, Index: page.Index, Size: page.Size, TotalElements: total}, nil
}

func scanTask(row pgx.Row) (models.Task, error) {
	var (
		t                models.Task
		status, priority string
	)
	if err := row.Scan(&t.ID, &t.CourseID, &t.Title, &t.Description, &t.Deadline, &status, &priority,
		&t.CreatedBy, &t.CreatedDate, &t.LastModifiedBy, &t.LastModifiedDate); err != nil {
		return models.Task{}, mapErr(err)
	}
	t.Status = models.TaskStatus(status)
	t.Priority = models.TaskPriority(priority)
	return t, nil
}

// enumArg passes a named string pointer to the driver as a plain *string.
func enumArg[T ~string](v *T) *string {
	if v == nil {
		return nil
	}
	s := string(*v)
	return &s
}

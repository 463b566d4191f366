package dto

import (
	"fmt"
	"strings"
	"time"

	"github.com/hongminglow/student-life-be/internal/models"
)

type CreateTaskRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Deadline    *time.Time `json:"deadline"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	CourseID    string     `json:"courseId"`
}

// UpdateTaskRequest has no courseId: a task never moves between courses.
type UpdateTaskRequest struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	Deadline    *time.Time `json:"deadline"`
	Status      *string    `json:"status"`
	Priority    *string    `json:"priority"`
}

type SearchTaskRequest struct {
	PageIndex    int        `json:"pageIndex"`
	PageSize     int        `json:"pageSize"`
	CourseID     *string    `json:"courseId"`
	Title        *string    `json:"title"`
	Description  *string    `json:"description"`
	Status       *string    `json:"status"`
	Priority     *string    `json:"priority"`
	Deadline     *time.Time `json:"deadline"`
	DeadlineFrom *time.Time `json:"deadlineFrom"`
	DeadlineTo   *time.Time `json:"deadlineTo"`
}

type TaskResponse struct {
	ID          string              `json:"id"`
	CourseID    string              `json:"courseId"`
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Deadline    *time.Time          `json:"deadline"`
	Status      models.TaskStatus   `json:"status"`
	Priority    models.TaskPriority `json:"priority"`
	AuditFields
}

// TaskFromModel projects a task for the wire.
func TaskFromModel(t models.Task) TaskResponse {
	return TaskResponse{
		ID:          t.ID,
		CourseID:    t.CourseID,
		Title:       t.Title,
		Description: t.Description,
		Deadline:    t.Deadline,
		Status:      t.Status,
		Priority:    t.Priority,
		AuditFields: auditFromModel(t.Audit),
	}
}

// Model builds a task from a create request, defaulting status to TODO and priority to MEDIUM.
func (r CreateTaskRequest) Model() (models.Task, error) {
	t := models.Task{
		CourseID:    strings.TrimSpace(r.CourseID),
		Title:       strings.TrimSpace(r.Title),
		Description: r.Description,
		Deadline:    storedPtr(r.Deadline),
		Status:      models.TaskTodo,
		Priority:    models.PriorityMedium,
	}
	if strings.TrimSpace(r.Status) != "" {
		st, err := models.ParseTaskStatus(r.Status)
		if err != nil {
			return models.Task{}, err
		}
		t.Status = st
	}
	if strings.TrimSpace(r.Priority) != "" {
		p, err := models.ParseTaskPriority(r.Priority)
		if err != nil {
			return models.Task{}, err
		}
		t.Priority = p
	}
	return t, nil
}

// Apply overwrites the fields present in r. Nothing is written when an enum fails to parse.
func (r UpdateTaskRequest) Apply(t *models.Task) error {
	next := *t
	if r.Title != nil {
		next.Title = strings.TrimSpace(*r.Title)
	}
	setIfPresent(&next.Description, r.Description)
	if r.Deadline != nil {
		next.Deadline = storedPtr(r.Deadline)
	}
	if r.Status != nil {
		st, err := models.ParseTaskStatus(*r.Status)
		if err != nil {
			return err
		}
		next.Status = st
	}
	if r.Priority != nil {
		p, err := models.ParseTaskPriority(*r.Priority)
		if err != nil {
			return err
		}
		next.Priority = p
	}
	*t = next
	return nil
}

// Filter scopes the request to userID.
func (r SearchTaskRequest) Filter(userID string) (models.TaskFilter, error) {
	f := models.TaskFilter{
		UserID:       userID,
		CourseID:     blankToNil(r.CourseID),
		Title:        blankToNil(r.Title),
		Description:  blankToNil(r.Description),
		Deadline:     storedPtr(r.Deadline),
		DeadlineFrom: storedPtr(r.DeadlineFrom),
		DeadlineTo:   storedPtr(r.DeadlineTo),
	}
	if s := blankToNil(r.Status); s != nil {
		st, err := models.ParseTaskStatus(*s)
		if err != nil {
			return models.TaskFilter{}, err
		}
		f.Status = &st
	}
	if s := blankToNil(r.Priority); s != nil {
		p, err := models.ParseTaskPriority(*s)
		if err != nil {
			return models.TaskFilter{}, err
		}
		f.Priority = &p
	}
	if f.DeadlineFrom != nil && f.DeadlineTo != nil && f.DeadlineTo.Before(*f.DeadlineFrom) {
		return models.TaskFilter{}, fmt.Errorf("deadlineTo precedes deadlineFrom")
	}
	return f, nil
}

func (r SearchTaskRequest) Page() models.PageRequest {
	return models.PageRequest{Index: r.PageIndex, Size: r.PageSize}
}

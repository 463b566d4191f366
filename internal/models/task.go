package models

import (
	"fmt"
	"strings"
	"time"
)

// TaskStatus tracks progress on a task.
type TaskStatus string

const (
	TaskTodo       TaskStatus = "TODO"
	TaskInProgress TaskStatus = "IN_PROGRESS"
	TaskDone       TaskStatus = "DONE"
)

// TaskPriority ranks tasks.
type TaskPriority string

const (
	PriorityLow    TaskPriority = "LOW"
	PriorityMedium TaskPriority = "MEDIUM"
	PriorityHigh   TaskPriority = "HIGH"
)

// ParseTaskStatus validates s case-insensitively.
func ParseTaskStatus(s string) (TaskStatus, error) {
	switch st := TaskStatus(strings.ToUpper(strings.TrimSpace(s))); st {
	case TaskTodo, TaskInProgress, TaskDone:
		return st, nil
	}
	return "", fmt.Errorf("unknown task status %q", s)
}

// ParseTaskPriority validates s case-insensitively.
func ParseTaskPriority(s string) (TaskPriority, error) {
	switch p := TaskPriority(strings.ToUpper(strings.TrimSpace(s))); p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return p, nil
	}
	return "", fmt.Errorf("unknown task priority %q", s)
}

// Task is a unit of coursework attached to a course.
type Task struct {
	ID          string
	CourseID    string
	Title       string
	Description string
	Deadline    *time.Time
	Status      TaskStatus
	Priority    TaskPriority
	Audit
}

package service

import (
	"context"

	"github.com/hongminglow/student-life-be/internal/auth"
	"github.com/hongminglow/student-life-be/internal/events"
	"github.com/hongminglow/student-life-be/internal/models"
	"github.com/hongminglow/student-life-be/internal/models/dto"
	"github.com/hongminglow/student-life-be/internal/storage"
)

// TaskService manages tasks. A task is owned through its course.
type TaskService struct {
	base
}

func NewTaskService(store storage.Store, publisher events.Publisher, opts ...Option) *TaskService {
	return &TaskService{base: newBase(store, publisher, opts)}
}

func (s *TaskService) Create(ctx context.Context, p auth.Principal, req dto.CreateTaskRequest) (dto.TaskResponse, error) {
	task, err := req.Model()
	if err != nil {
		return dto.TaskResponse{}, invalidErr(err)
	}
	switch {
	case task.Title == "":
		return dto.TaskResponse{}, invalid("title is required")
	case task.CourseID == "":
		return dto.TaskResponse{}, invalid("courseId is required")
	}

	err = s.store.WithinTx(ctx, func(tx storage.Store) error {
		if _, err := ownedCourse(ctx, tx, p, task.CourseID); err != nil {
			return err
		}
		task.ID = newID()
		task.Audit = models.NewAudit(p.Username, s.now())
		task, err = tx.Tasks().CreateTask(ctx, task)
		return err
	})
	if err != nil {
		return dto.TaskResponse{}, err
	}

	out := dto.TaskFromModel(task)
	s.publish(ctx, events.TaskCreated, p.Username, task.ID, out)
	return out, nil
}

// Update overwrites only the fields present in req. The course is never changed.
func (s *TaskService) Update(ctx context.Context, p auth.Principal, id string, req dto.UpdateTaskRequest) (dto.TaskResponse, error) {
	var task models.Task
	err := s.store.WithinTx(ctx, func(tx storage.Store) error {
		var err error
		task, err = ownedTask(ctx, tx, p, id)
		if err != nil {
			return err
		}
		if err := req.Apply(&task); err != nil {
			return invalidErr(err)
		}
		if task.Title == "" {
			return invalid("title must not be blank")
		}
		task.Touch(p.Username, s.now())
		task, err = tx.Tasks().UpdateTask(ctx, task)
		return err
	})
	if err != nil {
		return dto.TaskResponse{}, err
	}

	out := dto.TaskFromModel(task)
	s.publish(ctx, events.TaskUpdated, p.Username, task.ID, out)
	return out, nil
}

func (s *TaskService) Delete(ctx context.Context, p auth.Principal, id string) error {
	err := s.store.WithinTx(ctx, func(tx storage.Store) error {
		if _, err := ownedTask(ctx, tx, p, id); err != nil {
			return err
		}
		return lookupErr(tx.Tasks().DeleteTask(ctx, id), "task", id)
	})
	if err != nil {
		return err
	}
	s.publish(ctx, events.TaskDeleted, p.Username, id, nil)
	return nil
}

// Search covers the tasks of every course the caller owns.
func (s *TaskService) Search(ctx context.Context, p auth.Principal, req dto.SearchTaskRequest) (models.Page[dto.TaskResponse], error) {
	if err := validatePage(req.Page()); err != nil {
		return models.Page[dto.TaskResponse]{}, err
	}
	u, err := owner(ctx, s.store, p)
	if err != nil {
		return models.Page[dto.TaskResponse]{}, err
	}
	filter, err := req.Filter(u.ID)
	if err != nil {
		return models.Page[dto.TaskResponse]{}, invalidErr(err)
	}
	page, err := s.store.Tasks().SearchTasks(ctx, filter, req.Page())
	if err != nil {
		return models.Page[dto.TaskResponse]{}, err
	}
	return models.MapPage(page, dto.TaskFromModel), nil
}

func ownedTask(ctx context.Context, tx storage.Store, p auth.Principal, id string) (models.Task, error) {
	t, err := tx.Tasks().FindTask(ctx, id)
	if err != nil {
		return models.Task{}, lookupErr(err, "task", id)
	}
	if _, err := ownedCourse(ctx, tx, p, t.CourseID); err != nil {
		return models.Task{}, err
	}
	return t, nil
}

package service

import (
	"context"

	"github.com/hongminglow/student-life-be/internal/auth"
	"github.com/hongminglow/student-life-be/internal/events"
	"github.com/hongminglow/student-life-be/internal/models"
	"github.com/hongminglow/student-life-be/internal/models/dto"
	"github.com/hongminglow/student-life-be/internal/storage"
)

// CourseService manages the caller's course schedule.
type CourseService struct {
	base
}

func NewCourseService(store storage.Store, publisher events.Publisher, opts ...Option) *CourseService {
	return &CourseService{base: newBase(store, publisher, opts)}
}

func (s *CourseService) Create(ctx context.Context, p auth.Principal, req dto.CreateCourseRequest) (dto.CourseResponse, error) {
	course := req.Model()
	if err := validateCourse(course); err != nil {
		return dto.CourseResponse{}, err
	}

	err := s.store.WithinTx(ctx, func(tx storage.Store) error {
		u, err := owner(ctx, tx, p)
		if err != nil {
			return err
		}
		course.ID = newID()
		course.UserID = u.ID
		course.Audit = models.NewAudit(p.Username, s.now())
		course, err = tx.Courses().CreateCourse(ctx, course)
		return err
	})
	if err != nil {
		return dto.CourseResponse{}, err
	}

	out := dto.CourseFromModel(course)
	s.publish(ctx, events.CourseCreated, p.Username, course.ID, out)
	return out, nil
}

// Update overwrites only the fields present in req.
func (s *CourseService) Update(ctx context.Context, p auth.Principal, id string, req dto.UpdateCourseRequest) (dto.CourseResponse, error) {
	var course models.Course
	err := s.store.WithinTx(ctx, func(tx storage.Store) error {
		var err error
		course, err = ownedCourse(ctx, tx, p, id)
		if err != nil {
			return err
		}
		req.Apply(&course)
		if err := validateCourse(course); err != nil {
			return err
		}
		course.Touch(p.Username, s.now())
		course, err = tx.Courses().UpdateCourse(ctx, course)
		return err
	})
	if err != nil {
		return dto.CourseResponse{}, err
	}

	out := dto.CourseFromModel(course)
	s.publish(ctx, events.CourseUpdated, p.Username, course.ID, out)
	return out, nil
}

// Delete removes the course together with its tasks.
func (s *CourseService) Delete(ctx context.Context, p auth.Principal, id string) error {
	err := s.store.WithinTx(ctx, func(tx storage.Store) error {
		if _, err := ownedCourse(ctx, tx, p, id); err != nil {
			return err
		}
		return lookupErr(tx.Courses().DeleteCourse(ctx, id), "course", id)
	})
	if err != nil {
		return err
	}
	s.publish(ctx, events.CourseDeleted, p.Username, id, nil)
	return nil
}

func (s *CourseService) Search(ctx context.Context, p auth.Principal, req dto.SearchCourseRequest) (models.Page[dto.CourseResponse], error) {
	if err := validatePage(req.Page()); err != nil {
		return models.Page[dto.CourseResponse]{}, err
	}
	u, err := owner(ctx, s.store, p)
	if err != nil {
		return models.Page[dto.CourseResponse]{}, err
	}
	page, err := s.store.Courses().SearchCourses(ctx, req.Filter(u.ID), req.Page())
	if err != nil {
		return models.Page[dto.CourseResponse]{}, err
	}
	return models.MapPage(page, dto.CourseFromModel), nil
}

// ListMine returns every course of the caller in creation order.
func (s *CourseService) ListMine(ctx context.Context, p auth.Principal) ([]dto.CourseResponse, error) {
	u, err := owner(ctx, s.store, p)
	if err != nil {
		return nil, err
	}
	courses, err := s.store.Courses().ListCoursesByUser(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.CourseResponse, 0, len(courses))
	for _, c := range courses {
		out = append(out, dto.CourseFromModel(c))
	}
	return out, nil
}

// ownedCourse loads a course and checks that p owns it.
func ownedCourse(ctx context.Context, tx storage.Store, p auth.Principal, id string) (models.Course, error) {
	u, err := owner(ctx, tx, p)
	if err != nil {
		return models.Course{}, err
	}
	c, err := tx.Courses().FindCourse(ctx, id)
	if err != nil {
		return models.Course{}, lookupErr(err, "course", id)
	}
	if c.UserID != u.ID {
		return models.Course{}, ErrForbidden
	}
	return c, nil
}

func validateCourse(c models.Course) error {
	if c.Name == "" {
		return invalid("nameCourse is required")
	}
	if c.TimeStudy != nil && c.TimeStudyEnd != nil && c.TimeStudyEnd.Before(*c.TimeStudy) {
		return invalid("timeStudyEnd must not precede timeStudy")
	}
	return nil
}

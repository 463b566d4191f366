package dto

import (
	"strings"
	"time"

	"github.com/hongminglow/student-life-be/internal/models"
)

type CreateCourseRequest struct {
	Name         string     `json:"nameCourse"`
	Description  string     `json:"description"`
	Room         string     `json:"room"`
	DayOfWeek    string     `json:"dayWeek"`
	TimeStudy    *time.Time `json:"timeStudy"`
	TimeStudyEnd *time.Time `json:"timeStudyEnd"`
	Color        string     `json:"color"`
}

type UpdateCourseRequest struct {
	Name         *string    `json:"nameCourse"`
	Description  *string    `json:"description"`
	Room         *string    `json:"room"`
	DayOfWeek    *string    `json:"dayWeek"`
	TimeStudy    *time.Time `json:"timeStudy"`
	TimeStudyEnd *time.Time `json:"timeStudyEnd"`
	Color        *string    `json:"color"`
}

type SearchCourseRequest struct {
	PageIndex    int        `json:"pageIndex"`
	PageSize     int        `json:"pageSize"`
	Name         *string    `json:"nameCourse"`
	Description  *string    `json:"description"`
	Room         *string    `json:"room"`
	DayOfWeek    *string    `json:"dayWeek"`
	Color        *string    `json:"color"`
	TimeStudy    *time.Time `json:"timeStudy"`
	TimeStudyEnd *time.Time `json:"timeStudyEnd"`
}

type CourseResponse struct {
	ID           string     `json:"id"`
	Name         string     `json:"nameCourse"`
	Description  string     `json:"description"`
	Room         string     `json:"room"`
	DayOfWeek    string     `json:"dayWeek"`
	TimeStudy    *time.Time `json:"timeStudy"`
	TimeStudyEnd *time.Time `json:"timeStudyEnd"`
	Color        string     `json:"color"`
	AuditFields
}

// CourseFromModel projects a course for the wire.
func CourseFromModel(c models.Course) CourseResponse {
	return CourseResponse{
		ID:           c.ID,
		Name:         c.Name,
		Description:  c.Description,
		Room:         c.Room,
		DayOfWeek:    c.DayOfWeek,
		TimeStudy:    c.TimeStudy,
		TimeStudyEnd: c.TimeStudyEnd,
		Color:        c.Color,
		AuditFields:  auditFromModel(c.Audit),
	}
}

// Model builds a course from a create request. Identity, owner and audit are set by the caller.
func (r CreateCourseRequest) Model() models.Course {
	return models.Course{
		Name:         strings.TrimSpace(r.Name),
		Description:  r.Description,
		Room:         r.Room,
		DayOfWeek:    r.DayOfWeek,
		TimeStudy:    storedPtr(r.TimeStudy),
		TimeStudyEnd: storedPtr(r.TimeStudyEnd),
		Color:        r.Color,
	}
}

// Apply overwrites the fields present in r.
func (r UpdateCourseRequest) Apply(c *models.Course) {
	if r.Name != nil {
		name := strings.TrimSpace(*r.Name)
		c.Name = name
	}
	setIfPresent(&c.Description, r.Description)
	setIfPresent(&c.Room, r.Room)
	setIfPresent(&c.DayOfWeek, r.DayOfWeek)
	setIfPresent(&c.Color, r.Color)
	if r.TimeStudy != nil {
		c.TimeStudy = storedPtr(r.TimeStudy)
	}
	if r.TimeStudyEnd != nil {
		c.TimeStudyEnd = storedPtr(r.TimeStudyEnd)
	}
}

// Filter scopes the request to userID.
func (r SearchCourseRequest) Filter(userID string) models.CourseFilter {
	return models.CourseFilter{
		UserID:        userID,
		Name:          blankToNil(r.Name),
		Description:   blankToNil(r.Description),
		Room:          blankToNil(r.Room),
		DayOfWeek:     blankToNil(r.DayOfWeek),
		Color:         blankToNil(r.Color),
		TimeStudyFrom: storedPtr(r.TimeStudy),
		TimeStudyTo:   storedPtr(r.TimeStudyEnd),
	}
}

func (r SearchCourseRequest) Page() models.PageRequest {
	return models.PageRequest{Index: r.PageIndex, Size: r.PageSize}
}

func blankToNil(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	return s
}

func storedPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := models.StoredTime(*t)
	return &u
}

package models

import "time"

// Course is a weekly class slot in a student's schedule.
type Course struct {
	ID           string
	UserID       string
	Name         string
	Description  string
	Room         string
	DayOfWeek    string
	TimeStudy    *time.Time
	TimeStudyEnd *time.Time
	Color        string
	Audit
}

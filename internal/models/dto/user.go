// Package dto holds the JSON shapes exchanged over HTTP and the functions that
// map them to and from the domain models.
package dto

import (
	"time"

	"github.com/hongminglow/student-life-be/internal/models"
)

type RegisterRequest struct {
	Username    string `json:"userName"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	RePassword  string `json:"rePassword"`
	University  string `json:"university"`
	Major       string `json:"major"`
	YearOfStudy *int   `json:"yearOfStudy"`
}

type LoginRequest struct {
	Username string `json:"userName"`
	Password string `json:"password"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type LoginResponse struct {
	User         UserResponse `json:"user"`
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
}

// UpdateProfileRequest carries a partial profile update; nil fields are left unchanged.
type UpdateProfileRequest struct {
	Email       *string `json:"email"`
	University  *string `json:"university"`
	Major       *string `json:"major"`
	YearOfStudy *int    `json:"yearOfStudy"`
}

// AuditFields is the audit metadata shared by every projection.
type AuditFields struct {
	CreatedBy        string    `json:"createdBy"`
	CreatedDate      time.Time `json:"createdDate"`
	LastModifiedBy   string    `json:"lastModifiedBy"`
	LastModifiedDate time.Time `json:"lastModifiedDate"`
}

// UserResponse is the public projection of a user. It never carries the password hash.
type UserResponse struct {
	ID          string `json:"id"`
	Username    string `json:"userName"`
	Email       string `json:"email"`
	University  string `json:"university"`
	Major       string `json:"major"`
	YearOfStudy *int   `json:"yearOfStudy"`
	AuditFields
}

func auditFromModel(a models.Audit) AuditFields {
	return AuditFields{
		CreatedBy:        a.CreatedBy,
		CreatedDate:      a.CreatedDate,
		LastModifiedBy:   a.LastModifiedBy,
		LastModifiedDate: a.LastModifiedDate,
	}
}

// UserFromModel projects a user for the wire.
func UserFromModel(u models.User) UserResponse {
	return UserResponse{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		University:  u.University,
		Major:       u.Major,
		YearOfStudy: u.YearOfStudy,
		AuditFields: auditFromModel(u.Audit),
	}
}

// Apply overwrites the profile fields present in r.
func (r UpdateProfileRequest) Apply(u *models.User) {
	setIfPresent(&u.Email, r.Email)
	setIfPresent(&u.University, r.University)
	setIfPresent(&u.Major, r.Major)
	if r.YearOfStudy != nil {
		year := *r.YearOfStudy
		u.YearOfStudy = &year
	}
}

func setIfPresent[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

package models

// User captures application-facing fields for an authenticated identity.
type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	University   string
	Major        string
	YearOfStudy  *int
	Audit
}

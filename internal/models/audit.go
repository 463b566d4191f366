package models

import "time"

// Audit records who created and last modified an entity, and when.
type Audit struct {
	CreatedBy        string
	CreatedDate      time.Time
	LastModifiedBy   string
	LastModifiedDate time.Time
}

// StoredTime normalises t to UTC at the microsecond precision Postgres keeps,
// so a value reads back exactly as it was written on every store.
func StoredTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}

// NewAudit stamps creation and modification with the same actor and instant.
func NewAudit(actor string, now time.Time) Audit {
	now = StoredTime(now)
	return Audit{
		CreatedBy:        actor,
		CreatedDate:      now,
		LastModifiedBy:   actor,
		LastModifiedDate: now,
	}
}

// Touch records a modification. CreatedBy and CreatedDate are left untouched.
func (a *Audit) Touch(actor string, now time.Time) {
	a.LastModifiedBy = actor
	a.LastModifiedDate = StoredTime(now)
}

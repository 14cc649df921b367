package model

import "time"

// Student is the allocation-relevant view of a student account. Credentials
// live with the session layer.
type Student struct {
	ID         int64     `gorm:"primaryKey" json:"id"`
	MatricNo   string    `gorm:"uniqueIndex;size:32;not null" json:"matric_no"`
	FullName   string    `gorm:"size:128;not null" json:"full_name"`
	Nickname   string    `gorm:"size:64" json:"nickname,omitempty"`
	Email      string    `gorm:"uniqueIndex;size:256;not null" json:"email"`
	Department string    `gorm:"size:128" json:"department,omitempty"`
	CreatedAt  time.Time `gorm:"not null" json:"created_at"`
}

// DisplayName prefers the nickname when one is set.
func (s Student) DisplayName() string {
	if s.Nickname != "" {
		return s.Nickname
	}
	return s.FullName
}

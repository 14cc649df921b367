package model

import "time"

// PushSubscription holds a browser push subscription owned by a student.
type PushSubscription struct {
	Endpoint  string    `gorm:"primaryKey" json:"endpoint"`
	StudentID int64     `gorm:"index;not null" json:"student_id"`
	P256DH    string    `gorm:"column:p256dh;not null" json:"p256dh"`
	Auth      string    `gorm:"not null" json:"auth"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`

	// Associations
	Student *Student `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

package model

import "time"

// BookingStatus is the lifecycle state of a booking row.
type BookingStatus string

const (
	BookingActive    BookingStatus = "active"
	BookingCancelled BookingStatus = "cancelled"
	BookingCompleted BookingStatus = "completed"
)

// Booking is the record of a student's current or past allocation.
type Booking struct {
	ID        int64         `gorm:"primaryKey" json:"id"`
	StudentID int64         `gorm:"index;not null" json:"student_id"`
	HostelID  int64         `gorm:"not null" json:"hostel_id"`
	RoomID    int64         `gorm:"not null" json:"room_id"`
	BunkID    int64         `gorm:"index;not null" json:"bunk_id"`
	Status    BookingStatus `gorm:"size:16;not null" json:"status"`
	CreatedAt time.Time     `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time     `gorm:"not null" json:"updated_at"`

	// Associations
	Student *Student `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Hostel  *Hostel  `json:"-"`
	Room    *Room    `json:"-"`
	Bunk    *Bunk    `json:"-"`
}

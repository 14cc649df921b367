package model

import "time"

// Rating is a student's score for a hostel, or for a room when RoomID is set.
type Rating struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	StudentID int64     `gorm:"index;not null" json:"student_id"`
	HostelID  int64     `gorm:"not null" json:"hostel_id"`
	RoomID    *int64    `json:"room_id,omitempty"`
	Rating    int       `gorm:"not null;check:chk_ratings_range,rating >= 1 AND rating <= 5" json:"rating"`
	Comment   string    `gorm:"size:1000" json:"comment"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

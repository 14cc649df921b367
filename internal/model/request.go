package model

import "time"

// RequestStatus is shared by swap and cancellation requests.
// pending moves to approved or rejected exactly once; both are terminal.
type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestApproved RequestStatus = "approved"
	RequestRejected RequestStatus = "rejected"
)

// SwapRequest asks an admin to move a student into another room.
type SwapRequest struct {
	ID              int64         `gorm:"primaryKey" json:"id"`
	StudentID       int64         `gorm:"index;not null" json:"student_id"`
	CurrentRoomID   int64         `gorm:"not null" json:"current_room_id"`
	RequestedRoomID int64         `gorm:"not null" json:"requested_room_id"`
	Status          RequestStatus `gorm:"size:16;not null;index" json:"status"`
	DecisionNote    string        `gorm:"size:256" json:"decision_note,omitempty"`
	DecidedBy       *int64        `json:"decided_by,omitempty"`
	DecidedAt       *time.Time    `json:"decided_at,omitempty"`
	CreatedAt       time.Time     `gorm:"not null" json:"created_at"`

	// Associations
	Detail        *SwapDetail `gorm:"foreignKey:SwapRequestID" json:"detail,omitempty"`
	Student       *Student    `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	CurrentRoom   *Room       `gorm:"foreignKey:CurrentRoomID" json:"-"`
	RequestedRoom *Room       `gorm:"foreignKey:RequestedRoomID" json:"-"`
}

// SwapDetail carries the bunk the student asked for and their reason.
type SwapDetail struct {
	ID              int64     `gorm:"primaryKey" json:"id"`
	SwapRequestID   int64     `gorm:"uniqueIndex;not null" json:"swap_request_id"`
	RequestedBunkID int64     `gorm:"not null" json:"requested_bunk_id"`
	Reason          string    `gorm:"size:500" json:"reason"`
	CreatedAt       time.Time `gorm:"not null" json:"created_at"`
}

// CancellationRequest asks an admin to release a student's bunk.
type CancellationRequest struct {
	ID           int64         `gorm:"primaryKey" json:"id"`
	StudentID    int64         `gorm:"index;not null" json:"student_id"`
	RoomID       int64         `gorm:"not null" json:"room_id"`
	Status       RequestStatus `gorm:"size:16;not null;index" json:"status"`
	DecisionNote string        `gorm:"size:256" json:"decision_note,omitempty"`
	DecidedBy    *int64        `json:"decided_by,omitempty"`
	DecidedAt    *time.Time    `json:"decided_at,omitempty"`
	CreatedAt    time.Time     `gorm:"not null" json:"created_at"`

	// Associations
	Student *Student `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Room    *Room    `json:"-"`
}

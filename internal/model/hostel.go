package model

import "time"

// Hostel represents an accommodation building.
type Hostel struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:128;not null" json:"name"`
	Gender    string    `gorm:"size:16;not null" json:"gender"`
	Faculty   string    `gorm:"size:128" json:"faculty"`
	Image     string    `gorm:"size:256" json:"image,omitempty"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`

	// Associations
	Rooms []Room `gorm:"foreignKey:HostelID" json:"-"`
}

// Room belongs to a hostel and owns bunks. Capacity is advisory unless
// allocation.enforce_room_capacity is set.
type Room struct {
	ID         int64     `gorm:"primaryKey" json:"id"`
	HostelID   int64     `gorm:"index;not null" json:"hostel_id"`
	RoomNumber string    `gorm:"size:32;not null" json:"room_number"`
	Type       string    `gorm:"size:32" json:"type,omitempty"`
	Capacity   int       `gorm:"not null" json:"capacity"`
	CreatedAt  time.Time `gorm:"not null" json:"created_at"`

	// Associations
	Hostel *Hostel `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Bunks  []Bunk  `gorm:"foreignKey:RoomID" json:"-"`
}

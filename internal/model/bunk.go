package model

import "time"

// Bunk is the unit of occupancy. Occupied and OccupiedBy always move together:
// a free bunk has no occupant and an occupied bunk has exactly one.
type Bunk struct {
	ID         int64     `gorm:"primaryKey" json:"id"`
	RoomID     int64     `gorm:"index;not null" json:"room_id"`
	Label      string    `gorm:"column:bunk_label;size:32;not null" json:"bunk_label"`
	Occupied   bool      `gorm:"not null;check:chk_bunks_occupancy,(occupied AND occupied_by IS NOT NULL) OR (NOT occupied AND occupied_by IS NULL)" json:"occupied"`
	OccupiedBy *int64    `gorm:"uniqueIndex" json:"occupied_by,omitempty"`
	CreatedAt  time.Time `gorm:"not null" json:"created_at"`

	// Associations
	Room     *Room    `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Occupant *Student `gorm:"foreignKey:OccupiedBy" json:"-"`
}

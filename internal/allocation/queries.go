package allocation

import (
	"errors"

	"gorm.io/gorm"

	"hostel-allocation-backend/internal/model"
)

// HasActiveBooking reports whether the student holds an active booking row.
func HasActiveBooking(db *gorm.DB, studentID int64) (bool, error) {
	var n int64
	err := db.Model(&model.Booking{}).
		Where("student_id = ? AND status = ?", studentID, model.BookingActive).
		Count(&n).Error
	return n > 0, err
}

// OccupiedBunk returns the bunk the student currently occupies, or nil.
// Bunk occupancy, not booking status, is the source of truth for where a
// student lives.
func OccupiedBunk(db *gorm.DB, studentID int64) (*model.Bunk, error) {
	var bunk model.Bunk
	err := db.Where("occupied = ? AND occupied_by = ?", true, studentID).Take(&bunk).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &bunk, nil
}

// LowestFreeBunk returns the free bunk with the lowest id in a room, or nil
// when the room is full.
func LowestFreeBunk(db *gorm.DB, roomID int64) (*model.Bunk, error) {
	var bunk model.Bunk
	err := db.Where("room_id = ? AND occupied = ?", roomID, false).Order("id ASC").Take(&bunk).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &bunk, nil
}

// occupyBunk marks a bunk as taken by the student only if it is still free.
// It reports false when another writer got there first.
func occupyBunk(tx *gorm.DB, bunkID, studentID int64) (bool, error) {
	result := tx.Model(&model.Bunk{}).
		Where("id = ? AND occupied = ?", bunkID, false).
		Updates(map[string]any{"occupied": true, "occupied_by": studentID})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// releaseBunk frees a bunk held by the student.
func releaseBunk(tx *gorm.DB, bunkID, studentID int64) error {
	return tx.Model(&model.Bunk{}).
		Where("id = ? AND occupied_by = ?", bunkID, studentID).
		Updates(map[string]any{"occupied": false, "occupied_by": nil}).Error
}

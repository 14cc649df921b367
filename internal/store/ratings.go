package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"hostel-allocation-backend/internal/model"
)

// RateCurrentAllocation records the student's rating of the hostel or room
// they currently occupy. A second rating of the same target replaces the
// first; the boolean reports whether a new row was created.
func (s *gormStore) RateCurrentAllocation(ctx context.Context, studentID int64, target RatingTarget, score int, comment string) (bool, error) {
	if score < 1 || score > 5 {
		return false, fmt.Errorf("%w: rating must be between 1 and 5", ErrInvalid)
	}
	if target != RateHostel && target != RateRoom {
		return false, fmt.Errorf("%w: unknown rating target %q", ErrInvalid, target)
	}

	var created bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		bunk, err := currentBunk(tx, studentID)
		if errors.Is(err, ErrNotFound) {
			return ErrNoAllocation
		}
		if err != nil {
			return err
		}

		var roomID *int64
		q := tx.Where("student_id = ? AND hostel_id = ?", studentID, bunk.Room.HostelID)
		if target == RateRoom {
			roomID = &bunk.RoomID
			q = q.Where("room_id = ?", bunk.RoomID)
		} else {
			q = q.Where("room_id IS NULL")
		}

		var existing model.Rating
		err = q.Take(&existing).Error
		switch {
		case err == nil:
			return tx.Model(&existing).Updates(map[string]any{
				"rating":  score,
				"comment": strings.TrimSpace(comment),
			}).Error
		case errors.Is(err, gorm.ErrRecordNotFound):
			created = true
			return tx.Create(&model.Rating{
				StudentID: studentID,
				HostelID:  bunk.Room.HostelID,
				RoomID:    roomID,
				Rating:    score,
				Comment:   strings.TrimSpace(comment),
			}).Error
		default:
			return err
		}
	})
	if errors.Is(err, ErrNoAllocation) {
		return false, err
	}
	if err != nil {
		return false, fmt.Errorf("failed to save rating: %w", err)
	}
	return created, nil
}

// ListRatings returns the student's ratings, most recently updated first.
func (s *gormStore) ListRatings(ctx context.Context, studentID int64) ([]RatingEntry, error) {
	var out []RatingEntry
	err := s.db.WithContext(ctx).
		Table("ratings").
		Select("ratings.id, hostels.name AS hostel_name, COALESCE(rooms.room_number, '') AS room_number, ratings.rating, ratings.comment, ratings.updated_at").
		Joins("JOIN hostels ON hostels.id = ratings.hostel_id").
		Joins("LEFT JOIN rooms ON rooms.id = ratings.room_id").
		Where("ratings.student_id = ?", studentID).
		Order("ratings.updated_at DESC, ratings.id DESC").
		Scan(&out).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list ratings of student %d: %w", studentID, err)
	}
	if out == nil {
		out = []RatingEntry{}
	}
	return out, nil
}

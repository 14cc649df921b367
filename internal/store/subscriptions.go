package store

import (
	"context"
	"fmt"

	"gorm.io/gorm/clause"

	"hostel-allocation-backend/internal/model"
)

// SavePushSubscription creates or replaces a subscription keyed by endpoint.
// An endpoint re-registered by another student moves to that student.
func (s *gormStore) SavePushSubscription(ctx context.Context, sub *model.PushSubscription) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "endpoint"}},
		DoUpdates: clause.AssignmentColumns([]string{"student_id", "p256dh", "auth"}),
	}).Create(sub).Error
	if err != nil {
		return fmt.Errorf("failed to save push subscription: %w", err)
	}
	return nil
}

// GetPushSubscription returns the student's subscription for an endpoint.
func (s *gormStore) GetPushSubscription(ctx context.Context, studentID int64, endpoint string) (*model.PushSubscription, error) {
	var sub model.PushSubscription
	err := s.db.WithContext(ctx).
		Where("endpoint = ? AND student_id = ?", endpoint, studentID).
		Take(&sub).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &sub, nil
}

// DeletePushSubscription removes the student's subscription for an endpoint.
func (s *gormStore) DeletePushSubscription(ctx context.Context, studentID int64, endpoint string) error {
	res := s.db.WithContext(ctx).
		Where("endpoint = ? AND student_id = ?", endpoint, studentID).
		Delete(&model.PushSubscription{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete push subscription: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

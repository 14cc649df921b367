package store

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"gorm.io/gorm"

	"hostel-allocation-backend/internal/model"
	"hostel-allocation-backend/internal/parse"
)

// currentBunk loads the bunk the student occupies together with its room and
// hostel.
func currentBunk(db *gorm.DB, studentID int64) (*model.Bunk, error) {
	var bunk model.Bunk
	err := db.Preload("Room.Hostel").
		Where("occupied = ? AND occupied_by = ?", true, studentID).
		Take(&bunk).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &bunk, nil
}

// CurrentAllocation reports where the student lives according to bunk
// occupancy. It returns ErrNotFound when the student holds no bunk, whatever
// their booking rows say.
func (s *gormStore) CurrentAllocation(ctx context.Context, studentID int64) (*Allocation, error) {
	db := s.db.WithContext(ctx)

	bunk, err := currentBunk(db, studentID)
	if err != nil {
		return nil, err
	}

	a := &Allocation{
		RoomID:    bunk.RoomID,
		BunkID:    bunk.ID,
		BunkLabel: bunk.Label,
	}
	if bunk.Room != nil {
		a.HostelID = bunk.Room.HostelID
		a.RoomNumber = bunk.Room.RoomNumber
		if bunk.Room.Hostel != nil {
			a.HostelName = bunk.Room.Hostel.Name
		}
	}

	var booking model.Booking
	err = db.Where("student_id = ? AND bunk_id = ? AND status = ?", studentID, bunk.ID, model.BookingActive).
		Take(&booking).Error
	switch {
	case err == nil:
		a.BookingID = &booking.ID
		a.BookedAt = &booking.CreatedAt
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, fmt.Errorf("failed to load booking for bunk %d: %w", bunk.ID, err)
	}
	return a, nil
}

// BookingHistory lists the student's bookings, newest first.
func (s *gormStore) BookingHistory(ctx context.Context, studentID int64) ([]BookingEntry, error) {
	var bookings []model.Booking
	err := s.db.WithContext(ctx).
		Preload("Hostel").Preload("Room").Preload("Bunk").
		Where("student_id = ?", studentID).
		Order("created_at DESC, id DESC").
		Find(&bookings).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings of student %d: %w", studentID, err)
	}

	out := make([]BookingEntry, 0, len(bookings))
	for _, b := range bookings {
		e := BookingEntry{ID: b.ID, Status: b.Status, CreatedAt: b.CreatedAt, UpdatedAt: b.UpdatedAt}
		if b.Hostel != nil {
			e.HostelName = b.Hostel.Name
		}
		if b.Room != nil {
			e.RoomNumber = b.Room.RoomNumber
		}
		if b.Bunk != nil {
			e.BunkLabel = b.Bunk.Label
		}
		out = append(out, e)
	}
	return out, nil
}

// RequestHistory lists the student's swap and cancellation requests, newest first.
func (s *gormStore) RequestHistory(ctx context.Context, studentID int64) (*RequestHistory, error) {
	db := s.db.WithContext(ctx)
	h := &RequestHistory{}

	if err := db.Preload("Detail").Where("student_id = ?", studentID).
		Order("created_at DESC, id DESC").Find(&h.Swaps).Error; err != nil {
		return nil, fmt.Errorf("failed to list swap requests of student %d: %w", studentID, err)
	}
	if err := db.Where("student_id = ?", studentID).
		Order("created_at DESC, id DESC").Find(&h.Cancellations).Error; err != nil {
		return nil, fmt.Errorf("failed to list cancellation requests of student %d: %w", studentID, err)
	}
	return h, nil
}

// Notifications merges the student's requests into one feed ordered by the
// latest event on each request.
func (s *gormStore) Notifications(ctx context.Context, studentID int64) (*NotificationFeed, error) {
	h, err := s.RequestHistory(ctx, studentID)
	if err != nil {
		return nil, err
	}

	feed := &NotificationFeed{Items: make([]Notification, 0, len(h.Swaps)+len(h.Cancellations))}
	for _, r := range h.Swaps {
		feed.Items = append(feed.Items, Notification{
			Kind:      "swap",
			RequestID: r.ID,
			Status:    r.Status,
			Note:      r.DecisionNote,
			CreatedAt: r.CreatedAt,
			DecidedAt: r.DecidedAt,
		})
	}
	for _, r := range h.Cancellations {
		feed.Items = append(feed.Items, Notification{
			Kind:      "cancellation",
			RequestID: r.ID,
			Status:    r.Status,
			Note:      r.DecisionNote,
			CreatedAt: r.CreatedAt,
			DecidedAt: r.DecidedAt,
		})
	}
	sort.SliceStable(feed.Items, func(i, j int) bool {
		return feed.Items[i].EventAt().After(feed.Items[j].EventAt())
	})
	for _, n := range feed.Items {
		if n.Status == model.RequestPending {
			feed.Pending++
		}
	}
	return feed, nil
}

// Roommates lists the other occupants of the student's current room. A
// student without a bunk has no roommates.
func (s *gormStore) Roommates(ctx context.Context, studentID int64) ([]Roommate, error) {
	db := s.db.WithContext(ctx)

	bunk, err := currentBunk(db, studentID)
	if errors.Is(err, ErrNotFound) {
		return []Roommate{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find current bunk of student %d: %w", studentID, err)
	}

	var bunks []model.Bunk
	err = db.Preload("Occupant").
		Where("room_id = ? AND occupied = ? AND occupied_by <> ?", bunk.RoomID, true, studentID).
		Find(&bunks).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list roommates: %w", err)
	}
	sort.SliceStable(bunks, func(i, j int) bool {
		return parse.LessLabel(bunks[i].Label, bunks[j].Label)
	})

	out := make([]Roommate, 0, len(bunks))
	for _, b := range bunks {
		if b.Occupant == nil {
			continue
		}
		out = append(out, Roommate{
			StudentID:  b.Occupant.ID,
			Name:       b.Occupant.DisplayName(),
			Department: b.Occupant.Department,
			BunkLabel:  b.Label,
		})
	}
	return out, nil
}

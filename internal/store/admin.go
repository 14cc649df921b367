package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"hostel-allocation-backend/internal/model"
	"hostel-allocation-backend/internal/parse"
)

// CreateHostel inserts a hostel. Name and gender are required.
func (s *gormStore) CreateHostel(ctx context.Context, h *model.Hostel) error {
	h.Name = strings.TrimSpace(h.Name)
	h.Gender = strings.TrimSpace(h.Gender)
	if h.Name == "" || h.Gender == "" {
		return fmt.Errorf("%w: hostel name and gender are required", ErrInvalid)
	}
	if err := s.db.WithContext(ctx).Create(h).Error; err != nil {
		return fmt.Errorf("failed to create hostel: %w", err)
	}
	return nil
}

// CreateRoom inserts a room into an existing hostel.
func (s *gormStore) CreateRoom(ctx context.Context, r *model.Room) error {
	r.RoomNumber = strings.TrimSpace(r.RoomNumber)
	if r.RoomNumber == "" || r.Capacity <= 0 {
		return fmt.Errorf("%w: room number and a positive capacity are required", ErrInvalid)
	}

	db := s.db.WithContext(ctx)
	if err := db.Select("id").Take(&model.Hostel{}, r.HostelID).Error; err != nil {
		return notFound(err)
	}
	if err := db.Create(r).Error; err != nil {
		return fmt.Errorf("failed to create room: %w", err)
	}
	return nil
}

// CreateBunk inserts a free bunk into an existing room. When capacity is
// enforced the bunk count is checked in the same transaction as the insert.
func (s *gormStore) CreateBunk(ctx context.Context, b *model.Bunk) error {
	label, err := parse.NormalizeLabel(b.Label)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	b.Label = label
	b.Occupied = false
	b.OccupiedBy = nil

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var room model.Room
		if err := tx.Take(&room, b.RoomID).Error; err != nil {
			return notFound(err)
		}

		if s.opts.EnforceRoomCapacity {
			var n int64
			if err := tx.Model(&model.Bunk{}).Where("room_id = ?", room.ID).Count(&n).Error; err != nil {
				return fmt.Errorf("failed to count bunks of room %d: %w", room.ID, err)
			}
			if n >= int64(room.Capacity) {
				return ErrRoomAtCapacity
			}
		}

		if err := tx.Create(b).Error; err != nil {
			return fmt.Errorf("failed to create bunk: %w", err)
		}
		return nil
	})
}

// CreateStudent inserts a student. Matric number and email must be unique.
func (s *gormStore) CreateStudent(ctx context.Context, st *model.Student) error {
	st.MatricNo = strings.TrimSpace(st.MatricNo)
	st.Email = strings.ToLower(strings.TrimSpace(st.Email))
	st.FullName = strings.TrimSpace(st.FullName)
	if st.MatricNo == "" || st.Email == "" || st.FullName == "" {
		return fmt.Errorf("%w: matric number, full name and email are required", ErrInvalid)
	}

	if err := s.db.WithContext(ctx).Create(st).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to create student: %w", err)
	}
	return nil
}

// ListSwapRequests lists swap requests, newest first. An empty status lists all.
func (s *gormStore) ListSwapRequests(ctx context.Context, status model.RequestStatus) ([]SwapRequestView, error) {
	q := s.db.WithContext(ctx).Preload("Detail").Preload("Student").Order("created_at DESC, id DESC")
	if status != "" {
		q = q.Where("status = ?", status)
	}

	var reqs []model.SwapRequest
	if err := q.Find(&reqs).Error; err != nil {
		return nil, fmt.Errorf("failed to list swap requests: %w", err)
	}

	out := make([]SwapRequestView, 0, len(reqs))
	for _, r := range reqs {
		v := SwapRequestView{SwapRequest: r}
		if r.Student != nil {
			v.StudentName = r.Student.DisplayName()
			v.MatricNo = r.Student.MatricNo
		}
		out = append(out, v)
	}
	return out, nil
}

// ListCancellationRequests lists cancellation requests, newest first.
func (s *gormStore) ListCancellationRequests(ctx context.Context, status model.RequestStatus) ([]CancellationRequestView, error) {
	q := s.db.WithContext(ctx).Preload("Student").Order("created_at DESC, id DESC")
	if status != "" {
		q = q.Where("status = ?", status)
	}

	var reqs []model.CancellationRequest
	if err := q.Find(&reqs).Error; err != nil {
		return nil, fmt.Errorf("failed to list cancellation requests: %w", err)
	}

	out := make([]CancellationRequestView, 0, len(reqs))
	for _, r := range reqs {
		v := CancellationRequestView{CancellationRequest: r}
		if r.Student != nil {
			v.StudentName = r.Student.DisplayName()
			v.MatricNo = r.Student.MatricNo
		}
		out = append(out, v)
	}
	return out, nil
}

// Dashboard returns the admin counters.
func (s *gormStore) Dashboard(ctx context.Context) (*Dashboard, error) {
	db := s.db.WithContext(ctx)
	d := &Dashboard{}

	counts := []struct {
		dst   *int64
		model any
		where []any
	}{
		{&d.Hostels, &model.Hostel{}, nil},
		{&d.Rooms, &model.Room{}, nil},
		{&d.Bunks, &model.Bunk{}, nil},
		{&d.FreeBunks, &model.Bunk{}, []any{"occupied = ?", false}},
		{&d.PendingSwaps, &model.SwapRequest{}, []any{"status = ?", model.RequestPending}},
		{&d.PendingCancellations, &model.CancellationRequest{}, []any{"status = ?", model.RequestPending}},
	}
	for _, c := range counts {
		q := db.Model(c.model)
		if len(c.where) > 0 {
			q = q.Where(c.where[0], c.where[1:]...)
		}
		if err := q.Count(c.dst).Error; err != nil {
			return nil, fmt.Errorf("failed to count %T: %w", c.model, err)
		}
	}
	return d, nil
}

package store

import (
	"context"
	"fmt"
	"sort"

	"gorm.io/gorm"

	"hostel-allocation-backend/internal/model"
	"hostel-allocation-backend/internal/parse"
)

type hostelCount struct {
	HostelID int64
	Rooms    int64
	Free     int64
}

type roomCount struct {
	RoomID int64
	Total  int64
	Free   int64
}

// ListHostels returns every hostel ordered by name with room and free-bunk counts.
func (s *gormStore) ListHostels(ctx context.Context) ([]HostelSummary, error) {
	db := s.db.WithContext(ctx)

	var hostels []model.Hostel
	if err := db.Order("name ASC, id ASC").Find(&hostels).Error; err != nil {
		return nil, fmt.Errorf("failed to list hostels: %w", err)
	}

	var counts []hostelCount
	err := db.Model(&model.Room{}).
		Select("rooms.hostel_id AS hostel_id, COUNT(DISTINCT rooms.id) AS rooms, " +
			"COUNT(bunks.id) FILTER (WHERE bunks.occupied = false) AS free").
		Joins("LEFT JOIN bunks ON bunks.room_id = rooms.id").
		Group("rooms.hostel_id").
		Scan(&counts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count hostel bunks: %w", err)
	}
	byHostel := make(map[int64]hostelCount, len(counts))
	for _, c := range counts {
		byHostel[c.HostelID] = c
	}

	out := make([]HostelSummary, 0, len(hostels))
	for _, h := range hostels {
		c := byHostel[h.ID]
		out = append(out, HostelSummary{
			ID:        h.ID,
			Name:      h.Name,
			Gender:    h.Gender,
			Faculty:   h.Faculty,
			Image:     h.Image,
			Rooms:     c.Rooms,
			FreeBunks: c.Free,
		})
	}
	return out, nil
}

// ListRoomsByHostel returns the rooms of a hostel in natural room-number order.
func (s *gormStore) ListRoomsByHostel(ctx context.Context, hostelID int64) ([]RoomSummary, error) {
	db := s.db.WithContext(ctx)

	if err := db.Select("id").Take(&model.Hostel{}, hostelID).Error; err != nil {
		return nil, notFound(err)
	}

	var rooms []model.Room
	if err := db.Where("hostel_id = ?", hostelID).Find(&rooms).Error; err != nil {
		return nil, fmt.Errorf("failed to list rooms of hostel %d: %w", hostelID, err)
	}
	counts, err := s.roomCounts(db, hostelID)
	if err != nil {
		return nil, err
	}

	out := make([]RoomSummary, 0, len(rooms))
	for _, r := range rooms {
		out = append(out, summarizeRoom(r, counts[r.ID]))
	}
	sort.SliceStable(out, func(i, j int) bool {
		return parse.LessLabel(out[i].RoomNumber, out[j].RoomNumber)
	})
	return out, nil
}

func (s *gormStore) roomCounts(db *gorm.DB, hostelID int64) (map[int64]roomCount, error) {
	var counts []roomCount
	err := db.Model(&model.Bunk{}).
		Select("bunks.room_id AS room_id, COUNT(*) AS total, "+
			"COUNT(*) FILTER (WHERE bunks.occupied = false) AS free").
		Joins("JOIN rooms ON rooms.id = bunks.room_id").
		Where("rooms.hostel_id = ?", hostelID).
		Group("bunks.room_id").
		Scan(&counts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count room bunks: %w", err)
	}
	byRoom := make(map[int64]roomCount, len(counts))
	for _, c := range counts {
		byRoom[c.RoomID] = c
	}
	return byRoom, nil
}

func summarizeRoom(r model.Room, c roomCount) RoomSummary {
	return RoomSummary{
		ID:         r.ID,
		HostelID:   r.HostelID,
		RoomNumber: r.RoomNumber,
		Type:       r.Type,
		Capacity:   r.Capacity,
		Bunks:      c.Total,
		FreeBunks:  c.Free,
	}
}

// ListAvailableBunks returns the free bunks of a room in natural label order.
func (s *gormStore) ListAvailableBunks(ctx context.Context, roomID int64) ([]BunkView, error) {
	db := s.db.WithContext(ctx)

	if err := db.Select("id").Take(&model.Room{}, roomID).Error; err != nil {
		return nil, notFound(err)
	}

	var bunks []model.Bunk
	if err := db.Where("room_id = ? AND occupied = ?", roomID, false).Find(&bunks).Error; err != nil {
		return nil, fmt.Errorf("failed to list bunks of room %d: %w", roomID, err)
	}
	return bunkViews(bunks), nil
}

// HostelDetail returns a hostel with all of its rooms and bunks, occupied or not.
func (s *gormStore) HostelDetail(ctx context.Context, hostelID int64) (*HostelDetail, error) {
	var hostel model.Hostel
	err := s.db.WithContext(ctx).
		Preload("Rooms").
		Preload("Rooms.Bunks").
		Preload("Rooms.Bunks.Occupant").
		Take(&hostel, hostelID).Error
	if err != nil {
		return nil, notFound(err)
	}

	detail := &HostelDetail{Hostel: hostel, Rooms: make([]RoomDetail, 0, len(hostel.Rooms))}
	for _, r := range hostel.Rooms {
		c := roomCount{RoomID: r.ID, Total: int64(len(r.Bunks))}
		for _, b := range r.Bunks {
			if !b.Occupied {
				c.Free++
			}
		}
		detail.Rooms = append(detail.Rooms, RoomDetail{
			RoomSummary: summarizeRoom(r, c),
			BunkList:    bunkViews(r.Bunks),
		})
	}
	sort.SliceStable(detail.Rooms, func(i, j int) bool {
		return parse.LessLabel(detail.Rooms[i].RoomNumber, detail.Rooms[j].RoomNumber)
	})
	detail.Hostel.Rooms = nil
	return detail, nil
}

func bunkViews(bunks []model.Bunk) []BunkView {
	out := make([]BunkView, 0, len(bunks))
	for _, b := range bunks {
		v := BunkView{ID: b.ID, RoomID: b.RoomID, Label: b.Label, Occupied: b.Occupied, OccupantID: b.OccupiedBy}
		if b.Occupant != nil {
			v.OccupantName = b.Occupant.DisplayName()
		}
		out = append(out, v)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return parse.LessLabel(out[i].Label, out[j].Label)
	})
	return out
}

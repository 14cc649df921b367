package store

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"hostel-allocation-backend/internal/model"
)

var (
	// ErrNotFound is returned when a looked-up row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalid wraps input the store refuses to persist.
	ErrInvalid = errors.New("invalid input")
	// ErrDuplicate is returned when a unique column already holds the value.
	ErrDuplicate = errors.New("already exists")
	// ErrRoomAtCapacity is returned when a room already has as many bunks as
	// its capacity and capacity is enforced.
	ErrRoomAtCapacity = errors.New("room is at capacity")
	// ErrNoAllocation is returned for student actions that need a current bunk.
	ErrNoAllocation = errors.New("no active room allocation")
)

// Store defines the read-side queries and the admin and student writes that
// do not touch bunk occupancy.
type Store interface {
	// Catalog
	ListHostels(ctx context.Context) ([]HostelSummary, error)
	ListRoomsByHostel(ctx context.Context, hostelID int64) ([]RoomSummary, error)
	ListAvailableBunks(ctx context.Context, roomID int64) ([]BunkView, error)
	HostelDetail(ctx context.Context, hostelID int64) (*HostelDetail, error)

	// Student views
	CurrentAllocation(ctx context.Context, studentID int64) (*Allocation, error)
	BookingHistory(ctx context.Context, studentID int64) ([]BookingEntry, error)
	RequestHistory(ctx context.Context, studentID int64) (*RequestHistory, error)
	Notifications(ctx context.Context, studentID int64) (*NotificationFeed, error)
	Roommates(ctx context.Context, studentID int64) ([]Roommate, error)

	// Ratings
	RateCurrentAllocation(ctx context.Context, studentID int64, target RatingTarget, score int, comment string) (bool, error)
	ListRatings(ctx context.Context, studentID int64) ([]RatingEntry, error)

	// Admin
	CreateHostel(ctx context.Context, h *model.Hostel) error
	CreateRoom(ctx context.Context, r *model.Room) error
	CreateBunk(ctx context.Context, b *model.Bunk) error
	CreateStudent(ctx context.Context, s *model.Student) error
	ListSwapRequests(ctx context.Context, status model.RequestStatus) ([]SwapRequestView, error)
	ListCancellationRequests(ctx context.Context, status model.RequestStatus) ([]CancellationRequestView, error)
	Dashboard(ctx context.Context) (*Dashboard, error)

	// Push subscriptions
	SavePushSubscription(ctx context.Context, sub *model.PushSubscription) error
	GetPushSubscription(ctx context.Context, studentID int64, endpoint string) (*model.PushSubscription, error)
	DeletePushSubscription(ctx context.Context, studentID int64, endpoint string) error

	DB() *gorm.DB
}

// Options tunes store behaviour.
type Options struct {
	// EnforceRoomCapacity rejects new bunks once a room has Capacity bunks.
	EnforceRoomCapacity bool
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db   *gorm.DB
	opts Options
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB, opts Options) Store {
	return &gormStore{db: db, opts: opts}
}

// DB returns the underlying handle.
func (s *gormStore) DB() *gorm.DB {
	return s.db
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// Package workflow turns student intent into swap and cancellation requests
// and routes admin decisions on them to the allocation engine.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"hostel-allocation-backend/internal/allocation"
	"hostel-allocation-backend/internal/model"
	"hostel-allocation-backend/internal/notification"
)

// MaxReasonLength bounds the free-text reason stored with a swap request.
const MaxReasonLength = 500

// Notifier receives decision notices for delivery to students.
type Notifier interface {
	Dispatch(d notification.Decision)
}

// Decider is the part of the allocation engine the workflow needs.
type Decider interface {
	ApproveSwap(ctx context.Context, adminID, requestID int64) (allocation.Result, error)
	RejectSwap(ctx context.Context, adminID, requestID int64) (allocation.Result, error)
	ApproveCancellation(ctx context.Context, adminID, requestID int64) (allocation.Result, error)
	RejectCancellation(ctx context.Context, adminID, requestID int64) (allocation.Result, error)
}

// Service is the request workflow layer.
type Service struct {
	db       *gorm.DB
	engine   Decider
	notifier Notifier
	log      *zap.Logger
	now      func() time.Time
}

// NewService creates a workflow service. notifier may be nil.
func NewService(db *gorm.DB, engine Decider, notifier Notifier, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		db:       db,
		engine:   engine,
		notifier: notifier,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// SubmitSwapRequest files a pending swap request for a student who currently
// occupies a bunk. The requested bunk is only checked here; approval picks
// whichever bunk is free in the requested room at decision time.
func (s *Service) SubmitSwapRequest(ctx context.Context, studentID, requestedRoomID, requestedBunkID int64, reason string) (allocation.Result, error) {
	db := s.db.WithContext(ctx)

	current, err := allocation.OccupiedBunk(db, studentID)
	if err != nil {
		return allocation.Result{}, fmt.Errorf("failed to find current bunk of student %d: %w", studentID, err)
	}
	if current == nil {
		return allocation.Failure(allocation.NoActiveAllocation), nil
	}
	if requestedRoomID == current.RoomID {
		return allocation.Failure(allocation.SameRoom), nil
	}

	pending, err := hasPending(db, &model.SwapRequest{}, studentID)
	if err != nil {
		return allocation.Result{}, fmt.Errorf("failed to check pending swap requests: %w", err)
	}
	if pending {
		return allocation.Failuref(allocation.PendingExists, "You already have a pending swap request."), nil
	}

	var bunk model.Bunk
	err = db.Where("id = ? AND room_id = ?", requestedBunkID, requestedRoomID).Take(&bunk).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return allocation.Failure(allocation.InvalidBunk), nil
	}
	if err != nil {
		return allocation.Result{}, fmt.Errorf("failed to load bunk %d: %w", requestedBunkID, err)
	}
	if bunk.Occupied {
		return allocation.Failure(allocation.BunkOccupied), nil
	}

	reason = strings.TrimSpace(reason)
	if r := []rune(reason); len(r) > MaxReasonLength {
		reason = string(r[:MaxReasonLength])
	}

	now := s.now()
	req := model.SwapRequest{
		StudentID:       studentID,
		CurrentRoomID:   current.RoomID,
		RequestedRoomID: requestedRoomID,
		Status:          model.RequestPending,
		CreatedAt:       now,
		Detail: &model.SwapDetail{
			RequestedBunkID: requestedBunkID,
			Reason:          reason,
			CreatedAt:       now,
		},
	}
	// gorm saves the detail association inside the same create transaction.
	if err := db.Create(&req).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return allocation.Failuref(allocation.PendingExists, "You already have a pending swap request."), nil
		}
		return allocation.Result{}, fmt.Errorf("failed to create swap request: %w", err)
	}

	s.log.Info("swap request submitted",
		zap.Int64("request_id", req.ID),
		zap.Int64("student_id", studentID),
		zap.Int64("requested_room_id", requestedRoomID))

	res := allocation.Success("Swap request submitted successfully.")
	res.RequestID = &req.ID
	return res, nil
}

// SubmitCancellationRequest files a pending request to give up the student's
// current bunk.
func (s *Service) SubmitCancellationRequest(ctx context.Context, studentID int64) (allocation.Result, error) {
	db := s.db.WithContext(ctx)

	current, err := allocation.OccupiedBunk(db, studentID)
	if err != nil {
		return allocation.Result{}, fmt.Errorf("failed to find current bunk of student %d: %w", studentID, err)
	}
	if current == nil {
		return allocation.Failure(allocation.NoActiveAllocation), nil
	}

	pending, err := hasPending(db, &model.CancellationRequest{}, studentID)
	if err != nil {
		return allocation.Result{}, fmt.Errorf("failed to check pending cancellation requests: %w", err)
	}
	if pending {
		return allocation.Failuref(allocation.PendingExists, "You already have a pending cancellation request."), nil
	}

	req := model.CancellationRequest{
		StudentID: studentID,
		RoomID:    current.RoomID,
		Status:    model.RequestPending,
		CreatedAt: s.now(),
	}
	if err := db.Create(&req).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return allocation.Failuref(allocation.PendingExists, "You already have a pending cancellation request."), nil
		}
		return allocation.Result{}, fmt.Errorf("failed to create cancellation request: %w", err)
	}

	s.log.Info("cancellation request submitted",
		zap.Int64("request_id", req.ID),
		zap.Int64("student_id", studentID))

	res := allocation.Success("Cancellation request submitted. Await admin approval.")
	res.RequestID = &req.ID
	return res, nil
}

func hasPending(db *gorm.DB, table any, studentID int64) (bool, error) {
	var n int64
	err := db.Model(table).
		Where("student_id = ? AND status = ?", studentID, model.RequestPending).
		Count(&n).Error
	return n > 0, err
}

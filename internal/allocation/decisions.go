package allocation

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"hostel-allocation-backend/internal/model"
)

const noAllocationNote = "Student has no current bunk allocation; nothing to swap."

// ApproveSwap relocates the student into the lowest-id free bunk of the
// requested room. A student without a bunk gets the request auto-rejected; a
// full room leaves it pending.
func (e *Engine) ApproveSwap(ctx context.Context, adminID, requestID int64) (Result, error) {
	var res Result
	var fromBunk, toBunk int64

	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var req model.SwapRequest
		if err := tx.Take(&req, requestID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				res = Failuref(NotFound, "Swap request not found.")
				return errAbort
			}
			return fmt.Errorf("failed to load swap request %d: %w", requestID, err)
		}
		if req.Status != model.RequestPending {
			res = Failure(AlreadyDecided)
			return errAbort
		}

		current, err := OccupiedBunk(tx, req.StudentID)
		if err != nil {
			return fmt.Errorf("failed to find current bunk of student %d: %w", req.StudentID, err)
		}
		if current == nil {
			ok, err := e.decide(tx, &model.SwapRequest{}, requestID, adminID, model.RequestRejected, noAllocationNote)
			if err != nil {
				return fmt.Errorf("failed to auto-reject swap request %d: %w", requestID, err)
			}
			if !ok {
				res = Failure(AlreadyDecided)
				return errAbort
			}
			res = Failuref(NoActiveAllocation, "Student has no current bunk allocation; swap request rejected.")
			return nil
		}

		target, err := LowestFreeBunk(tx, req.RequestedRoomID)
		if err != nil {
			return fmt.Errorf("failed to find free bunk in room %d: %w", req.RequestedRoomID, err)
		}
		if target == nil {
			res = Failure(RoomFull)
			return errAbort
		}

		if err := releaseBunk(tx, current.ID, req.StudentID); err != nil {
			return fmt.Errorf("failed to free bunk %d: %w", current.ID, err)
		}
		taken, err := occupyBunk(tx, target.ID, req.StudentID)
		if err != nil {
			return fmt.Errorf("failed to occupy bunk %d: %w", target.ID, err)
		}
		if !taken {
			res = Failure(BunkJustTaken)
			return errAbort
		}

		ok, err := e.decide(tx, &model.SwapRequest{}, requestID, adminID, model.RequestApproved, "")
		if err != nil {
			return fmt.Errorf("failed to approve swap request %d: %w", requestID, err)
		}
		if !ok {
			res = Failure(AlreadyDecided)
			return errAbort
		}

		if e.opts.SyncBookings {
			if err := e.moveBooking(tx, req.StudentID, target); err != nil {
				return err
			}
		}

		fromBunk, toBunk = current.ID, target.ID
		res = Success("Swap request approved and student moved successfully.")
		return nil
	})
	if errors.Is(err, errAbort) {
		return res, nil
	}
	if err != nil {
		return Result{}, err
	}

	if res.OK {
		e.log.Info("swap request approved",
			zap.Int64("request_id", requestID),
			zap.Int64("admin_id", adminID),
			zap.Int64("from_bunk_id", fromBunk),
			zap.Int64("to_bunk_id", toBunk))
	} else {
		e.log.Info("swap request auto-rejected",
			zap.Int64("request_id", requestID),
			zap.Int64("admin_id", adminID),
			zap.String("outcome", string(res.Outcome)))
	}
	return res, nil
}

// RejectSwap marks a pending swap request rejected.
func (e *Engine) RejectSwap(ctx context.Context, adminID, requestID int64) (Result, error) {
	return e.reject(ctx, &model.SwapRequest{}, "swap", adminID, requestID)
}

// ApproveCancellation frees whatever bunk the student occupies (possibly none)
// and approves the request.
func (e *Engine) ApproveCancellation(ctx context.Context, adminID, requestID int64) (Result, error) {
	var res Result
	var freed *int64

	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var req model.CancellationRequest
		if err := tx.Take(&req, requestID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				res = Failuref(NotFound, "Cancellation request not found.")
				return errAbort
			}
			return fmt.Errorf("failed to load cancellation request %d: %w", requestID, err)
		}
		if req.Status != model.RequestPending {
			res = Failure(AlreadyDecided)
			return errAbort
		}

		bunk, err := OccupiedBunk(tx, req.StudentID)
		if err != nil {
			return fmt.Errorf("failed to find current bunk of student %d: %w", req.StudentID, err)
		}
		if bunk != nil {
			if err := releaseBunk(tx, bunk.ID, req.StudentID); err != nil {
				return fmt.Errorf("failed to free bunk %d: %w", bunk.ID, err)
			}
			freed = &bunk.ID
		}

		ok, err := e.decide(tx, &model.CancellationRequest{}, requestID, adminID, model.RequestApproved, "")
		if err != nil {
			return fmt.Errorf("failed to approve cancellation request %d: %w", requestID, err)
		}
		if !ok {
			res = Failure(AlreadyDecided)
			return errAbort
		}

		if e.opts.SyncBookings {
			if err := e.closeActiveBooking(tx, req.StudentID, model.BookingCancelled); err != nil {
				return err
			}
		}

		res = Success("Cancellation approved. Student allocation cleared.")
		return nil
	})
	if errors.Is(err, errAbort) {
		return res, nil
	}
	if err != nil {
		return Result{}, err
	}

	fields := []zap.Field{zap.Int64("request_id", requestID), zap.Int64("admin_id", adminID)}
	if freed != nil {
		fields = append(fields, zap.Int64("freed_bunk_id", *freed))
	}
	e.log.Info("cancellation request approved", fields...)
	return res, nil
}

// RejectCancellation marks a pending cancellation request rejected.
func (e *Engine) RejectCancellation(ctx context.Context, adminID, requestID int64) (Result, error) {
	return e.reject(ctx, &model.CancellationRequest{}, "cancellation", adminID, requestID)
}

// closeActiveBooking ends the student's active booking, if any.
func (e *Engine) closeActiveBooking(tx *gorm.DB, studentID int64, status model.BookingStatus) error {
	err := tx.Model(&model.Booking{}).
		Where("student_id = ? AND status = ?", studentID, model.BookingActive).
		Updates(map[string]any{"status": status, "updated_at": e.now()}).Error
	if err != nil {
		return fmt.Errorf("failed to close active booking of student %d: %w", studentID, err)
	}
	return nil
}

// moveBooking completes the student's active booking and opens a new one for
// the bunk they were moved into.
func (e *Engine) moveBooking(tx *gorm.DB, studentID int64, target *model.Bunk) error {
	if err := e.closeActiveBooking(tx, studentID, model.BookingCompleted); err != nil {
		return err
	}

	var room model.Room
	if err := tx.Take(&room, target.RoomID).Error; err != nil {
		return fmt.Errorf("failed to load room %d: %w", target.RoomID, err)
	}

	now := e.now()
	booking := model.Booking{
		StudentID: studentID,
		HostelID:  room.HostelID,
		RoomID:    room.ID,
		BunkID:    target.ID,
		Status:    model.BookingActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := tx.Create(&booking).Error; err != nil {
		return fmt.Errorf("failed to create booking for swapped student %d: %w", studentID, err)
	}
	return nil
}

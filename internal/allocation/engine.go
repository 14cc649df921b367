package allocation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"hostel-allocation-backend/internal/model"
)

// errAbort rolls a transaction back after the result has been decided.
var errAbort = errors.New("allocation: abort transaction")

// Options tunes engine behaviour.
type Options struct {
	// SyncBookings moves booking rows along with bunk occupancy when swaps and
	// cancellations are approved. With it off, approvals only touch bunks and
	// request rows.
	SyncBookings bool
}

// Engine owns every write to bunk occupancy and booking rows.
type Engine struct {
	db   *gorm.DB
	log  *zap.Logger
	opts Options
	now  func() time.Time

	// afterPrecheck runs between the advisory checks and the transaction.
	afterPrecheck func()
}

// NewEngine creates an allocation engine over the given store handle.
func NewEngine(db *gorm.DB, log *zap.Logger, opts Options) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		db:   db,
		log:  log,
		opts: opts,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// CreateBooking allocates a bunk to a student. The bunk is re-checked inside
// the transaction; losing that race yields BunkJustTaken and leaves no trace.
func (e *Engine) CreateBooking(ctx context.Context, studentID, hostelID, roomID, bunkID int64) (Result, error) {
	db := e.db.WithContext(ctx)

	active, err := HasActiveBooking(db, studentID)
	if err != nil {
		return Result{}, fmt.Errorf("failed to check active booking for student %d: %w", studentID, err)
	}
	if active {
		return Failure(AlreadyBooked), nil
	}

	var bunk model.Bunk
	err = db.Preload("Room").Where("id = ? AND room_id = ?", bunkID, roomID).Take(&bunk).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Failure(InvalidBunk), nil
	}
	if err != nil {
		return Result{}, fmt.Errorf("failed to load bunk %d: %w", bunkID, err)
	}
	if bunk.Room == nil || bunk.Room.HostelID != hostelID {
		return Failure(InvalidBunk), nil
	}
	if bunk.Occupied {
		return Failure(BunkOccupied), nil
	}

	if e.afterPrecheck != nil {
		e.afterPrecheck()
	}

	var res Result
	var booking model.Booking
	err = db.Transaction(func(tx *gorm.DB) error {
		taken, err := occupyBunk(tx, bunkID, studentID)
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// The student already occupies another bunk.
			res = Failure(AlreadyBooked)
			return errAbort
		}
		if err != nil {
			return fmt.Errorf("failed to occupy bunk %d: %w", bunkID, err)
		}
		if !taken {
			res = Failure(BunkJustTaken)
			return errAbort
		}

		now := e.now()
		booking = model.Booking{
			StudentID: studentID,
			HostelID:  hostelID,
			RoomID:    roomID,
			BunkID:    bunkID,
			Status:    model.BookingActive,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := tx.Create(&booking).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				res = Failure(AlreadyBooked)
				return errAbort
			}
			return fmt.Errorf("failed to create booking: %w", err)
		}

		res = Success("Booking successful!")
		return nil
	})
	if errors.Is(err, errAbort) {
		e.log.Debug("booking not created",
			zap.Int64("student_id", studentID),
			zap.Int64("bunk_id", bunkID),
			zap.String("outcome", string(res.Outcome)))
		return res, nil
	}
	if err != nil {
		return Result{}, err
	}

	e.log.Info("booking created",
		zap.Int64("booking_id", booking.ID),
		zap.Int64("student_id", studentID),
		zap.Int64("bunk_id", bunkID))
	return res, nil
}

// decide moves a pending request to a terminal status. It reports false when
// the request was not pending at the moment of the update.
func (e *Engine) decide(tx *gorm.DB, table any, requestID, adminID int64, status model.RequestStatus, note string) (bool, error) {
	result := tx.Model(table).
		Where("id = ? AND status = ?", requestID, model.RequestPending).
		Updates(map[string]any{
			"status":        status,
			"decided_at":    e.now(),
			"decided_by":    adminID,
			"decision_note": note,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// reject marks a pending request rejected without touching any bunk.
func (e *Engine) reject(ctx context.Context, table any, kind string, adminID, requestID int64) (Result, error) {
	db := e.db.WithContext(ctx)

	ok, err := e.decide(db, table, requestID, adminID, model.RequestRejected, "")
	if err != nil {
		return Result{}, fmt.Errorf("failed to reject %s request %d: %w", kind, requestID, err)
	}
	if !ok {
		var n int64
		if err := db.Model(table).Where("id = ?", requestID).Count(&n).Error; err != nil {
			return Result{}, fmt.Errorf("failed to look up %s request %d: %w", kind, requestID, err)
		}
		if n == 0 {
			return Failure(NotFound), nil
		}
		return Failure(AlreadyDecided), nil
	}

	e.log.Info("request rejected",
		zap.String("kind", kind),
		zap.Int64("request_id", requestID),
		zap.Int64("admin_id", adminID))
	return Success(fmt.Sprintf("%s request rejected.", capitalize(kind))), nil
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return string(s[0]-'a'+'A') + s[1:]
}

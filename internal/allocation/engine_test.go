package allocation

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"hostel-allocation-backend/internal/dbtest"
	"hostel-allocation-backend/internal/model"
)

var fixedNow = time.Date(2024, 9, 2, 10, 0, 0, 0, time.UTC)

func newEngine(t *testing.T, syncBookings bool) (*Engine, *gorm.DB) {
	t.Helper()
	db := dbtest.New(t)
	e := NewEngine(db, zap.NewNop(), Options{SyncBookings: syncBookings})
	e.now = func() time.Time { return fixedNow }
	return e, db
}

// campus is a hostel with two rooms of three bunks each and two students.
type campus struct {
	hostel model.Hostel
	roomA  model.Room
	roomB  model.Room
	bunksA []model.Bunk
	bunksB []model.Bunk
	alice  model.Student
	bob    model.Student
}

func newCampus(t *testing.T, db *gorm.DB) campus {
	t.Helper()
	c := campus{hostel: dbtest.Hostel(t, db, "Kuti Hall")}
	c.roomA = dbtest.Room(t, db, c.hostel.ID, "A101", 3)
	c.roomB = dbtest.Room(t, db, c.hostel.ID, "B202", 3)
	c.bunksA = dbtest.Bunks(t, db, c.roomA.ID, "A1", "A2", "A3")
	c.bunksB = dbtest.Bunks(t, db, c.roomB.ID, "B1", "B2", "B3")
	c.alice = dbtest.Student(t, db, "M001")
	c.bob = dbtest.Student(t, db, "M002")
	return c
}

func TestCreateBooking_Success(t *testing.T) {
	e, db := newEngine(t, true)
	c := newCampus(t, db)
	bunk := c.bunksA[1]

	res, err := e.CreateBooking(context.Background(), c.alice.ID, c.hostel.ID, c.roomA.ID, bunk.ID)
	require.NoError(t, err)
	assert.True(t, res.OK)
	assert.Equal(t, OutcomeOK, res.Outcome)
	assert.Equal(t, "Booking successful!", res.Message)

	got := dbtest.ReloadBunk(t, db, bunk.ID)
	assert.True(t, got.Occupied)
	require.NotNil(t, got.OccupiedBy)
	assert.Equal(t, c.alice.ID, *got.OccupiedBy)

	var bookings []model.Booking
	require.NoError(t, db.Where("student_id = ?", c.alice.ID).Find(&bookings).Error)
	require.Len(t, bookings, 1)
	assert.Equal(t, model.BookingActive, bookings[0].Status)
	assert.Equal(t, c.hostel.ID, bookings[0].HostelID)
	assert.Equal(t, c.roomA.ID, bookings[0].RoomID)
	assert.Equal(t, bunk.ID, bookings[0].BunkID)
}

func TestCreateBooking_Failures(t *testing.T) {
	testCases := []struct {
		name    string
		setup   func(t *testing.T, db *gorm.DB, c campus) (hostelID, roomID, bunkID int64)
		outcome Outcome
	}{
		{
			name: "student already has an active booking",
			setup: func(t *testing.T, db *gorm.DB, c campus) (int64, int64, int64) {
				dbtest.Occupy(t, db, c.hostel.ID, c.bunksA[0], c.alice.ID)
				return c.hostel.ID, c.roomB.ID, c.bunksB[0].ID
			},
			outcome: AlreadyBooked,
		},
		{
			name: "bunk belongs to another room",
			setup: func(t *testing.T, db *gorm.DB, c campus) (int64, int64, int64) {
				return c.hostel.ID, c.roomA.ID, c.bunksB[0].ID
			},
			outcome: InvalidBunk,
		},
		{
			name: "bunk does not exist",
			setup: func(t *testing.T, db *gorm.DB, c campus) (int64, int64, int64) {
				return c.hostel.ID, c.roomA.ID, 9999
			},
			outcome: InvalidBunk,
		},
		{
			name: "room belongs to another hostel",
			setup: func(t *testing.T, db *gorm.DB, c campus) (int64, int64, int64) {
				other := dbtest.Hostel(t, db, "Other Hall")
				return other.ID, c.roomA.ID, c.bunksA[0].ID
			},
			outcome: InvalidBunk,
		},
		{
			name: "bunk is occupied",
			setup: func(t *testing.T, db *gorm.DB, c campus) (int64, int64, int64) {
				dbtest.Occupy(t, db, c.hostel.ID, c.bunksA[0], c.bob.ID)
				return c.hostel.ID, c.roomA.ID, c.bunksA[0].ID
			},
			outcome: BunkOccupied,
		},
		{
			name: "student holds a bunk without an active booking",
			setup: func(t *testing.T, db *gorm.DB, c campus) (int64, int64, int64) {
				require.NoError(t, db.Model(&model.Bunk{}).Where("id = ?", c.bunksA[0].ID).
					Updates(map[string]any{"occupied": true, "occupied_by": c.alice.ID}).Error)
				return c.hostel.ID, c.roomB.ID, c.bunksB[0].ID
			},
			outcome: AlreadyBooked,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			e, db := newEngine(t, true)
			c := newCampus(t, db)
			hostelID, roomID, bunkID := tc.setup(t, db, c)

			bookingsBefore := dbtest.Count(t, db, &model.Booking{}, "")
			occupiedBefore := dbtest.Count(t, db, &model.Bunk{}, "occupied = ?", true)

			res, err := e.CreateBooking(context.Background(), c.alice.ID, hostelID, roomID, bunkID)
			require.NoError(t, err)
			assert.False(t, res.OK)
			assert.Equal(t, tc.outcome, res.Outcome)
			assert.NotEmpty(t, res.Message)

			assert.Equal(t, bookingsBefore, dbtest.Count(t, db, &model.Booking{}, ""))
			assert.Equal(t, occupiedBefore, dbtest.Count(t, db, &model.Bunk{}, "occupied = ?", true))
		})
	}
}

func TestCreateBooking_RaceForSameBunk(t *testing.T) {
	e, db := newEngine(t, true)
	c := newCampus(t, db)
	bunk := c.bunksA[0]

	// Hold both callers after their prechecks so each believes the bunk is free.
	var barrier sync.WaitGroup
	barrier.Add(2)
	e.afterPrecheck = func() {
		barrier.Done()
		barrier.Wait()
	}

	students := []int64{c.alice.ID, c.bob.ID}
	results := make([]Result, len(students))
	errs := make([]error, len(students))

	var wg sync.WaitGroup
	for i, id := range students {
		wg.Add(1)
		go func(i int, id int64) {
			defer wg.Done()
			results[i], errs[i] = e.CreateBooking(context.Background(), id, c.hostel.ID, c.roomA.ID, bunk.ID)
		}(i, id)
	}
	wg.Wait()

	var winners, losers int
	var winner int64
	for i, res := range results {
		require.NoError(t, errs[i])
		if res.OK {
			winners++
			winner = students[i]
			continue
		}
		assert.Equal(t, BunkJustTaken, res.Outcome)
		assert.True(t, res.Retryable())
		losers++
	}
	assert.Equal(t, 1, winners)
	assert.Equal(t, 1, losers)

	got := dbtest.ReloadBunk(t, db, bunk.ID)
	require.NotNil(t, got.OccupiedBy)
	assert.Equal(t, winner, *got.OccupiedBy)
	assert.EqualValues(t, 1, dbtest.Count(t, db, &model.Booking{}, "status = ?", model.BookingActive))
	assert.EqualValues(t, 1, dbtest.Count(t, db, &model.Bunk{}, "occupied = ?", true))
}

func TestCreateBooking_InfrastructureError(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{})
	require.NoError(t, err)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "bookings"`)).
		WillReturnError(errors.New("connection refused"))

	e := NewEngine(gormDB, zap.NewNop(), Options{})
	res, err := e.CreateBooking(context.Background(), 1, 1, 1, 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
	assert.Equal(t, Result{}, res)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func insertSwap(t *testing.T, db *gorm.DB, studentID, currentRoom, requestedRoom int64) model.SwapRequest {
	t.Helper()
	req := model.SwapRequest{
		StudentID:       studentID,
		CurrentRoomID:   currentRoom,
		RequestedRoomID: requestedRoom,
		Status:          model.RequestPending,
		CreatedAt:       time.Now(),
	}
	dbtest.Insert(t, db, &req)
	return req
}

func reloadSwap(t *testing.T, db *gorm.DB, id int64) model.SwapRequest {
	t.Helper()
	var req model.SwapRequest
	require.NoError(t, db.Take(&req, id).Error)
	return req
}

func TestApproveSwap_PicksLowestFreeBunk(t *testing.T) {
	e, db := newEngine(t, true)
	hostel := dbtest.Hostel(t, db, "Kuti Hall")
	from := dbtest.Room(t, db, hostel.ID, "A101", 2)
	to := dbtest.Room(t, db, hostel.ID, "B202", 3)
	student := dbtest.Student(t, db, "M001")

	current := model.Bunk{ID: 1, RoomID: from.ID, Label: "A1", CreatedAt: time.Now()}
	dbtest.Insert(t, db, &current,
		&model.Bunk{ID: 7, RoomID: to.ID, Label: "B7", CreatedAt: time.Now()},
		&model.Bunk{ID: 3, RoomID: to.ID, Label: "B3", CreatedAt: time.Now()},
		&model.Bunk{ID: 9, RoomID: to.ID, Label: "B9", CreatedAt: time.Now()},
	)
	oldBooking := dbtest.Occupy(t, db, hostel.ID, current, student.ID)
	req := insertSwap(t, db, student.ID, from.ID, to.ID)

	res, err := e.ApproveSwap(context.Background(), 42, req.ID)
	require.NoError(t, err)
	assert.True(t, res.OK, res.Message)

	assert.False(t, dbtest.ReloadBunk(t, db, 1).Occupied)
	assert.Nil(t, dbtest.ReloadBunk(t, db, 1).OccupiedBy)
	moved := dbtest.ReloadBunk(t, db, 3)
	require.NotNil(t, moved.OccupiedBy)
	assert.Equal(t, student.ID, *moved.OccupiedBy)
	assert.False(t, dbtest.ReloadBunk(t, db, 7).Occupied)
	assert.False(t, dbtest.ReloadBunk(t, db, 9).Occupied)

	got := reloadSwap(t, db, req.ID)
	assert.Equal(t, model.RequestApproved, got.Status)
	require.NotNil(t, got.DecidedAt)
	assert.True(t, fixedNow.Equal(*got.DecidedAt))
	require.NotNil(t, got.DecidedBy)
	assert.EqualValues(t, 42, *got.DecidedBy)

	var old model.Booking
	require.NoError(t, db.Take(&old, oldBooking.ID).Error)
	assert.Equal(t, model.BookingCompleted, old.Status)

	var active model.Booking
	require.NoError(t, db.Where("student_id = ? AND status = ?", student.ID, model.BookingActive).Take(&active).Error)
	assert.EqualValues(t, 3, active.BunkID)
	assert.Equal(t, to.ID, active.RoomID)
	assert.Equal(t, hostel.ID, active.HostelID)
}

func TestApproveSwap_WithoutBookingSync(t *testing.T) {
	e, db := newEngine(t, false)
	c := newCampus(t, db)
	booking := dbtest.Occupy(t, db, c.hostel.ID, c.bunksA[0], c.alice.ID)
	req := insertSwap(t, db, c.alice.ID, c.roomA.ID, c.roomB.ID)

	res, err := e.ApproveSwap(context.Background(), 1, req.ID)
	require.NoError(t, err)
	require.True(t, res.OK)

	var got model.Booking
	require.NoError(t, db.Take(&got, booking.ID).Error)
	assert.Equal(t, model.BookingActive, got.Status)
	assert.Equal(t, c.bunksA[0].ID, got.BunkID)
	assert.EqualValues(t, 1, dbtest.Count(t, db, &model.Booking{}, ""))
}

func TestApproveSwap_RoomFullKeepsRequestPending(t *testing.T) {
	e, db := newEngine(t, true)
	c := newCampus(t, db)
	dbtest.Occupy(t, db, c.hostel.ID, c.bunksA[0], c.alice.ID)
	for i, b := range c.bunksB {
		s := dbtest.Student(t, db, fmt.Sprintf("F%03d", i+1))
		dbtest.Occupy(t, db, c.hostel.ID, b, s.ID)
	}
	req := insertSwap(t, db, c.alice.ID, c.roomA.ID, c.roomB.ID)

	res, err := e.ApproveSwap(context.Background(), 1, req.ID)
	require.NoError(t, err)
	assert.False(t, res.OK)
	assert.Equal(t, RoomFull, res.Outcome)

	got := reloadSwap(t, db, req.ID)
	assert.Equal(t, model.RequestPending, got.Status)
	assert.Nil(t, got.DecidedAt)

	held := dbtest.ReloadBunk(t, db, c.bunksA[0].ID)
	require.NotNil(t, held.OccupiedBy)
	assert.Equal(t, c.alice.ID, *held.OccupiedBy)
}

func TestApproveSwap_AutoRejectsWithoutAllocation(t *testing.T) {
	e, db := newEngine(t, true)
	c := newCampus(t, db)
	req := insertSwap(t, db, c.alice.ID, c.roomA.ID, c.roomB.ID)

	res, err := e.ApproveSwap(context.Background(), 7, req.ID)
	require.NoError(t, err)
	assert.False(t, res.OK)
	assert.Equal(t, NoActiveAllocation, res.Outcome)

	got := reloadSwap(t, db, req.ID)
	assert.Equal(t, model.RequestRejected, got.Status)
	assert.Equal(t, noAllocationNote, got.DecisionNote)
	require.NotNil(t, got.DecidedBy)
	assert.EqualValues(t, 7, *got.DecidedBy)
	assert.EqualValues(t, 0, dbtest.Count(t, db, &model.Bunk{}, "occupied = ?", true))
}

func TestSwapDecisions_AreIdempotent(t *testing.T) {
	testCases := []struct {
		name   string
		decide func(e *Engine, id int64) (Result, error)
		status model.RequestStatus
	}{
		{
			name: "approve",
			decide: func(e *Engine, id int64) (Result, error) {
				return e.ApproveSwap(context.Background(), 1, id)
			},
			status: model.RequestApproved,
		},
		{
			name: "reject",
			decide: func(e *Engine, id int64) (Result, error) {
				return e.RejectSwap(context.Background(), 1, id)
			},
			status: model.RequestRejected,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			e, db := newEngine(t, true)
			c := newCampus(t, db)
			dbtest.Occupy(t, db, c.hostel.ID, c.bunksA[0], c.alice.ID)
			req := insertSwap(t, db, c.alice.ID, c.roomA.ID, c.roomB.ID)

			first, err := tc.decide(e, req.ID)
			require.NoError(t, err)
			assert.True(t, first.OK)

			var snapshot []model.Bunk
			require.NoError(t, db.Order("id").Find(&snapshot).Error)
			bookings := dbtest.Count(t, db, &model.Booking{}, "")

			second, err := tc.decide(e, req.ID)
			require.NoError(t, err)
			assert.False(t, second.OK)
			assert.Equal(t, AlreadyDecided, second.Outcome)

			var after []model.Bunk
			require.NoError(t, db.Order("id").Find(&after).Error)
			assert.Equal(t, snapshot, after)
			assert.Equal(t, bookings, dbtest.Count(t, db, &model.Booking{}, ""))
			assert.Equal(t, tc.status, reloadSwap(t, db, req.ID).Status)
		})
	}
}

func TestRejectSwap_LeavesBunksAlone(t *testing.T) {
	e, db := newEngine(t, true)
	c := newCampus(t, db)
	dbtest.Occupy(t, db, c.hostel.ID, c.bunksA[0], c.alice.ID)
	req := insertSwap(t, db, c.alice.ID, c.roomA.ID, c.roomB.ID)

	res, err := e.RejectSwap(context.Background(), 3, req.ID)
	require.NoError(t, err)
	assert.True(t, res.OK)
	assert.Equal(t, "Swap request rejected.", res.Message)

	held := dbtest.ReloadBunk(t, db, c.bunksA[0].ID)
	require.NotNil(t, held.OccupiedBy)
	assert.Equal(t, c.alice.ID, *held.OccupiedBy)
	assert.EqualValues(t, 1, dbtest.Count(t, db, &model.Bunk{}, "occupied = ?", true))

	got := reloadSwap(t, db, req.ID)
	assert.Equal(t, model.RequestRejected, got.Status)
	require.NotNil(t, got.DecidedBy)
	assert.EqualValues(t, 3, *got.DecidedBy)
}

func TestDecisions_UnknownRequest(t *testing.T) {
	e, _ := newEngine(t, true)
	ctx := context.Background()

	decisions := map[string]func() (Result, error){
		"approve swap":         func() (Result, error) { return e.ApproveSwap(ctx, 1, 404) },
		"reject swap":          func() (Result, error) { return e.RejectSwap(ctx, 1, 404) },
		"approve cancellation": func() (Result, error) { return e.ApproveCancellation(ctx, 1, 404) },
		"reject cancellation":  func() (Result, error) { return e.RejectCancellation(ctx, 1, 404) },
	}
	for name, decide := range decisions {
		t.Run(name, func(t *testing.T) {
			res, err := decide()
			require.NoError(t, err)
			assert.False(t, res.OK)
			assert.Equal(t, NotFound, res.Outcome)
		})
	}
}

func insertCancellation(t *testing.T, db *gorm.DB, studentID, roomID int64) model.CancellationRequest {
	t.Helper()
	req := model.CancellationRequest{
		StudentID: studentID,
		RoomID:    roomID,
		Status:    model.RequestPending,
		CreatedAt: time.Now(),
	}
	dbtest.Insert(t, db, &req)
	return req
}

func TestApproveCancellation(t *testing.T) {
	testCases := []struct {
		name          string
		sync          bool
		bookingStatus model.BookingStatus
	}{
		{name: "booking synced", sync: true, bookingStatus: model.BookingCancelled},
		{name: "booking left active", sync: false, bookingStatus: model.BookingActive},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			e, db := newEngine(t, tc.sync)
			c := newCampus(t, db)
			booking := dbtest.Occupy(t, db, c.hostel.ID, c.bunksA[2], c.alice.ID)
			req := insertCancellation(t, db, c.alice.ID, c.roomA.ID)

			res, err := e.ApproveCancellation(context.Background(), 5, req.ID)
			require.NoError(t, err)
			assert.True(t, res.OK)

			freed := dbtest.ReloadBunk(t, db, c.bunksA[2].ID)
			assert.False(t, freed.Occupied)
			assert.Nil(t, freed.OccupiedBy)

			var got model.CancellationRequest
			require.NoError(t, db.Take(&got, req.ID).Error)
			assert.Equal(t, model.RequestApproved, got.Status)
			require.NotNil(t, got.DecidedAt)

			var b model.Booking
			require.NoError(t, db.Take(&b, booking.ID).Error)
			assert.Equal(t, tc.bookingStatus, b.Status)

			again, err := e.ApproveCancellation(context.Background(), 5, req.ID)
			require.NoError(t, err)
			assert.Equal(t, AlreadyDecided, again.Outcome)
		})
	}
}

func TestApproveCancellation_NoBunkIsNotAnError(t *testing.T) {
	e, db := newEngine(t, true)
	c := newCampus(t, db)
	req := insertCancellation(t, db, c.alice.ID, c.roomA.ID)

	res, err := e.ApproveCancellation(context.Background(), 1, req.ID)
	require.NoError(t, err)
	assert.True(t, res.OK)

	var got model.CancellationRequest
	require.NoError(t, db.Take(&got, req.ID).Error)
	assert.Equal(t, model.RequestApproved, got.Status)
}

func TestRejectCancellation(t *testing.T) {
	e, db := newEngine(t, true)
	c := newCampus(t, db)
	dbtest.Occupy(t, db, c.hostel.ID, c.bunksA[0], c.alice.ID)
	req := insertCancellation(t, db, c.alice.ID, c.roomA.ID)

	res, err := e.RejectCancellation(context.Background(), 1, req.ID)
	require.NoError(t, err)
	assert.True(t, res.OK)
	assert.Equal(t, "Cancellation request rejected.", res.Message)
	assert.True(t, dbtest.ReloadBunk(t, db, c.bunksA[0].ID).Occupied)

	again, err := e.RejectCancellation(context.Background(), 1, req.ID)
	require.NoError(t, err)
	assert.Equal(t, AlreadyDecided, again.Outcome)
}

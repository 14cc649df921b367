package store

import (
	"time"

	"hostel-allocation-backend/internal/model"
)

// HostelSummary is a hostel with its room and free-bunk counts.
type HostelSummary struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Gender    string `json:"gender"`
	Faculty   string `json:"faculty"`
	Image     string `json:"image,omitempty"`
	Rooms     int64  `json:"rooms"`
	FreeBunks int64  `json:"free_bunks"`
}

// RoomSummary is a room with its bunk counts.
type RoomSummary struct {
	ID         int64  `json:"id"`
	HostelID   int64  `json:"hostel_id"`
	RoomNumber string `json:"room_number"`
	Type       string `json:"type,omitempty"`
	Capacity   int    `json:"capacity"`
	Bunks      int64  `json:"bunks"`
	FreeBunks  int64  `json:"free_bunks"`
}

// BunkView is a bunk as shown to students and admins.
type BunkView struct {
	ID           int64  `json:"id"`
	RoomID       int64  `json:"room_id"`
	Label        string `json:"bunk_label"`
	Occupied     bool   `json:"occupied"`
	OccupantID   *int64 `json:"occupant_id,omitempty"`
	OccupantName string `json:"occupant_name,omitempty"`
}

// RoomDetail is a room with every bunk, free or not.
type RoomDetail struct {
	RoomSummary
	BunkList []BunkView `json:"bunk_list"`
}

// HostelDetail is the admin view of one hostel.
type HostelDetail struct {
	Hostel model.Hostel `json:"hostel"`
	Rooms  []RoomDetail `json:"rooms"`
}

// Allocation is where a student currently lives. The bunk is authoritative;
// BookingID is set only when an active booking points at that bunk.
type Allocation struct {
	HostelID   int64      `json:"hostel_id"`
	HostelName string     `json:"hostel_name"`
	RoomID     int64      `json:"room_id"`
	RoomNumber string     `json:"room_number"`
	BunkID     int64      `json:"bunk_id"`
	BunkLabel  string     `json:"bunk_label"`
	BookingID  *int64     `json:"booking_id,omitempty"`
	BookedAt   *time.Time `json:"booked_at,omitempty"`
}

// BookingEntry is one row of a student's booking history.
type BookingEntry struct {
	ID         int64               `json:"id"`
	Status     model.BookingStatus `json:"status"`
	HostelName string              `json:"hostel_name"`
	RoomNumber string              `json:"room_number"`
	BunkLabel  string              `json:"bunk_label"`
	CreatedAt  time.Time           `json:"created_at"`
	UpdatedAt  time.Time           `json:"updated_at"`
}

// RequestHistory lists a student's swap and cancellation requests, newest first.
type RequestHistory struct {
	Swaps         []model.SwapRequest         `json:"swaps"`
	Cancellations []model.CancellationRequest `json:"cancellations"`
}

// Notification is a request event shown in the student's feed.
type Notification struct {
	Kind      string              `json:"kind"`
	RequestID int64               `json:"request_id"`
	Status    model.RequestStatus `json:"status"`
	Note      string              `json:"note,omitempty"`
	CreatedAt time.Time           `json:"created_at"`
	DecidedAt *time.Time          `json:"decided_at,omitempty"`
}

// EventAt is the decision time when there is one, else the submission time.
func (n Notification) EventAt() time.Time {
	if n.DecidedAt != nil {
		return *n.DecidedAt
	}
	return n.CreatedAt
}

// NotificationFeed is the merged request feed plus the count still pending.
type NotificationFeed struct {
	Items   []Notification `json:"items"`
	Pending int            `json:"pending"`
}

// Roommate is another occupant of the student's room.
type Roommate struct {
	StudentID  int64  `json:"student_id"`
	Name       string `json:"name"`
	Department string `json:"department,omitempty"`
	BunkLabel  string `json:"bunk_label"`
}

// RatingTarget selects what a rating is attached to.
type RatingTarget string

const (
	RateHostel RatingTarget = "hostel"
	RateRoom   RatingTarget = "room"
)

// RatingEntry is a stored rating with display names.
type RatingEntry struct {
	ID         int64     `json:"id"`
	HostelName string    `json:"hostel_name"`
	RoomNumber string    `json:"room_number,omitempty"`
	Rating     int       `json:"rating"`
	Comment    string    `json:"comment"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// SwapRequestView is a swap request with the requesting student's identity.
type SwapRequestView struct {
	model.SwapRequest
	StudentName string `json:"student_name"`
	MatricNo    string `json:"matric_no"`
}

// CancellationRequestView is a cancellation request with the requesting
// student's identity.
type CancellationRequestView struct {
	model.CancellationRequest
	StudentName string `json:"student_name"`
	MatricNo    string `json:"matric_no"`
}

// Dashboard holds the admin landing-page counters.
type Dashboard struct {
	Hostels              int64 `json:"hostels"`
	Rooms                int64 `json:"rooms"`
	Bunks                int64 `json:"bunks"`
	FreeBunks            int64 `json:"free_bunks"`
	PendingSwaps         int64 `json:"pending_swaps"`
	PendingCancellations int64 `json:"pending_cancellations"`
}

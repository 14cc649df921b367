package allocation

// Outcome names the result of an allocation or request operation. Everything
// other than OutcomeOK is an expected business outcome, not a fault.
type Outcome string

const (
	OutcomeOK          Outcome = "ok"
	AlreadyBooked      Outcome = "already_booked"
	InvalidBunk        Outcome = "invalid_bunk"
	BunkOccupied       Outcome = "bunk_occupied"
	BunkJustTaken      Outcome = "bunk_just_taken"
	NotFound           Outcome = "not_found"
	AlreadyDecided     Outcome = "already_decided"
	RoomFull           Outcome = "room_full"
	NoActiveAllocation Outcome = "no_active_allocation"
	PendingExists      Outcome = "pending_exists"
	SameRoom           Outcome = "same_room"
)

var defaultMessages = map[Outcome]string{
	AlreadyBooked:      "You already have an active booking.",
	InvalidBunk:        "Invalid bunk selection.",
	BunkOccupied:       "That bunk is already taken. Please choose another.",
	BunkJustTaken:      "That bunk was just taken. Please choose another.",
	NotFound:           "Request not found.",
	AlreadyDecided:     "This request has already been processed.",
	RoomFull:           "Requested room is currently full. Cannot approve.",
	NoActiveAllocation: "No active room allocation.",
	PendingExists:      "You already have a pending request.",
	SameRoom:           "You cannot request your current room.",
}

// Result is the (ok, message) pair handed to the presentation layer.
// RequestID is set when a request row was created.
type Result struct {
	OK        bool    `json:"ok"`
	Outcome   Outcome `json:"outcome"`
	Message   string  `json:"message"`
	RequestID *int64  `json:"request_id,omitempty"`
}

// Retryable reports whether repeating the same call may succeed without any
// other change, which is only the case after losing a race for a bunk.
func (r Result) Retryable() bool {
	return r.Outcome == BunkJustTaken
}

// Success builds a successful result.
func Success(message string) Result {
	return Result{OK: true, Outcome: OutcomeOK, Message: message}
}

// Failure builds a failed result with the outcome's default message.
func Failure(outcome Outcome) Result {
	return Result{Outcome: outcome, Message: defaultMessages[outcome]}
}

// Failuref builds a failed result with a custom message.
func Failuref(outcome Outcome, message string) Result {
	return Result{Outcome: outcome, Message: message}
}

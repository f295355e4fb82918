package model

// IntentType classifies what the caller wanted from the session.
type IntentType string

const (
	IntentBooking      IntentType = "booking"
	IntentRescheduling IntentType = "rescheduling"
	IntentCancellation IntentType = "cancellation"
	IntentInfoLookup   IntentType = "info_lookup"
)

// AllIntentTypes returns every valid intent type.
func AllIntentTypes() []IntentType {
	return []IntentType{
		IntentBooking,
		IntentRescheduling,
		IntentCancellation,
		IntentInfoLookup,
	}
}

// BookingDetails holds the structured facts mined from a booking or
// rescheduling conversation: who is being booked, by whom, and when.
type BookingDetails struct {
	ChildCount     int      `json:"child_count"`
	ChildNames     []string `json:"child_names"`
	ParentName     string   `json:"parent_name,omitempty"`
	ParentPhone    string   `json:"parent_phone,omitempty"`
	RequestedDates []string `json:"requested_dates"`
}

// Normalize enforces the booking-details invariant:
// ChildCount >= max(1, len(ChildNames)). Nil slices become empty.
func (d *BookingDetails) Normalize() {
	if d.ChildNames == nil {
		d.ChildNames = []string{}
	}
	if d.RequestedDates == nil {
		d.RequestedDates = []string{}
	}
	if d.ChildCount < 1 {
		d.ChildCount = 1
	}
	if d.ChildCount < len(d.ChildNames) {
		d.ChildCount = len(d.ChildNames)
	}
}

// CallerIntent is the classified purpose of a call. BookingDetails is
// present only for booking and rescheduling intents.
type CallerIntent struct {
	Type           IntentType      `json:"type"`
	Confidence     float64         `json:"confidence"`
	Summary        string          `json:"summary"`
	BookingDetails *BookingDetails `json:"booking_details,omitempty"`
}

// SubjectCount returns how many named persons the intent is about. Used
// to size per-subject protocol steps; never less than 1.
func (ci CallerIntent) SubjectCount() int {
	if ci.BookingDetails == nil {
		return 1
	}
	if ci.BookingDetails.ChildCount < 1 {
		return 1
	}
	return ci.BookingDetails.ChildCount
}

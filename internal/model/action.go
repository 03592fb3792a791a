package model

// Action is a booking status transition command. The backend exposes one
// endpoint per action under /api/bookings/{id}/{action}.
type Action string

const (
	ActionDone       Action = "done"
	ActionCancel     Action = "cancel"
	ActionReschedule Action = "reschedule"
)

// Target is the canonical status a successful action leads to.
func (a Action) Target() BookingStatus {
	switch a {
	case ActionDone:
		return BookingStatusCompleted
	case ActionCancel:
		return BookingStatusCancelled
	case ActionReschedule:
		return BookingStatusRescheduled
	}
	return ""
}

// PastTense is used in notices ("Booking marked as done").
func (a Action) PastTense() string {
	switch a {
	case ActionCancel:
		return "cancelled"
	case ActionReschedule:
		return "rescheduled"
	}
	return string(a)
}

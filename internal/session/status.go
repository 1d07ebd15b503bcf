package session

// Status is the display state of a session.
type Status int

const (
	// StatusActive means there is a card to review.
	StatusActive Status = iota
	// StatusNoCardsDue means the session started with nothing to review.
	StatusNoCardsDue
	// StatusComplete means every card was reviewed and none came due again.
	StatusComplete
)

func (s Status) String() string {
	switch s {
	case StatusActive:
		return "active"
	case StatusNoCardsDue:
		return "no_cards_due"
	case StatusComplete:
		return "complete"
	default:
		return "unknown"
	}
}

// Message is the text shown to the learner for a finished session.
func (s Status) Message() string {
	switch s {
	case StatusNoCardsDue:
		return "No cards due!"
	case StatusComplete:
		return "Session complete!"
	default:
		return ""
	}
}

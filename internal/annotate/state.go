package annotate

// State is the annotation state of a card.
type State int

const (
	// Unannotated cards have never been touched.
	Unannotated State = iota

	// Visible cards were classified as kept, or were un-suppressed.
	Visible

	// Suppressed cards are blurred and inert.
	Suppressed

	// SuppressedHoverRevealed cards are suppressed with the blur lifted
	// while the pointer is over them.
	SuppressedHoverRevealed
)

// String returns a human-readable representation of the state.
func (s State) String() string {
	switch s {
	case Unannotated:
		return "unannotated"
	case Visible:
		return "visible"
	case Suppressed:
		return "suppressed"
	case SuppressedHoverRevealed:
		return "suppressed-hover-revealed"
	default:
		return "unknown"
	}
}

// IsSuppressed reports whether s is one of the suppressed states.
func (s State) IsSuppressed() bool {
	return s == Suppressed || s == SuppressedHoverRevealed
}

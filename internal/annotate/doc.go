// Package annotate applies and removes suppression on video cards.
//
// Every card moves through a small state machine:
//
//	Unannotated -> Visible | Suppressed
//	Visible <-> Suppressed
//	Suppressed <-> SuppressedHoverRevealed
//
// A suppressed card is blurred and its preview surfaces are hidden and made
// inert. While a card is suppressed it carries one mouseenter and one
// mouseleave listener that lift and restore the blur. Re-applying the current
// state changes nothing.
//
// State is kept in a dom.NodeMap, so it disappears with the card.
package annotate

// Package relay forwards settings notifications to running sessions.
//
// A Hub keeps a set of receivers and broadcasts every message to all of
// them. A receiver that has gone away, fails, or panics must never affect the
// sender or the other receivers, so delivery problems are logged and
// swallowed.
package relay

// Package reconcile keeps a listing page's annotations in line with the
// classifier and the user settings.
//
// A Reconciler owns one document. A pass locates the page's video items,
// classifies each title and applies or removes suppression. Structural
// changes to the document schedule a pass after a debounce interval; a new
// change before the timer fires pushes it back, so a burst of changes costs
// one pass. Settings notifications replace the settings and run a pass at
// once.
//
// All state is owned by the goroutine running Run. Other goroutines reach it
// through Do and Deliver.
package reconcile

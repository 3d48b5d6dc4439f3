// Package model defines the data structures shared by the studysight
// packages.
//
//   - Page: a listing page loaded from a file or URL
//   - PassReport: the outcome of one reconciliation pass over a page
//   - ItemResult: the decision taken for a single video item
//
// The types carry JSON tags so reports can be written as JSON and pass
// history can be stored in the settings database.
package model

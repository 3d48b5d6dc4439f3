// Package pipeline runs listing pages through the processing steps of a
// scan: load the page, parse it, reconcile it, write the annotated HTML and
// record the pass.
//
// Each page travels through the steps as a Job. A Pipeline executes its
// steps in order for one job; a BatchProcessor runs a fresh pipeline per
// page with bounded concurrency using errgroup.
package pipeline

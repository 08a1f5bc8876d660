// Package versionstore persists the report number that stamps every
// pipeline run.  The counter only ever goes up.
package versionstore

import "context"

// Store hands out report version numbers.  The pipeline is strictly
// sequential, so implementations don't guard against concurrent writers;
// parallel pipeline runs need external mutual exclusion.
type Store interface {
	// Current returns the persisted counter.  A store that has never been
	// written, or whose contents can't be parsed, reads as 1: a first run
	// and a corrupt store are treated the same, never as an error.
	Current(ctx context.Context) (int, error)

	// Increment persists Current()+1 and returns the new value.
	Increment(ctx context.Context) (int, error)

	Close() error
}

package utils

import "errors"

var ErrorRecordNotFound = errors.New("record not found")

// ErrCounterNotFound means the (company, fin-year, code) counter row was
// never seeded. Counters are provisioned by migration, never on demand.
var ErrCounterNotFound = errors.New("sequence counter not found")

// ErrAllocationBusy means the named allocation lock could not be acquired
// within the wait budget. The whole submission should be retried.
var ErrAllocationBusy = errors.New("allocation lock busy")

var ErrConflictingDiscountModes = errors.New("conflicting discount modes")

var ErrUnresolvedReference = errors.New("unresolved reference")

func ErrorPanic(err error) {
	if err != nil {
		panic(err)
	}
}

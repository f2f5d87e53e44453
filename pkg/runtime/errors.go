package runtime

import "errors"

// ErrSchemaRequired is returned when a call supplies keyword arguments
// but the InferenceModule has no call schema to normalise them with.
var ErrSchemaRequired = errors.New("runtime: keyword arguments supplied but module has no schema")

// ErrArityMismatch is returned when a Processed Node's operator produces
// a different number of results than its declared output arity, or when
// a call supplies a different number of positional arguments than the
// graph has inputs.
var ErrArityMismatch = errors.New("runtime: arity mismatch")

// ErrOperatorMissing is returned at construction for a non-aggregate,
// non-unpack node whose kind has neither an out-variant nor a native
// operator registered.
var ErrOperatorMissing = errors.New("runtime: node has no registered operator")

// ErrReentered is returned when Run is called while a previous call on
// the same Runtime is still executing.
var ErrReentered = errors.New("runtime: re-entered while a previous run is still in progress")

// ErrMemoryLeak is the debug-only post-run invariant violation (§4.8):
// some slot that cleanup should have reset still holds live data.
var ErrMemoryLeak = errors.New("runtime: memory leak invariant violated")

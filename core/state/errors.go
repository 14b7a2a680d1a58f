package state

import "errors"

// ErrJournalUnderflow is raised when a caller commits a checkpoint id
// that is not the innermost open frame, or reverts an id that is not
// open at all (reverting an outer frame also discards the frames nested
// inside it) — an invariant
// violation (spec §7's Invariant-violation class) rather than a runtime
// condition callers are expected to handle.
var ErrJournalUnderflow = errors.New("state: checkpoint id is not the innermost open frame")

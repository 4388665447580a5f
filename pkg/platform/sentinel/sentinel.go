package sentinel

import "errors"

// Sentinel errors for storage facts. Stores return these (optionally wrapped)
// and the grunnlag service translates them into coded domain errors.
//
//   - ErrNotFound: no row for the requested key (sak, behandling, opplysning)
//   - ErrConflict: a uniqueness constraint rejected the write
//   - ErrInvalidState: the row exists but is in the wrong state for the write
//   - ErrUnavailable: the backing store or an upstream collaborator is down
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidState = errors.New("invalid state")
	ErrUnavailable  = errors.New("unavailable")
)

package board

import "hirehub.dev/internal/auth"

// Error kinds surfaced by board workflows. They are the auth taxonomy so
// callers classify every failure with one set of sentinels.
var (
	ErrNotFound     = auth.ErrNotFound
	ErrConflict     = auth.ErrConflict
	ErrInvalidInput = auth.ErrInvalidInput
	ErrForbidden    = auth.ErrForbidden
)

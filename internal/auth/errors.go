package auth

import "errors"

// Resource errors shared by every workflow in the service.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("resource conflict")
	ErrInvalidInput = errors.New("invalid input")
	ErrForbidden    = errors.New("forbidden")
)

// ErrUnauthenticated is the umbrella for every credential or token failure.
var ErrUnauthenticated = errors.New("unauthenticated")

// Credential and token failures. Each one matches ErrUnauthenticated via errors.Is
// so transports can surface them uniformly while logs keep the precise kind.
var (
	ErrInvalidCredentials = &authError{kind: "invalid credentials"}
	ErrMalformedToken     = &authError{kind: "malformed token"}
	ErrExpiredToken       = &authError{kind: "token expired"}
	ErrNotYetValid        = &authError{kind: "token not yet valid"}
	ErrMissingSubject     = &authError{kind: "token subject missing"}
	ErrSubjectNotFound    = &authError{kind: "token subject not found"}
)

type authError struct {
	kind string
}

func (e *authError) Error() string { return "auth: " + e.kind }

func (e *authError) Is(target error) bool {
	return target == ErrUnauthenticated
}

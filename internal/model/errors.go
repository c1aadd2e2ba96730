package model

import "errors"

// Collaborator failure sentinels. Callers match these with errors.Is; the
// gate converts them to ErrorKind values on outcomes rather than letting
// them escape its public entry points.
var (
	// ErrUnresolvedIdentity means a participant ID matched no known role
	// mapping. Distinct from a wrong-role guess: resolution failed outright.
	ErrUnresolvedIdentity = errors.New("unresolved identity")

	// ErrStoreUnavailable means the backing store could not be reached.
	// Permission evaluation treats this as deny (fail-closed).
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrRecipientUnresolved means no live endpoint is known for the
	// recipient. Reported, never retried by the gate.
	ErrRecipientUnresolved = errors.New("recipient unresolved")

	// ErrTransform means the payload could not be transformed (malformed
	// structured fields during redaction).
	ErrTransform = errors.New("transform failed")
)

// ErrorKind labels a terminal ERRORED outcome so callers can pattern-match
// on the failure without parsing error text.
type ErrorKind string

const (
	KindUnresolvedIdentity  ErrorKind = "UnresolvedIdentity"
	KindStoreUnavailable    ErrorKind = "StoreUnavailable"
	KindRecipientUnresolved ErrorKind = "RecipientUnresolved"
	KindPermissionCheck     ErrorKind = "PermissionCheckError"
	KindTransform           ErrorKind = "TransformError"
)

// KindOf maps a collaborator error to its ErrorKind. Unrecognized errors
// during evaluation fall under PermissionCheckError, the catch-all for
// upstream failures.
func KindOf(err error) ErrorKind {
	switch {
	case errors.Is(err, ErrUnresolvedIdentity):
		return KindUnresolvedIdentity
	case errors.Is(err, ErrStoreUnavailable):
		return KindStoreUnavailable
	case errors.Is(err, ErrRecipientUnresolved):
		return KindRecipientUnresolved
	case errors.Is(err, ErrTransform):
		return KindTransform
	default:
		return KindPermissionCheck
	}
}

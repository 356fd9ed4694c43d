package types

import "errors"

// Error kinds surfaced by Ledger implementations. Backends wrap underlying
// causes with these sentinels so callers can branch with errors.Is.
var (
	// ErrInvalidArgument is returned before any mutation when a required
	// field is missing or a value is out of range.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNotFound is returned by readers when the requested entity does not
	// exist. Mutations on absent entities are silent no-ops instead.
	ErrNotFound = errors.New("entity not found")

	// ErrStorageFailure wraps failures of the underlying storage engine.
	ErrStorageFailure = errors.New("storage failure")

	// ErrOverpayment is returned by AddPayment on a strict-balance ledger when
	// the amount exceeds the client's outstanding balance.
	ErrOverpayment = errors.New("payment exceeds outstanding balance")

	// ErrUnsupported marks capabilities that are declared but not yet
	// implemented, such as restoring a snapshot.
	ErrUnsupported = errors.New("not supported")

	// ErrDetached is returned when a closed ledger is used.
	ErrDetached = errors.New("ledger is closed")
)

// IsUserError reports whether err was caused by caller input rather than by
// the storage engine.
func IsUserError(err error) bool {
	return errors.Is(err, ErrInvalidArgument) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrOverpayment)
}

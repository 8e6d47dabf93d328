package quota

import "errors"

// Result variants returned by the claim engine and resolver. All of these
// are recoverable by the caller except ErrIntegrity, which marks a request
// that must fail as a whole.
var (
	// ErrQuotaExhausted means take was denied because no quota remains for
	// the current month. No row is written.
	ErrQuotaExhausted = errors.New("quota: monthly limit exhausted")

	// ErrDuplicateActive means take was denied because an active claim for
	// the same site already exists this month.
	ErrDuplicateActive = errors.New("quota: active claim already exists for site")

	// ErrNotFound means a return found no matching active claim.
	ErrNotFound = errors.New("quota: no matching active claim")

	// ErrContention means the serializing transaction could not be
	// acquired. The caller should retry the whole operation from scratch.
	ErrContention = errors.New("quota: store busy, retry")

	// ErrIntegrity means the operation referenced a nonexistent user or a
	// malformed month bucket.
	ErrIntegrity = errors.New("quota: integrity violation")
)

/*
errors.go - Centralized error types for the reconciliation engine

PURPOSE:
  All sentinel errors in one place. The engine itself never fails on data
  content - malformed rows are dropped by Normalize - so these errors
  belong to the boundaries around it: fetching, persistence, invocation
  coordination.

USAGE:
  Callers test with errors.Is:

    if errors.Is(err, ledger.ErrFetchFailed) {
        // abandon the invocation, reset the view
    }

SEE ALSO:
  - service/reconciler.go: wraps ErrFetchFailed with the failing source
  - store/sqlite: returns ErrDuplicateIdempotencyKey, ErrNotFound
*/
package ledger

import "errors"

var (
	// ErrFetchFailed is returned when any upstream fetch of a
	// reconciliation invocation fails. Partial aggregates are never
	// returned; the whole invocation is abandoned.
	ErrFetchFailed = errors.New("reconciliation fetch failed")

	// ErrStaleInvocation is returned when a reconciliation result is
	// discarded because a newer invocation already applied its result.
	ErrStaleInvocation = errors.New("stale reconciliation invocation")

	// ErrDuplicateIdempotencyKey is returned when a transaction with the
	// same idempotency key already exists. Expected behavior for retries.
	ErrDuplicateIdempotencyKey = errors.New("duplicate idempotency key")

	// ErrNotFound is returned when a referenced holder, item, or unit
	// does not exist.
	ErrNotFound = errors.New("not found")
)

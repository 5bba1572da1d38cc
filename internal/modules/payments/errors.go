package payments

import "errors"

var (
	ErrOrderNotPayable = errors.New("order not payable")
	ErrForbidden       = errors.New("forbidden")

	// ErrMetadataMismatch: the webhook claims to belong to a user/intent it
	// does not match. Unlike the other post-ledger anomalies this is a
	// client/integration defect and surfaces as an error instead of an
	// ignored outcome.
	ErrMetadataMismatch = errors.New("webhook metadata mismatch")

	// ErrClaimStoreUnavailable: strict deployments refuse the event rather
	// than claim it with degraded guarantees.
	ErrClaimStoreUnavailable = errors.New("claim store unavailable")
)

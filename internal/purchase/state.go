package purchase

// State is the reconciled ownership state of a (viewer, model) pair. It is
// recomputed on demand from the listing and the receipt ledger, never
// persisted on its own.
type State string

const (
	// StateUnauthenticated: no signed-in viewer; the only affordance is login.
	StateUnauthenticated State = "unauthenticated"

	// StateOwner: the viewer is the listing's developer and can never buy it.
	StateOwner State = "owner"

	// StateNotPurchased: signed in, not the owner, no receipt on file.
	StateNotPurchased State = "not_purchased"

	// StatePurchased: a receipt exists for this pair.
	StatePurchased State = "purchased"

	// StateInFlight: a buy transaction for this pair is currently running.
	StateInFlight State = "purchase_in_flight"

	// StateIndeterminate: the ledger could not be read. Distinct from
	// NotPurchased so a transient failure never re-opens the buy path.
	StateIndeterminate State = "indeterminate"
)

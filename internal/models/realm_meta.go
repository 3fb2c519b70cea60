package models

import "time"

// RealmMeta is per-realm scan bookkeeping (Firestore doc id: realm pubkey).
// InitializedAt is written exactly once, by the first non-dry-run scan, and
// gates notification delivery: the scan that establishes the baseline never
// notifies.
type RealmMeta struct {
	InitializedAt         time.Time `json:"initializedAt" firestore:"initializedAt"`
	LastRunAt             time.Time `json:"lastRunAt" firestore:"lastRunAt"`
	LastSeenProposalCount int       `json:"lastSeenProposalCount" firestore:"lastSeenProposalCount"`
}

// Initialized reports whether a baseline scan has completed for the realm.
func (m RealmMeta) Initialized() bool {
	return !m.InitializedAt.IsZero()
}

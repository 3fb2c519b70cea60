package models

import "time"

// Proposal is a governance proposal as returned by the indexer.
// Proposals are re-fetched on every scan; only the snapshot copy is persisted.
type Proposal struct {
	Pubkey     string `json:"pubkey"`
	Governance string `json:"governance"`
	Name       string `json:"name"`
	State      string `json:"state"`
	DraftAt    int64  `json:"draftAt"`
	VotingAt   int64  `json:"votingAt"`
}

// DisplayName returns the proposal name, falling back to a shortened pubkey
// when the indexer returned no name.
func (p Proposal) DisplayName() string {
	if p.Name != "" {
		return p.Name
	}
	return ShortPubkey(p.Pubkey)
}

// ProposalState is the persisted snapshot of a proposal as observed at the
// end of the last scan (Firestore doc id: "<realm>:<proposalPk>"). It is the
// diff baseline for the next scan and nothing else.
type ProposalState struct {
	Realm        string    `json:"realm" firestore:"realm"`
	ProposalPk   string    `json:"proposalPk" firestore:"proposalPk"`
	GovernancePk string    `json:"governancePk" firestore:"governancePk"`
	Name         string    `json:"name" firestore:"name"`
	State        string    `json:"state" firestore:"state"`
	DraftAt      int64     `json:"draftAt" firestore:"draftAt"`
	VotingAt     int64     `json:"votingAt" firestore:"votingAt"`
	UpdatedAt    time.Time `json:"updatedAt" firestore:"updatedAt"`
}

// ShortPubkey renders a pubkey as "abcd...wxyz" for display.
func ShortPubkey(pk string) string {
	if len(pk) <= 8 {
		return pk
	}
	return pk[:4] + "..." + pk[len(pk)-4:]
}

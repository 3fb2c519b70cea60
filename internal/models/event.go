package models

// Event types produced by a scan.
const (
	EventTypeCreated = "created"
	EventTypeVoting  = "voting"
)

// MaxEventsPerScan caps how many lifecycle events a single realm scan may
// emit. Events beyond the cap are dropped, not queued.
const MaxEventsPerScan = 15

// Event is an ephemeral lifecycle transition detected during a scan.
type Event struct {
	Type        string
	Proposal    Proposal
	IsVotingNow bool
}

// EventSummary is the wire form of an Event inside a scan response.
type EventSummary struct {
	Type        string `json:"type"`
	Proposal    string `json:"proposal"`
	Name        string `json:"name"`
	State       string `json:"state"`
	DraftAt     int64  `json:"draftAt"`
	VotingAt    int64  `json:"votingAt"`
	IsVotingNow bool   `json:"isVotingNow"`
}

// Summary converts an Event for inclusion in the scan response.
func (e Event) Summary() EventSummary {
	return EventSummary{
		Type:        e.Type,
		Proposal:    e.Proposal.Pubkey,
		Name:        e.Proposal.DisplayName(),
		State:       e.Proposal.State,
		DraftAt:     e.Proposal.DraftAt,
		VotingAt:    e.Proposal.VotingAt,
		IsVotingNow: e.IsVotingNow,
	}
}

// RealmResult aggregates the outcome of scanning one realm.
type RealmResult struct {
	Realm             string         `json:"realm"`
	FirstScan         bool           `json:"firstScan"`
	ProposalsScanned  int            `json:"proposalsScanned"`
	Subscribers       int            `json:"subscribers"`
	EventsDetected    int            `json:"eventsDetected"`
	NotificationsSent int            `json:"notificationsSent"`
	TokensDisabled    int            `json:"tokensDisabled"`
	Events            []EventSummary `json:"events"`
}

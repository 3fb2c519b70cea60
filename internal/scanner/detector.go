package scanner

import (
	"sort"

	"github.com/realmkit/gov-notify/internal/models"
)

// Detect diffs the freshly fetched proposals against the previous snapshot
// and returns the lifecycle events of this scan, newest draftAt first,
// capped at models.MaxEventsPerScan. Pure function, no I/O.
//
// Rules per proposal:
//   - unknown pubkey -> created (IsVotingNow reflects the current state)
//   - known, was not voting, now voting -> voting
//   - everything else (already voting, terminal outcomes, no transition) ->
//     no event
func Detect(current []models.Proposal, previous map[string]models.ProposalState) []models.Event {
	var events []models.Event
	for _, p := range current {
		prev, seen := previous[p.Pubkey]
		if !seen {
			events = append(events, models.Event{
				Type:        models.EventTypeCreated,
				Proposal:    p,
				IsVotingNow: models.IsVotingState(p.State),
			})
			continue
		}
		if !models.IsVotingState(prev.State) && models.IsVotingState(p.State) {
			events = append(events, models.Event{
				Type:        models.EventTypeVoting,
				Proposal:    p,
				IsVotingNow: true,
			})
		}
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Proposal.DraftAt > events[j].Proposal.DraftAt
	})
	if len(events) > models.MaxEventsPerScan {
		events = events[:models.MaxEventsPerScan]
	}
	return events
}

package scanner

import (
	"context"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/realmkit/gov-notify/internal/models"
	"github.com/realmkit/gov-notify/internal/repositories"
	"github.com/realmkit/gov-notify/pkg/config"
)

// DisabledReasonUnregistered marks subscriptions pruned because FCM reported
// the token as permanently gone.
const DisabledReasonUnregistered = "token-not-registered"

// ProposalFetcher is the indexer surface the orchestrator depends on.
type ProposalFetcher interface {
	FetchProposals(ctx context.Context, realm, programID string) ([]models.Proposal, error)
}

// EventDispatcher sends one event to a realm's subscribers.
type EventDispatcher interface {
	Dispatch(ctx context.Context, event models.Event, realm string, tokens []string, baseURL string) (int, []string, error)
}

// Orchestrator runs the fetch -> detect -> persist -> notify pipeline for a
// set of realms, one realm at a time.
type Orchestrator struct {
	cfg           *config.Config
	fetcher       ProposalFetcher
	snapshots     repositories.SnapshotRepository
	subscriptions repositories.SubscriptionRepository
	dispatcher    EventDispatcher
	now           func() time.Time
}

func NewOrchestrator(
	cfg *config.Config,
	fetcher ProposalFetcher,
	snapshots repositories.SnapshotRepository,
	subscriptions repositories.SubscriptionRepository,
	dispatcher EventDispatcher,
) *Orchestrator {
	return &Orchestrator{
		cfg:           cfg,
		fetcher:       fetcher,
		snapshots:     snapshots,
		subscriptions: subscriptions,
		dispatcher:    dispatcher,
		now:           time.Now,
	}
}

// ScanRealms processes each realm sequentially. The first error aborts the
// whole run; results already produced for earlier realms are returned as-is
// and their writes stand.
func (o *Orchestrator) ScanRealms(ctx context.Context, realms []string, dryRun bool) ([]models.RealmResult, error) {
	results := make([]models.RealmResult, 0, len(realms))
	for _, realm := range realms {
		programID, ok := o.cfg.ProgramIDFor(realm)
		if !ok {
			return results, fmt.Errorf("realm %s is not configured", realm)
		}
		result, err := o.scanRealm(ctx, realm, programID, dryRun)
		if err != nil {
			return results, fmt.Errorf("scan realm %s: %w", realm, err)
		}
		results = append(results, result)
	}
	return results, nil
}

func (o *Orchestrator) scanRealm(ctx context.Context, realm, programID string, dryRun bool) (models.RealmResult, error) {
	var (
		meta      models.RealmMeta
		previous  map[string]models.ProposalState
		tokens    []string
		proposals []models.Proposal
	)

	// The four reads are independent; join them before diffing.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		meta, err = o.snapshots.RealmMeta(gctx, realm)
		return err
	})
	g.Go(func() (err error) {
		previous, err = o.snapshots.ProposalStates(gctx, realm)
		return err
	})
	g.Go(func() (err error) {
		tokens, err = o.subscriptions.EnabledTokens(gctx, realm)
		return err
	})
	g.Go(func() (err error) {
		proposals, err = o.fetcher.FetchProposals(gctx, realm, programID)
		return err
	})
	if err := g.Wait(); err != nil {
		return models.RealmResult{}, err
	}

	wasInitialized := meta.Initialized()
	events := Detect(proposals, previous)

	if !dryRun {
		if err := o.snapshots.SaveProposalStates(ctx, realm, proposals); err != nil {
			return models.RealmResult{}, err
		}
		now := o.now().UTC()
		if !wasInitialized {
			meta.InitializedAt = now
		}
		meta.LastRunAt = now
		meta.LastSeenProposalCount = len(proposals)
		if err := o.snapshots.SaveRealmMeta(ctx, realm, meta); err != nil {
			return models.RealmResult{}, err
		}
	}

	summaries := make([]models.EventSummary, 0, len(events))
	for _, ev := range events {
		summaries = append(summaries, ev.Summary())
	}
	result := models.RealmResult{
		Realm:            realm,
		FirstScan:        !wasInitialized,
		ProposalsScanned: len(proposals),
		Subscribers:      len(tokens),
		EventsDetected:   len(events),
		Events:           summaries,
	}

	// The baseline-establishing scan never notifies.
	if !wasInitialized || dryRun || len(events) == 0 || len(tokens) == 0 {
		return result, nil
	}

	invalidSet := map[string]bool{}
	for _, ev := range events {
		sent, invalid, err := o.dispatcher.Dispatch(ctx, ev, realm, tokens, o.cfg.AppBaseURL)
		result.NotificationsSent += sent
		if err != nil {
			return result, err
		}
		for _, token := range invalid {
			invalidSet[token] = true
		}
	}

	if len(invalidSet) > 0 {
		dead := make([]string, 0, len(invalidSet))
		for token := range invalidSet {
			dead = append(dead, token)
		}
		sort.Strings(dead)
		if err := o.subscriptions.DisableTokens(ctx, realm, dead, DisabledReasonUnregistered); err != nil {
			return result, err
		}
		result.TokensDisabled = len(dead)
	}
	return result, nil
}

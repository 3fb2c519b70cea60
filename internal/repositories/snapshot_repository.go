package repositories

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/realmkit/gov-notify/internal/models"
)

const (
	proposalStateCollection = "proposalStates"
	realmMetaCollection     = "realmMeta"

	// writeBatchSize keeps a safety margin under Firestore's 500-operation
	// batch limit.
	writeBatchSize = 450
)

// SnapshotRepository persists per-realm proposal state snapshots and scan
// metadata.
type SnapshotRepository interface {
	ProposalStates(ctx context.Context, realm string) (map[string]models.ProposalState, error)
	SaveProposalStates(ctx context.Context, realm string, proposals []models.Proposal) error
	RealmMeta(ctx context.Context, realm string) (models.RealmMeta, error)
	SaveRealmMeta(ctx context.Context, realm string, meta models.RealmMeta) error
}

type firestoreSnapshotRepository struct {
	client *firestore.Client
	now    func() time.Time
}

func NewFirestoreSnapshotRepository(client *firestore.Client) SnapshotRepository {
	return &firestoreSnapshotRepository{client: client, now: time.Now}
}

func proposalStateID(realm, proposalPk string) string {
	return realm + ":" + proposalPk
}

func (r *firestoreSnapshotRepository) ProposalStates(ctx context.Context, realm string) (map[string]models.ProposalState, error) {
	iter := r.client.Collection(proposalStateCollection).
		Where("realm", "==", realm).
		Documents(ctx)
	defer iter.Stop()

	states := map[string]models.ProposalState{}
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read proposal states for realm %s: %w", realm, err)
		}
		var state models.ProposalState
		if err := doc.DataTo(&state); err != nil {
			return nil, fmt.Errorf("decode proposal state %s: %w", doc.Ref.ID, err)
		}
		states[state.ProposalPk] = state
	}
	return states, nil
}

func (r *firestoreSnapshotRepository) SaveProposalStates(ctx context.Context, realm string, proposals []models.Proposal) error {
	now := r.now().UTC()
	refs := make([]*firestore.DocumentRef, 0, len(proposals))
	docs := make([]map[string]interface{}, 0, len(proposals))
	for _, p := range proposals {
		refs = append(refs, r.client.Collection(proposalStateCollection).Doc(proposalStateID(realm, p.Pubkey)))
		docs = append(docs, map[string]interface{}{
			"realm":        realm,
			"proposalPk":   p.Pubkey,
			"governancePk": p.Governance,
			"name":         p.Name,
			"state":        p.State,
			"draftAt":      p.DraftAt,
			"votingAt":     p.VotingAt,
			"updatedAt":    now,
		})
	}
	return commitInBatches(ctx, r.client, refs, docs)
}

func (r *firestoreSnapshotRepository) RealmMeta(ctx context.Context, realm string) (models.RealmMeta, error) {
	doc, err := r.client.Collection(realmMetaCollection).Doc(realm).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return models.RealmMeta{}, nil
	}
	if err != nil {
		return models.RealmMeta{}, fmt.Errorf("read realm meta for %s: %w", realm, err)
	}
	var meta models.RealmMeta
	if err := doc.DataTo(&meta); err != nil {
		return models.RealmMeta{}, fmt.Errorf("decode realm meta for %s: %w", realm, err)
	}
	return meta, nil
}

func (r *firestoreSnapshotRepository) SaveRealmMeta(ctx context.Context, realm string, meta models.RealmMeta) error {
	ref := r.client.Collection(realmMetaCollection).Doc(realm)
	_, err := ref.Set(ctx, map[string]interface{}{
		"initializedAt":         meta.InitializedAt,
		"lastRunAt":             meta.LastRunAt,
		"lastSeenProposalCount": meta.LastSeenProposalCount,
	}, firestore.MergeAll)
	if err != nil {
		return fmt.Errorf("save realm meta for %s: %w", realm, err)
	}
	return nil
}

// commitInBatches splits merge-style upserts into sequential WriteBatch
// commits; batch N+1 does not start until batch N is acknowledged.
func commitInBatches(ctx context.Context, client *firestore.Client, refs []*firestore.DocumentRef, docs []map[string]interface{}) error {
	for start := 0; start < len(docs); start += writeBatchSize {
		end := start + writeBatchSize
		if end > len(docs) {
			end = len(docs)
		}
		batch := client.Batch()
		for i := start; i < end; i++ {
			batch.Set(refs[i], docs[i], firestore.MergeAll)
		}
		if _, err := batch.Commit(ctx); err != nil {
			return fmt.Errorf("commit write batch: %w", err)
		}
	}
	return nil
}

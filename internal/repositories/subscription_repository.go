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

const subscriptionCollection = "subscriptions"

// SubscriptionRepository persists push subscriptions per realm.
type SubscriptionRepository interface {
	EnabledTokens(ctx context.Context, realm string) ([]string, error)
	Upsert(ctx context.Context, sub models.Subscription) error
	DisableTokens(ctx context.Context, realm string, tokens []string, reason string) error
}

type firestoreSubscriptionRepository struct {
	client *firestore.Client
	now    func() time.Time
}

func NewFirestoreSubscriptionRepository(client *firestore.Client) SubscriptionRepository {
	return &firestoreSubscriptionRepository{client: client, now: time.Now}
}

func (r *firestoreSubscriptionRepository) EnabledTokens(ctx context.Context, realm string) ([]string, error) {
	iter := r.client.Collection(subscriptionCollection).
		Where("realm", "==", realm).
		Where("enabled", "==", true).
		Documents(ctx)
	defer iter.Stop()

	var tokens []string
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read subscriptions for realm %s: %w", realm, err)
		}
		var sub models.Subscription
		if err := doc.DataTo(&sub); err != nil {
			return nil, fmt.Errorf("decode subscription %s: %w", doc.Ref.ID, err)
		}
		if sub.Token != "" {
			tokens = append(tokens, sub.Token)
		}
	}
	return tokens, nil
}

// Upsert creates or refreshes a subscription keyed by hash(realm, token).
// createdAt is written once; later upserts only touch the mutable fields.
func (r *firestoreSubscriptionRepository) Upsert(ctx context.Context, sub models.Subscription) error {
	ref := r.client.Collection(subscriptionCollection).Doc(models.SubscriptionID(sub.Realm, sub.Token))
	now := r.now().UTC()

	doc := map[string]interface{}{
		"realm":     sub.Realm,
		"token":     sub.Token,
		"enabled":   sub.Enabled,
		"source":    sub.Source,
		"userAgent": sub.UserAgent,
		"updatedAt": now,
	}
	if sub.Enabled {
		// Re-registering a previously pruned token clears the reason.
		doc["disabledReason"] = ""
	}

	_, err := ref.Get(ctx)
	if status.Code(err) == codes.NotFound {
		doc["createdAt"] = now
	} else if err != nil {
		return fmt.Errorf("read subscription for upsert: %w", err)
	}

	if _, err := ref.Set(ctx, doc, firestore.MergeAll); err != nil {
		return fmt.Errorf("upsert subscription: %w", err)
	}
	return nil
}

// DisableTokens flips enabled off for each token in batched merge upserts.
// Subscription documents are never deleted.
func (r *firestoreSubscriptionRepository) DisableTokens(ctx context.Context, realm string, tokens []string, reason string) error {
	now := r.now().UTC()
	refs := make([]*firestore.DocumentRef, 0, len(tokens))
	docs := make([]map[string]interface{}, 0, len(tokens))
	for _, token := range tokens {
		refs = append(refs, r.client.Collection(subscriptionCollection).Doc(models.SubscriptionID(realm, token)))
		docs = append(docs, map[string]interface{}{
			"enabled":        false,
			"disabledReason": reason,
			"updatedAt":      now,
		})
	}
	return commitInBatches(ctx, r.client, refs, docs)
}

package models

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Subscription is a registered push device for a realm. Subscriptions are
// never deleted; dead tokens are disabled with a reason instead.
type Subscription struct {
	Realm          string    `json:"realm" firestore:"realm"`
	Token          string    `json:"token" firestore:"token"`
	Enabled        bool      `json:"enabled" firestore:"enabled"`
	Source         string    `json:"source" firestore:"source"`
	UserAgent      string    `json:"userAgent" firestore:"userAgent"`
	DisabledReason string    `json:"disabledReason,omitempty" firestore:"disabledReason"`
	CreatedAt      time.Time `json:"createdAt" firestore:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt" firestore:"updatedAt"`
}

// SubscriptionID derives the document id for a realm/token pair. Tokens can
// exceed Firestore's id limits and contain ':', so the pair is hashed.
func SubscriptionID(realm, token string) string {
	sum := sha256.Sum256([]byte(realm + "|" + token))
	return hex.EncodeToString(sum[:])
}

package scanner

import (
	"context"
	"fmt"

	"firebase.google.com/go/v4/errorutils"
	"firebase.google.com/go/v4/messaging"

	"github.com/realmkit/gov-notify/internal/models"
)

// MulticastChunkSize is FCM's per-call token limit for multicast sends.
const MulticastChunkSize = 500

// PushClient is the slice of the FCM client the dispatcher needs.
type PushClient interface {
	SendEachForMulticast(ctx context.Context, message *messaging.MulticastMessage) (*messaging.BatchResponse, error)
}

// Dispatcher fans one event out to a realm's subscribers in bounded
// multicast chunks and reports tokens the provider says are gone for good.
type Dispatcher struct {
	push     PushClient
	iconURL  string
	badgeURL string

	// tokenGone classifies a per-token send error as a permanently dead
	// registration.
	tokenGone func(error) bool
}

func NewDispatcher(push PushClient, iconURL, badgeURL string) *Dispatcher {
	return &Dispatcher{
		push:      push,
		iconURL:   iconURL,
		badgeURL:  badgeURL,
		tokenGone: registrationGone,
	}
}

func registrationGone(err error) bool {
	return messaging.IsUnregistered(err) || errorutils.IsInvalidArgument(err)
}

// Dispatch sends one event to every token, sequentially chunk by chunk.
// Per-token failures are data; a transport-level error aborts the scan.
func (d *Dispatcher) Dispatch(ctx context.Context, event models.Event, realm string, tokens []string, baseURL string) (int, []string, error) {
	title, body := messageText(event)
	link := fmt.Sprintf("%s/proposal/%s/%s", baseURL, realm, event.Proposal.Pubkey)

	sent := 0
	var invalid []string
	for start := 0; start < len(tokens); start += MulticastChunkSize {
		end := start + MulticastChunkSize
		if end > len(tokens) {
			end = len(tokens)
		}
		chunk := tokens[start:end]

		message := &messaging.MulticastMessage{
			Tokens: chunk,
			Notification: &messaging.Notification{
				Title: title,
				Body:  body,
			},
			Data: map[string]string{
				"realm":    realm,
				"proposal": event.Proposal.Pubkey,
				"event":    event.Type,
				"link":     link,
			},
			Webpush: &messaging.WebpushConfig{
				Notification: &messaging.WebpushNotification{
					Title: title,
					Body:  body,
					Icon:  d.iconURL,
					Badge: d.badgeURL,
				},
				FCMOptions: &messaging.WebpushFCMOptions{
					Link: link,
				},
			},
		}

		resp, err := d.push.SendEachForMulticast(ctx, message)
		if err != nil {
			return sent, invalid, fmt.Errorf("push multicast: %w", err)
		}

		sent += resp.SuccessCount
		for i, r := range resp.Responses {
			if r.Success || r.Error == nil {
				continue
			}
			if d.tokenGone(r.Error) {
				invalid = append(invalid, chunk[i])
			}
		}
	}
	return sent, invalid, nil
}

func messageText(event models.Event) (title, body string) {
	name := event.Proposal.DisplayName()
	switch {
	case event.Type == models.EventTypeVoting:
		return "Proposal Entered Voting", fmt.Sprintf("%s is now in voting.", name)
	case event.IsVotingNow:
		return "New Proposal (Voting Live)", fmt.Sprintf("%s was created and is live for voting.", name)
	default:
		return "New Proposal Created", fmt.Sprintf("%s was just created.", name)
	}
}

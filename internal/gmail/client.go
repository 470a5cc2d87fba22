// Package gmail ingests bank notification emails from the mail provider:
// allow-list query construction, cursor pagination, bounded-batch body
// fetching, and the sync protocol that advances the stored cursor.
package gmail

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"

	gmailapi "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

// MailAPI is the slice of the provider API the ingestor needs. Production
// wraps the real service; tests inject a fake.
type MailAPI interface {
	// ListMessageIDs returns one page of message ids matching the query,
	// plus the cursor for the next page ("" when exhausted).
	ListMessageIDs(ctx context.Context, query, pageToken string) (ids []string, nextPageToken string, err error)
	// GetRawMessage fetches one message as RFC822 bytes.
	GetRawMessage(ctx context.Context, id string) ([]byte, error)
}

type gmailAPI struct {
	svc *gmailapi.Service
}

// NewMailAPI builds the production provider client over an authorized
// HTTP client.
func NewMailAPI(ctx context.Context, httpClient *http.Client) (MailAPI, error) {
	svc, err := gmailapi.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("failed to create mail service: %w", err)
	}
	return &gmailAPI{svc: svc}, nil
}

func (g *gmailAPI) ListMessageIDs(ctx context.Context, query, pageToken string) ([]string, string, error) {
	call := g.svc.Users.Messages.List("me").Q(query).MaxResults(500)
	if pageToken != "" {
		call = call.PageToken(pageToken)
	}
	resp, err := call.Context(ctx).Do()
	if err != nil {
		return nil, "", fmt.Errorf("failed to list messages: %w", err)
	}

	ids := make([]string, 0, len(resp.Messages))
	for _, m := range resp.Messages {
		ids = append(ids, m.Id)
	}
	return ids, resp.NextPageToken, nil
}

func (g *gmailAPI) GetRawMessage(ctx context.Context, id string) ([]byte, error) {
	msg, err := g.svc.Users.Messages.Get("me", id).Format("raw").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch message %s: %w", id, err)
	}
	data, err := base64.URLEncoding.DecodeString(msg.Raw)
	if err != nil {
		// The provider sometimes omits padding.
		data, err = base64.RawURLEncoding.DecodeString(msg.Raw)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode message %s: %w", id, err)
	}
	return data, nil
}

package billing

import (
	"context"

	"github.com/septivank/usage-delta-worker/internal/aggregate"
)

// Source adapts the client to the runner's data source contract:
// authenticate, then hand back the lazy usage stream.
type Source struct {
	client *Client
}

// NewSource creates a source backed by the API client.
func NewSource(client *Client) *Source {
	return &Source{client: client}
}

// Open obtains a session token and returns the per-account usage stream.
func (s *Source) Open(ctx context.Context) (aggregate.Iterator, error) {
	token, err := s.client.Login(ctx)
	if err != nil {
		return nil, err
	}
	return NewUsageIterator(s.client, token), nil
}

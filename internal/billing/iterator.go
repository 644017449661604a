package billing

import (
	"context"

	"go.uber.org/zap"
)

// UsageIterator walks every account's resource count, fetching account
// pages lazily so an arbitrarily large tenant never has to be held in
// memory at once. It satisfies the aggregator's input contract.
type UsageIterator struct {
	client *Client
	token  string

	page   []Account
	pos    int
	offset int
	done   bool
}

// NewUsageIterator creates an iterator over per-account usage counts using
// the given session token.
func NewUsageIterator(client *Client, token string) *UsageIterator {
	return &UsageIterator{
		client: client,
		token:  token,
	}
}

// Next yields the next account's usage count, fetching the next account
// page when the current one is exhausted. ok=false signals the end of the
// sequence.
func (it *UsageIterator) Next(ctx context.Context) (int64, bool, error) {
	for it.pos >= len(it.page) {
		if it.done {
			return 0, false, nil
		}

		page, err := it.client.listAccounts(ctx, it.token, it.offset)
		if err != nil {
			return 0, false, err
		}

		it.client.logger.Debug("fetched account page",
			zap.Int("offset", it.offset),
			zap.Int("accounts", len(page)),
		)

		it.offset += len(page)
		if len(page) < it.client.pageSize {
			it.done = true
		}
		it.page = page
		it.pos = 0

		if len(page) == 0 {
			return 0, false, nil
		}
	}

	account := it.page[it.pos]
	it.pos++

	value, err := it.client.Usage(ctx, it.token, account.ID)
	if err != nil {
		return 0, false, err
	}
	return value, true, nil
}

package connectors

import (
	"context"
	"fmt"
)

type FetchService struct {
	connector MailConnector
	store     *MailStoreService
}

type FetchResult struct {
	Fetched int
	Stored  int
}

func NewFetchService(db EmailLedger, rawMailDir string, connector MailConnector) *FetchService {
	return &FetchService{
		connector: connector,
		store:     NewMailStoreService(db, rawMailDir),
	}
}

func (s *FetchService) FetchAndStore(ctx context.Context, label string, max int) (FetchResult, error) {
	messages, err := s.connector.FetchInbox(ctx, label, max)
	if err != nil {
		return FetchResult{}, err
	}

	stored := 0
	for _, msg := range messages {
		if _, err := s.store.Store(msg); err != nil {
			return FetchResult{Fetched: len(messages), Stored: stored}, fmt.Errorf("store %s: %w", msg.MessageID, err)
		}
		stored++
	}

	return FetchResult{Fetched: len(messages), Stored: stored}, nil
}

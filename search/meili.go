package search

import (
	"context"
	"fmt"

	"github.com/meilisearch/meilisearch-go"
)

// MeiliIndexer is the MeiliSearch-backed Indexer. AddDocuments is an
// add-or-replace by document id on the configured index.
type MeiliIndexer struct {
	index meilisearch.IndexManager
}

// NewMeiliIndexer connects to a MeiliSearch host and targets one index.
func NewMeiliIndexer(host, apiKey, indexName string) *MeiliIndexer {
	client := meilisearch.New(host, meilisearch.WithAPIKey(apiKey))
	return &MeiliIndexer{index: client.Index(indexName)}
}

// AddDocuments submits the batch as one add-or-replace call.
func (m *MeiliIndexer) AddDocuments(ctx context.Context, docs []Document) error {
	if _, err := m.index.AddDocumentsWithContext(ctx, docs); err != nil {
		return fmt.Errorf("meilisearch add documents: %w", err)
	}
	return nil
}

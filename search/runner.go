package search

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/raceatlas/raceatlas-api/models"
)

// DefaultLimit bounds a reindex batch when the caller does not supply one.
const DefaultLimit = 100

// How long a single index push may take before it counts as failed.
const pushTimeout = 30 * time.Second

// Indexer pushes documents into the search index, upserting by document ID.
type Indexer interface {
	AddDocuments(ctx context.Context, docs []Document) error
}

// Store is the source-of-truth side of a reindex run: bounded unindexed
// row selection, batched country lookups, and the mark-indexed updates.
type Store interface {
	UnindexedPeople(ctx context.Context, limit int) ([]*models.Person, error)
	UnindexedEvents(ctx context.Context, limit int) ([]*models.Event, error)
	UnindexedOrganizers(ctx context.Context, limit int) ([]*models.Organizer, error)

	CountriesByCode(ctx context.Context, codes []string) (map[string]*models.Country, error)
	CountriesByID(ctx context.Context, ids []int) (map[int]*models.Country, error)

	MarkPeopleIndexed(ctx context.Context, ids []int) error
	MarkEventsIndexed(ctx context.Context, ids []int) error
	MarkOrganizersIndexed(ctx context.Context, ids []int) error
}

// Runner moves unindexed rows into the search index one bounded batch per
// call. A row is marked indexed only after the index push is acknowledged,
// so a failed push leaves it selected for the next run (at-least-once).
// Callers are expected to not run two batches for the same kind
// concurrently.
type Runner struct {
	store     Store
	index     Indexer
	filesBase string
	siteBase  string
	log       *zap.Logger
}

// NewRunner creates a Runner over the given store and indexer.
func NewRunner(store Store, index Indexer, filesBase, siteBase string, log *zap.Logger) *Runner {
	return &Runner{
		store:     store,
		index:     index,
		filesBase: filesBase,
		siteBase:  siteBase,
		log:       log,
	}
}

// IndexPeople indexes up to limit unindexed people and returns the pushed
// documents. Zero rows means no side effects at all.
func (r *Runner) IndexPeople(ctx context.Context, limit int) ([]Document, error) {
	people, err := r.store.UnindexedPeople(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("selecting people: %w", err)
	}
	r.log.Info("search index: selected people", zap.Int("count", len(people)))
	if len(people) == 0 {
		return nil, nil
	}

	codes := make([]string, 0, len(people))
	ids := make([]int, len(people))
	for i, p := range people {
		ids[i] = p.ID
		if p.CountryCode != nil {
			codes = append(codes, *p.CountryCode)
		}
	}

	countries, err := r.store.CountriesByCode(ctx, codes)
	if err != nil {
		return nil, fmt.Errorf("loading countries: %w", err)
	}

	docs := make([]Document, len(people))
	for i, p := range people {
		docs[i] = personDocument(p, countries, r.filesBase)
	}

	if err := r.push(ctx, docs); err != nil {
		return nil, err
	}

	if err := r.store.MarkPeopleIndexed(ctx, ids); err != nil {
		return nil, fmt.Errorf("marking people indexed: %w", err)
	}
	r.log.Info("search index: marked people indexed", zap.Int("count", len(ids)))

	return docs, nil
}

// IndexEvents indexes up to limit unindexed public/canceled events.
func (r *Runner) IndexEvents(ctx context.Context, limit int) ([]Document, error) {
	events, err := r.store.UnindexedEvents(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("selecting events: %w", err)
	}
	r.log.Info("search index: selected events", zap.Int("count", len(events)))
	if len(events) == 0 {
		return nil, nil
	}

	countryIDs := make([]int, 0, len(events))
	ids := make([]int, len(events))
	for i, e := range events {
		ids[i] = e.ID
		countryIDs = append(countryIDs, e.LocationCountryID)
	}

	countries, err := r.store.CountriesByID(ctx, countryIDs)
	if err != nil {
		return nil, fmt.Errorf("loading countries: %w", err)
	}

	docs := make([]Document, len(events))
	for i, e := range events {
		docs[i] = eventDocument(e, countries, r.filesBase)
	}

	if err := r.push(ctx, docs); err != nil {
		return nil, err
	}

	if err := r.store.MarkEventsIndexed(ctx, ids); err != nil {
		return nil, fmt.Errorf("marking events indexed: %w", err)
	}
	r.log.Info("search index: marked events indexed", zap.Int("count", len(ids)))

	return docs, nil
}

// IndexOrganizers indexes up to limit unindexed public/archived organizers.
func (r *Runner) IndexOrganizers(ctx context.Context, limit int) ([]Document, error) {
	organizers, err := r.store.UnindexedOrganizers(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("selecting organizers: %w", err)
	}
	r.log.Info("search index: selected organizers", zap.Int("count", len(organizers)))
	if len(organizers) == 0 {
		return nil, nil
	}

	countryIDs := make([]int, 0, len(organizers))
	ids := make([]int, len(organizers))
	for i, o := range organizers {
		ids[i] = o.ID
		if o.CountryID != nil {
			countryIDs = append(countryIDs, *o.CountryID)
		}
	}

	countries, err := r.store.CountriesByID(ctx, countryIDs)
	if err != nil {
		return nil, fmt.Errorf("loading countries: %w", err)
	}

	docs := make([]Document, len(organizers))
	for i, o := range organizers {
		docs[i] = organizerDocument(o, countries, r.filesBase, r.siteBase)
	}

	if err := r.push(ctx, docs); err != nil {
		return nil, err
	}

	if err := r.store.MarkOrganizersIndexed(ctx, ids); err != nil {
		return nil, fmt.Errorf("marking organizers indexed: %w", err)
	}
	r.log.Info("search index: marked organizers indexed", zap.Int("count", len(ids)))

	return docs, nil
}

// push sends one batch to the index under an explicit timeout. A timeout
// counts as failure, so nothing gets marked indexed.
func (r *Runner) push(ctx context.Context, docs []Document) error {
	ctx, cancel := context.WithTimeout(ctx, pushTimeout)
	defer cancel()

	if err := r.index.AddDocuments(ctx, docs); err != nil {
		return fmt.Errorf("pushing %d documents: %w", len(docs), err)
	}
	r.log.Info("search index: pushed documents", zap.Int("count", len(docs)))
	return nil
}

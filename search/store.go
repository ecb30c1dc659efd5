package search

import (
	"context"

	"github.com/uptrace/bun"

	"github.com/raceatlas/raceatlas-api/models"
)

// BunStore is the database-backed Store.
type BunStore struct {
	db *bun.DB
}

// NewBunStore wraps a bun connection as a reindex Store.
func NewBunStore(db *bun.DB) *BunStore {
	return &BunStore{db: db}
}

// UnindexedPeople selects up to limit people awaiting indexing. Accounts
// with an unverified email change are excluded until the change settles.
func (s *BunStore) UnindexedPeople(ctx context.Context, limit int) ([]*models.Person, error) {
	var people []*models.Person
	err := s.db.NewSelect().
		Model(&people).
		Where("search_indexed = ?", false).
		Where("pending_email IS NULL").
		OrderExpr("id ASC").
		Limit(limit).
		Scan(ctx)
	return people, err
}

// UnindexedEvents selects up to limit public or canceled events awaiting
// indexing.
func (s *BunStore) UnindexedEvents(ctx context.Context, limit int) ([]*models.Event, error) {
	var events []*models.Event
	err := s.db.NewSelect().
		Model(&events).
		Where("search_indexed = ?", false).
		Where("status IN (?)", bun.In([]string{models.EventStatusPublic, models.EventStatusCanceled})).
		OrderExpr("id ASC").
		Limit(limit).
		Scan(ctx)
	return events, err
}

// UnindexedOrganizers selects up to limit public or archived organizers
// awaiting indexing.
func (s *BunStore) UnindexedOrganizers(ctx context.Context, limit int) ([]*models.Organizer, error) {
	var organizers []*models.Organizer
	err := s.db.NewSelect().
		Model(&organizers).
		Where("search_indexed = ?", false).
		Where("status IN (?)", bun.In([]string{models.OrganizerStatusPublic, models.OrganizerStatusArchived})).
		OrderExpr("id ASC").
		Limit(limit).
		Scan(ctx)
	return organizers, err
}

// CountriesByCode loads countries for a set of ISO codes in one query.
func (s *BunStore) CountriesByCode(ctx context.Context, codes []string) (map[string]*models.Country, error) {
	out := map[string]*models.Country{}
	if len(codes) == 0 {
		return out, nil
	}

	var countries []*models.Country
	err := s.db.NewSelect().
		Model(&countries).
		Where("code IN (?)", bun.In(codes)).
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	for _, country := range countries {
		out[country.Code] = country
	}
	return out, nil
}

// CountriesByID loads countries for a set of ids in one query.
func (s *BunStore) CountriesByID(ctx context.Context, ids []int) (map[int]*models.Country, error) {
	out := map[int]*models.Country{}
	if len(ids) == 0 {
		return out, nil
	}

	var countries []*models.Country
	err := s.db.NewSelect().
		Model(&countries).
		Where("id IN (?)", bun.In(ids)).
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	for _, country := range countries {
		out[country.ID] = country
	}
	return out, nil
}

// MarkPeopleIndexed flips search_indexed for the given ids in one update.
func (s *BunStore) MarkPeopleIndexed(ctx context.Context, ids []int) error {
	return s.markIndexed(ctx, (*models.Person)(nil), ids)
}

// MarkEventsIndexed flips search_indexed for the given ids in one update.
func (s *BunStore) MarkEventsIndexed(ctx context.Context, ids []int) error {
	return s.markIndexed(ctx, (*models.Event)(nil), ids)
}

// MarkOrganizersIndexed flips search_indexed for the given ids in one update.
func (s *BunStore) MarkOrganizersIndexed(ctx context.Context, ids []int) error {
	return s.markIndexed(ctx, (*models.Organizer)(nil), ids)
}

func (s *BunStore) markIndexed(ctx context.Context, model interface{}, ids []int) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := s.db.NewUpdate().
		Model(model).
		Set("search_indexed = ?", true).
		Where("id IN (?)", bun.In(ids)).
		Exec(ctx)
	return err
}

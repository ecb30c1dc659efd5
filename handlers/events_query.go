package handlers

import (
	"context"
	"math"
	"time"

	"github.com/uptrace/bun"
)

// eventRow is a flat scan target for the events listing join query.
type eventRow struct {
	ID                  int        `bun:"id"`
	Name                string     `bun:"name"`
	Slug                string     `bun:"slug"`
	Date                time.Time  `bun:"date"`
	DateEnd             *time.Time `bun:"date_end"`
	Links               []byte     `bun:"links"`
	LocationName        string     `bun:"location_name"`
	LocationLocality    string     `bun:"location_locality"`
	LocationCountyState *string    `bun:"location_county_state"`
	CountryName         string     `bun:"country_name"`
	CountryCode         string     `bun:"country_code"`
	CountryCode3        string     `bun:"country_code3"`
}

// pagination carries listing page state derived from the count query.
type pagination struct {
	total   int
	pages   int
	page    int
	perPage int
}

// eventsBaseQuery builds the shared FROM/JOIN/WHERE part of the listing
// query. Every active filter extends the predicate set; nothing here
// mutates the filters.
func (h *Handler) eventsBaseQuery(ctx context.Context, f eventFilters) (*bun.SelectQuery, error) {
	q := h.db.NewSelect().
		TableExpr("event AS e").
		Join("INNER JOIN country AS co ON co.id = e.location_country_id").
		Join("INNER JOIN event_category AS ec ON ec.event_id = e.id").
		Where("e.status = ?", f.status)

	if f.country != "all" {
		q = q.Where("co.code = ?", f.country)
	}

	if f.countyState != "all" {
		q = q.Where("e.location_county_state = ?", f.countyState)
	}

	if f.category != "all" {
		id, err := h.cats.Resolve(ctx, f.category)
		if err != nil {
			return nil, err
		}
		q = q.Where("ec.category_id = ?", id)
	}

	if f.categoryTag != "" {
		q = q.Where("e.category_tags::text ILIKE ?", "%"+f.categoryTag+"%")
	}

	if f.organizerID != 0 {
		q = q.Join("INNER JOIN event_organizer AS eo ON eo.event_id = e.id").
			Where("eo.organizer_id = ?", f.organizerID)
	}

	if f.hasDistance {
		// Interval overlap, inclusive on both bounds: the event's
		// [distance_min, distance_max] must touch [min, max].
		q = q.Where("e.distance_max >= ?", f.distMin).
			Where("e.distance_min <= ?", f.distMax)
	}

	if !f.dateFrom.IsZero() {
		q = q.Where("e.date >= ?", f.dateFrom)
	}
	if !f.dateTo.IsZero() {
		q = q.Where("e.date < ?", f.dateTo)
	}

	if f.q != "" {
		pattern := "%" + f.q + "%"
		q = q.WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("e.name ILIKE ?", pattern).
				WhereOr("e.location_locality ILIKE ?", pattern).
				WhereOr("e.location_name ILIKE ?", pattern)
		})
	}

	if f.featured {
		q = q.Where("e.featured")
	}

	return q, nil
}

// countEvents runs the COUNT(DISTINCT e.id) query for the filter set and
// fills in the pagination totals.
func (h *Handler) countEvents(ctx context.Context, f eventFilters) (pagination, error) {
	pag := pagination{page: f.page, perPage: f.perPage}

	q, err := h.eventsBaseQuery(ctx, f)
	if err != nil {
		return pag, err
	}

	if err := q.ColumnExpr("COUNT(DISTINCT e.id)").Scan(ctx, &pag.total); err != nil {
		return pag, err
	}
	pag.pages = int(math.Ceil(float64(pag.total) / float64(pag.perPage)))

	return pag, nil
}

// queryEvents runs the page query for the filter set.
func (h *Handler) queryEvents(ctx context.Context, f eventFilters) ([]eventRow, error) {
	q, err := h.eventsBaseQuery(ctx, f)
	if err != nil {
		return nil, err
	}

	var rows []eventRow
	err = q.Distinct().
		ColumnExpr("e.id, e.name, e.slug, e.date, e.date_end, e.links").
		ColumnExpr("e.location_name, e.location_locality, e.location_county_state").
		ColumnExpr("co.name AS country_name, co.code AS country_code, co.code3 AS country_code3").
		OrderExpr("e.date ASC, e.id ASC").
		Offset((f.page - 1) * f.perPage).
		Limit(f.perPage).
		Scan(ctx, &rows)
	if err != nil {
		return nil, err
	}

	return rows, nil
}

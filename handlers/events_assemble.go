package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/uptrace/bun"

	"github.com/raceatlas/raceatlas-api/models"
)

// Fallback race duration used for the lifecycle label when no race carries
// a time limit.
const defaultTimeLimit = 2 * time.Hour

// Event lifecycle labels.
const (
	stateUpcoming = "upcoming"
	stateLive     = "live"
	stateFinished = "finished"
)

type countryRef struct {
	Name  string `json:"name"`
	Code  string `json:"code"`
	Code3 string `json:"code3"`
}

type categoryDTO struct {
	ID       int    `json:"id"`
	Slug     string `json:"slug"`
	Name     string `json:"name"`
	Color    string `json:"color"`
	Emoji    string `json:"emoji"`
	Priority int    `json:"priority"`
}

type raceDTO struct {
	ID              int        `json:"id"`
	Name            string     `json:"name"`
	CategoryID      *int       `json:"categoryID,omitempty"`
	Date            *time.Time `json:"date,omitempty"`
	TimeLimit       *int       `json:"timeLimit,omitempty"`
	Distance        float64    `json:"distance"`
	Elevation       *int       `json:"elevation,omitempty"`
	MaxParticipants *int       `json:"maxParticipants,omitempty"`
	Link            *string    `json:"link,omitempty"`
}

type eventListItem struct {
	ID                  int               `json:"id"`
	Name                string            `json:"name"`
	Slug                string            `json:"slug"`
	Date                string            `json:"date"`
	DateEnd             *string           `json:"dateEnd,omitempty"`
	State               string            `json:"state"`
	Links               map[string]string `json:"links"`
	LocationName        string            `json:"locationName"`
	LocationLocality    string            `json:"locationLocality"`
	LocationCountyState *string           `json:"locationCountyState,omitempty"`
	LocationCountry     countryRef        `json:"locationCountry"`
	Categories          []categoryDTO     `json:"categories"`
	Races               []raceDTO         `json:"races"`
}

// categoryJoinRow carries a category plus the event it is attached to.
type categoryJoinRow struct {
	models.Category
	EventID int `bun:"event_id"`
}

// assembleEvents joins child collections onto the page of event rows with
// two batched lookups keyed by the event-id set, then shapes the JSON
// items. edit=true returns raw link URLs instead of redirect URLs.
func (h *Handler) assembleEvents(ctx context.Context, rows []eventRow, edit bool, now time.Time) ([]eventListItem, error) {
	items := make([]eventListItem, 0, len(rows))
	if len(rows) == 0 {
		return items, nil
	}

	ids := make([]int, len(rows))
	for i, row := range rows {
		ids[i] = row.ID
	}

	var races []models.Race
	err := h.db.NewSelect().
		Model(&races).
		Where("event_id IN (?)", bun.In(ids)).
		OrderExpr("distance ASC, id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading races: %w", err)
	}

	var categories []categoryJoinRow
	err = h.db.NewSelect().
		Model((*models.Category)(nil)).
		ColumnExpr("c.id, c.slug, c.name, c.color, c.emoji, c.priority, ec.event_id").
		Join("INNER JOIN event_category AS ec ON ec.category_id = c.id").
		Where("ec.event_id IN (?)", bun.In(ids)).
		OrderExpr("c.priority ASC").
		Scan(ctx, &categories)
	if err != nil {
		return nil, fmt.Errorf("loading categories: %w", err)
	}

	for _, row := range rows {
		item := eventListItem{
			ID:                  row.ID,
			Name:                row.Name,
			Slug:                row.Slug,
			Date:                row.Date.Format("2006-01-02"),
			LocationName:        row.LocationName,
			LocationLocality:    row.LocationLocality,
			LocationCountyState: row.LocationCountyState,
			LocationCountry: countryRef{
				Name:  row.CountryName,
				Code:  row.CountryCode,
				Code3: row.CountryCode3,
			},
			Categories: []categoryDTO{},
			Races:      []raceDTO{},
		}

		if row.DateEnd != nil {
			end := row.DateEnd.Format("2006-01-02")
			item.DateEnd = &end
		}

		item.Links = shapeLinks(row.Links, row.Slug, h.cfg.APIBase, edit)

		var eventRaces []models.Race
		for _, race := range races {
			if race.EventID == row.ID {
				eventRaces = append(eventRaces, race)
				item.Races = append(item.Races, raceDTO{
					ID:              race.ID,
					Name:            race.Name,
					CategoryID:      race.CategoryID,
					Date:            race.Date,
					TimeLimit:       race.TimeLimit,
					Distance:        race.Distance,
					Elevation:       race.Elevation,
					MaxParticipants: race.MaxParticipants,
					Link:            race.Link,
				})
			}
		}

		for _, cat := range categories {
			if cat.EventID == row.ID {
				item.Categories = append(item.Categories, categoryDTO{
					ID:       cat.ID,
					Slug:     cat.Slug,
					Name:     cat.Name,
					Color:    cat.Color,
					Emoji:    cat.Emoji,
					Priority: cat.Priority,
				})
			}
		}

		item.State = eventState(row.Date, eventRaces, now)
		items = append(items, item)
	}

	return items, nil
}

// shapeLinks decodes the stored links JSON map. Outside edit mode, empty
// entries are dropped and the rest are rewritten to redirect URLs keyed by
// event slug and link label.
func shapeLinks(raw []byte, slug, apiBase string, edit bool) map[string]string {
	links := map[string]string{}
	if len(raw) > 0 {
		// Tolerate malformed stored JSON; the response just carries no links.
		_ = json.Unmarshal(raw, &links)
	}

	if edit {
		return links
	}

	shaped := make(map[string]string, len(links))
	for label, target := range links {
		if target == "" {
			continue
		}
		shaped[label] = fmt.Sprintf("%s/events/%s/link/%s", apiBase, url.PathEscape(slug), url.PathEscape(label))
	}
	return shaped
}

// eventState derives the lifecycle label from the earliest race date (or
// the event date when no race has one) relative to now. An event past its
// start stays "live" until the longest race time limit has elapsed, with a
// two hour fallback.
func eventState(eventDate time.Time, races []models.Race, now time.Time) string {
	start := eventDate
	maxLimit := time.Duration(0)

	for _, race := range races {
		if race.Date != nil && race.Date.Before(start) {
			start = *race.Date
		}
		if race.TimeLimit != nil {
			if limit := time.Duration(*race.TimeLimit) * time.Second; limit > maxLimit {
				maxLimit = limit
			}
		}
	}
	if maxLimit == 0 {
		maxLimit = defaultTimeLimit
	}

	diff := start.Sub(now)
	switch {
	case diff > 0:
		return stateUpcoming
	case diff < -maxLimit:
		return stateFinished
	default:
		return stateLive
	}
}

// pageLinks renders the Link header for the listing response. prev is
// omitted on the first page, next/last once the last page is reached.
func pageLinks(path string, params url.Values, pag pagination) string {
	link := func(page int, rel string) string {
		q := url.Values{}
		for key, vals := range params {
			q[key] = vals
		}
		q.Set("page", strconv.Itoa(page))
		q.Set("perPage", strconv.Itoa(pag.perPage))
		return fmt.Sprintf("<%s?%s>; rel=%q", path, q.Encode(), rel)
	}

	parts := []string{link(pag.page, "self")}
	if pag.page > 1 {
		parts = append(parts, link(pag.page-1, "prev"))
	}
	if pag.page < pag.pages {
		parts = append(parts, link(pag.page+1, "next"))
		parts = append(parts, link(pag.pages, "last"))
	}

	return strings.Join(parts, ", ")
}



package handlers

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/raceatlas/raceatlas-api/models"
)

// ListEvents returns a filtered, paginated page of public events with
// nested races and categories.
func (h *Handler) ListEvents(c echo.Context) error {
	ctx := c.Request().Context()
	now := time.Now()
	filters := normalizeEventFilters(c.QueryParams(), now)

	pag, err := h.countEvents(ctx, filters)
	if err != nil {
		if errors.Is(err, ErrUnknownCategory) {
			return echo.NewHTTPError(http.StatusBadRequest, "Not a valid category")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	rows, err := h.queryEvents(ctx, filters)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	events, err := h.assembleEvents(ctx, rows, c.QueryParam("edit") == "1", now)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	header := c.Response().Header()
	header.Set("Cache-Control", "public, max-age=7200")
	header.Set("X-Total", strconv.Itoa(pag.total))
	header.Set("Link", pageLinks("/events", c.QueryParams(), pag))

	return c.JSON(http.StatusOK, events)
}

// GetEvent returns a single event by slug with nested races and categories.
func (h *Handler) GetEvent(c echo.Context) error {
	ctx := c.Request().Context()

	var row eventRow
	err := h.db.NewSelect().
		TableExpr("event AS e").
		Join("INNER JOIN country AS co ON co.id = e.location_country_id").
		ColumnExpr("e.id, e.name, e.slug, e.date, e.date_end, e.links").
		ColumnExpr("e.location_name, e.location_locality, e.location_county_state").
		ColumnExpr("co.name AS country_name, co.code AS country_code, co.code3 AS country_code3").
		Where("e.slug = ?", c.Param("slug")).
		Scan(ctx, &row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return echo.NewHTTPError(http.StatusNotFound, "Event not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	events, err := h.assembleEvents(ctx, []eventRow{row}, c.QueryParam("edit") == "1", time.Now())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	c.Response().Header().Set("Cache-Control", "public, max-age=7200")
	return c.JSON(http.StatusOK, events[0])
}

// EventLink redirects to the stored URL behind an event link label.
func (h *Handler) EventLink(c echo.Context) error {
	var raw []byte
	err := h.db.NewSelect().
		Model((*models.Event)(nil)).
		Column("links").
		Where("slug = ?", c.Param("slug")).
		Scan(c.Request().Context(), &raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return echo.NewHTTPError(http.StatusNotFound, "Event not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	links := shapeLinks(raw, "", "", true)
	target := links[c.Param("label")]
	if target == "" {
		return echo.NewHTTPError(http.StatusNotFound, "Link not found")
	}

	return c.Redirect(http.StatusFound, target)
}

type countyStateCount struct {
	CountyState string `bun:"county_state" json:"countyState"`
	Total       int    `bun:"total" json:"total"`
}

// CountyStates returns grouped county/state counts for public events in a
// country.
func (h *Handler) CountyStates(c echo.Context) error {
	ctx := c.Request().Context()

	var countryID int
	err := h.db.NewSelect().
		Model((*models.Country)(nil)).
		Column("id").
		Where("code = ?", c.Param("country")).
		Scan(ctx, &countryID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return echo.NewHTTPError(http.StatusNotFound, "Country code not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	var counts []countyStateCount
	err = h.db.NewSelect().
		TableExpr("event").
		ColumnExpr("location_county_state AS county_state, COUNT(*) AS total").
		Where("location_country_id = ?", countryID).
		Where("status = ?", models.EventStatusPublic).
		Where("location_county_state IS NOT NULL").
		GroupExpr("location_county_state").
		OrderExpr("location_county_state ASC").
		Scan(ctx, &counts)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, counts)
}

// timelineEvent is the reduced event shape returned by EventTimeline.
type timelineEvent struct {
	ID              int       `bun:"id" json:"id"`
	Name            string    `bun:"name" json:"name"`
	Slug            string    `bun:"slug" json:"slug"`
	Date            time.Time `bun:"date" json:"date"`
	Status          string    `bun:"status" json:"status"`
	PreviousEventID *int      `bun:"previous_event_id" json:"previousEventID,omitempty"`
}

// EventTimeline walks the previous/next edition chain around an event,
// newest first.
func (h *Handler) EventTimeline(c echo.Context) error {
	ctx := c.Request().Context()

	selectOne := func(where string, arg interface{}) (*timelineEvent, error) {
		ev := &timelineEvent{}
		err := h.db.NewSelect().
			TableExpr("event").
			ColumnExpr("id, name, slug, date, status, previous_event_id").
			Where(where, arg).
			Limit(1).
			Scan(ctx, ev)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return ev, err
	}

	current, err := selectOne("slug = ?", c.Param("slug"))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if current == nil {
		return echo.NewHTTPError(http.StatusNotFound, "Event not found")
	}

	events := []*timelineEvent{current}

	// Past editions via the previous_event_id chain.
	for events[len(events)-1].PreviousEventID != nil {
		prev, err := selectOne("id = ?", *events[len(events)-1].PreviousEventID)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		if prev == nil {
			break
		}
		events = append(events, prev)
	}

	// Future editions pointing back at the head.
	for {
		next, err := selectOne("previous_event_id = ?", events[0].ID)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		if next == nil {
			break
		}
		events = append([]*timelineEvent{next}, events...)
	}

	c.Response().Header().Set("Cache-Control", "public, max-age=7200")
	return c.JSON(http.StatusOK, events)
}

package handlers

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/uptrace/bun"

	"github.com/raceatlas/raceatlas-api/models"
)

type racePayload struct {
	ID              int        `json:"id,omitempty"`
	Name            string     `json:"name"`
	CategoryID      *int       `json:"categoryID,omitempty"`
	Date            *time.Time `json:"date,omitempty"`
	TimeLimit       *int       `json:"timeLimit,omitempty"`
	Distance        float64    `json:"distance"`
	Elevation       *int       `json:"elevation,omitempty"`
	MaxParticipants *int       `json:"maxParticipants,omitempty"`
	Link            *string    `json:"link,omitempty"`
}

type eventPayload struct {
	Name                string            `json:"name"`
	Slug                string            `json:"slug"`
	Description         *string           `json:"description,omitempty"`
	Status              string            `json:"status"`
	Featured            bool              `json:"featured"`
	Date                time.Time         `json:"date"`
	DateEnd             *time.Time        `json:"dateEnd,omitempty"`
	Links               map[string]string `json:"links"`
	LocationName        string            `json:"locationName"`
	LocationStreet      string            `json:"locationStreet"`
	LocationLocality    string            `json:"locationLocality"`
	LocationCountyState *string           `json:"locationCountyState,omitempty"`
	LocationCountry     string            `json:"locationCountry"`
	LocationLatLng      *string           `json:"locationLatLng,omitempty"`
	CategoryIDs         []int             `json:"categoryIDs"`
	OrganizerIDs        []int             `json:"organizerIDs"`
	Races               []racePayload     `json:"races"`
}

func (p *eventPayload) validate() error {
	p.Name = strings.TrimSpace(p.Name)
	p.Slug = strings.TrimSpace(strings.ToLower(p.Slug))
	if p.Name == "" {
		return errors.New("name is required")
	}
	if p.Slug == "" {
		return errors.New("slug is required")
	}
	if p.Date.IsZero() {
		return errors.New("date is required")
	}
	switch p.Status {
	case models.EventStatusDraft, models.EventStatusPublic, models.EventStatusCanceled:
	default:
		return fmt.Errorf("invalid status %q", p.Status)
	}
	return nil
}

// CreateEvent inserts a new event with its races and category/organizer
// links in one transaction.
func (h *Handler) CreateEvent(c echo.Context) error {
	var payload eventPayload
	if err := c.Bind(&payload); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := payload.validate(); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	countryID, err := h.countryIDByCode(ctx, payload.LocationCountry)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return echo.NewHTTPError(http.StatusBadRequest, "Not a valid country code")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	links, _ := json.Marshal(payload.Links)
	event := &models.Event{
		Name:                payload.Name,
		Slug:                payload.Slug,
		Description:         payload.Description,
		Status:              payload.Status,
		Featured:            payload.Featured,
		Date:                payload.Date,
		DateEnd:             payload.DateEnd,
		Links:               links,
		LocationName:        payload.LocationName,
		LocationStreet:      payload.LocationStreet,
		LocationLocality:    payload.LocationLocality,
		LocationCountyState: payload.LocationCountyState,
		LocationCountryID:   countryID,
		LocationLatLng:      payload.LocationLatLng,
	}

	tx, err := h.db.BeginTx(ctx, nil)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	defer tx.Rollback()

	if _, err := tx.NewInsert().Model(event).Exec(ctx); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "duplicate key value") {
			return echo.NewHTTPError(http.StatusConflict, "event slug already exists")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if err := h.saveEventChildren(ctx, tx, event.ID, payload, nil); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if err := tx.Commit(); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusCreated, map[string]interface{}{"id": event.ID, "slug": event.Slug})
}

// UpdateEvent updates an event and reconciles its race set: races missing
// from the payload are deleted, the rest upserted. distance_min/distance_max
// and category_tags are recomputed in the same transaction.
func (h *Handler) UpdateEvent(c echo.Context) error {
	var payload eventPayload
	if err := c.Bind(&payload); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := payload.validate(); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()

	event := &models.Event{}
	err := h.db.NewSelect().Model(event).Where("slug = ?", c.Param("slug")).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return echo.NewHTTPError(http.StatusNotFound, "Event not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	countryID, err := h.countryIDByCode(ctx, payload.LocationCountry)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return echo.NewHTTPError(http.StatusBadRequest, "Not a valid country code")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	var existing []models.Race
	if err := h.db.NewSelect().Model(&existing).Where("event_id = ?", event.ID).Scan(ctx); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	links, _ := json.Marshal(payload.Links)

	tx, err := h.db.BeginTx(ctx, nil)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	defer tx.Rollback()

	_, err = tx.NewUpdate().
		Model((*models.Event)(nil)).
		Set("name = ?", payload.Name).
		Set("description = ?", payload.Description).
		Set("status = ?", payload.Status).
		Set("featured = ?", payload.Featured).
		Set("date = ?", payload.Date).
		Set("date_end = ?", payload.DateEnd).
		Set("links = ?", string(links)).
		Set("location_name = ?", payload.LocationName).
		Set("location_street = ?", payload.LocationStreet).
		Set("location_locality = ?", payload.LocationLocality).
		Set("location_county_state = ?", payload.LocationCountyState).
		Set("location_country_id = ?", countryID).
		Set("location_lat_lng = ?", payload.LocationLatLng).
		Where("id = ?", event.ID).
		Exec(ctx)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if err := h.saveEventChildren(ctx, tx, event.ID, payload, existing); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if err := tx.Commit(); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.NoContent(http.StatusNoContent)
}

// saveEventChildren reconciles races and join-table links for an event and
// recomputes the denormalized distance range and category tags. Must run
// inside the caller's transaction.
func (h *Handler) saveEventChildren(ctx context.Context, tx bun.Tx, eventID int, payload eventPayload, existing []models.Race) error {
	keep := map[int]bool{}
	for _, race := range payload.Races {
		if race.ID != 0 {
			keep[race.ID] = true
		}
	}

	// Races removed from the payload are deleted with it.
	for _, race := range existing {
		if !keep[race.ID] {
			if _, err := tx.NewDelete().Model((*models.Race)(nil)).Where("id = ?", race.ID).Exec(ctx); err != nil {
				return fmt.Errorf("deleting race %d: %w", race.ID, err)
			}
		}
	}

	for _, rp := range payload.Races {
		race := &models.Race{
			ID:              rp.ID,
			EventID:         eventID,
			Name:            rp.Name,
			CategoryID:      rp.CategoryID,
			Date:            rp.Date,
			TimeLimit:       rp.TimeLimit,
			Distance:        rp.Distance,
			Elevation:       rp.Elevation,
			MaxParticipants: rp.MaxParticipants,
			Link:            rp.Link,
		}
		if rp.ID == 0 {
			if _, err := tx.NewInsert().Model(race).Exec(ctx); err != nil {
				return fmt.Errorf("inserting race: %w", err)
			}
		} else {
			if _, err := tx.NewUpdate().Model(race).WherePK().Exec(ctx); err != nil {
				return fmt.Errorf("updating race %d: %w", rp.ID, err)
			}
		}
	}

	// Replace join-table links.
	if _, err := tx.NewDelete().Model((*models.EventCategory)(nil)).Where("event_id = ?", eventID).Exec(ctx); err != nil {
		return err
	}
	for _, catID := range payload.CategoryIDs {
		link := &models.EventCategory{EventID: eventID, CategoryID: catID}
		if _, err := tx.NewInsert().Model(link).Exec(ctx); err != nil {
			return fmt.Errorf("linking category %d: %w", catID, err)
		}
	}

	if _, err := tx.NewDelete().Model((*models.EventOrganizer)(nil)).Where("event_id = ?", eventID).Exec(ctx); err != nil {
		return err
	}
	for _, orgID := range payload.OrganizerIDs {
		link := &models.EventOrganizer{EventID: eventID, OrganizerID: orgID}
		if _, err := tx.NewInsert().Model(link).Exec(ctx); err != nil {
			return fmt.Errorf("linking organizer %d: %w", orgID, err)
		}
	}

	// Recompute denormalized fields from the new race/category set.
	distMin, distMax := distanceRange(payload.Races)

	slugs := []string{}
	if len(payload.CategoryIDs) > 0 {
		err := tx.NewSelect().
			Model((*models.Category)(nil)).
			Column("slug").
			Where("id IN (?)", bun.In(payload.CategoryIDs)).
			OrderExpr("slug ASC").
			Scan(ctx, &slugs)
		if err != nil {
			return fmt.Errorf("loading category slugs: %w", err)
		}
	}
	tags, _ := json.Marshal(slugs)

	_, err := tx.NewUpdate().
		Model((*models.Event)(nil)).
		Set("distance_min = ?", distMin).
		Set("distance_max = ?", distMax).
		Set("category_tags = ?", string(tags)).
		Where("id = ?", eventID).
		Exec(ctx)
	return err
}

// distanceRange derives the event's distance interval from its race set.
// No races means a [0, 0] interval.
func distanceRange(races []racePayload) (min, max float64) {
	if len(races) == 0 {
		return 0, 0
	}
	ds := make([]float64, len(races))
	for i, r := range races {
		ds[i] = r.Distance
	}
	sort.Float64s(ds)
	return ds[0], ds[len(ds)-1]
}

func (h *Handler) countryIDByCode(ctx context.Context, code string) (int, error) {
	var id int
	err := h.db.NewSelect().
		Model((*models.Country)(nil)).
		Column("id").
		Where("code = ?", code).
		Scan(ctx, &id)
	return id, err
}

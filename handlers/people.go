package handlers

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/uptrace/bun"

	"github.com/raceatlas/raceatlas-api/models"
	"github.com/raceatlas/raceatlas-api/search"
)

type personProfile struct {
	Handle      string    `json:"handle"`
	Name        string    `json:"name"`
	CountryCode *string   `json:"countryCode,omitempty"`
	Language    string    `json:"language"`
	Bio         string    `json:"bio"`
	URL         string    `json:"url"`
	City        string    `json:"city"`
	CreatedAt   time.Time `json:"createdAt"`
}

// GetPerson returns a person's profile by handle. Email is never exposed.
func (h *Handler) GetPerson(c echo.Context) error {
	person := &models.Person{}
	err := h.db.NewSelect().
		Model(person).
		Where("handle = ?", c.Param("handle")).
		Scan(c.Request().Context())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return echo.NewHTTPError(http.StatusNotFound, "Person not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, personProfile{
		Handle:      person.Handle,
		Name:        person.Name,
		CountryCode: person.CountryCode,
		Language:    person.Language,
		Bio:         person.Bio,
		URL:         person.URL,
		City:        person.City,
		CreatedAt:   person.CreatedAt,
	})
}

type publicProfile struct {
	personProfile
	ID       int    `json:"id"`
	Photo    string `json:"photo"`
	Verified bool   `json:"verified"`
}

// GetPublicProfile returns a person by numeric id or handle, with the
// picture URL falling back to a gravatar derived from the email.
func (h *Handler) GetPublicProfile(c echo.Context) error {
	key := c.Param("id")

	person := &models.Person{}
	q := h.db.NewSelect().Model(person)
	if id, err := strconv.Atoi(key); err == nil {
		q = q.Where("id = ?", id).WhereOr("handle = ?", key)
	} else {
		q = q.Where("handle = ?", key)
	}

	if err := q.Scan(c.Request().Context()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return echo.NewHTTPError(http.StatusNotFound, "Person not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	photo := search.PersonImageURL(person.PictureURL, person.Email, h.cfg.FilesBase, 256)

	return c.JSON(http.StatusOK, publicProfile{
		personProfile: personProfile{
			Handle:      person.Handle,
			Name:        person.Name,
			CountryCode: person.CountryCode,
			Language:    person.Language,
			Bio:         person.Bio,
			URL:         person.URL,
			City:        person.City,
			CreatedAt:   person.CreatedAt,
		},
		ID:       person.ID,
		Photo:    photo,
		Verified: person.Verified,
	})
}

// calendarRow is a flat scan target for the race-calendar join query.
type calendarRow struct {
	ID      int    `bun:"id"`
	Type    string `bun:"type"`
	RaceID  *int   `bun:"race_id"`
	EventID int    `bun:"event_id"`

	EventName                string     `bun:"event_name"`
	EventSlug                string     `bun:"event_slug"`
	EventDate                time.Time  `bun:"event_date"`
	EventDateEnd             *time.Time `bun:"event_date_end"`
	EventLocationName        string     `bun:"event_location_name"`
	EventLocationLocality    string     `bun:"event_location_locality"`
	EventLocationCountyState *string    `bun:"event_location_county_state"`
	EventLocationCountryID   int        `bun:"event_location_country_id"`
}

type calendarEvent struct {
	ID                  int        `json:"id"`
	Name                string     `json:"name"`
	Slug                string     `json:"slug"`
	Date                time.Time  `json:"date"`
	DateEnd             *time.Time `json:"dateEnd,omitempty"`
	LocationName        string     `json:"locationName"`
	LocationLocality    string     `json:"locationLocality"`
	LocationCountyState *string    `json:"locationCountyState,omitempty"`
	LocationCountryID   int        `json:"locationCountryID"`
	CategoryIDs         []int      `json:"categoryIDs"`
	Races               []raceDTO  `json:"races"`
}

type calendarEntry struct {
	ID     int           `json:"id"`
	Type   string        `json:"type"`
	RaceID *int          `json:"raceID,omitempty"`
	Event  calendarEvent `json:"event"`
}

// RaceCalendar returns a person's event participations: upcoming events for
// any participation type, past events only where they went.
func (h *Handler) RaceCalendar(c echo.Context) error {
	ctx := c.Request().Context()

	page := clamp(atoiOr(c.QueryParam("page"), 1), minPage, maxPage)
	perPage := clamp(atoiOr(c.QueryParam("perPage"), defPerPage), minPerPage, maxPerPage)
	order := "DESC"
	if c.QueryParam("order") == "asc" {
		order = "ASC"
	}

	var personID int
	err := h.db.NewSelect().
		Model((*models.Person)(nil)).
		Column("id").
		Where("handle = ?", c.Param("handle")).
		Scan(ctx, &personID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return echo.NewHTTPError(http.StatusNotFound, "Person not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	now := time.Now()
	var rows []calendarRow
	err = h.db.NewSelect().
		TableExpr("event_person AS ep").
		Join("INNER JOIN event AS e ON e.id = ep.event_id").
		ColumnExpr("ep.id, ep.type, ep.race_id, ep.event_id").
		ColumnExpr("e.name AS event_name, e.slug AS event_slug, e.date AS event_date, e.date_end AS event_date_end").
		ColumnExpr("e.location_name AS event_location_name, e.location_locality AS event_location_locality").
		ColumnExpr("e.location_county_state AS event_location_county_state, e.location_country_id AS event_location_country_id").
		Where("ep.person_id = ?", personID).
		WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			// Upcoming events for any participation type, past only when going.
			return q.WhereGroup(" OR ", func(q *bun.SelectQuery) *bun.SelectQuery {
				return q.Where("ep.type IN (?)", bun.In([]string{"going", "interested", "spectator"})).
					Where("e.date > ?", now)
			}).WhereGroup(" OR ", func(q *bun.SelectQuery) *bun.SelectQuery {
				return q.Where("ep.type = ?", "going").
					Where("e.date <= ?", now)
			})
		}).
		OrderExpr("e.date "+order).
		Offset((page-1)*perPage).
		Limit(perPage).
		Scan(ctx, &rows)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	entries := make([]calendarEntry, 0, len(rows))
	if len(rows) == 0 {
		return c.JSON(http.StatusOK, entries)
	}

	ids := make([]int, len(rows))
	for i, row := range rows {
		ids[i] = row.EventID
	}

	var links []models.EventCategory
	if err := h.db.NewSelect().Model(&links).Where("event_id IN (?)", bun.In(ids)).Scan(ctx); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	var races []models.Race
	if err := h.db.NewSelect().Model(&races).Where("event_id IN (?)", bun.In(ids)).Scan(ctx); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	for _, row := range rows {
		event := calendarEvent{
			ID:                  row.EventID,
			Name:                row.EventName,
			Slug:                row.EventSlug,
			Date:                row.EventDate,
			DateEnd:             row.EventDateEnd,
			LocationName:        row.EventLocationName,
			LocationLocality:    row.EventLocationLocality,
			LocationCountyState: row.EventLocationCountyState,
			LocationCountryID:   row.EventLocationCountryID,
			CategoryIDs:         []int{},
			Races:               []raceDTO{},
		}

		for _, link := range links {
			if link.EventID == row.EventID {
				event.CategoryIDs = append(event.CategoryIDs, link.CategoryID)
			}
		}
		for _, race := range races {
			if race.EventID == row.EventID {
				event.Races = append(event.Races, raceDTO{
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

		entries = append(entries, calendarEntry{
			ID:     row.ID,
			Type:   row.Type,
			RaceID: row.RaceID,
			Event:  event,
		})
	}

	return c.JSON(http.StatusOK, entries)
}

package handlers

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/raceatlas/raceatlas-api/models"
)

// ListOrganizers returns all organizers, optionally narrowed by a name
// substring search.
func (h *Handler) ListOrganizers(c echo.Context) error {
	var organizers []models.Organizer
	q := h.db.NewSelect().Model(&organizers).OrderExpr("name ASC")

	if search := c.QueryParam("q"); search != "" {
		q = q.Where("name ILIKE ?", "%"+search+"%")
	}

	if err := q.Scan(c.Request().Context()); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, organizers)
}

// GetOrganizer returns one organizer by slug.
func (h *Handler) GetOrganizer(c echo.Context) error {
	organizer := &models.Organizer{}
	err := h.db.NewSelect().
		Model(organizer).
		Where("slug = ?", c.Param("slug")).
		Scan(c.Request().Context())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return echo.NewHTTPError(http.StatusNotFound, "Organizer not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, organizer)
}

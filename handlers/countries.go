package handlers

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/uptrace/bun"

	"github.com/raceatlas/raceatlas-api/models"
)

// ListCountries returns all countries, optionally narrowed by a q search
// over code, code3, name and capital.
func (h *Handler) ListCountries(c echo.Context) error {
	var countries []models.Country
	q := h.db.NewSelect().Model(&countries).OrderExpr("name ASC")

	if search := c.QueryParam("q"); len(search) > 1 {
		q = q.WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("code ILIKE ?", search).
				WhereOr("code3 ILIKE ?", search).
				WhereOr("name ILIKE ?", search+"%").
				WhereOr("capital ILIKE ?", search+"%")
		})
	}

	if err := q.Scan(c.Request().Context()); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, countries)
}

// GetCountry returns one country by code, code3 or name.
func (h *Handler) GetCountry(c echo.Context) error {
	key := c.Param("code")

	country := &models.Country{}
	err := h.db.NewSelect().
		Model(country).
		Where("code = ?", key).
		WhereOr("code3 = ?", key).
		WhereOr("name = ?", key).
		Scan(c.Request().Context())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return echo.NewHTTPError(http.StatusNotFound, "Country code not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, country)
}

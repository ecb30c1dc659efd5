package handlers

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/raceatlas/raceatlas-api/models"
)

// Categories don't change often, 1 month cache is ok.
const categoryCacheControl = "public, max-age=2628000"

// ListCategories returns all categories ordered by priority.
func (h *Handler) ListCategories(c echo.Context) error {
	var categories []models.Category
	err := h.db.NewSelect().
		Model(&categories).
		OrderExpr("priority ASC, slug ASC").
		Scan(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	c.Response().Header().Set("Cache-Control", categoryCacheControl)
	return c.JSON(http.StatusOK, categories)
}

// GetCategory returns one category by numeric id or slug.
func (h *Handler) GetCategory(c echo.Context) error {
	key := c.Param("category")

	category := &models.Category{}
	q := h.db.NewSelect().Model(category)
	if id, err := strconv.Atoi(key); err == nil {
		q = q.Where("id = ?", id).WhereOr("slug = ?", key)
	} else {
		q = q.Where("slug = ?", key)
	}

	c.Response().Header().Set("Cache-Control", categoryCacheControl)

	if err := q.Scan(c.Request().Context()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return echo.NewHTTPError(http.StatusNotFound, "Category not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, category)
}

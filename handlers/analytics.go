package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"cloud.google.com/go/pubsub"
	"github.com/labstack/echo/v4"

	"go.uber.org/zap"
)

type impressionsMessage struct {
	Events []int `json:"events"`
}

// EventImpressions publishes a batch of viewed event ids to the
// impressions topic. Ids arrive either as a comma-separated query param or
// as a JSON array body.
func (h *Handler) EventImpressions(c echo.Context) error {
	if h.pubsub == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "analytics not configured")
	}

	var ids []int
	switch c.Request().Method {
	case http.MethodGet:
		for _, raw := range strings.Split(c.QueryParam("events"), ",") {
			if id, err := strconv.Atoi(strings.TrimSpace(raw)); err == nil && id > 0 {
				ids = append(ids, id)
			}
		}
	default:
		if err := c.Bind(&ids); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
	}

	if len(ids) == 0 {
		return c.JSON(http.StatusBadRequest, false)
	}

	data, err := json.Marshal(impressionsMessage{Events: ids})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	ctx := c.Request().Context()
	result := h.pubsub.Topic(h.cfg.PubSubTopic).Publish(ctx, &pubsub.Message{Data: data})
	if _, err := result.Get(ctx); err != nil {
		zap.L().Error("publishing impressions failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "publish failed")
	}

	return c.JSON(http.StatusOK, true)
}

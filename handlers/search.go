package handlers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/slack-go/slack"
	"go.uber.org/zap"

	"github.com/raceatlas/raceatlas-api/search"
)

// SearchIndex runs one reindex batch for people, events and organizers and
// reports how many documents each run pushed.
func (h *Handler) SearchIndex(c echo.Context) error {
	ctx := c.Request().Context()

	people, err := h.indexer.IndexPeople(ctx, search.DefaultLimit)
	if err != nil {
		return h.searchIndexFailed(ctx, "people", err)
	}

	events, err := h.indexer.IndexEvents(ctx, search.DefaultLimit)
	if err != nil {
		return h.searchIndexFailed(ctx, "events", err)
	}

	organizers, err := h.indexer.IndexOrganizers(ctx, search.DefaultLimit)
	if err != nil {
		return h.searchIndexFailed(ctx, "organizers", err)
	}

	return c.JSON(http.StatusOK, []string{
		fmt.Sprintf("Sent %d people to search db", len(people)),
		fmt.Sprintf("Sent %d events to search db", len(events)),
		fmt.Sprintf("Sent %d organizers to search db", len(organizers)),
	})
}

// searchIndexFailed logs the failure and posts an advisory Slack message.
// Rows stay unindexed, so the next invocation retries them.
func (h *Handler) searchIndexFailed(ctx context.Context, kind string, err error) error {
	zap.L().Error("search index run failed", zap.String("kind", kind), zap.Error(err))

	if h.cfg.SlackWebhookURL != "" {
		msg := &slack.WebhookMessage{
			Text: fmt.Sprintf("Search index run failed for %s: %v", kind, err),
		}
		if werr := slack.PostWebhookContext(ctx, h.cfg.SlackWebhookURL, msg); werr != nil {
			zap.L().Warn("slack webhook failed", zap.Error(werr))
		}
	}

	return echo.NewHTTPError(http.StatusInternalServerError, fmt.Sprintf("search index run failed for %s", kind))
}

package handlers

import (
	"time"

	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/storage"
	openai "github.com/sashabaranov/go-openai"
	"github.com/uptrace/bun"

	"github.com/raceatlas/raceatlas-api/config"
	"github.com/raceatlas/raceatlas-api/search"
)

// Handler holds shared dependencies used by all route handlers.
type Handler struct {
	db      *bun.DB
	cfg     *config.Config
	cats    *CategoryCache
	indexer *search.Runner

	// Optional external clients – nil when not configured.
	openai  *openai.Client
	storage *storage.Client
	pubsub  *pubsub.Client
}

// New creates a Handler with the given database connection, config and
// optional external clients.
func New(db *bun.DB, cfg *config.Config, indexer *search.Runner, oa *openai.Client, gcs *storage.Client, ps *pubsub.Client) *Handler {
	return &Handler{
		db:      db,
		cfg:     cfg,
		cats:    NewCategoryCache(categoryResolver(db), time.Hour),
		indexer: indexer,
		openai:  oa,
		storage: gcs,
		pubsub:  ps,
	}
}

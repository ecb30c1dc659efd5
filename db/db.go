package db

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"

	"github.com/raceatlas/raceatlas-api/config"
	"github.com/raceatlas/raceatlas-api/models"
)

// Setup opens a PostgreSQL connection using the provided config.
func Setup(cfg *config.Config) *bun.DB {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.PostgresDSN())))
	db := bun.NewDB(sqldb, pgdialect.New())

	if cfg.Debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}

	if err := db.PingContext(context.Background()); err != nil {
		log.Fatal("failed to connect to database:", err)
	}

	return db
}

// CreateTables creates all tables in dependency order.
func CreateTables(ctx context.Context, db *bun.DB) error {
	tables := []interface{}{
		(*models.Country)(nil),
		(*models.Category)(nil),
		(*models.Organizer)(nil),
		(*models.Person)(nil),
		(*models.Event)(nil),
		(*models.Race)(nil),
		(*models.EventCategory)(nil),
		(*models.EventOrganizer)(nil),
		(*models.EventPerson)(nil),
		(*models.CoachAnswer)(nil),
	}

	for _, model := range tables {
		if _, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("creating table for %T: %w", model, err)
		}
	}

	constraints := []string{
		`DO $$ BEGIN IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'event_person_no_dupes') THEN ALTER TABLE event_person ADD CONSTRAINT event_person_no_dupes UNIQUE (event_id, person_id, type); END IF; END $$`,
		`CREATE INDEX IF NOT EXISTS event_status_date_idx ON event (status, date)`,
		`CREATE INDEX IF NOT EXISTS event_search_indexed_idx ON event (search_indexed) WHERE NOT search_indexed`,
		`CREATE INDEX IF NOT EXISTS person_search_indexed_idx ON person (search_indexed) WHERE NOT search_indexed`,
		`CREATE INDEX IF NOT EXISTS organizer_search_indexed_idx ON organizer (search_indexed) WHERE NOT search_indexed`,
		`CREATE INDEX IF NOT EXISTS race_event_id_idx ON race (event_id)`,
	}
	for _, stmt := range constraints {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			log.Printf("constraint: %v", err)
		}
	}

	return nil
}

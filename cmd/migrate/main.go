// cmd/migrate/main.go
// Migrates data from the legacy MySQL database into the local PostgreSQL
// database.
//
// Usage:
//
//	MYSQL_DSN="user:pass@tcp(host:3306)/raceatlas?parseTime=true" \
//	DB_PASS="pgpass" \
//	go run ./cmd/migrate
package main

import (
	"context"
	"database/sql"
	"log"

	_ "github.com/go-sql-driver/mysql"
	"github.com/uptrace/bun"

	"github.com/raceatlas/raceatlas-api/config"
	bundb "github.com/raceatlas/raceatlas-api/db"
	"github.com/raceatlas/raceatlas-api/models"
)

const batchSize = 500

func main() {
	ctx := context.Background()

	cfg := config.Load()

	// --- MySQL ---
	if cfg.MySQLDSN == "" {
		log.Fatal("MYSQL_DSN required, e.g.: user:pass@tcp(host:3306)/raceatlas?parseTime=true")
	}
	myDB, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatalf("open mysql: %v", err)
	}
	defer myDB.Close()
	myDB.SetMaxOpenConns(4)
	if err := myDB.PingContext(ctx); err != nil {
		log.Fatalf("ping mysql: %v", err)
	}
	log.Println("connected to MySQL")

	// --- PostgreSQL ---
	pgDB := bundb.Setup(cfg)
	defer pgDB.Close()
	log.Println("connected to PostgreSQL")

	// Create tables (idempotent)
	if err := bundb.CreateTables(ctx, pgDB); err != nil {
		log.Fatalf("create tables: %v", err)
	}

	// Disable FK enforcement so we can load in bulk without strict ordering
	if _, err := pgDB.ExecContext(ctx, "SET session_replication_role = 'replica'"); err != nil {
		log.Printf("session_replication_role: %v", err)
	}

	migrateCountries(ctx, myDB, pgDB)
	migrateCategories(ctx, myDB, pgDB)
	migrateOrganizers(ctx, myDB, pgDB)
	migratePeople(ctx, myDB, pgDB)
	migrateEvents(ctx, myDB, pgDB)
	migrateRaces(ctx, myDB, pgDB)
	migrateJoins(ctx, myDB, pgDB)

	log.Println("migration done")
}

func migrateCountries(ctx context.Context, myDB *sql.DB, pgDB *bun.DB) {
	rows, err := myDB.QueryContext(ctx,
		"SELECT id, code, code3, name, continent, capital, COALESCE(timezones, '[]') FROM country")
	if err != nil {
		log.Fatalf("query countries: %v", err)
	}
	defer rows.Close()

	var batch []*models.Country
	for rows.Next() {
		c := &models.Country{}
		if err := rows.Scan(&c.ID, &c.Code, &c.Code3, &c.Name, &c.Continent, &c.Capital, &c.Timezones); err != nil {
			log.Fatalf("scan country: %v", err)
		}
		batch = append(batch, c)
	}
	insertBatches(ctx, pgDB, &batch, "countries")
}

func migrateCategories(ctx context.Context, myDB *sql.DB, pgDB *bun.DB) {
	rows, err := myDB.QueryContext(ctx,
		"SELECT id, slug, name, name_short, COALESCE(color, ''), COALESCE(emoji, ''), COALESCE(priority, 0), COALESCE(tags, '[]') FROM category")
	if err != nil {
		log.Fatalf("query categories: %v", err)
	}
	defer rows.Close()

	var batch []*models.Category
	for rows.Next() {
		c := &models.Category{}
		if err := rows.Scan(&c.ID, &c.Slug, &c.Name, &c.NameShort, &c.Color, &c.Emoji, &c.Priority, &c.Tags); err != nil {
			log.Fatalf("scan category: %v", err)
		}
		batch = append(batch, c)
	}
	insertBatches(ctx, pgDB, &batch, "categories")
}

func migrateOrganizers(ctx context.Context, myDB *sql.DB, pgDB *bun.DB) {
	rows, err := myDB.QueryContext(ctx,
		`SELECT id, slug, name, status, country_id, logo_url, COALESCE(verified, 0),
		 COALESCE(upcoming_events_count, 0), COALESCE(search_indexed, 0) FROM organizer`)
	if err != nil {
		log.Fatalf("query organizers: %v", err)
	}
	defer rows.Close()

	var batch []*models.Organizer
	for rows.Next() {
		o := &models.Organizer{}
		if err := rows.Scan(&o.ID, &o.Slug, &o.Name, &o.Status, &o.CountryID, &o.LogoURL,
			&o.Verified, &o.UpcomingEventsCount, &o.SearchIndexed); err != nil {
			log.Fatalf("scan organizer: %v", err)
		}
		batch = append(batch, o)
	}
	insertBatches(ctx, pgDB, &batch, "organizers")
}

func migratePeople(ctx context.Context, myDB *sql.DB, pgDB *bun.DB) {
	// The legacy schema stored bio/url/city inside a meta JSON column and
	// flagged pending email changes with a marker string inside it. Both
	// are unpacked into real columns here.
	rows, err := myDB.QueryContext(ctx,
		`SELECT id, handle, name, email, picture_url, country_code,
		 COALESCE(language, 'en'), COALESCE(visibility, 'public'), COALESCE(verified, 0),
		 COALESCE(followers, 0),
		 COALESCE(JSON_UNQUOTE(JSON_EXTRACT(meta, '$.bio')), ''),
		 COALESCE(JSON_UNQUOTE(JSON_EXTRACT(meta, '$.url')), ''),
		 COALESCE(JSON_UNQUOTE(JSON_EXTRACT(meta, '$.city')), ''),
		 JSON_UNQUOTE(JSON_EXTRACT(meta, '$."new-email"')),
		 created_at, COALESCE(search_indexed, 0)
		 FROM user`)
	if err != nil {
		log.Fatalf("query people: %v", err)
	}
	defer rows.Close()

	var batch []*models.Person
	for rows.Next() {
		p := &models.Person{}
		if err := rows.Scan(&p.ID, &p.Handle, &p.Name, &p.Email, &p.PictureURL, &p.CountryCode,
			&p.Language, &p.Visibility, &p.Verified, &p.Followers,
			&p.Bio, &p.URL, &p.City, &p.PendingEmail, &p.CreatedAt, &p.SearchIndexed); err != nil {
			log.Fatalf("scan person: %v", err)
		}
		batch = append(batch, p)
	}
	insertBatches(ctx, pgDB, &batch, "people")
}

func migrateEvents(ctx context.Context, myDB *sql.DB, pgDB *bun.DB) {
	rows, err := myDB.QueryContext(ctx,
		`SELECT id, name, slug, description, status, COALESCE(featured, 0), date, date_end,
		 COALESCE(links, '{}'), COALESCE(location_name, ''), COALESCE(location_street, ''),
		 COALESCE(location_locality, ''), location_county_state, location_country_id,
		 location_lat_lng, COALESCE(distance_min, 0), COALESCE(distance_max, 0),
		 COALESCE(category_tags, '[]'), COALESCE(stat_views, 0), previous_event_id,
		 COALESCE(search_indexed, 0)
		 FROM event`)
	if err != nil {
		log.Fatalf("query events: %v", err)
	}
	defer rows.Close()

	var batch []*models.Event
	for rows.Next() {
		e := &models.Event{}
		if err := rows.Scan(&e.ID, &e.Name, &e.Slug, &e.Description, &e.Status, &e.Featured,
			&e.Date, &e.DateEnd, &e.Links, &e.LocationName, &e.LocationStreet,
			&e.LocationLocality, &e.LocationCountyState, &e.LocationCountryID,
			&e.LocationLatLng, &e.DistanceMin, &e.DistanceMax, &e.CategoryTags,
			&e.StatViews, &e.PreviousEventID, &e.SearchIndexed); err != nil {
			log.Fatalf("scan event: %v", err)
		}
		batch = append(batch, e)
	}
	insertBatches(ctx, pgDB, &batch, "events")
}

func migrateRaces(ctx context.Context, myDB *sql.DB, pgDB *bun.DB) {
	rows, err := myDB.QueryContext(ctx,
		`SELECT id, event_id, COALESCE(name, ''), category_id, date, time_limit,
		 COALESCE(distance, 0), elevation, max_participants, link FROM race`)
	if err != nil {
		log.Fatalf("query races: %v", err)
	}
	defer rows.Close()

	var batch []*models.Race
	for rows.Next() {
		r := &models.Race{}
		if err := rows.Scan(&r.ID, &r.EventID, &r.Name, &r.CategoryID, &r.Date, &r.TimeLimit,
			&r.Distance, &r.Elevation, &r.MaxParticipants, &r.Link); err != nil {
			log.Fatalf("scan race: %v", err)
		}
		batch = append(batch, r)
	}
	insertBatches(ctx, pgDB, &batch, "races")
}

func migrateJoins(ctx context.Context, myDB *sql.DB, pgDB *bun.DB) {
	ecRows, err := myDB.QueryContext(ctx, "SELECT event_id, category_id FROM event_category")
	if err != nil {
		log.Fatalf("query event_category: %v", err)
	}
	defer ecRows.Close()

	var ecs []*models.EventCategory
	for ecRows.Next() {
		ec := &models.EventCategory{}
		if err := ecRows.Scan(&ec.EventID, &ec.CategoryID); err != nil {
			log.Fatalf("scan event_category: %v", err)
		}
		ecs = append(ecs, ec)
	}
	insertBatches(ctx, pgDB, &ecs, "event categories")

	eoRows, err := myDB.QueryContext(ctx, "SELECT event_id, organizer_id FROM event_organizer")
	if err != nil {
		log.Fatalf("query event_organizer: %v", err)
	}
	defer eoRows.Close()

	var eos []*models.EventOrganizer
	for eoRows.Next() {
		eo := &models.EventOrganizer{}
		if err := eoRows.Scan(&eo.EventID, &eo.OrganizerID); err != nil {
			log.Fatalf("scan event_organizer: %v", err)
		}
		eos = append(eos, eo)
	}
	insertBatches(ctx, pgDB, &eos, "event organizers")

	epRows, err := myDB.QueryContext(ctx,
		"SELECT id, event_id, user_id, type, race_id FROM event_person")
	if err != nil {
		log.Fatalf("query event_person: %v", err)
	}
	defer epRows.Close()

	var eps []*models.EventPerson
	for epRows.Next() {
		ep := &models.EventPerson{}
		if err := epRows.Scan(&ep.ID, &ep.EventID, &ep.PersonID, &ep.Type, &ep.RaceID); err != nil {
			log.Fatalf("scan event_person: %v", err)
		}
		eps = append(eps, ep)
	}
	insertBatches(ctx, pgDB, &eps, "event people")
}

// insertBatches bulk-inserts a slice of models in batchSize chunks,
// skipping rows that already exist.
func insertBatches[T any](ctx context.Context, pgDB *bun.DB, items *[]*T, label string) {
	rows := *items
	for start := 0; start < len(rows); start += batchSize {
		end := start + batchSize
		if end > len(rows) {
			end = len(rows)
		}
		chunk := rows[start:end]
		if _, err := pgDB.NewInsert().Model(&chunk).On("CONFLICT DO NOTHING").Exec(ctx); err != nil {
			log.Fatalf("insert %s: %v", label, err)
		}
	}
	log.Printf("migrated %d %s", len(rows), label)
}

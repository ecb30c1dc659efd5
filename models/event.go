package models

import (
	"encoding/json"
	"time"

	"github.com/uptrace/bun"
)

// Event statuses.
const (
	EventStatusDraft    = "draft"
	EventStatusPublic   = "public"
	EventStatusCanceled = "canceled"
)

// Event is a race event. distance_min/distance_max and category_tags are
// denormalized from the race set and recomputed on every race-set write.
type Event struct {
	bun.BaseModel `bun:"table:event,alias:e"`

	ID                 int             `bun:"id,pk,autoincrement" json:"id"`
	Name               string          `bun:"name,notnull" json:"name"`
	Slug               string          `bun:"slug,notnull,unique" json:"slug"`
	Description        *string         `bun:"description" json:"description,omitempty"`
	Status             string          `bun:"status,notnull,default:'draft'" json:"status"`
	Featured           bool            `bun:"featured,notnull,default:false" json:"featured"`
	Date               time.Time       `bun:"date,notnull" json:"date"`
	DateEnd            *time.Time      `bun:"date_end" json:"dateEnd,omitempty"`
	Links              json.RawMessage `bun:"links,type:jsonb,default:'{}'" json:"links,omitempty"`
	LocationName       string          `bun:"location_name,notnull,default:''" json:"locationName"`
	LocationStreet     string          `bun:"location_street,notnull,default:''" json:"locationStreet,omitempty"`
	LocationLocality   string          `bun:"location_locality,notnull,default:''" json:"locationLocality"`
	LocationCountyState *string        `bun:"location_county_state" json:"locationCountyState,omitempty"`
	LocationCountryID  int             `bun:"location_country_id,notnull" json:"locationCountryID"`
	LocationLatLng     *string         `bun:"location_lat_lng" json:"locationLatLng,omitempty"`
	DistanceMin        float64         `bun:"distance_min,notnull,default:0" json:"distanceMin"`
	DistanceMax        float64         `bun:"distance_max,notnull,default:0" json:"distanceMax"`
	CategoryTags       json.RawMessage `bun:"category_tags,type:jsonb,default:'[]'" json:"categoryTags,omitempty"`
	StatViews          int             `bun:"stat_views,notnull,default:0" json:"statViews"`
	PreviousEventID    *int            `bun:"previous_event_id" json:"previousEventID,omitempty"`
	SearchIndexed      bool            `bun:"search_indexed,notnull,default:false" json:"-"`

	Country *Country `bun:"rel:belongs-to,join:location_country_id=id" json:"-"`
	Races   []*Race  `bun:"rel:has-many,join:id=event_id" json:"-"`
}

// EventCategory links an event to a category.
type EventCategory struct {
	bun.BaseModel `bun:"table:event_category,alias:ec"`

	EventID    int `bun:"event_id,pk" json:"eventID"`
	CategoryID int `bun:"category_id,pk" json:"categoryID"`
}

// EventOrganizer links an event to an organizer.
type EventOrganizer struct {
	bun.BaseModel `bun:"table:event_organizer,alias:eo"`

	EventID     int `bun:"event_id,pk" json:"eventID"`
	OrganizerID int `bun:"organizer_id,pk" json:"organizerID"`
}

// EventPerson records a person's relation to an event (race calendar).
type EventPerson struct {
	bun.BaseModel `bun:"table:event_person,alias:ep"`

	ID       int    `bun:"id,pk,autoincrement" json:"id"`
	EventID  int    `bun:"event_id,notnull" json:"eventID"`
	PersonID int    `bun:"person_id,notnull" json:"personID"`
	Type     string `bun:"type,notnull" json:"type"`
	RaceID   *int   `bun:"race_id" json:"raceID,omitempty"`
}

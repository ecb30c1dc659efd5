package models

import "github.com/uptrace/bun"

// Organizer statuses.
const (
	OrganizerStatusDraft    = "draft"
	OrganizerStatusPublic   = "public"
	OrganizerStatusArchived = "archived"
)

// Organizer is a company or club that runs events.
type Organizer struct {
	bun.BaseModel `bun:"table:organizer,alias:o"`

	ID                  int     `bun:"id,pk,autoincrement" json:"id"`
	Slug                string  `bun:"slug,notnull,unique" json:"slug"`
	Name                string  `bun:"name,notnull" json:"name"`
	Status              string  `bun:"status,notnull,default:'draft'" json:"status"`
	CountryID           *int    `bun:"country_id" json:"countryID,omitempty"`
	LogoURL             *string `bun:"logo_url" json:"logoURL,omitempty"`
	Verified            bool    `bun:"verified,notnull,default:false" json:"verified"`
	UpcomingEventsCount int     `bun:"upcoming_events_count,notnull,default:0" json:"upcomingEventsCount"`
	SearchIndexed       bool    `bun:"search_indexed,notnull,default:false" json:"-"`
}

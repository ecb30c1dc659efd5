package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Race is a single distance/discipline within an event. Races removed from
// an event update payload are deleted with it.
type Race struct {
	bun.BaseModel `bun:"table:race,alias:r"`

	ID              int        `bun:"id,pk,autoincrement" json:"id"`
	EventID         int        `bun:"event_id,notnull" json:"eventID"`
	Name            string     `bun:"name,notnull" json:"name"`
	CategoryID      *int       `bun:"category_id" json:"categoryID,omitempty"`
	Date            *time.Time `bun:"date" json:"date,omitempty"`
	TimeLimit       *int       `bun:"time_limit" json:"timeLimit,omitempty"`
	Distance        float64    `bun:"distance,notnull,default:0" json:"distance"`
	Elevation       *int       `bun:"elevation" json:"elevation,omitempty"`
	MaxParticipants *int       `bun:"max_participants" json:"maxParticipants,omitempty"`
	Link            *string    `bun:"link" json:"link,omitempty"`
}

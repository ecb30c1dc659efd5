package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Person is a registered user. Email is never exposed through the API.
// PendingEmail holds a new address awaiting verification; rows with one set
// are excluded from search indexing.
type Person struct {
	bun.BaseModel `bun:"table:person,alias:p"`

	ID            int       `bun:"id,pk,autoincrement" json:"id"`
	Handle        string    `bun:"handle,notnull,unique" json:"handle"`
	Name          string    `bun:"name,notnull" json:"name"`
	Email         string    `bun:"email,notnull" json:"-"`
	PendingEmail  *string   `bun:"pending_email" json:"-"`
	PictureURL    *string   `bun:"picture_url" json:"-"`
	CountryCode   *string   `bun:"country_code" json:"countryCode,omitempty"`
	Language      string    `bun:"language,notnull,default:'en'" json:"language"`
	Visibility    string    `bun:"visibility,notnull,default:'public'" json:"-"`
	Verified      bool      `bun:"verified,notnull,default:false" json:"verified"`
	Followers     int       `bun:"followers,notnull,default:0" json:"followers"`
	Bio           string    `bun:"bio,notnull,default:''" json:"bio"`
	URL           string    `bun:"url,notnull,default:''" json:"url"`
	City          string    `bun:"city,notnull,default:''" json:"city"`
	CreatedAt     time.Time `bun:"created_at,notnull,default:current_timestamp" json:"createdAt"`
	SearchIndexed bool      `bun:"search_indexed,notnull,default:false" json:"-"`
}

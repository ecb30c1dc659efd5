package models

import (
	"encoding/json"

	"github.com/uptrace/bun"
)

// Category is a read-mostly event/race discipline with display metadata.
type Category struct {
	bun.BaseModel `bun:"table:category,alias:c"`

	ID        int             `bun:"id,pk,autoincrement" json:"id"`
	Slug      string          `bun:"slug,notnull,unique" json:"slug"`
	Name      string          `bun:"name,notnull" json:"name"`
	NameShort *string         `bun:"name_short" json:"nameShort,omitempty"`
	Color     string          `bun:"color,notnull,default:''" json:"color"`
	Emoji     string          `bun:"emoji,notnull,default:''" json:"emoji"`
	Priority  int             `bun:"priority,notnull,default:0" json:"priority"`
	Tags      json.RawMessage `bun:"tags,type:jsonb,default:'[]'" json:"tags,omitempty"`
}

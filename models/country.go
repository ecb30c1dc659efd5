package models

import (
	"encoding/json"

	"github.com/uptrace/bun"
)

// Country reference data, keyed by ISO codes.
type Country struct {
	bun.BaseModel `bun:"table:country,alias:co"`

	ID        int             `bun:"id,pk,autoincrement" json:"-"`
	Code      string          `bun:"code,notnull,unique" json:"code"`
	Code3     string          `bun:"code3,notnull" json:"code3"`
	Name      string          `bun:"name,notnull" json:"name"`
	Continent string          `bun:"continent,notnull,default:''" json:"continent"`
	Capital   string          `bun:"capital,notnull,default:''" json:"capital"`
	Timezones json.RawMessage `bun:"timezones,type:jsonb,default:'[]'" json:"timezones,omitempty"`
}

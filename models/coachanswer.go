package models

import (
	"encoding/json"
	"time"

	"github.com/uptrace/bun"
)

// CoachAnswer logs a question/answer pair from the coach chatbot.
type CoachAnswer struct {
	bun.BaseModel `bun:"table:coach_answer,alias:ca"`

	ID        int             `bun:"id,pk,autoincrement" json:"id"`
	Question  string          `bun:"question,notnull" json:"question"`
	Answer    string          `bun:"answer,notnull" json:"answer"`
	Response  json.RawMessage `bun:"response,type:jsonb" json:"-"`
	IP        string          `bun:"ip,notnull,default:''" json:"-"`
	Referer   string          `bun:"referer,notnull,default:''" json:"-"`
	UserAgent string          `bun:"user_agent,notnull,default:''" json:"-"`
	CreatedAt time.Time       `bun:"created_at,notnull,default:current_timestamp" json:"createdAt"`
}

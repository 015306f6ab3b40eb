package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Skill represents a normalized skill in the matching taxonomy. The
// usage count is denormalized by the ingestion pipeline and read-only
// from the console's point of view.
type Skill struct {
	bun.BaseModel `bun:"table:skills,alias:sk"`

	ID         string    `bun:"id,pk,type:uuid,default:gen_random_uuid()" json:"id"`
	Name       string    `bun:"name,notnull,unique" json:"name"`
	Category   string    `bun:"category" json:"category"`
	UsageCount int       `bun:"usage_count,notnull,default:0" json:"usageCount"`
	CreatedAt  time.Time `bun:"created_at,notnull,default:current_timestamp" json:"createdAt"`
}

package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Job listing statuses.
const (
	JobStatusDraft  = "draft"
	JobStatusOpen   = "open"
	JobStatusClosed = "closed"
)

// Job represents an employer's job posting.
type Job struct {
	bun.BaseModel `bun:"table:jobs,alias:j"`

	ID        string     `bun:"id,pk,type:uuid,default:gen_random_uuid()" json:"id"`
	Title     string     `bun:"title,notnull" json:"title"`
	Company   string     `bun:"company,notnull" json:"company"`
	Location  string     `bun:"location" json:"location"`
	Remote    bool       `bun:"remote,notnull,default:false" json:"remote"`
	SalaryMin int        `bun:"salary_min" json:"salaryMin"`
	SalaryMax int        `bun:"salary_max" json:"salaryMax"`
	Skills    StringList `bun:"skills,type:jsonb,notnull,default:'[]'" json:"skills"` // Required skill names
	Status    string     `bun:"status,notnull,default:'draft'" json:"status"`
	PostedAt  *time.Time `bun:"posted_at" json:"postedAt,omitempty"`
	CreatedAt time.Time  `bun:"created_at,notnull,default:current_timestamp" json:"createdAt"`
	UpdatedAt time.Time  `bun:"updated_at,notnull,default:current_timestamp" json:"updatedAt"`
}

package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Resume processing statuses.
const (
	ResumeStatusUploaded = "uploaded"
	ResumeStatusParsed   = "parsed"
	ResumeStatusFailed   = "failed"
)

// Resume represents an uploaded candidate resume and its parse outcome.
type Resume struct {
	bun.BaseModel `bun:"table:resumes,alias:res"`

	ID        string     `bun:"id,pk,type:uuid,default:gen_random_uuid()" json:"id"`
	UserID    string     `bun:"user_id,notnull,type:uuid" json:"userId"` // FK to users(id)
	Title     string     `bun:"title" json:"title"`
	FileName  string     `bun:"file_name,notnull" json:"fileName"`
	SizeBytes int64      `bun:"size_bytes" json:"sizeBytes"`
	Status    string     `bun:"status,notnull,default:'uploaded'" json:"status"`
	Skills    StringList `bun:"skills,type:jsonb,notnull,default:'[]'" json:"skills"` // Extracted skill names
	CreatedAt time.Time  `bun:"created_at,notnull,default:current_timestamp" json:"createdAt"`
	ParsedAt  *time.Time `bun:"parsed_at" json:"parsedAt,omitempty"`
}

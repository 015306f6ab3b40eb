package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Payment statuses.
const (
	PaymentStatusPending   = "pending"
	PaymentStatusSucceeded = "succeeded"
	PaymentStatusFailed    = "failed"
	PaymentStatusRefunded  = "refunded"
)

// Payment represents a subscription or one-off charge processed by the
// upstream billing provider. Amounts are stored in minor units.
type Payment struct {
	bun.BaseModel `bun:"table:payments,alias:pay"`

	ID          string     `bun:"id,pk,type:uuid,default:gen_random_uuid()" json:"id"`
	UserID      string     `bun:"user_id,notnull,type:uuid" json:"userId"` // FK to users(id)
	AmountCents int64      `bun:"amount_cents,notnull" json:"amountCents"`
	Currency    string     `bun:"currency,notnull,default:'usd'" json:"currency"`
	Provider    string     `bun:"provider,notnull" json:"provider"`
	Reference   string     `bun:"reference,notnull,unique" json:"reference"` // Provider-side charge id
	Status      string     `bun:"status,notnull,default:'pending'" json:"status"`
	CreatedAt   time.Time  `bun:"created_at,notnull,default:current_timestamp" json:"createdAt"`
	RefundedAt  *time.Time `bun:"refunded_at" json:"refundedAt,omitempty"`
}

package models

import "time"

// DuplicateGroup links a duplicate transaction to the one that was kept.
// A transaction can be the duplicate side of at most one group.
type DuplicateGroup struct {
	ID                     int64     `db:"id"`
	KeptTransactionID      string    `db:"kept_transaction_id"`
	DuplicateTransactionID string    `db:"duplicate_transaction_id"`
	Reason                 string    `db:"reason"`
	Confidence             *float64  `db:"confidence"`
	CreatedAt              time.Time `db:"created_at"`
}

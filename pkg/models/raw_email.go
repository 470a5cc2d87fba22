package models

import "time"

// RawEmail is a fetched notification email, stored verbatim. Rows are
// written once per provider message id and never mutated.
type RawEmail struct {
	MessageID string    `db:"message_id"` // opaque provider id, primary key
	From      string    `db:"from_addr"`
	Subject   string    `db:"subject"`
	Date      time.Time `db:"date"` // send time
	BodyText  string    `db:"body_text"`
	BodyHTML  string    `db:"body_html"`
	FetchedAt time.Time `db:"fetched_at"`
}

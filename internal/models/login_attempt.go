package models

import "time"

// LoginAttempt represents a single admin login attempt. Rows are append-only;
// a successful login deletes the attempting IP's history in bulk.
type LoginAttempt struct {
	ID           string    `db:"id"`
	IPAddress    string    `db:"ip_address"`
	AdminName    string    `db:"admin_name"`
	AttemptTime  time.Time `db:"attempt_time"`
	IsSuccessful bool      `db:"is_successful"`
}

package models

import "time"

// Admin represents an administrator account in the admin_auth table.
// Accounts are provisioned out of band; the API only reads them.
type Admin struct {
	ID        string    `db:"id" json:"id"`
	AdminName string    `db:"admin_name" json:"admin_name"`
	Password  string    `db:"password" json:"-"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

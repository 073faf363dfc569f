package models

import "time"

// AdvertisementRequest represents a submitted advertisement request.
// Requests are never updated after creation, only deleted by an admin.
type AdvertisementRequest struct {
	ID          string    `db:"id" json:"id"`
	Email       string    `db:"email" json:"email"`
	Description string    `db:"description" json:"description"`
	Budget      float64   `db:"budget" json:"budget"`
	UserIP      string    `db:"user_ip" json:"user_ip"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

package models

import (
	"time"
)

// User represents the users table in the database. Identity itself is
// issued elsewhere; these rows mirror the JWT subject for foreign keys.
type User struct {
	UserId    int64     `json:"user_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	Status    string    `json:"status,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

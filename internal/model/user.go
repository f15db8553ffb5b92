package model

import "time"

// User is an authenticated dashboard account. CompanyID scopes the
// overlays it creates.
type User struct {
	ID             int       `db:"id"`
	CompanyID      int       `db:"company_id"`
	Email          string    `db:"email"`
	HashedPassword string    `db:"hashed_password"`
	Name           *string   `db:"name"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
}

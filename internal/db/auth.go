package db

import (
	"database/sql"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/medusa-canvas/internal/model"
)

const userColumns = `id, company_id, email, hashed_password, name, created_at, updated_at`

// inserts new user into table, returns new user ID.
func (s *pgStore) CreateUser(companyID int, email, hashedPassword string, name *string) (int, error) {
	const q = `
	INSERT INTO users (company_id, email, hashed_password, name, created_at, updated_at)
	VALUES ($1, $2, $3, $4, now(), now())
	RETURNING id;`
	var newID int
	if err := s.db.QueryRow(q, companyID, email, hashedPassword, name).Scan(&newID); err != nil {
		log.Error().Err(err).Str("email", email).Msg("failed to create user")
		return 0, err
	}
	return newID, nil
}

// fetches user by email. returns ErrNotFound if there is none.
func (s *pgStore) GetUserByEmail(email string) (*model.User, error) {
	var u model.User
	err := s.db.Get(&u, `SELECT `+userColumns+` FROM users WHERE email = $1;`, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		log.Error().Err(err).Msg("failed to get user by email")
		return nil, err
	}
	return &u, nil
}

// fetches a user by ID. returns ErrNotFound if there is none.
func (s *pgStore) GetUserByID(id int) (*model.User, error) {
	var u model.User
	err := s.db.Get(&u, `SELECT `+userColumns+` FROM users WHERE id = $1;`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		log.Error().Err(err).Int("user_id", id).Msg("failed to get user by id")
		return nil, err
	}
	return &u, nil
}

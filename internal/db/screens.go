package db

import (
	"database/sql"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/medusa-canvas/internal/model"
)

const screenColumns = `id, device_id, name, location, width, height, orientation, paired, created_by, created_at, updated_at`

func (s *pgStore) GetScreenByID(id int) (model.Screen, error) {
	var screen model.Screen
	err := s.db.Get(&screen, `SELECT `+screenColumns+` FROM screens WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Screen{}, ErrNotFound
	}
	if err != nil {
		log.Error().Err(err).Int("screen_id", id).Msg("failed to get screen by id")
	}
	return screen, err
}

func (s *pgStore) GetScreenByDeviceID(deviceID string) (model.Screen, error) {
	var screen model.Screen
	err := s.db.Get(&screen, `SELECT `+screenColumns+` FROM screens WHERE device_id = $1`, deviceID)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Screen{}, ErrNotFound
	}
	if err != nil {
		log.Error().Err(err).Str("device_id", deviceID).Msg("failed to get screen by device id")
	}
	return screen, err
}

func (s *pgStore) ListScreensByOwner(userID int) ([]model.Screen, error) {
	screens := []model.Screen{}
	err := s.db.Select(&screens, `SELECT `+screenColumns+` FROM screens WHERE created_by = $1 ORDER BY id`, userID)
	if err != nil {
		log.Error().Err(err).Int("user_id", userID).Msg("failed to list screens")
		return nil, err
	}
	return screens, nil
}

func (s *pgStore) CreateScreen(name string, location *string, width, height int, orientation model.Orientation, createdBy int) (model.Screen, error) {
	var screen model.Screen
	q := `
	INSERT INTO screens (name, location, width, height, orientation, paired, created_by, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, false, $6, now(), now())
	RETURNING ` + screenColumns + `;`
	if err := s.db.Get(&screen, q, name, location, width, height, orientation, createdBy); err != nil {
		log.Error().Err(err).Str("name", name).Msg("failed to create screen")
		return model.Screen{}, err
	}
	return screen, nil
}

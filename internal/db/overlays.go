package db

import (
	"database/sql"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/medusa-canvas/internal/model"
)

const overlayColumns = `id, screen_id, company_id, content_id, name, position_x, position_y, width, height, ` +
	`z_index, opacity, rotation, status, start_time, end_time, created_at, updated_at`

// ListOverlaysByScreen returns overlays in insertion order.
func (s *pgStore) ListOverlaysByScreen(screenID int) ([]model.Overlay, error) {
	overlays := []model.Overlay{}
	err := s.db.Select(&overlays, `SELECT `+overlayColumns+` FROM overlays WHERE screen_id = $1 ORDER BY id`, screenID)
	if err != nil {
		log.Error().Err(err).Int("screen_id", screenID).Msg("failed to list overlays")
		return nil, err
	}
	return overlays, nil
}

func (s *pgStore) GetOverlayByID(id int) (model.Overlay, error) {
	var o model.Overlay
	err := s.db.Get(&o, `SELECT `+overlayColumns+` FROM overlays WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Overlay{}, ErrNotFound
	}
	if err != nil {
		log.Error().Err(err).Int("overlay_id", id).Msg("failed to get overlay")
	}
	return o, err
}

func (s *pgStore) CreateOverlay(o model.Overlay) (model.Overlay, error) {
	var created model.Overlay
	q := `
	INSERT INTO overlays (screen_id, company_id, content_id, name, position_x, position_y, width, height,
		z_index, opacity, rotation, status, start_time, end_time, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, now(), now())
	RETURNING ` + overlayColumns + `;`
	err := s.db.Get(&created, q,
		o.ScreenID, o.CompanyID, o.ContentID, o.Name, o.PositionX, o.PositionY, o.Width, o.Height,
		o.ZIndex, o.Opacity, o.Rotation, o.Status, o.StartTime, o.EndTime)
	if err != nil {
		log.Error().Err(err).Int("screen_id", o.ScreenID).Msg("failed to create overlay")
		return model.Overlay{}, err
	}
	return created, nil
}

// UpdateOverlay applies the non-nil fields of patch and returns the row.
func (s *pgStore) UpdateOverlay(id int, p model.OverlayPatch) (model.Overlay, error) {
	var updated model.Overlay
	q := `
	UPDATE overlays
	SET name = COALESCE($2, name),
	content_id = COALESCE($3, content_id),
	position_x = COALESCE($4, position_x),
	position_y = COALESCE($5, position_y),
	width = COALESCE($6, width),
	height = COALESCE($7, height),
	z_index = COALESCE($8, z_index),
	opacity = COALESCE($9, opacity),
	rotation = COALESCE($10, rotation),
	status = COALESCE($11, status),
	start_time = COALESCE($12, start_time),
	end_time = COALESCE($13, end_time),
	updated_at = now()
	WHERE id = $1
	RETURNING ` + overlayColumns + `;`
	err := s.db.Get(&updated, q, id,
		p.Name, p.ContentID, p.PositionX, p.PositionY, p.Width, p.Height,
		p.ZIndex, p.Opacity, p.Rotation, p.Status, p.StartTime, p.EndTime)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Overlay{}, ErrNotFound
	}
	if err != nil {
		log.Error().Err(err).Int("overlay_id", id).Msg("failed to update overlay")
		return model.Overlay{}, err
	}
	return updated, nil
}

func (s *pgStore) DeleteOverlay(id int) error {
	res, err := s.db.Exec(`DELETE FROM overlays WHERE id = $1`, id)
	if err != nil {
		log.Error().Err(err).Int("overlay_id", id).Msg("failed to delete overlay")
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// exposes a Store interface that is passed to API calls w/ param requirements
package db

import (
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/Nixie-Tech-LLC/medusa-canvas/internal/model"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

type Store interface {
	// user functions
	CreateUser(companyID int, email, hashedPassword string, name *string) (int, error)
	GetUserByEmail(email string) (*model.User, error)
	GetUserByID(id int) (*model.User, error)

	// screen functions
	GetScreenByID(id int) (model.Screen, error)
	GetScreenByDeviceID(deviceID string) (model.Screen, error)
	ListScreensByOwner(userID int) ([]model.Screen, error)
	CreateScreen(name string, location *string, width, height int, orientation model.Orientation, createdBy int) (model.Screen, error)

	// overlay functions
	ListOverlaysByScreen(screenID int) ([]model.Overlay, error)
	GetOverlayByID(id int) (model.Overlay, error)
	CreateOverlay(o model.Overlay) (model.Overlay, error)
	UpdateOverlay(id int, patch model.OverlayPatch) (model.Overlay, error)
	DeleteOverlay(id int) error
}

type pgStore struct {
	db *sqlx.DB
}

// compile-time check that pgStore implements Store
var _ Store = (*pgStore)(nil)

func NewStore(db *sqlx.DB) Store {
	return &pgStore{db: db}
}

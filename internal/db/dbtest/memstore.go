// Package dbtest provides an in-memory db.Store for handler tests.
package dbtest

import (
	"slices"
	"sync"
	"time"

	"github.com/Nixie-Tech-LLC/medusa-canvas/internal/db"
	"github.com/Nixie-Tech-LLC/medusa-canvas/internal/model"
)

type MemStore struct {
	mu       sync.Mutex
	nextID   int
	users    []model.User
	screens  []model.Screen
	overlays []model.Overlay

	// Err, when set, is returned by every call.
	Err error
}

var _ db.Store = (*MemStore)(nil)

func NewMemStore() *MemStore {
	return &MemStore{nextID: 1}
}

func (m *MemStore) id() int {
	id := m.nextID
	m.nextID++
	return id
}

func (m *MemStore) CreateUser(companyID int, email, hashedPassword string, name *string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return 0, m.Err
	}
	now := time.Now()
	u := model.User{ID: m.id(), CompanyID: companyID, Email: email, HashedPassword: hashedPassword, Name: name, CreatedAt: now, UpdatedAt: now}
	m.users = append(m.users, u)
	return u.ID, nil
}

func (m *MemStore) GetUserByEmail(email string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	for _, u := range m.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, db.ErrNotFound
}

func (m *MemStore) GetUserByID(id int) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	for _, u := range m.users {
		if u.ID == id {
			return &u, nil
		}
	}
	return nil, db.ErrNotFound
}

func (m *MemStore) GetScreenByID(id int) (model.Screen, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return model.Screen{}, m.Err
	}
	for _, s := range m.screens {
		if s.ID == id {
			return s, nil
		}
	}
	return model.Screen{}, db.ErrNotFound
}

func (m *MemStore) GetScreenByDeviceID(deviceID string) (model.Screen, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return model.Screen{}, m.Err
	}
	for _, s := range m.screens {
		if s.DeviceID != nil && *s.DeviceID == deviceID {
			return s, nil
		}
	}
	return model.Screen{}, db.ErrNotFound
}

func (m *MemStore) ListScreensByOwner(userID int) ([]model.Screen, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	out := []model.Screen{}
	for _, s := range m.screens {
		if s.CreatedBy == userID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *MemStore) CreateScreen(name string, location *string, width, height int, orientation model.Orientation, createdBy int) (model.Screen, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return model.Screen{}, m.Err
	}
	now := time.Now()
	s := model.Screen{ID: m.id(), Name: name, Location: location, Width: width, Height: height,
		Orientation: orientation, CreatedBy: createdBy, CreatedAt: now, UpdatedAt: now}
	m.screens = append(m.screens, s)
	return s, nil
}

// PairScreen marks a screen as paired with deviceID.
func (m *MemStore) PairScreen(screenID int, deviceID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.screens {
		if m.screens[i].ID == screenID {
			m.screens[i].DeviceID = &deviceID
			m.screens[i].Paired = true
		}
	}
}

// UnpairScreen clears the paired flag but keeps the device id, the state a
// TV is in after being unpaired from the admin side.
func (m *MemStore) UnpairScreen(screenID int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.screens {
		if m.screens[i].ID == screenID {
			m.screens[i].Paired = false
		}
	}
}

func (m *MemStore) ListOverlaysByScreen(screenID int) ([]model.Overlay, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	out := []model.Overlay{}
	for _, o := range m.overlays {
		if o.ScreenID == screenID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (m *MemStore) GetOverlayByID(id int) (model.Overlay, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return model.Overlay{}, m.Err
	}
	for _, o := range m.overlays {
		if o.ID == id {
			return o, nil
		}
	}
	return model.Overlay{}, db.ErrNotFound
}

func (m *MemStore) CreateOverlay(o model.Overlay) (model.Overlay, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return model.Overlay{}, m.Err
	}
	now := time.Now()
	o.ID = m.id()
	o.CreatedAt, o.UpdatedAt = now, now
	m.overlays = append(m.overlays, o)
	return o, nil
}

func (m *MemStore) UpdateOverlay(id int, patch model.OverlayPatch) (model.Overlay, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return model.Overlay{}, m.Err
	}
	for i, o := range m.overlays {
		if o.ID == id {
			m.overlays[i] = o.Apply(patch)
			m.overlays[i].UpdatedAt = time.Now()
			return m.overlays[i], nil
		}
	}
	return model.Overlay{}, db.ErrNotFound
}

func (m *MemStore) DeleteOverlay(id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	n := len(m.overlays)
	m.overlays = slices.DeleteFunc(m.overlays, func(o model.Overlay) bool { return o.ID == id })
	if len(m.overlays) == n {
		return db.ErrNotFound
	}
	return nil
}

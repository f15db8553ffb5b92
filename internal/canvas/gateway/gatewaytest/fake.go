// Package gatewaytest provides an in-memory stand-in for the sync gateway.
package gatewaytest

import (
	"context"
	"slices"
	"sync"

	"github.com/Nixie-Tech-LLC/medusa-canvas/internal/model"
)

// Call records one gateway request.
type Call struct {
	Method    string
	ScreenID  int
	OverlayID int
	Patch     model.OverlayPatch
	Draft     model.Overlay
}

// Fake serves screens and overlays from memory. The *Err fields, when set,
// are returned instead of performing the matching operation.
type Fake struct {
	mu       sync.Mutex
	nextID   int
	screens  []model.Screen
	overlays map[int][]model.Overlay
	calls    []Call

	FetchScreensErr  error
	FetchOverlaysErr error
	CreateErr        error
	UpdateErr        error
	DeleteErr        error

	// BeforeFetch runs inside FetchOverlays before it returns, without the
	// fake's lock held. Tests use it to interleave a second load.
	BeforeFetch func(screenID int)
	// BeforeCreate runs inside CreateOverlay the same way.
	BeforeCreate func(screenID int)
}

func New() *Fake {
	return &Fake{nextID: 1000, overlays: map[int][]model.Overlay{}}
}

// AddScreen registers a screen and its overlays.
func (f *Fake) AddScreen(s model.Screen, overlays ...model.Overlay) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.screens = append(f.screens, s)
	f.overlays[s.ID] = slices.Clone(overlays)
}

// Calls returns every request made so far, optionally filtered by method.
func (f *Fake) Calls(method string) []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	if method == "" {
		return slices.Clone(f.calls)
	}
	var out []Call
	for _, c := range f.calls {
		if c.Method == method {
			out = append(out, c)
		}
	}
	return out
}

// Stored returns the backend-side copy of a screen's overlays.
func (f *Fake) Stored(screenID int) []model.Overlay {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.overlays[screenID])
}

func (f *Fake) record(c Call) {
	f.mu.Lock()
	f.calls = append(f.calls, c)
	f.mu.Unlock()
}

func (f *Fake) FetchScreens(ctx context.Context) ([]model.Screen, error) {
	f.record(Call{Method: "FetchScreens"})
	if f.FetchScreensErr != nil {
		return nil, f.FetchScreensErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.screens), nil
}

func (f *Fake) FetchOverlays(ctx context.Context, screenID int) ([]model.Overlay, error) {
	f.record(Call{Method: "FetchOverlays", ScreenID: screenID})
	if f.BeforeFetch != nil {
		f.BeforeFetch(screenID)
	}
	if f.FetchOverlaysErr != nil {
		return nil, f.FetchOverlaysErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := slices.Clone(f.overlays[screenID])
	if out == nil {
		out = []model.Overlay{}
	}
	return out, nil
}

func (f *Fake) CreateOverlay(ctx context.Context, screenID int, draft model.Overlay) (model.Overlay, error) {
	f.record(Call{Method: "CreateOverlay", ScreenID: screenID, Draft: draft})
	if f.BeforeCreate != nil {
		f.BeforeCreate(screenID)
	}
	if f.CreateErr != nil {
		return model.Overlay{}, f.CreateErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	created := draft
	created.ID = f.nextID
	created.ScreenID = screenID
	f.overlays[screenID] = append(f.overlays[screenID], created)
	return created, nil
}

func (f *Fake) UpdateOverlay(ctx context.Context, screenID, id int, patch model.OverlayPatch) error {
	f.record(Call{Method: "UpdateOverlay", ScreenID: screenID, OverlayID: id, Patch: patch})
	if f.UpdateErr != nil {
		return f.UpdateErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, o := range f.overlays[screenID] {
		if o.ID == id {
			f.overlays[screenID][i] = o.Apply(patch)
		}
	}
	return nil
}

func (f *Fake) DeleteOverlay(ctx context.Context, screenID, id int) error {
	f.record(Call{Method: "DeleteOverlay", ScreenID: screenID, OverlayID: id})
	if f.DeleteErr != nil {
		return f.DeleteErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.overlays[screenID] = slices.DeleteFunc(f.overlays[screenID], func(o model.Overlay) bool { return o.ID == id })
	return nil
}

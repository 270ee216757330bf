package market

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Manager owns the mounted views of the process.
type Manager struct {
	ctx      context.Context
	deps     Deps
	maxViews int

	mu    sync.Mutex
	views map[string]*View
}

// NewManager creates a manager. Views live until removed or until ctx ends.
func NewManager(ctx context.Context, deps Deps, maxViews int) *Manager {
	return &Manager{
		ctx:      ctx,
		deps:     deps,
		maxViews: maxViews,
		views:    make(map[string]*View),
	}
}

// Create builds and mounts a view.
func (m *Manager) Create(opts Options) (*View, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.maxViews > 0 && len(m.views) >= m.maxViews {
		return nil, fmt.Errorf("%w: limit is %d", ErrTooManyViews, m.maxViews)
	}
	v, err := NewView(uuid.NewString(), opts, m.deps)
	if err != nil {
		return nil, err
	}
	if err := v.Mount(m.ctx); err != nil {
		return nil, err
	}
	m.views[v.ID] = v
	return v, nil
}

// Get finds a view by id.
func (m *Manager) Get(id string) (*View, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.views[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrViewNotFound, id)
	}
	return v, nil
}

// Remove unmounts and forgets a view.
func (m *Manager) Remove(id string) error {
	m.mu.Lock()
	v, ok := m.views[id]
	delete(m.views, id)
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrViewNotFound, id)
	}
	v.Unmount()
	return nil
}

// Len is the number of live views.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.views)
}

// Close unmounts every view.
func (m *Manager) Close() {
	m.mu.Lock()
	views := m.views
	m.views = make(map[string]*View)
	m.mu.Unlock()
	for _, v := range views {
		v.Unmount()
	}
	log.Info().Int("views", len(views)).Msg("market views closed")
}

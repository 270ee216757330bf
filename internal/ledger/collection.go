package ledger

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"FinDesk/internal/metrics"
	"FinDesk/internal/recorder"
)

// Entity is a ledger record addressed by id.
type Entity[E any] interface {
	EntityID() int
	WithID(id int) E
}

// Resource is the CRUD surface of one entity kind, scoped per user.
type Resource[E Entity[E]] interface {
	Name() string
	List(ctx context.Context, userID string) ([]E, error)
	Items(userID string) []E
	Create(ctx context.Context, userID string, e E) (E, error)
	Update(ctx context.Context, userID string, id int, e E) (E, error)
	Delete(ctx context.Context, userID string, id int) error
}

// Collection keeps a per-user cache of one resource in front of the backend.
// Creates and updates are applied locally first and rolled back by id when
// the backend refuses them; deletes only touch the cache once the backend
// confirms.
type Collection[E Entity[E], W any] struct {
	name     string
	path     string
	client   *Client
	validate *Validator
	prepare  func(E) E
	toWire   func(E) W
	fromWire func(W) E
	rec      recorder.Recorder
	metrics  *metrics.Metrics

	mu     sync.Mutex
	items  map[string][]E
	tempID int
}

func (c *Collection[E, W]) Name() string { return c.name }

// Items returns the cached entries of a user.
func (c *Collection[E, W]) Items(userID string) []E {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]E(nil), c.items[userID]...)
}

// List refreshes the user's cache from the backend.
func (c *Collection[E, W]) List(ctx context.Context, userID string) ([]E, error) {
	wires, err := listWire[W](ctx, c.client, userID, c.path)
	if err != nil {
		return nil, err
	}
	out := make([]E, len(wires))
	for i, w := range wires {
		out[i] = c.fromWire(w)
	}
	c.mu.Lock()
	c.items[userID] = out
	c.mu.Unlock()
	return append([]E(nil), out...), nil
}

// Create validates e, shows it under a temporary id and submits it.
func (c *Collection[E, W]) Create(ctx context.Context, userID string, e E) (created E, err error) {
	defer func() { c.record(userID, "CREATE", created.EntityID(), err) }()
	if userID == "" {
		return created, ErrMissingUser
	}
	e = c.prepare(e)
	if err := c.validate.Struct(e); err != nil {
		return created, err
	}

	c.mu.Lock()
	c.tempID--
	temp := e.WithID(c.tempID)
	c.items[userID] = append(c.items[userID], temp)
	c.mu.Unlock()

	w, ok, err := createWire(ctx, c.client, userID, c.path, c.toWire(e.WithID(0)))
	if errors.Is(err, ErrUndecodableResponse) {
		// committed upstream; the pending entry stays until a refresh
		// replaces it with the stored one
		log.Warn().Err(err).Str("resource", c.name).Msg("create committed but response unreadable, refreshing")
		c.resync(ctx, userID)
		return temp, nil
	}
	if err != nil {
		c.mu.Lock()
		c.items[userID] = removeID(c.items[userID], temp.EntityID())
		c.mu.Unlock()
		return created, err
	}
	created = temp
	if ok {
		created = c.fromWire(w)
	}
	c.mu.Lock()
	c.items[userID] = replaceID(c.items[userID], temp.EntityID(), created)
	c.mu.Unlock()
	return created, nil
}

// Update validates e, applies it locally and submits it. On failure the
// previous entry is restored.
func (c *Collection[E, W]) Update(ctx context.Context, userID string, id int, e E) (updated E, err error) {
	defer func() { c.record(userID, "UPDATE", id, err) }()
	if userID == "" {
		return updated, ErrMissingUser
	}
	e = c.prepare(e.WithID(id))
	if err := c.validate.Struct(e); err != nil {
		return updated, err
	}

	c.mu.Lock()
	prev, had := findID(c.items[userID], id)
	if had {
		c.items[userID] = replaceID(c.items[userID], id, e)
	}
	c.mu.Unlock()

	w, ok, err := updateWire(ctx, c.client, userID, c.path, id, c.toWire(e))
	if errors.Is(err, ErrUndecodableResponse) {
		log.Warn().Err(err).Str("resource", c.name).Int("id", id).Msg("update committed but response unreadable, refreshing")
		err = nil
		ok = false
		c.resync(ctx, userID)
	}
	if err != nil {
		if had {
			c.mu.Lock()
			c.items[userID] = replaceID(c.items[userID], id, prev)
			c.mu.Unlock()
		}
		return updated, err
	}
	updated = e
	if ok {
		updated = c.fromWire(w)
	}
	c.mu.Lock()
	if _, present := findID(c.items[userID], id); present {
		c.items[userID] = replaceID(c.items[userID], id, updated)
	} else {
		c.items[userID] = append(c.items[userID], updated)
	}
	c.mu.Unlock()
	return updated, nil
}

// Delete removes the entry once the backend confirms.
func (c *Collection[E, W]) Delete(ctx context.Context, userID string, id int) (err error) {
	defer func() { c.record(userID, "DELETE", id, err) }()
	if err := deleteWire(ctx, c.client, userID, c.path, id); err != nil {
		return err
	}
	c.mu.Lock()
	c.items[userID] = removeID(c.items[userID], id)
	c.mu.Unlock()
	return nil
}

// resync replaces the user's cache from the backend. On failure the cache
// is left as it is.
func (c *Collection[E, W]) resync(ctx context.Context, userID string) {
	if _, err := c.List(ctx, userID); err != nil {
		log.Warn().Err(err).Str("resource", c.name).Msg("ledger refresh failed")
	}
}

func (c *Collection[E, W]) record(userID, action string, id int, err error) {
	if errors.Is(err, ErrMissingUser) {
		return
	}
	result := outcome(err)
	c.metrics.LedgerMutation(c.name, action, result)
	evt := &recorder.LedgerEvent{
		UserID:   userID,
		Resource: c.name,
		Action:   action,
		EntityID: id,
		Outcome:  result,
		At:       time.Now(),
	}
	if err != nil {
		evt.Detail = err.Error()
		log.Warn().Err(err).Str("resource", c.name).Str("action", action).Int("id", id).Msg("ledger mutation failed")
	}
	if rerr := c.rec.RecordLedgerEvent(evt); rerr != nil {
		log.Error().Err(rerr).Msg("record ledger event")
	}
}

func findID[E Entity[E]](items []E, id int) (E, bool) {
	for _, it := range items {
		if it.EntityID() == id {
			return it, true
		}
	}
	var zero E
	return zero, false
}

func replaceID[E Entity[E]](items []E, id int, e E) []E {
	out := make([]E, len(items))
	for i, it := range items {
		if it.EntityID() == id {
			out[i] = e
		} else {
			out[i] = it
		}
	}
	return out
}

func removeID[E Entity[E]](items []E, id int) []E {
	out := make([]E, 0, len(items))
	for _, it := range items {
		if it.EntityID() != id {
			out = append(out, it)
		}
	}
	return out
}

package app

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/cipherroom/cipherroom/internal/core"
	"github.com/cipherroom/cipherroom/internal/domain"
)

type connEntry struct {
	Sender core.Sender
	Cancel context.CancelFunc
}

// Registry is the connection registry: it tracks every live connection by
// its process-unique id, whether or not it has joined a room, and holds
// the cancel handle used to tear a connection down.
type Registry struct {
	mu    sync.RWMutex
	conns map[domain.ConnID]*connEntry
}

func NewRegistry() *Registry {
	return &Registry{conns: make(map[domain.ConnID]*connEntry)}
}

func (r *Registry) Bind(id domain.ConnID, sender core.Sender, cancel context.CancelFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[id] = &connEntry{Sender: sender, Cancel: cancel}
	log.Info().Str("module", "app.registry").Str("id", string(id)).Msg("connection bound")
}

func (r *Registry) Unbind(id domain.ConnID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.conns, id)
	log.Info().Str("module", "app.registry").Str("id", string(id)).Msg("connection unbound")
}

func (r *Registry) Get(id domain.ConnID) (core.Sender, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.conns[id]; ok {
		return e.Sender, true
	}
	return nil, false
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

// Cancel tears down a single connection. Safe to call for unknown ids.
func (r *Registry) Cancel(id domain.ConnID) bool {
	r.mu.RLock()
	e, ok := r.conns[id]
	r.mu.RUnlock()
	if !ok {
		return false
	}
	if e.Cancel != nil {
		e.Cancel()
	}
	return true
}

// CancelAll tears down every live connection; used on shutdown. The
// connections' read loops observe the cancellation and run their normal
// disconnect path.
func (r *Registry) CancelAll() {
	r.mu.RLock()
	entries := make([]*connEntry, 0, len(r.conns))
	for _, e := range r.conns {
		entries = append(entries, e)
	}
	r.mu.RUnlock()
	for _, e := range entries {
		if e.Cancel != nil {
			e.Cancel()
		}
	}
	log.Info().Str("module", "app.registry").Int("count", len(entries)).Msg("canceled all connections")
}

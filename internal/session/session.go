// Package session maintains the process-wide cache of live games: one
// Session per game id, checkpointed to the durable store only at floor,
// terminal and connection boundaries.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/gloomdelve/server/internal/config"
	"github.com/gloomdelve/server/internal/game"
	"github.com/gloomdelve/server/internal/logger"
	"github.com/gloomdelve/server/internal/metrics"
	"github.com/gloomdelve/server/internal/protocol"
	"github.com/gloomdelve/server/internal/store"
)

// Transport is the outbound half of a game connection. The session layer
// closes it on eviction and drain; it never reads from it.
type Transport interface {
	Send(msg protocol.Message) error
	Close() error
}

// Session is one cached game and the connection currently driving it.
type Session struct {
	Transport    Transport
	State        *game.State
	Paused       bool
	LastActivity time.Time
}

// Manager owns the id to session map and the idle-eviction sweeper.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	store       *store.Store
	idleTimeout time.Duration
	shutdown    chan struct{}
	done        chan struct{}
}

// NewManager creates a manager and starts its eviction sweeper.
func NewManager(st *store.Store, cfg config.SessionConfig) *Manager {
	m := &Manager{
		sessions:    make(map[string]*Session),
		store:       st,
		idleTimeout: time.Duration(cfg.IdleTimeoutMinutes) * time.Minute,
		shutdown:    make(chan struct{}),
		done:        make(chan struct{}),
	}
	go m.sweepLoop(time.Duration(cfg.SweepIntervalSeconds) * time.Second)
	return m
}

// Register caches a game under its id, replacing any existing session. A
// reconnect therefore displaces the stale socket's session wholesale; the
// displaced transport is closed so its turn loop stops driving the state
// the new connection now owns.
func (m *Manager) Register(id string, t Transport, state *game.State) {
	m.mu.Lock()
	old, existed := m.sessions[id]
	m.sessions[id] = &Session{
		Transport:    t,
		State:        state,
		LastActivity: time.Now(),
	}
	m.mu.Unlock()

	if existed {
		if old.Transport != nil && old.Transport != t {
			old.Transport.Close()
		}
	} else {
		metrics.ActiveSessions.Inc()
	}
	logger.Debug("Session registered", "game", id)
}

// Get returns the session for a game id.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	return s, ok
}

// Update replaces the cached state. Memory only; nothing is persisted.
func (m *Manager) Update(id string, state *game.State) {
	m.mu.Lock()
	if s, ok := m.sessions[id]; ok {
		s.State = state
	}
	m.mu.Unlock()
}

// Activity refreshes the idle-eviction clock.
func (m *Manager) Activity(id string) {
	m.mu.Lock()
	if s, ok := m.sessions[id]; ok {
		s.LastActivity = time.Now()
	}
	m.mu.Unlock()
}

// Pause marks the session exempt from idle eviction.
func (m *Manager) Pause(id string) {
	m.setPaused(id, true)
}

// Resume clears the pause flag and refreshes the activity clock.
func (m *Manager) Resume(id string) {
	m.setPaused(id, false)
}

func (m *Manager) setPaused(id string, paused bool) {
	m.mu.Lock()
	if s, ok := m.sessions[id]; ok {
		s.Paused = paused
		if !paused {
			s.LastActivity = time.Now()
		}
	}
	m.mu.Unlock()
}

// Checkpoint writes the cached state to the durable store.
func (m *Manager) Checkpoint(id string) error {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil
	}

	err := m.store.SaveGame(context.Background(), s.State)
	if err != nil {
		metrics.CheckpointsTotal.WithLabelValues("error").Inc()
		return err
	}
	metrics.CheckpointsTotal.WithLabelValues("ok").Inc()
	return nil
}

// Unregister checkpoints and removes a session. When a transport is given,
// removal only happens if it matches the stored one, so a stale socket's
// close cannot kill a freshly reconnected session.
func (m *Manager) Unregister(id string, t Transport) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if !ok || (t != nil && s.Transport != t) {
		m.mu.Unlock()
		return
	}
	delete(m.sessions, id)
	m.mu.Unlock()

	metrics.ActiveSessions.Dec()
	if err := m.store.SaveGame(context.Background(), s.State); err != nil {
		metrics.CheckpointsTotal.WithLabelValues("error").Inc()
		logger.Error("Checkpoint on unregister failed", "game", id, "error", err)
	} else {
		metrics.CheckpointsTotal.WithLabelValues("ok").Inc()
	}
	logger.Debug("Session unregistered", "game", id)
}

// DrainAll checkpoints every session and closes its transport. Used on
// shutdown; the manager is unusable afterwards.
func (m *Manager) DrainAll() {
	close(m.shutdown)
	<-m.done

	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for id, s := range sessions {
		if err := m.store.SaveGame(context.Background(), s.State); err != nil {
			logger.Error("Checkpoint on drain failed", "game", id, "error", err)
		}
		if s.Transport != nil {
			s.Transport.Close()
		}
		metrics.ActiveSessions.Dec()
	}
	logger.Info("Session cache drained", "count", len(sessions))
}

// sweepLoop evicts unpaused sessions idle past the timeout. An unhealthy
// store does not keep a session alive: evict from memory regardless and log.
func (m *Manager) sweepLoop(interval time.Duration) {
	defer close(m.done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.sweepIdle()
		case <-m.shutdown:
			return
		}
	}
}

func (m *Manager) sweepIdle() {
	cutoff := time.Now().Add(-m.idleTimeout)

	m.mu.Lock()
	var evicted []*Session
	var ids []string
	for id, s := range m.sessions {
		if !s.Paused && s.LastActivity.Before(cutoff) {
			delete(m.sessions, id)
			evicted = append(evicted, s)
			ids = append(ids, id)
		}
	}
	m.mu.Unlock()

	for i, s := range evicted {
		id := ids[i]
		metrics.ActiveSessions.Dec()
		metrics.EvictionsTotal.Inc()
		if err := m.store.SaveGame(context.Background(), s.State); err != nil {
			metrics.CheckpointsTotal.WithLabelValues("error").Inc()
			logger.Error("Checkpoint on idle eviction failed, evicting anyway", "game", id, "error", err)
		} else {
			metrics.CheckpointsTotal.WithLabelValues("ok").Inc()
		}
		if s.Transport != nil {
			s.Transport.Close()
		}
		logger.Info("Idle session evicted", "game", id)
	}
}

package session

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/gloomdelve/server/internal/config"
	"github.com/gloomdelve/server/internal/game"
	"github.com/gloomdelve/server/internal/protocol"
	"github.com/gloomdelve/server/internal/store"
)

// fakeTransport records sends and closes without a real socket.
type fakeTransport struct {
	mu     sync.Mutex
	sent   []protocol.Message
	closed bool
}

func (f *fakeTransport) Send(msg protocol.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, msg)
	return nil
}

func (f *fakeTransport) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeTransport) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func testManager(t *testing.T) (*Manager, *store.Store) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	m := NewManager(st, config.SessionConfig{
		IdleTimeoutMinutes:   5,
		SweepIntervalSeconds: 3600,
	})
	t.Cleanup(func() {
		m.DrainAll()
		st.Close()
	})
	return m, st
}

func testState(id string) *game.State {
	return &game.State{
		ID:         id,
		PlayerName: "Tester",
		Player:     &game.Player{X: 5, Y: 5, HP: 20, MaxHP: 20},
		Map:        game.NewMap(),
		Fog:        game.NewFog(),
		Floor:      1,
		Status:     game.StatusActive,
	}
}

func TestRegisterAndGet(t *testing.T) {
	m, _ := testManager(t)
	tr := &fakeTransport{}

	m.Register("g1", tr, testState("g1"))

	s, ok := m.Get("g1")
	if !ok {
		t.Fatal("registered session not found")
	}
	if s.Transport != tr || s.State.ID != "g1" {
		t.Error("session holds the wrong transport or state")
	}
	if _, ok := m.Get("g2"); ok {
		t.Error("unknown id returned a session")
	}
}

func TestReconnectReplacesTransport(t *testing.T) {
	m, _ := testManager(t)
	stale := &fakeTransport{}
	fresh := &fakeTransport{}

	m.Register("g1", stale, testState("g1"))
	m.Register("g1", fresh, testState("g1"))

	s, _ := m.Get("g1")
	if s.Transport != fresh {
		t.Error("reconnect did not displace the stale transport")
	}
}

func TestReconnectClosesDisplacedTransport(t *testing.T) {
	m, _ := testManager(t)
	stale := &fakeTransport{}
	fresh := &fakeTransport{}

	m.Register("g1", stale, testState("g1"))
	m.Register("g1", fresh, testState("g1"))

	// The displaced connection must be shut down, or its turn loop would
	// keep driving the state the new connection now owns.
	if !stale.isClosed() {
		t.Error("displaced transport left open after reconnect")
	}
	if fresh.isClosed() {
		t.Error("fresh transport closed during its own registration")
	}

	// Re-registering the same transport (an idempotent init) must not
	// close the live connection.
	m.Register("g1", fresh, testState("g1"))
	if fresh.isClosed() {
		t.Error("re-registering the same transport closed it")
	}
}

func TestUnregisterTransportGuard(t *testing.T) {
	m, _ := testManager(t)
	stale := &fakeTransport{}
	fresh := &fakeTransport{}

	m.Register("g1", stale, testState("g1"))
	m.Register("g1", fresh, testState("g1"))

	// The stale socket's teardown must not kill the reconnected session.
	m.Unregister("g1", stale)
	if _, ok := m.Get("g1"); !ok {
		t.Fatal("stale transport's unregister removed the fresh session")
	}

	m.Unregister("g1", fresh)
	if _, ok := m.Get("g1"); ok {
		t.Error("matching transport's unregister left the session behind")
	}
}

func TestUnregisterPersists(t *testing.T) {
	m, st := testManager(t)
	state := testState("g1")
	state.Score = 300

	m.Register("g1", &fakeTransport{}, state)
	m.Unregister("g1", nil)

	got, err := st.LoadGame(context.Background(), "g1")
	if err != nil {
		t.Fatalf("LoadGame after unregister: %v", err)
	}
	if got.Score != 300 {
		t.Errorf("persisted score = %d, want 300", got.Score)
	}
}

func TestCheckpointWritesThrough(t *testing.T) {
	m, st := testManager(t)
	state := testState("g1")
	m.Register("g1", &fakeTransport{}, state)

	state.Floor = 3
	if err := m.Checkpoint("g1"); err != nil {
		t.Fatalf("Checkpoint: %v", err)
	}

	got, err := st.LoadGame(context.Background(), "g1")
	if err != nil {
		t.Fatalf("LoadGame: %v", err)
	}
	if got.Floor != 3 {
		t.Errorf("persisted floor = %d, want 3", got.Floor)
	}

	if err := m.Checkpoint("missing"); err != nil {
		t.Errorf("checkpoint of an unknown id errored: %v", err)
	}
}

func TestSweepEvictsIdleSessions(t *testing.T) {
	m, st := testManager(t)
	tr := &fakeTransport{}
	m.Register("g1", tr, testState("g1"))

	s, _ := m.Get("g1")
	s.LastActivity = time.Now().Add(-10 * time.Minute)

	m.sweepIdle()

	if _, ok := m.Get("g1"); ok {
		t.Fatal("idle session survived the sweep")
	}
	if !tr.isClosed() {
		t.Error("evicted session's transport was not closed")
	}
	if _, err := st.LoadGame(context.Background(), "g1"); err != nil {
		t.Errorf("evicted session was not checkpointed: %v", err)
	}
}

func TestSweepSparesPausedAndActive(t *testing.T) {
	m, _ := testManager(t)
	m.Register("paused", &fakeTransport{}, testState("paused"))
	m.Register("busy", &fakeTransport{}, testState("busy"))

	m.Pause("paused")
	p, _ := m.Get("paused")
	p.LastActivity = time.Now().Add(-10 * time.Minute)

	m.sweepIdle()

	if _, ok := m.Get("paused"); !ok {
		t.Error("paused session was evicted")
	}
	if _, ok := m.Get("busy"); !ok {
		t.Error("recently active session was evicted")
	}
}

func TestResumeRefreshesActivity(t *testing.T) {
	m, _ := testManager(t)
	m.Register("g1", &fakeTransport{}, testState("g1"))

	m.Pause("g1")
	s, _ := m.Get("g1")
	s.LastActivity = time.Now().Add(-10 * time.Minute)
	m.Resume("g1")

	m.sweepIdle()
	if _, ok := m.Get("g1"); !ok {
		t.Error("session evicted immediately after resume")
	}
}

func TestActivityRefreshesClock(t *testing.T) {
	m, _ := testManager(t)
	m.Register("g1", &fakeTransport{}, testState("g1"))

	s, _ := m.Get("g1")
	s.LastActivity = time.Now().Add(-10 * time.Minute)
	m.Activity("g1")

	m.sweepIdle()
	if _, ok := m.Get("g1"); !ok {
		t.Error("session evicted despite fresh activity")
	}
}

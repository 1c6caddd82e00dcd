// Package server exposes the HTTP surface: the WebSocket game endpoint plus
// health, leaderboard and metrics. Each connection gets a read loop, a
// serialised intent processor, and a throttled outbound queue.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/gloomdelve/server/internal/config"
	"github.com/gloomdelve/server/internal/engine"
	"github.com/gloomdelve/server/internal/game"
	"github.com/gloomdelve/server/internal/logger"
	"github.com/gloomdelve/server/internal/metrics"
	"github.com/gloomdelve/server/internal/protocol"
	"github.com/gloomdelve/server/internal/session"
	"github.com/gloomdelve/server/internal/store"
	"github.com/gloomdelve/server/internal/vision"
)

const defaultPlayerName = "Adventurer"

// Server wires the engine, session cache and durable store to HTTP.
type Server struct {
	cfg      *config.ServerConfig
	store    *store.Store
	sessions *session.Manager
	engine   *engine.Engine

	upgrader websocket.Upgrader
	limiter  *ConnLimiter
}

// New creates a server.
func New(cfg *config.ServerConfig, st *store.Store, sessions *session.Manager, eng *engine.Engine) *Server {
	s := &Server{
		cfg:      cfg,
		store:    st,
		sessions: sessions,
		engine:   eng,
		limiter:  NewConnLimiter(cfg.Connections),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return cfg.WebSocket.IsOriginAllowed(r.Header.Get("Origin"), r.Host)
		},
	}
	return s
}

// Handler returns the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)
	mux.HandleFunc("/healthz", s.handleHealthz)
	mux.HandleFunc("/leaderboard", s.handleLeaderboard)
	mux.Handle("/metrics", metrics.Handler())
	return mux
}

// handleWS upgrades the connection and binds it to a game: an existing one
// when the game query parameter names a cached or checkpointed id, a fresh
// run otherwise.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	ip := extractIP(r.RemoteAddr)
	if !s.limiter.TryAcquire(ip) {
		http.Error(w, "too many connections", http.StatusTooManyRequests)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.limiter.Release(ip)
		logger.Debug("Upgrade failed", "ip", ip, "error", err)
		return
	}
	metrics.ConnectionsTotal.Inc()

	cl, st, err := s.attachGame(r, conn)
	if err != nil {
		writeErrorAndClose(conn, err.Error())
		s.limiter.Release(ip)
		return
	}

	s.sessions.Register(st.ID, cl, st)

	// A reconnect simply receives a fresh init; any missed deltas are
	// implicitly folded into the full visible state.
	if err := cl.Send(protocol.InitMessage(vision.Snapshot(st))); err != nil {
		logger.Debug("Init send failed", "game", st.ID, "error", err)
		s.teardown(cl, ip)
		return
	}

	go s.processLoop(cl)
	go func() {
		s.readLoop(cl)
		s.teardown(cl, ip)
	}()
}

// attachGame resolves the connection's query parameters to a game state.
func (s *Server) attachGame(r *http.Request, conn *websocket.Conn) (*client, *game.State, error) {
	q := r.URL.Query()
	gameID := q.Get("game")

	if gameID != "" {
		if sess, ok := s.sessions.Get(gameID); ok {
			return newClient(gameID, conn, s.cfg.Throttle), sess.State, nil
		}
		st, err := s.store.LoadGame(r.Context(), gameID)
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil, fmt.Errorf("unknown game %s", gameID)
		}
		if err != nil {
			logger.Error("Checkpoint load failed", "game", gameID, "error", err)
			return nil, nil, errors.New("game could not be loaded")
		}
		return newClient(gameID, conn, s.cfg.Throttle), st, nil
	}

	name := q.Get("name")
	if name == "" {
		name = defaultPlayerName
	}
	character := game.CharacterKind(q.Get("character"))
	if character == "" {
		character = game.CharacterDwarf
	}
	if !game.ValidCharacter(character) {
		return nil, nil, fmt.Errorf("unknown character %q", character)
	}

	gameID = uuid.NewString()
	st, err := s.engine.NewGame(gameID, name, character)
	if err != nil {
		logger.Error("New game failed", "error", err)
		return nil, nil, errors.New("game could not be created")
	}

	// Initial checkpoint so the id survives an immediate disconnect.
	if err := s.store.SaveGame(r.Context(), st); err != nil {
		logger.Error("Initial checkpoint failed", "game", gameID, "error", err)
	}
	logger.Info("New game started", "game", gameID, "player", name, "character", character)
	return newClient(gameID, conn, s.cfg.Throttle), st, nil
}

// readLoop parses inbound messages until the connection dies. Acks and
// pause/resume are handled inline; turns go through the queue.
func (s *Server) readLoop(cl *client) {
	cl.conn.SetReadLimit(s.cfg.WebSocket.MaxMessageSize)
	for {
		_, data, err := cl.conn.ReadMessage()
		if err != nil {
			return
		}

		in, err := protocol.ParseIntent(data)
		if err != nil {
			cl.Send(protocol.ErrorMessage(err.Error()))
			continue
		}
		metrics.IntentsTotal.WithLabelValues(string(in.Type)).Inc()

		switch in.Type {
		case protocol.IntentAck:
			cl.ack()
		case protocol.IntentPause:
			s.sessions.Pause(cl.gameID)
		case protocol.IntentResume:
			s.sessions.Resume(cl.gameID)
		default:
			cl.enqueue(in)
		}
	}
}

// processLoop runs queued turns strictly one at a time.
func (s *Server) processLoop(cl *client) {
	for {
		select {
		case <-cl.closed:
			return
		case in := <-cl.queue:
			s.processTurn(cl, in)
		}
	}
}

// processTurn applies one move/attack/descend intent to the session's state
// and ships the resulting deltas.
func (s *Server) processTurn(cl *client, in protocol.Intent) {
	sess, ok := s.sessions.Get(cl.gameID)
	if !ok {
		return
	}
	st := sess.State

	var events []protocol.Event
	var deltas []protocol.Delta
	var err error
	switch in.Type {
	case protocol.IntentMove:
		events, deltas, err = s.engine.MoveWithDeltas(st, in.Direction)
	case protocol.IntentAttack:
		events, deltas, err = s.engine.AttackWithDeltas(st)
	case protocol.IntentDescend:
		events, deltas, err = s.engine.DescendWithDeltas(st)
	default:
		return
	}
	if errors.Is(err, engine.ErrNotActive) {
		cl.Send(protocol.ErrorMessage("game is over"))
		return
	}
	if err != nil {
		logger.Error("Turn failed", "game", cl.gameID, "error", err)
		cl.Send(protocol.ErrorMessage("internal error"))
		return
	}

	s.sessions.Activity(cl.gameID)

	if len(deltas) > 0 && !cl.isClosed() {
		if err := cl.Send(protocol.UpdateMessage(deltas)); err != nil {
			logger.Debug("Update send failed", "game", cl.gameID, "error", err)
		}
	}

	s.afterTurn(cl.gameID, st, events, deltas)
}

// afterTurn fires the checkpoint triggers: floor boundaries and terminal
// status. Terminal games also produce their leaderboard record.
func (s *Server) afterTurn(gameID string, st *game.State, events []protocol.Event, deltas []protocol.Delta) {
	terminal := st.Status == game.StatusDead || st.Status == game.StatusWon
	descended := false
	for _, d := range deltas {
		if d.Type == protocol.DeltaNewFloor {
			descended = true
			break
		}
	}
	if !terminal && !descended {
		return
	}

	if err := s.sessions.Checkpoint(gameID); err != nil {
		logger.Error("Checkpoint failed", "game", gameID, "error", err)
	}

	if terminal {
		metrics.GamesFinished.WithLabelValues(string(st.Status)).Inc()
		entry := store.LeaderboardEntry{
			PlayerName: st.PlayerName,
			Score:      st.Score,
			Floor:      st.Floor,
		}
		for _, ev := range events {
			if ev.Type == protocol.EventPlayerDied {
				entry.KilledBy, _ = ev.Data["killedBy"].(string)
				entry.KilledByType, _ = ev.Data["killedByType"].(string)
				entry.KilledByVariant, _ = ev.Data["killedByVariant"].(string)
			}
		}
		if err := s.store.InsertLeaderboard(context.Background(), entry); err != nil {
			logger.Error("Leaderboard insert failed", "game", gameID, "error", err)
		}
		logger.Info("Game finished", "game", gameID, "status", st.Status, "score", st.Score, "floor", st.Floor)
	}
}

// teardown runs once the read loop exits: close, unregister (which
// checkpoints), release the connection slot.
func (s *Server) teardown(cl *client, ip string) {
	cl.Close()
	s.sessions.Unregister(cl.gameID, cl)
	s.limiter.Release(ip)
}

// applyCORS mirrors the upgrade-time origin policy onto the JSON endpoints.
func (s *Server) applyCORS(w http.ResponseWriter, r *http.Request) {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return
	}
	if s.cfg.WebSocket.IsOriginAllowed(origin, r.Host) {
		w.Header().Set("Access-Control-Allow-Origin", origin)
	}
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	s.applyCORS(w, r)
	total, ips := s.limiter.Stats()
	if !s.store.Healthy(r.Context()) {
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(map[string]any{"status": "degraded", "store": "unreachable"})
		return
	}
	json.NewEncoder(w).Encode(map[string]any{
		"status":      "ok",
		"connections": total,
		"ips":         ips,
	})
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	s.applyCORS(w, r)
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}
	entries, err := s.store.TopScores(r.Context(), limit)
	if err != nil {
		logger.Error("Leaderboard query failed", "error", err)
		http.Error(w, "leaderboard unavailable", http.StatusInternalServerError)
		return
	}
	if entries == nil {
		entries = []store.LeaderboardEntry{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(entries)
}

// writeErrorAndClose reports a handshake-level failure on the raw socket.
func writeErrorAndClose(conn *websocket.Conn, msg string) {
	data, _ := json.Marshal(protocol.ErrorMessage(msg))
	conn.WriteMessage(websocket.TextMessage, data)
	conn.Close()
}

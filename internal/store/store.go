// Package store provides SQL-backed persistence for game checkpoints and the
// leaderboard. Gameplay is write-heavy but low-value per-write, so the store
// is only touched at checkpoints: descend, death, win, disconnect, eviction.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/gloomdelve/server/internal/game"
	"github.com/gloomdelve/server/internal/logger"
)

// Store timeouts and retention.
const (
	connectTimeout = 10 * time.Second
	queryTimeout   = 10 * time.Second

	// GameTTL is how long an untouched checkpoint survives before the
	// sweep deletes it.
	GameTTL = 7 * 24 * time.Hour

	ttlSweepInterval = time.Hour
)

// ErrNotFound is returned when a game id has no checkpoint.
var ErrNotFound = errors.New("game not found")

// Store wraps the SQL connection and provides checkpoint operations.
type Store struct {
	db       *sql.DB
	dialect  Dialect
	qb       *QueryBuilder
	shutdown chan struct{}
}

// LeaderboardEntry is one terminal game's durable record.
type LeaderboardEntry struct {
	ID              string    `json:"id"`
	PlayerName      string    `json:"playerName"`
	Score           int       `json:"score"`
	Floor           int       `json:"floor"`
	KilledBy        string    `json:"killedBy,omitempty"`
	KilledByType    string    `json:"killedByType,omitempty"`
	KilledByVariant string    `json:"killedByVariant,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
}

// Open connects to the durable store. A postgres:// URL selects the
// PostgreSQL driver; anything else is treated as a SQLite file path.
func Open(databaseURL string) (*Store, error) {
	var dialect Dialect
	var dsn string
	if strings.HasPrefix(databaseURL, "postgres://") || strings.HasPrefix(databaseURL, "postgresql://") {
		dialect = NewDialect(DialectPostgres)
		dsn = databaseURL
	} else {
		dialect = NewDialect(DialectSQLite)
		dsn = databaseURL
		dir := filepath.Dir(databaseURL)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open(dialect.DriverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to reach database: %w", err)
	}

	for _, stmt := range dialect.InitStatements() {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
	}

	s := &Store{
		db:       db,
		dialect:  dialect,
		qb:       NewQueryBuilder(dialect),
		shutdown: make(chan struct{}),
	}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	go s.ttlSweepLoop()
	return s, nil
}

// Close stops the sweep loop and closes the connection.
func (s *Store) Close() error {
	close(s.shutdown)
	return s.db.Close()
}

// migrate creates the schema if it doesn't exist.
func (s *Store) migrate(ctx context.Context) error {
	ts := s.dialect.TimestampType()
	migrations := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS games (
			id TEXT PRIMARY KEY,
			player_name TEXT NOT NULL,
			floor INTEGER NOT NULL,
			score INTEGER NOT NULL,
			status TEXT NOT NULL,
			state TEXT NOT NULL,
			updated_at %s NOT NULL
		)`, ts),

		`CREATE INDEX IF NOT EXISTS idx_games_updated_at ON games(updated_at)`,

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS leaderboard (
			id TEXT PRIMARY KEY,
			player_name TEXT NOT NULL,
			score INTEGER NOT NULL,
			floor INTEGER NOT NULL,
			killed_by TEXT,
			killed_by_type TEXT,
			killed_by_variant TEXT,
			created_at %s NOT NULL
		)`, ts),

		`CREATE INDEX IF NOT EXISTS idx_leaderboard_score ON leaderboard(score DESC)`,
	}

	for _, m := range migrations {
		if _, err := s.db.ExecContext(ctx, m); err != nil {
			return err
		}
	}
	return nil
}

// SaveGame upserts one checkpoint. The whole state travels as a JSON blob;
// floor, score and status are duplicated as columns for inspection.
func (s *Store) SaveGame(ctx context.Context, st *game.State) error {
	blob, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("failed to encode game state: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := s.qb.Build(`INSERT INTO games (id, player_name, floor, score, status, state, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			player_name = excluded.player_name,
			floor = excluded.floor,
			score = excluded.score,
			status = excluded.status,
			state = excluded.state,
			updated_at = excluded.updated_at`)
	_, err = s.db.ExecContext(ctx, query,
		st.ID, st.PlayerName, st.Floor, st.Score, string(st.Status), string(blob), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to save game %s: %w", st.ID, err)
	}
	return nil
}

// LoadGame retrieves a checkpoint by id.
func (s *Store) LoadGame(ctx context.Context, id string) (*game.State, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var blob string
	query := s.qb.Build(`SELECT state FROM games WHERE id = ?`)
	err := s.db.QueryRowContext(ctx, query, id).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load game %s: %w", id, err)
	}

	var st game.State
	if err := json.Unmarshal([]byte(blob), &st); err != nil {
		return nil, fmt.Errorf("failed to decode game %s: %w", id, err)
	}
	return &st, nil
}

// DeleteGame removes a checkpoint. Missing ids are not an error.
func (s *Store) DeleteGame(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := s.qb.Build(`DELETE FROM games WHERE id = ?`)
	if _, err := s.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("failed to delete game %s: %w", id, err)
	}
	return nil
}

// InsertLeaderboard records one terminal game. Inserts from different
// sessions are independent and may race freely.
func (s *Store) InsertLeaderboard(ctx context.Context, e LeaderboardEntry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := s.qb.Build(`INSERT INTO leaderboard
		(id, player_name, score, floor, killed_by, killed_by_type, killed_by_variant, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err := s.db.ExecContext(ctx, query,
		e.ID, e.PlayerName, e.Score, e.Floor,
		nullable(e.KilledBy), nullable(e.KilledByType), nullable(e.KilledByVariant),
		e.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert leaderboard entry: %w", err)
	}
	return nil
}

// TopScores returns the best terminal games, highest score first.
func (s *Store) TopScores(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := s.qb.Build(`SELECT id, player_name, score, floor,
		killed_by, killed_by_type, killed_by_variant, created_at
		FROM leaderboard ORDER BY score DESC, created_at ASC LIMIT ?`)
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query leaderboard: %w", err)
	}
	defer rows.Close()

	var entries []LeaderboardEntry
	for rows.Next() {
		var e LeaderboardEntry
		var killedBy, killedByType, killedByVariant sql.NullString
		if err := rows.Scan(&e.ID, &e.PlayerName, &e.Score, &e.Floor,
			&killedBy, &killedByType, &killedByVariant, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan leaderboard row: %w", err)
		}
		e.KilledBy = killedBy.String
		e.KilledByType = killedByType.String
		e.KilledByVariant = killedByVariant.String
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Healthy reports whether the store answers a ping.
func (s *Store) Healthy(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	return s.db.PingContext(ctx) == nil
}

// ttlSweepLoop deletes checkpoints older than GameTTL once an hour.
func (s *Store) ttlSweepLoop() {
	ticker := time.NewTicker(ttlSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n, err := s.sweepExpired(context.Background()); err != nil {
				logger.Error("Checkpoint TTL sweep failed", "error", err)
			} else if n > 0 {
				logger.Info("Expired checkpoints removed", "count", n)
			}
		case <-s.shutdown:
			return
		}
	}
}

// sweepExpired removes games untouched for longer than GameTTL.
func (s *Store) sweepExpired(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	cutoff := time.Now().UTC().Add(-GameTTL)
	query := s.qb.Build(`DELETE FROM games WHERE updated_at < ?`)
	result, err := s.db.ExecContext(ctx, query, cutoff)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// nullable maps "" to NULL for optional text columns.
func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}

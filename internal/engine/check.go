package engine

import (
	"errors"
	"fmt"

	"github.com/gloomdelve/server/internal/game"
	"github.com/gloomdelve/server/internal/protocol"
)

// ErrStateCorrupt marks a post-turn state that violates a structural
// invariant. The turn is failed, the caller must not checkpoint, and the
// condition is a programming error rather than a game-rule outcome.
var ErrStateCorrupt = errors.New("game state corrupt")

// verifyTurn checks the structural invariants that must hold at every turn
// boundary. Called only for turns that actually ran.
func verifyTurn(s *game.State, res turnResult) error {
	p := s.Player

	if s.Map.IsWall(p.X, p.Y) {
		return fmt.Errorf("%w: player inside a wall at (%d,%d)", ErrStateCorrupt, p.X, p.Y)
	}
	if p.HP < 0 || p.HP > p.MaxHP {
		return fmt.Errorf("%w: player hp %d outside [0,%d]", ErrStateCorrupt, p.HP, p.MaxHP)
	}
	if p.XP >= p.XPToNextLevel {
		return fmt.Errorf("%w: xp %d not below threshold %d", ErrStateCorrupt, p.XP, p.XPToNextLevel)
	}

	occupied := make(map[game.Point]string, len(s.Enemies))
	for _, e := range s.Enemies {
		if !e.Alive() {
			continue
		}
		if e.HP > e.MaxHP {
			return fmt.Errorf("%w: enemy %s hp %d above max %d", ErrStateCorrupt, e.ID, e.HP, e.MaxHP)
		}
		cell := game.Point{X: e.X, Y: e.Y}
		if cell.X == p.X && cell.Y == p.Y {
			return fmt.Errorf("%w: enemy %s shares the player's cell", ErrStateCorrupt, e.ID)
		}
		if other, taken := occupied[cell]; taken {
			return fmt.Errorf("%w: enemies %s and %s share cell (%d,%d)", ErrStateCorrupt, other, e.ID, cell.X, cell.Y)
		}
		occupied[cell] = e.ID
	}

	died := 0
	for _, ev := range res.events {
		if ev.Type == protocol.EventPlayerDied {
			died++
		}
	}
	if s.Status == game.StatusDead {
		if p.HP > 0 {
			return fmt.Errorf("%w: status dead with hp %d", ErrStateCorrupt, p.HP)
		}
		if died != 1 {
			return fmt.Errorf("%w: status dead with %d player_died events", ErrStateCorrupt, died)
		}
	} else if p.HP <= 0 {
		return fmt.Errorf("%w: hp %d without dead status", ErrStateCorrupt, p.HP)
	}

	return nil
}

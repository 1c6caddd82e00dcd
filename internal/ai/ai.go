// Package ai runs the enemy decision pass that follows every player action
// while the game is active.
package ai

import (
	"fmt"
	"sort"

	"github.com/gloomdelve/server/internal/combat"
	"github.com/gloomdelve/server/internal/game"
	"github.com/gloomdelve/server/internal/path"
	"github.com/gloomdelve/server/internal/protocol"
	"github.com/gloomdelve/server/internal/vision"
)

// pathfindBudget caps pathfinder invocations per tick. Deep floors carry
// dozens of enemies; only the closest few get the expensive movement.
const pathfindBudget = 5

// engageDistance is how far (Manhattan) an enemy may be from the player and
// still take a turn.
const engageDistance = game.VisionRadius + 2

// fleeThreshold is the hp fraction below which a fleeing enemy actually runs.
const fleeThreshold = 0.3

// Tick processes every live enemy once, nearest first. It mutates enemy
// positions, player hp and game status, and returns the events produced.
// Processing stops the moment the player dies.
func Tick(s *game.State) []protocol.Event {
	live := make([]*game.Enemy, 0, len(s.Enemies))
	for _, e := range s.Enemies {
		if e.Alive() {
			live = append(live, e)
		}
	}
	sort.SliceStable(live, func(i, j int) bool {
		return manhattan(live[i], s.Player) < manhattan(live[j], s.Player)
	})

	var events []protocol.Event
	budget := pathfindBudget

	for _, e := range live {
		if manhattan(e, s.Player) > engageDistance {
			continue
		}

		canSee := vision.HasLineOfSight(s.Map, e.X, e.Y, s.Player.X, s.Player.Y)
		if canSee {
			e.LastSeenPlayer = &game.Point{X: s.Player.X, Y: s.Player.Y}
		}

		var dead bool
		switch e.Behavior {
		case game.BehaviorStationary:
			events, dead = maybeAttack(s, e, events)
		case game.BehaviorPatrol:
			if !canSee {
				break
			}
			if adjacent(e, s.Player) {
				events, dead = maybeAttack(s, e, events)
				break
			}
			stepToward(s, e, game.Point{X: s.Player.X, Y: s.Player.Y}, &budget)
		case game.BehaviorFlee:
			if canSee && float64(e.HP) < fleeThreshold*float64(e.MaxHP) {
				stepAway(s, e)
				break
			}
			events, dead = actAggressive(s, e, canSee, &budget, events)
		default: // aggressive
			events, dead = actAggressive(s, e, canSee, &budget, events)
		}

		if dead {
			return events
		}
	}
	return events
}

// actAggressive hunts the player, falling back to the last place it saw
// them. Returns the updated event list and whether the player died.
func actAggressive(s *game.State, e *game.Enemy, canSee bool, budget *int, events []protocol.Event) ([]protocol.Event, bool) {
	var target game.Point
	chasingMemory := false
	switch {
	case canSee:
		target = game.Point{X: s.Player.X, Y: s.Player.Y}
	case e.LastSeenPlayer != nil:
		target = *e.LastSeenPlayer
		chasingMemory = true
	default:
		return events, false
	}

	if adjacent(e, s.Player) {
		return maybeAttack(s, e, events)
	}

	stepToward(s, e, target, budget)

	if chasingMemory && e.X == target.X && e.Y == target.Y && !canSee {
		e.LastSeenPlayer = nil
	}

	if adjacent(e, s.Player) {
		return maybeAttack(s, e, events)
	}
	return events, false
}

// stepToward moves the enemy one cell along a shortest path to the target,
// spending one unit of the tick's pathfinder budget. A drained budget or an
// unreachable target means no movement.
func stepToward(s *game.State, e *game.Enemy, target game.Point, budget *int) {
	if *budget <= 0 {
		return
	}
	*budget--

	next, ok := path.NextStep(s, e.ID, game.Point{X: e.X, Y: e.Y}, target)
	if !ok {
		return
	}
	if occupied(s, e, next) {
		return
	}
	e.X, e.Y = next.X, next.Y
}

// stepAway retreats one cell from the player, preferring the horizontal
// opposite, then the vertical opposite.
func stepAway(s *game.State, e *game.Enemy) {
	dx, dy := 0, 0
	if e.X != s.Player.X {
		if e.X < s.Player.X {
			dx = -1
		} else {
			dx = 1
		}
	}
	if e.Y != s.Player.Y {
		if e.Y < s.Player.Y {
			dy = -1
		} else {
			dy = 1
		}
	}

	for _, cand := range []game.Point{{X: e.X + dx, Y: e.Y}, {X: e.X, Y: e.Y + dy}} {
		if cand == (game.Point{X: e.X, Y: e.Y}) {
			continue
		}
		if !s.Map.InBounds(cand.X, cand.Y) || s.Map.At(cand.X, cand.Y).BlocksMovement() {
			continue
		}
		if occupied(s, e, cand) {
			continue
		}
		e.X, e.Y = cand.X, cand.Y
		return
	}
}

// occupied reports whether another live enemy or the player holds the cell.
func occupied(s *game.State, e *game.Enemy, p game.Point) bool {
	if s.Player.X == p.X && s.Player.Y == p.Y {
		return true
	}
	if other := s.EnemyAt(p.X, p.Y); other != nil && other.ID != e.ID {
		return true
	}
	return false
}

// maybeAttack strikes the player if adjacent. Returns the updated events and
// whether the blow was fatal.
func maybeAttack(s *game.State, e *game.Enemy, events []protocol.Event) ([]protocol.Event, bool) {
	if !adjacent(e, s.Player) {
		return events, false
	}

	dmg := combat.MeleeDamage(e.Attack, s.Player.Defense)
	s.Player.HP -= dmg
	if s.Player.HP < 0 {
		s.Player.HP = 0
	}

	events = append(events, protocol.NewEvent(protocol.EventPlayerDamaged,
		fmt.Sprintf("%s hits you for %d damage", e.DisplayName, dmg),
		map[string]any{"enemyId": e.ID, "damage": dmg, "hp": s.Player.HP}))

	if s.Player.HP <= 0 {
		s.Status = game.StatusDead
		events = append(events, protocol.NewEvent(protocol.EventPlayerDied,
			fmt.Sprintf("Slain by %s", e.DisplayName),
			map[string]any{
				"killedBy":        e.DisplayName,
				"killedByType":    string(e.Type),
				"killedByVariant": string(e.Variant),
			}))
		return events, true
	}
	return events, false
}

func adjacent(e *game.Enemy, p *game.Player) bool {
	return absInt(e.X-p.X)+absInt(e.Y-p.Y) == 1
}

func manhattan(e *game.Enemy, p *game.Player) int {
	return absInt(e.X-p.X) + absInt(e.Y-p.Y)
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// Package path provides the bounded breadth-first pathfinder used by enemy
// movement.
package path

import "github.com/gloomdelve/server/internal/game"

// MaxDistance is the longest path the finder will explore. Anything farther
// is treated as unreachable so a single turn cannot flood the whole grid.
const MaxDistance = 20

// visitCap bounds total explored cells regardless of distance.
const visitCap = game.MapWidth * game.MapHeight

// Neighbor expansion order: up, down, left, right. Ties in BFS resolve in
// this order, which keeps enemy movement deterministic for a fixed state.
var neighborOffsets = [4]game.Point{
	{X: 0, Y: -1},
	{X: 0, Y: 1},
	{X: -1, Y: 0},
	{X: 1, Y: 0},
}

// NextStep runs a breadth-first search from `from` toward `to` and returns
// the first step along a shortest path. The walker identified by walkerID
// may not pass through walls, live enemies, or the player's cell; the
// target cell itself is always enterable so a path can terminate adjacent
// to (or on) its goal.
//
// The second return is false when no path within MaxDistance exists.
func NextStep(s *game.State, walkerID string, from, to game.Point) (game.Point, bool) {
	if from == to {
		return from, false
	}

	type node struct {
		at   game.Point
		dist int
	}

	prev := make(map[game.Point]game.Point, 64)
	seen := make(map[game.Point]bool, 64)
	seen[from] = true

	queue := []node{{at: from}}
	visited := 0

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		visited++
		if visited > visitCap {
			break
		}
		if cur.dist >= MaxDistance {
			continue
		}

		for _, off := range neighborOffsets {
			next := game.Point{X: cur.at.X + off.X, Y: cur.at.Y + off.Y}
			if seen[next] {
				continue
			}
			if next != to && !traversable(s, walkerID, next) {
				continue
			}
			seen[next] = true
			prev[next] = cur.at

			if next == to {
				return firstStep(prev, from, to), true
			}
			queue = append(queue, node{at: next, dist: cur.dist + 1})
		}
	}
	return from, false
}

// traversable reports whether the walker may occupy the cell.
func traversable(s *game.State, walkerID string, p game.Point) bool {
	if !s.Map.InBounds(p.X, p.Y) {
		return false
	}
	if s.Map.At(p.X, p.Y).BlocksMovement() {
		return false
	}
	if s.Player != nil && p.X == s.Player.X && p.Y == s.Player.Y {
		return false
	}
	if e := s.EnemyAt(p.X, p.Y); e != nil && e.ID != walkerID {
		return false
	}
	return true
}

// firstStep walks the predecessor chain back from the target to the cell
// adjacent to the start.
func firstStep(prev map[game.Point]game.Point, from, to game.Point) game.Point {
	step := to
	for prev[step] != from {
		step = prev[step]
	}
	return step
}

// Package vision implements fog-of-war: the permanent fog reveal around the
// player, Bresenham line-of-sight, and the filtered snapshot a client is
// allowed to see.
package vision

import "github.com/gloomdelve/server/internal/game"

// losIterationCap bounds the Bresenham walk; no straight line inside the
// grid needs more steps than width plus height.
const losIterationCap = game.MapWidth + game.MapHeight

// HasLineOfSight walks a Bresenham line from (x1, y1) to (x2, y2) and
// reports whether no sight-blocking tile sits strictly between them. The
// start cell never blocks; the destination cell is visible even when it is
// itself a wall. Same start and end is trivially true.
func HasLineOfSight(m game.Map, x1, y1, x2, y2 int) bool {
	if x1 == x2 && y1 == y2 {
		return true
	}

	dx := abs(x2 - x1)
	dy := abs(y2 - y1)
	sx := 1
	if x1 > x2 {
		sx = -1
	}
	sy := 1
	if y1 > y2 {
		sy = -1
	}
	err := dx - dy

	x, y := x1, y1
	for i := 0; i < losIterationCap; i++ {
		if x == x2 && y == y2 {
			return true
		}
		if (x != x1 || y != y1) && blocksSight(m, x, y) {
			return false
		}

		px, py := x, y
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x += sx
		}
		if e2 < dx {
			err += dx
			y += sy
		}
		// A step that moves neither coordinate would loop forever.
		if x == px && y == py {
			return false
		}
	}
	return false
}

func blocksSight(m game.Map, x, y int) bool {
	if !m.InBounds(x, y) {
		return true
	}
	return m.At(x, y).BlocksSight()
}

// UpdateFog reveals every in-bounds cell within the vision radius of the
// player. Fog never un-reveals within a floor. The return value lists the
// cells revealed by this call, in scan order.
func UpdateFog(s *game.State) []game.Point {
	px, py := s.Player.X, s.Player.Y
	r := game.VisionRadius

	var revealed []game.Point
	for y := py - r; y <= py+r; y++ {
		for x := px - r; x <= px+r; x++ {
			if !s.Map.InBounds(x, y) || s.Fog.Revealed(x, y) {
				continue
			}
			ddx, ddy := x-px, y-py
			if ddx*ddx+ddy*ddy > r*r {
				continue
			}
			s.Fog[y][x] = true
			revealed = append(revealed, game.Point{X: x, Y: y})
		}
	}
	return revealed
}

// VisibleEnemies returns the live enemies standing on revealed cells.
func VisibleEnemies(s *game.State) []*game.Enemy {
	var out []*game.Enemy
	for _, e := range s.Enemies {
		if e.Alive() && s.Fog.Revealed(e.X, e.Y) {
			out = append(out, e)
		}
	}
	return out
}

// VisibleItems returns the items sitting on revealed cells.
func VisibleItems(s *game.State) []*game.Item {
	var out []*game.Item
	for _, it := range s.Items {
		if s.Fog.Revealed(it.X, it.Y) {
			out = append(out, it)
		}
	}
	return out
}

// RevealedTiles returns the map tiles on revealed cells, in scan order.
func RevealedTiles(s *game.State) []game.Tile {
	var out []game.Tile
	for y := 0; y < game.MapHeight; y++ {
		for x := 0; x < game.MapWidth; x++ {
			if s.Fog.Revealed(x, y) {
				out = append(out, s.Map[y][x])
			}
		}
	}
	return out
}

// Snapshot builds the fog-filtered view of the state that may be sent to
// a client. Hidden enemies and unrevealed tiles never appear in it.
func Snapshot(s *game.State) *game.VisibleState {
	player := *s.Player
	return &game.VisibleState{
		GameID:     s.ID,
		PlayerName: s.PlayerName,
		Floor:      s.Floor,
		Status:     s.Status,
		Score:      s.Score,
		Width:      game.MapWidth,
		Height:     game.MapHeight,
		Player:     &player,
		Fog:        s.Fog.Clone(),
		Tiles:      RevealedTiles(s),
		Enemies:    VisibleEnemies(s),
		Items:      VisibleItems(s),
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

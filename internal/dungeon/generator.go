// Package dungeon generates floors: rectangular rooms joined by L-shaped
// corridors, stairs in the last room, and enemy/item seeding scaled by depth.
package dungeon

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/gloomdelve/server/internal/combat"
	"github.com/gloomdelve/server/internal/game"
)

// Generation limits.
const (
	maxRoomAttempts = 100
	minRooms        = 5
	maxRooms        = 8
	// A handful of retries covers the vanishingly unlikely case of an
	// attempt ending with fewer than two rooms.
	maxGenerateRetries = 10
)

// Result is one generated floor.
type Result struct {
	Map         game.Map
	PlayerStart game.Point
	Enemies     []*game.Enemy
	Items       []*game.Item
}

// room is an accepted rectangular room; X1/Y1 inclusive, X2/Y2 exclusive.
type room struct {
	X, Y, W, H int
}

func (r room) centerX() int { return r.X + r.W/2 }
func (r room) centerY() int { return r.Y + r.H/2 }

// overlapsInflated reports whether r and other, with other grown by one tile
// on each side, intersect. The inflation keeps a wall between rooms.
func (r room) overlapsInflated(other room) bool {
	return r.X < other.X+other.W+1 &&
		r.X+r.W > other.X-1 &&
		r.Y < other.Y+other.H+1 &&
		r.Y+r.H > other.Y-1
}

// randBetween returns a uniform integer in [lo, hi].
func randBetween(rng *rand.Rand, lo, hi int) int {
	return lo + rng.Intn(hi-lo+1)
}

// Generate builds a floor for the given depth and character. The character
// only influences which ranged equipment may drop.
func Generate(rng *rand.Rand, floor int, character game.CharacterKind) (Result, error) {
	var lastErr error
	for attempt := 0; attempt < maxGenerateRetries; attempt++ {
		res, err := generateOnce(rng, floor, character)
		if err == nil {
			return res, nil
		}
		lastErr = err
	}
	return Result{}, fmt.Errorf("floor %d generation failed: %w", floor, lastErr)
}

func generateOnce(rng *rand.Rand, floor int, character game.CharacterKind) (Result, error) {
	m := game.NewMap()

	rooms := placeRooms(rng)
	if len(rooms) < 2 {
		return Result{}, fmt.Errorf("only %d rooms placed", len(rooms))
	}

	for _, r := range rooms {
		carveRoom(m, r)
	}

	// Stable left-to-right, top-to-bottom ordering so corridor layout is a
	// pure function of the accepted rooms.
	sort.SliceStable(rooms, func(i, j int) bool {
		ki := float64(rooms[i].centerX()) + 0.5*float64(rooms[i].centerY())
		kj := float64(rooms[j].centerX()) + 0.5*float64(rooms[j].centerY())
		return ki < kj
	})

	for i := 0; i+1 < len(rooms); i++ {
		carveCorridor(m, rooms[i], rooms[i+1])
	}
	// Extra first-to-last corridor guarantees the stairs stay reachable
	// even if a later room pair carved through another room oddly.
	carveCorridor(m, rooms[0], rooms[len(rooms)-1])

	last := rooms[len(rooms)-1]
	m[last.centerY()][last.centerX()] = game.Tile{Kind: game.TileStairs, X: last.centerX(), Y: last.centerY()}

	start := game.Point{X: rooms[0].centerX(), Y: rooms[0].centerY()}

	enemies := seedEnemies(rng, rooms, floor)
	items := seedItems(rng, rooms, floor, character, enemies, start)

	return Result{
		Map:         m,
		PlayerStart: start,
		Enemies:     enemies,
		Items:       items,
	}, nil
}

// placeRooms attempts random placements until the target count is reached
// or the attempt budget runs out.
func placeRooms(rng *rand.Rand) []room {
	target := randBetween(rng, minRooms, maxRooms)
	var rooms []room

	for attempt := 0; attempt < maxRoomAttempts && len(rooms) < target; attempt++ {
		r := room{
			W: randBetween(rng, 4, 8),
			H: randBetween(rng, 4, 6),
			X: randBetween(rng, 1, game.MapWidth-10),
			Y: randBetween(rng, 1, game.MapHeight-8),
		}

		if r.X+r.W >= game.MapWidth-1 || r.Y+r.H >= game.MapHeight-1 {
			continue
		}

		ok := true
		for _, other := range rooms {
			if r.overlapsInflated(other) {
				ok = false
				break
			}
		}
		if ok {
			rooms = append(rooms, r)
		}
	}
	return rooms
}

// carveRoom converts the room's interior to floor.
func carveRoom(m game.Map, r room) {
	for y := r.Y; y < r.Y+r.H; y++ {
		for x := r.X; x < r.X+r.W; x++ {
			m[y][x] = game.Tile{Kind: game.TileFloor, X: x, Y: y}
		}
	}
}

// carveCorridor joins two room centers with an L: horizontal at the first
// center's row, then vertical at the second center's column.
func carveCorridor(m game.Map, a, b room) {
	x1, y1 := a.centerX(), a.centerY()
	x2, y2 := b.centerX(), b.centerY()

	for x := min(x1, x2); x <= max(x1, x2); x++ {
		carveFloor(m, x, y1)
	}
	for y := min(y1, y2); y <= max(y1, y2); y++ {
		carveFloor(m, x2, y)
	}
}

// carveFloor sets a cell to floor unless it is out of bounds or already
// something more specific than wall.
func carveFloor(m game.Map, x, y int) {
	if !m.InBounds(x, y) {
		return
	}
	if m[y][x].Kind == game.TileWall {
		m[y][x] = game.Tile{Kind: game.TileFloor, X: x, Y: y}
	}
}

// interiorCell picks a random cell strictly inside the room.
func interiorCell(rng *rand.Rand, r room) game.Point {
	return game.Point{
		X: randBetween(rng, r.X+1, r.X+r.W-2),
		Y: randBetween(rng, r.Y+1, r.Y+r.H-2),
	}
}

// permittedEnemyTypes returns the species allowed at the given depth: one
// more entry of the progression every three floors, capped at four.
func permittedEnemyTypes(floor int) []game.EnemyType {
	n := 1 + floor/3
	if n > len(game.EnemyTypes) {
		n = len(game.EnemyTypes)
	}
	return game.EnemyTypes[:n]
}

// seedEnemies spawns enemies in non-first rooms, never stacking two on the
// same cell.
func seedEnemies(rng *rand.Rand, rooms []room, floor int) []*game.Enemy {
	count := randBetween(rng, 3, 5) + floor/2
	kinds := permittedEnemyTypes(floor)

	occupied := make(map[game.Point]bool)
	enemies := make([]*game.Enemy, 0, count)
	for i := 0; i < count; i++ {
		r := rooms[randBetween(rng, 1, len(rooms)-1)]

		var cell game.Point
		placed := false
		for tries := 0; tries < 20; tries++ {
			cell = interiorCell(rng, r)
			if !occupied[cell] {
				placed = true
				break
			}
		}
		if !placed {
			continue // room is packed; skip this spawn
		}
		occupied[cell] = true

		kind := kinds[rng.Intn(len(kinds))]
		id := fmt.Sprintf("enemy-%d-%d", floor, len(enemies)+1)
		enemies = append(enemies, combat.NewEnemy(rng, id, kind, floor, cell.X, cell.Y))
	}
	return enemies
}

// seedItems scatters health potions and equipment. Items avoid the player's
// start cell and enemy cells so pickups are deliberate.
func seedItems(rng *rand.Rand, rooms []room, floor int, character game.CharacterKind, enemies []*game.Enemy, start game.Point) []*game.Item {
	occupied := make(map[game.Point]bool)
	occupied[start] = true
	for _, e := range enemies {
		occupied[game.Point{X: e.X, Y: e.Y}] = true
	}

	var items []*game.Item
	place := func(kind game.ItemKind, value int, eq *game.Equipment) {
		for tries := 0; tries < 20; tries++ {
			r := rooms[rng.Intn(len(rooms))]
			cell := interiorCell(rng, r)
			if occupied[cell] {
				continue
			}
			occupied[cell] = true
			items = append(items, &game.Item{
				ID:        fmt.Sprintf("item-%d-%d", floor, len(items)+1),
				Kind:      kind,
				X:         cell.X,
				Y:         cell.Y,
				Value:     value,
				Equipment: eq,
			})
			return
		}
	}

	potions := randBetween(rng, 1, 3)
	for i := 0; i < potions; i++ {
		place(game.ItemHealthPotion, 10, nil)
	}

	pool := combat.CatalogFor(floor, character)
	if len(pool) > 0 {
		drops := randBetween(rng, 1, 2)
		for i := 0; i < drops; i++ {
			eq := pool[rng.Intn(len(pool))]
			place(game.ItemEquipment, 0, &eq)
		}
	}

	return items
}

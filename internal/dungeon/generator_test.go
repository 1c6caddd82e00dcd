package dungeon

import (
	"math/rand"
	"testing"

	"pgregory.net/rapid"

	"github.com/gloomdelve/server/internal/game"
)

func TestGenerateBasics(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	res, err := Generate(rng, 1, game.CharacterDwarf)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if res.Map.At(res.PlayerStart.X, res.PlayerStart.Y).BlocksMovement() {
		t.Errorf("player start %v is not walkable", res.PlayerStart)
	}

	stairs := findStairs(res.Map)
	if stairs == nil {
		t.Fatal("no stairs on generated floor")
	}

	if len(res.Enemies) < 3 {
		t.Errorf("expected at least 3 enemies, got %d", len(res.Enemies))
	}
	if len(res.Items) < 1 {
		t.Errorf("expected at least 1 item, got %d", len(res.Items))
	}
}

func TestGenerateFirstFloorOnlyRats(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	res, err := Generate(rng, 1, game.CharacterElf)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	for _, e := range res.Enemies {
		if e.Type != game.EnemyRat {
			t.Errorf("floor 1 spawned %s, want only rats", e.Type)
		}
	}
}

func TestGenerateProperties(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		seed := rapid.Int64().Draw(rt, "seed")
		floor := rapid.IntRange(1, 20).Draw(rt, "floor")

		rng := rand.New(rand.NewSource(seed))
		res, err := Generate(rng, floor, game.CharacterWizard)
		if err != nil {
			rt.Fatalf("Generate failed: %v", err)
		}

		stairs := findStairs(res.Map)
		if stairs == nil {
			rt.Fatal("no stairs")
		}
		if !reachable(res.Map, res.PlayerStart, *stairs) {
			rt.Fatalf("stairs %v unreachable from start %v", *stairs, res.PlayerStart)
		}

		seen := make(map[game.Point]bool)
		for _, e := range res.Enemies {
			p := game.Point{X: e.X, Y: e.Y}
			if seen[p] {
				rt.Fatalf("two enemies share cell %v", p)
			}
			seen[p] = true
			if res.Map.At(e.X, e.Y).BlocksMovement() {
				rt.Fatalf("enemy %s spawned in a wall at %v", e.ID, p)
			}
			if p == res.PlayerStart {
				rt.Fatalf("enemy %s spawned on the player start", e.ID)
			}
		}

		for _, it := range res.Items {
			if res.Map.At(it.X, it.Y).BlocksMovement() {
				rt.Fatalf("item %s spawned in a wall", it.ID)
			}
		}
	})
}

func findStairs(m game.Map) *game.Point {
	for y := 0; y < game.MapHeight; y++ {
		for x := 0; x < game.MapWidth; x++ {
			if m[y][x].Kind == game.TileStairs {
				return &game.Point{X: x, Y: y}
			}
		}
	}
	return nil
}

// reachable floods the map 4-connected from start.
func reachable(m game.Map, start, goal game.Point) bool {
	seen := make(map[game.Point]bool)
	queue := []game.Point{start}
	seen[start] = true
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur == goal {
			return true
		}
		for _, d := range []game.Point{{X: 0, Y: -1}, {X: 0, Y: 1}, {X: -1, Y: 0}, {X: 1, Y: 0}} {
			next := game.Point{X: cur.X + d.X, Y: cur.Y + d.Y}
			if seen[next] || !m.InBounds(next.X, next.Y) || m.At(next.X, next.Y).BlocksMovement() {
				continue
			}
			seen[next] = true
			queue = append(queue, next)
		}
	}
	return false
}

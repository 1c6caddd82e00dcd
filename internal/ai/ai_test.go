package ai

import (
	"testing"

	"github.com/gloomdelve/server/internal/game"
	"github.com/gloomdelve/server/internal/protocol"
)

// arena builds a state with an open floor area and the player at (px, py).
func arena(px, py int) *game.State {
	m := game.NewMap()
	for y := 1; y < game.MapHeight-1; y++ {
		for x := 1; x < game.MapWidth-1; x++ {
			m[y][x] = game.Tile{Kind: game.TileFloor, X: x, Y: y}
		}
	}
	return &game.State{
		Player: &game.Player{X: px, Y: py, HP: 20, MaxHP: 20, Defense: 2},
		Map:    m,
		Fog:    game.NewFog(),
		Status: game.StatusActive,
	}
}

func enemy(id string, b game.Behavior, x, y int) *game.Enemy {
	return &game.Enemy{
		ID: id, Type: game.EnemyOrc, Variant: game.VariantNormal,
		DisplayName: "Orc", Behavior: b,
		X: x, Y: y, HP: 25, MaxHP: 25, Attack: 8, Defense: 4,
	}
}

func eventTypes(events []protocol.Event) []protocol.EventType {
	out := make([]protocol.EventType, len(events))
	for i, ev := range events {
		out[i] = ev.Type
	}
	return out
}

func TestAggressiveChasesPlayer(t *testing.T) {
	s := arena(10, 10)
	e := enemy("orc", game.BehaviorAggressive, 7, 10)
	s.Enemies = []*game.Enemy{e}

	Tick(s)

	if e.X != 8 || e.Y != 10 {
		t.Errorf("orc at (%d,%d), want (8,10)", e.X, e.Y)
	}
	if e.LastSeenPlayer == nil || *e.LastSeenPlayer != (game.Point{X: 10, Y: 10}) {
		t.Errorf("lastSeenPlayer = %v, want (10,10)", e.LastSeenPlayer)
	}
}

func TestAggressiveAttacksWhenAdjacent(t *testing.T) {
	s := arena(10, 10)
	e := enemy("orc", game.BehaviorAggressive, 9, 10)
	s.Enemies = []*game.Enemy{e}

	events := Tick(s)

	// Damage = max(1, 8-2) = 6.
	if s.Player.HP != 14 {
		t.Errorf("player hp = %d, want 14", s.Player.HP)
	}
	if e.X != 9 || e.Y != 10 {
		t.Errorf("attacking orc moved to (%d,%d)", e.X, e.Y)
	}
	types := eventTypes(events)
	if len(types) != 1 || types[0] != protocol.EventPlayerDamaged {
		t.Errorf("events = %v, want [player_damaged]", types)
	}
}

func TestAggressiveStepThenAttackSameTick(t *testing.T) {
	s := arena(10, 10)
	e := enemy("orc", game.BehaviorAggressive, 8, 10)
	s.Enemies = []*game.Enemy{e}

	events := Tick(s)

	if e.X != 9 || e.Y != 10 {
		t.Fatalf("orc at (%d,%d), want (9,10)", e.X, e.Y)
	}
	if s.Player.HP != 14 {
		t.Errorf("player hp = %d, want 14 after the step-and-attack", s.Player.HP)
	}
	if len(events) != 1 || events[0].Type != protocol.EventPlayerDamaged {
		t.Errorf("events = %v, want one player_damaged", eventTypes(events))
	}
}

func TestAggressiveChasesMemoryWhenHidden(t *testing.T) {
	s := arena(10, 10)
	// Wall off the player's column so the orc cannot see them.
	for y := 1; y < game.MapHeight-1; y++ {
		s.Map[y][9] = game.Tile{Kind: game.TileWall, X: 9, Y: y}
	}
	s.Map[12][9] = game.Tile{Kind: game.TileFloor, X: 9, Y: 12}
	e := enemy("orc", game.BehaviorAggressive, 7, 10)
	e.LastSeenPlayer = &game.Point{X: 7, Y: 11}
	s.Enemies = []*game.Enemy{e}

	Tick(s)

	if e.X != 7 || e.Y != 11 {
		t.Fatalf("orc at (%d,%d), want memory cell (7,11)", e.X, e.Y)
	}
	if e.LastSeenPlayer != nil {
		t.Error("lastSeenPlayer should clear on arrival without sight")
	}
}

func TestAggressiveSkipsWithoutTarget(t *testing.T) {
	s := arena(10, 10)
	for y := 1; y < game.MapHeight-1; y++ {
		s.Map[y][9] = game.Tile{Kind: game.TileWall, X: 9, Y: y}
	}
	e := enemy("orc", game.BehaviorAggressive, 7, 10)
	s.Enemies = []*game.Enemy{e}

	Tick(s)

	if e.X != 7 || e.Y != 10 {
		t.Errorf("orc with no sight and no memory moved to (%d,%d)", e.X, e.Y)
	}
}

func TestStationaryOnlyAttacksAdjacent(t *testing.T) {
	s := arena(10, 10)
	near := enemy("near", game.BehaviorStationary, 10, 11)
	far := enemy("far", game.BehaviorStationary, 10, 13)
	s.Enemies = []*game.Enemy{near, far}

	events := Tick(s)

	if s.Player.HP != 14 {
		t.Errorf("player hp = %d, want 14 (one hit)", s.Player.HP)
	}
	if far.X != 10 || far.Y != 13 {
		t.Errorf("stationary enemy moved to (%d,%d)", far.X, far.Y)
	}
	if len(events) != 1 {
		t.Errorf("events = %v, want exactly one", eventTypes(events))
	}
}

func TestPatrolIgnoresUnseenPlayer(t *testing.T) {
	s := arena(10, 10)
	for y := 1; y < game.MapHeight-1; y++ {
		s.Map[y][9] = game.Tile{Kind: game.TileWall, X: 9, Y: y}
	}
	e := enemy("orc", game.BehaviorPatrol, 7, 10)
	s.Enemies = []*game.Enemy{e}

	Tick(s)

	if e.X != 7 || e.Y != 10 {
		t.Errorf("patroller without sight moved to (%d,%d)", e.X, e.Y)
	}
}

func TestFleeRunsAtLowHealth(t *testing.T) {
	s := arena(10, 10)
	e := enemy("rat", game.BehaviorFlee, 8, 10)
	e.HP = 5 // below 30% of 25
	s.Enemies = []*game.Enemy{e}

	Tick(s)

	if e.X != 7 || e.Y != 10 {
		t.Errorf("fleeing enemy at (%d,%d), want horizontal retreat to (7,10)", e.X, e.Y)
	}
}

func TestFleeFallsThroughToAggressiveWhenHealthy(t *testing.T) {
	s := arena(10, 10)
	e := enemy("rat", game.BehaviorFlee, 8, 10)
	s.Enemies = []*game.Enemy{e}

	Tick(s)

	if e.X != 9 || e.Y != 10 {
		t.Errorf("healthy flee-type at (%d,%d), want advance to (9,10)", e.X, e.Y)
	}
}

func TestDistantEnemiesSkipped(t *testing.T) {
	s := arena(10, 10)
	e := enemy("orc", game.BehaviorAggressive, 10, 18) // distance 8 > R+2
	s.Enemies = []*game.Enemy{e}

	Tick(s)

	if e.X != 10 || e.Y != 18 {
		t.Errorf("out-of-range enemy moved to (%d,%d)", e.X, e.Y)
	}
}

func TestPlayerDeathStopsProcessing(t *testing.T) {
	s := arena(10, 10)
	s.Player.HP = 3
	first := enemy("first", game.BehaviorAggressive, 9, 10)
	second := enemy("second", game.BehaviorAggressive, 11, 10)
	s.Enemies = []*game.Enemy{first, second}

	events := Tick(s)

	if s.Status != game.StatusDead {
		t.Fatalf("status = %s, want dead", s.Status)
	}
	if s.Player.HP != 0 {
		t.Errorf("player hp = %d, want clamped to 0", s.Player.HP)
	}

	types := eventTypes(events)
	if len(types) != 2 || types[0] != protocol.EventPlayerDamaged || types[1] != protocol.EventPlayerDied {
		t.Fatalf("events = %v, want [player_damaged player_died]", types)
	}

	died := events[1]
	if died.Data["killedByType"] != "orc" || died.Data["killedByVariant"] != "normal" {
		t.Errorf("player_died data = %v", died.Data)
	}
}

func TestPathfindBudgetLimitsMovement(t *testing.T) {
	s := arena(10, 10)
	// Seven enemies at distance 2, all needing the pathfinder to advance.
	cells := []game.Point{
		{X: 8, Y: 10}, {X: 12, Y: 10}, {X: 10, Y: 8}, {X: 10, Y: 12},
		{X: 9, Y: 9}, {X: 11, Y: 9}, {X: 9, Y: 11},
	}
	for i, c := range cells {
		e := enemy(string(rune('a'+i)), game.BehaviorAggressive, c.X, c.Y)
		s.Enemies = append(s.Enemies, e)
	}

	Tick(s)

	moved := 0
	for i, e := range s.Enemies {
		if e.X != cells[i].X || e.Y != cells[i].Y {
			moved++
		}
	}
	if moved > 5 {
		t.Errorf("%d enemies moved, budget allows at most 5", moved)
	}
}

package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/gloomdelve/server/internal/game"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleState(id string) *game.State {
	m := game.NewMap()
	m[5][5] = game.Tile{Kind: game.TileFloor, X: 5, Y: 5}
	fog := game.NewFog()
	fog[5][5] = true
	return &game.State{
		ID:         id,
		PlayerName: "Tester",
		Player: &game.Player{
			X: 5, Y: 5, HP: 20, MaxHP: 25, Attack: 6, Defense: 3,
			Level: 2, XP: 12, XPToNextLevel: 100,
			Character: game.CharacterDwarf, Facing: game.FacingLeft,
		},
		Map: m,
		Fog: fog,
		Enemies: []*game.Enemy{{
			ID: "enemy-3-1", Type: game.EnemyOrc, Variant: game.VariantElite,
			DisplayName: "Elite Orc", Behavior: game.BehaviorAggressive,
			X: 8, Y: 5, HP: 30, MaxHP: 37, Attack: 12, Defense: 6,
		}},
		Items: []*game.Item{{
			ID: "item-3-1", Kind: game.ItemHealthPotion, X: 6, Y: 5, Value: 10,
		}},
		Floor:  3,
		Score:  240,
		Status: game.StatusActive,
	}
}

func TestSaveLoadRoundtrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	st := sampleState("g1")

	if err := s.SaveGame(ctx, st); err != nil {
		t.Fatalf("SaveGame: %v", err)
	}

	got, err := s.LoadGame(ctx, "g1")
	if err != nil {
		t.Fatalf("LoadGame: %v", err)
	}

	if got.ID != "g1" || got.PlayerName != "Tester" || got.Floor != 3 || got.Score != 240 {
		t.Errorf("header fields: %+v", got)
	}
	if got.Player.HP != 20 || got.Player.Facing != game.FacingLeft || got.Player.Level != 2 {
		t.Errorf("player fields: %+v", got.Player)
	}
	if !got.Fog.Revealed(5, 5) || got.Fog.Revealed(6, 6) {
		t.Error("fog did not survive the roundtrip")
	}
	if len(got.Enemies) != 1 || got.Enemies[0].Variant != game.VariantElite || got.Enemies[0].HP != 30 {
		t.Errorf("enemies: %+v", got.Enemies)
	}
	if len(got.Items) != 1 || got.Items[0].Kind != game.ItemHealthPotion {
		t.Errorf("items: %+v", got.Items)
	}
	if got.Map.At(5, 5).Kind != game.TileFloor || got.Map.At(0, 0).Kind != game.TileWall {
		t.Error("map tiles did not survive the roundtrip")
	}
}

func TestSaveGameUpserts(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	st := sampleState("g1")

	if err := s.SaveGame(ctx, st); err != nil {
		t.Fatalf("first save: %v", err)
	}
	st.Floor = 4
	st.Score = 340
	st.Status = game.StatusDead
	if err := s.SaveGame(ctx, st); err != nil {
		t.Fatalf("second save: %v", err)
	}

	got, err := s.LoadGame(ctx, "g1")
	if err != nil {
		t.Fatalf("LoadGame: %v", err)
	}
	if got.Floor != 4 || got.Score != 340 || got.Status != game.StatusDead {
		t.Errorf("upsert did not overwrite: floor=%d score=%d status=%s", got.Floor, got.Score, got.Status)
	}
}

func TestLoadGameNotFound(t *testing.T) {
	s := openTestStore(t)
	if _, err := s.LoadGame(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestDeleteGame(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.SaveGame(ctx, sampleState("g1")); err != nil {
		t.Fatalf("SaveGame: %v", err)
	}
	if err := s.DeleteGame(ctx, "g1"); err != nil {
		t.Fatalf("DeleteGame: %v", err)
	}
	if _, err := s.LoadGame(ctx, "g1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("deleted game still loads: %v", err)
	}
	if err := s.DeleteGame(ctx, "g1"); err != nil {
		t.Errorf("deleting a missing game errored: %v", err)
	}
}

func TestLeaderboardOrdering(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	entries := []LeaderboardEntry{
		{PlayerName: "low", Score: 100, Floor: 2, KilledBy: "Rat", KilledByType: "rat", KilledByVariant: "normal"},
		{PlayerName: "high", Score: 900, Floor: 9, KilledBy: "Champion Dragon", KilledByType: "dragon", KilledByVariant: "champion"},
		{PlayerName: "winner", Score: 2500, Floor: 20},
	}
	for _, e := range entries {
		if err := s.InsertLeaderboard(ctx, e); err != nil {
			t.Fatalf("InsertLeaderboard(%s): %v", e.PlayerName, err)
		}
	}

	top, err := s.TopScores(ctx, 10)
	if err != nil {
		t.Fatalf("TopScores: %v", err)
	}
	if len(top) != 3 {
		t.Fatalf("got %d entries, want 3", len(top))
	}
	if top[0].PlayerName != "winner" || top[1].PlayerName != "high" || top[2].PlayerName != "low" {
		t.Errorf("order = [%s %s %s]", top[0].PlayerName, top[1].PlayerName, top[2].PlayerName)
	}
	if top[0].ID == "" {
		t.Error("entry id was not generated")
	}
	if top[0].KilledBy != "" {
		t.Errorf("winner killedBy = %q, want empty for a NULL column", top[0].KilledBy)
	}
	if top[2].KilledByType != "rat" || top[2].KilledByVariant != "normal" {
		t.Errorf("killer fields lost: %+v", top[2])
	}
}

func TestTopScoresLimit(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		e := LeaderboardEntry{PlayerName: "p", Score: 100 * i, Floor: 1}
		if err := s.InsertLeaderboard(ctx, e); err != nil {
			t.Fatalf("InsertLeaderboard: %v", err)
		}
	}

	top, err := s.TopScores(ctx, 2)
	if err != nil {
		t.Fatalf("TopScores: %v", err)
	}
	if len(top) != 2 || top[0].Score != 400 {
		t.Errorf("limit 2 returned %d entries, first score %d", len(top), top[0].Score)
	}
}

func TestSweepExpired(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.SaveGame(ctx, sampleState("fresh")); err != nil {
		t.Fatalf("SaveGame: %v", err)
	}
	if err := s.SaveGame(ctx, sampleState("stale")); err != nil {
		t.Fatalf("SaveGame: %v", err)
	}

	// Back-date the stale row past the retention window.
	old := time.Now().UTC().Add(-GameTTL - time.Hour)
	query := s.qb.Build(`UPDATE games SET updated_at = ? WHERE id = ?`)
	if _, err := s.db.ExecContext(ctx, query, old, "stale"); err != nil {
		t.Fatalf("back-date: %v", err)
	}

	n, err := s.sweepExpired(ctx)
	if err != nil {
		t.Fatalf("sweepExpired: %v", err)
	}
	if n != 1 {
		t.Errorf("swept %d rows, want 1", n)
	}
	if _, err := s.LoadGame(ctx, "stale"); !errors.Is(err, ErrNotFound) {
		t.Error("stale checkpoint survived the sweep")
	}
	if _, err := s.LoadGame(ctx, "fresh"); err != nil {
		t.Errorf("fresh checkpoint swept: %v", err)
	}
}

func TestHealthy(t *testing.T) {
	s := openTestStore(t)
	if !s.Healthy(context.Background()) {
		t.Error("open store reported unhealthy")
	}
}

func TestQueryBuilderRebind(t *testing.T) {
	pg := NewQueryBuilder(NewDialect(DialectPostgres))
	got := pg.Build(`SELECT a FROM t WHERE b = ? AND c = ?`)
	if got != `SELECT a FROM t WHERE b = $1 AND c = $2` {
		t.Errorf("postgres rebind = %q", got)
	}

	lite := NewQueryBuilder(NewDialect(DialectSQLite))
	q := `SELECT a FROM t WHERE b = ? AND c = ?`
	if lite.Build(q) != q {
		t.Errorf("sqlite rebind changed the query: %q", lite.Build(q))
	}
}

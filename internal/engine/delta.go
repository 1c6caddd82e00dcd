package engine

import (
	"github.com/gloomdelve/server/internal/game"
	"github.com/gloomdelve/server/internal/protocol"
	"github.com/gloomdelve/server/internal/vision"
)

// enemySnap is the per-enemy observation recorded before a turn.
type enemySnap struct {
	x, y, hp int
}

// snapshot records everything the diff needs about the pre-turn state.
type snapshot struct {
	x, y          int
	facing        game.Facing
	hp, maxHP     int
	attack        int
	defense       int
	xp, level     int
	xpToNextLevel int
	equipIDs      [4]string
	score         int
	floor         int

	visEnemies map[string]enemySnap
	visItems   map[string]bool
}

func takeSnapshot(s *game.State) snapshot {
	p := s.Player
	snap := snapshot{
		x: p.X, y: p.Y, facing: p.Facing,
		hp: p.HP, maxHP: p.MaxHP,
		attack: p.Attack, defense: p.Defense,
		xp: p.XP, level: p.Level, xpToNextLevel: p.XPToNextLevel,
		equipIDs:   equipIDs(p),
		score:      s.Score,
		floor:      s.Floor,
		visEnemies: make(map[string]enemySnap),
		visItems:   make(map[string]bool),
	}
	for _, e := range vision.VisibleEnemies(s) {
		snap.visEnemies[e.ID] = enemySnap{x: e.X, y: e.Y, hp: e.HP}
	}
	for _, it := range vision.VisibleItems(s) {
		snap.visItems[it.ID] = true
	}
	return snap
}

func equipIDs(p *game.Player) [4]string {
	var ids [4]string
	for i, eq := range []*game.Equipment{
		p.Equipment.Weapon, p.Equipment.Shield, p.Equipment.Armor, p.Equipment.Ranged,
	} {
		if eq != nil {
			ids[i] = eq.ID
		}
	}
	return ids
}

// MoveWithDeltas runs one move turn and returns its events and the ordered
// delta stream describing the visible changes.
func (e *Engine) MoveWithDeltas(s *game.State, dir protocol.Direction) ([]protocol.Event, []protocol.Delta, error) {
	snap := takeSnapshot(s)
	res, err := e.move(s, dir)
	if err != nil {
		return nil, nil, err
	}
	if res.turnTaken {
		if err := verifyTurn(s, res); err != nil {
			return nil, nil, err
		}
	}
	return res.events, diff(s, snap, res), nil
}

// AttackWithDeltas runs one ranged-attack turn.
func (e *Engine) AttackWithDeltas(s *game.State) ([]protocol.Event, []protocol.Delta, error) {
	snap := takeSnapshot(s)
	res, err := e.attack(s)
	if err != nil {
		return nil, nil, err
	}
	if err := verifyTurn(s, res); err != nil {
		return nil, nil, err
	}
	return res.events, diff(s, snap, res), nil
}

// DescendWithDeltas handles an explicit descend intent. Off the stairs it
// yields no events and no deltas.
func (e *Engine) DescendWithDeltas(s *game.State) ([]protocol.Event, []protocol.Delta, error) {
	snap := takeSnapshot(s)
	res, err := e.descendIntent(s)
	if err != nil {
		return nil, nil, err
	}
	if res.turnTaken {
		if err := verifyTurn(s, res); err != nil {
			return nil, nil, err
		}
	}
	return res.events, diff(s, snap, res), nil
}

// diff compares the pre-turn snapshot with the post-turn state and emits
// deltas in the fixed wire order: player, score, floor, fog and tiles,
// enemies, items, status, events, and finally new_floor on a descend.
func diff(s *game.State, snap snapshot, res turnResult) []protocol.Delta {
	if !res.turnTaken {
		return nil
	}

	var deltas []protocol.Delta
	p := s.Player

	if p.X != snap.x || p.Y != snap.y || p.Facing != snap.facing {
		deltas = append(deltas, protocol.Delta{Type: protocol.DeltaPlayerPos, Data: protocol.PlayerPosData{
			X: p.X, Y: p.Y, Facing: p.Facing,
		}})
	}

	stats := statsDiff(p, snap)
	if !stats.Empty() {
		deltas = append(deltas, protocol.Delta{Type: protocol.DeltaPlayerStats, Data: stats})
	}

	if equipIDs(p) != snap.equipIDs {
		deltas = append(deltas, protocol.Delta{Type: protocol.DeltaPlayerEquipment, Data: p.Equipment})
	}

	if s.Score != snap.score {
		deltas = append(deltas, protocol.Delta{Type: protocol.DeltaScore, Data: protocol.ScoreData{Score: s.Score}})
	}
	if s.Floor != snap.floor {
		deltas = append(deltas, protocol.Delta{Type: protocol.DeltaFloor, Data: protocol.FloorData{Floor: s.Floor}})
	}

	// Diffing fog, enemies and items across a map replacement is
	// meaningless; the new_floor delta is the bulk reset.
	if !res.descended {
		deltas = append(deltas, fogDeltas(s, res.revealed)...)
		deltas = append(deltas, enemyDeltas(s, snap)...)
		deltas = append(deltas, itemDeltas(s, snap, res)...)
	}

	if s.Status != game.StatusActive {
		deltas = append(deltas, protocol.Delta{Type: protocol.DeltaGameStatus, Data: protocol.GameStatusData{Status: s.Status}})
	}

	for _, ev := range res.events {
		deltas = append(deltas, protocol.Delta{Type: protocol.DeltaEvent, Data: ev})
	}

	if res.descended {
		deltas = append(deltas, protocol.Delta{Type: protocol.DeltaNewFloor, Data: vision.Snapshot(s)})
	}
	return deltas
}

func statsDiff(p *game.Player, snap snapshot) protocol.PlayerStatsData {
	var d protocol.PlayerStatsData
	if p.HP != snap.hp {
		d.HP = intPtr(p.HP)
	}
	if p.MaxHP != snap.maxHP {
		d.MaxHP = intPtr(p.MaxHP)
	}
	if p.Attack != snap.attack {
		d.Attack = intPtr(p.Attack)
	}
	if p.Defense != snap.defense {
		d.Defense = intPtr(p.Defense)
	}
	if p.XP != snap.xp {
		d.XP = intPtr(p.XP)
	}
	if p.Level != snap.level {
		d.Level = intPtr(p.Level)
	}
	if p.XPToNextLevel != snap.xpToNextLevel {
		d.XPToNextLevel = intPtr(p.XPToNextLevel)
	}
	return d
}

// fogDeltas pairs fog_reveal with the tiles at the same cells.
func fogDeltas(s *game.State, revealed []game.Point) []protocol.Delta {
	if len(revealed) == 0 {
		return nil
	}
	tiles := make([]game.Tile, len(revealed))
	for i, c := range revealed {
		tiles[i] = s.Map[c.Y][c.X]
	}
	return []protocol.Delta{
		{Type: protocol.DeltaFogReveal, Data: protocol.FogRevealData{Cells: revealed}},
		{Type: protocol.DeltaTilesReveal, Data: protocol.TilesRevealData{Tiles: tiles}},
	}
}

// enemyDeltas reconciles the pre-turn visible enemy set with the post-turn
// one: appearances, kills, disappearances, then movement and damage for
// enemies that stayed visible.
func enemyDeltas(s *game.State, snap snapshot) []protocol.Delta {
	var deltas []protocol.Delta

	nowVisible := make(map[string]*game.Enemy)
	for _, e := range vision.VisibleEnemies(s) {
		nowVisible[e.ID] = e
		if _, was := snap.visEnemies[e.ID]; !was {
			deltas = append(deltas, protocol.Delta{Type: protocol.DeltaEnemyVisible, Data: e})
		}
	}

	for _, e := range s.Enemies {
		prev, was := snap.visEnemies[e.ID]
		if !was {
			continue
		}
		switch {
		case !e.Alive():
			deltas = append(deltas, protocol.Delta{Type: protocol.DeltaEnemyKilled, Data: protocol.EnemyRefData{ID: e.ID}})
		case nowVisible[e.ID] == nil:
			deltas = append(deltas, protocol.Delta{Type: protocol.DeltaEnemyHidden, Data: protocol.EnemyRefData{ID: e.ID}})
		default:
			if e.X != prev.x || e.Y != prev.y {
				deltas = append(deltas, protocol.Delta{Type: protocol.DeltaEnemyMoved, Data: protocol.EnemyMovedData{
					ID: e.ID, X: e.X, Y: e.Y,
				}})
			}
			if e.HP != prev.hp {
				deltas = append(deltas, protocol.Delta{Type: protocol.DeltaEnemyDamaged, Data: protocol.EnemyDamagedData{
					ID: e.ID, HP: e.HP, MaxHP: e.MaxHP,
				}})
			}
		}
	}
	return deltas
}

// itemDeltas emits appearances for newly revealed items and removals for
// items consumed this turn.
func itemDeltas(s *game.State, snap snapshot, res turnResult) []protocol.Delta {
	var deltas []protocol.Delta
	for _, it := range vision.VisibleItems(s) {
		if !snap.visItems[it.ID] {
			deltas = append(deltas, protocol.Delta{Type: protocol.DeltaItemVisible, Data: it})
		}
	}
	for _, id := range res.removedItems {
		deltas = append(deltas, protocol.Delta{Type: protocol.DeltaItemRemoved, Data: protocol.ItemRefData{ID: id}})
	}
	return deltas
}

func intPtr(v int) *int { return &v }

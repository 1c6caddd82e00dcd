package protocol

import "github.com/gloomdelve/server/internal/game"

// DeltaKind tags one entry of the incremental update stream.
type DeltaKind string

const (
	DeltaPlayerPos       DeltaKind = "player_pos"
	DeltaPlayerStats     DeltaKind = "player_stats"
	DeltaPlayerEquipment DeltaKind = "player_equipment"
	DeltaScore           DeltaKind = "score"
	DeltaFloor           DeltaKind = "floor"
	DeltaEnemyVisible    DeltaKind = "enemy_visible"
	DeltaEnemyMoved      DeltaKind = "enemy_moved"
	DeltaEnemyDamaged    DeltaKind = "enemy_damaged"
	DeltaEnemyKilled     DeltaKind = "enemy_killed"
	DeltaEnemyHidden     DeltaKind = "enemy_hidden"
	DeltaItemVisible     DeltaKind = "item_visible"
	DeltaItemRemoved     DeltaKind = "item_removed"
	DeltaFogReveal       DeltaKind = "fog_reveal"
	DeltaTilesReveal     DeltaKind = "tiles_reveal"
	DeltaGameStatus      DeltaKind = "game_status"
	DeltaEvent           DeltaKind = "event"
	DeltaNewFloor        DeltaKind = "new_floor"
)

// Delta is one tagged, minimal record describing a change to the visible
// state between two turns. Data holds the kind-specific payload.
type Delta struct {
	Type DeltaKind `json:"type"`
	Data any       `json:"data,omitempty"`
}

// PlayerPosData is the payload of a player_pos delta.
type PlayerPosData struct {
	X      int         `json:"x"`
	Y      int         `json:"y"`
	Facing game.Facing `json:"facing"`
}

// PlayerStatsData carries only the stats that changed this turn; unchanged
// fields are nil and omitted from the wire.
type PlayerStatsData struct {
	HP            *int `json:"hp,omitempty"`
	MaxHP         *int `json:"maxHp,omitempty"`
	Attack        *int `json:"attack,omitempty"`
	Defense       *int `json:"defense,omitempty"`
	XP            *int `json:"xp,omitempty"`
	Level         *int `json:"level,omitempty"`
	XPToNextLevel *int `json:"xpToNextLevel,omitempty"`
}

// Empty reports whether no stat changed.
func (d PlayerStatsData) Empty() bool {
	return d.HP == nil && d.MaxHP == nil && d.Attack == nil && d.Defense == nil &&
		d.XP == nil && d.Level == nil && d.XPToNextLevel == nil
}

// ScoreData is the payload of a score delta.
type ScoreData struct {
	Score int `json:"score"`
}

// FloorData is the payload of a floor delta.
type FloorData struct {
	Floor int `json:"floor"`
}

// EnemyMovedData is the payload of an enemy_moved delta.
type EnemyMovedData struct {
	ID string `json:"id"`
	X  int    `json:"x"`
	Y  int    `json:"y"`
}

// EnemyDamagedData is the payload of an enemy_damaged delta.
type EnemyDamagedData struct {
	ID    string `json:"id"`
	HP    int    `json:"hp"`
	MaxHP int    `json:"maxHp"`
}

// EnemyRefData identifies an enemy for enemy_killed / enemy_hidden deltas.
type EnemyRefData struct {
	ID string `json:"id"`
}

// ItemRefData identifies an item for item_removed deltas.
type ItemRefData struct {
	ID string `json:"id"`
}

// FogRevealData lists the cells newly revealed this turn.
type FogRevealData struct {
	Cells []game.Point `json:"cells"`
}

// TilesRevealData carries the tiles at the cells of the paired fog_reveal.
type TilesRevealData struct {
	Tiles []game.Tile `json:"tiles"`
}

// GameStatusData is the payload of a game_status delta.
type GameStatusData struct {
	Status game.Status `json:"status"`
}

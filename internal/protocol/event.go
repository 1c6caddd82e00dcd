package protocol

import (
	"fmt"
	"sync/atomic"
	"time"
)

// EventType enumerates the game events wrapped in event deltas.
type EventType string

const (
	EventPlayerMoved       EventType = "player_moved"
	EventPlayerAttacked    EventType = "player_attacked"
	EventPlayerDamaged     EventType = "player_damaged"
	EventPlayerHealed      EventType = "player_healed"
	EventPotionRefused     EventType = "potion_refused"
	EventAttackMissed      EventType = "attack_missed"
	EventRangedAttack      EventType = "ranged_attack"
	EventRangedMissed      EventType = "ranged_missed"
	EventEnemyKilled       EventType = "enemy_killed"
	EventItemPickedUp      EventType = "item_picked_up"
	EventFloorDescended    EventType = "floor_descended"
	EventPlayerDied        EventType = "player_died"
	EventGameWon           EventType = "game_won"
	EventXPGained          EventType = "xp_gained"
	EventLevelUp           EventType = "level_up"
	EventEquipmentEquipped EventType = "equipment_equipped"
	EventEquipmentFound    EventType = "equipment_found"
)

// Event is one game occurrence during a turn. The ID is opaque and unique
// within the process so clients can deduplicate across reconnects.
type Event struct {
	ID      string         `json:"id"`
	Type    EventType      `json:"type"`
	Message string         `json:"message"`
	Data    map[string]any `json:"data,omitempty"`
}

// eventSeq provides local uniqueness; combined with the timestamp it is
// unique enough for client-side dedup without cross-process coordination.
var eventSeq atomic.Uint64

// NewEvent builds an event with a fresh id.
func NewEvent(typ EventType, message string, data map[string]any) Event {
	return Event{
		ID:      fmt.Sprintf("%d-%d", time.Now().UnixMilli(), eventSeq.Add(1)),
		Type:    typ,
		Message: message,
		Data:    data,
	}
}

// Package engine orchestrates turns: it applies one player intent to a game
// state, runs the follow-up phases (items, stairs, fog, enemy ai), and diffs
// the visible state into the delta stream a client consumes.
package engine

import (
	"errors"
	"fmt"
	"math/rand"
	"sync"

	"github.com/gloomdelve/server/internal/ai"
	"github.com/gloomdelve/server/internal/combat"
	"github.com/gloomdelve/server/internal/dungeon"
	"github.com/gloomdelve/server/internal/game"
	"github.com/gloomdelve/server/internal/protocol"
	"github.com/gloomdelve/server/internal/vision"
)

// Score awards.
const (
	descendScore = 100
	winScore     = 1000
)

// ErrNotActive is returned for move/attack intents on a finished game. The
// caller reports it to the client; state is never mutated.
var ErrNotActive = errors.New("game is not active")

// Engine runs turns. The rng feeds floor generation only; a mutex guards it
// because many sessions share one engine.
type Engine struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// New creates an engine seeded for floor generation.
func New(seed int64) *Engine {
	return &Engine{rng: rand.New(rand.NewSource(seed))}
}

// NewGame creates a fresh run on floor 1 for the given character.
func (e *Engine) NewGame(id, playerName string, kind game.CharacterKind) (*game.State, error) {
	e.mu.Lock()
	floor, err := dungeon.Generate(e.rng, 1, kind)
	e.mu.Unlock()
	if err != nil {
		return nil, err
	}

	player := combat.NewPlayer(kind)
	player.X = floor.PlayerStart.X
	player.Y = floor.PlayerStart.Y

	s := &game.State{
		ID:         id,
		PlayerName: playerName,
		Player:     player,
		Map:        floor.Map,
		Fog:        game.NewFog(),
		Enemies:    floor.Enemies,
		Items:      floor.Items,
		Floor:      1,
		Status:     game.StatusActive,
	}
	vision.UpdateFog(s)
	return s, nil
}

// turnResult accumulates what one turn produced, for the delta diff.
type turnResult struct {
	events       []protocol.Event
	revealed     []game.Point
	removedItems []string
	turnTaken    bool
	descended    bool
}

// move applies a move intent: melee when the destination holds a live enemy,
// otherwise step, pick up, and auto-descend on stairs. A wall or edge bump
// takes no turn at all.
func (e *Engine) move(s *game.State, dir protocol.Direction) (turnResult, error) {
	var res turnResult
	if s.Status != game.StatusActive {
		return res, ErrNotActive
	}

	dx, dy := dir.Offset()
	nx, ny := s.Player.X+dx, s.Player.Y+dy
	if !s.Map.InBounds(nx, ny) || s.Map.At(nx, ny).BlocksMovement() {
		return res, nil
	}
	res.turnTaken = true

	if dir == protocol.DirLeft {
		s.Player.Facing = game.FacingLeft
	} else if dir == protocol.DirRight {
		s.Player.Facing = game.FacingRight
	}

	if target := s.EnemyAt(nx, ny); target != nil {
		e.meleeAttack(s, target, &res)
		e.finishTurn(s, &res)
		return res, nil
	}

	ox, oy := s.Player.X, s.Player.Y
	s.Player.X, s.Player.Y = nx, ny
	res.events = append(res.events, protocol.NewEvent(protocol.EventPlayerMoved,
		fmt.Sprintf("Moved %s", dir),
		map[string]any{"x": nx, "y": ny}))

	if it := s.ItemAt(nx, ny); it != nil {
		if bounced := e.pickUp(s, it, &res); bounced {
			s.Player.X, s.Player.Y = ox, oy
		}
	}

	if s.Map.At(s.Player.X, s.Player.Y).Kind == game.TileStairs {
		if err := e.descend(s, &res); err != nil {
			return res, err
		}
		return res, nil
	}

	e.finishTurn(s, &res)
	return res, nil
}

// attack applies a ranged attack along the player's facing.
func (e *Engine) attack(s *game.State) (turnResult, error) {
	var res turnResult
	if s.Status != game.StatusActive {
		return res, ErrNotActive
	}
	res.turnTaken = true

	damage, reach, attackType := combat.RangedProfile(s.Player)
	dx := 1
	if s.Player.Facing == game.FacingLeft {
		dx = -1
	}

	tx, ty := s.Player.X, s.Player.Y
	hit := false
	for i := 1; i <= reach; i++ {
		tx, ty = s.Player.X+dx*i, s.Player.Y
		if !s.Map.InBounds(tx, ty) || s.Map.At(tx, ty).BlocksMovement() {
			break
		}
		if target := s.EnemyAt(tx, ty); target != nil {
			dmg := combat.MeleeDamage(damage, target.Defense)
			target.HP -= dmg
			if target.HP < 0 {
				target.HP = 0
			}
			res.events = append(res.events, protocol.NewEvent(protocol.EventRangedAttack,
				fmt.Sprintf("Hit %s for %d damage", target.DisplayName, dmg),
				map[string]any{
					"targetX": tx, "targetY": ty,
					"damage": dmg, "attackType": attackType,
					"enemyId": target.ID,
				}))
			if !target.Alive() {
				e.killEffects(s, target, &res)
			}
			hit = true
			break
		}
	}
	if !hit {
		res.events = append(res.events, protocol.NewEvent(protocol.EventRangedMissed,
			"The attack hits nothing",
			map[string]any{
				"targetX": tx, "targetY": ty,
				"damage": 0, "attackType": attackType,
			}))
	}

	e.finishTurn(s, &res)
	return res, nil
}

// descendIntent handles an explicit descend message. Off the stairs it is a
// silent no-op; stairs auto-descend makes the intent redundant.
func (e *Engine) descendIntent(s *game.State) (turnResult, error) {
	var res turnResult
	if s.Status != game.StatusActive {
		return res, ErrNotActive
	}
	if s.Map.At(s.Player.X, s.Player.Y).Kind != game.TileStairs {
		return res, nil
	}
	res.turnTaken = true
	if err := e.descend(s, &res); err != nil {
		return res, err
	}
	return res, nil
}

// descend replaces the floor. Enemy ai does not run on the descend turn.
func (e *Engine) descend(s *game.State, res *turnResult) error {
	s.Floor++

	e.mu.Lock()
	floor, err := dungeon.Generate(e.rng, s.Floor, s.Player.Character)
	e.mu.Unlock()
	if err != nil {
		return err
	}

	s.Map = floor.Map
	s.Fog = game.NewFog()
	s.Enemies = floor.Enemies
	s.Items = floor.Items
	s.Player.X = floor.PlayerStart.X
	s.Player.Y = floor.PlayerStart.Y
	s.Score += descendScore

	res.descended = true
	res.revealed = vision.UpdateFog(s)
	res.events = append(res.events, protocol.NewEvent(protocol.EventFloorDescended,
		fmt.Sprintf("Descended to floor %d", s.Floor),
		map[string]any{"floor": s.Floor}))

	if s.Floor >= game.MaxFloor {
		s.Status = game.StatusWon
		s.Score += winScore
		res.events = append(res.events, protocol.NewEvent(protocol.EventGameWon,
			"You have reached the bottom of the dungeon",
			map[string]any{"score": s.Score}))
	}
	return nil
}

// finishTurn runs the phases shared by every non-descend turn: fog update,
// then the enemy pass while the game is still active.
func (e *Engine) finishTurn(s *game.State, res *turnResult) {
	res.revealed = append(res.revealed, vision.UpdateFog(s)...)
	if s.Status == game.StatusActive {
		res.events = append(res.events, ai.Tick(s)...)
	}
}

// meleeAttack resolves the player striking an adjacent enemy instead of
// moving into it.
func (e *Engine) meleeAttack(s *game.State, target *game.Enemy, res *turnResult) {
	dmg := combat.MeleeDamage(s.Player.Attack, target.Defense)
	target.HP -= dmg
	if target.HP < 0 {
		target.HP = 0
	}
	res.events = append(res.events, protocol.NewEvent(protocol.EventPlayerAttacked,
		fmt.Sprintf("You hit %s for %d damage", target.DisplayName, dmg),
		map[string]any{"enemyId": target.ID, "damage": dmg}))

	if !target.Alive() {
		e.killEffects(s, target, res)
	}
}

// killEffects awards score and experience for a kill and resolves any
// level-ups it triggers.
func (e *Engine) killEffects(s *game.State, target *game.Enemy, res *turnResult) {
	res.events = append(res.events, protocol.NewEvent(protocol.EventEnemyKilled,
		fmt.Sprintf("%s dies", target.DisplayName),
		map[string]any{"enemyId": target.ID}))

	s.Score += combat.KillScore(target)

	xp := combat.KillXP(target)
	res.events = append(res.events, protocol.NewEvent(protocol.EventXPGained,
		fmt.Sprintf("Gained %d experience", xp),
		map[string]any{"amount": xp}))

	for _, up := range combat.GrantXP(s.Player, xp) {
		res.events = append(res.events, protocol.NewEvent(protocol.EventLevelUp,
			fmt.Sprintf("Welcome to level %d", up.NewLevel),
			map[string]any{
				"level": up.NewLevel, "maxHp": up.MaxHP,
				"attack": up.Attack, "defense": up.Defense,
				"healed": up.Healed,
			}))
	}
}

// pickUp resolves the item on the cell the player just entered. The return
// value reports whether the player bounces back off the cell, which happens
// when a potion is refused at full health.
func (e *Engine) pickUp(s *game.State, it *game.Item, res *turnResult) bool {
	switch it.Kind {
	case game.ItemHealthPotion:
		if s.Player.HP >= s.Player.MaxHP {
			res.events = append(res.events, protocol.NewEvent(protocol.EventPotionRefused,
				"Already at full health",
				map[string]any{"itemId": it.ID}))
			return true
		}
		heal := it.Value
		if s.Player.HP+heal > s.Player.MaxHP {
			heal = s.Player.MaxHP - s.Player.HP
		}
		s.Player.HP += heal
		s.RemoveItem(it.ID)
		res.removedItems = append(res.removedItems, it.ID)
		res.events = append(res.events, protocol.NewEvent(protocol.EventPlayerHealed,
			fmt.Sprintf("Recovered %d health", heal),
			map[string]any{"itemId": it.ID, "healed": heal, "hp": s.Player.HP}))

	case game.ItemEquipment:
		if it.Equipment == nil {
			return false
		}
		eq := *it.Equipment
		replaced, equipped := combat.TryEquip(s.Player, &eq)
		if !equipped {
			res.events = append(res.events, protocol.NewEvent(protocol.EventEquipmentFound,
				fmt.Sprintf("Found %s, but yours is better", eq.Name),
				map[string]any{"itemId": it.ID, "equipmentId": eq.ID, "notBetter": true}))
			return false
		}
		s.RemoveItem(it.ID)
		res.removedItems = append(res.removedItems, it.ID)
		data := map[string]any{"itemId": it.ID, "equipmentId": eq.ID, "slot": string(eq.Slot)}
		if replaced != nil {
			data["replacedId"] = replaced.ID
		}
		res.events = append(res.events, protocol.NewEvent(protocol.EventEquipmentEquipped,
			fmt.Sprintf("Equipped %s", eq.Name), data))
	}
	return false
}

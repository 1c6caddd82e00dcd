// Package combat holds the balance tables and resolution rules: enemy
// construction with variant scaling, melee and ranged damage, kill rewards,
// the level-up loop and equipment handling.
package combat

import (
	"math"
	"math/rand"

	"github.com/gloomdelve/server/internal/game"
)

// enemyBase holds the unscaled stats for one enemy species.
type enemyBase struct {
	HP      int
	Attack  int
	Defense int
	XP      int
	Score   int
}

var enemyBaseStats = map[game.EnemyType]enemyBase{
	game.EnemyRat:      {HP: 6, Attack: 4, Defense: 0, XP: 8, Score: 10},
	game.EnemySkeleton: {HP: 15, Attack: 8, Defense: 2, XP: 30, Score: 25},
	game.EnemyOrc:      {HP: 25, Attack: 13, Defense: 4, XP: 60, Score: 50},
	game.EnemyDragon:   {HP: 45, Attack: 20, Defense: 8, XP: 200, Score: 200},
}

// variantMult scales base stats for elite and champion spawns.
type variantMult struct {
	HP      float64
	Attack  float64
	Defense float64
	XP      float64
	Prefix  string
}

var variantMults = map[game.Variant]variantMult{
	game.VariantNormal:   {HP: 1, Attack: 1, Defense: 1, XP: 1, Prefix: ""},
	game.VariantElite:    {HP: 1.5, Attack: 1.5, Defense: 1.2, XP: 2.5, Prefix: "Elite "},
	game.VariantChampion: {HP: 2.5, Attack: 1.8, Defense: 1.5, XP: 4, Prefix: "Champion "},
}

var displayNames = map[game.EnemyType]string{
	game.EnemyRat:      "Rat",
	game.EnemySkeleton: "Skeleton",
	game.EnemyOrc:      "Orc",
	game.EnemyDragon:   "Dragon",
}

// RollVariant picks a spawn variant for the given floor. Champion odds grow
// 4% per floor capped at 20%; elite odds start at 15% and cap at 40%.
func RollVariant(rng *rand.Rand, floor int) game.Variant {
	championChance := clampFloat(float64(floor-1)*0.04, 0, 0.20)
	eliteChance := clampFloat(0.10+float64(floor)*0.05, 0, 0.40)

	roll := rng.Float64()
	switch {
	case roll < championChance:
		return game.VariantChampion
	case roll < championChance+eliteChance:
		return game.VariantElite
	default:
		return game.VariantNormal
	}
}

// defaultBehavior picks the AI routine for a freshly spawned enemy.
// Rats are cowards, dragons always hunt; skeletons and orcs mostly hunt
// but sometimes just walk their beat.
func defaultBehavior(rng *rand.Rand, typ game.EnemyType) game.Behavior {
	switch typ {
	case game.EnemyRat:
		return game.BehaviorFlee
	case game.EnemyDragon:
		return game.BehaviorAggressive
	default:
		if rng.Float64() < 0.7 {
			return game.BehaviorAggressive
		}
		return game.BehaviorPatrol
	}
}

// NewEnemy constructs an enemy of the given type at (x, y), rolling its
// variant for the floor and scaling stats accordingly.
func NewEnemy(rng *rand.Rand, id string, typ game.EnemyType, floor, x, y int) *game.Enemy {
	base := enemyBaseStats[typ]
	variant := RollVariant(rng, floor)
	mult := variantMults[variant]

	hp := int(math.Floor(float64(base.HP) * mult.HP))
	return &game.Enemy{
		ID:          id,
		Type:        typ,
		Variant:     variant,
		DisplayName: mult.Prefix + displayNames[typ],
		X:           x,
		Y:           y,
		HP:          hp,
		MaxHP:       hp,
		Attack:      int(math.Floor(float64(base.Attack) * mult.Attack)),
		Defense:     int(math.Floor(float64(base.Defense) * mult.Defense)),
		Behavior:    defaultBehavior(rng, typ),
	}
}

// KillXP returns the experience granted for killing the enemy.
func KillXP(e *game.Enemy) int {
	base := enemyBaseStats[e.Type]
	return int(math.Floor(float64(base.XP) * variantMults[e.Variant].XP))
}

// KillScore returns the score granted for killing the enemy.
func KillScore(e *game.Enemy) int {
	return enemyBaseStats[e.Type].Score
}

// characterBase holds a character's starting stats and ranged profile.
type characterBase struct {
	HP           int
	Attack       int
	Defense      int
	RangedDamage int
	RangedRange  int
	AttackType   string
	RangedClass  string
}

var characterStats = map[game.CharacterKind]characterBase{
	game.CharacterDwarf:  {HP: 25, Attack: 6, Defense: 3, RangedDamage: 3, RangedRange: 2, AttackType: "dagger", RangedClass: "dagger"},
	game.CharacterElf:    {HP: 20, Attack: 7, Defense: 2, RangedDamage: 6, RangedRange: 3, AttackType: "magic_dagger", RangedClass: "dagger"},
	game.CharacterBandit: {HP: 22, Attack: 7, Defense: 2, RangedDamage: 6, RangedRange: 3, AttackType: "bolt", RangedClass: "crossbow"},
	game.CharacterWizard: {HP: 18, Attack: 8, Defense: 1, RangedDamage: 7, RangedRange: 4, AttackType: "spell", RangedClass: "staff"},
}

// NewPlayer creates a level-1 player of the given character kind.
func NewPlayer(kind game.CharacterKind) *game.Player {
	base := characterStats[kind]
	return &game.Player{
		HP:            base.HP,
		MaxHP:         base.HP,
		Attack:        base.Attack,
		Defense:       base.Defense,
		Level:         1,
		XPToNextLevel: XPToNextLevel(1),
		Character:     kind,
		Facing:        game.FacingRight,
	}
}

// RangedProfile returns the character's ranged damage and range with any
// equipped ranged item's bonuses applied.
func RangedProfile(p *game.Player) (damage, reach int, attackType string) {
	base := characterStats[p.Character]
	damage = base.RangedDamage
	reach = base.RangedRange
	if eq := p.Equipment.Ranged; eq != nil {
		damage += eq.RangedDamageBonus
		reach += eq.RangedRangeBonus
	}
	return damage, reach, base.AttackType
}

// RangedClass returns the ranged weapon class the character can use.
func RangedClass(kind game.CharacterKind) string {
	return characterStats[kind].RangedClass
}

// MeleeDamage is attack minus defense, never below 1.
func MeleeDamage(attack, defense int) int {
	if dmg := attack - defense; dmg > 1 {
		return dmg
	}
	return 1
}

// XPToNextLevel is the experience needed to clear the given level.
func XPToNextLevel(level int) int {
	return level * 50
}

// LevelUpResult describes one iteration of the level-up loop.
type LevelUpResult struct {
	NewLevel int
	MaxHP    int
	Attack   int
	Defense  int
	Healed   int
}

// Level-up gains per level.
const (
	levelUpHPGain      = 3
	levelUpAttackGain  = 1
	levelUpDefenseGain = 1
)

// GrantXP adds experience and resolves level-ups until xp is below the
// threshold again; excess carries over within the loop. One result is
// returned per level gained.
func GrantXP(p *game.Player, xp int) []LevelUpResult {
	p.XP += xp

	var ups []LevelUpResult
	for p.XP >= p.XPToNextLevel {
		p.XP -= p.XPToNextLevel
		p.Level++
		p.MaxHP += levelUpHPGain
		p.Attack += levelUpAttackGain
		p.Defense += levelUpDefenseGain

		heal := int(math.Floor(float64(p.MaxHP) * 0.5))
		if p.HP+heal > p.MaxHP {
			heal = p.MaxHP - p.HP
		}
		p.HP += heal

		p.XPToNextLevel = XPToNextLevel(p.Level)
		ups = append(ups, LevelUpResult{
			NewLevel: p.Level,
			MaxHP:    p.MaxHP,
			Attack:   p.Attack,
			Defense:  p.Defense,
			Healed:   heal,
		})
	}
	return ups
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

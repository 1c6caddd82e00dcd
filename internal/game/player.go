package game

// CharacterKind selects the player's starting stats and ranged attack style.
type CharacterKind string

const (
	CharacterDwarf  CharacterKind = "dwarf"
	CharacterElf    CharacterKind = "elf"
	CharacterBandit CharacterKind = "bandit"
	CharacterWizard CharacterKind = "wizard"
)

// ValidCharacter reports whether k names a playable character.
func ValidCharacter(k CharacterKind) bool {
	switch k {
	case CharacterDwarf, CharacterElf, CharacterBandit, CharacterWizard:
		return true
	}
	return false
}

// Facing is the player's horizontal orientation; ranged attacks fire this way.
type Facing string

const (
	FacingLeft  Facing = "left"
	FacingRight Facing = "right"
)

// Slot identifies an equipment slot.
type Slot string

const (
	SlotWeapon Slot = "weapon"
	SlotShield Slot = "shield"
	SlotArmor  Slot = "armor"
	SlotRanged Slot = "ranged"
)

// Equipment is a wearable item. Tier runs 1..6; "better" is decided by the
// plain sum of all bonus fields.
type Equipment struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	Slot              Slot   `json:"slot"`
	Tier              int    `json:"tier"`
	Class             string `json:"class,omitempty"` // ranged weapon class: dagger, crossbow, staff
	AttackBonus       int    `json:"attackBonus"`
	DefenseBonus      int    `json:"defenseBonus"`
	HPBonus           int    `json:"hpBonus"`
	RangedDamageBonus int    `json:"rangedDamageBonus"`
	RangedRangeBonus  int    `json:"rangedRangeBonus"`
}

// BonusSum is the comparison weight used when deciding whether a ground item
// beats the currently equipped one.
func (e Equipment) BonusSum() int {
	return e.AttackBonus + e.DefenseBonus + e.HPBonus + e.RangedDamageBonus + e.RangedRangeBonus
}

// EquipmentSet holds the player's four slots. Nil means the slot is empty.
type EquipmentSet struct {
	Weapon *Equipment `json:"weapon"`
	Shield *Equipment `json:"shield"`
	Armor  *Equipment `json:"armor"`
	Ranged *Equipment `json:"ranged"`
}

// Get returns the equipment in the given slot, or nil.
func (s *EquipmentSet) Get(slot Slot) *Equipment {
	switch slot {
	case SlotWeapon:
		return s.Weapon
	case SlotShield:
		return s.Shield
	case SlotArmor:
		return s.Armor
	case SlotRanged:
		return s.Ranged
	}
	return nil
}

// Set places equipment into the given slot.
func (s *EquipmentSet) Set(slot Slot, e *Equipment) {
	switch slot {
	case SlotWeapon:
		s.Weapon = e
	case SlotShield:
		s.Shield = e
	case SlotArmor:
		s.Armor = e
	case SlotRanged:
		s.Ranged = e
	}
}

// Player is the player-controlled character. Owned exclusively by its
// GameState; never shared between games.
type Player struct {
	X             int           `json:"x"`
	Y             int           `json:"y"`
	HP            int           `json:"hp"`
	MaxHP         int           `json:"maxHp"`
	Attack        int           `json:"attack"`
	Defense       int           `json:"defense"`
	XP            int           `json:"xp"`
	Level         int           `json:"level"`
	XPToNextLevel int           `json:"xpToNextLevel"`
	Character     CharacterKind `json:"character"`
	Facing        Facing        `json:"facing"`
	Equipment     EquipmentSet  `json:"equipment"`
}

// EnemyType identifies an enemy species; the ordered list below also defines
// which types are permitted on shallow floors.
type EnemyType string

const (
	EnemyRat      EnemyType = "rat"
	EnemySkeleton EnemyType = "skeleton"
	EnemyOrc      EnemyType = "orc"
	EnemyDragon   EnemyType = "dragon"
)

// EnemyTypes is the floor-progression order of enemy species.
var EnemyTypes = []EnemyType{EnemyRat, EnemySkeleton, EnemyOrc, EnemyDragon}

// Variant is an enemy strength tier scaling base stats by fixed multipliers.
type Variant string

const (
	VariantNormal   Variant = "normal"
	VariantElite    Variant = "elite"
	VariantChampion Variant = "champion"
)

// Behavior selects an enemy's decision routine.
type Behavior string

const (
	BehaviorAggressive Behavior = "aggressive"
	BehaviorPatrol     Behavior = "patrol"
	BehaviorFlee       Behavior = "flee"
	BehaviorStationary Behavior = "stationary"
)

// Enemy is one monster on the current floor. IDs are opaque, stable within
// a floor and never reused after death.
type Enemy struct {
	ID             string    `json:"id"`
	Type           EnemyType `json:"type"`
	Variant        Variant   `json:"variant"`
	DisplayName    string    `json:"displayName"`
	X              int       `json:"x"`
	Y              int       `json:"y"`
	HP             int       `json:"hp"`
	MaxHP          int       `json:"maxHp"`
	Attack         int       `json:"attack"`
	Defense        int       `json:"defense"`
	Behavior       Behavior  `json:"behavior"`
	LastSeenPlayer *Point    `json:"lastSeenPlayer,omitempty"`
}

// Alive reports whether the enemy is still fighting.
func (e *Enemy) Alive() bool {
	return e.HP > 0
}

// ItemKind identifies what a ground item does when picked up.
type ItemKind string

const (
	ItemHealthPotion ItemKind = "health_potion"
	ItemEquipment    ItemKind = "equipment"
)

// Item is something lying on the floor.
type Item struct {
	ID        string     `json:"id"`
	Kind      ItemKind   `json:"kind"`
	X         int        `json:"x"`
	Y         int        `json:"y"`
	Value     int        `json:"value,omitempty"`
	Equipment *Equipment `json:"equipment,omitempty"`
}

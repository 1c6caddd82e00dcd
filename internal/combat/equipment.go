package combat

import "github.com/gloomdelve/server/internal/game"

// catalog is the global equipment table. Tiers run 1..6 per slot; the map
// generator draws from the subset with tier <= floor+1, and ranged entries
// are further filtered by the character's weapon class.
var catalog = []game.Equipment{
	// Weapons
	{ID: "weapon-t1", Name: "Rusty Sword", Slot: game.SlotWeapon, Tier: 1, AttackBonus: 1},
	{ID: "weapon-t2", Name: "Short Sword", Slot: game.SlotWeapon, Tier: 2, AttackBonus: 2},
	{ID: "weapon-t3", Name: "Steel Sword", Slot: game.SlotWeapon, Tier: 3, AttackBonus: 4},
	{ID: "weapon-t4", Name: "War Axe", Slot: game.SlotWeapon, Tier: 4, AttackBonus: 6},
	{ID: "weapon-t5", Name: "Runed Blade", Slot: game.SlotWeapon, Tier: 5, AttackBonus: 8, HPBonus: 2},
	{ID: "weapon-t6", Name: "Dragonfang", Slot: game.SlotWeapon, Tier: 6, AttackBonus: 11, HPBonus: 3},

	// Shields
	{ID: "shield-t1", Name: "Wooden Buckler", Slot: game.SlotShield, Tier: 1, DefenseBonus: 1},
	{ID: "shield-t2", Name: "Iron Buckler", Slot: game.SlotShield, Tier: 2, DefenseBonus: 2},
	{ID: "shield-t3", Name: "Kite Shield", Slot: game.SlotShield, Tier: 3, DefenseBonus: 3, HPBonus: 1},
	{ID: "shield-t4", Name: "Tower Shield", Slot: game.SlotShield, Tier: 4, DefenseBonus: 4, HPBonus: 2},
	{ID: "shield-t5", Name: "Warded Shield", Slot: game.SlotShield, Tier: 5, DefenseBonus: 6, HPBonus: 3},
	{ID: "shield-t6", Name: "Aegis of Scales", Slot: game.SlotShield, Tier: 6, DefenseBonus: 8, HPBonus: 4},

	// Armor
	{ID: "armor-t1", Name: "Padded Vest", Slot: game.SlotArmor, Tier: 1, DefenseBonus: 1, HPBonus: 2},
	{ID: "armor-t2", Name: "Leather Armor", Slot: game.SlotArmor, Tier: 2, DefenseBonus: 2, HPBonus: 3},
	{ID: "armor-t3", Name: "Chain Mail", Slot: game.SlotArmor, Tier: 3, DefenseBonus: 3, HPBonus: 5},
	{ID: "armor-t4", Name: "Scale Mail", Slot: game.SlotArmor, Tier: 4, DefenseBonus: 4, HPBonus: 7},
	{ID: "armor-t5", Name: "Plate Armor", Slot: game.SlotArmor, Tier: 5, DefenseBonus: 6, HPBonus: 9},
	{ID: "armor-t6", Name: "Drakescale Plate", Slot: game.SlotArmor, Tier: 6, DefenseBonus: 8, HPBonus: 12},

	// Ranged: daggers (dwarf, elf)
	{ID: "dagger-t1", Name: "Throwing Knife", Slot: game.SlotRanged, Tier: 1, Class: "dagger", RangedDamageBonus: 1},
	{ID: "dagger-t2", Name: "Balanced Dagger", Slot: game.SlotRanged, Tier: 2, Class: "dagger", RangedDamageBonus: 2},
	{ID: "dagger-t3", Name: "Twin Daggers", Slot: game.SlotRanged, Tier: 3, Class: "dagger", RangedDamageBonus: 3, RangedRangeBonus: 1},
	{ID: "dagger-t4", Name: "Moonlit Dagger", Slot: game.SlotRanged, Tier: 4, Class: "dagger", RangedDamageBonus: 5, RangedRangeBonus: 1},
	{ID: "dagger-t5", Name: "Viper Fangs", Slot: game.SlotRanged, Tier: 5, Class: "dagger", RangedDamageBonus: 7, RangedRangeBonus: 1},
	{ID: "dagger-t6", Name: "Stormpiercer", Slot: game.SlotRanged, Tier: 6, Class: "dagger", RangedDamageBonus: 9, RangedRangeBonus: 2},

	// Ranged: crossbows (bandit)
	{ID: "crossbow-t1", Name: "Hand Crossbow", Slot: game.SlotRanged, Tier: 1, Class: "crossbow", RangedDamageBonus: 1},
	{ID: "crossbow-t2", Name: "Light Crossbow", Slot: game.SlotRanged, Tier: 2, Class: "crossbow", RangedDamageBonus: 2, RangedRangeBonus: 1},
	{ID: "crossbow-t3", Name: "Hunter's Crossbow", Slot: game.SlotRanged, Tier: 3, Class: "crossbow", RangedDamageBonus: 4, RangedRangeBonus: 1},
	{ID: "crossbow-t4", Name: "Arbalest", Slot: game.SlotRanged, Tier: 4, Class: "crossbow", RangedDamageBonus: 6, RangedRangeBonus: 1},
	{ID: "crossbow-t5", Name: "Siege Crossbow", Slot: game.SlotRanged, Tier: 5, Class: "crossbow", RangedDamageBonus: 8, RangedRangeBonus: 2},
	{ID: "crossbow-t6", Name: "Wyrmslayer", Slot: game.SlotRanged, Tier: 6, Class: "crossbow", RangedDamageBonus: 10, RangedRangeBonus: 2},

	// Ranged: staves (wizard)
	{ID: "staff-t1", Name: "Apprentice Staff", Slot: game.SlotRanged, Tier: 1, Class: "staff", RangedDamageBonus: 1},
	{ID: "staff-t2", Name: "Oak Staff", Slot: game.SlotRanged, Tier: 2, Class: "staff", RangedDamageBonus: 2, RangedRangeBonus: 1},
	{ID: "staff-t3", Name: "Crystal Staff", Slot: game.SlotRanged, Tier: 3, Class: "staff", RangedDamageBonus: 4, RangedRangeBonus: 1},
	{ID: "staff-t4", Name: "Staff of Embers", Slot: game.SlotRanged, Tier: 4, Class: "staff", RangedDamageBonus: 6, RangedRangeBonus: 1},
	{ID: "staff-t5", Name: "Stormcaller", Slot: game.SlotRanged, Tier: 5, Class: "staff", RangedDamageBonus: 8, RangedRangeBonus: 2},
	{ID: "staff-t6", Name: "Staff of the Deep", Slot: game.SlotRanged, Tier: 6, Class: "staff", RangedDamageBonus: 10, RangedRangeBonus: 3},
}

// CatalogFor returns the equipment eligible for a floor and character:
// tier <= floor+1, with ranged entries restricted to the character's class.
func CatalogFor(floor int, kind game.CharacterKind) []game.Equipment {
	class := RangedClass(kind)
	var out []game.Equipment
	for _, eq := range catalog {
		if eq.Tier > floor+1 {
			continue
		}
		if eq.Slot == game.SlotRanged && eq.Class != class {
			continue
		}
		out = append(out, eq)
	}
	return out
}

// CatalogItem looks up an equipment entry by id.
func CatalogItem(id string) (game.Equipment, bool) {
	for _, eq := range catalog {
		if eq.ID == id {
			return eq, true
		}
	}
	return game.Equipment{}, false
}

// applyBonuses adds (or with sign -1, removes) an equipment's bonuses to the
// player's stats. HP is clamped to the new maximum afterwards.
func applyBonuses(p *game.Player, eq *game.Equipment, sign int) {
	p.Attack += sign * eq.AttackBonus
	p.Defense += sign * eq.DefenseBonus
	p.MaxHP += sign * eq.HPBonus
	if p.HP > p.MaxHP {
		p.HP = p.MaxHP
	}
}

// TryEquip applies the pickup rule: equip when the slot is empty or the
// incoming piece has a strictly larger bonus sum. Returns the replaced
// equipment (nil if the slot was empty) and whether the swap happened.
func TryEquip(p *game.Player, eq *game.Equipment) (replaced *game.Equipment, equipped bool) {
	current := p.Equipment.Get(eq.Slot)
	if current != nil && eq.BonusSum() <= current.BonusSum() {
		return nil, false
	}

	if current != nil {
		applyBonuses(p, current, -1)
	}
	applyBonuses(p, eq, +1)
	p.Equipment.Set(eq.Slot, eq)
	return current, true
}

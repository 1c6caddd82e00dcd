// Package game defines the authoritative data model for a single dungeon run:
// the tile grid, fog-of-war memory, player, enemies, items and the aggregate
// GameState that owns them all.
package game

// Map dimensions and vision radius are fixed for every floor.
const (
	MapWidth     = 40
	MapHeight    = 24
	VisionRadius = 5
	MaxFloor     = 20
)

// TileKind identifies what occupies a grid cell.
type TileKind string

const (
	TileFloor  TileKind = "floor"
	TileWall   TileKind = "wall"
	TileStairs TileKind = "stairs"
	// TileDoor is reserved; doors currently behave as floor.
	TileDoor TileKind = "door"
)

// Tile is one cell of the dungeon grid. Walls block movement, sight and
// projectiles; stairs trigger a descend when the player steps on them.
type Tile struct {
	Kind TileKind `json:"kind"`
	X    int      `json:"x"`
	Y    int      `json:"y"`
}

// BlocksMovement returns true if the tile cannot be walked onto.
func (t Tile) BlocksMovement() bool {
	return t.Kind == TileWall
}

// BlocksSight returns true if the tile stops line-of-sight and projectiles.
func (t Tile) BlocksSight() bool {
	return t.Kind == TileWall
}

// Map is the dense tile grid for one floor, indexed [y][x]. It is immutable
// within a floor and replaced wholesale on descend.
type Map [][]Tile

// NewMap returns a map of the standard dimensions filled with walls.
func NewMap() Map {
	m := make(Map, MapHeight)
	for y := 0; y < MapHeight; y++ {
		row := make([]Tile, MapWidth)
		for x := 0; x < MapWidth; x++ {
			row[x] = Tile{Kind: TileWall, X: x, Y: y}
		}
		m[y] = row
	}
	return m
}

// InBounds reports whether (x, y) lies on the grid.
func (m Map) InBounds(x, y int) bool {
	return x >= 0 && x < MapWidth && y >= 0 && y < MapHeight
}

// At returns the tile at (x, y). Callers must check InBounds first.
func (m Map) At(x, y int) Tile {
	return m[y][x]
}

// IsWall reports whether (x, y) is out of bounds or a wall. Out-of-bounds
// cells are treated as walls so callers get uniform blocking behavior.
func (m Map) IsWall(x, y int) bool {
	if !m.InBounds(x, y) {
		return true
	}
	return m[y][x].Kind == TileWall
}

// Fog is the per-cell memory of whether a cell has ever been inside the
// vision radius on the current floor, indexed [y][x]. Cells only ever flip
// from false to true; the grid is replaced on descend.
type Fog [][]bool

// NewFog returns an all-hidden fog grid of the standard dimensions.
func NewFog() Fog {
	f := make(Fog, MapHeight)
	for y := 0; y < MapHeight; y++ {
		f[y] = make([]bool, MapWidth)
	}
	return f
}

// Revealed reports whether the cell has been seen. Out-of-bounds is false.
func (f Fog) Revealed(x, y int) bool {
	if y < 0 || y >= len(f) || x < 0 || x >= len(f[y]) {
		return false
	}
	return f[y][x]
}

// Clone returns a deep copy of the fog grid.
func (f Fog) Clone() Fog {
	c := make(Fog, len(f))
	for y := range f {
		c[y] = make([]bool, len(f[y]))
		copy(c[y], f[y])
	}
	return c
}

// Point is a grid coordinate.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

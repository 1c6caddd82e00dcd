package game

// Status is the lifecycle state of a run.
type Status string

const (
	StatusActive Status = "active"
	StatusDead   Status = "dead"
	StatusWon    Status = "won"
)

// State is the aggregate owning everything about one run. It lives in the
// session cache while the game is active and is written to the durable store
// only at checkpoints (descend, death, win, disconnect, eviction).
type State struct {
	ID         string   `json:"id"`
	PlayerName string   `json:"playerName"`
	Player     *Player  `json:"player"`
	Map        Map      `json:"map"`
	Fog        Fog      `json:"fog"`
	Enemies    []*Enemy `json:"enemies"`
	Items      []*Item  `json:"items"`
	Floor      int      `json:"floor"`
	Status     Status   `json:"status"`
	Score      int      `json:"score"`
}

// EnemyAt returns the live enemy occupying (x, y), or nil.
func (s *State) EnemyAt(x, y int) *Enemy {
	for _, e := range s.Enemies {
		if e.Alive() && e.X == x && e.Y == y {
			return e
		}
	}
	return nil
}

// EnemyByID returns the enemy with the given id, dead or alive, or nil.
func (s *State) EnemyByID(id string) *Enemy {
	for _, e := range s.Enemies {
		if e.ID == id {
			return e
		}
	}
	return nil
}

// ItemAt returns the item lying at (x, y), or nil.
func (s *State) ItemAt(x, y int) *Item {
	for _, it := range s.Items {
		if it.X == x && it.Y == y {
			return it
		}
	}
	return nil
}

// RemoveItem deletes the item with the given id, preserving order.
func (s *State) RemoveItem(id string) {
	for i, it := range s.Items {
		if it.ID == id {
			s.Items = append(s.Items[:i], s.Items[i+1:]...)
			return
		}
	}
}

// VisibleState is the fog-filtered projection of a State that a client is
// allowed to see. It is the payload of init messages and new_floor deltas.
type VisibleState struct {
	GameID     string   `json:"gameId"`
	PlayerName string   `json:"playerName"`
	Floor      int      `json:"floor"`
	Status     Status   `json:"status"`
	Score      int      `json:"score"`
	Width      int      `json:"width"`
	Height     int      `json:"height"`
	Player     *Player  `json:"player"`
	Fog        Fog      `json:"fog"`
	Tiles      []Tile   `json:"tiles"`
	Enemies    []*Enemy `json:"enemies"`
	Items      []*Item  `json:"items"`
}

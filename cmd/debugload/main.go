// debugload prints a saved checkpoint for inspection.
//
// Usage:
//
//	go run ./cmd/debugload -db data/gloomdelve.db -game <id>
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/gloomdelve/server/internal/store"
)

func main() {
	dbPath := flag.String("db", "data/gloomdelve.db", "Database path or postgres:// URL")
	gameID := flag.String("game", "", "Game id to load")
	flag.Parse()

	if *gameID == "" {
		fmt.Fprintln(os.Stderr, "missing -game")
		flag.Usage()
		os.Exit(2)
	}

	st, err := store.Open(*dbPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
	defer st.Close()

	s, err := st.LoadGame(context.Background(), *gameID)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}

	fmt.Printf("Game %s (%s)\n", s.ID, s.PlayerName)
	fmt.Printf("  floor %d, score %d, status %s\n", s.Floor, s.Score, s.Status)
	fmt.Printf("  player: %s at (%d,%d), hp %d/%d, level %d (%d/%d xp)\n",
		s.Player.Character, s.Player.X, s.Player.Y,
		s.Player.HP, s.Player.MaxHP, s.Player.Level, s.Player.XP, s.Player.XPToNextLevel)

	alive := 0
	for _, e := range s.Enemies {
		if e.Alive() {
			alive++
		}
	}
	fmt.Printf("  enemies: %d alive of %d\n", alive, len(s.Enemies))
	fmt.Printf("  items on floor: %d\n", len(s.Items))

	revealed := 0
	for y := range s.Fog {
		for x := range s.Fog[y] {
			if s.Fog[y][x] {
				revealed++
			}
		}
	}
	fmt.Printf("  fog: %d cells revealed\n", revealed)
}

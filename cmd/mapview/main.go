// Command mapview renders a generated floor to SVG for eyeballing the
// generator's output: rooms, corridors, stairs, spawns and item drops.
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"

	svg "github.com/ajstarks/svgo"

	"github.com/gloomdelve/server/internal/dungeon"
	"github.com/gloomdelve/server/internal/game"
)

const cell = 24

var enemyColors = map[game.EnemyType]string{
	game.EnemyRat:      "#b5838d",
	game.EnemySkeleton: "#e5e5e5",
	game.EnemyOrc:      "#6a994e",
	game.EnemyDragon:   "#d62828",
}

func main() {
	floor := flag.Int("floor", 1, "Floor number to generate")
	seed := flag.Int64("seed", 1, "Generation seed")
	character := flag.String("character", "dwarf", "Character kind (affects equipment drops)")
	out := flag.String("o", "", "Output file (default: stdout)")
	flag.Parse()

	kind := game.CharacterKind(*character)
	if !game.ValidCharacter(kind) {
		fmt.Fprintf(os.Stderr, "unknown character %q\n", *character)
		os.Exit(1)
	}

	rng := rand.New(rand.NewSource(*seed))
	res, err := dungeon.Generate(rng, *floor, kind)
	if err != nil {
		fmt.Fprintf(os.Stderr, "generation failed: %v\n", err)
		os.Exit(1)
	}

	w := os.Stdout
	if *out != "" {
		f, err := os.Create(*out)
		if err != nil {
			fmt.Fprintf(os.Stderr, "cannot create %s: %v\n", *out, err)
			os.Exit(1)
		}
		defer f.Close()
		w = f
	}

	canvas := svg.New(w)
	canvas.Start(game.MapWidth*cell, game.MapHeight*cell)

	for y := 0; y < game.MapHeight; y++ {
		for x := 0; x < game.MapWidth; x++ {
			fill := "#2b2d42"
			switch res.Map[y][x].Kind {
			case game.TileFloor, game.TileDoor:
				fill = "#edf2f4"
			case game.TileStairs:
				fill = "#f4a261"
			}
			canvas.Rect(x*cell, y*cell, cell, cell, "fill:"+fill+";stroke:#8d99ae;stroke-width:0.5")
		}
	}

	for _, it := range res.Items {
		color := "#e76f51"
		if it.Kind == game.ItemEquipment {
			color = "#457b9d"
		}
		canvas.Square(it.X*cell+cell/4, it.Y*cell+cell/4, cell/2, "fill:"+color)
	}

	for _, e := range res.Enemies {
		color := enemyColors[e.Type]
		canvas.Circle(e.X*cell+cell/2, e.Y*cell+cell/2, cell/3, "fill:"+color+";stroke:#000;stroke-width:1")
		if e.Variant != game.VariantNormal {
			canvas.Circle(e.X*cell+cell/2, e.Y*cell+cell/2, cell/2-1, "fill:none;stroke:#ffd166;stroke-width:2")
		}
	}

	canvas.Circle(res.PlayerStart.X*cell+cell/2, res.PlayerStart.Y*cell+cell/2, cell/3, "fill:#06d6a0;stroke:#000;stroke-width:1")

	canvas.End()
}

package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/armand-ratombotiana/Hybrid-3D-Chess-Engine/game"
	"github.com/armand-ratombotiana/Hybrid-3D-Chess-Engine/search"
)

var (
	fen   = flag.String("fen", "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1", "position to search, in FEN")
	depth = flag.Int("depth", 3, "search depth in plies")
)

func main() {
	flag.Parse()

	pos, err := game.NewPosition(*fen)
	if err != nil {
		log.Fatalf("error parsing position: %s", err)
	}

	res, err := search.BestMove(pos, *depth)
	if err != nil {
		log.Fatalf("error searching position: %s", err)
	}

	fmt.Printf("best move %s (score %.2f, depth %d, %d nodes)\n",
		res.Move, res.Score, res.Depth, res.Nodes)
}

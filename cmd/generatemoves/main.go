// This package generates the move vocabulary and training positions by
// playing random games: nearly all possible UCI moves go into the moves
// file (one per line, for the model's action space), and each visited
// position's FEN goes into the positions file (training data).

package main

import (
	"flag"
	"log"
	"math/rand"
	"os"

	"github.com/notnil/chess"
)

var (
	numGameFlag   = flag.Int("num_game", 10, "number of game to play")
	chessMovePath = flag.String("path", "chess_moves.txt", "chess possible moves path to generate to")
	fenPath       = flag.String("fen_path", "chess_positions.txt", "visited positions path to generate to")
)

func main() {
	flag.Parse()

	// If the files don't exist, create them, or append to them
	mf, err := os.OpenFile(*chessMovePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		log.Fatal(err)
	}
	defer mf.Close()

	pf, err := os.OpenFile(*fenPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		log.Fatal(err)
	}
	defer pf.Close()

	movesMap := make(map[string]struct{})
	fensMap := make(map[string]struct{})
	for i := 0; i < *numGameFlag; i++ {
		game := chess.NewGame()
		// generate moves until game is over
		for game.Outcome() == chess.NoOutcome {
			fen := game.Position().String()
			if _, ok := fensMap[fen]; !ok {
				fensMap[fen] = struct{}{}
				if _, err := pf.Write([]byte(fen + "\n")); err != nil {
					log.Fatal(err)
				}
			}

			moves := game.ValidMoves()
			for _, m := range moves {
				mStr := m.String()
				if _, ok := movesMap[mStr]; !ok {
					movesMap[mStr] = struct{}{}
					if _, err := mf.Write([]byte(mStr + "\n")); err != nil {
						log.Fatal(err)
					}
				}
			}
			move := moves[rand.Intn(len(moves))]
			if err := game.Move(move); err != nil {
				log.Fatal(err)
			}
		}
	}
}

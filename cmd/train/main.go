package main

import (
	"flag"
	"log"

	hybridchess "github.com/armand-ratombotiana/Hybrid-3D-Chess-Engine"
)

var (
	fileMoves = flag.String("moves_file", "chess_moves.txt", "file containing chess moves")
	fensFile  = flag.String("fens_file", "chess_positions.txt", "file containing training positions in FEN, one per line")
	modelOut  = flag.String("model_out", "chess_model.model", "path to save the trained model to")
	epochs    = flag.Int("epochs", 5, "number of training epochs")
	batchSize = flag.Int("batch_size", 32, "training batch size")
	learnRate = flag.Float64("learn_rate", 0.001, "Adam learning rate")
	depth     = flag.Int("depth", 2, "search depth used to label training positions")
)

func main() {
	flag.Parse()

	engine, err := hybridchess.New(hybridchess.Config{
		Name:      "Hybrid Chess Engine",
		Depth:     *depth,
		MovesFile: *fileMoves,
	})
	if err != nil {
		log.Fatalf("error creating engine: %s", err)
	}
	defer engine.Close()

	if err := engine.Train(*fensFile, *epochs, *batchSize, *learnRate); err != nil {
		log.Fatalf("error when training: %s", err)
	}

	log.Printf("Save model")
	if err := engine.SaveModel(*modelOut); err != nil {
		log.Fatalf("error when saving model: %s", err)
	}
}

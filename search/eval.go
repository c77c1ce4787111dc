package search

import (
	"github.com/notnil/chess"

	"github.com/armand-ratombotiana/Hybrid-3D-Chess-Engine/game"
)

// MateScore is the evaluation of a checkmated position, in centipawns.
const MateScore = 20000

// Material values in centipawns.
var pieceValues = map[chess.PieceType]int{
	chess.Pawn:   100,
	chess.Knight: 320,
	chess.Bishop: 330,
	chess.Rook:   500,
	chess.Queen:  900,
	chess.King:   20000,
}

// Positional bonus per square, indexed from white's orientation (a1 = 0).
// Black pieces index the mirrored square 63-sq.
var pawnTable = [64]int{
	0, 0, 0, 0, 0, 0, 0, 0,
	50, 50, 50, 50, 50, 50, 50, 50,
	10, 10, 20, 30, 30, 20, 10, 10,
	5, 5, 10, 25, 25, 10, 5, 5,
	0, 0, 0, 20, 20, 0, 0, 0,
	5, -5, -10, 0, 0, -10, -5, 5,
	5, 10, 10, -20, -20, 10, 10, 5,
	0, 0, 0, 0, 0, 0, 0, 0,
}

var knightTable = [64]int{
	-50, -40, -30, -30, -30, -30, -40, -50,
	-40, -20, 0, 0, 0, 0, -20, -40,
	-30, 0, 10, 15, 15, 10, 0, -30,
	-30, 5, 15, 20, 20, 15, 5, -30,
	-30, 0, 15, 20, 20, 15, 0, -30,
	-30, 5, 10, 15, 15, 10, 5, -30,
	-40, -20, 0, 5, 5, 0, -20, -40,
	-50, -40, -30, -30, -30, -30, -40, -50,
}

// pieceTables is the total mapping piece kind -> positional table. Kinds
// without a table contribute no positional bonus; only pawns and knights
// have one.
var pieceTables = map[chess.PieceType]*[64]int{
	chess.Pawn:   &pawnTable,
	chess.Knight: &knightTable,
}

const mobilityWeight = 10

// Evaluate statically scores a position in centipawns from white's
// perspective, regardless of the side to move. Checkmate scores
// -MateScore when white is the mated side and +MateScore otherwise;
// stalemate and insufficient material score 0. Non-terminal positions
// score material plus positional bonuses, plus a mobility term counting
// only the side currently on move. Because of the single-sided mobility
// term the starting position does not evaluate to zero.
func Evaluate(pos *game.Position) int {
	switch pos.Status() {
	case game.StatusCheckmate:
		if pos.Turn() == chess.White {
			return -MateScore
		}
		return MateScore
	case game.StatusStalemate, game.StatusInsufficientMaterial:
		return 0
	}

	var score int
	for sq, piece := range pos.SquareMap() {
		value := pieceValues[piece.Type()]
		if table, ok := pieceTables[piece.Type()]; ok {
			if piece.Color() == chess.White {
				value += table[sq]
			} else {
				value += table[63-int(sq)]
			}
		}
		if piece.Color() == chess.White {
			score += value
		} else {
			score -= value
		}
	}

	mobility := mobilityWeight * len(pos.LegalMoves())
	if pos.Turn() == chess.White {
		score += mobility
	} else {
		score -= mobility
	}
	return score
}

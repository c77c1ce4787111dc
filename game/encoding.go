package game

import "github.com/notnil/chess"

// FeaturePlanes is the number of input feature planes: 6 piece kinds x 2 colors.
const FeaturePlanes = 12

var pieceChannel = map[chess.Piece]int{
	chess.WhitePawn:   0,
	chess.WhiteKnight: 1,
	chess.WhiteBishop: 2,
	chess.WhiteRook:   3,
	chess.WhiteQueen:  4,
	chess.WhiteKing:   5,
	chess.BlackPawn:   6,
	chess.BlackKnight: 7,
	chess.BlackBishop: 8,
	chess.BlackRook:   9,
	chess.BlackQueen:  10,
	chess.BlackKing:   11,
}

// InputPlanes encodes a position as 12x8x8 one-hot planes for the neural network.
func InputPlanes(p *Position) []float32 {
	planes := make([]float32, FeaturePlanes*RowNum*ColNum)
	for sq, piece := range p.SquareMap() {
		ch := pieceChannel[piece]
		planes[ch*RowNum*ColNum+int(sq)] = 1
	}
	return planes
}

package game

import (
	"crypto/md5"

	"github.com/notnil/chess"
	"github.com/pkg/errors"
)

// Move encodes a chess move with UCI notation, e.g. "e2e4" or "e7e8q".
type Move string

const (
	RowNum = 8
	ColNum = 8
)

// From returns the source square of the move.
func (m Move) From() string {
	if len(m) < 2 {
		return ""
	}
	return string(m[:2])
}

// To returns the destination square of the move.
func (m Move) To() string {
	if len(m) < 4 {
		return ""
	}
	return string(m[2:4])
}

// Promotion returns the promotion piece letter, or "" when the move is not a promotion.
func (m Move) Promotion() string {
	if len(m) < 5 {
		return ""
	}
	return string(m[4:])
}

// Status is the terminal status of a position.
type Status int

const (
	StatusNone Status = iota
	StatusCheckmate
	StatusStalemate
	StatusInsufficientMaterial
)

func (s Status) String() string {
	switch s {
	case StatusCheckmate:
		return "checkmate"
	case StatusStalemate:
		return "stalemate"
	case StatusInsufficientMaterial:
		return "insufficient material"
	}
	return "none"
}

// Position wraps a chess position and exposes the rules surface the engine
// consumes: legal move enumeration, move application and terminal detection.
// Apply returns a successor instead of mutating the receiver, so a caller's
// position is never changed by a search over it. A Position is not safe for
// concurrent use; searches running in parallel must each hold their own.
type Position struct {
	pos   *chess.Position
	moves []*chess.Move // lazily generated legal moves
}

// ErrInvalidFEN is returned by NewPosition for unparseable FEN strings.
var ErrInvalidFEN = errors.New("invalid FEN")

// NewPosition parses a FEN string into a Position.
func NewPosition(fen string) (*Position, error) {
	pos := &chess.Position{}
	if err := pos.UnmarshalText([]byte(fen)); err != nil {
		return nil, errors.Wrapf(ErrInvalidFEN, "%q: %s", fen, err)
	}
	return &Position{pos: pos}, nil
}

// StartingPosition returns the canonical initial setup.
func StartingPosition() *Position {
	return &Position{pos: chess.StartingPosition()}
}

func (p *Position) chessMoves() []*chess.Move {
	if p.moves == nil {
		p.moves = p.pos.ValidMoves()
	}
	return p.moves
}

// LegalMoves enumerates the legal moves of the position. The order is the
// move generator's, and is stable for a given position. A terminal position
// yields an empty slice.
func (p *Position) LegalMoves() []Move {
	ms := p.chessMoves()
	retVal := make([]Move, len(ms))
	for i, m := range ms {
		retVal[i] = Move(m.String())
	}
	return retVal
}

// Apply returns the successor position reached by m. The receiver is left
// untouched. Moves not present in LegalMoves yield nil.
func (p *Position) Apply(m Move) *Position {
	for _, cm := range p.chessMoves() {
		if Move(cm.String()) == m {
			return &Position{pos: p.pos.Update(cm)}
		}
	}
	return nil
}

// Status reports the terminal status of the position. The wrapped library
// only detects checkmate and stalemate at position level; insufficient
// material is derived from the piece map.
func (p *Position) Status() Status {
	switch p.pos.Status() {
	case chess.Checkmate:
		return StatusCheckmate
	case chess.Stalemate:
		return StatusStalemate
	}
	if insufficientMaterial(p.pos.Board().SquareMap()) {
		return StatusInsufficientMaterial
	}
	return StatusNone
}

// Turn returns the color to move.
func (p *Position) Turn() chess.Color {
	return p.pos.Turn()
}

// SquareMap returns the mapping of occupied squares to pieces.
func (p *Position) SquareMap() map[chess.Square]chess.Piece {
	return p.pos.Board().SquareMap()
}

// FEN serializes the position back to FEN.
func (p *Position) FEN() string {
	return p.pos.String()
}

// Hash returns a digest of the position, used to identify states.
func (p *Position) Hash() [16]byte {
	return md5.Sum([]byte(p.FEN()))
}

// insufficientMaterial reports whether neither side can possibly mate:
// K vs K, K+minor vs K, or K+B vs K+B with same-colored bishops.
func insufficientMaterial(m map[chess.Square]chess.Piece) bool {
	var knights int
	var bishopSquares []chess.Square
	var bishopColors []chess.Color
	for sq, piece := range m {
		switch piece.Type() {
		case chess.King:
		case chess.Knight:
			knights++
		case chess.Bishop:
			bishopSquares = append(bishopSquares, sq)
			bishopColors = append(bishopColors, piece.Color())
		default:
			return false
		}
	}
	minors := knights + len(bishopSquares)
	if minors <= 1 {
		return true
	}
	if knights == 0 && len(bishopSquares) == 2 && bishopColors[0] != bishopColors[1] {
		return squareShade(bishopSquares[0]) == squareShade(bishopSquares[1])
	}
	return false
}

func squareShade(sq chess.Square) int {
	return (int(sq)/8 + int(sq)%8) % 2
}

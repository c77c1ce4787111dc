package search

import "github.com/pkg/errors"

var (
	// ErrGameOver is returned when a search is requested on a terminal position.
	ErrGameOver = errors.New("game is over")

	// ErrNoLegalMoves is returned when a non-terminal position reports zero
	// legal moves at the root. This is a rules engine contract breach, not a
	// search failure.
	ErrNoLegalMoves = errors.New("no legal moves available")

	// ErrInternalSearch is returned when the recursion reaches a position
	// the rules engine claims is non-terminal but that yields no legal moves.
	ErrInternalSearch = errors.New("internal search error: non-terminal position yielded no moves")
)

package search

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/armand-ratombotiana/Hybrid-3D-Chess-Engine/game"
)

const (
	// Fool's mate: white to move and checkmated.
	whiteMatedFEN = "rnb1kbnr/pppp1ppp/8/4p3/6Pq/5P2/PPPPP2P/RNBQKBNR w KQkq - 1 3"
	// Scholar's mate: black to move and checkmated.
	blackMatedFEN = "r1bqkb1r/pppp1Qpp/2n2n2/4p3/2B1P3/8/PPPP1PPP/RNB1K1NR b KQkq - 0 4"
	stalemateFEN  = "7k/5Q2/6K1/8/8/8/8/8 b - - 0 1"
	kingsOnlyFEN  = "k7/8/K7/8/8/8/8/8 w - - 0 1"
	kingKnightFEN = "k7/8/K7/8/8/8/8/6N1 w - - 0 1"
)

func TestEvaluateStartingPosition(t *testing.T) {
	pos := game.StartingPosition()

	// Material and positional contributions cancel by symmetry; the only
	// remainder is the single-sided mobility term, 10 per legal move for
	// the side on move.
	require.Len(t, pos.LegalMoves(), 20)
	require.Equal(t, 200, Evaluate(pos))
}

func TestEvaluateDeterministicAndPure(t *testing.T) {
	pos, err := game.NewPosition("r1bqkbnr/pppp1ppp/2n5/4p3/4P3/5N2/PPPP1PPP/RNBQKB1R w KQkq - 2 3")
	require.NoError(t, err)

	before := pos.FEN()
	first := Evaluate(pos)
	second := Evaluate(pos)
	require.Equal(t, first, second)
	require.Equal(t, before, pos.FEN())
}

func TestEvaluateCheckmate(t *testing.T) {
	pos, err := game.NewPosition(whiteMatedFEN)
	require.NoError(t, err)
	require.Equal(t, -MateScore, Evaluate(pos))

	pos, err = game.NewPosition(blackMatedFEN)
	require.NoError(t, err)
	require.Equal(t, MateScore, Evaluate(pos))
}

func TestEvaluateDrawnPositions(t *testing.T) {
	for _, fen := range []string{stalemateFEN, kingsOnlyFEN, kingKnightFEN} {
		pos, err := game.NewPosition(fen)
		require.NoError(t, err)
		require.Equal(t, 0, Evaluate(pos), "fen %s", fen)
	}
}

func TestEvaluateMaterialImbalance(t *testing.T) {
	// White queen vs bare king. White to move, so the mobility term also
	// favors white; the score must be decisively positive either way.
	pos, err := game.NewPosition("k7/8/8/8/8/8/1Q6/K7 w - - 0 1")
	require.NoError(t, err)
	require.Greater(t, Evaluate(pos), 800)
}

func TestEvaluateMobilitySign(t *testing.T) {
	// Same piece placement, opposite side to move: scores must differ by
	// exactly the two mobility terms since material is symmetric.
	white, err := game.NewPosition("rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1")
	require.NoError(t, err)
	black, err := game.NewPosition("rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR b KQkq - 0 1")
	require.NoError(t, err)

	require.Equal(t, 200, Evaluate(white))
	require.Equal(t, -200, Evaluate(black))
}

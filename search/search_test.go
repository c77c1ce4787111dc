package search

import (
	"testing"

	"github.com/notnil/chess"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/armand-ratombotiana/Hybrid-3D-Chess-Engine/game"
)

// Scholar's mate one ply before delivery: white mates with Qxf7.
const whiteMateInOneFEN = "r1bqkb1r/pppp1ppp/2n2n2/4p2Q/2B1P3/8/PPPP1PPP/RNB1K1NR w KQkq - 4 4"

// Fool's mate one ply before delivery: black mates with Qh4.
const blackMateInOneFEN = "rnbqkbnr/pppp1ppp/8/4p3/6P1/5P2/PPPPP2P/RNBQKBNR b KQkq g3 0 2"

func TestBestMoveIsLegal(t *testing.T) {
	pos := game.StartingPosition()
	res, err := BestMove(pos, 2)
	require.NoError(t, err)

	require.Contains(t, pos.LegalMoves(), res.Move)
	require.Equal(t, 2, res.Depth)
	require.Equal(t, []game.Move{res.Move}, res.PV)
	require.Greater(t, res.Nodes, 0)
}

func TestBestMoveNodeGrowth(t *testing.T) {
	pos := game.StartingPosition()

	var prev int
	for depth := 1; depth <= 3; depth++ {
		res, err := BestMove(pos, depth)
		require.NoError(t, err)
		require.GreaterOrEqual(t, res.Nodes, prev, "depth %d", depth)
		prev = res.Nodes
	}
}

// fullMinimax is an unpruned reference search over the same tree, used to
// check that pruning never changes the score.
func fullMinimax(t *testing.T, pos *game.Position, depth int, maximizing bool) int {
	t.Helper()
	if depth == 0 || pos.Status() != game.StatusNone {
		return Evaluate(pos)
	}
	moves := pos.LegalMoves()
	require.NotEmpty(t, moves)

	var best int
	if maximizing {
		best = negInf
	} else {
		best = posInf
	}
	for _, m := range moves {
		score := fullMinimax(t, pos.Apply(m), depth-1, !maximizing)
		if maximizing && score > best {
			best = score
		}
		if !maximizing && score < best {
			best = score
		}
	}
	return best
}

func TestPruningEquivalence(t *testing.T) {
	fens := []string{
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1",
		"r1bqkbnr/pppp1ppp/2n5/4p3/4P3/5N2/PPPP1PPP/RNBQKB1R w KQkq - 2 3",
		"rnbqkb1r/ppp2ppp/4pn2/3p4/2PP4/5N2/PP2PPPP/RNBQKB1R b KQkq - 1 3",
	}
	for _, fen := range fens {
		pos, err := game.NewPosition(fen)
		require.NoError(t, err)

		res, err := BestMove(pos, 2)
		require.NoError(t, err)

		maximizing := pos.Turn() == chess.White
		moves := pos.LegalMoves()
		var want int
		if maximizing {
			want = negInf
		} else {
			want = posInf
		}
		for _, m := range moves {
			score := fullMinimax(t, pos.Apply(m), 1, !maximizing)
			if maximizing && score > want {
				want = score
			}
			if !maximizing && score < want {
				want = score
			}
		}
		require.Equal(t, float64(want)/100.0, res.Score, "fen %s", fen)
	}
}

func TestBestMoveFindsMateInOneWhite(t *testing.T) {
	pos, err := game.NewPosition(whiteMateInOneFEN)
	require.NoError(t, err)

	for depth := 1; depth <= 3; depth++ {
		res, err := BestMove(pos, depth)
		require.NoError(t, err)
		require.Equal(t, game.Move("h5f7"), res.Move, "depth %d", depth)
		require.GreaterOrEqual(t, res.Score, float64(MateScore)/100.0, "depth %d", depth)
	}
}

func TestBestMoveFindsMateInOneBlack(t *testing.T) {
	pos, err := game.NewPosition(blackMateInOneFEN)
	require.NoError(t, err)

	res, err := BestMove(pos, 1)
	require.NoError(t, err)
	require.Equal(t, game.Move("d8h4"), res.Move)
	require.LessOrEqual(t, res.Score, -float64(MateScore)/100.0)
}

func TestBestMoveDeterministic(t *testing.T) {
	// First-seen-wins tie breaking makes the whole search deterministic.
	pos := game.StartingPosition()
	first, err := BestMove(pos, 2)
	require.NoError(t, err)
	second, err := BestMove(pos, 2)
	require.NoError(t, err)

	require.Equal(t, first.Move, second.Move)
	require.Equal(t, first.Score, second.Score)
	require.Equal(t, first.Nodes, second.Nodes)
}

func TestBestMoveRejectsTerminalPositions(t *testing.T) {
	for _, fen := range []string{whiteMatedFEN, blackMatedFEN, stalemateFEN, kingsOnlyFEN} {
		pos, err := game.NewPosition(fen)
		require.NoError(t, err)

		_, err = BestMove(pos, 2)
		require.Error(t, err, "fen %s", fen)
		require.True(t, errors.Is(err, ErrGameOver), "fen %s: %v", fen, err)
	}
}

func TestBestMoveRejectsBadDepth(t *testing.T) {
	pos := game.StartingPosition()
	_, err := BestMove(pos, 0)
	require.Error(t, err)
	_, err = BestMove(pos, -1)
	require.Error(t, err)
}

func TestBestMoveFallbackUnreachable(t *testing.T) {
	fens := []string{
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1",
		whiteMateInOneFEN,
		blackMateInOneFEN,
	}
	for _, fen := range fens {
		pos, err := game.NewPosition(fen)
		require.NoError(t, err)

		res, err := BestMove(pos, 2)
		require.NoError(t, err)
		require.False(t, res.fallback, "fen %s: move must come from the scored comparison", fen)
	}
}

func TestBestMoveDoesNotMutatePosition(t *testing.T) {
	pos, err := game.NewPosition(whiteMateInOneFEN)
	require.NoError(t, err)

	before := pos.FEN()
	beforeHash := pos.Hash()
	_, err = BestMove(pos, 3)
	require.NoError(t, err)

	require.Equal(t, before, pos.FEN())
	require.Equal(t, beforeHash, pos.Hash())
}

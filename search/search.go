// Package search implements a bounded-depth alpha-beta minimax over chess
// positions. Scores are absolute: every node, leaves included, is evaluated
// from white's perspective, and the tree alternates explicit maximizing and
// minimizing plies. There is no negamax negation anywhere, the root included.
package search

import (
	"math"

	"github.com/notnil/chess"
	"github.com/pkg/errors"

	"github.com/armand-ratombotiana/Hybrid-3D-Chess-Engine/game"
)

const (
	posInf = math.MaxInt32
	negInf = math.MinInt32
)

// Result is the outcome of one best-move search.
type Result struct {
	Move  game.Move
	Score float64 // in pawns, centipawns / 100, from white's perspective
	Depth int
	Nodes int
	// PV holds the principal variation. This engine does not reconstruct a
	// full best line; PV is always exactly the one best root move.
	PV []game.Move

	fallback bool
}

// stats accumulates per-invocation search statistics. It is created fresh
// for every BestMove call and threaded through the recursion, so concurrent
// searches never share counters.
type stats struct {
	nodes int
}

// BestMove searches the position to the given depth and returns the best
// move with its evaluation and search statistics.
//
// The position must be non-terminal (else ErrGameOver) and must have at
// least one legal move (else ErrNoLegalMoves), and depth must be at least 1.
// None of these failures are retryable without changing the position.
// The input position is never mutated.
func BestMove(pos *game.Position, depth int) (*Result, error) {
	if depth < 1 {
		return nil, errors.Errorf("search depth must be >= 1, got %d", depth)
	}
	if status := pos.Status(); status != game.StatusNone {
		return nil, errors.Wrapf(ErrGameOver, "position is %v", status)
	}
	moves := pos.LegalMoves()
	if len(moves) == 0 {
		return nil, errors.Wrapf(ErrNoLegalMoves, "fen %q", pos.FEN())
	}

	st := &stats{}
	maximizing := pos.Turn() == chess.White

	// Single root window. The root tightens only its own bound (alpha when
	// maximizing, beta when minimizing), so it never cuts off its own move
	// list; the tightened bound prunes deeper into later siblings' subtrees.
	alpha, beta := negInf, posInf
	var best game.Move
	var bestScore int
	var found bool
	for _, m := range moves {
		score, err := alphaBeta(pos.Apply(m), depth-1, alpha, beta, !maximizing, st)
		if err != nil {
			return nil, err
		}
		// Strict improvement only: ties keep the earliest-enumerated move.
		if !found || better(score, bestScore, maximizing) {
			best, bestScore, found = m, score, true
		}
		if maximizing {
			if bestScore > alpha {
				alpha = bestScore
			}
		} else {
			if bestScore < beta {
				beta = bestScore
			}
		}
	}

	retVal := &Result{
		Move:  best,
		Score: float64(bestScore) / 100.0,
		Depth: depth,
		Nodes: st.nodes,
		PV:    []game.Move{best},
	}
	if !found {
		// Unreachable given the preconditions above; kept so the result is
		// never undefined.
		retVal.Move = moves[0]
		retVal.Score = 0
		retVal.PV = []game.Move{moves[0]}
		retVal.fallback = true
	}
	return retVal, nil
}

func better(score, best int, maximizing bool) bool {
	if maximizing {
		return score > best
	}
	return score < best
}

// alphaBeta recursively scores a position. Every activation, leaves
// included, counts one node before any other work.
func alphaBeta(pos *game.Position, depth, alpha, beta int, maximizing bool, st *stats) (int, error) {
	st.nodes++

	if depth == 0 || pos.Status() != game.StatusNone {
		return Evaluate(pos), nil
	}

	moves := pos.LegalMoves()
	if len(moves) == 0 {
		return 0, errors.Wrapf(ErrInternalSearch, "fen %q", pos.FEN())
	}

	if maximizing {
		best := negInf
		for _, m := range moves {
			score, err := alphaBeta(pos.Apply(m), depth-1, alpha, beta, false, st)
			if err != nil {
				return 0, err
			}
			if score > best {
				best = score
			}
			if score > alpha {
				alpha = score
			}
			if beta <= alpha {
				break // beta cutoff
			}
		}
		return best, nil
	}

	best := posInf
	for _, m := range moves {
		score, err := alphaBeta(pos.Apply(m), depth-1, alpha, beta, true, st)
		if err != nil {
			return 0, err
		}
		if score < best {
			best = score
		}
		if score < beta {
			beta = score
		}
		if beta <= alpha {
			break // alpha cutoff
		}
	}
	return best, nil
}

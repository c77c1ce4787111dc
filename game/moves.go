package game

import (
	"bufio"
	"os"

	"github.com/pkg/errors"
)

// Vocabulary maps neural network output indices to UCI moves and back.
// It is read from a file containing 'almost' all possible UCI notation moves,
// one move per line; the line number is the move's index in the policy vector.
type Vocabulary struct {
	moves []Move
	index map[Move]int32
}

// ReadVocabulary reads a move vocabulary file.
func ReadVocabulary(path string) (*Vocabulary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "opening moves file")
	}
	defer f.Close()

	v := &Vocabulary{index: make(map[Move]int32)}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		m := Move(scanner.Text())
		if m == "" {
			continue
		}
		if _, ok := v.index[m]; ok {
			continue
		}
		v.index[m] = int32(len(v.moves))
		v.moves = append(v.moves, m)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "reading moves file")
	}
	if len(v.moves) == 0 {
		return nil, errors.Errorf("moves file %s is empty", path)
	}
	return v, nil
}

// Len returns the size of the action space.
func (v *Vocabulary) Len() int { return len(v.moves) }

// MoveAt returns the move at a policy index.
func (v *Vocabulary) MoveAt(idx int32) (Move, bool) {
	if idx < 0 || int(idx) >= len(v.moves) {
		return "", false
	}
	return v.moves[idx], true
}

// Index returns the policy index of a move.
func (v *Vocabulary) Index(m Move) (int32, bool) {
	idx, ok := v.index[m]
	return idx, ok
}

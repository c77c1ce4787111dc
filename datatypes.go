package hybridchess

import (
	"io"

	dual "github.com/armand-ratombotiana/Hybrid-3D-Chess-Engine/dualnet"
	"github.com/armand-ratombotiana/Hybrid-3D-Chess-Engine/game"
)

// Config for the Engine. It holds the search depth of the fallback engine,
// the neural network configuration and the move vocabulary location.
type Config struct {
	Name      string      `json:"name"`
	Depth     int         `json:"depth"`      // search depth of the minimax fallback
	MovesFile string      `json:"moves_file"` // UCI move vocabulary, one move per line
	NNConf    dual.Config `json:"nn_conf"`

	// extensions
	Encoder PositionEncoder
}

// PositionEncoder encodes a position as a slice of floats for the network.
type PositionEncoder func(p *game.Position) []float32

// Example is a single training example.
type Example struct {
	Board  []float32
	Policy []float32
	Value  float32
}

// Dualer is an interface for anything that allows getting out a *Dual.
type Dualer interface {
	Dual() *dual.Dual
}

// Inferer is anything that can infer given an input.
type Inferer interface {
	Infer(a []float32) (policy []float32, value float32, err error)
	io.Closer
}

// ExecLogger is anything that can return the execution log.
type ExecLogger interface {
	ExecLog() string
}

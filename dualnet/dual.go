// Package dual implements the policy+value network of the engine: a stack of
// shared convolutional layers feeding a policy head (move probabilities over
// the action space) and a value head (a tanh-squashed scalar evaluation).
package dual

import (
	"bytes"
	"encoding/gob"
	"fmt"

	"github.com/pkg/errors"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// Dual is the policy+value network. The zero value is not usable; create
// one with New and build the graph with Init.
type Dual struct {
	Conf Config

	g      *G.ExprGraph
	input  *G.Node
	policy *G.Node
	value  *G.Node
	ws     G.Nodes // learnables, in creation order
}

// New creates an unbuilt network from a configuration.
func New(conf Config) *Dual {
	return &Dual{Conf: conf}
}

// Dual returns the network itself. It exists so that anything holding a
// *Dual trivially satisfies the Dualer interface.
func (d *Dual) Dual() *Dual { return d }

// Init builds the computation graph. For forward-only graphs the batch
// size is pinned to 1.
func (d *Dual) Init() error {
	if !d.Conf.IsValid() {
		return errors.Errorf("invalid network config %+v", d.Conf)
	}
	d.g = G.NewGraph()
	d.ws = nil

	bs := d.Conf.BatchSize
	if d.Conf.FwdOnly {
		bs = 1
	}
	h, w := d.Conf.Height, d.Conf.Width
	d.input = G.NewTensor(d.g, tensor.Float32, 4,
		G.WithShape(bs, d.Conf.Features, h, w), G.WithName("input"))

	// Shared convolutional stack.
	prev := d.input
	channels := d.Conf.Features
	for i := 0; i < d.Conf.SharedLayers; i++ {
		cw := d.addWeight(fmt.Sprintf("convW%d", i), tensor.Shape{d.Conf.K, channels, 3, 3})
		c, err := G.Conv2d(prev, cw, tensor.Shape{3, 3}, []int{1, 1}, []int{1, 1}, []int{1, 1})
		if err != nil {
			return errors.Wrapf(err, "conv layer %d", i)
		}
		a, err := G.Rectify(c)
		if err != nil {
			return errors.Wrapf(err, "conv layer %d activation", i)
		}
		prev = a
		channels = d.Conf.K
	}

	flat, err := G.Reshape(prev, tensor.Shape{bs, channels * h * w})
	if err != nil {
		return errors.Wrap(err, "flattening shared stack")
	}

	// Policy head: FC to softmax over the action space.
	pw := d.addWeight("policyW", tensor.Shape{channels * h * w, d.Conf.ActionSpace})
	pfc, err := G.Mul(flat, pw)
	if err != nil {
		return errors.Wrap(err, "policy head")
	}
	if d.policy, err = G.SoftMax(pfc); err != nil {
		return errors.Wrap(err, "policy softmax")
	}

	// Value head: FC, rectify, FC to a tanh scalar.
	vw0 := d.addWeight("valueW0", tensor.Shape{channels * h * w, d.Conf.FC})
	vfc, err := G.Mul(flat, vw0)
	if err != nil {
		return errors.Wrap(err, "value head")
	}
	va, err := G.Rectify(vfc)
	if err != nil {
		return errors.Wrap(err, "value head activation")
	}
	vw1 := d.addWeight("valueW1", tensor.Shape{d.Conf.FC, 1})
	vout, err := G.Mul(va, vw1)
	if err != nil {
		return errors.Wrap(err, "value head output")
	}
	if d.value, err = G.Tanh(vout); err != nil {
		return errors.Wrap(err, "value tanh")
	}
	return nil
}

func (d *Dual) addWeight(name string, shp tensor.Shape) *G.Node {
	w := G.NewTensor(d.g, tensor.Float32, shp.Dims(),
		G.WithShape(shp...), G.WithInit(G.GlorotU(1.0)), G.WithName(name))
	d.ws = append(d.ws, w)
	return w
}

// Clone builds a fresh network with the same configuration and copies of
// the receiver's weights.
func (d *Dual) Clone() (*Dual, error) {
	if d.g == nil {
		return nil, errors.New("cannot clone an uninitialized network")
	}
	d2 := New(d.Conf)
	if err := d2.Init(); err != nil {
		return nil, err
	}
	if err := d2.setWeights(d.ws); err != nil {
		return nil, err
	}
	return d2, nil
}

func (d *Dual) setWeights(src G.Nodes) error {
	if len(src) != len(d.ws) {
		return errors.Errorf("weight count mismatch: %d vs %d", len(src), len(d.ws))
	}
	for i, w := range d.ws {
		t, ok := src[i].Value().(*tensor.Dense)
		if !ok {
			return errors.Errorf("weight %s has no dense value", src[i].Name())
		}
		if err := G.Let(w, t.Clone().(*tensor.Dense)); err != nil {
			return errors.Wrapf(err, "copying weight %s", w.Name())
		}
	}
	return nil
}

// GobEncode serializes the configuration and weights.
func (d *Dual) GobEncode() ([]byte, error) {
	if d.g == nil {
		return nil, errors.New("cannot encode an uninitialized network")
	}
	var buf bytes.Buffer
	enc := gob.NewEncoder(&buf)
	if err := enc.Encode(d.Conf); err != nil {
		return nil, errors.WithStack(err)
	}
	for _, w := range d.ws {
		t, ok := w.Value().(*tensor.Dense)
		if !ok {
			return nil, errors.Errorf("weight %s has no dense value", w.Name())
		}
		if err := enc.Encode(t); err != nil {
			return nil, errors.Wrapf(err, "encoding weight %s", w.Name())
		}
	}
	return buf.Bytes(), nil
}

// GobDecode rebuilds the network from a serialized configuration and weights.
func (d *Dual) GobDecode(p []byte) error {
	dec := gob.NewDecoder(bytes.NewReader(p))
	if err := dec.Decode(&d.Conf); err != nil {
		return errors.WithStack(err)
	}
	if err := d.Init(); err != nil {
		return err
	}
	for _, w := range d.ws {
		var t *tensor.Dense
		if err := dec.Decode(&t); err != nil {
			return errors.Wrapf(err, "decoding weight %s", w.Name())
		}
		if err := G.Let(w, t); err != nil {
			return errors.Wrapf(err, "restoring weight %s", w.Name())
		}
	}
	return nil
}

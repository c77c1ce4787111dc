package dual

import (
	"bytes"
	"fmt"

	"github.com/chewxy/math32"
	"github.com/pkg/errors"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// InferenceSession is a compiled forward-only copy of a network. It owns its
// own graph and weight copies, so multiple sessions built from one network
// can run concurrently. A single session is not safe for concurrent use.
type InferenceSession struct {
	d   *Dual
	m   G.VM
	buf bytes.Buffer
}

// Infer builds an inference session from a trained network.
func Infer(d *Dual) (*InferenceSession, error) {
	if d.g == nil {
		return nil, errors.New("cannot infer from an uninitialized network")
	}
	conf := d.Conf
	conf.FwdOnly = true
	fwd := New(conf)
	if err := fwd.Init(); err != nil {
		return nil, err
	}
	if err := fwd.setWeights(d.ws); err != nil {
		return nil, err
	}
	return &InferenceSession{
		d: fwd,
		m: G.NewTapeMachine(fwd.g),
	}, nil
}

// Infer runs one forward pass. The input must be a flattened
// Features x Height x Width board encoding.
func (s *InferenceSession) Infer(input []float32) (policy []float32, value float32, err error) {
	conf := s.d.Conf
	if len(input) != conf.Features*conf.Height*conf.Width {
		return nil, 0, errors.Errorf("input has %d elements, want %d",
			len(input), conf.Features*conf.Height*conf.Width)
	}
	t := tensor.New(
		tensor.WithShape(1, conf.Features, conf.Height, conf.Width),
		tensor.WithBacking(input),
	)
	if err = G.Let(s.d.input, t); err != nil {
		return nil, 0, errors.WithStack(err)
	}
	if err = s.m.RunAll(); err != nil {
		fmt.Fprintf(&s.buf, "forward pass failed: %+v\n", err)
		return nil, 0, errors.Wrap(err, "forward pass")
	}
	defer s.m.Reset()

	policy = append(policy, s.d.policy.Value().Data().([]float32)...)
	switch v := s.d.value.Value().Data().(type) {
	case float32:
		value = v
	case []float32:
		value = v[0]
	default:
		return nil, 0, errors.Errorf("unexpected value head output %T", v)
	}
	if math32.IsNaN(value) || math32.IsInf(value, 0) {
		fmt.Fprintf(&s.buf, "value head produced %v\n", value)
		return nil, 0, errors.Errorf("value head produced %v", value)
	}
	return policy, value, nil
}

// ExecLog returns the accumulated execution failure log of the session.
func (s *InferenceSession) ExecLog() string { return s.buf.String() }

// Close releases the session's virtual machine.
func (s *InferenceSession) Close() error { return s.m.Close() }

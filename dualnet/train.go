package dual

import (
	"log"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/stat"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

type sli struct {
	start, end int
}

func (s sli) Start() int { return s.start }
func (s sli) End() int   { return s.end }
func (s sli) Step() int  { return 1 }

// Train fits the network on batches of (board, policy, value) examples.
// xs must be shaped (N, Features, Height, Width), policies (N, ActionSpace)
// and values (N), with N divisible by batches. The loss is policy
// cross-entropy plus value mean squared error, minimized with Adam.
//
// Loss nodes and gradients cannot be added to a graph twice, so each call
// trains a fresh copy of the network and copies the weights back into d on
// success. Train may therefore be called repeatedly on the same network.
func Train(d *Dual, xs, policies, values *tensor.Dense, batches, epochs int, learnRate float64) error {
	if d.g == nil {
		return errors.New("cannot train an uninitialized network")
	}
	if d.Conf.FwdOnly {
		return errors.New("cannot train a forward-only network")
	}
	if batches < 1 {
		return errors.Errorf("batches must be >= 1, got %d", batches)
	}
	if learnRate <= 0 || learnRate >= 1 {
		return errors.Errorf("learning rate must be in (0, 1), got %v", learnRate)
	}
	total := xs.Shape()[0]
	if total%batches != 0 {
		return errors.Errorf("%d examples do not divide into %d batches", total, batches)
	}
	bs := total / batches

	conf := d.Conf
	conf.BatchSize = bs
	trainee := New(conf)
	if err := trainee.Init(); err != nil {
		return err
	}
	if err := trainee.setWeights(d.ws); err != nil {
		return err
	}

	policyT := G.NewMatrix(trainee.g, tensor.Float32,
		G.WithShape(bs, conf.ActionSpace), G.WithName("policyTarget"))
	valueT := G.NewVector(trainee.g, tensor.Float32,
		G.WithShape(bs), G.WithName("valueTarget"))

	logProbs, err := G.Log(trainee.policy)
	if err != nil {
		return errors.Wrap(err, "building policy loss")
	}
	weighted, err := G.HadamardProd(policyT, logProbs)
	if err != nil {
		return errors.Wrap(err, "building policy loss")
	}
	perExample, err := G.Sum(weighted, 1)
	if err != nil {
		return errors.Wrap(err, "building policy loss")
	}
	xent, err := G.Mean(perExample)
	if err != nil {
		return errors.Wrap(err, "building policy loss")
	}
	if xent, err = G.Neg(xent); err != nil {
		return errors.Wrap(err, "building policy loss")
	}

	vflat, err := G.Reshape(trainee.value, tensor.Shape{bs})
	if err != nil {
		return errors.Wrap(err, "building value loss")
	}
	vdiff, err := G.Sub(vflat, valueT)
	if err != nil {
		return errors.Wrap(err, "building value loss")
	}
	vsq, err := G.Square(vdiff)
	if err != nil {
		return errors.Wrap(err, "building value loss")
	}
	mse, err := G.Mean(vsq)
	if err != nil {
		return errors.Wrap(err, "building value loss")
	}

	cost, err := G.Add(xent, mse)
	if err != nil {
		return errors.Wrap(err, "building cost")
	}
	var costVal G.Value
	G.Read(cost, &costVal)

	if _, err = G.Grad(cost, trainee.ws...); err != nil {
		return errors.Wrap(err, "building gradients")
	}

	m := G.NewTapeMachine(trainee.g, G.BindDualValues(trainee.ws...))
	defer m.Close()
	solver := G.NewAdamSolver(G.WithBatchSize(float64(bs)), G.WithLearnRate(learnRate))
	model := G.NodesToValueGrads(trainee.ws)

	losses := make([]float64, 0, batches)
	for epoch := 0; epoch < epochs; epoch++ {
		losses = losses[:0]
		for b := 0; b < batches; b++ {
			start := b * bs
			end := start + bs

			xi, err := xs.Slice(sli{start, end})
			if err != nil {
				return errors.Wrapf(err, "slicing inputs for batch %d", b)
			}
			pi, err := policies.Slice(sli{start, end})
			if err != nil {
				return errors.Wrapf(err, "slicing policies for batch %d", b)
			}
			vi, err := values.Slice(sli{start, end})
			if err != nil {
				return errors.Wrapf(err, "slicing values for batch %d", b)
			}

			if err = G.Let(trainee.input, xi); err != nil {
				return errors.WithStack(err)
			}
			if err = G.Let(policyT, pi); err != nil {
				return errors.WithStack(err)
			}
			if err = G.Let(valueT, vi); err != nil {
				return errors.WithStack(err)
			}

			if err = m.RunAll(); err != nil {
				return errors.Wrapf(err, "running batch %d of epoch %d", b, epoch)
			}
			if err = solver.Step(model); err != nil {
				return errors.Wrapf(err, "solver step, batch %d of epoch %d", b, epoch)
			}
			m.Reset()

			losses = append(losses, float64(costVal.Data().(float32)))
		}
		log.Printf("epoch %d: mean loss %.4f (stddev %.4f)",
			epoch, stat.Mean(losses, nil), stat.StdDev(losses, nil))
	}
	return d.setWeights(trainee.ws)
}

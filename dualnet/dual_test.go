package dual

import (
	"bytes"
	"encoding/gob"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
	"gorgonia.org/tensor"
)

func tinyConf() Config {
	return Config{
		K:            2,
		SharedLayers: 1,
		FC:           4,
		BatchSize:    2,
		Width:        8,
		Height:       8,
		Features:     12,
		ActionSpace:  8,
	}
}

func randomInput(conf Config) []float32 {
	r := rand.New(rand.NewSource(1))
	input := make([]float32, conf.Features*conf.Height*conf.Width)
	for i := range input {
		input[i] = r.Float32()
	}
	return input
}

func TestConfigIsValid(t *testing.T) {
	require.True(t, tinyConf().IsValid())

	conf := DefaultConf(8, 8, 1968)
	require.True(t, conf.IsValid())
	require.Equal(t, 12, conf.Features)

	bad := tinyConf()
	bad.K = 0
	require.False(t, bad.IsValid())

	bad = tinyConf()
	bad.ActionSpace = 2
	require.False(t, bad.IsValid())

	bad = tinyConf()
	bad.FC = 1
	require.False(t, bad.IsValid())
}

func TestInitRejectsInvalidConfig(t *testing.T) {
	d := New(Config{})
	require.Error(t, d.Init())
}

func TestInferShapes(t *testing.T) {
	d := New(tinyConf())
	require.NoError(t, d.Init())

	sess, err := Infer(d)
	require.NoError(t, err)
	defer sess.Close()

	policy, value, err := sess.Infer(randomInput(d.Conf))
	require.NoError(t, err)
	require.Len(t, policy, d.Conf.ActionSpace)
	require.GreaterOrEqual(t, value, float32(-1))
	require.LessOrEqual(t, value, float32(1))

	// The policy head is a softmax: probabilities sum to ~1.
	var sum float32
	for _, p := range policy {
		require.GreaterOrEqual(t, p, float32(0))
		sum += p
	}
	require.InDelta(t, 1.0, float64(sum), 1e-3)
}

func TestInferRejectsBadInput(t *testing.T) {
	d := New(tinyConf())
	require.NoError(t, d.Init())

	sess, err := Infer(d)
	require.NoError(t, err)
	defer sess.Close()

	_, _, err = sess.Infer(make([]float32, 3))
	require.Error(t, err)
}

func TestInferDeterministic(t *testing.T) {
	d := New(tinyConf())
	require.NoError(t, d.Init())

	sess, err := Infer(d)
	require.NoError(t, err)
	defer sess.Close()

	input := randomInput(d.Conf)
	p1, v1, err := sess.Infer(input)
	require.NoError(t, err)
	p2, v2, err := sess.Infer(input)
	require.NoError(t, err)

	require.Equal(t, p1, p2)
	require.Equal(t, v1, v2)
}

func TestGobRoundTrip(t *testing.T) {
	d := New(tinyConf())
	require.NoError(t, d.Init())

	var buf bytes.Buffer
	require.NoError(t, gob.NewEncoder(&buf).Encode(d))

	d2 := New(Config{})
	require.NoError(t, gob.NewDecoder(&buf).Decode(d2))
	require.Equal(t, d.Conf, d2.Conf)

	// Both networks must produce identical outputs on the same input.
	s1, err := Infer(d)
	require.NoError(t, err)
	defer s1.Close()
	s2, err := Infer(d2)
	require.NoError(t, err)
	defer s2.Close()

	input := randomInput(d.Conf)
	p1, v1, err := s1.Infer(input)
	require.NoError(t, err)
	p2, v2, err := s2.Infer(input)
	require.NoError(t, err)
	require.Equal(t, p1, p2)
	require.Equal(t, v1, v2)
}

func TestTrainRejectsUntrainableNetworks(t *testing.T) {
	dummy := tensor.New(tensor.WithShape(2), tensor.Of(tensor.Float32))

	require.Error(t, Train(New(tinyConf()), dummy, dummy, dummy, 1, 1, 0.001))

	conf := tinyConf()
	conf.FwdOnly = true
	fwd := New(conf)
	require.NoError(t, fwd.Init())
	require.Error(t, Train(fwd, dummy, dummy, dummy, 1, 1, 0.001))

	d := New(tinyConf())
	require.NoError(t, d.Init())
	require.Error(t, Train(d, dummy, dummy, dummy, 1, 1, 0))
	require.Error(t, Train(d, dummy, dummy, dummy, 1, 1, 1.5))
}

func trainingBatch(conf Config, n int) (xs, policies, values *tensor.Dense) {
	r := rand.New(rand.NewSource(2))
	xsBacking := make([]float32, n*conf.Features*conf.Height*conf.Width)
	for i := range xsBacking {
		xsBacking[i] = r.Float32()
	}
	policiesBacking := make([]float32, n*conf.ActionSpace)
	valuesBacking := make([]float32, n)
	for i := 0; i < n; i++ {
		policiesBacking[i*conf.ActionSpace+r.Intn(conf.ActionSpace)] = 1
		valuesBacking[i] = r.Float32()*2 - 1
	}
	xs = tensor.New(tensor.WithBacking(xsBacking),
		tensor.WithShape(n, conf.Features, conf.Height, conf.Width))
	policies = tensor.New(tensor.WithBacking(policiesBacking),
		tensor.WithShape(n, conf.ActionSpace))
	values = tensor.New(tensor.WithBacking(valuesBacking), tensor.WithShape(n))
	return xs, policies, values
}

func TestTrainRepeatedly(t *testing.T) {
	// Training twice on the same network must work: the service retrains
	// the live network once per queued job.
	d := New(tinyConf())
	require.NoError(t, d.Init())

	xs, policies, values := trainingBatch(d.Conf, 2)
	require.NoError(t, Train(d, xs, policies, values, 1, 1, 0.001))
	require.NoError(t, Train(d, xs, policies, values, 1, 1, 0.001))

	// The trained network still infers cleanly.
	sess, err := Infer(d)
	require.NoError(t, err)
	defer sess.Close()

	_, value, err := sess.Infer(randomInput(d.Conf))
	require.NoError(t, err)
	require.GreaterOrEqual(t, value, float32(-1))
	require.LessOrEqual(t, value, float32(1))
}

func TestTrainBatchSizeFromExamples(t *testing.T) {
	// The batch size comes from the example tensors, not the network's
	// configured batch size.
	d := New(tinyConf())
	require.NoError(t, d.Init())

	xs, policies, values := trainingBatch(d.Conf, 8)
	require.NoError(t, Train(d, xs, policies, values, 2, 1, 0.001))

	// Example count not divisible by the batch count.
	xs, policies, values = trainingBatch(d.Conf, 3)
	require.Error(t, Train(d, xs, policies, values, 2, 1, 0.001))
}

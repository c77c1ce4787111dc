// Package hybridchess is the top level structure and the entry point of the
// API. The Engine wraps two move sources: a trained policy+value network,
// consulted first when a model is loaded, and a bounded-depth alpha-beta
// search that the engine always falls back to.
package hybridchess

import (
	"bufio"
	"encoding/gob"
	"log"
	"math/rand"
	"os"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/chewxy/math32"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"gorgonia.org/tensor"

	dual "github.com/armand-ratombotiana/Hybrid-3D-Chess-Engine/dualnet"
	"github.com/armand-ratombotiana/Hybrid-3D-Chess-Engine/game"
	"github.com/armand-ratombotiana/Hybrid-3D-Chess-Engine/search"
)

var numCPU = runtime.NumCPU()

// Engine answers best-move queries. All mutable search state lives in the
// per-call stack of the search package; the engine itself only guards its
// inference sessions, so one Engine may serve concurrent callers.
type Engine struct {
	sync.Mutex

	name  string
	depth int
	conf  Config
	vocab *game.Vocabulary
	enc   PositionEncoder

	nn       *dual.Dual
	inferer  chan Inferer
	inferers []Inferer
}

// New creates an Engine. A move vocabulary is read when the configuration
// names one; it is required for the neural network paths but not for pure
// search. No model is loaded yet: use LoadModel or Train.
func New(conf Config) (*Engine, error) {
	if conf.Depth < 1 {
		conf.Depth = 3
	}
	if conf.Encoder == nil {
		conf.Encoder = game.InputPlanes
	}

	e := &Engine{
		name:  conf.Name,
		depth: conf.Depth,
		enc:   conf.Encoder,
	}
	if conf.MovesFile != "" {
		vocab, err := game.ReadVocabulary(conf.MovesFile)
		if err != nil {
			return nil, err
		}
		e.vocab = vocab
		if conf.NNConf.ActionSpace != vocab.Len() {
			conf.NNConf = dual.DefaultConf(game.RowNum, game.ColNum, vocab.Len())
			conf.NNConf.Features = game.FeaturePlanes
			conf.NNConf.SharedLayers = 3
			conf.NNConf.BatchSize = 32
		}
	}
	e.conf = conf
	return e, nil
}

// Name returns the engine name.
func (e *Engine) Name() string { return e.name }

// Depth returns the configured fallback search depth.
func (e *Engine) Depth() int { return e.depth }

// ModelLoaded reports whether a neural network is available for prediction.
func (e *Engine) ModelLoaded() bool {
	e.Lock()
	defer e.Unlock()
	return e.inferer != nil
}

// BestMove runs the pure alpha-beta search on a FEN position. A depth < 1
// uses the engine's configured depth.
func (e *Engine) BestMove(fen string, depth int) (*search.Result, error) {
	pos, err := game.NewPosition(fen)
	if err != nil {
		return nil, err
	}
	if depth < 1 {
		depth = e.depth
	}
	return search.BestMove(pos, depth)
}

// Predict returns the best move for a FEN position. The neural network is
// consulted first when a model is loaded; on any prediction failure the
// engine falls back to the alpha-beta search, so the returned move is
// always drawn from the position's legal moves.
func (e *Engine) Predict(fen string) (*search.Result, error) {
	pos, err := game.NewPosition(fen)
	if err != nil {
		return nil, err
	}
	if e.ModelLoaded() {
		res, err := e.predictNN(pos)
		if err == nil {
			return res, nil
		}
		log.Printf("neural network prediction failed: %v, falling back to search", err)
	}
	return search.BestMove(pos, e.depth)
}

// pair is a tuple of policy score and move.
type pair struct {
	Move  game.Move
	Score float32
}

// byScore is a sortable list of pairs. It sorts the list with best score first.
type byScore []pair

func (l byScore) Len() int           { return len(l) }
func (l byScore) Less(i, j int) bool { return l[i].Score > l[j].Score }
func (l byScore) Swap(i, j int)      { l[i], l[j] = l[j], l[i] }

// predictNN picks the legal move the policy head rates highest. Policy mass
// on illegal moves is discarded and the remainder renormalized; if no mass
// survives, the legal moves are weighted uniformly.
func (e *Engine) predictNN(pos *game.Position) (*search.Result, error) {
	if e.vocab == nil {
		return nil, errors.New("no move vocabulary configured")
	}
	if status := pos.Status(); status != game.StatusNone {
		return nil, errors.Wrapf(search.ErrGameOver, "position is %v", status)
	}
	moves := pos.LegalMoves()
	if len(moves) == 0 {
		return nil, errors.Wrapf(search.ErrNoLegalMoves, "fen %q", pos.FEN())
	}

	e.Lock()
	ch := e.inferer
	e.Unlock()
	if ch == nil {
		return nil, errors.New("no model loaded")
	}

	input := e.enc(pos)
	inf := <-ch
	policy, value, err := inf.Infer(input)
	ch <- inf
	if err != nil {
		if el, ok := inf.(ExecLogger); ok {
			log.Println(el.ExecLog())
		}
		return nil, err
	}

	var nodelist []pair
	var legalSum float32
	for _, m := range moves {
		idx, ok := e.vocab.Index(m)
		if !ok || int(idx) >= len(policy) {
			continue
		}
		nodelist = append(nodelist, pair{Move: m, Score: policy[idx]})
		legalSum += policy[idx]
	}
	if len(nodelist) == 0 {
		return nil, errors.Errorf("no legal move of %q is in the vocabulary", pos.FEN())
	}

	if legalSum > math32.SmallestNonzeroFloat32 {
		for i := range nodelist {
			nodelist[i].Score /= legalSum
		}
	} else {
		prob := 1 / float32(len(nodelist))
		for i := range nodelist {
			nodelist[i].Score = prob
		}
	}
	sort.Sort(byScore(nodelist))

	best := nodelist[0].Move
	return &search.Result{
		Move:  best,
		Score: float64(value),
		PV:    []game.Move{best},
	}, nil
}

const defaultLearnRate = 0.001

// Train fits the network on positions read from a file of FEN strings, one
// per line. Labels come from the engine itself: the policy target is the
// move the alpha-beta search picks, and the value target its squashed
// score. A network is created on first training; later calls keep training
// the same network. A batchSize < 1 falls back to the configured batch
// size, a learnRate <= 0 to the default.
func (e *Engine) Train(fensFile string, epochs, batchSize int, learnRate float64) error {
	if e.vocab == nil {
		return errors.New("no move vocabulary configured")
	}
	if batchSize < 1 {
		batchSize = e.conf.NNConf.BatchSize
	}
	if learnRate <= 0 {
		learnRate = defaultLearnRate
	}
	fens, err := readFENs(fensFile)
	if err != nil {
		return err
	}

	examples, err := e.buildExamples(fens)
	if err != nil {
		return err
	}
	xs, policies, values, batches := e.prepareExamples(examples, batchSize)
	if batches == 0 {
		return errors.New("batches is nil, probably too few examples regarding the batchsize")
	}

	e.Lock()
	if e.nn == nil {
		e.nn = dual.New(e.conf.NNConf)
		if err := e.nn.Init(); err != nil {
			e.Unlock()
			return err
		}
	}
	nn := e.nn
	e.Unlock()

	log.Print("begin training")
	if err := dual.Train(nn, xs, policies, values, batches, epochs, learnRate); err != nil {
		return errors.WithMessage(err, "training failed")
	}
	return e.switchToInference()
}

func readFENs(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "opening positions file")
	}
	defer f.Close()

	var fens []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if line := scanner.Text(); line != "" {
			fens = append(fens, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "reading positions file")
	}
	return fens, nil
}

// buildExamples labels positions with the search. Positions whose best move
// is missing from the vocabulary are skipped.
func (e *Engine) buildExamples(fens []string) ([]Example, error) {
	labelDepth := e.depth
	if labelDepth > 2 {
		labelDepth = 2
	}

	var examples []Example
	for _, fen := range fens {
		pos, err := game.NewPosition(fen)
		if err != nil {
			return nil, err
		}
		if pos.Status() != game.StatusNone {
			continue
		}
		res, err := search.BestMove(pos, labelDepth)
		if err != nil {
			return nil, err
		}
		idx, ok := e.vocab.Index(res.Move)
		if !ok {
			continue
		}
		policy := make([]float32, e.vocab.Len())
		policy[idx] = 1
		examples = append(examples, Example{
			Board:  e.enc(pos),
			Policy: policy,
			Value:  math32.Tanh(float32(res.Score) / 10),
		})
	}
	return examples, nil
}

func (e *Engine) prepareExamples(examples []Example, bs int) (xs, policies, values *tensor.Dense, batches int) {
	shuffleExamples(examples)
	batches = len(examples) / bs
	total := batches * bs

	var xsBacking, policiesBacking, valuesBacking []float32
	for i, ex := range examples {
		if i >= total {
			break
		}
		xsBacking = append(xsBacking, ex.Board...)
		policiesBacking = append(policiesBacking, ex.Policy...)
		valuesBacking = append(valuesBacking, ex.Value)
	}
	if batches == 0 {
		return nil, nil, nil, 0
	}

	conf := e.conf.NNConf
	xs = tensor.New(tensor.WithBacking(xsBacking),
		tensor.WithShape(total, conf.Features, conf.Height, conf.Width))
	policies = tensor.New(tensor.WithBacking(policiesBacking),
		tensor.WithShape(total, conf.ActionSpace))
	values = tensor.New(tensor.WithBacking(valuesBacking), tensor.WithShape(total))
	return xs, policies, values, batches
}

func shuffleExamples(examples []Example) {
	r := rand.New(rand.NewSource(time.Now().UnixNano()))
	for i := range examples {
		j := r.Intn(i + 1)
		examples[i], examples[j] = examples[j], examples[i]
	}
}

// switchToInference compiles one forward-only session per CPU and makes the
// network available to Predict.
func (e *Engine) switchToInference() error {
	e.Lock()
	defer e.Unlock()
	if e.nn == nil {
		return errors.New("no network to switch to inference")
	}

	inferer := make(chan Inferer, numCPU)
	var inferers []Inferer
	for i := 0; i < numCPU; i++ {
		inf, err := dual.Infer(e.nn)
		if err != nil {
			for _, created := range inferers {
				created.Close()
			}
			return err
		}
		inferers = append(inferers, inf)
		inferer <- inf
	}
	e.closeSessions()
	e.inferer = inferer
	e.inferers = inferers
	return nil
}

// SaveModel writes the network to filename.
func (e *Engine) SaveModel(filename string) error {
	e.Lock()
	nn := e.nn
	e.Unlock()
	if nn == nil {
		return errors.New("no model to save")
	}

	f, err := os.OpenFile(filename, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return errors.WithStack(err)
	}
	defer f.Close()

	enc := gob.NewEncoder(f)
	return errors.WithStack(enc.Encode(nn))
}

// LoadModel reads a network from filename and switches it to inference.
func (e *Engine) LoadModel(filename string) error {
	f, err := os.Open(filename)
	if err != nil {
		return errors.WithStack(err)
	}
	defer f.Close()

	nn := dual.New(e.conf.NNConf)
	dec := gob.NewDecoder(f)
	if err = dec.Decode(nn); err != nil {
		return errors.WithStack(err)
	}

	e.Lock()
	e.nn = nn
	e.Unlock()
	return e.switchToInference()
}

// Close releases the engine's inference sessions.
func (e *Engine) Close() error {
	e.Lock()
	defer e.Unlock()
	return e.closeSessions()
}

// closeSessions must be called with the engine lock held. The channel is
// never closed: a Predict racing Close may still hold it, and a closed
// channel would hand it a nil session. A session received from the stale
// channel fails its forward pass and Predict falls back to the search.
func (e *Engine) closeSessions() error {
	if e.inferer == nil {
		return nil
	}
	var errs error
	for _, inf := range e.inferers {
		if err := inf.Close(); err != nil {
			errs = multierror.Append(errs, err)
		}
	}
	e.inferer = nil
	e.inferers = nil
	return errs
}

package server

import (
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	hybridchess "github.com/armand-ratombotiana/Hybrid-3D-Chess-Engine"
	"github.com/armand-ratombotiana/Hybrid-3D-Chess-Engine/game"
	"github.com/armand-ratombotiana/Hybrid-3D-Chess-Engine/search"
)

const activeModelFile = "chess_model.model"

// Server holds the engine and the training job queue behind the HTTP handlers.
type Server struct {
	cfg    *Config
	engine *hybridchess.Engine
	jobs   chan trainJob
}

type trainJob struct {
	ID           string
	Epochs       int
	BatchSize    int
	LearningRate float64
}

// New creates a Server and starts its training worker.
func New(cfg *Config, engine *hybridchess.Engine) *Server {
	s := &Server{
		cfg:    cfg,
		engine: engine,
		jobs:   make(chan trainJob, 4),
	}
	go s.trainWorker()
	return s
}

type predictRequest struct {
	FEN         string                 `json:"fen" binding:"required"`
	PlayerColor string                 `json:"playerColor"`
	GameID      string                 `json:"gameId"`
	TimeControl map[string]interface{} `json:"timeControl"`
}

type predictResponse struct {
	From         string   `json:"from"`
	To           string   `json:"to"`
	Promotion    string   `json:"promotion,omitempty"`
	Score        float64  `json:"score"`
	PV           []string `json:"pv"`
	Depth        int      `json:"depth"`
	Nodes        int      `json:"nodes"`
	ThinkingTime int64    `json:"thinkingTime"`
}

type trainRequest struct {
	Epochs       int     `json:"epochs"`
	BatchSize    int     `json:"batch_size"`
	LearningRate float64 `json:"learning_rate"`
}

// Health reports service liveness and whether a model is loaded.
func (s *Server) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":       "healthy",
		"model_loaded": s.engine.ModelLoaded(),
		"device":       s.cfg.Device,
	})
}

// Predict returns the best move for a position. The neural network is tried
// first when loaded; the engine falls back to alpha-beta search.
func (s *Server) Predict(c *gin.Context) {
	var req predictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing or invalid fen"})
		return
	}
	logrus.Infof("predict request: fen=%q color=%s", req.FEN, req.PlayerColor)

	start := time.Now()
	res, err := s.engine.Predict(req.FEN)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, search.ErrGameOver) || errors.Is(err, game.ErrInvalidFEN) {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	pv := make([]string, len(res.PV))
	for i, m := range res.PV {
		pv[i] = string(m)
	}
	c.JSON(http.StatusOK, predictResponse{
		From:         res.Move.From(),
		To:           res.Move.To(),
		Promotion:    res.Move.Promotion(),
		Score:        res.Score,
		PV:           pv,
		Depth:        res.Depth,
		Nodes:        res.Nodes,
		ThinkingTime: time.Since(start).Milliseconds(),
	})
}

// Train queues an asynchronous training job. Admin only.
func (s *Server) Train(c *gin.Context) {
	req := trainRequest{
		Epochs:       10,
		BatchSize:    32,
		LearningRate: 0.001,
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid training request"})
		return
	}
	if req.Epochs < 1 || req.Epochs > 1000 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "epochs must be between 1 and 1000"})
		return
	}
	if req.BatchSize < 1 || req.BatchSize > 512 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "batch_size must be between 1 and 512"})
		return
	}
	if req.LearningRate <= 0 || req.LearningRate >= 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "learning_rate must be in (0, 1)"})
		return
	}

	job := trainJob{
		ID:           uuid.NewString(),
		Epochs:       req.Epochs,
		BatchSize:    req.BatchSize,
		LearningRate: req.LearningRate,
	}
	select {
	case s.jobs <- job:
	default:
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "training queue is full"})
		return
	}

	logrus.Infof("training job %s queued: epochs=%d batch_size=%d", job.ID, job.Epochs, job.BatchSize)
	c.JSON(http.StatusOK, gin.H{
		"status":  "queued",
		"message": "training job queued",
		"job_id":  job.ID,
	})
}

func (s *Server) trainWorker() {
	for job := range s.jobs {
		if s.cfg.TrainData == "" {
			logrus.Warnf("training job %s skipped: TRAIN_DATA is not configured", job.ID)
			continue
		}
		logrus.Infof("training job %s started from %s", job.ID, s.cfg.TrainData)
		if err := s.engine.Train(s.cfg.TrainData, job.Epochs, job.BatchSize, job.LearningRate); err != nil {
			logrus.WithField("job", job.ID).Errorf("training failed: %v", err)
			continue
		}
		out := filepath.Join(s.cfg.ModelPath, activeModelFile)
		if err := s.engine.SaveModel(out); err != nil {
			logrus.WithField("job", job.ID).Errorf("saving model failed: %v", err)
			continue
		}
		logrus.Infof("training job %s finished, model saved to %s", job.ID, out)
	}
}

// Models lists the model files under the model directory.
func (s *Server) Models(c *gin.Context) {
	pattern := filepath.Join(s.cfg.ModelPath, "*.model")
	files, err := filepath.Glob(pattern)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	models := make([]gin.H, 0, len(files))
	for _, f := range files {
		info, err := os.Stat(f)
		if err != nil {
			continue
		}
		models = append(models, gin.H{
			"name": filepath.Base(f),
			"path": f,
			"size": info.Size(),
		})
	}

	var active interface{}
	if s.engine.ModelLoaded() {
		active = activeModelFile
	}
	c.JSON(http.StatusOK, gin.H{
		"models":       models,
		"active_model": active,
	})
}

// Index returns API information.
func (s *Server) Index(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"name":    "Hybrid Chess Engine",
		"version": "1.0.0",
		"endpoints": gin.H{
			"health":  "/health",
			"predict": "/predict (POST)",
			"train":   "/train (POST, admin only)",
			"models":  "/models (GET)",
		},
	})
}

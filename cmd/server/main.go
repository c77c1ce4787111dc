package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	hybridchess "github.com/armand-ratombotiana/Hybrid-3D-Chess-Engine"
	"github.com/armand-ratombotiana/Hybrid-3D-Chess-Engine/server"
)

func main() {
	logrus.SetFormatter(&logrus.TextFormatter{
		DisableTimestamp: true,
		PadLevelText:     true,
	})
	logrus.SetLevel(logrus.InfoLevel)

	if err := run(); err != nil {
		logrus.Fatal(err)
	}
}

func run() error {
	cfg, err := server.LoadConfig()
	if err != nil {
		return err
	}

	engine, err := hybridchess.New(hybridchess.Config{
		Name:      "Hybrid Chess Engine",
		Depth:     cfg.Depth,
		MovesFile: cfg.MovesFile,
	})
	if err != nil {
		return err
	}
	defer engine.Close()

	model := filepath.Join(cfg.ModelPath, "chess_model.model")
	if _, err := os.Stat(model); err == nil {
		if err := engine.LoadModel(model); err != nil {
			logrus.Errorf("failed to load neural network: %v", err)
		} else {
			logrus.Infof("loaded neural network from %s", model)
		}
	} else {
		logrus.Warnf("no model found at %s, using search only", model)
	}

	s := server.New(cfg, engine)
	router, err := s.Router()
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: router,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logrus.Infof("listening on %s", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logrus.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

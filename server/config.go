// Package server exposes the engine over HTTP: health, move prediction,
// training jobs and model listing.
package server

import (
	"os"
	"strconv"

	// this will automatically load your .env file:
	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"
)

// Config is the service configuration, read from the environment.
type Config struct {
	APIKey     string
	AdminToken string
	ModelPath  string
	Device     string
	ListenAddr string
	Depth      int
	MovesFile  string
	TrainData  string
}

// LoadConfig reads the configuration from the environment. Malformed
// integers are fatal; unset variables fall back to development defaults.
func LoadConfig() (*Config, error) {
	depth := 3
	if v := os.Getenv("ENGINE_DEPTH"); v != "" {
		d, err := strconv.Atoi(v)
		if err != nil {
			logrus.Fatalf("Error converting string to int: ENGINE_DEPTH: %v", err)
		}
		depth = d
	}

	cfg := &Config{
		APIKey:     getenv("API_KEY", "your-ai-api-key-change-in-production"),
		AdminToken: getenv("ADMIN_TOKEN", "your-admin-token-change-in-production"),
		ModelPath:  getenv("MODEL_PATH", "models"),
		Device:     getenv("DEVICE", "cpu"),
		ListenAddr: getenv("LISTEN_ADDR", ":8000"),
		Depth:      depth,
		MovesFile:  os.Getenv("MOVES_FILE"),
		TrainData:  os.Getenv("TRAIN_DATA"),
	}
	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

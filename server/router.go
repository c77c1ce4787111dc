package server

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Router builds the HTTP router for the service.
func (s *Server) Router() (*gin.Engine, error) {
	router := gin.Default()
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization", "api-key"},
		MaxAge:       12 * time.Hour,
	}))

	router.GET("/", s.Index)
	router.GET("/health", s.Health)
	router.GET("/models", s.Models)
	router.POST("/predict", apiKeyAuth(s.cfg), s.Predict)
	router.POST("/train", adminAuth(s.cfg), s.Train)

	return router, nil
}

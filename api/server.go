package api

import (
	"github.com/gin-gonic/gin"

	"paperbot/orchestrator"
	"paperbot/store"
)

// Server exposes the recommendation system over HTTP
type Server struct {
	store    store.Store
	pipeline *orchestrator.Pipeline
}

// NewServer creates the API server. The pipeline may be nil when manual runs
// are not exposed.
func NewServer(st store.Store, pipeline *orchestrator.Pipeline) *Server {
	return &Server{store: st, pipeline: pipeline}
}

// NewRouter constructs a Gin engine with registered routes.
func (s *Server) NewRouter() *gin.Engine {
	r := gin.New()
	// Minimal middleware: recovery; logger optional to reduce verbosity
	r.Use(gin.Recovery())

	r.GET("/health", s.handleHealth)

	r.GET("/papers/recent", s.handleRecentPapers)
	r.GET("/papers/trending", s.handleTrendingPapers)
	r.GET("/papers/:id", s.handleGetPaper)

	r.GET("/users/:id/topics", s.handleGetTopics)
	r.PUT("/users/:id/topics", s.handlePutTopics)

	r.GET("/users/:id/recommendations", s.handleListRecommendations)
	r.POST("/users/:id/recommendations/:paperID/read", s.handleMarkRead)
	r.POST("/users/:id/recommendations/:paperID/bookmark", s.handleBookmark)

	r.GET("/users/:id/preferences", s.handleGetPreferences)
	r.PUT("/users/:id/preferences", s.handlePutPreferences)

	r.GET("/clusters/history", s.handleClusterHistory)

	if s.pipeline != nil {
		r.POST("/admin/run/daily", s.handleRunDaily)
		r.POST("/admin/run/trending", s.handleRunTrending)
	}
	return r
}

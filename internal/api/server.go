package api

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"NewsRefinery/internal/batch"
	"NewsRefinery/internal/crawl"
	"NewsRefinery/internal/schedule"
)

// Server exposes the pipeline over HTTP: trigger crawl, poll progress,
// schedule CRUD and batch jobs. Authorization is the caller's concern; an
// optional middleware hook is the only gate this layer carries.
type Server struct {
	orchestrator *crawl.Orchestrator
	schedules    *schedule.Manager
	batches      *batch.Manager
	logger       *slog.Logger
	engine       *gin.Engine
}

// NewServer builds the router. authGate may be nil.
func NewServer(orchestrator *crawl.Orchestrator, schedules *schedule.Manager, batches *batch.Manager, authGate gin.HandlerFunc, logger *slog.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	s := &Server{
		orchestrator: orchestrator,
		schedules:    schedules,
		batches:      batches,
		logger:       logger,
		engine:       engine,
	}

	engine.GET("/healthz", s.health)

	group := engine.Group("/api")
	if authGate != nil {
		group.Use(authGate)
	}

	group.POST("/crawl", s.triggerCrawl)
	group.GET("/crawl/:runId/progress", s.crawlProgress)

	group.POST("/schedules", s.createSchedule)
	group.GET("/schedules", s.listSchedules)
	group.GET("/schedules/:id", s.getSchedule)
	group.PUT("/schedules/:id", s.updateSchedule)
	group.DELETE("/schedules/:id", s.deleteSchedule)

	group.POST("/batch-jobs", s.submitBatchJob)
	group.GET("/batch-jobs", s.listBatchJobs)
	group.GET("/batch-jobs/:id", s.getBatchJob)
	group.POST("/batch-jobs/:id/cancel", s.cancelBatchJob)
	group.DELETE("/batch-jobs/:id", s.deleteBatchJob)

	return s
}

// Handler returns the http.Handler for serving and tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run blocks serving HTTP on the given address.
func (s *Server) Run(addr string) error {
	return s.engine.Run(addr)
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "newsrefinery",
	})
}

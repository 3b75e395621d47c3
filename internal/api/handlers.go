package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"NewsRefinery/internal/crawl"
	"NewsRefinery/internal/domain"
)

type crawlRequest struct {
	Languages            []string `json:"languages" binding:"required"`
	SourceIDs            []string `json:"sourceIds"`
	BudgetPerLanguage    int      `json:"budgetPerLanguage"`
	MaxArticlesPerSource int      `json:"maxArticlesPerSource"`
	QualityThreshold     float64  `json:"qualityThreshold"`
	Refine               bool     `json:"refine"`
}

type scheduleRequest struct {
	Name                 string   `json:"name" binding:"required"`
	Active               bool     `json:"active"`
	CronExpression       string   `json:"cronExpression" binding:"required"`
	SourceIDs            []string `json:"sourceIds"`
	TargetLanguages      []string `json:"targetLanguages" binding:"required"`
	QualityThreshold     float64  `json:"qualityThreshold"`
	MaxArticlesPerSource int      `json:"maxArticlesPerSource"`
}

type batchJobRequest struct {
	TargetIDs []string `json:"targetIds" binding:"required"`
	Operation string   `json:"operation" binding:"required"`
}

// triggerCrawl handles POST /api/crawl. The run executes asynchronously;
// the response is always an accepted run id, failures surface only through
// polled progress.
func (s *Server) triggerCrawl(c *gin.Context) {
	var req crawlRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request payload", "details": err.Error()})
		return
	}

	runID, err := s.orchestrator.Start(crawl.Request{
		Languages:            req.Languages,
		SourceIDs:            req.SourceIDs,
		BudgetPerLanguage:    req.BudgetPerLanguage,
		MaxArticlesPerSource: req.MaxArticlesPerSource,
		QualityThreshold:     req.QualityThreshold,
		Refine:               req.Refine,
	})
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"runId": runID})
}

// crawlProgress handles GET /api/crawl/:runId/progress.
func (s *Server) crawlProgress(c *gin.Context) {
	progress, err := s.orchestrator.Tracker().Snapshot(c.Param("runId"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"progress": progress})
}

// createSchedule handles POST /api/schedules.
func (s *Server) createSchedule(c *gin.Context) {
	var req scheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request payload", "details": err.Error()})
		return
	}

	cfg, err := s.schedules.Create(c.Request.Context(), domain.ScheduleConfig{
		Name:                 req.Name,
		Active:               req.Active,
		CronExpression:       req.CronExpression,
		SourceIDs:            req.SourceIDs,
		TargetLanguages:      req.TargetLanguages,
		QualityThreshold:     req.QualityThreshold,
		MaxArticlesPerSource: req.MaxArticlesPerSource,
	})
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, cfg)
}

// listSchedules handles GET /api/schedules.
func (s *Server) listSchedules(c *gin.Context) {
	configs, err := s.schedules.List(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"schedules": configs, "count": len(configs)})
}

// getSchedule handles GET /api/schedules/:id.
func (s *Server) getSchedule(c *gin.Context) {
	cfg, err := s.schedules.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cfg)
}

// updateSchedule handles PUT /api/schedules/:id.
func (s *Server) updateSchedule(c *gin.Context) {
	var req scheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request payload", "details": err.Error()})
		return
	}

	cfg, err := s.schedules.Update(c.Request.Context(), domain.ScheduleConfig{
		ID:                   c.Param("id"),
		Name:                 req.Name,
		Active:               req.Active,
		CronExpression:       req.CronExpression,
		SourceIDs:            req.SourceIDs,
		TargetLanguages:      req.TargetLanguages,
		QualityThreshold:     req.QualityThreshold,
		MaxArticlesPerSource: req.MaxArticlesPerSource,
	})
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cfg)
}

// deleteSchedule handles DELETE /api/schedules/:id.
func (s *Server) deleteSchedule(c *gin.Context) {
	if err := s.schedules.Delete(c.Request.Context(), c.Param("id")); err != nil {
		s.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// submitBatchJob handles POST /api/batch-jobs.
func (s *Server) submitBatchJob(c *gin.Context) {
	var req batchJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request payload", "details": err.Error()})
		return
	}

	job, err := s.batches.Submit(c.Request.Context(), req.TargetIDs, req.Operation)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"jobId": job.ID, "job": job})
}

// listBatchJobs handles GET /api/batch-jobs?status=.
func (s *Server) listBatchJobs(c *gin.Context) {
	jobs, err := s.batches.List(c.Request.Context(), domain.BatchStatus(c.Query("status")))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"jobs": jobs, "count": len(jobs)})
}

// getBatchJob handles GET /api/batch-jobs/:id.
func (s *Server) getBatchJob(c *gin.Context) {
	job, err := s.batches.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

// cancelBatchJob handles POST /api/batch-jobs/:id/cancel.
func (s *Server) cancelBatchJob(c *gin.Context) {
	job, err := s.batches.Cancel(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

// deleteBatchJob handles DELETE /api/batch-jobs/:id.
func (s *Server) deleteBatchJob(c *gin.Context) {
	if err := s.batches.Delete(c.Request.Context(), c.Param("id")); err != nil {
		s.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// respondError maps domain errors onto HTTP statuses.
func (s *Server) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrInvalidState):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrScheduleInvalid):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		if s.logger != nil {
			s.logger.Error("request failed", "path", c.Request.URL.Path, "error", err)
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

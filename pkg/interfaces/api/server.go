package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/vsinha/opsplan/pkg/application/services/orchestration"
	"github.com/vsinha/opsplan/pkg/domain/entities"
	"github.com/vsinha/opsplan/pkg/domain/repositories"
	"github.com/vsinha/opsplan/pkg/infrastructure/logging"
)

// Server exposes stored scenarios and their derived views over HTTP
type Server struct {
	repo         repositories.ScenarioRepository
	orchestrator *orchestration.PlanningOrchestrator
	now          func() time.Time
	log          *logrus.Entry
}

// NewServer creates a read-only API server. windowDays sizes the conflict
// window the same way the CLI does.
func NewServer(repo repositories.ScenarioRepository, windowDays int) *Server {
	return &Server{
		repo:         repo,
		orchestrator: orchestration.NewPlanningOrchestrator(repo, windowDays),
		now:          time.Now,
		log:          logging.Component("api"),
	}
}

// Router builds the gin engine with every route registered
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())
	r.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Content-Type", "Accept"},
		MaxAge:          12 * time.Hour,
	}))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	scenarios := r.Group("/api/scenarios")
	{
		scenarios.GET("", s.listScenarios)
		scenarios.GET("/:name", s.getScenario)
		scenarios.GET("/:name/report", s.getReport)
		scenarios.GET("/:name/conflicts", s.getConflicts)
		scenarios.GET("/:name/batches/:batchId/consumption", s.getBatchConsumption)
	}
	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.WithField("addr", addr).Info("listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) listScenarios(c *gin.Context) {
	summaries, err := s.repo.List(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	if summaries == nil {
		summaries = []repositories.ScenarioSummary{}
	}
	c.JSON(http.StatusOK, summaries)
}

func (s *Server) getScenario(c *gin.Context) {
	snapshot, err := s.repo.Get(c.Request.Context(), c.Param("name"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

func (s *Server) getReport(c *gin.Context) {
	today, ok := s.today(c)
	if !ok {
		return
	}
	report, err := s.orchestrator.RunScenario(c.Request.Context(), c.Param("name"), today)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (s *Server) getConflicts(c *gin.Context) {
	today, ok := s.today(c)
	if !ok {
		return
	}
	summary, err := s.orchestrator.DetectConflicts(c.Request.Context(), c.Param("name"), today)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (s *Server) getBatchConsumption(c *gin.Context) {
	trace, err := s.orchestrator.ConsumeBatch(c.Request.Context(), c.Param("name"), c.Param("batchId"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, trace)
}

// today reads the optional ?today= query, defaulting to the server clock
func (s *Server) today(c *gin.Context) (time.Time, bool) {
	raw := c.Query("today")
	if raw == "" {
		return s.now(), true
	}
	t, err := time.Parse(entities.DayLayout, raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid today %q, expected YYYY-MM-DD", raw)})
		return time.Time{}, false
	}
	return t, true
}

func (s *Server) fail(c *gin.Context, err error) {
	if errors.Is(err, repositories.ErrScenarioNotFound) || errors.Is(err, orchestration.ErrBatchNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	s.log.WithError(err).WithField("path", c.FullPath()).Error("request failed")
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  c.Writer.Status(),
			"elapsed": time.Since(start),
		}).Debug("request")
	}
}

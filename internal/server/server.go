package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go-recruit-crawler/internal/dedup"
	"go-recruit-crawler/internal/filter"
	"go-recruit-crawler/internal/models"
	"go-recruit-crawler/internal/users"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type HistoryLoader interface {
	Load(ctx context.Context) (*dedup.History, error)
}

type Verifier interface {
	Verify(ctx context.Context, token string) (*models.User, error)
}

type Server struct {
	history  HistoryLoader
	verifier Verifier
	logger   *zap.Logger
}

// New wires the handlers. verifier may be nil, which disables /verify.
func New(history HistoryLoader, verifier Verifier, logger *zap.Logger) *Server {
	return &Server{history: history, verifier: verifier, logger: logger}
}

func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})
	r.GET("/jobs", s.listJobs)
	if s.verifier != nil {
		r.GET("/verify", s.verify)
	}
	return r
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("took", time.Since(start)))
	}
}

// JobFilter holds the /jobs query parameters.
type JobFilter struct {
	Type     string `form:"type"`
	Target   string `form:"target"`
	Location string `form:"location"`
	Keyword  string `form:"keyword"`
	Limit    int    `form:"limit" binding:"omitempty,min=1,max=1000"`
}

func (s *Server) listJobs(c *gin.Context) {
	var q JobFilter
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	var jobType models.JobType
	if q.Type != "" {
		jt, ok := models.ParseJobType(q.Type)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown type " + strconv.Quote(q.Type)})
			return
		}
		jobType = jt
	}

	hist, err := s.history.Load(c.Request.Context())
	if err != nil {
		s.logger.Error("❌ failed to load history", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "history unavailable"})
		return
	}

	jobs := make([]models.Record, 0)
	for _, rec := range hist.Records() {
		if Match(rec, jobType, q) {
			jobs = append(jobs, rec)
		}
	}
	if q.Limit > 0 && len(jobs) > q.Limit {
		jobs = jobs[:q.Limit]
	}
	c.JSON(http.StatusOK, gin.H{
		"count":        len(jobs),
		"last_updated": hist.LastUpdated,
		"jobs":         jobs,
	})
}

// Match applies the /jobs filters to one record. Text filters are substring matches
// on normalized text.
func Match(rec models.Record, jobType models.JobType, q JobFilter) bool {
	if jobType != "" && rec.JobType != jobType {
		return false
	}
	if !containsNorm(rec.Target, q.Target) || !containsNorm(rec.Location, q.Location) {
		return false
	}
	if q.Keyword != "" {
		text := strings.Join([]string{rec.Company, rec.Position, rec.Notes}, " ")
		if !containsNorm(text, q.Keyword) {
			return false
		}
	}
	return true
}

func containsNorm(text, needle string) bool {
	if needle == "" {
		return true
	}
	return strings.Contains(filter.Normalize(text), filter.Normalize(needle))
}

func (s *Server) verify(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing token"})
		return
	}
	user, err := s.verifier.Verify(c.Request.Context(), token)
	if err != nil {
		if errors.Is(err, users.ErrInvalidToken) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		s.logger.Error("❌ verification failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "verification failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "verified", "email": user.Email})
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.Router(), ReadHeaderTimeout: 10 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("🌐 server listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.logger.Info("🛑 shutting down server")
		return srv.Shutdown(shutdownCtx)
	}
}

// Package server exposes the backlog pipeline over HTTP with gin.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/joseph-ayodele/backlog-forge/internal/board"
	"github.com/joseph-ayodele/backlog-forge/internal/common"
	"github.com/joseph-ayodele/backlog-forge/internal/export"
	"github.com/joseph-ayodele/backlog-forge/internal/pipeline"
	repo "github.com/joseph-ayodele/backlog-forge/internal/repository"
	"github.com/joseph-ayodele/backlog-forge/internal/schema"
)

// Processor runs one input through the backlog pipeline.
type Processor interface {
	Process(ctx context.Context, in pipeline.Input, fn pipeline.StatusFunc) (*schema.Backlog, error)
}

// Board source modes reported by /health.
const (
	ModeMock = "mock"
	ModeMiro = "miro-api"
)

// Deps are the collaborators behind the HTTP handlers. Runs and DB are
// optional; without them /runs/:id answers 404 and /ready skips the ping.
type Deps struct {
	Processor      Processor
	Boards         board.Source
	Exporter       *export.Service
	Validator      *schema.Validator
	Runs           repo.RunRepository
	DB             *repo.DB
	BoardMode      string
	MaxUploadBytes int64
	Logger         *slog.Logger
}

type Server struct {
	processor Processor
	boards    board.Source
	exporter  *export.Service
	validator *schema.Validator
	runs      repo.RunRepository
	db        *repo.DB
	mode      string
	maxUpload int64
	logger    *slog.Logger
}

func New(d Deps) *Server {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.MaxUploadBytes <= 0 {
		d.MaxUploadBytes = 10 * 1024 * 1024
	}
	if d.BoardMode == "" {
		d.BoardMode = ModeMock
	}
	if d.Exporter == nil {
		d.Exporter = export.NewService(d.Logger)
	}
	return &Server{
		processor: d.Processor,
		boards:    d.Boards,
		exporter:  d.Exporter,
		validator: d.Validator,
		runs:      d.Runs,
		db:        d.DB,
		mode:      d.BoardMode,
		maxUpload: d.MaxUploadBytes,
		logger:    d.Logger,
	}
}

// Router builds the gin engine with every route registered.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestIDMiddleware(), s.loggingMiddleware(), metricsMiddleware())

	r.GET("/health", s.health)
	r.GET("/ready", s.ready)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/boards", s.listBoards)
	r.POST("/process", s.process)
	r.POST("/process/stream", s.processStream)
	r.POST("/process/:boardId", s.processBoard)
	r.POST("/export", s.export)
	r.GET("/runs/:id", s.getRun)
	return r
}

// HTTPServer wraps the router with the timeouts used by the daemon.
func (s *Server) HTTPServer(addr string) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		// generation can take minutes
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}
}

type errorBody struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Issues  []common.Issue `json:"issues,omitempty"`
}

func ok(c *gin.Context, data any) {
	c.JSON(http.StatusOK, gin.H{"success": true, "data": data})
}

func fail(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"success": false,
		"error":   errorBody{Code: code, Message: message},
	})
}

// failErr maps err onto the response taxonomy and writes it.
func (s *Server) failErr(c *gin.Context, err error) {
	status, code := common.HTTPStatus(err)
	log := common.LoggerFromContext(c.Request.Context(), s.logger)
	if status >= http.StatusInternalServerError {
		log.Error("http.request.failed", "code", code, "error", err)
	} else {
		log.Warn("http.request.rejected", "code", code, "error", err)
	}
	c.AbortWithStatusJSON(status, gin.H{
		"success": false,
		"error": errorBody{
			Code:    code,
			Message: common.UserMessage(err),
			Issues:  common.IssuesOf(err),
		},
	})
}

package server

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/backlog-forge/internal/common"
)

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"mode":      s.mode,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) ready(c *gin.Context) {
	if s.db != nil {
		if err := PingDB(c.Request.Context(), s.db, s.logger, 2*time.Second); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "not ready",
				"error":  "database connection failed",
			})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

func (s *Server) listBoards(c *gin.Context) {
	boards, err := s.boards.ListBoards(c.Request.Context())
	if err != nil {
		common.LoggerFromContext(c.Request.Context(), s.logger).Error("http.boards.failed", "error", err)
		fail(c, http.StatusInternalServerError, CodeBoardsFailed, common.UserMessage(err))
		return
	}
	ok(c, gin.H{"boards": boards})
}

// export handles POST /export?format=markdown|xlsx|json. The body is a
// backlog, which is validated again before rendering.
func (s *Server) export(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, s.maxUpload))
	if err != nil {
		fail(c, http.StatusBadRequest, common.CodeInvalidInput, "Invalid request body")
		return
	}
	b, err := s.validator.ValidateJSON(body)
	if err != nil {
		s.failErr(c, err)
		return
	}
	doc, err := s.exporter.Render(c.Request.Context(), c.Query("format"), b)
	if err != nil {
		s.failErr(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.Filename))
	c.Data(http.StatusOK, doc.ContentType, doc.Data)
}

func (s *Server) getRun(c *gin.Context) {
	raw := c.Param("id")
	if v := common.NewValidator().Field("id", raw, common.UUID); v.HasErrors() {
		fail(c, http.StatusBadRequest, common.CodeInvalidInput, v.ErrorMessage())
		return
	}
	id := uuid.MustParse(raw)
	if s.runs == nil {
		fail(c, http.StatusNotFound, CodeRunNotFound, "run store is disabled")
		return
	}
	run, err := s.runs.Get(c.Request.Context(), id)
	if err != nil {
		if status, _ := common.HTTPStatus(err); status == http.StatusNotFound {
			fail(c, http.StatusNotFound, CodeRunNotFound, common.UserMessage(err))
			return
		}
		s.failErr(c, err)
		return
	}
	ok(c, run)
}

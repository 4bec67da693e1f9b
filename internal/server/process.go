package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/backlog-forge/internal/common"
	"github.com/joseph-ayodele/backlog-forge/internal/extract"
	"github.com/joseph-ayodele/backlog-forge/internal/pipeline"
)

// Request validation codes for /process.
const (
	CodeMissingInput   = "MISSING_INPUT"
	CodeMultipleInputs = "MULTIPLE_INPUTS"
	CodeInvalidFile    = "INVALID_FILE"
	CodeFileTooLarge   = "FILE_TOO_LARGE"
	CodeInvalidMiroURL = "INVALID_MIRO_URL"
	CodeMissingBoardID = "MISSING_BOARD_ID"
	CodeBoardsFailed   = "BOARDS_FETCH_FAILED"
	CodeRunNotFound    = "RUN_NOT_FOUND"
)

const (
	headerRunID = "X-Run-ID"
	// room for multipart boundaries and the other form fields
	formOverhead = 1 << 20
)

// boardRefFields are read in order; boardUrl and boardId are aliases of miroUrl.
var boardRefFields = []string{"miroUrl", "boardUrl", "boardId"}

type requestError struct {
	status  int
	code    string
	message string
}

// process handles POST /process with exactly one of a file or a board URL.
func (s *Server) process(c *gin.Context) {
	in, rerr := s.readInput(c)
	if rerr != nil {
		fail(c, rerr.status, rerr.code, rerr.message)
		return
	}
	s.run(c, in)
}

// processBoard handles POST /process/:boardId.
func (s *Server) processBoard(c *gin.Context) {
	boardID := strings.TrimSpace(c.Param("boardId"))
	if boardID == "" {
		fail(c, http.StatusBadRequest, CodeMissingBoardID, "Board ID is required")
		return
	}
	s.run(c, pipeline.Input{BoardRef: boardID})
}

func (s *Server) run(c *gin.Context, in pipeline.Input) {
	ctx, runID := withRun(c)
	log := common.LoggerFromContext(ctx, s.logger)
	log.Info("http.process.start", "run_id", runID, "input", inputLabel(in))

	out, err := s.processor.Process(ctx, in, nil)
	if err != nil {
		s.failErr(c, err)
		return
	}
	ok(c, out)
}

// processStream handles POST /process/stream. Status updates are sent as
// "status" events and the outcome as a single "result" or "error" event.
func (s *Server) processStream(c *gin.Context) {
	in, rerr := s.readInput(c)
	if rerr != nil {
		fail(c, rerr.status, rerr.code, rerr.message)
		return
	}
	ctx, _ := withRun(c)

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Status(http.StatusOK)

	// Process calls fn on this goroutine, so writing here is safe.
	fn := func(st pipeline.Status) {
		c.SSEvent("status", st)
		c.Writer.Flush()
	}
	out, err := s.processor.Process(ctx, in, fn)
	if err != nil {
		_, code := common.HTTPStatus(err)
		c.SSEvent("error", errorBody{Code: code, Message: common.UserMessage(err), Issues: common.IssuesOf(err)})
		c.Writer.Flush()
		return
	}
	c.SSEvent("result", out)
	c.Writer.Flush()
}

// readInput parses the multipart form into a pipeline input.
func (s *Server) readInput(c *gin.Context) (pipeline.Input, *requestError) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.maxUpload+formOverhead)
	if err := c.Request.ParseMultipartForm(32 << 20); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) || strings.Contains(err.Error(), "request body too large") {
			return pipeline.Input{}, s.tooLarge()
		}
		return pipeline.Input{}, &requestError{http.StatusBadRequest, CodeInvalidFile, "Invalid form data"}
	}

	var ref string
	var refGiven bool
	for _, field := range boardRefFields {
		if v, found := c.GetPostForm(field); found && v != "" {
			ref, refGiven = v, true
			break
		}
	}
	fh, ferr := c.FormFile("file")
	fileGiven := ferr == nil

	switch {
	case !fileGiven && !refGiven:
		return pipeline.Input{}, &requestError{http.StatusBadRequest, CodeMissingInput, "Either file or miroUrl must be provided"}
	case fileGiven && refGiven:
		return pipeline.Input{}, &requestError{http.StatusBadRequest, CodeMultipleInputs, "Only one of file or miroUrl should be provided"}
	}

	if refGiven {
		ref = strings.TrimSpace(ref)
		if ref == "" {
			return pipeline.Input{}, &requestError{http.StatusBadRequest, CodeInvalidMiroURL, "Invalid Miro URL provided"}
		}
		return pipeline.Input{BoardRef: ref}, nil
	}

	if v := common.NewValidator().Field("file", fh.Size, common.MaxBytes(s.maxUpload)); v.HasErrors() {
		return pipeline.Input{}, &requestError{http.StatusBadRequest, CodeFileTooLarge, v.Errors()[0].Message}
	}
	f, err := fh.Open()
	if err != nil {
		return pipeline.Input{}, &requestError{http.StatusBadRequest, CodeInvalidFile, "Invalid file provided"}
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return pipeline.Input{}, &requestError{http.StatusBadRequest, CodeInvalidFile, "Invalid file provided"}
	}
	return pipeline.Input{File: &extract.File{
		Name:     fh.Filename,
		MIMEType: fh.Header.Get("Content-Type"),
		Data:     data,
	}}, nil
}

func (s *Server) tooLarge() *requestError {
	return &requestError{
		status:  http.StatusBadRequest,
		code:    CodeFileTooLarge,
		message: fmt.Sprintf("File size exceeds %dMB limit", s.maxUpload/1024/1024),
	}
}

// withRun assigns the run ID up front so it can be returned as a header even
// when processing fails.
func withRun(c *gin.Context) (context.Context, string) {
	runID := uuid.NewString()
	c.Header(headerRunID, runID)
	return common.WithRunID(c.Request.Context(), runID), runID
}

func inputLabel(in pipeline.Input) string {
	if in.File != nil {
		return in.File.Name
	}
	return in.BoardRef
}

package common

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Kind tags an AppError with one entry of the pipeline error taxonomy.
type Kind string

const (
	KindUnsupportedInput      Kind = "UNSUPPORTED_INPUT_KIND"
	KindMalformedInput        Kind = "MALFORMED_INPUT"
	KindBoardNotFound         Kind = "BOARD_NOT_FOUND"
	KindEmptyBoard            Kind = "EMPTY_BOARD"
	KindInvalidReference      Kind = "INVALID_REFERENCE_FORMAT"
	KindGenerationUnavailable Kind = "GENERATION_UNAVAILABLE"
	KindUnrecoverableResponse Kind = "UNRECOVERABLE_RESPONSE"
	KindSchemaViolation       Kind = "SCHEMA_VIOLATION"
)

// Issue is a single schema violation located by a dotted path such as epics[0].id.
type Issue struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

func (i Issue) String() string {
	return i.Path + ": " + i.Message
}

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Kind    Kind
	Message string
	Cause   error
	Issues  []Issue
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Common application errors
var (
	ErrNotFound     = errors.New("resource not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrUnauthorized = errors.New("unauthorized")
	ErrValidation   = errors.New("validation failed")
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func newKindError(kind Kind, cause error, format string, args ...any) *AppError {
	return &AppError{
		Code:    string(kind),
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

func UnsupportedInputError(mimeType, filename string) *AppError {
	label := mimeType
	if label == "" {
		label = "unknown"
	}
	return newKindError(KindUnsupportedInput, ErrInvalidInput, "Unsupported file type: %s (%s)", label, filename)
}

func MalformedInputError(what string, cause error) *AppError {
	return newKindError(KindMalformedInput, cause, "Invalid %s", what)
}

func BoardNotFoundError(boardID string) *AppError {
	return newKindError(KindBoardNotFound, ErrNotFound, "Board not found: %s", boardID)
}

func EmptyBoardError(boardID string) *AppError {
	return newKindError(KindEmptyBoard, nil, "Board has no content to process (%s)", boardID)
}

func InvalidReferenceError(ref string) *AppError {
	return newKindError(KindInvalidReference, ErrInvalidInput, "Invalid Miro URL format: %q", ref)
}

func GenerationUnavailableError(reason string) *AppError {
	return newKindError(KindGenerationUnavailable, nil, "generation unavailable: %s", reason)
}

func UnrecoverableResponseError(cause error) *AppError {
	return newKindError(KindUnrecoverableResponse, cause, "Failed to parse AI response as JSON")
}

// SchemaViolationError lists every issue in its message, joined like the HTTP error payload expects.
func SchemaViolationError(issues []Issue) *AppError {
	parts := make([]string, len(issues))
	for i, is := range issues {
		parts[i] = is.String()
	}
	e := newKindError(KindSchemaViolation, ErrValidation, "Schema validation failed: %s", strings.Join(parts, ", "))
	e.Issues = issues
	return e
}

// KindOf returns the taxonomy kind carried by err, if any.
func KindOf(err error) (Kind, bool) {
	var ae *AppError
	if errors.As(err, &ae) && ae.Kind != "" {
		return ae.Kind, true
	}
	return "", false
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}

// IssuesOf returns the schema issues carried by err.
func IssuesOf(err error) []Issue {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Issues
	}
	return nil
}

// UserMessage is the human readable message of err without the code prefix.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var ae *AppError
	if errors.As(err, &ae) {
		if ae.Cause != nil && ae.Kind != KindSchemaViolation && !isSentinel(ae.Cause) {
			return ae.Message + ": " + ae.Cause.Error()
		}
		return ae.Message
	}
	return err.Error()
}

func isSentinel(err error) bool {
	switch err {
	case ErrNotFound, ErrInvalidInput, ErrUnauthorized, ErrValidation:
		return true
	}
	return false
}

// Response codes used by the HTTP boundary.
const (
	CodeBoardNotFound    = "BOARD_NOT_FOUND"
	CodeValidationError  = "VALIDATION_ERROR"
	CodeInvalidInput     = "INVALID_INPUT"
	CodeProcessingFailed = "PROCESSING_FAILED"
)

// HTTPStatus maps err to an HTTP status and a response code. Untagged errors
// are classified by message substrings.
func HTTPStatus(err error) (int, string) {
	if kind, ok := KindOf(err); ok {
		switch kind {
		case KindBoardNotFound:
			return http.StatusNotFound, CodeBoardNotFound
		case KindSchemaViolation:
			return http.StatusBadRequest, CodeValidationError
		case KindUnsupportedInput, KindMalformedInput, KindInvalidReference, KindEmptyBoard:
			return http.StatusBadRequest, CodeInvalidInput
		}
		return http.StatusInternalServerError, CodeProcessingFailed
	}
	if err == nil {
		return http.StatusOK, ""
	}
	msg := err.Error()
	switch {
	case errors.Is(err, ErrNotFound) || strings.Contains(msg, "not found"):
		return http.StatusNotFound, CodeBoardNotFound
	case strings.Contains(msg, "validation") || strings.Contains(msg, "schema"):
		return http.StatusBadRequest, CodeValidationError
	case strings.Contains(msg, "Unsupported file type") || strings.Contains(msg, "Invalid"):
		return http.StatusBadRequest, CodeInvalidInput
	}
	return http.StatusInternalServerError, CodeProcessingFailed
}

// GRPCCode maps an error kind to a gRPC status code.
func GRPCCode(err error) codes.Code {
	kind, ok := KindOf(err)
	if !ok {
		if errors.Is(err, ErrNotFound) {
			return codes.NotFound
		}
		return codes.Internal
	}
	switch kind {
	case KindBoardNotFound:
		return codes.NotFound
	case KindUnsupportedInput, KindMalformedInput, KindInvalidReference, KindEmptyBoard, KindSchemaViolation:
		return codes.InvalidArgument
	case KindGenerationUnavailable:
		return codes.Unavailable
	}
	return codes.Internal
}

// ToStatus converts err into a gRPC status error. Errors that already carry
// a status are returned as is.
func ToStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	return status.Error(GRPCCode(err), UserMessage(err))
}

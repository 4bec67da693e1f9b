package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/joseph-ayodele/backlog-forge/constants"
	"github.com/joseph-ayodele/backlog-forge/internal/common"
	"github.com/joseph-ayodele/backlog-forge/internal/extract"
	"github.com/joseph-ayodele/backlog-forge/internal/llm"
	"github.com/joseph-ayodele/backlog-forge/internal/metrics"
	"github.com/joseph-ayodele/backlog-forge/internal/prompt"
	"github.com/joseph-ayodele/backlog-forge/internal/recovery"
	"github.com/joseph-ayodele/backlog-forge/internal/repository"
	"github.com/joseph-ayodele/backlog-forge/internal/schema"
)

// Input carries exactly one of a file or a board reference.
type Input = extract.Input

// Status is a transient progress signal.
type Status struct {
	Step     constants.Step `json:"step"`
	Message  string         `json:"message"`
	Progress int            `json:"progress"`
}

// StatusFunc receives status updates. It may be nil.
type StatusFunc func(Status)

// Processor coordinates extraction, prompt building, generation, recovery and
// validation for one input at a time. It holds no per-run state and is safe
// for concurrent use.
type Processor struct {
	Logger    *slog.Logger
	Extractor *extract.Extractor
	Prompts   *prompt.Builder
	Generator llm.Generator
	Validator *schema.Validator

	runs        repository.RunRepository
	artifactDir string
	tracer      trace.Tracer
}

type Option func(*Processor)

// WithRunStore records every run in repo.
func WithRunStore(repo repository.RunRepository) Option {
	return func(p *Processor) { p.runs = repo }
}

// WithArtifactDir writes raw model responses that fail recovery or validation to dir.
func WithArtifactDir(dir string) Option {
	return func(p *Processor) { p.artifactDir = dir }
}

func NewProcessor(
	logger *slog.Logger,
	ext *extract.Extractor,
	prompts *prompt.Builder,
	gen llm.Generator,
	validator *schema.Validator,
	opts ...Option,
) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Processor{
		Logger:    logger,
		Extractor: ext,
		Prompts:   prompts,
		Generator: gen,
		Validator: validator,
		tracer:    otel.Tracer("backlog-pipeline"),
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// run is the per-invocation state.
type run struct {
	id     uuid.UUID
	kind   constants.SourceKind
	source string
	raw    string
	notify StatusFunc
	log    *slog.Logger
}

func (r *run) emit(step constants.Step, message string, progress int) {
	r.log.Info("pipeline.status", "step", step, "message", message, "progress", progress)
	if r.notify != nil {
		r.notify(Status{Step: step, Message: message, Progress: progress})
	}
}

// Process runs the pipeline. Any failure emits an error status with progress 0
// and the error is returned unchanged. A run ID already present in ctx is reused.
func (p *Processor) Process(ctx context.Context, in Input, fn StatusFunc) (*schema.Backlog, error) {
	start := time.Now()
	r := &run{id: runIDFrom(ctx), notify: fn}
	r.kind, r.source = describe(in)
	r.log = p.Logger.With("run_id", r.id.String())
	if reqID := common.RequestIDFromContext(ctx); reqID != "" {
		r.log = r.log.With("req_id", reqID)
	}

	ctx = common.WithRunID(ctx, r.id.String())
	ctx, span := p.tracer.Start(ctx, "pipeline.process", trace.WithAttributes(
		attribute.String("run_id", r.id.String()),
		attribute.String("input_kind", string(r.kind)),
	))
	defer span.End()

	p.startRun(ctx, r)

	out, strategy, err := p.process(ctx, in, r)
	elapsed := time.Since(start).Milliseconds()
	if err != nil {
		code := errorCode(err)
		r.emit(constants.StepError, common.UserMessage(err), constants.ProgressError)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		metrics.RunsTotal.WithLabelValues(string(r.kind), metrics.OutcomeFailure).Inc()
		metrics.FailuresTotal.WithLabelValues(code).Inc()
		p.finishFailure(ctx, r, code, err)
		r.log.Error("pipeline.process.failed", "code", code, "elapsed_ms", elapsed, "error", err)
		return nil, err
	}

	metrics.RunsTotal.WithLabelValues(string(r.kind), metrics.OutcomeSuccess).Inc()
	metrics.RecoveryTotal.WithLabelValues(string(strategy)).Inc()
	p.finishSuccess(ctx, r, strategy, out)
	r.log.Info("pipeline.process.ok",
		"epics", len(out.Epics),
		"stories", out.StoryCount(),
		"risks", len(out.Risks),
		"assumptions", len(out.Assumptions),
		"strategy", strategy,
		"elapsed_ms", elapsed,
	)
	return out, nil
}

// ProcessBoard processes a board by id or URL.
func (p *Processor) ProcessBoard(ctx context.Context, boardRef string, fn StatusFunc) (*schema.Backlog, error) {
	return p.Process(ctx, Input{BoardRef: boardRef}, fn)
}

func (p *Processor) process(ctx context.Context, in Input, r *run) (*schema.Backlog, recovery.Strategy, error) {
	doc, err := p.extract(ctx, in, r)
	if err != nil {
		return nil, "", err
	}

	r.emit(constants.StepAnalyzing, "Preparing AI analysis...", constants.ProgressAnalyzing)
	t := time.Now()
	promptText := p.Prompts.Build(doc)
	metrics.ObserveStage(metrics.StagePrompt, t)
	r.log.Debug("pipeline.prompt.ok", "chars", len(promptText))

	r.emit(constants.StepGenerating, "Generating project breakdown with AI...", constants.ProgressGenerating)
	raw, err := p.generate(ctx, promptText)
	if err != nil {
		return nil, "", err
	}
	r.raw = raw
	r.log.Info("pipeline.generate.ok", "response_chars", len(raw))

	r.emit(constants.StepGenerating, "Validating output...", constants.ProgressValidating)
	t = time.Now()
	res, err := recovery.Recover(raw)
	metrics.ObserveStage(metrics.StageRecover, t)
	if err != nil {
		return nil, "", err
	}
	if res.Strategy != recovery.StrategyDirect {
		r.log.Warn("pipeline.recover.repaired", "strategy", res.Strategy)
	}

	t = time.Now()
	_, vspan := p.tracer.Start(ctx, "pipeline.validate")
	out, err := p.Validator.Validate(res.Value)
	metrics.ObserveStage(metrics.StageValidate, t)
	if err != nil {
		recordSpanError(vspan, err)
		vspan.End()
		return nil, "", err
	}
	vspan.End()

	r.emit(constants.StepComplete, "Processing complete!", constants.ProgressComplete)
	return out, res.Strategy, nil
}

func (p *Processor) extract(ctx context.Context, in Input, r *run) (extract.ContentDocument, error) {
	hasFile := in.File != nil
	hasRef := in.BoardRef != ""
	if hasFile == hasRef {
		// Extract reports the exact input error.
		return p.Extractor.Extract(ctx, in)
	}

	ctx, span := p.tracer.Start(ctx, "pipeline.extract")
	defer span.End()
	t := time.Now()
	defer metrics.ObserveStage(metrics.StageExtract, t)

	var (
		doc extract.ContentDocument
		err error
	)
	if hasFile {
		r.emit(constants.StepReading, "Extracting content from file...", constants.ProgressReading)
		doc, err = p.Extractor.ExtractFile(ctx, *in.File)
	} else {
		r.emit(constants.StepConnecting, "Connecting to Miro...", constants.ProgressConnecting)
		var boardID string
		if boardID, err = extract.ParseBoardRef(in.BoardRef); err == nil {
			span.SetAttributes(attribute.String("board_id", boardID))
			r.emit(constants.StepReading, "Reading board content...", constants.ProgressReading)
			doc, err = p.Extractor.ExtractBoard(ctx, boardID)
		}
	}
	if err != nil {
		recordSpanError(span, err)
		return extract.ContentDocument{}, err
	}
	r.kind = doc.SourceKind
	span.SetAttributes(attribute.Int("words", doc.WordCount))
	r.log.Info("pipeline.extract.ok", "kind", doc.SourceKind, "source", doc.Source, "words", doc.WordCount)
	return doc, nil
}

func (p *Processor) generate(ctx context.Context, promptText string) (string, error) {
	ctx, span := p.tracer.Start(ctx, "pipeline.generate")
	defer span.End()
	t := time.Now()
	defer metrics.ObserveStage(metrics.StageGenerate, t)

	raw, err := p.Generator.Generate(ctx, promptText, nil)
	if err != nil {
		recordSpanError(span, err)
		return "", fmt.Errorf("generate: %w", err)
	}
	return raw, nil
}

func (p *Processor) startRun(ctx context.Context, r *run) {
	if p.runs == nil {
		return
	}
	if _, err := p.runs.Start(ctx, r.id, r.kind, r.source); err != nil {
		r.log.Warn("pipeline.runs.start_failed", "error", err)
	}
}

func (p *Processor) finishSuccess(ctx context.Context, r *run, strategy recovery.Strategy, out *schema.Backlog) {
	if p.runs == nil {
		return
	}
	b, err := json.Marshal(out)
	if err != nil {
		r.log.Warn("pipeline.runs.marshal_failed", "error", err)
		return
	}
	if err := p.runs.FinishSuccess(ctx, r.id, string(strategy), b); err != nil {
		r.log.Warn("pipeline.runs.finish_failed", "error", err)
	}
}

func (p *Processor) finishFailure(ctx context.Context, r *run, code string, err error) {
	raw := ""
	if common.IsKind(err, common.KindUnrecoverableResponse) || common.IsKind(err, common.KindSchemaViolation) {
		raw = r.raw
		p.writeArtifact(r)
	}
	if p.runs == nil {
		return
	}
	if ferr := p.runs.FinishFailure(ctx, r.id, code, common.UserMessage(err), raw); ferr != nil {
		r.log.Warn("pipeline.runs.finish_failed", "error", ferr)
	}
}

// writeArtifact saves the raw response as <dir>/<run_id>.txt.
func (p *Processor) writeArtifact(r *run) {
	if p.artifactDir == "" || r.raw == "" {
		return
	}
	if err := os.MkdirAll(p.artifactDir, 0o755); err != nil {
		r.log.Warn("pipeline.artifact.failed", "error", err)
		return
	}
	path := filepath.Join(p.artifactDir, r.id.String()+".txt")
	if err := os.WriteFile(path, []byte(r.raw), 0o644); err != nil {
		r.log.Warn("pipeline.artifact.failed", "error", err)
		return
	}
	r.log.Info("pipeline.artifact.saved", "path", path)
}

func runIDFrom(ctx context.Context) uuid.UUID {
	if id, err := uuid.Parse(common.RunIDFromContext(ctx)); err == nil {
		return id
	}
	return uuid.New()
}

// describe labels an input before extraction for the run record.
func describe(in Input) (constants.SourceKind, string) {
	if in.File != nil {
		kind, _ := extract.DetectKind(in.File.MIMEType, in.File.Name)
		return kind, in.File.Name
	}
	return constants.SourceBoard, in.BoardRef
}

func errorCode(err error) string {
	if kind, ok := common.KindOf(err); ok {
		return string(kind)
	}
	_, code := common.HTTPStatus(err)
	return code
}

func recordSpanError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/backlog-forge/constants"
	"github.com/joseph-ayodele/backlog-forge/internal/common"
)

const runsTable = "runs"

// timeLayout is fixed width so that started_at sorts lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

var runColumns = []string{
	"id", "input_kind", "source", "status", "error_code", "error_message",
	"raw_response", "output_json", "recovery_strategy", "started_at", "finished_at",
}

// Run is one pipeline invocation as stored in the runs table.
type Run struct {
	ID               uuid.UUID            `json:"id"`
	InputKind        constants.SourceKind `json:"inputKind"`
	Source           string               `json:"source"`
	Status           constants.RunStatus  `json:"status"`
	ErrorCode        string               `json:"errorCode,omitempty"`
	ErrorMessage     string               `json:"errorMessage,omitempty"`
	RawResponse      string               `json:"rawResponse,omitempty"`
	OutputJSON       string               `json:"output,omitempty"`
	RecoveryStrategy string               `json:"recoveryStrategy,omitempty"`
	StartedAt        time.Time            `json:"startedAt"`
	FinishedAt       *time.Time           `json:"finishedAt,omitempty"`
}

type RunRepository interface {
	Start(ctx context.Context, id uuid.UUID, kind constants.SourceKind, source string) (*Run, error)
	FinishSuccess(ctx context.Context, id uuid.UUID, strategy string, output []byte) error
	FinishFailure(ctx context.Context, id uuid.UUID, code, message, raw string) error
	Get(ctx context.Context, id uuid.UUID) (*Run, error)
	List(ctx context.Context, limit int) ([]Run, error)
}

type runRepo struct {
	db  *DB
	log *slog.Logger
}

func NewRunRepository(db *DB, log *slog.Logger) RunRepository {
	if log == nil {
		log = slog.Default()
	}
	return &runRepo{db: db, log: log}
}

func (r *runRepo) builder() *entsql.DialectBuilder {
	return entsql.Dialect(r.db.Dialect)
}

func (r *runRepo) Start(ctx context.Context, id uuid.UUID, kind constants.SourceKind, source string) (*Run, error) {
	run := &Run{
		ID:        id,
		InputKind: kind,
		Source:    source,
		Status:    constants.RunStatusRunning,
		StartedAt: time.Now().UTC(),
	}
	q, args := r.builder().Insert(runsTable).
		Columns("id", "input_kind", "source", "status", "started_at").
		Values(run.ID.String(), string(kind), source, string(run.Status), formatTime(run.StartedAt)).
		Query()
	if err := r.db.Driver.Exec(ctx, q, args, nil); err != nil {
		r.log.Error("run start failed", "run_id", id, "err", err)
		return nil, err
	}
	r.log.Info("run started", "run_id", id, "input_kind", kind, "source", source)
	return run, nil
}

func (r *runRepo) FinishSuccess(ctx context.Context, id uuid.UUID, strategy string, output []byte) error {
	q, args := r.builder().Update(runsTable).
		Set("status", string(constants.RunStatusSucceeded)).
		Set("output_json", string(output)).
		Set("recovery_strategy", strategy).
		Set("finished_at", formatTime(time.Now().UTC())).
		Where(entsql.EQ("id", id.String())).
		Query()
	if err := r.exec(ctx, id, q, args); err != nil {
		r.log.Error("run finish(OK) failed", "run_id", id, "err", err)
		return err
	}
	r.log.Info("run finished (SUCCEEDED)", "run_id", id, "strategy", strategy)
	return nil
}

func (r *runRepo) FinishFailure(ctx context.Context, id uuid.UUID, code, message, raw string) error {
	u := r.builder().Update(runsTable).
		Set("status", string(constants.RunStatusFailed)).
		Set("error_code", code).
		Set("error_message", message).
		Set("finished_at", formatTime(time.Now().UTC()))
	if raw != "" {
		u = u.Set("raw_response", raw)
	}
	q, args := u.Where(entsql.EQ("id", id.String())).Query()
	if err := r.exec(ctx, id, q, args); err != nil {
		r.log.Error("run finish(FAILED) failed", "run_id", id, "err", err)
		return err
	}
	r.log.Warn("run finished (FAILED)", "run_id", id, "code", code, "error", message)
	return nil
}

// exec runs an update and reports a missing row as not found.
func (r *runRepo) exec(ctx context.Context, id uuid.UUID, q string, args []any) error {
	var res sql.Result
	if err := r.db.Driver.Exec(ctx, q, args, &res); err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return runNotFound(id)
	}
	return nil
}

func (r *runRepo) Get(ctx context.Context, id uuid.UUID) (*Run, error) {
	q, args := r.builder().Select(runColumns...).
		From(entsql.Table(runsTable)).
		Where(entsql.EQ("id", id.String())).
		Query()
	runs, err := r.query(ctx, q, args)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, runNotFound(id)
	}
	return &runs[0], nil
}

// List returns the most recent runs first.
func (r *runRepo) List(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 50
	}
	q, args := r.builder().Select(runColumns...).
		From(entsql.Table(runsTable)).
		OrderBy(entsql.Desc("started_at")).
		Limit(limit).
		Query()
	return r.query(ctx, q, args)
}

func (r *runRepo) query(ctx context.Context, q string, args []any) ([]Run, error) {
	var rows entsql.Rows
	if err := r.db.Driver.Query(ctx, q, args, &rows); err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var (
			id, kind, source, status, started          string
			code, msg, raw, output, strategy, finished sql.NullString
		)
		if err := rows.Scan(&id, &kind, &source, &status, &code, &msg, &raw, &output, &strategy, &started, &finished); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run := Run{
			InputKind:        constants.SourceKind(kind),
			Source:           source,
			Status:           constants.RunStatus(status),
			ErrorCode:        code.String,
			ErrorMessage:     msg.String,
			RawResponse:      raw.String,
			OutputJSON:       output.String,
			RecoveryStrategy: strategy.String,
		}
		var err error
		if run.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("scan run id: %w", err)
		}
		if run.StartedAt, err = time.Parse(timeLayout, started); err != nil {
			return nil, fmt.Errorf("scan run started_at: %w", err)
		}
		if finished.Valid {
			t, err := time.Parse(timeLayout, finished.String)
			if err != nil {
				return nil, fmt.Errorf("scan run finished_at: %w", err)
			}
			run.FinishedAt = &t
		}
		out = append(out, run)
	}
	return out, rows.Err()
}

func runNotFound(id uuid.UUID) error {
	return common.NewAppError("RUN_NOT_FOUND", fmt.Sprintf("run %s not found", id), common.ErrNotFound)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

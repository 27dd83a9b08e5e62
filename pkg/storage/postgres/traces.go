package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/papercomputeco/rewind/pkg/agenttrace"
	"github.com/papercomputeco/rewind/pkg/attribution"
	"github.com/papercomputeco/rewind/pkg/storage"
)

// timeWindowLimit caps how many rows an unscoped time window query returns.
const timeWindowLimit = 200

// CreateTrace stores a trace, replacing the payload of an existing trace
// with the same ID while keeping its creation position.
func (s *Driver) CreateTrace(ctx context.Context, projectID, userID string, trace *agenttrace.AgentTrace) error {
	if trace == nil {
		return errors.New("cannot store nil trace")
	}
	if trace.ID == "" {
		return errors.New("cannot store trace without id")
	}

	record, err := json.Marshal(trace)
	if err != nil {
		return fmt.Errorf("marshal trace record: %w", err)
	}

	var eventTime *time.Time
	if ts, ok := agenttrace.ParseTimestamp(trace.Timestamp); ok {
		t := ts.UTC()
		eventTime = &t
	}
	var revision string
	if trace.VCS != nil {
		revision = trace.VCS.Revision
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin trace tx: %w", err)
	}

	if err := ensureProject(ctx, tx, projectID); err != nil {
		_ = tx.Rollback()
		return err
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO traces (project_id, user_id, trace_id, version, trace_timestamp, revision, trace_record)
		VALUES ($1, NULLIF($2, ''), $3, $4, $5, NULLIF($6, ''), $7::jsonb)
		ON CONFLICT (project_id, trace_id) DO UPDATE SET
			user_id         = EXCLUDED.user_id,
			version         = EXCLUDED.version,
			trace_timestamp = EXCLUDED.trace_timestamp,
			revision        = EXCLUDED.revision,
			trace_record    = EXCLUDED.trace_record
	`, projectID, userID, trace.ID, trace.Version, eventTime, revision, string(record)); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("insert trace: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit trace tx: %w", err)
	}
	return nil
}

// GetTrace retrieves a stored trace by ID.
func (s *Driver) GetTrace(ctx context.Context, projectID, traceID string) (*storage.StoredTrace, error) {
	var (
		userID  string
		record  []byte
		created time.Time
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(user_id, ''), trace_record, created_at
		FROM traces
		WHERE project_id = $1 AND trace_id = $2
	`, projectID, traceID).Scan(&userID, &record, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.NotFoundError{Resource: "trace", ID: traceID}
	}
	if err != nil {
		return nil, fmt.Errorf("get trace: %w", err)
	}

	trace, err := unmarshalTrace(record)
	if err != nil {
		return nil, err
	}
	return &storage.StoredTrace{
		ProjectID: projectID,
		UserID:    userID,
		Trace:     trace,
		CreatedAt: created,
	}, nil
}

// QueryTraces returns traces newest first by event time, plus the total
// count ignoring pagination. The event time is the trace's own timestamp
// when it parsed at ingest, the ingest time otherwise.
func (s *Driver) QueryTraces(ctx context.Context, projectID string, query storage.TraceQuery) ([]*storage.StoredTrace, int, error) {
	limit := sql.NullInt64{}
	if query.Limit > 0 {
		limit = sql.NullInt64{Int64: int64(query.Limit), Valid: true}
	}
	offset := query.Offset
	if offset < 0 {
		offset = 0
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT COALESCE(user_id, ''), trace_record, created_at
		FROM traces
		WHERE project_id = $1
		  AND ($2::timestamptz IS NULL OR COALESCE(trace_timestamp, created_at) >= $2)
		  AND ($3::timestamptz IS NULL OR COALESCE(trace_timestamp, created_at) <= $3)
		ORDER BY COALESCE(trace_timestamp, created_at) DESC, id DESC
		LIMIT $4 OFFSET $5
	`, projectID, query.Since, query.Until, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list traces: %w", err)
	}
	defer rows.Close()

	items := make([]*storage.StoredTrace, 0)
	for rows.Next() {
		var (
			userID  string
			record  []byte
			created time.Time
		)
		if err := rows.Scan(&userID, &record, &created); err != nil {
			return nil, 0, fmt.Errorf("scan trace: %w", err)
		}
		trace, err := unmarshalTrace(record)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, &storage.StoredTrace{
			ProjectID: projectID,
			UserID:    userID,
			Trace:     trace,
			CreatedAt: created,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate traces: %w", err)
	}

	var total int
	if err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM traces
		WHERE project_id = $1
		  AND ($2::timestamptz IS NULL OR COALESCE(trace_timestamp, created_at) >= $2)
		  AND ($3::timestamptz IS NULL OR COALESCE(trace_timestamp, created_at) <= $3)
	`, projectID, query.Since, query.Until).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count traces: %w", err)
	}

	return items, total, nil
}

// FindTracesByIDs returns the traces that exist for the given IDs, in the
// order the IDs were requested.
func (s *Driver) FindTracesByIDs(ctx context.Context, projectID string, traceIDs []string) ([]*agenttrace.AgentTrace, error) {
	if len(traceIDs) == 0 {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT trace_id, trace_record
		FROM traces
		WHERE project_id = $1 AND trace_id = ANY($2)
	`, projectID, traceIDs)
	if err != nil {
		return nil, fmt.Errorf("find traces by ids: %w", err)
	}
	defer rows.Close()

	byID := make(map[string]*agenttrace.AgentTrace, len(traceIDs))
	for rows.Next() {
		var (
			id     string
			record []byte
		)
		if err := rows.Scan(&id, &record); err != nil {
			return nil, fmt.Errorf("scan trace: %w", err)
		}
		trace, err := unmarshalTrace(record)
		if err != nil {
			return nil, err
		}
		byID[id] = trace
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate traces: %w", err)
	}

	traces := make([]*agenttrace.AgentTrace, 0, len(byID))
	for _, id := range traceIDs {
		if trace, ok := byID[id]; ok {
			traces = append(traces, trace)
		}
	}
	return traces, nil
}

// FindTracesByRevision returns traces whose recorded VCS revision matches,
// in creation order. Matching mirrors attribution.RevisionMatches, so
// abbreviated SHAs of at least MinRevisionPrefix characters match in
// either direction.
func (s *Driver) FindTracesByRevision(ctx context.Context, projectID, revision string) ([]*agenttrace.AgentTrace, error) {
	if revision == "" {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT trace_record
		FROM traces
		WHERE project_id = $1
		  AND revision IS NOT NULL
		  AND (revision = $2
		       OR (least(length(revision), length($2)) >= $3
		           AND (starts_with(revision, $2) OR starts_with($2, revision))))
		ORDER BY id ASC
	`, projectID, revision, attribution.MinRevisionPrefix)
	if err != nil {
		return nil, fmt.Errorf("find traces by revision: %w", err)
	}
	return collectTraces(rows)
}

// FindTracesInTimeWindow returns traces whose own timestamp falls inside
// [since, until], in creation order. Traces whose timestamp never parsed
// have a NULL event column and never match.
func (s *Driver) FindTracesInTimeWindow(ctx context.Context, projectID string, since, until time.Time) ([]*agenttrace.AgentTrace, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT trace_record
		FROM traces
		WHERE project_id = $1
		  AND trace_timestamp >= $2
		  AND trace_timestamp <= $3
		ORDER BY id ASC
		LIMIT $4
	`, projectID, since, until, timeWindowLimit)
	if err != nil {
		return nil, fmt.Errorf("find traces in time window: %w", err)
	}
	return collectTraces(rows)
}

func collectTraces(rows *sql.Rows) ([]*agenttrace.AgentTrace, error) {
	defer rows.Close()

	var traces []*agenttrace.AgentTrace
	for rows.Next() {
		var record []byte
		if err := rows.Scan(&record); err != nil {
			return nil, fmt.Errorf("scan trace: %w", err)
		}
		trace, err := unmarshalTrace(record)
		if err != nil {
			return nil, err
		}
		traces = append(traces, trace)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate traces: %w", err)
	}
	return traces, nil
}

func unmarshalTrace(record []byte) (*agenttrace.AgentTrace, error) {
	var trace agenttrace.AgentTrace
	if err := json.Unmarshal(record, &trace); err != nil {
		return nil, fmt.Errorf("unmarshal trace record: %w", err)
	}
	return &trace, nil
}

package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/papercomputeco/rewind/pkg/agenttrace"
)

// commitLinkColumns is the column list scanCommitLink expects, in order.
const commitLinkColumns = `commit_sha, COALESCE(parent_sha, ''), trace_ids, files_changed, COALESCE(committed_at, ''), ledger, created_at`

// CreateCommitLink stores a commit link, fully replacing any existing link
// for the same commit SHA. The stored creation time of a replaced link is
// kept.
func (s *SQLiteDriver) CreateCommitLink(ctx context.Context, projectID string, link *agenttrace.CommitLink) error {
	if link == nil {
		return errors.New("cannot store nil commit link")
	}
	if link.CommitSHA == "" {
		return errors.New("cannot store commit link without commit sha")
	}

	traceIDs := link.TraceIDs
	if traceIDs == nil {
		traceIDs = []string{}
	}
	encodedTraceIDs, err := json.Marshal(traceIDs)
	if err != nil {
		return fmt.Errorf("marshal trace ids: %w", err)
	}

	var filesChanged any
	if link.FilesChanged != nil {
		encoded, err := json.Marshal(link.FilesChanged)
		if err != nil {
			return fmt.Errorf("marshal files changed: %w", err)
		}
		filesChanged = string(encoded)
	}

	var ledger any
	if link.Ledger != nil {
		encoded, err := json.Marshal(link.Ledger)
		if err != nil {
			return fmt.Errorf("marshal ledger: %w", err)
		}
		ledger = string(encoded)
	}

	createdAt := nowString()
	if ts, ok := agenttrace.ParseTimestamp(link.CreatedAt); ok {
		createdAt = ts.UTC().Format(time.RFC3339)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin commit link tx: %w", err)
	}

	if err := ensureProject(ctx, tx, projectID); err != nil {
		_ = tx.Rollback()
		return err
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO commit_links (project_id, commit_sha, parent_sha, trace_ids, files_changed, committed_at, ledger, created_at)
		VALUES (?, ?, NULLIF(?, ''), ?, ?, NULLIF(?, ''), ?, ?)
		ON CONFLICT (project_id, commit_sha) DO UPDATE SET
			parent_sha    = excluded.parent_sha,
			trace_ids     = excluded.trace_ids,
			files_changed = excluded.files_changed,
			committed_at  = excluded.committed_at,
			ledger        = excluded.ledger
	`, projectID, link.CommitSHA, link.ParentSHA, string(encodedTraceIDs), filesChanged, link.CommittedAt, ledger, createdAt); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("insert commit link: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit link tx: %w", err)
	}
	return nil
}

// GetCommitLink retrieves the commit link for a commit SHA. Absent links
// are (nil, nil).
func (s *SQLiteDriver) GetCommitLink(ctx context.Context, projectID, commitSHA string) (*agenttrace.CommitLink, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+commitLinkColumns+`
		FROM commit_links
		WHERE project_id = ? AND commit_sha = ?
	`, projectID, commitSHA)

	link, err := scanCommitLink(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get commit link: %w", err)
	}
	return link, nil
}

// GetLedger retrieves the attribution ledger stored on a commit link.
// Links without a ledger and absent links are both (nil, nil).
func (s *SQLiteDriver) GetLedger(ctx context.Context, projectID, commitSHA string) (*agenttrace.Ledger, error) {
	var raw []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT ledger
		FROM commit_links
		WHERE project_id = ? AND commit_sha = ? AND ledger IS NOT NULL
	`, projectID, commitSHA).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get ledger: %w", err)
	}

	var ledger agenttrace.Ledger
	if err := json.Unmarshal(raw, &ledger); err != nil {
		return nil, fmt.Errorf("unmarshal ledger: %w", err)
	}
	return &ledger, nil
}

// GetCommitLinksByParent returns commit links whose parent SHA matches,
// newest first.
func (s *SQLiteDriver) GetCommitLinksByParent(ctx context.Context, projectID, parentSHA string) ([]*agenttrace.CommitLink, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+commitLinkColumns+`
		FROM commit_links
		WHERE project_id = ? AND parent_sha = ?
		ORDER BY created_at DESC, id DESC
	`, projectID, parentSHA)
	if err != nil {
		return nil, fmt.Errorf("find commit links by parent: %w", err)
	}
	defer rows.Close()

	var links []*agenttrace.CommitLink
	for rows.Next() {
		link, err := scanCommitLink(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan commit link: %w", err)
		}
		links = append(links, link)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate commit links: %w", err)
	}
	return links, nil
}

func scanCommitLink(scan func(dest ...any) error) (*agenttrace.CommitLink, error) {
	var (
		link         agenttrace.CommitLink
		traceIDs     []byte
		filesChanged []byte
		ledger       []byte
		createdAt    string
	)
	if err := scan(&link.CommitSHA, &link.ParentSHA, &traceIDs, &filesChanged, &link.CommittedAt, &ledger, &createdAt); err != nil {
		return nil, err
	}

	if err := json.Unmarshal(traceIDs, &link.TraceIDs); err != nil {
		return nil, fmt.Errorf("unmarshal trace ids: %w", err)
	}
	if len(filesChanged) > 0 {
		if err := json.Unmarshal(filesChanged, &link.FilesChanged); err != nil {
			return nil, fmt.Errorf("unmarshal files changed: %w", err)
		}
	}
	if len(ledger) > 0 {
		if err := json.Unmarshal(ledger, &link.Ledger); err != nil {
			return nil, fmt.Errorf("unmarshal ledger: %w", err)
		}
	}
	link.CreatedAt = createdAt

	return &link, nil
}

package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/papercomputeco/rewind/pkg/agenttrace"
)

// UpsertConversationContents stores conversation contents keyed by URL,
// all in one transaction, and returns how many were written. Entries
// without a URL are skipped.
func (s *SQLiteDriver) UpsertConversationContents(ctx context.Context, projectID string, contents []agenttrace.ConversationContent) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin conversation tx: %w", err)
	}

	if err := ensureProject(ctx, tx, projectID); err != nil {
		_ = tx.Rollback()
		return 0, err
	}

	written := 0
	for _, c := range contents {
		if c.URL == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO conversation_contents (project_id, url, content, created_at, updated_at)
			VALUES (?1, ?2, ?3, ?4, ?4)
			ON CONFLICT (project_id, url) DO UPDATE SET
				content    = excluded.content,
				updated_at = excluded.updated_at
		`, projectID, c.URL, c.Content, nowString()); err != nil {
			_ = tx.Rollback()
			return 0, fmt.Errorf("upsert conversation content: %w", err)
		}
		written++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit conversation tx: %w", err)
	}
	return written, nil
}

// GetConversationContent retrieves stored conversation content by URL.
// Absent content is an empty string, not an error.
func (s *SQLiteDriver) GetConversationContent(ctx context.Context, projectID, url string) (string, error) {
	var content string
	err := s.db.QueryRowContext(ctx, `
		SELECT content
		FROM conversation_contents
		WHERE project_id = ? AND url = ?
	`, projectID, url).Scan(&content)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get conversation content: %w", err)
	}
	return content, nil
}

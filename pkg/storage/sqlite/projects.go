package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/papercomputeco/rewind/pkg/storage"
)

// UpsertProject creates or updates a project. Empty fields on update keep
// the stored values.
func (s *SQLiteDriver) UpsertProject(ctx context.Context, project *storage.Project) (*storage.Project, error) {
	if project == nil || project.ID == "" {
		return nil, errors.New("cannot upsert project without id")
	}

	var (
		out     storage.Project
		created string
		updated string
	)
	now := nowString()
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO projects (project_id, name, description, created_at, updated_at)
		VALUES (?1, NULLIF(?2, ''), NULLIF(?3, ''), ?4, ?4)
		ON CONFLICT (project_id) DO UPDATE SET
			name        = COALESCE(excluded.name, projects.name),
			description = COALESCE(excluded.description, projects.description),
			updated_at  = excluded.updated_at
		RETURNING project_id, COALESCE(name, ''), COALESCE(description, ''), created_at, updated_at
	`, project.ID, project.Name, project.Description, now).Scan(
		&out.ID, &out.Name, &out.Description, &created, &updated,
	)
	if err != nil {
		return nil, fmt.Errorf("upsert project: %w", err)
	}
	out.CreatedAt = parseStoredTime(created)
	out.UpdatedAt = parseStoredTime(updated)
	return &out, nil
}

// GetProject retrieves a project by ID.
func (s *SQLiteDriver) GetProject(ctx context.Context, projectID string) (*storage.Project, error) {
	var (
		out     storage.Project
		created string
		updated string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT project_id, COALESCE(name, ''), COALESCE(description, ''), created_at, updated_at
		FROM projects
		WHERE project_id = ?
	`, projectID).Scan(&out.ID, &out.Name, &out.Description, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.NotFoundError{Resource: "project", ID: projectID}
	}
	if err != nil {
		return nil, fmt.Errorf("get project: %w", err)
	}
	out.CreatedAt = parseStoredTime(created)
	out.UpdatedAt = parseStoredTime(updated)
	return &out, nil
}

// ProjectStats aggregates stored record counts for a project.
func (s *SQLiteDriver) ProjectStats(ctx context.Context, projectID string) (*storage.ProjectStats, error) {
	var exists bool
	if err := s.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM projects WHERE project_id = ?)`, projectID).Scan(&exists); err != nil {
		return nil, fmt.Errorf("check project: %w", err)
	}
	if !exists {
		return nil, storage.NotFoundError{Resource: "project", ID: projectID}
	}

	stats := &storage.ProjectStats{}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM traces WHERE project_id = ?`, projectID).Scan(&stats.TraceCount); err != nil {
		return nil, fmt.Errorf("count traces: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM commit_links WHERE project_id = ?`, projectID).Scan(&stats.CommitLinkCount); err != nil {
		return nil, fmt.Errorf("count commit links: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM conversation_contents WHERE project_id = ?`, projectID).Scan(&stats.ConversationCount); err != nil {
		return nil, fmt.Errorf("count conversations: %w", err)
	}

	// RFC 3339 UTC strings sort lexically in time order, so MAX works.
	var last sql.NullString
	if err := s.db.QueryRowContext(ctx, `SELECT MAX(created_at) FROM traces WHERE project_id = ?`, projectID).Scan(&last); err != nil {
		return nil, fmt.Errorf("latest ingest: %w", err)
	}
	if last.Valid {
		t := parseStoredTime(last.String)
		stats.LastIngestAt = &t
	}

	return stats, nil
}

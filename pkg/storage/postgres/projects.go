package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/papercomputeco/rewind/pkg/storage"
)

// UpsertProject creates or updates a project. Empty fields on update keep
// the stored values.
func (s *Driver) UpsertProject(ctx context.Context, project *storage.Project) (*storage.Project, error) {
	if project == nil || project.ID == "" {
		return nil, errors.New("cannot upsert project without id")
	}

	var out storage.Project
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO projects (project_id, name, description)
		VALUES ($1, NULLIF($2, ''), NULLIF($3, ''))
		ON CONFLICT (project_id) DO UPDATE SET
			name        = COALESCE(EXCLUDED.name, projects.name),
			description = COALESCE(EXCLUDED.description, projects.description),
			updated_at  = NOW()
		RETURNING project_id, COALESCE(name, ''), COALESCE(description, ''), created_at, updated_at
	`, project.ID, project.Name, project.Description).Scan(
		&out.ID, &out.Name, &out.Description, &out.CreatedAt, &out.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("upsert project: %w", err)
	}
	return &out, nil
}

// GetProject retrieves a project by ID.
func (s *Driver) GetProject(ctx context.Context, projectID string) (*storage.Project, error) {
	var out storage.Project
	err := s.db.QueryRowContext(ctx, `
		SELECT project_id, COALESCE(name, ''), COALESCE(description, ''), created_at, updated_at
		FROM projects
		WHERE project_id = $1
	`, projectID).Scan(&out.ID, &out.Name, &out.Description, &out.CreatedAt, &out.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.NotFoundError{Resource: "project", ID: projectID}
	}
	if err != nil {
		return nil, fmt.Errorf("get project: %w", err)
	}
	return &out, nil
}

// ProjectStats aggregates stored record counts for a project.
func (s *Driver) ProjectStats(ctx context.Context, projectID string) (*storage.ProjectStats, error) {
	var exists bool
	if err := s.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM projects WHERE project_id = $1)`, projectID).Scan(&exists); err != nil {
		return nil, fmt.Errorf("check project: %w", err)
	}
	if !exists {
		return nil, storage.NotFoundError{Resource: "project", ID: projectID}
	}

	stats := &storage.ProjectStats{}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM traces WHERE project_id = $1`, projectID).Scan(&stats.TraceCount); err != nil {
		return nil, fmt.Errorf("count traces: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM commit_links WHERE project_id = $1`, projectID).Scan(&stats.CommitLinkCount); err != nil {
		return nil, fmt.Errorf("count commit links: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM conversation_contents WHERE project_id = $1`, projectID).Scan(&stats.ConversationCount); err != nil {
		return nil, fmt.Errorf("count conversations: %w", err)
	}

	var last sql.NullTime
	if err := s.db.QueryRowContext(ctx, `SELECT MAX(created_at) FROM traces WHERE project_id = $1`, projectID).Scan(&last); err != nil {
		return nil, fmt.Errorf("latest ingest: %w", err)
	}
	if last.Valid {
		t := last.Time
		stats.LastIngestAt = &t
	}

	return stats, nil
}

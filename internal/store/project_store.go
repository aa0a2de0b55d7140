package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nhle/dayplanner/internal/model"
)

const projectColumns = "id, name, description, color, created_at, updated_at"

// CreateProject inserts a new project and returns its id.
func (s *SQLiteStore) CreateProject(ctx context.Context, project model.Project) (string, error) {
	if strings.TrimSpace(project.Name) == "" {
		return "", &model.ValidationError{Entity: "project", Field: "name", Message: "must not be empty"}
	}
	if project.ID == "" {
		project.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	project.CreatedAt = now
	project.UpdatedAt = now

	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO projects (`+projectColumns+`)
		VALUES (:id, :name, :description, :color, :created_at, :updated_at)`,
		project,
	)
	if err != nil {
		return "", fmt.Errorf("creating project: %w", err)
	}
	return project.ID, nil
}

// DeleteProject removes a project. Its tasks, and through them their
// rules and notifications, are deleted with it.
func (s *SQLiteStore) DeleteProject(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM projects WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting project %s: %w", id, err)
	}
	return expectAffected(result, "project", id)
}

// GetProjectByID retrieves a single project by ID.
func (s *SQLiteStore) GetProjectByID(
	ctx context.Context,
	id string,
) (*model.Project, error) {
	var project model.Project
	err := s.db.GetContext(ctx, &project,
		"SELECT "+projectColumns+" FROM projects WHERE id = ?", id)
	if err != nil {
		return nil, notFound(err, "project", id)
	}
	return &project, nil
}

// GetProjects retrieves all projects ordered by name.
func (s *SQLiteStore) GetProjects(ctx context.Context) ([]model.Project, error) {
	var projects []model.Project
	err := s.db.SelectContext(ctx, &projects,
		"SELECT "+projectColumns+" FROM projects ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("querying projects: %w", err)
	}
	return projects, nil
}

// GetProjectSummaries retrieves all projects ordered by name, each with
// its count of unfinished tasks and of recurrence rules on its tasks.
func (s *SQLiteStore) GetProjectSummaries(ctx context.Context) ([]model.ProjectSummary, error) {
	var summaries []model.ProjectSummary
	err := s.db.SelectContext(ctx, &summaries, `
		SELECT p.id, p.name, p.description, p.color, p.created_at, p.updated_at,
			(SELECT COUNT(*) FROM tasks t
				WHERE t.project_id = p.id AND t.status != ?) AS open_tasks,
			(SELECT COUNT(*) FROM recurrence_rules r
				JOIN tasks t ON t.id = r.task_id
				WHERE t.project_id = p.id) AS recurring_rules
		FROM projects p
		ORDER BY p.name`,
		model.StatusDone,
	)
	if err != nil {
		return nil, fmt.Errorf("querying project summaries: %w", err)
	}
	return summaries, nil
}

package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nhle/dayplanner/internal/dateonly"
	"github.com/nhle/dayplanner/internal/model"
)

const taskColumns = `id, name, description, duration, project_id, due_date, planned_time,
	status, priority, labels, dependencies, created_at, updated_at`

// taskRow mirrors the tasks table. Labels and dependencies are JSON text.
type taskRow struct {
	ID           string         `db:"id"`
	Name         string         `db:"name"`
	Description  string         `db:"description"`
	Duration     sql.NullInt64  `db:"duration"`
	ProjectID    string         `db:"project_id"`
	DueDate      sql.NullString `db:"due_date"`
	PlannedTime  sql.NullTime   `db:"planned_time"`
	Status       string         `db:"status"`
	Priority     string         `db:"priority"`
	Labels       string         `db:"labels"`
	Dependencies string         `db:"dependencies"`
	CreatedAt    time.Time      `db:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"`
}

func taskToRow(t model.Task) taskRow {
	r := taskRow{
		ID:           t.ID,
		Name:         t.Name,
		Description:  t.Description,
		ProjectID:    t.ProjectID,
		Status:       string(t.Status),
		Priority:     string(t.Priority),
		Labels:       encodeStringList(t.Labels),
		Dependencies: encodeStringList(t.Dependencies),
		CreatedAt:    t.CreatedAt.UTC(),
		UpdatedAt:    t.UpdatedAt.UTC(),
	}
	if t.Duration != nil {
		r.Duration = sql.NullInt64{Int64: int64(*t.Duration), Valid: true}
	}
	if t.DueDate != "" {
		r.DueDate = sql.NullString{String: t.DueDate, Valid: true}
	}
	if t.PlannedTime != nil {
		r.PlannedTime = sql.NullTime{Time: t.PlannedTime.UTC(), Valid: true}
	}
	return r
}

func (r taskRow) toModel() model.Task {
	t := model.Task{
		ID:           r.ID,
		Name:         r.Name,
		Description:  r.Description,
		ProjectID:    r.ProjectID,
		Status:       model.Status(r.Status),
		Priority:     model.Priority(r.Priority),
		Labels:       DecodeStringList(r.Labels),
		Dependencies: DecodeStringList(r.Dependencies),
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
	if r.Duration.Valid {
		d := int(r.Duration.Int64)
		t.Duration = &d
	}
	if r.DueDate.Valid {
		t.DueDate = r.DueDate.String
	}
	if r.PlannedTime.Valid {
		p := r.PlannedTime.Time
		t.PlannedTime = &p
	}
	return t
}

// CreateTask inserts a new task and returns its id. Generates a UUID if
// the id is empty and fills in status, priority and timestamps when unset.
// Only structural invariants are checked here; callers creating tasks on
// behalf of a user run the full model.Task.Validate first.
func (s *SQLiteStore) CreateTask(ctx context.Context, task model.Task) (string, error) {
	if task.ID == "" {
		task.ID = uuid.New().String()
	}
	now := time.Now()
	if task.CreatedAt.IsZero() {
		task.CreatedAt = now
	}
	if task.UpdatedAt.IsZero() {
		task.UpdatedAt = task.CreatedAt
	}
	if task.Status == "" {
		task.Status = model.StatusPlanning
	}
	if task.Priority == "" {
		task.Priority = model.PriorityMedium
	}
	if err := task.ValidateShape(); err != nil {
		return "", fmt.Errorf("creating task: %w", err)
	}

	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO tasks (
			id, name, description, duration, project_id, due_date, planned_time,
			status, priority, labels, dependencies, created_at, updated_at
		) VALUES (
			:id, :name, :description, :duration, :project_id, :due_date, :planned_time,
			:status, :priority, :labels, :dependencies, :created_at, :updated_at
		)`,
		taskToRow(task),
	)
	if err != nil {
		return "", fmt.Errorf("creating task: %w", err)
	}
	return task.ID, nil
}

// UpdateTask overwrites an existing task by id and bumps updated_at.
func (s *SQLiteStore) UpdateTask(ctx context.Context, task model.Task) error {
	if err := task.ValidateShape(); err != nil {
		return fmt.Errorf("updating task %s: %w", task.ID, err)
	}
	task.UpdatedAt = time.Now()

	result, err := s.db.NamedExecContext(ctx, `
		UPDATE tasks SET
			name = :name, description = :description, duration = :duration,
			project_id = :project_id, due_date = :due_date, planned_time = :planned_time,
			status = :status, priority = :priority,
			labels = :labels, dependencies = :dependencies,
			updated_at = :updated_at
		WHERE id = :id`,
		taskToRow(task),
	)
	if err != nil {
		return fmt.Errorf("updating task %s: %w", task.ID, err)
	}
	return expectAffected(result, "task", task.ID)
}

// DeleteTask removes a task by id. Cascades to its recurrence rule and
// notifications.
func (s *SQLiteStore) DeleteTask(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM tasks WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting task %s: %w", id, err)
	}
	return expectAffected(result, "task", id)
}

// GetTaskByID retrieves a single task by id.
func (s *SQLiteStore) GetTaskByID(ctx context.Context, id string) (*model.Task, error) {
	var row taskRow
	err := s.db.GetContext(ctx, &row,
		"SELECT "+taskColumns+" FROM tasks WHERE id = ?", id)
	if err != nil {
		return nil, notFound(err, "task", id)
	}
	task := row.toModel()
	return &task, nil
}

// GetTasks retrieves tasks matching the filter.
func (s *SQLiteStore) GetTasks(ctx context.Context, filter TaskFilter) ([]model.Task, error) {
	query, args := buildTaskQuery(filter)

	var rows []taskRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("querying tasks: %w", err)
	}
	return rowsToTasks(rows), nil
}

// GetPlanningCandidates returns the tasks the day planner considers for
// today: not done, and either due today or planned for today. Results are
// ordered by due date then creation time.
func (s *SQLiteStore) GetPlanningCandidates(ctx context.Context, today string) ([]model.Task, error) {
	var rows []taskRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT `+taskColumns+` FROM tasks
		WHERE status != ? AND (due_date = ? OR planned_time IS NOT NULL)
		ORDER BY due_date IS NULL, due_date, created_at`,
		string(model.StatusDone), today,
	)
	if err != nil {
		return nil, fmt.Errorf("querying planning candidates: %w", err)
	}

	// Planned times are stored in UTC; "today" is a local calendar day,
	// so the planned-today half of the filter runs here.
	var tasks []model.Task
	for _, t := range rowsToTasks(rows) {
		if t.DueDate == today || (t.PlannedTime != nil && dateonly.SameDay(*t.PlannedTime, today)) {
			tasks = append(tasks, t)
		}
	}
	return tasks, nil
}

func rowsToTasks(rows []taskRow) []model.Task {
	tasks := make([]model.Task, 0, len(rows))
	for _, r := range rows {
		tasks = append(tasks, r.toModel())
	}
	return tasks
}

// buildTaskQuery constructs the SELECT with WHERE clauses from the filter.
func buildTaskQuery(filter TaskFilter) (string, []any) {
	var conditions []string
	var args []any

	if filter.ProjectID != nil {
		conditions = append(conditions, "project_id = ?")
		args = append(args, *filter.ProjectID)
	}
	if filter.Status != nil {
		conditions = append(conditions, "status = ?")
		args = append(args, string(*filter.Status))
	}
	if filter.DueDate != nil {
		conditions = append(conditions, "due_date = ?")
		args = append(args, *filter.DueDate)
	}
	if filter.Query != nil && *filter.Query != "" {
		conditions = append(conditions, "(name LIKE ? OR description LIKE ?)")
		q := "%" + *filter.Query + "%"
		args = append(args, q, q)
	}

	query := "SELECT " + taskColumns + " FROM tasks"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	sortBy := "created_at"
	allowedSorts := map[string]string{
		"created_at":   "created_at",
		"updated_at":   "updated_at",
		"due_date":     "due_date IS NULL, due_date",
		"planned_time": "planned_time IS NULL, planned_time",
		"priority":     "CASE priority WHEN 'HIGH' THEN 3 WHEN 'MEDIUM' THEN 2 ELSE 1 END",
		"name":         "name",
	}
	if expr, ok := allowedSorts[filter.SortBy]; ok {
		sortBy = expr
	}

	direction := "ASC"
	if filter.SortDesc {
		direction = "DESC"
	}
	query += fmt.Sprintf(" ORDER BY %s %s, id", sortBy, direction)

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}
	if filter.Offset > 0 {
		if filter.Limit <= 0 {
			query += " LIMIT -1"
		}
		query += fmt.Sprintf(" OFFSET %d", filter.Offset)
	}

	return query, args
}

package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nhle/dayplanner/internal/model"
)

const ruleColumns = "id, task_id, frequency, repeat_interval, end_date, remaining_count, created_at"

// ruleRow mirrors the recurrence_rules table.
type ruleRow struct {
	ID        string         `db:"id"`
	TaskID    string         `db:"task_id"`
	Frequency string         `db:"frequency"`
	Interval  int            `db:"repeat_interval"`
	EndDate   sql.NullString `db:"end_date"`
	Count     sql.NullInt64  `db:"remaining_count"`
	CreatedAt time.Time      `db:"created_at"`
}

func ruleToRow(r model.RecurrenceRule) ruleRow {
	row := ruleRow{
		ID:        r.ID,
		TaskID:    r.TaskID,
		Frequency: string(r.Frequency),
		Interval:  r.Interval,
		CreatedAt: r.CreatedAt.UTC(),
	}
	if r.EndDate != "" {
		row.EndDate = sql.NullString{String: r.EndDate, Valid: true}
	}
	if r.Count != nil {
		row.Count = sql.NullInt64{Int64: int64(*r.Count), Valid: true}
	}
	return row
}

func (r ruleRow) toModel() model.RecurrenceRule {
	rule := model.RecurrenceRule{
		ID:        r.ID,
		TaskID:    r.TaskID,
		Frequency: model.Frequency(r.Frequency),
		Interval:  r.Interval,
		CreatedAt: r.CreatedAt,
	}
	if r.EndDate.Valid {
		rule.EndDate = r.EndDate.String
	}
	if r.Count.Valid {
		c := int(r.Count.Int64)
		rule.Count = &c
	}
	return rule
}

// CreateRule inserts a recurrence rule and returns its id. A task carries
// at most one rule; a second insert for the same task fails on the unique
// task_id constraint.
func (s *SQLiteStore) CreateRule(ctx context.Context, rule model.RecurrenceRule) (string, error) {
	if err := rule.Validate(); err != nil {
		return "", fmt.Errorf("creating recurrence rule: %w", err)
	}
	if rule.ID == "" {
		rule.ID = uuid.New().String()
	}
	if rule.CreatedAt.IsZero() {
		rule.CreatedAt = time.Now()
	}

	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO recurrence_rules (`+ruleColumns+`)
		VALUES (:id, :task_id, :frequency, :repeat_interval, :end_date, :remaining_count, :created_at)`,
		ruleToRow(rule),
	)
	if err != nil {
		return "", fmt.Errorf("creating recurrence rule for task %s: %w", rule.TaskID, err)
	}
	return rule.ID, nil
}

// GetRuleByID retrieves a recurrence rule by its own id.
func (s *SQLiteStore) GetRuleByID(ctx context.Context, id string) (*model.RecurrenceRule, error) {
	var row ruleRow
	err := s.db.GetContext(ctx, &row,
		"SELECT "+ruleColumns+" FROM recurrence_rules WHERE id = ?", id)
	if err != nil {
		return nil, notFound(err, "recurrence rule", id)
	}
	rule := row.toModel()
	return &rule, nil
}

// GetRuleByTaskID retrieves the rule whose current occurrence is taskID.
func (s *SQLiteStore) GetRuleByTaskID(ctx context.Context, taskID string) (*model.RecurrenceRule, error) {
	var row ruleRow
	err := s.db.GetContext(ctx, &row,
		"SELECT "+ruleColumns+" FROM recurrence_rules WHERE task_id = ?", taskID)
	if err != nil {
		return nil, notFound(err, "recurrence rule for task", taskID)
	}
	rule := row.toModel()
	return &rule, nil
}

// UpdateRule applies patch to the rule with the given id. The patched rule
// must still be valid.
func (s *SQLiteStore) UpdateRule(ctx context.Context, id string, patch model.RulePatch) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var row ruleRow
	err = tx.GetContext(ctx, &row,
		"SELECT "+ruleColumns+" FROM recurrence_rules WHERE id = ?", id)
	if err != nil {
		return notFound(err, "recurrence rule", id)
	}

	rule := row.toModel()
	if patch.TaskID != nil {
		rule.TaskID = *patch.TaskID
	}
	if patch.Frequency != nil {
		rule.Frequency = *patch.Frequency
	}
	if patch.Interval != nil {
		rule.Interval = *patch.Interval
	}
	if patch.EndDate != nil {
		rule.EndDate = *patch.EndDate
	}
	if patch.Count != nil {
		c := *patch.Count
		rule.Count = &c
	}
	if err := rule.Validate(); err != nil {
		return fmt.Errorf("updating recurrence rule %s: %w", id, err)
	}

	_, err = tx.NamedExecContext(ctx, `
		UPDATE recurrence_rules SET
			task_id = :task_id, frequency = :frequency, repeat_interval = :repeat_interval,
			end_date = :end_date, remaining_count = :remaining_count
		WHERE id = :id`,
		ruleToRow(rule),
	)
	if err != nil {
		return fmt.Errorf("updating recurrence rule %s: %w", id, err)
	}

	return tx.Commit()
}

// DeleteRule removes a recurrence rule by id.
func (s *SQLiteStore) DeleteRule(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM recurrence_rules WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting recurrence rule %s: %w", id, err)
	}
	return expectAffected(result, "recurrence rule", id)
}

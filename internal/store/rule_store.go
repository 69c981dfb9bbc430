package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"allycal/internal/model"
	"allycal/internal/schedule"
)

// RuleStore persists recurrence rules.
type RuleStore struct {
	db *DB
}

func NewRuleStore(db *DB) *RuleStore {
	return &RuleStore{db: db}
}

// ruleRow is the sqlx row shape for the rules table.
type ruleRow struct {
	ID          string    `db:"id"`
	Title       string    `db:"title"`
	Description string    `db:"description"`
	StartDate   string    `db:"start_date"`
	StartTime   string    `db:"start_time"`
	EndTime     string    `db:"end_time"`
	Frequency   string    `db:"frequency"`
	DaysOfWeek  string    `db:"days_of_week"`
	Visibility  string    `db:"visibility"`
	AllianceID  string    `db:"alliance_id"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

func ruleToRow(rule model.RecurrenceRule, now time.Time) ruleRow {
	return ruleRow{
		ID:          rule.ID,
		Title:       rule.Title,
		Description: rule.Description,
		StartDate:   schedule.FormatDate(rule.StartDate),
		StartTime:   rule.StartTime,
		EndTime:     rule.EndTime,
		Frequency:   string(rule.Frequency),
		DaysOfWeek:  encodeDays(rule.DaysOfWeek),
		Visibility:  string(rule.Visibility),
		AllianceID:  rule.AllianceID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func rowToRule(row ruleRow) (model.RecurrenceRule, error) {
	startDate, err := schedule.ParseDate(row.StartDate)
	if err != nil {
		return model.RecurrenceRule{}, fmt.Errorf("store: rule %s: bad start_date %q: %w", row.ID, row.StartDate, err)
	}
	days, err := decodeDays(row.DaysOfWeek)
	if err != nil {
		return model.RecurrenceRule{}, fmt.Errorf("store: rule %s: %w", row.ID, err)
	}
	return model.RecurrenceRule{
		ID:          row.ID,
		Title:       row.Title,
		Description: row.Description,
		StartDate:   startDate,
		StartTime:   row.StartTime,
		EndTime:     row.EndTime,
		Frequency:   model.Frequency(row.Frequency),
		DaysOfWeek:  days,
		Visibility:  model.Visibility(row.Visibility),
		AllianceID:  row.AllianceID,
	}, nil
}

// Create inserts a validated rule and returns its assigned id.
func (s *RuleStore) Create(ctx context.Context, rule model.RecurrenceRule) (string, error) {
	if rule.ID == "" {
		rule.ID = uuid.NewString()
	}

	row := ruleToRow(rule, time.Now().UTC())
	const q = `INSERT INTO rules
		(id, title, description, start_date, start_time, end_time, frequency, days_of_week, visibility, alliance_id, created_at, updated_at)
		VALUES
		(:id, :title, :description, :start_date, :start_time, :end_time, :frequency, :days_of_week, :visibility, :alliance_id, :created_at, :updated_at)`

	if _, err := s.db.conn.NamedExecContext(ctx, q, row); err != nil {
		return "", fmt.Errorf("store: create rule: %w", err)
	}
	return rule.ID, nil
}

// RulePatch is a partial rule update; nil fields are left untouched.
// DaysOfWeek, when set, replaces the whole weekday set.
type RulePatch struct {
	Title       *string
	Description *string
	StartDate   *time.Time
	StartTime   *string
	EndTime     *string
	Frequency   *model.Frequency
	DaysOfWeek  []int
	Visibility  *model.Visibility
	AllianceID  *string
}

// Update applies a patch to an existing rule. The patched rule runs through
// the draft validator before it is written, so an edit can never persist a
// rule the expander would reject (blank title, weekly with no weekdays).
// Editing frequency or weekdays changes future expansions only; existing
// exceptions are left alone and may become orphaned, which the overlay
// ignores by design of the engine.
func (s *RuleStore) Update(ctx context.Context, id string, patch RulePatch) error {
	current, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	if patch.Title != nil {
		current.Title = *patch.Title
	}
	if patch.Description != nil {
		current.Description = *patch.Description
	}
	if patch.StartDate != nil {
		current.StartDate = schedule.DateOf(*patch.StartDate)
	}
	if patch.StartTime != nil {
		current.StartTime = *patch.StartTime
	}
	if patch.EndTime != nil {
		current.EndTime = *patch.EndTime
	}
	if patch.Frequency != nil {
		current.Frequency = *patch.Frequency
	}
	if patch.DaysOfWeek != nil {
		current.DaysOfWeek = patch.DaysOfWeek
	}
	if patch.Visibility != nil {
		current.Visibility = *patch.Visibility
	}
	if patch.AllianceID != nil {
		current.AllianceID = *patch.AllianceID
	}

	validated, err := schedule.ValidateDraft(model.RuleDraft{
		Title:       current.Title,
		Description: current.Description,
		StartDate:   current.StartDate,
		StartTime:   current.StartTime,
		EndTime:     current.EndTime,
		Frequency:   current.Frequency,
		DaysOfWeek:  current.DaysOfWeek,
		Visibility:  current.Visibility,
		AllianceID:  current.AllianceID,
	})
	if err != nil {
		return err
	}
	validated.ID = id

	row := ruleToRow(validated, time.Now().UTC())
	const q = `UPDATE rules SET
		title = :title, description = :description, start_date = :start_date,
		start_time = :start_time, end_time = :end_time, frequency = :frequency,
		days_of_week = :days_of_week, visibility = :visibility,
		alliance_id = :alliance_id, updated_at = :updated_at
		WHERE id = :id`

	res, err := s.db.conn.NamedExecContext(ctx, q, row)
	if err != nil {
		return fmt.Errorf("store: update rule %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("store: rule %s: %w", id, schedule.ErrNotFound)
	}
	return nil
}

// Get fetches one rule by id.
func (s *RuleStore) Get(ctx context.Context, id string) (model.RecurrenceRule, error) {
	var row ruleRow
	err := s.db.conn.GetContext(ctx, &row, `SELECT * FROM rules WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return model.RecurrenceRule{}, fmt.Errorf("store: rule %s: %w", id, schedule.ErrNotFound)
	}
	if err != nil {
		return model.RecurrenceRule{}, fmt.Errorf("store: get rule %s: %w", id, err)
	}
	return rowToRule(row)
}

// Delete removes a rule. Its exceptions go with it (FK cascade).
func (s *RuleStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.conn.ExecContext(ctx, `DELETE FROM rules WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("store: delete rule %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("store: rule %s: %w", id, schedule.ErrNotFound)
	}
	return nil
}

// ListForWindow returns the rules in scope whose expansion could intersect
// the [start, end] window: anything anchored on or before the window's end,
// except one-off rules anchored before its start.
func (s *RuleStore) ListForWindow(ctx context.Context, scope model.Scope, start, end time.Time) ([]model.RecurrenceRule, error) {
	const q = `SELECT * FROM rules
		WHERE ((visibility = 'alliance' AND alliance_id = ?) OR (visibility = 'personal' AND ?))
		AND start_date <= ?
		AND (frequency != 'none' OR start_date >= ?)
		ORDER BY start_date, id`

	var rows []ruleRow
	err := s.db.conn.SelectContext(ctx, &rows, q,
		scope.AllianceID, scope.IncludePersonal,
		schedule.FormatDate(end), schedule.FormatDate(start),
	)
	if err != nil {
		return nil, fmt.Errorf("store: list rules for window: %w", err)
	}

	rules := make([]model.RecurrenceRule, 0, len(rows))
	for _, row := range rows {
		rule, err := rowToRule(row)
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

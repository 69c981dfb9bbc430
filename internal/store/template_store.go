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

// TemplateStore persists event templates and the run ledger that makes
// template runs idempotent per (template_id, run_date).
type TemplateStore struct {
	db *DB
}

func NewTemplateStore(db *DB) *TemplateStore {
	return &TemplateStore{db: db}
}

type templateRow struct {
	ID          string `db:"id"`
	Title       string `db:"title"`
	Description string `db:"description"`
	StartTime   string `db:"start_time"`
	EndTime     string `db:"end_time"`
	Frequency   string `db:"frequency"`
	DaysOfWeek  string `db:"days_of_week"`
	Visibility  string `db:"visibility"`
	AllianceID  string `db:"alliance_id"`
}

// Create inserts a template and returns its assigned id.
func (s *TemplateStore) Create(ctx context.Context, tpl model.EventTemplate) (string, error) {
	if tpl.ID == "" {
		tpl.ID = uuid.NewString()
	}
	row := templateRow{
		ID:          tpl.ID,
		Title:       tpl.Title,
		Description: tpl.Description,
		StartTime:   tpl.StartTime,
		EndTime:     tpl.EndTime,
		Frequency:   string(tpl.Frequency),
		DaysOfWeek:  encodeDays(tpl.DaysOfWeek),
		Visibility:  string(tpl.Visibility),
		AllianceID:  tpl.AllianceID,
	}
	const q = `INSERT INTO templates
		(id, title, description, start_time, end_time, frequency, days_of_week, visibility, alliance_id)
		VALUES
		(:id, :title, :description, :start_time, :end_time, :frequency, :days_of_week, :visibility, :alliance_id)`
	if _, err := s.db.conn.NamedExecContext(ctx, q, row); err != nil {
		return "", fmt.Errorf("store: create template: %w", err)
	}
	return tpl.ID, nil
}

// Get fetches one template by id.
func (s *TemplateStore) Get(ctx context.Context, id string) (model.EventTemplate, error) {
	var row templateRow
	err := s.db.conn.GetContext(ctx, &row, `SELECT * FROM templates WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return model.EventTemplate{}, fmt.Errorf("store: template %s: %w", id, schedule.ErrNotFound)
	}
	if err != nil {
		return model.EventTemplate{}, fmt.Errorf("store: get template %s: %w", id, err)
	}

	days, err := decodeDays(row.DaysOfWeek)
	if err != nil {
		return model.EventTemplate{}, fmt.Errorf("store: template %s: %w", id, err)
	}
	return model.EventTemplate{
		ID:          row.ID,
		Title:       row.Title,
		Description: row.Description,
		StartTime:   row.StartTime,
		EndTime:     row.EndTime,
		Frequency:   model.Frequency(row.Frequency),
		DaysOfWeek:  days,
		Visibility:  model.Visibility(row.Visibility),
		AllianceID:  row.AllianceID,
	}, nil
}

// RecordRun claims the (templateID, runDate) slot for ruleID. If the slot is
// already taken, the previously recorded rule id is returned with ok=false
// and the caller must not materialize a second rule.
func (s *TemplateStore) RecordRun(ctx context.Context, templateID string, runDate time.Time, ruleID string) (existingRuleID string, ok bool, err error) {
	day := schedule.FormatDate(runDate)

	res, err := s.db.conn.ExecContext(ctx,
		`INSERT INTO template_runs (template_id, run_date, rule_id, created_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (template_id, run_date) DO NOTHING`,
		templateID, day, ruleID, time.Now().UTC(),
	)
	if err != nil {
		return "", false, fmt.Errorf("store: record template run %s@%s: %w", templateID, day, err)
	}

	if n, _ := res.RowsAffected(); n > 0 {
		return ruleID, true, nil
	}

	// Lost the slot to an earlier run; hand back its rule.
	var existing string
	err = s.db.conn.GetContext(ctx, &existing,
		`SELECT rule_id FROM template_runs WHERE template_id = ? AND run_date = ?`,
		templateID, day,
	)
	if err != nil {
		return "", false, fmt.Errorf("store: lookup template run %s@%s: %w", templateID, day, err)
	}
	return existing, false, nil
}

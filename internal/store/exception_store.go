package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"allycal/internal/model"
	"allycal/internal/schedule"
)

// ExceptionStore persists per-occurrence skip/override records. Writes are
// idempotent upserts keyed on (rule_id, occurrence_date): the last write for
// a key wins, so at most one exception exists per base occurrence.
type ExceptionStore struct {
	db *DB
}

func NewExceptionStore(db *DB) *ExceptionStore {
	return &ExceptionStore{db: db}
}

type exceptionRow struct {
	RuleID         string    `db:"rule_id"`
	OccurrenceDate string    `db:"occurrence_date"`
	Action         string    `db:"action"`
	NewDate        *string   `db:"new_date"`
	NewStartTime   *string   `db:"new_start_time"`
	NewEndTime     *string   `db:"new_end_time"`
	NewTitle       *string   `db:"new_title"`
	NewDescription *string   `db:"new_description"`
	UpdatedAt      time.Time `db:"updated_at"`
}

const upsertExceptionQuery = `INSERT INTO exceptions
	(rule_id, occurrence_date, action, new_date, new_start_time, new_end_time, new_title, new_description, updated_at)
	VALUES
	(:rule_id, :occurrence_date, :action, :new_date, :new_start_time, :new_end_time, :new_title, :new_description, :updated_at)
	ON CONFLICT (rule_id, occurrence_date) DO UPDATE SET
	action = excluded.action,
	new_date = excluded.new_date,
	new_start_time = excluded.new_start_time,
	new_end_time = excluded.new_end_time,
	new_title = excluded.new_title,
	new_description = excluded.new_description,
	updated_at = excluded.updated_at`

// UpsertSkip records that the occurrence on occurrenceDate must not be
// materialized. It replaces any previous exception for that date.
func (s *ExceptionStore) UpsertSkip(ctx context.Context, ruleID string, occurrenceDate time.Time) error {
	row := exceptionRow{
		RuleID:         ruleID,
		OccurrenceDate: schedule.FormatDate(occurrenceDate),
		Action:         string(model.ActionSkip),
		UpdatedAt:      time.Now().UTC(),
	}
	if _, err := s.db.conn.NamedExecContext(ctx, upsertExceptionQuery, row); err != nil {
		return fmt.Errorf("store: upsert skip for rule %s: %w", ruleID, err)
	}
	return nil
}

// UpsertOverride records a move/retitle for the occurrence on occurrenceDate.
// Nil fields keep falling back to the rule's own values at render time.
func (s *ExceptionStore) UpsertOverride(ctx context.Context, ruleID string, occurrenceDate time.Time, fields model.OverrideFields) error {
	row := exceptionRow{
		RuleID:         ruleID,
		OccurrenceDate: schedule.FormatDate(occurrenceDate),
		Action:         string(model.ActionOverride),
		NewStartTime:   fields.NewStartTime,
		NewEndTime:     fields.NewEndTime,
		NewTitle:       fields.NewTitle,
		NewDescription: fields.NewDescription,
		UpdatedAt:      time.Now().UTC(),
	}
	if fields.NewDate != nil {
		d := schedule.FormatDate(*fields.NewDate)
		row.NewDate = &d
	}
	if _, err := s.db.conn.NamedExecContext(ctx, upsertExceptionQuery, row); err != nil {
		return fmt.Errorf("store: upsert override for rule %s: %w", ruleID, err)
	}
	return nil
}

// ListForRuleIDs fetches every exception owned by the given rules.
func (s *ExceptionStore) ListForRuleIDs(ctx context.Context, ruleIDs []string) ([]model.OccurrenceException, error) {
	if len(ruleIDs) == 0 {
		return nil, nil
	}

	query, args, err := sqlx.In(`SELECT * FROM exceptions WHERE rule_id IN (?) ORDER BY rule_id, occurrence_date`, ruleIDs)
	if err != nil {
		return nil, fmt.Errorf("store: list exceptions: %w", err)
	}

	var rows []exceptionRow
	if err := s.db.conn.SelectContext(ctx, &rows, s.db.conn.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("store: list exceptions: %w", err)
	}

	out := make([]model.OccurrenceException, 0, len(rows))
	for _, row := range rows {
		ex, err := rowToException(row)
		if err != nil {
			return nil, err
		}
		out = append(out, ex)
	}
	return out, nil
}

// Delete removes the exception for one base date, restoring the generated
// occurrence. Deleting a missing exception is not an error.
func (s *ExceptionStore) Delete(ctx context.Context, ruleID string, occurrenceDate time.Time) error {
	_, err := s.db.conn.ExecContext(ctx,
		`DELETE FROM exceptions WHERE rule_id = ? AND occurrence_date = ?`,
		ruleID, schedule.FormatDate(occurrenceDate),
	)
	if err != nil {
		return fmt.Errorf("store: delete exception for rule %s: %w", ruleID, err)
	}
	return nil
}

func rowToException(row exceptionRow) (model.OccurrenceException, error) {
	occDate, err := schedule.ParseDate(row.OccurrenceDate)
	if err != nil {
		return model.OccurrenceException{}, fmt.Errorf("store: exception for rule %s: bad occurrence_date %q: %w", row.RuleID, row.OccurrenceDate, err)
	}

	ex := model.OccurrenceException{
		RuleID:         row.RuleID,
		OccurrenceDate: occDate,
		Action:         model.ExceptionAction(row.Action),
		NewStartTime:   row.NewStartTime,
		NewEndTime:     row.NewEndTime,
		NewTitle:       row.NewTitle,
		NewDescription: row.NewDescription,
	}
	if row.NewDate != nil {
		d, err := schedule.ParseDate(*row.NewDate)
		if err != nil {
			return model.OccurrenceException{}, fmt.Errorf("store: exception for rule %s: bad new_date %q: %w", row.RuleID, *row.NewDate, err)
		}
		ex.NewDate = &d
	}
	return ex, nil
}

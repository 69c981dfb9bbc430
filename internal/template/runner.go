// Package template materializes concrete recurrence rules from stored event
// templates.
package template

import (
	"context"
	"fmt"
	"time"

	appLog "allycal/internal/log"
	"allycal/internal/model"
	"allycal/internal/schedule"
	"allycal/internal/store"
)

// Runner turns an EventTemplate plus a run date into a persisted
// RecurrenceRule anchored at that date.
type Runner struct {
	templates *store.TemplateStore
	rules     *store.RuleStore
}

func NewRunner(templates *store.TemplateStore, rules *store.RuleStore) *Runner {
	return &Runner{templates: templates, rules: rules}
}

// Run materializes templateID for runDate and returns the resulting rule.
//
// Runs are idempotent per (templateID, runDate): the run ledger's composite
// key admits exactly one rule per slot, and a duplicate invocation returns
// the rule the first one created instead of minting another.
func (r *Runner) Run(ctx context.Context, templateID string, runDate time.Time) (model.RecurrenceRule, error) {
	tpl, err := r.templates.Get(ctx, templateID)
	if err != nil {
		return model.RecurrenceRule{}, err
	}

	draft := model.RuleDraft{
		Title:       tpl.Title,
		Description: tpl.Description,
		StartDate:   schedule.DateOf(runDate),
		StartTime:   tpl.StartTime,
		EndTime:     tpl.EndTime,
		Frequency:   tpl.Frequency,
		DaysOfWeek:  tpl.DaysOfWeek,
		Visibility:  tpl.Visibility,
		AllianceID:  tpl.AllianceID,
	}

	rule, err := schedule.ValidateDraft(draft)
	if err != nil {
		return model.RecurrenceRule{}, fmt.Errorf("template %s: %w", templateID, err)
	}

	ruleID, err := r.rules.Create(ctx, rule)
	if err != nil {
		return model.RecurrenceRule{}, err
	}

	winnerID, ok, err := r.templates.RecordRun(ctx, templateID, runDate, ruleID)
	if err != nil {
		return model.RecurrenceRule{}, err
	}
	if !ok {
		// An earlier run already owns this slot; discard our rule and hand
		// back the original.
		if delErr := r.rules.Delete(ctx, ruleID); delErr != nil {
			appLog.Error("template: failed to discard duplicate rule", delErr,
				"template_id", templateID, "rule_id", ruleID)
		}
		appLog.Info("template: run already recorded, reusing rule",
			"template_id", templateID,
			"run_date", schedule.FormatDate(runDate),
			"rule_id", winnerID,
		)
		return r.rules.Get(ctx, winnerID)
	}

	appLog.Info("template: materialized rule",
		"template_id", templateID,
		"run_date", schedule.FormatDate(runDate),
		"rule_id", ruleID,
	)
	return r.rules.Get(ctx, ruleID)
}

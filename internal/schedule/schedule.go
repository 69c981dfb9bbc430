// Package schedule is the recurrence engine: it expands recurrence rules
// into base occurrence dates for a window and overlays per-occurrence
// exceptions to produce the final, user-visible occurrence list. Everything
// here is pure and deterministic; loading rules and exceptions is the
// store's job.
package schedule

import (
	"time"

	appLog "allycal/internal/log"
	"allycal/internal/model"
)

// WindowResult is the materialized occurrence list for one date window,
// plus the ids of any rules that were too malformed to expand.
type WindowResult struct {
	Occurrences []model.Occurrence

	// SkippedRuleIDs lists rules dropped from the window because expansion
	// rejected them. Their exceptions are ignored along with them.
	SkippedRuleIDs []string
}

// BuildWindow expands every rule over [rangeStart, rangeEnd], overlays its
// exceptions, and merges the results into one globally ordered list.
//
// Faults are isolated per rule: a malformed rule is logged and recorded in
// SkippedRuleIDs without disturbing the rest of the window. Only a bad
// window itself (end before start) fails the whole call.
func BuildWindow(rules []model.RecurrenceRule, exceptions []model.OccurrenceException, rangeStart, rangeEnd time.Time) (WindowResult, error) {
	var res WindowResult

	byRule := make(map[string][]model.OccurrenceException, len(exceptions))
	for _, ex := range exceptions {
		byRule[ex.RuleID] = append(byRule[ex.RuleID], ex)
	}

	res.Occurrences = make([]model.Occurrence, 0)
	for _, rule := range rules {
		baseDates, err := Expand(rule, rangeStart, rangeEnd)
		if err != nil {
			if IsMalformedRule(err) {
				appLog.Error("schedule: skipping malformed rule", err, "rule_id", rule.ID)
				res.SkippedRuleIDs = append(res.SkippedRuleIDs, rule.ID)
				continue
			}
			return WindowResult{}, err
		}
		res.Occurrences = append(res.Occurrences, Overlay(baseDates, rule, byRule[rule.ID])...)
	}

	SortOccurrences(res.Occurrences)
	return res, nil
}

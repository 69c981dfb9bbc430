package schedule

import (
	"sort"
	"time"

	"allycal/internal/model"
)

// Overlay merges per-occurrence exceptions onto the expander's base dates and
// materializes the final occurrence list for one rule.
//
// Exceptions are keyed by their base date: a skip removes the occurrence, an
// override rewrites it (absent override fields fall back to the rule's own
// values). Exceptions targeting a date that is not in baseDates are orphans
// left behind by a later rule edit; they are ignored and never synthesize an
// occurrence on their own.
func Overlay(baseDates []time.Time, rule model.RecurrenceRule, exceptions []model.OccurrenceException) []model.Occurrence {
	byDate := make(map[string]model.OccurrenceException, len(exceptions))
	for _, ex := range exceptions {
		if ex.RuleID != rule.ID {
			continue
		}
		// Last write wins, matching the store's upsert semantics.
		byDate[FormatDate(ex.OccurrenceDate)] = ex
	}

	out := make([]model.Occurrence, 0, len(baseDates))
	for _, d := range baseDates {
		ex, ok := byDate[FormatDate(d)]
		if !ok {
			out = append(out, occurrenceFromRule(rule, d))
			continue
		}
		switch ex.Action {
		case model.ActionSkip:
			// Skipped occurrences are never materialized.
		case model.ActionOverride:
			out = append(out, applyOverride(rule, d, ex))
		default:
			// Unknown action: treat as absent rather than dropping the date.
			out = append(out, occurrenceFromRule(rule, d))
		}
	}

	SortOccurrences(out)
	return out
}

func occurrenceFromRule(rule model.RecurrenceRule, d time.Time) model.Occurrence {
	return model.Occurrence{
		RuleID:        rule.ID,
		SourceDate:    d,
		EffectiveDate: d,
		StartTime:     rule.StartTime,
		EndTime:       rule.EndTime,
		Title:         rule.Title,
		Description:   rule.Description,
		Visibility:    rule.Visibility,
		AllianceID:    rule.AllianceID,
		Origin:        model.OriginGenerated,
	}
}

func applyOverride(rule model.RecurrenceRule, d time.Time, ex model.OccurrenceException) model.Occurrence {
	occ := occurrenceFromRule(rule, d)
	occ.Origin = model.OriginMoved
	if ex.NewDate != nil {
		occ.EffectiveDate = DateOf(*ex.NewDate)
	}
	if ex.NewStartTime != nil {
		occ.StartTime = *ex.NewStartTime
	}
	if ex.NewEndTime != nil {
		occ.EndTime = *ex.NewEndTime
	}
	if ex.NewTitle != nil {
		occ.Title = *ex.NewTitle
	}
	if ex.NewDescription != nil {
		occ.Description = *ex.NewDescription
	}
	return occ
}

// SortOccurrences orders occurrences by (effectiveDate, startTime, ruleID)
// ascending. The key is total, so colliding occurrences from different rules
// always render in the same order.
func SortOccurrences(occs []model.Occurrence) {
	sort.Slice(occs, func(i, j int) bool {
		a, b := occs[i], occs[j]
		if !a.EffectiveDate.Equal(b.EffectiveDate) {
			return a.EffectiveDate.Before(b.EffectiveDate)
		}
		if a.StartTime != b.StartTime {
			return a.StartTime < b.StartTime
		}
		return a.RuleID < b.RuleID
	})
}

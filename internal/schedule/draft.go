package schedule

import (
	"sort"
	"strings"

	"allycal/internal/model"
)

// ValidateDraft normalizes a rule draft into a persistable RecurrenceRule.
// Checks run in order and stop at the first failure:
//
//  1. title must be non-empty after trimming
//  2. alliance visibility requires a resolvable alliance id
//
// Everything after that is repair, not rejection: out-of-range weekdays are
// dropped, the set is deduplicated and sorted, and a frequency that requires
// weekdays but has none gets the weekday of the start date substituted, the
// same fallback the editing UI applies.
//
// The returned rule has no ID; the store assigns one on create.
func ValidateDraft(draft model.RuleDraft) (model.RecurrenceRule, error) {
	title := strings.TrimSpace(draft.Title)
	if title == "" {
		return model.RecurrenceRule{}, &ValidationError{Field: "title", Reason: "must not be empty"}
	}

	allianceID := strings.TrimSpace(draft.AllianceID)
	if draft.Visibility == model.VisibilityAlliance && allianceID == "" {
		return model.RecurrenceRule{}, &ValidationError{Field: "alliance_id", Reason: "required for alliance visibility"}
	}

	freq := draft.Frequency
	if freq == "" {
		freq = model.FreqNone
	}
	if !freq.Valid() {
		return model.RecurrenceRule{}, &ValidationError{Field: "frequency", Reason: "unknown frequency " + string(freq)}
	}

	visibility := draft.Visibility
	if visibility == "" {
		visibility = model.VisibilityPersonal
	}
	if !visibility.Valid() {
		return model.RecurrenceRule{}, &ValidationError{Field: "visibility", Reason: "unknown visibility " + string(visibility)}
	}
	if visibility != model.VisibilityAlliance {
		// AllianceID is present iff visibility is alliance.
		allianceID = ""
	}

	startDate := DateOf(draft.StartDate)

	days := NormalizeDaysOfWeek(draft.DaysOfWeek)
	if freq.NeedsDaysOfWeek() && len(days) == 0 {
		days = []int{int(startDate.Weekday())}
	}
	if !freq.NeedsDaysOfWeek() {
		days = nil
	}

	return model.RecurrenceRule{
		Title:       title,
		Description: draft.Description,
		StartDate:   startDate,
		StartTime:   draft.StartTime,
		EndTime:     draft.EndTime,
		Frequency:   freq,
		DaysOfWeek:  days,
		Visibility:  visibility,
		AllianceID:  allianceID,
	}, nil
}

// NormalizeDaysOfWeek drops values outside 0-6, deduplicates, and sorts
// ascending.
func NormalizeDaysOfWeek(days []int) []int {
	seen := make(map[int]bool, len(days))
	out := make([]int, 0, len(days))
	for _, d := range days {
		if d < 0 || d > 6 || seen[d] {
			continue
		}
		seen[d] = true
		out = append(out, d)
	}
	sort.Ints(out)
	return out
}

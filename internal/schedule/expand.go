package schedule

import (
	"errors"
	"time"

	appLog "allycal/internal/log"
	"allycal/internal/model"
)

// maxOccurrencesPerRule is a safety cap so a huge window cannot produce an
// unbounded expansion for a single rule.
const maxOccurrencesPerRule = 5000

// Expand computes the base occurrence dates a rule fires on within the
// inclusive [rangeStart, rangeEnd] window. The result is ascending, has no
// duplicates, and is fully determined by its inputs.
//
// Per-frequency policy:
//
//   - none:     startDate alone, iff it falls inside the window
//   - daily:    every date >= startDate inside the window
//   - weekly:   dates >= startDate whose weekday is in DaysOfWeek
//   - biweekly: as weekly, restricted to alternating weeks; parity is
//     anchored to the Sunday-started week containing startDate, so the
//     rule's own start week is always active
//   - monthly:  dates >= startDate sharing startDate's day-of-month,
//     weekday-filtered when DaysOfWeek is non-empty
func Expand(rule model.RecurrenceRule, rangeStart, rangeEnd time.Time) ([]time.Time, error) {
	if err := checkExpandable(rule); err != nil {
		return nil, err
	}

	rangeStart = DateOf(rangeStart)
	rangeEnd = DateOf(rangeEnd)
	if rangeEnd.Before(rangeStart) {
		return nil, errors.New("expand: range end before range start")
	}

	start := DateOf(rule.StartDate)

	if rule.Frequency == model.FreqNone {
		if start.Before(rangeStart) || start.After(rangeEnd) {
			return []time.Time{}, nil
		}
		return []time.Time{start}, nil
	}

	days := make(map[int]bool, len(rule.DaysOfWeek))
	for _, d := range rule.DaysOfWeek {
		days[d] = true
	}
	anchorWeek := weekStart(start)

	out := make([]time.Time, 0)
	for d := maxDate(start, rangeStart); !d.After(rangeEnd); d = d.AddDate(0, 0, 1) {
		if !fires(rule, d, days, anchorWeek) {
			continue
		}
		out = append(out, d)
		if len(out) >= maxOccurrencesPerRule {
			appLog.Error("expand: occurrence cap reached for rule",
				errors.New("max occurrences reached"),
				"rule_id", rule.ID,
				"cap", maxOccurrencesPerRule,
			)
			break
		}
	}
	return out, nil
}

// fires reports whether a daily/weekly/biweekly/monthly rule lands on d.
// d is already known to be >= the rule's start date.
func fires(rule model.RecurrenceRule, d time.Time, days map[int]bool, anchorWeek time.Time) bool {
	switch rule.Frequency {
	case model.FreqDaily:
		return true

	case model.FreqWeekly:
		return days[int(d.Weekday())]

	case model.FreqBiweekly:
		if !days[int(d.Weekday())] {
			return false
		}
		weeksBetween := int(weekStart(d).Sub(anchorWeek)/(24*time.Hour)) / 7
		return weeksBetween%2 == 0

	case model.FreqMonthly:
		if d.Day() != rule.StartDate.Day() {
			return false
		}
		if len(days) == 0 {
			return true
		}
		return days[int(d.Weekday())]
	}
	return false
}

// checkExpandable verifies the invariants the expander relies on. A failure
// means the persisted rule is corrupt, not that the caller misused the API.
func checkExpandable(rule model.RecurrenceRule) error {
	if !rule.Frequency.Valid() {
		return &MalformedRuleError{RuleID: rule.ID, Reason: "unknown frequency " + string(rule.Frequency)}
	}
	if rule.StartDate.IsZero() {
		return &MalformedRuleError{RuleID: rule.ID, Reason: "start date missing"}
	}
	for _, d := range rule.DaysOfWeek {
		if d < 0 || d > 6 {
			return &MalformedRuleError{RuleID: rule.ID, Reason: "day of week out of range"}
		}
	}
	if rule.Frequency.NeedsDaysOfWeek() && len(rule.DaysOfWeek) == 0 {
		return &MalformedRuleError{RuleID: rule.ID, Reason: "days of week required for frequency " + string(rule.Frequency)}
	}
	return nil
}

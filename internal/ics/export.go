// Package ics renders schedules as iCalendar documents: a materialized
// occurrence window as concrete VEVENTs, or the rule definitions themselves
// as recurring VEVENTs with RRULEs for external calendar subscriptions.
package ics

import (
	"fmt"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/teambition/rrule-go"

	"allycal/internal/model"
	"allycal/internal/schedule"
)

const productID = "-//allycal//occurrence export//EN"

// All times in rules are naive wall-clock values, so every DTSTART/DTEND is
// emitted floating (no TZID, no Z suffix).
const floatingLayout = "20060102T150405"

// ExportOccurrences renders a materialized window as one VEVENT per
// occurrence. Occurrences without a parseable start time become all-day
// events.
func ExportOccurrences(occs []model.Occurrence) string {
	cal := ical.NewCalendar()
	cal.SetProductId(productID)

	for _, occ := range occs {
		ev := cal.AddEvent(occurrenceUID(occ))
		ev.SetSummary(occ.Title)
		if occ.Description != "" {
			ev.SetDescription(occ.Description)
		}
		setEventTimes(ev, occ.EffectiveDate, occ.StartTime, occ.EndTime)
	}

	return cal.Serialize()
}

// ExportRules renders rule definitions as recurring VEVENTs. One-off rules
// (frequency none) are emitted without an RRULE.
func ExportRules(rules []model.RecurrenceRule) string {
	cal := ical.NewCalendar()
	cal.SetProductId(productID)

	for _, rule := range rules {
		ev := cal.AddEvent(rule.ID + "@allycal")
		ev.SetSummary(rule.Title)
		if rule.Description != "" {
			ev.SetDescription(rule.Description)
		}
		setEventTimes(ev, rule.StartDate, rule.StartTime, rule.EndTime)

		if rr, ok := ruleRRule(rule); ok {
			ev.AddRrule(rr)
		}
	}

	return cal.Serialize()
}

func occurrenceUID(occ model.Occurrence) string {
	return fmt.Sprintf("%s-%s@allycal", occ.RuleID, schedule.FormatDate(occ.SourceDate))
}

// setEventTimes writes DTSTART/DTEND for day + "HH:MM" wall-clock strings.
// A missing or malformed start time degrades to an all-day event. An end at
// or before the start is read as crossing midnight.
func setEventTimes(ev *ical.VEvent, day time.Time, startTime, endTime string) {
	start, err := combine(day, startTime)
	if err != nil {
		ev.SetAllDayStartAt(day)
		ev.SetAllDayEndAt(day.AddDate(0, 0, 1))
		return
	}
	ev.SetProperty(ical.ComponentPropertyDtStart, start.Format(floatingLayout))

	end, err := combine(day, endTime)
	if err != nil {
		return
	}
	if !end.After(start) {
		end = end.AddDate(0, 0, 1)
	}
	ev.SetProperty(ical.ComponentPropertyDtEnd, end.Format(floatingLayout))
}

func combine(day time.Time, hhmm string) (time.Time, error) {
	clock, err := time.Parse("15:04", hhmm)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(day.Year(), day.Month(), day.Day(), clock.Hour(), clock.Minute(), 0, 0, time.UTC), nil
}

var rruleWeekdays = [7]rrule.Weekday{rrule.SU, rrule.MO, rrule.TU, rrule.WE, rrule.TH, rrule.FR, rrule.SA}

// ruleRRule maps a rule's cadence to an RRULE value. WKST=SU keeps biweekly
// parity aligned with the engine's Sunday-anchored weeks; monthly rules rely
// on RFC 5545 limit semantics (BYMONTHDAY and BYDAY both filter).
func ruleRRule(rule model.RecurrenceRule) (string, bool) {
	// DTSTART is carried by the VEVENT itself, never inside the RRULE value.
	opt := rrule.ROption{
		Wkst: rrule.SU,
	}

	switch rule.Frequency {
	case model.FreqDaily:
		opt.Freq = rrule.DAILY

	case model.FreqWeekly, model.FreqBiweekly:
		opt.Freq = rrule.WEEKLY
		if rule.Frequency == model.FreqBiweekly {
			opt.Interval = 2
		}
		opt.Byweekday = toWeekdays(rule.DaysOfWeek)

	case model.FreqMonthly:
		opt.Freq = rrule.MONTHLY
		opt.Bymonthday = []int{rule.StartDate.Day()}
		opt.Byweekday = toWeekdays(rule.DaysOfWeek)

	default:
		return "", false
	}

	r, err := rrule.NewRRule(opt)
	if err != nil {
		return "", false
	}
	return r.String(), true
}

func toWeekdays(days []int) []rrule.Weekday {
	out := make([]rrule.Weekday, 0, len(days))
	for _, d := range days {
		if d >= 0 && d <= 6 {
			out = append(out, rruleWeekdays[d])
		}
	}
	return out
}

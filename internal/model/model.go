package model

import "time"

// Frequency describes how often a recurrence rule fires.
type Frequency string

const (
	FreqNone     Frequency = "none"
	FreqDaily    Frequency = "daily"
	FreqWeekly   Frequency = "weekly"
	FreqBiweekly Frequency = "biweekly"
	FreqMonthly  Frequency = "monthly"
)

// Valid reports whether f is one of the known frequencies.
func (f Frequency) Valid() bool {
	switch f {
	case FreqNone, FreqDaily, FreqWeekly, FreqBiweekly, FreqMonthly:
		return true
	}
	return false
}

// NeedsDaysOfWeek reports whether rules with this frequency require a
// non-empty weekday set.
func (f Frequency) NeedsDaysOfWeek() bool {
	switch f {
	case FreqWeekly, FreqBiweekly, FreqMonthly:
		return true
	}
	return false
}

// Visibility controls who can see a rule's occurrences.
type Visibility string

const (
	VisibilityPersonal Visibility = "personal"
	VisibilityAlliance Visibility = "alliance"
)

// Valid reports whether v is a known visibility.
func (v Visibility) Valid() bool {
	return v == VisibilityPersonal || v == VisibilityAlliance
}

// RecurrenceRule is a persisted recurrence definition: an anchor date plus a
// cadence describing when the event repeats.
//
// StartDate is a civil date (midnight UTC; see schedule.ParseDate). StartTime
// and EndTime are naive wall-clock "HH:MM" strings stored exactly as entered;
// no ordering between them is enforced.
type RecurrenceRule struct {
	ID          string
	Title       string
	Description string

	StartDate time.Time
	StartTime string
	EndTime   string

	Frequency Frequency

	// DaysOfWeek holds weekdays 0-6 (Sunday=0), deduplicated and ascending.
	// Required non-empty for weekly/biweekly/monthly; ignored otherwise.
	DaysOfWeek []int

	Visibility Visibility
	AllianceID string
}

// ExceptionAction is what an OccurrenceException does to its target date.
type ExceptionAction string

const (
	ActionSkip     ExceptionAction = "skip"
	ActionOverride ExceptionAction = "override"
)

// OccurrenceException is a per-date adjustment to one occurrence of a rule.
// OccurrenceDate is the base date produced by expansion, i.e. a lookup key
// into the expander's output, not an independently meaningful date. At most
// one exception exists per (RuleID, OccurrenceDate); writes are upserts.
type OccurrenceException struct {
	RuleID         string
	OccurrenceDate time.Time
	Action         ExceptionAction

	// Override fields. Nil means "fall back to the rule's own value".
	NewDate        *time.Time
	NewStartTime   *string
	NewEndTime     *string
	NewTitle       *string
	NewDescription *string
}

// OverrideFields carries the optional replacement values of an override
// exception. Nil fields keep the rule's own values.
type OverrideFields struct {
	NewDate        *time.Time
	NewStartTime   *string
	NewEndTime     *string
	NewTitle       *string
	NewDescription *string
}

// OccurrenceOrigin says whether an occurrence came straight out of expansion
// or was rewritten by an override exception.
type OccurrenceOrigin string

const (
	OriginGenerated OccurrenceOrigin = "generated"
	OriginMoved     OccurrenceOrigin = "moved"
)

// Occurrence is one concrete, user-visible calendar instance. It is entirely
// derived: recomputed on every query, never persisted.
type Occurrence struct {
	RuleID string

	// SourceDate is the base date from expansion; EffectiveDate is where the
	// occurrence actually lands after exceptions. They differ only for moves.
	SourceDate    time.Time
	EffectiveDate time.Time

	StartTime   string
	EndTime     string
	Title       string
	Description string

	Visibility Visibility
	AllianceID string

	Origin OccurrenceOrigin
}

// RuleDraft is the immutable form a caller hands to the draft validator.
// It mirrors RecurrenceRule but carries raw, unvalidated user input.
type RuleDraft struct {
	Title       string
	Description string

	StartDate time.Time
	StartTime string
	EndTime   string

	Frequency  Frequency
	DaysOfWeek []int

	Visibility Visibility
	AllianceID string
}

// Scope selects which rules a window query sees. Alliance rules match
// AllianceID; personal rules are included iff IncludePersonal is set.
// The zero Scope matches nothing.
type Scope struct {
	AllianceID      string
	IncludePersonal bool
}

// EventTemplate is a reusable rule blueprint. Running it for a date
// materializes a concrete RecurrenceRule anchored at that date.
type EventTemplate struct {
	ID          string
	Title       string
	Description string

	StartTime string
	EndTime   string

	Frequency  Frequency
	DaysOfWeek []int

	Visibility Visibility
	AllianceID string
}

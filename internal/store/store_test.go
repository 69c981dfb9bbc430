package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"allycal/internal/model"
	"allycal/internal/schedule"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func date(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := schedule.ParseDate(s)
	require.NoError(t, err)
	return d
}

func sampleRule(t *testing.T) model.RecurrenceRule {
	t.Helper()
	return model.RecurrenceRule{
		Title:      "raid night",
		StartDate:  date(t, "2024-01-01"),
		StartTime:  "20:00",
		EndTime:    "22:00",
		Frequency:  model.FreqWeekly,
		DaysOfWeek: []int{1, 3},
		Visibility: model.VisibilityAlliance,
		AllianceID: "a1",
	}
}

func TestRuleCreateGetRoundTrip(t *testing.T) {
	db := testDB(t)
	rules := NewRuleStore(db)
	ctx := context.Background()

	id, err := rules.Create(ctx, sampleRule(t))
	require.NoError(t, err)
	require.NotEmpty(t, id)

	got, err := rules.Get(ctx, id)
	require.NoError(t, err)

	want := sampleRule(t)
	want.ID = id
	assert.Equal(t, want, got)
}

func TestRuleGetMissing(t *testing.T) {
	db := testDB(t)
	rules := NewRuleStore(db)

	_, err := rules.Get(context.Background(), "nope")

	assert.True(t, errors.Is(err, schedule.ErrNotFound))
}

func TestRuleUpdatePatchesOnlyGivenFields(t *testing.T) {
	db := testDB(t)
	rules := NewRuleStore(db)
	ctx := context.Background()

	id, err := rules.Create(ctx, sampleRule(t))
	require.NoError(t, err)

	title := "war council"
	freq := model.FreqBiweekly
	err = rules.Update(ctx, id, RulePatch{
		Title:      &title,
		Frequency:  &freq,
		DaysOfWeek: []int{5, 5, 2},
	})
	require.NoError(t, err)

	got, err := rules.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "war council", got.Title)
	assert.Equal(t, model.FreqBiweekly, got.Frequency)
	assert.Equal(t, []int{2, 5}, got.DaysOfWeek)
	// Untouched fields survive.
	assert.Equal(t, "20:00", got.StartTime)
	assert.Equal(t, "a1", got.AllianceID)
}

func TestRuleUpdateRejectsBlankTitle(t *testing.T) {
	db := testDB(t)
	rules := NewRuleStore(db)
	ctx := context.Background()

	id, err := rules.Create(ctx, sampleRule(t))
	require.NoError(t, err)

	blank := "   "
	err = rules.Update(ctx, id, RulePatch{Title: &blank})

	var ve *schedule.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "title", ve.Field)

	got, err := rules.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "raid night", got.Title)
}

func TestRuleUpdateFrequencyChangeRepairsWeekdays(t *testing.T) {
	db := testDB(t)
	rules := NewRuleStore(db)
	ctx := context.Background()

	daily := sampleRule(t)
	daily.Frequency = model.FreqDaily
	daily.DaysOfWeek = nil
	id, err := rules.Create(ctx, daily)
	require.NoError(t, err)

	freq := model.FreqWeekly
	require.NoError(t, rules.Update(ctx, id, RulePatch{Frequency: &freq}))

	got, err := rules.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, model.FreqWeekly, got.Frequency)
	// 2024-01-01 is a Monday; the empty weekday set is repaired from the
	// start date instead of persisting a rule the expander would reject.
	assert.Equal(t, []int{1}, got.DaysOfWeek)
}

func TestRuleUpdateMissing(t *testing.T) {
	db := testDB(t)
	rules := NewRuleStore(db)

	title := "x"
	err := rules.Update(context.Background(), "nope", RulePatch{Title: &title})

	assert.True(t, errors.Is(err, schedule.ErrNotFound))
}

func TestRuleDeleteCascadesExceptions(t *testing.T) {
	db := testDB(t)
	rules := NewRuleStore(db)
	exceptions := NewExceptionStore(db)
	ctx := context.Background()

	id, err := rules.Create(ctx, sampleRule(t))
	require.NoError(t, err)
	require.NoError(t, exceptions.UpsertSkip(ctx, id, date(t, "2024-01-03")))

	require.NoError(t, rules.Delete(ctx, id))

	left, err := exceptions.ListForRuleIDs(ctx, []string{id})
	require.NoError(t, err)
	assert.Empty(t, left)
}

func TestRuleListForWindowScope(t *testing.T) {
	db := testDB(t)
	rules := NewRuleStore(db)
	ctx := context.Background()

	alliance := sampleRule(t)
	_, err := rules.Create(ctx, alliance)
	require.NoError(t, err)

	otherAlliance := sampleRule(t)
	otherAlliance.AllianceID = "a2"
	_, err = rules.Create(ctx, otherAlliance)
	require.NoError(t, err)

	personal := sampleRule(t)
	personal.Visibility = model.VisibilityPersonal
	personal.AllianceID = ""
	_, err = rules.Create(ctx, personal)
	require.NoError(t, err)

	got, err := rules.ListForWindow(ctx,
		model.Scope{AllianceID: "a1", IncludePersonal: false},
		date(t, "2024-01-01"), date(t, "2024-01-31"),
	)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "a1", got[0].AllianceID)

	got, err = rules.ListForWindow(ctx,
		model.Scope{AllianceID: "a1", IncludePersonal: true},
		date(t, "2024-01-01"), date(t, "2024-01-31"),
	)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestRuleListForWindowDropsStaleOneOffs(t *testing.T) {
	db := testDB(t)
	rules := NewRuleStore(db)
	ctx := context.Background()

	oneOff := sampleRule(t)
	oneOff.Frequency = model.FreqNone
	oneOff.DaysOfWeek = nil
	oneOff.StartDate = date(t, "2023-06-01")
	_, err := rules.Create(ctx, oneOff)
	require.NoError(t, err)

	recurring := sampleRule(t)
	recurring.StartDate = date(t, "2023-06-01")
	_, err = rules.Create(ctx, recurring)
	require.NoError(t, err)

	future := sampleRule(t)
	future.StartDate = date(t, "2025-01-01")
	_, err = rules.Create(ctx, future)
	require.NoError(t, err)

	got, err := rules.ListForWindow(ctx,
		model.Scope{AllianceID: "a1"},
		date(t, "2024-01-01"), date(t, "2024-01-31"),
	)
	require.NoError(t, err)
	// The old one-off can no longer fire in the window; the future-anchored
	// rule cannot fire yet. Only the old recurring rule is in play.
	require.Len(t, got, 1)
	assert.Equal(t, model.FreqWeekly, got[0].Frequency)
}

func TestExceptionUpsertLastWriteWins(t *testing.T) {
	db := testDB(t)
	rules := NewRuleStore(db)
	exceptions := NewExceptionStore(db)
	ctx := context.Background()

	id, err := rules.Create(ctx, sampleRule(t))
	require.NoError(t, err)
	target := date(t, "2024-01-03")

	require.NoError(t, exceptions.UpsertSkip(ctx, id, target))

	title := "moved war council"
	newDate := date(t, "2024-01-04")
	require.NoError(t, exceptions.UpsertOverride(ctx, id, target, model.OverrideFields{
		NewDate:  &newDate,
		NewTitle: &title,
	}))

	got, err := exceptions.ListForRuleIDs(ctx, []string{id})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, model.ActionOverride, got[0].Action)
	require.NotNil(t, got[0].NewDate)
	assert.Equal(t, newDate, *got[0].NewDate)
	require.NotNil(t, got[0].NewTitle)
	assert.Equal(t, title, *got[0].NewTitle)
	assert.Nil(t, got[0].NewStartTime)
}

func TestExceptionUpsertSkipIdempotent(t *testing.T) {
	db := testDB(t)
	rules := NewRuleStore(db)
	exceptions := NewExceptionStore(db)
	ctx := context.Background()

	id, err := rules.Create(ctx, sampleRule(t))
	require.NoError(t, err)
	target := date(t, "2024-01-03")

	require.NoError(t, exceptions.UpsertSkip(ctx, id, target))
	require.NoError(t, exceptions.UpsertSkip(ctx, id, target))

	got, err := exceptions.ListForRuleIDs(ctx, []string{id})
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestExceptionDelete(t *testing.T) {
	db := testDB(t)
	rules := NewRuleStore(db)
	exceptions := NewExceptionStore(db)
	ctx := context.Background()

	id, err := rules.Create(ctx, sampleRule(t))
	require.NoError(t, err)
	target := date(t, "2024-01-03")
	require.NoError(t, exceptions.UpsertSkip(ctx, id, target))

	require.NoError(t, exceptions.Delete(ctx, id, target))
	// Deleting again is a no-op, not an error.
	require.NoError(t, exceptions.Delete(ctx, id, target))

	got, err := exceptions.ListForRuleIDs(ctx, []string{id})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestTemplateRunIdempotent(t *testing.T) {
	db := testDB(t)
	templates := NewTemplateStore(db)
	ctx := context.Background()

	tplID, err := templates.Create(ctx, model.EventTemplate{
		Title:      "weekly muster",
		StartTime:  "18:00",
		EndTime:    "19:00",
		Frequency:  model.FreqWeekly,
		DaysOfWeek: []int{6},
		Visibility: model.VisibilityAlliance,
		AllianceID: "a1",
	})
	require.NoError(t, err)

	runDate := date(t, "2024-02-03")

	got, ok, err := templates.RecordRun(ctx, tplID, runDate, "rule-1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "rule-1", got)

	got, ok, err = templates.RecordRun(ctx, tplID, runDate, "rule-2")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, "rule-1", got)

	// A different date is a fresh slot.
	got, ok, err = templates.RecordRun(ctx, tplID, date(t, "2024-02-10"), "rule-3")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "rule-3", got)
}

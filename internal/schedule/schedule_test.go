package schedule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"allycal/internal/model"
)

func TestBuildWindowMergesRules(t *testing.T) {
	monWed := weeklyRule(t, "2024-01-01", 1, 3)
	tue := weeklyRule(t, "2024-01-01", 2)
	tue.ID = "r2"
	tue.Title = "recruit training"

	res, err := BuildWindow(
		[]model.RecurrenceRule{monWed, tue},
		nil,
		date(t, "2024-01-01"), date(t, "2024-01-07"),
	)

	require.NoError(t, err)
	assert.Empty(t, res.SkippedRuleIDs)
	assert.Equal(t, []string{"2024-01-01", "2024-01-02", "2024-01-03"}, effectiveDates(res.Occurrences))
}

// A malformed rule is isolated: logged, skipped, and the rest of the window
// still expands.
func TestBuildWindowIsolatesMalformedRule(t *testing.T) {
	good := weeklyRule(t, "2024-01-01", 1)
	bad := weeklyRule(t, "2024-01-01") // weekly with no weekdays
	bad.ID = "r-bad"

	res, err := BuildWindow(
		[]model.RecurrenceRule{bad, good},
		nil,
		date(t, "2024-01-01"), date(t, "2024-01-14"),
	)

	require.NoError(t, err)
	assert.Equal(t, []string{"r-bad"}, res.SkippedRuleIDs)
	assert.Equal(t, []string{"2024-01-01", "2024-01-08"}, effectiveDates(res.Occurrences))
}

func TestBuildWindowAppliesExceptionsPerRule(t *testing.T) {
	rule := weeklyRule(t, "2024-01-01", 1, 3)
	skip := model.OccurrenceException{
		RuleID:         rule.ID,
		OccurrenceDate: date(t, "2024-01-03"),
		Action:         model.ActionSkip,
	}

	res, err := BuildWindow(
		[]model.RecurrenceRule{rule},
		[]model.OccurrenceException{skip},
		date(t, "2024-01-01"), date(t, "2024-01-14"),
	)

	require.NoError(t, err)
	assert.Equal(t, []string{"2024-01-01", "2024-01-08", "2024-01-10"}, effectiveDates(res.Occurrences))
}

func TestBuildWindowCollisionOrderStable(t *testing.T) {
	a := weeklyRule(t, "2024-01-01", 1)
	a.ID = "aaa"
	b := weeklyRule(t, "2024-01-01", 1)
	b.ID = "zzz"

	first, err := BuildWindow([]model.RecurrenceRule{b, a}, nil, date(t, "2024-01-01"), date(t, "2024-01-01"))
	require.NoError(t, err)
	second, err := BuildWindow([]model.RecurrenceRule{a, b}, nil, date(t, "2024-01-01"), date(t, "2024-01-01"))
	require.NoError(t, err)

	require.Len(t, first.Occurrences, 2)
	assert.Equal(t, "aaa", first.Occurrences[0].RuleID)
	assert.Equal(t, first.Occurrences, second.Occurrences)
}

func TestBuildWindowBadRangeFails(t *testing.T) {
	rule := weeklyRule(t, "2024-01-01", 1)

	_, err := BuildWindow([]model.RecurrenceRule{rule}, nil, date(t, "2024-02-01"), date(t, "2024-01-01"))

	assert.Error(t, err)
}

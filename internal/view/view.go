// Package view maintains the materialized occurrence window served to
// callers. Rebuilds may overlap (cron ticks, manual refreshes, window
// changes); a generation counter makes the last request win and stale
// responses are dropped without touching the displayed state.
package view

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	appLog "allycal/internal/log"
	"allycal/internal/model"
	"allycal/internal/schedule"
)

// RuleSource and ExceptionSource are the narrow store surfaces the view
// needs; *store.RuleStore and *store.ExceptionStore satisfy them.
type RuleSource interface {
	ListForWindow(ctx context.Context, scope model.Scope, start, end time.Time) ([]model.RecurrenceRule, error)
}

type ExceptionSource interface {
	ListForRuleIDs(ctx context.Context, ruleIDs []string) ([]model.OccurrenceException, error)
}

// Snapshot is one fully built occurrence window. It is immutable once
// installed; readers share it without copying.
type Snapshot struct {
	Generation     uint64
	RangeStart     time.Time
	RangeEnd       time.Time
	Occurrences    []model.Occurrence
	SkippedRuleIDs []string
	BuiltAt        time.Time
}

// View holds the current snapshot and rebuilds it on demand.
type View struct {
	rules      RuleSource
	exceptions ExceptionSource
	scope      model.Scope

	gen atomic.Uint64

	mu   sync.RWMutex
	snap *Snapshot
}

func New(rules RuleSource, exceptions ExceptionSource, scope model.Scope) *View {
	return &View{rules: rules, exceptions: exceptions, scope: scope}
}

// Current returns the installed snapshot, or nil before the first refresh.
func (v *View) Current() *Snapshot {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.snap
}

// Refresh rebuilds the window and installs the result if it is still the
// newest request. Each call claims the next generation up front; by the time
// the store responds, a newer claim may exist, in which case this response
// is dropped and applied=false is returned. The build itself runs outside
// the lock.
func (v *View) Refresh(ctx context.Context, rangeStart, rangeEnd time.Time) (snap *Snapshot, applied bool, err error) {
	gen := v.gen.Add(1)

	rules, err := v.rules.ListForWindow(ctx, v.scope, rangeStart, rangeEnd)
	if err != nil {
		return nil, false, err
	}

	ruleIDs := make([]string, 0, len(rules))
	for _, r := range rules {
		ruleIDs = append(ruleIDs, r.ID)
	}
	exceptions, err := v.exceptions.ListForRuleIDs(ctx, ruleIDs)
	if err != nil {
		return nil, false, err
	}

	res, err := schedule.BuildWindow(rules, exceptions, rangeStart, rangeEnd)
	if err != nil {
		return nil, false, err
	}

	snap = &Snapshot{
		Generation:     gen,
		RangeStart:     schedule.DateOf(rangeStart),
		RangeEnd:       schedule.DateOf(rangeEnd),
		Occurrences:    res.Occurrences,
		SkippedRuleIDs: res.SkippedRuleIDs,
		BuiltAt:        time.Now().UTC(),
	}

	if gen != v.gen.Load() {
		// A newer refresh was requested while this one was loading.
		appLog.Debug("view: dropping stale refresh", "generation", gen)
		return snap, false, nil
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.snap != nil && v.snap.Generation >= gen {
		return snap, false, nil
	}
	v.snap = snap
	appLog.Info("view: snapshot installed",
		"generation", gen,
		"range_start", schedule.FormatDate(snap.RangeStart),
		"range_end", schedule.FormatDate(snap.RangeEnd),
		"occurrence_count", len(snap.Occurrences),
		"skipped_rules", len(snap.SkippedRuleIDs),
	)
	return snap, true, nil
}

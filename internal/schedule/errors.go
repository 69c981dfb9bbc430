package schedule

import (
	"errors"
	"fmt"
)

// Store-layer sentinels. The pure functions in this package never return
// these; they exist so stores and handlers share one taxonomy.
var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
)

// ValidationError is a recoverable draft failure, surfaced to the user inline.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// MalformedRuleError marks a persisted rule that violates an invariant the
// expander requires. It is a data-integrity fault: callers log it and skip
// the rule rather than failing the whole window.
type MalformedRuleError struct {
	RuleID string
	Reason string
}

func (e *MalformedRuleError) Error() string {
	return fmt.Sprintf("malformed rule %s: %s", e.RuleID, e.Reason)
}

// IsMalformedRule reports whether err is a MalformedRuleError.
func IsMalformedRule(err error) bool {
	var me *MalformedRuleError
	return errors.As(err, &me)
}

package engine

import (
	"errors"
	"fmt"
)

// DefaultMaxSteps bounds the invocations executed by a single run.
const DefaultMaxSteps = 10000

// QuotaEnforcer counts the invocations of one run and enforces a limit.
// A run that loops through branch targets forever is stopped here.
type QuotaEnforcer struct {
	maxSteps int
	current  int
}

// NewQuotaEnforcer creates an enforcer allowing maxSteps invocations.
func NewQuotaEnforcer(maxSteps int) *QuotaEnforcer {
	return &QuotaEnforcer{maxSteps: maxSteps}
}

// Check counts one more step and fails once the limit is exceeded.
func (q *QuotaEnforcer) Check(runToken string) error {
	q.current++
	if q.current > q.maxSteps {
		return &StepsExceededError{
			RunToken: runToken,
			Steps:    q.current,
			Limit:    q.maxSteps,
		}
	}
	return nil
}

// Current returns the number of steps counted so far.
func (q *QuotaEnforcer) Current() int {
	return q.current
}

// MaxSteps returns the limit.
func (q *QuotaEnforcer) MaxSteps() int {
	return q.maxSteps
}

// StepsExceededError is returned when a run exceeds its step quota.
type StepsExceededError struct {
	RunToken string
	Steps    int
	Limit    int
}

// Error implements the error interface.
func (e *StepsExceededError) Error() string {
	return fmt.Sprintf("run %s exceeded max steps quota: %d steps > %d limit",
		e.RunToken, e.Steps, e.Limit)
}

// IsStepsExceededError returns true if err is or wraps a StepsExceededError.
func IsStepsExceededError(err error) bool {
	var se *StepsExceededError
	return errors.As(err, &se)
}

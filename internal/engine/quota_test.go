package engine

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuotaEnforcer_WithinLimit(t *testing.T) {
	q := NewQuotaEnforcer(10)
	for i := range 10 {
		assert.NoError(t, q.Check("run-1"), "step %d should be allowed", i+1)
	}
	assert.Equal(t, 10, q.Current())
	assert.Equal(t, 10, q.MaxSteps())
}

func TestQuotaEnforcer_ExceedsLimit(t *testing.T) {
	q := NewQuotaEnforcer(5)
	for range 5 {
		require.NoError(t, q.Check("run-1"))
	}

	err := q.Check("run-1")
	var stepsErr *StepsExceededError
	require.ErrorAs(t, err, &stepsErr)
	assert.Equal(t, "run-1", stepsErr.RunToken)
	assert.Equal(t, 6, stepsErr.Steps)
	assert.Equal(t, 5, stepsErr.Limit)
	assert.Equal(t, "run run-1 exceeded max steps quota: 6 steps > 5 limit", err.Error())
}

func TestQuotaEnforcer_ZeroLimit(t *testing.T) {
	q := NewQuotaEnforcer(0)
	assert.True(t, IsStepsExceededError(q.Check("run-0")))
}

func TestIsQuotaError(t *testing.T) {
	stepsErr := &StepsExceededError{RunToken: "r", Steps: 2, Limit: 1}
	assert.True(t, IsQuotaError(stepsErr))
	assert.True(t, IsQuotaError(fmt.Errorf("wrapped: %w", stepsErr)))
	assert.True(t, IsQuotaError(&RuntimeError{Code: ErrCodeQuotaExceeded}))
	assert.False(t, IsQuotaError(&RuntimeError{Code: ErrCodeMissingVariable}))
	assert.False(t, IsQuotaError(fmt.Errorf("plain")))
}

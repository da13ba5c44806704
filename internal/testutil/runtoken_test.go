package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFixedRunToken(t *testing.T) {
	gen := NewFixedRunToken("run-123")
	assert.Equal(t, "run-123", gen.Generate())
	assert.Equal(t, "run-123", gen.Generate())

	assert.Equal(t, DefaultRunToken, NewFixedRunToken("").Generate())
}

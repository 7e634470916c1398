package audit

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bryanwahyu/image-identifier/internal/domain/analysis"
)

func TestOutcomeOf(t *testing.T) {
	assert.Equal(t, OutcomeSuccess, OutcomeOf(nil))
	assert.Equal(t, OutcomeInvalidInput, OutcomeOf(analysis.InvalidInput("bad", nil)))
	assert.Equal(t, OutcomeInvalidOutput, OutcomeOf(analysis.InvalidOutput("bad", nil)))
	assert.Equal(t, OutcomeInvocationError, OutcomeOf(analysis.Invocation("down", nil)))
	assert.Equal(t, OutcomeInvocationError, OutcomeOf(errors.New("plain")))
}

func TestNewPaginatedResult(t *testing.T) {
	r := NewPaginatedResult(nil, 2, 20, 41)
	assert.Equal(t, 3, r.TotalPages)
	assert.NotNil(t, r.Data)

	r = NewPaginatedResult(nil, 1, 0, 5)
	assert.Equal(t, 0, r.TotalPages)
}

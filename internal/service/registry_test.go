package service_test

import (
	"testing"

	"github.com/smsbulk293/bulksend/internal/service"
	"github.com/stretchr/testify/assert"
)

func TestJobRegistry(t *testing.T) {
	registry := service.NewJobRegistry()

	assert.False(t, registry.Running("job-1"))
	assert.True(t, registry.Acquire("job-1"))
	assert.True(t, registry.Running("job-1"))

	// Second acquire for the same job must lose.
	assert.False(t, registry.Acquire("job-1"))

	// Other jobs are unaffected.
	assert.True(t, registry.Acquire("job-2"))

	registry.Release("job-1")
	assert.False(t, registry.Running("job-1"))
	assert.True(t, registry.Acquire("job-1"))
}

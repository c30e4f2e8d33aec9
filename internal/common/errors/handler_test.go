// internal/common/errors/handler_test.go
package errors

import (
	"context"
	"fmt"
	"testing"

	"rental-workers/internal/common/camunda/camundatest"
	"rental-workers/internal/common/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleJobError_RetryableFailsJob(t *testing.T) {
	client := camundatest.NewJobClient()
	job := camundatest.NewJob(7, "recommend-vehicles", map[string]interface{}{"prompt": "x"})

	NewErrorHandler(logger.NewTestLogger(t)).
		HandleJobError(context.Background(), client, job, NewAIServiceUnavailableError(fmt.Errorf("status 503")))

	failed := client.Failed()
	require.Len(t, failed, 1)
	assert.Empty(t, client.Thrown())
	assert.Equal(t, int64(7), failed[0].JobKey)
	// job had 3 retries left, so at most 2 remain
	assert.Equal(t, int32(2), failed[0].Retries)
	assert.Equal(t, "AI service unavailable", failed[0].ErrorMessage)
}

func TestHandleJobError_BusinessErrorThrows(t *testing.T) {
	client := camundatest.NewJobClient()
	job := camundatest.NewJob(8, "recommend-vehicles", nil)

	NewErrorHandler(logger.NewTestLogger(t)).
		HandleJobError(context.Background(), client, job, fmt.Errorf("validate: %w", NewPromptEmptyError()))

	thrown := client.Thrown()
	require.Len(t, thrown, 1)
	assert.Empty(t, client.Failed())
	assert.Equal(t, "PROMPT_EMPTY", thrown[0].ErrorCode)

	vars := client.ThrownVariables(0)
	assert.Equal(t, "PROMPT_EMPTY", vars["errorCode"])
	assert.Equal(t, false, vars["retryable"])
}

func TestHandleJobError_NoRetriesLeftThrows(t *testing.T) {
	client := camundatest.NewJobClient()
	job := camundatest.NewJob(9, "query-postgresql", nil)
	job.Retries = 0

	NewErrorHandler(logger.NewTestLogger(t)).
		HandleJobError(context.Background(), client, job, NewQueryTimeoutError("vehicle_catalog"))

	require.Len(t, client.Thrown(), 1)
	assert.Equal(t, "QUERY_TIMEOUT", client.Thrown()[0].ErrorCode)
}

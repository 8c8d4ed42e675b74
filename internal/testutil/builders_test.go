package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/interpay/interpay-api/internal/domain/model"
)

func TestJobBuilder(t *testing.T) {
	job := NewJob().WithID("job_x").WithAttempts(2).Failed("boom").Build()

	assert.Equal(t, "job_x", job.ID)
	assert.Equal(t, model.JobStatusFailed, job.Status)
	assert.Equal(t, model.FailedResult{Error: "boom"}, job.Result)
	assert.Equal(t, 2, job.Attempts)
	assert.True(t, job.UpdatedAt.After(job.CreatedAt))

	running := NewJob().Build()
	assert.Equal(t, model.JobStatusRunning, running.Status)
	assert.Equal(t, TestTime(), running.CreatedAt)
}

func TestEnvBool(t *testing.T) {
	for _, v := range []string{"1", "true", "YES", "y"} {
		t.Setenv("INTERPAY_TESTUTIL_FLAG", v)
		assert.True(t, envBool("INTERPAY_TESTUTIL_FLAG"), v)
	}
	t.Setenv("INTERPAY_TESTUTIL_FLAG", "0")
	assert.False(t, envBool("INTERPAY_TESTUTIL_FLAG"))
}

package jobs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPermanent(t *testing.T) {
	base := errors.New("rejected")

	assert.Nil(t, Permanent(nil))
	assert.False(t, IsPermanent(base))

	p := Permanent(base)
	assert.True(t, IsPermanent(p))
	assert.ErrorIs(t, p, base)
	assert.Equal(t, "rejected", p.Error())

	wrapped := fmt.Errorf("handler: %w", p)
	assert.True(t, IsPermanent(wrapped))
}

func TestReconcileStatementJob_Job(t *testing.T) {
	var j Job = &ReconcileStatementJob{JobID: "j1", Status: JobStatusRunning}

	assert.Equal(t, "j1", j.GetID())
	assert.Equal(t, JobTypeReconcileStatement, j.GetType())
	assert.Equal(t, JobStatusRunning, j.GetStatus())
}

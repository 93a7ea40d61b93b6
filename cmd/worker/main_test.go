package main

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-auth/jobs"
	_ "github.com/odyssey-erp/odyssey-auth/testing"
)

type nopPurger struct{}

func (nopPurger) PurgeExpired(context.Context, time.Time) (int64, error) { return 0, nil }

func TestRunSkipsInTestMode(t *testing.T) {
	require.NoError(t, run(context.Background()))
}

func TestPurgeRegistration(t *testing.T) {
	job := jobs.NewRevocationPurgeJob(nopPurger{}, slog.New(slog.NewTextHandler(io.Discard, nil)), nil)
	reg, err := purgeRegistration(job, "@every 30m")
	require.NoError(t, err)

	assert.Equal(t, jobs.TaskPurgeRevocations, reg.handler.Type)
	assert.NotNil(t, reg.handler.Handler)
	assert.Equal(t, "@every 30m", reg.cron.Spec)
	assert.Equal(t, jobs.TaskPurgeRevocations, reg.cron.Task.Type())
	assert.JSONEq(t, `{}`, string(reg.cron.Task.Payload()))
}

package jobs_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"robodelivery/internal/core/application/usecases/commands"
	"robodelivery/internal/jobs"
	"robodelivery/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type MockAssigner struct{ mock.Mock }

func (m *MockAssigner) Handle(ctx context.Context, cmd commands.AssignPendingOrdersCommand) (commands.AssignmentReport, error) {
	args := m.Called(ctx, cmd)
	return args.Get(0).(commands.AssignmentReport), args.Error(1)
}

type MockMover struct{ mock.Mock }

func (m *MockMover) Handle(ctx context.Context, cmd commands.MoveRobotsCommand) (int, error) {
	args := m.Called(ctx, cmd)
	return args.Int(0), args.Error(1)
}

type MockRepublisher struct{ mock.Mock }

func (m *MockRepublisher) RepublishPending(ctx context.Context, maxAttempts, limit int) (int, error) {
	args := m.Called(ctx, maxAttempts, limit)
	return args.Int(0), args.Error(1)
}

func TestRobotAssignmentJob_RunsBatch(t *testing.T) {
	assigner := &MockAssigner{}
	assigner.On("Handle", mock.Anything, mock.MatchedBy(func(cmd commands.AssignPendingOrdersCommand) bool {
		return cmd.Limit() == 25
	})).Return(commands.AssignmentReport{Assigned: 2, Waiting: 1}, nil).Once()

	job := jobs.NewRobotAssignmentJob(assigner, 25, discardLogger())
	job.Run(context.Background())

	assert.Equal(t, "robot_assignment", job.Name())
	assigner.AssertExpectations(t)
}

func TestRobotAssignmentJob_InvalidBatchSkipsHandler(t *testing.T) {
	assigner := &MockAssigner{}

	jobs.NewRobotAssignmentJob(assigner, 0, discardLogger()).Run(context.Background())

	assigner.AssertNotCalled(t, "Handle", mock.Anything, mock.Anything)
}

func TestRobotAssignmentJob_SurvivesEmptyFleet(t *testing.T) {
	assigner := &MockAssigner{}
	assigner.On("Handle", mock.Anything, mock.Anything).
		Return(commands.AssignmentReport{}, fmt.Errorf("%w: fleet is empty", errs.ErrNoRobotAvailable)).Once()

	assert.NotPanics(t, func() {
		jobs.NewRobotAssignmentJob(assigner, 10, discardLogger()).Run(context.Background())
	})
	assigner.AssertExpectations(t)
}

func TestRobotMovementJob_PassesTick(t *testing.T) {
	mover := &MockMover{}
	mover.On("Handle", mock.Anything, mock.MatchedBy(func(cmd commands.MoveRobotsCommand) bool {
		return cmd.Tick() == 2*time.Second
	})).Return(3, nil).Once()

	jobs.NewRobotMovementJob(mover, 2*time.Second, discardLogger()).Run(context.Background())

	mover.AssertExpectations(t)
}

func TestNotificationRepublishJob_UsesLimits(t *testing.T) {
	republisher := &MockRepublisher{}
	republisher.On("RepublishPending", mock.Anything, 3, 100).Return(0, errors.New("transport down")).Once()

	jobs.NewNotificationRepublishJob(republisher, 3, 100, discardLogger()).Run(context.Background())

	republisher.AssertExpectations(t)
}

type countingJob struct {
	runs      atomic.Int32
	cancelled atomic.Bool
	block     bool
}

func (j *countingJob) Name() string { return "counting" }

func (j *countingJob) Run(ctx context.Context) {
	j.runs.Add(1)
	if j.block {
		<-ctx.Done()
		j.cancelled.Store(true)
	}
}

func TestJobManager_RunsScheduledJobs(t *testing.T) {
	job := &countingJob{}
	manager := jobs.NewJobManager(discardLogger(), time.Second, jobs.Entry{Schedule: "* * * * * *", Job: job})

	require.NoError(t, manager.StartAll())
	assert.Eventually(t, func() bool { return job.runs.Load() > 0 }, 3*time.Second, 20*time.Millisecond)
	manager.StopAll()
}

func TestJobManager_StopCancelsRunningJob(t *testing.T) {
	job := &countingJob{block: true}
	manager := jobs.NewJobManager(discardLogger(), time.Minute, jobs.Entry{Schedule: "* * * * * *", Job: job})

	require.NoError(t, manager.StartAll())
	require.Eventually(t, func() bool { return job.runs.Load() > 0 }, 3*time.Second, 20*time.Millisecond)

	manager.StopAll()
	assert.True(t, job.cancelled.Load())
}

func TestJobManager_RejectsInvalidSchedule(t *testing.T) {
	manager := jobs.NewJobManager(discardLogger(), time.Second, jobs.Entry{Schedule: "every tuesday", Job: &countingJob{}})

	err := manager.StartAll()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "counting")
}

package workflows_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/testsuite"

	"github.com/samirrijal/crownbreaker/internal/adapters/memory"
	"github.com/samirrijal/crownbreaker/internal/core/domain"
	"github.com/samirrijal/crownbreaker/internal/core/usecases"
	"github.com/samirrijal/crownbreaker/internal/workflows"
)

var input = workflows.RouteGenerationInput{
	SessionID:  "sess-1",
	Config:     domain.RouteConfig{RouteName: "Sunday loop", Profile: domain.ProfileBike},
	SegmentIDs: []int64{1, 2},
}

func newEnv() *testsuite.TestWorkflowEnvironment {
	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestWorkflowEnvironment()
	env.RegisterActivity(&workflows.RouteActivities{})
	return env
}

func TestRouteGenerationWorkflow_Success(t *testing.T) {
	env := newEnv()
	preview := &domain.RoutePreview{GeneratedRoute: domain.GeneratedRoute{RouteID: "r-1"}, Name: "Sunday loop"}

	env.OnActivity("OptimizeRoute", mock.Anything, mock.Anything).Return(preview, nil).Once()
	env.OnActivity("RecordRoute", mock.Anything, "sess-1", mock.Anything, domain.ProfileBike).Return(nil).Once()
	env.OnActivity("PublishRouteGenerated", mock.Anything, "sess-1", mock.Anything).Return(nil).Once()

	env.ExecuteWorkflow(workflows.RouteGenerationWorkflow, input)

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())
	var got domain.RoutePreview
	require.NoError(t, env.GetWorkflowResult(&got))
	assert.Equal(t, "r-1", got.RouteID)
	env.AssertExpectations(t)
}

func TestRouteGenerationWorkflow_OptimizeFailsOnce(t *testing.T) {
	env := newEnv()
	env.OnActivity("OptimizeRoute", mock.Anything, mock.Anything).
		Return(nil, errors.New("optimizer unavailable")).Once()

	env.ExecuteWorkflow(workflows.RouteGenerationWorkflow, input)

	require.True(t, env.IsWorkflowCompleted())
	require.Error(t, env.GetWorkflowError())
	// MaximumAttempts 1: the optimizer is called exactly once.
	env.AssertExpectations(t)
}

func TestRouteGenerationWorkflow_BookkeepingFailureTolerated(t *testing.T) {
	env := newEnv()
	preview := &domain.RoutePreview{GeneratedRoute: domain.GeneratedRoute{RouteID: "r-2"}}

	env.OnActivity("OptimizeRoute", mock.Anything, mock.Anything).Return(preview, nil).Once()
	env.OnActivity("RecordRoute", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(errors.New("db down"))
	env.OnActivity("PublishRouteGenerated", mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()

	env.ExecuteWorkflow(workflows.RouteGenerationWorkflow, input)

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())
	env.AssertExpectations(t)
}

func TestRouteActivities_UnknownSessionIsNotRetried(t *testing.T) {
	sessions, err := memory.NewSessionStore(10)
	require.NoError(t, err)
	defer sessions.Close()

	auth := usecases.NewAuthService(nil, sessions, nil, time.Hour, "")
	acts := &workflows.RouteActivities{Auth: auth, Routes: usecases.NewRouteService(nil, nil, nil, nil)}

	_, err = acts.OptimizeRoute(context.Background(), input)
	require.Error(t, err)

	var appErr *temporal.ApplicationError
	require.True(t, errors.As(err, &appErr))
	assert.True(t, appErr.NonRetryable())
	assert.True(t, errors.Is(err, domain.ErrSessionNotFound))
}

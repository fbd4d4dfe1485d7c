package workflows

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/samirrijal/crownbreaker/internal/core/domain"
)

// RouteGenerationInput is the input for the route generation workflow. The
// session is referenced by ID so the upstream token never enters workflow
// history.
type RouteGenerationInput struct {
	SessionID  string
	Config     domain.RouteConfig
	SegmentIDs []int64
}

// RouteGenerationWorkflow asks the optimizer for a route, then records it in
// the history and announces it to the session's subscribers. Bookkeeping
// failures are logged and do not fail the workflow.
func RouteGenerationWorkflow(ctx workflow.Context, input RouteGenerationInput) (*domain.RoutePreview, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("Starting route generation workflow", "segments", len(input.SegmentIDs))

	// The optimizer is not idempotent and the client never retried it.
	optimizeCtx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 90 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 1,
		},
	})
	bookkeepingCtx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 15 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 3,
		},
	})

	// Step 1: Generate the route
	var preview domain.RoutePreview
	err := workflow.ExecuteActivity(optimizeCtx, "OptimizeRoute", input).Get(ctx, &preview)
	if err != nil {
		return nil, err
	}

	// Step 2: Record it
	err = workflow.ExecuteActivity(bookkeepingCtx, "RecordRoute", input.SessionID, &preview, input.Config.Profile).Get(ctx, nil)
	if err != nil {
		logger.Warn("route history not recorded", "routeId", preview.RouteID, "error", err)
	}

	// Step 3: Announce it
	err = workflow.ExecuteActivity(bookkeepingCtx, "PublishRouteGenerated", input.SessionID, &preview).Get(ctx, nil)
	if err != nil {
		logger.Warn("route event not published", "routeId", preview.RouteID, "error", err)
	}

	logger.Info("Route generated", "routeId", preview.RouteID)
	return &preview, nil
}

package workflows

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.temporal.io/sdk/client"

	"github.com/samirrijal/crownbreaker/internal/core/domain"
	"github.com/samirrijal/crownbreaker/internal/pkg/telemetry"
)

// Starter implements ports.WorkflowStarter with a Temporal client.
type Starter struct {
	client    client.Client
	taskQueue string
}

// NewStarter creates a Starter submitting to taskQueue.
func NewStarter(c client.Client, taskQueue string) *Starter {
	return &Starter{client: c, taskQueue: taskQueue}
}

// StartRouteGeneration starts a RouteGenerationWorkflow and returns its
// workflow ID.
func (s *Starter) StartRouteGeneration(ctx context.Context, sess *domain.Session, cfg *domain.RouteConfig, segmentIDs []int64) (string, error) {
	ctx, span := otel.Tracer("crownbreaker/workflows").Start(ctx, telemetry.SpanStartWorkflow)
	defer span.End()

	if cfg == nil {
		return "", fmt.Errorf("%w: route configuration is required", domain.ErrInvalidInput)
	}
	opts := client.StartWorkflowOptions{
		ID:        "route-generation-" + uuid.NewString(),
		TaskQueue: s.taskQueue,
	}
	span.SetAttributes(attribute.String("workflow.id", opts.ID))

	run, err := s.client.ExecuteWorkflow(ctx, opts, RouteGenerationWorkflow, RouteGenerationInput{
		SessionID:  sess.ID,
		Config:     *cfg,
		SegmentIDs: segmentIDs,
	})
	if err != nil {
		return "", fmt.Errorf("start route generation: %w", err)
	}
	return run.GetID(), nil
}

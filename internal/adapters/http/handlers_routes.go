package http

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/crownbreaker/internal/core/domain"
)

// optimizeRequest is the route configuration plus the selected segments.
type optimizeRequest struct {
	domain.RouteConfig
	SegmentIDs []int64 `json:"segment_ids"`
}

func parseOptimize(c *fiber.Ctx) (*optimizeRequest, error) {
	var req optimizeRequest
	if err := c.BodyParser(&req); err != nil {
		return nil, fmt.Errorf("%w: invalid request body", domain.ErrInvalidInput)
	}
	if len(req.SegmentIDs) == 0 {
		return nil, fmt.Errorf("%w: segment_ids must not be empty", domain.ErrInvalidInput)
	}
	return &req, nil
}

// OptimizeRouteHandler generates a route synchronously and returns its preview.
func OptimizeRouteHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		req, err := parseOptimize(c)
		if err != nil {
			return errFrom(c, err)
		}
		preview, err := deps.Routes.Optimize(c.UserContext(), sessionFrom(c), &req.RouteConfig, req.SegmentIDs)
		if err != nil {
			return errFrom(c, err)
		}
		return c.JSON(preview)
	}
}

// OptimizeRouteAsyncHandler starts route generation as a workflow. The result
// is delivered over /ws.
func OptimizeRouteAsyncHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if deps.Workflows == nil {
			return errUnavailable(c, "asynchronous route generation is not enabled")
		}
		req, err := parseOptimize(c)
		if err != nil {
			return errFrom(c, err)
		}
		id, err := deps.Workflows.StartRouteGeneration(c.UserContext(), sessionFrom(c), &req.RouteConfig, req.SegmentIDs)
		if err != nil {
			LoggerFromCtx(c.UserContext()).Error("start route generation", "error", err)
			return errUnavailable(c, "could not start route generation")
		}
		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
			"workflow_id": id,
			"status":      "started",
		})
	}
}

// ListRoutesHandler lists the athlete's routes, paginated.
func ListRoutesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		routes, err := deps.Routes.UserRoutes(c.UserContext(), sessionFrom(c))
		if err != nil {
			return errFrom(c, err)
		}

		page, pg := paginate(routes, pageParams(c))
		SetLinkHeaders(c, pg)
		return c.JSON(PaginatedResponse{Data: page, Pagination: pg})
	}
}

// RouteHistoryHandler lists routes recorded by this gateway, most recent first.
func RouteHistoryHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		records, err := deps.Routes.History(c.UserContext(), sessionFrom(c), c.QueryInt("limit", 0))
		if err != nil {
			return errFrom(c, err)
		}
		return c.JSON(records)
	}
}

// RouteHistoryEntryHandler returns one recorded route of the session's athlete.
func RouteHistoryEntryHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		rec, err := deps.Routes.HistoryEntry(c.UserContext(), sessionFrom(c), c.Params("id"))
		if err != nil {
			return errFrom(c, err)
		}
		return c.JSON(rec)
	}
}

// GetRouteHandler returns one route as a preview.
func GetRouteHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		preview, err := deps.Routes.Route(c.UserContext(), sessionFrom(c), c.Params("id"))
		if err != nil {
			return errFrom(c, err)
		}
		return c.JSON(preview)
	}
}

// ExportRouteHandler downloads a route as GPX, TCX, JSON or GeoJSON.
func ExportRouteHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		format, err := domain.ParseExportFormat(c.Params("format"))
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		export, err := deps.Routes.Export(c.UserContext(), sessionFrom(c), c.Params("id"), format)
		if err != nil {
			return errFrom(c, err)
		}

		c.Set(fiber.HeaderContentType, export.ContentType)
		c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, export.FileName))
		return c.Send(export.Body)
	}
}

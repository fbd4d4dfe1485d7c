package http

import (
	"encoding/json"
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/crownbreaker/internal/core/domain"
	"github.com/samirrijal/crownbreaker/internal/core/usecases"
)

// SessionResponse is returned after a successful login.
type SessionResponse struct {
	SessionID string          `json:"session_id"`
	ExpiresAt string          `json:"expires_at"`
	User      json.RawMessage `json:"user,omitempty"`
}

func sessionResponse(sess *domain.Session) SessionResponse {
	return SessionResponse{
		SessionID: sess.ID,
		ExpiresAt: sess.ExpiresAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		User:      sess.User,
	}
}

// AuthURLHandler returns the platform authorization URL.
func AuthURLHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		u, err := deps.Auth.AuthURL(c.UserContext(), c.Query("redirect_uri"))
		if err != nil {
			return errFrom(c, err)
		}
		return c.JSON(fiber.Map{"auth_url": u})
	}
}

// AuthCallbackHandler completes a login from the platform redirect. The query
// string is the one the platform appended to the deep link.
func AuthCallbackHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		q := url.Values{}
		c.Request().URI().QueryArgs().VisitAll(func(k, v []byte) {
			q.Add(string(k), string(v))
		})

		sess, err := deps.Auth.CompleteLoginParams(c.UserContext(), q)
		if err != nil {
			return errFrom(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(sessionResponse(sess))
	}
}

// LoginHandler creates a session from a token obtained out of band.
func LoginHandler(deps *Dependencies) fiber.Handler {
	type loginRequest struct {
		Token string          `json:"token"`
		User  json.RawMessage `json:"user"`
	}

	return func(c *fiber.Ctx) error {
		var req loginRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		sess, err := deps.Auth.Login(c.UserContext(), req.Token, req.User)
		if err != nil {
			return errFrom(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(sessionResponse(sess))
	}
}

// LogoutHandler ends the current session.
func LogoutHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := deps.Auth.Logout(c.UserContext(), sessionFrom(c).ID); err != nil {
			return errFrom(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// DecodeResponse is a decoded polyline prepared for a map.
type DecodeResponse struct {
	Coordinates []domain.Coordinate `json:"coordinates"`
	Count       int                 `json:"count"`
	Region      domain.Region       `json:"region"`
	LengthM     float64             `json:"length_m"`
}

// GeoDecodeHandler decodes an encoded polyline. Malformed input is rejected
// with 400 rather than truncated.
func GeoDecodeHandler(deps *Dependencies) fiber.Handler {
	type decodeRequest struct {
		Polyline  string `json:"polyline"`
		Precision int    `json:"precision"`
	}

	return func(c *fiber.Ctx) error {
		var req decodeRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		coords, err := deps.Geometry.Decode(req.Polyline, req.Precision)
		if err != nil {
			return errFrom(c, err)
		}
		return c.JSON(DecodeResponse{
			Coordinates: coords,
			Count:       len(coords),
			Region:      deps.Geometry.RegionForLine(coords),
			LengthM:     deps.Geometry.Length(coords),
		})
	}
}

// GeoRegionHandler computes the map region enclosing the given segments.
func GeoRegionHandler(deps *Dependencies) fiber.Handler {
	type regionRequest struct {
		Segments []domain.Segment `json:"segments"`
	}

	return func(c *fiber.Ctx) error {
		var req regionRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		return c.JSON(deps.Geometry.Region(req.Segments))
	}
}

// GeoEncodeHandler encodes coordinates into a polyline.
func GeoEncodeHandler(deps *Dependencies) fiber.Handler {
	type encodeRequest struct {
		Coordinates []domain.Coordinate `json:"coordinates"`
		Precision   int                 `json:"precision"`
	}

	return func(c *fiber.Ctx) error {
		var req encodeRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		encoded, err := deps.Geometry.Encode(req.Coordinates, req.Precision)
		if err != nil {
			return errFrom(c, err)
		}
		return c.JSON(fiber.Map{"polyline": encoded})
	}
}

// StarredSegmentsHandler lists the athlete's starred segments, paginated.
// refresh=true bypasses the cache.
func StarredSegmentsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		segs, err := deps.Segments.Starred(c.UserContext(), sessionFrom(c), c.QueryBool("refresh", false))
		if err != nil {
			return errFrom(c, err)
		}

		page, pg := paginate(segs, pageParams(c))
		SetLinkHeaders(c, pg)
		return c.JSON(PaginatedResponse{Data: page, Pagination: pg})
	}
}

// SegmentSummaryHandler aggregates the starred segments.
func SegmentSummaryHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		summary, err := deps.Segments.Summary(c.UserContext(), sessionFrom(c))
		if err != nil {
			return errFrom(c, err)
		}
		return c.JSON(summary)
	}
}

// segmentIDsQuery parses ?ids=1,2,3. An empty list is returned as nil.
func segmentIDsQuery(c *fiber.Ctx) ([]int64, error) {
	raw := strings.TrimSpace(c.Query("ids"))
	if raw == "" {
		return nil, nil
	}
	return usecases.ParseSegmentIDs(strings.Split(raw, ","))
}

// SegmentRegionHandler computes the region of the selected starred segments,
// or of all of them when ids is omitted.
func SegmentRegionHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ids, err := segmentIDsQuery(c)
		if err != nil {
			return errFrom(c, err)
		}
		region, err := deps.Segments.Region(c.UserContext(), sessionFrom(c), ids)
		if err != nil {
			return errFrom(c, err)
		}
		return c.JSON(region)
	}
}

// SegmentBatchHandler returns the details of several segments in request order.
func SegmentBatchHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ids, err := segmentIDsQuery(c)
		if err != nil {
			return errFrom(c, err)
		}
		if len(ids) == 0 {
			return errBadRequest(c, "ids parameter required")
		}
		views, err := deps.Segments.DetailsBatch(c.UserContext(), sessionFrom(c), ids)
		if err != nil {
			return errFrom(c, err)
		}
		return c.JSON(views)
	}
}

// SegmentHandler returns one segment with its decoded geometry.
func SegmentHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ids, err := usecases.ParseSegmentIDs([]string{c.Params("id")})
		if err != nil {
			return errFrom(c, err)
		}
		view, err := deps.Segments.Details(c.UserContext(), sessionFrom(c), ids[0])
		if err != nil {
			return errFrom(c, err)
		}
		return c.JSON(view)
	}
}

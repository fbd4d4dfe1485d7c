package komoptimizer

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/samirrijal/crownbreaker/internal/core/domain"
	"github.com/samirrijal/crownbreaker/internal/pkg/metrics"
)

// DefaultBaseURL is the production optimizer API.
const DefaultBaseURL = "https://kom-optimizer-production.up.railway.app/api"

var tracer = otel.Tracer("crownbreaker/komoptimizer")

// Client implements ports.Optimizer over the optimizer REST API.
type Client struct {
	baseURL string
	timeout time.Duration
	http    *fasthttp.Client
}

// New creates a client. A zero timeout defaults to 30 seconds.
func New(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
		http: &fasthttp.Client{
			Name:                "crownbreaker-gateway",
			MaxConnsPerHost:     64,
			ReadTimeout:         timeout,
			WriteTimeout:        timeout,
			MaxIdleConnDuration: 90 * time.Second,
		},
	}
}

// AuthURL returns the platform authorization URL for the mobile redirect URI.
func (c *Client) AuthURL(ctx context.Context, redirectURI string) (string, error) {
	var out struct {
		AuthURL string `json:"authUrl"`
	}
	path := "/auth/strava/mobile-auth-url?redirectUri=" + url.QueryEscape(redirectURI)
	if err := c.do(ctx, "auth_url", fasthttp.MethodGet, path, nil, nil, &out); err != nil {
		return "", err
	}
	if out.AuthURL == "" {
		return "", fmt.Errorf("auth url: %w: empty authUrl", domain.ErrUpstream)
	}
	return out.AuthURL, nil
}

// StarredSegments lists the athlete's starred segments.
func (c *Client) StarredSegments(ctx context.Context, sess *domain.Session) ([]domain.Segment, error) {
	var out struct {
		Segments []domain.Segment `json:"segments"`
	}
	if err := c.do(ctx, "starred_segments", fasthttp.MethodGet, "/user/segments/starred", sess, nil, &out); err != nil {
		return nil, err
	}
	return out.Segments, nil
}

// SegmentDetails returns one segment.
func (c *Client) SegmentDetails(ctx context.Context, sess *domain.Session, id int64) (*domain.SegmentDetails, error) {
	var out struct {
		Segment *domain.SegmentDetails `json:"segment"`
	}
	path := "/user/segment/" + strconv.FormatInt(id, 10)
	if err := c.do(ctx, "segment_details", fasthttp.MethodGet, path, sess, nil, &out); err != nil {
		return nil, err
	}
	if out.Segment == nil {
		return nil, fmt.Errorf("segment %d: %w", id, domain.ErrNotFound)
	}
	return out.Segment, nil
}

// OptimizeRoute asks the optimizer for a route through the given segments.
func (c *Client) OptimizeRoute(ctx context.Context, sess *domain.Session, req *domain.OptimizeRequest) (*domain.GeneratedRoute, error) {
	var out struct {
		Success bool                   `json:"success"`
		Message string                 `json:"message"`
		Data    *domain.GeneratedRoute `json:"data"`
	}
	if err := c.do(ctx, "optimize_route", fasthttp.MethodPost, "/route/optimize", sess, req, &out); err != nil {
		return nil, err
	}
	if !out.Success || out.Data == nil {
		msg := out.Message
		if msg == "" {
			msg = "route generation failed"
		}
		return nil, &StatusError{Op: "optimize_route", StatusCode: fasthttp.StatusOK, Message: msg}
	}
	return out.Data, nil
}

// UserRoutes lists routes previously generated by the athlete.
func (c *Client) UserRoutes(ctx context.Context, sess *domain.Session) ([]domain.UserRoute, error) {
	var out struct {
		Routes []domain.UserRoute `json:"routes"`
	}
	if err := c.do(ctx, "user_routes", fasthttp.MethodGet, "/route/my-routes", sess, nil, &out); err != nil {
		return nil, err
	}
	return out.Routes, nil
}

// Route returns one generated route.
func (c *Client) Route(ctx context.Context, sess *domain.Session, id string) (*domain.GeneratedRoute, error) {
	var out struct {
		Route *domain.GeneratedRoute `json:"route"`
	}
	if err := c.do(ctx, "route", fasthttp.MethodGet, "/route/"+url.PathEscape(id), sess, nil, &out); err != nil {
		return nil, err
	}
	if out.Route == nil {
		return nil, fmt.Errorf("route %s: %w", id, domain.ErrNotFound)
	}
	if out.Route.RouteID == "" {
		out.Route.RouteID = id
	}
	return out.Route, nil
}

// ExportRoute returns the raw export document (GPX, TCX or JSON).
func (c *Client) ExportRoute(ctx context.Context, sess *domain.Session, id string, format domain.ExportFormat) ([]byte, error) {
	if !format.Remote() {
		return nil, fmt.Errorf("export %s: %w: format not rendered remotely", format, domain.ErrInvalidInput)
	}
	var raw []byte
	path := "/route/" + url.PathEscape(id) + "/export/" + string(format)
	if err := c.do(ctx, "export_route", fasthttp.MethodGet, path, sess, nil, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// do performs one request. Every operation except auth_url requires a session
// token. When out is a *[]byte the raw body is copied into it, otherwise the
// body is JSON-decoded.
func (c *Client) do(ctx context.Context, op, method, path string, sess *domain.Session, body, out any) error {
	authenticated := op != "auth_url"
	if authenticated && (sess == nil || sess.Token == "") {
		return fmt.Errorf("%s: %w", op, domain.ErrNoToken)
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	_, span := tracer.Start(ctx, "komoptimizer."+op)
	defer span.End()
	span.SetAttributes(
		attribute.String("http.method", method),
		attribute.String("http.route", strings.SplitN(path, "?", 2)[0]),
	)

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.baseURL + path)
	req.Header.SetMethod(method)
	req.Header.SetContentType("application/json")
	req.Header.Set(fasthttp.HeaderAccept, "application/json")
	if authenticated {
		req.Header.Set(fasthttp.HeaderAuthorization, "Bearer "+sess.Token)
	}
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", op, err)
		}
		req.SetBodyRaw(data)
	}

	deadline := time.Now().Add(c.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	start := time.Now()
	if err := c.http.DoDeadline(req, resp, deadline); err != nil {
		metrics.ObserveUpstream(op, start, 0, true)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("%s: %w: %v", op, domain.ErrUpstream, err)
	}

	status := resp.StatusCode()
	span.SetAttributes(attribute.Int("http.status_code", status))
	if status < 200 || status > 299 {
		metrics.ObserveUpstream(op, start, status, true)
		serr := &StatusError{Op: op, StatusCode: status, Message: errorMessage(resp.Body())}
		span.SetStatus(codes.Error, serr.Error())
		return serr
	}
	metrics.ObserveUpstream(op, start, status, false)

	if raw, ok := out.(*[]byte); ok {
		*raw = append([]byte(nil), resp.Body()...)
		return nil
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		span.RecordError(err)
		return fmt.Errorf("%s: %w: decode response: %v", op, domain.ErrUpstream, err)
	}
	return nil
}

package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// cacheRule assigns a Cache-Control value to paths matching exact or prefix.
type cacheRule struct {
	exact  string
	prefix string
	value  string
}

// cacheRules are evaluated in order; the first match wins. Anything behind a
// session is athlete-specific and stays private.
var cacheRules = []cacheRule{
	{exact: "/v1/health", value: "public, max-age=10"},
	{exact: "/v1/ready", value: "public, max-age=10"},
	{exact: "/metrics", value: "no-cache"},
	{prefix: "/v1/auth/", value: "no-store"},
	{prefix: "/docs", value: "public, max-age=3600"},
	{exact: "/v1/routes/history", value: "private, max-age=0"},
	// Starred segments are cached upstream-side for five minutes.
	{prefix: "/v1/segments/", value: "private, max-age=300"},
	// A generated route never changes once stored.
	{prefix: "/v1/routes/", value: "private, max-age=600"},
	{prefix: "/v1/", value: "private, max-age=60"},
}

func cacheControlFor(path string) string {
	if strings.Contains(path, "/export/") {
		return "private, no-store"
	}
	for _, r := range cacheRules {
		if (r.exact != "" && path == r.exact) || (r.prefix != "" && strings.HasPrefix(path, r.prefix)) {
			return r.value
		}
	}
	return ""
}

// CachingMiddleware fills in Cache-Control on GET responses that did not set
// their own.
func CachingMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()
		if c.Method() != fiber.MethodGet || len(c.Response().Header.Peek(fiber.HeaderCacheControl)) > 0 {
			return err
		}
		if v := cacheControlFor(c.Path()); v != "" {
			c.Set(fiber.HeaderCacheControl, v)
		}
		return err
	}
}

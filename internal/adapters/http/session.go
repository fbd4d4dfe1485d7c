package http

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/crownbreaker/internal/core/domain"
	"github.com/samirrijal/crownbreaker/internal/core/usecases"
)

const sessionLocal = "session"

// sessionID extracts the session ID from "Authorization: Bearer <id>". The
// session query parameter is accepted for WebSocket clients, which cannot
// set headers during the upgrade.
func sessionID(c *fiber.Ctx) string {
	if h := c.Get(fiber.HeaderAuthorization); h != "" {
		if id, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(id)
		}
		return ""
	}
	return c.Query("session")
}

// SessionMiddleware rejects requests without a live session and stores the
// resolved session in the request locals.
func SessionMiddleware(auth *usecases.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := sessionID(c)
		if id == "" {
			return errUnauthorized(c, "missing bearer session")
		}
		sess, err := auth.Resolve(c.UserContext(), id)
		if err != nil {
			return errFrom(c, err)
		}
		c.Locals(sessionLocal, sess)
		return c.Next()
	}
}

// sessionFrom returns the session stored by SessionMiddleware, or nil.
func sessionFrom(c *fiber.Ctx) *domain.Session {
	sess, _ := c.Locals(sessionLocal).(*domain.Session)
	return sess
}

// withSession attaches a session to ctx for resolvers outside fiber.
func withSession(ctx context.Context, sess *domain.Session) context.Context {
	return context.WithValue(ctx, sessionCtxKey, sess)
}

// sessionFromCtx returns the session attached by withSession, or nil.
func sessionFromCtx(ctx context.Context) *domain.Session {
	sess, _ := ctx.Value(sessionCtxKey).(*domain.Session)
	return sess
}

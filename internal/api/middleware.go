package api

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/google/uuid"

	"github.com/balkashynov/attendr/internal/auth"
)

const (
	requestIDKey = "requestid"
	sessionKey   = "session"
)

// RequestID tags each request with X-Request-ID and bounds its context
func RequestID(timeout time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Get(fiber.HeaderXRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(fiber.HeaderXRequestID, id)
		c.Locals(requestIDKey, id)

		ctx, cancel := context.WithTimeout(c.UserContext(), timeout)
		defer cancel()
		c.SetUserContext(ctx)
		return c.Next()
	}
}

// AccessLog writes one line per request to w
func AccessLog(w io.Writer) fiber.Handler {
	return logger.New(logger.Config{
		Output:     w,
		TimeFormat: "2006-01-02 15:04:05",
		Format:     "[${time}] ${locals:requestid} ${ip} - ${method} ${path} - ${status} - ${latency}\n",
	})
}

func Recovery() fiber.Handler {
	return recover.New(recover.Config{EnableStackTrace: true})
}

// CORS allows the comma separated origins, "*" for any
func CORS(origins string) fiber.Handler {
	origins = strings.TrimSpace(origins)
	if origins == "" {
		origins = "*"
	}
	return cors.New(cors.Config{
		AllowOrigins: origins,
		AllowMethods: "GET,POST,PATCH,DELETE,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Request-ID",
	})
}

// LoginRateLimiter throttles credential endpoints per client IP
func LoginRateLimiter(max int) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        max,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return Error(c, fiber.StatusTooManyRequests, "Too many attempts. Try again in a minute.")
		},
	})
}

// JWTAuth resolves the bearer token into a Session stored in locals
func JWTAuth(issuer *auth.Issuer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing bearer token")
		}
		sess, err := issuer.Parse(strings.TrimSpace(token))
		if err != nil {
			return err
		}
		c.Locals(sessionKey, sess)
		return c.Next()
	}
}

// OnlyAdmin rejects non-admin sessions. Mount after JWTAuth.
func OnlyAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !sessionFrom(c).IsAdmin() {
			return fiber.NewError(fiber.StatusForbidden, "admin role required")
		}
		return c.Next()
	}
}

// sessionFrom returns the caller's session, the zero Session when unauthenticated
func sessionFrom(c *fiber.Ctx) auth.Session {
	sess, _ := c.Locals(sessionKey).(auth.Session)
	return sess
}

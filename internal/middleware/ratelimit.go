package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

// Credential endpoints are the only brute-forceable surface, so each gets
// its own budget. A successful login does not burn the caller's budget.
const (
	loginAttempts    = 10
	registerAttempts = 5
	attemptWindow    = time.Minute
)

// LoginLimiter throttles password guessing per client address.
func LoginLimiter() fiber.Handler {
	return authLimiter(loginAttempts, true)
}

// RegisterLimiter throttles account creation per client address.
func RegisterLimiter() fiber.Handler {
	return authLimiter(registerAttempts, false)
}

func authLimiter(max int, skipSuccessful bool) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:                    max,
		Expiration:             attemptWindow,
		SkipSuccessfulRequests: skipSuccessful,
		KeyGenerator: func(c *fiber.Ctx) string {
			// Budgets are tracked per endpoint, so a login burst does
			// not lock out registration from the same address.
			return c.IP() + ":" + c.Path()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "too many attempts, try again later",
			})
		},
	})
}

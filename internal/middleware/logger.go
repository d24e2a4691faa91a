package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
)

// RequestLogger logs one structured line per request. Successful requests
// log at debug so production output stays mutation-focused.
func RequestLogger(log zerolog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		ev := log.Debug()
		if err != nil || status >= 500 {
			ev = log.Error().Err(err)
		} else if status >= 400 {
			ev = log.Warn()
		}
		ev.Int("status", status).
			Str("method", c.Method()).
			Str("path", c.Path()).
			Dur("latency", time.Since(start)).
			Msg("request")
		return err
	}
}

package middleware

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
)

// probes are logged at debug level so load balancer checks don't flood the log
var probes = map[string]bool{
	"/health": true,
	"/ready":  true,
}

func Logger(logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		// Process request
		err := c.Next()
		if err != nil {
			// Let the error handler set the status before it is read
			if herr := c.App().ErrorHandler(c, err); herr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
			err = nil
		}

		status := c.Response().StatusCode()

		logLevel := slog.LevelInfo
		switch {
		case status >= 500:
			logLevel = slog.LevelError
		case status >= 400:
			logLevel = slog.LevelWarn
		case probes[c.Path()]:
			logLevel = slog.LevelDebug
		}

		attrs := []slog.Attr{
			slog.String("method", c.Method()),
			slog.String("path", c.Path()),
			slog.String("route", c.Route().Path),
			slog.Int("status", status),
			slog.Duration("latency", time.Since(start)),
			slog.String("ip", c.IP()),
			slog.String("request_id", requestID(c)),
		}
		if id := c.Params("id"); id != "" {
			attrs = append(attrs, slog.String("session_id", id))
		}

		logger.LogAttrs(c.Context(), logLevel, "http request", attrs...)
		return err
	}
}

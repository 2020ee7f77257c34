package middleware

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/smartmark/internal/attendance"
	"github.com/saturnino-fabrica-de-software/smartmark/internal/domain"
)

// Signature rejects requests whose body does not carry a valid HMAC in
// attendance.SignatureHeader. An empty secret disables the check.
func Signature(secret string, logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if secret == "" {
			return c.Next()
		}

		sig := c.Get(attendance.SignatureHeader)
		if sig == "" || !attendance.Verify(secret, c.Body(), sig) {
			logger.Warn("invalid request signature",
				slog.String("path", c.Path()),
				slog.String("ip", c.IP()),
			)
			return domain.ErrInvalidSignature
		}

		return c.Next()
	}
}

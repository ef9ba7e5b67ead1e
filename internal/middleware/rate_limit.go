package middleware

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

// Review triggers cost real money per call, so the fallback window is
// deliberately coarse.
const (
	defaultRateLimitMax    = 30
	defaultRateLimitWindow = time.Minute
)

// RateLimit builds a limiter keyed by the authenticated admin when a token
// is present and by client IP otherwise. The identifier keeps separately
// registered limiters from sharing buckets.
func RateLimit(identifier string, max int, window time.Duration) fiber.Handler {
	if max <= 0 {
		max = defaultRateLimitMax
	}
	if window <= 0 {
		window = defaultRateLimitWindow
	}

	return limiter.New(limiter.Config{
		Max:        max,
		Expiration: window,
		KeyGenerator: func(c *fiber.Ctx) string {
			subject := fmt.Sprintf("%v", c.Locals("user_id"))
			if subject == "" || subject == "0" || subject == "<nil>" {
				subject = c.IP()
			}
			return identifier + ":" + subject
		},
	})
}

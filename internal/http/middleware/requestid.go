package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"mediaapi/internal/logger"
)

const (
	RequestIDHeader = "X-Request-ID"
	// RequestIDLocalKey is the Fiber locals key holding the request id.
	RequestIDLocalKey = "request_id"

	maxRequestIDLen = 128
)

// RequestID assigns every request an id. A client supplied X-Request-ID is
// kept when it is short printable ASCII, otherwise a UUID is generated.
// The id is echoed in the response, stored in locals and attached to the
// request's user context so service logs carry it.
func RequestID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		// Header values alias fasthttp buffers; the id outlives the handler.
		id := strings.Clone(c.Get(RequestIDHeader))
		if !validRequestID(id) {
			id = uuid.NewString()
		}

		c.Locals(RequestIDLocalKey, id)
		c.SetUserContext(logger.WithRequestID(c.UserContext(), id))
		c.Set(RequestIDHeader, id)

		return c.Next()
	}
}

func validRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLen {
		return false
	}
	for i := 0; i < len(id); i++ {
		if id[i] < 0x21 || id[i] > 0x7e {
			return false
		}
	}
	return true
}

package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"mediaapi/internal/http/middleware"
	"mediaapi/internal/service"
)

// errorPayload is the body of every non-2xx JSON response.
type errorPayload struct {
	RequestID string        `json:"request_id"`
	Error     errorEnvelope `json:"error"`
}

type errorEnvelope struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type apiError struct {
	status  int
	code    string
	message string
}

var (
	errInternal = apiError{fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error"}
	errNotFound = apiError{fiber.StatusNotFound, "NOT_FOUND", "recording not found"}

	// Statuses raised by Fiber itself: routing, body limit, bad requests.
	fiberErrors = map[int]apiError{
		fiber.StatusBadRequest:            {fiber.StatusBadRequest, "BAD_REQUEST", "bad request"},
		fiber.StatusNotFound:              {fiber.StatusNotFound, "NOT_FOUND", "resource not found"},
		fiber.StatusMethodNotAllowed:      {fiber.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed"},
		fiber.StatusRequestEntityTooLarge: {fiber.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "upload exceeds the size limit"},
	}
)

func requestIDFromCtx(c *fiber.Ctx) string {
	if s, ok := c.Locals(middleware.RequestIDLocalKey).(string); ok {
		return s
	}
	return ""
}

// writeError never includes err text, storage keys or paths in the body.
func writeError(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(errorPayload{
		RequestID: requestIDFromCtx(c),
		Error:     errorEnvelope{Code: code, Message: message},
	})
}

func (e apiError) write(c *fiber.Ctx) error {
	return writeError(c, e.status, e.code, e.message)
}

// serviceError maps a RecordingService error onto the response. A missing
// blob is answered like a missing row but logged as an operator alert.
func serviceError(c *fiber.Ctx, log *zap.Logger, op string, err error, extra ...zap.Field) error {
	fields := append([]zap.Field{zap.String("request_id", requestIDFromCtx(c)), zap.String("op", op)}, extra...)
	switch {
	case errors.Is(err, service.ErrRecordingNotFound):
		log.Debug("recording_not_found", fields...)
		return errNotFound.write(c)
	case errors.Is(err, service.ErrBlobNotFound):
		log.Error("recording_blob_unavailable", append(fields, zap.Error(err))...)
		return errNotFound.write(c)
	case errors.Is(err, service.ErrStorageWriteFailed):
		log.Error("storage_write_failed", append(fields, zap.Error(err))...)
		return writeError(c, fiber.StatusInternalServerError, "STORAGE_WRITE_FAILED", "failed to store upload")
	default:
		log.Error(op+"_failed", append(fields, zap.Error(err))...)
		return errInternal.write(c)
	}
}

// ErrorHandler is the global Fiber error handler. Errors that are not
// *fiber.Error reached it unhandled and are logged before the 500.
func ErrorHandler(log *zap.Logger) fiber.ErrorHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if !errors.As(err, &fe) {
			log.Error("unhandled_error",
				zap.String("request_id", requestIDFromCtx(c)),
				zap.String("path", c.Path()),
				zap.Error(err),
			)
			return errInternal.write(c)
		}
		if e, ok := fiberErrors[fe.Code]; ok {
			return e.write(c)
		}
		if fe.Code < fiber.StatusInternalServerError {
			return writeError(c, fe.Code, "REQUEST_ERROR", fe.Message)
		}
		return errInternal.write(c)
	}
}

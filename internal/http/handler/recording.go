package handler

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"mediaapi/internal/service"
)

// ListRecordings returns every recording, newest first.
//
// @Summary List recordings
// @Tags recordings
// @Produce json
// @Success 200 {array} model.Recording
// @Failure 500 {object} errorPayload
// @Router /recordings [get]
func ListRecordings(svc service.RecordingService, log *zap.Logger) fiber.Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return func(c *fiber.Ctx) error {
		recs, err := svc.List(c.UserContext())
		if err != nil {
			return serviceError(c, log, "list", err)
		}
		return c.JSON(recs)
	}
}

// UploadRecording ingests the multipart field "file".
//
// @Summary Upload a recording
// @Tags recordings
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "media file"
// @Success 201 {object} model.Recording
// @Failure 400 {object} errorPayload
// @Failure 413 {object} errorPayload
// @Failure 500 {object} errorPayload
// @Router /recordings [post]
func UploadRecording(svc service.RecordingService, log *zap.Logger) fiber.Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return func(c *fiber.Ctx) error {
		fh, err := c.FormFile("file")
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "file is required")
		}

		f, err := fh.Open()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
		}
		defer f.Close()

		rec, err := svc.Ingest(c.UserContext(), f, fh.Filename, fh.Header.Get(fiber.HeaderContentType))
		if err != nil {
			return serviceError(c, log, "upload", err, zap.String("filename", fh.Filename))
		}
		return c.Status(fiber.StatusCreated).JSON(rec)
	}
}

// StreamRecording serves a recording's bytes, honouring a single "bytes=start-end" Range.
// HEAD answers with the same headers and no body.
//
// @Summary Stream a recording
// @Tags recordings
// @Produce octet-stream
// @Param id path int true "recording id"
// @Param Range header string false "bytes=start-end"
// @Success 200 {file} binary
// @Success 206 {file} binary
// @Failure 400 {object} errorPayload
// @Failure 404 {object} errorPayload
// @Failure 416 {object} errorPayload
// @Router /recordings/{id} [get]
func StreamRecording(svc service.RecordingService, log *zap.Logger) fiber.Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return func(c *fiber.Ctx) error {
		id, err := strconv.ParseInt(c.Params("id"), 10, 64)
		if err != nil || id <= 0 {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}

		d, err := svc.Deliver(c.UserContext(), id, c.Get(fiber.HeaderRange))
		if err != nil {
			return serviceError(c, log, "delivery", err, zap.Int64("id", id))
		}

		c.Set(fiber.HeaderAcceptRanges, "bytes")
		if d.Kind == service.KindUnsatisfiable {
			c.Set(fiber.HeaderContentRange, d.ContentRange())
			return writeError(c, fiber.StatusRequestedRangeNotSatisfiable, "RANGE_NOT_SATISFIABLE", "requested range not satisfiable")
		}

		status := fiber.StatusOK
		if d.Kind == service.KindPartial {
			status = fiber.StatusPartialContent
		}

		if c.Method() == fiber.MethodHead {
			setDeliveryHeaders(c, d, status)
			c.Response().Header.SetContentLength(int(d.Length()))
			return nil
		}

		body, err := d.Open(c.UserContext())
		if err != nil {
			return serviceError(c, log, "delivery", err, zap.Int64("id", id))
		}
		setDeliveryHeaders(c, d, status)
		// fasthttp closes body once the response is written or the client goes away.
		c.Context().SetBodyStream(body, int(d.Length()))
		return nil
	}
}

func setDeliveryHeaders(c *fiber.Ctx, d *service.Delivery, status int) {
	c.Status(status)
	c.Set(fiber.HeaderContentType, d.ContentType)
	if cr := d.ContentRange(); cr != "" {
		c.Set(fiber.HeaderContentRange, cr)
	}
}

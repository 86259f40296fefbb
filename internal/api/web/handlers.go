package web

import (
	"errors"
	"fmt"
	"io"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"ripeness-detector/internal/domain/entity"
)

const headerRequestID = "X-Request-ID"

type analyzeResponse struct {
	RequestID string                 `json:"request_id"`
	Source    entity.Origin          `json:"source"`
	Width     int                    `json:"width"`
	Height    int                    `json:"height"`
	Analyzer  string                 `json:"analyzer"`
	Report    *entity.RipenessReport `json:"report"`
}

type errorResponse struct {
	RequestID string `json:"request_id"`
	Error     string `json:"error"`
	Kind      string `json:"kind"`
	Detail    string `json:"detail,omitempty"`
}

func (s *Server) handleIndex(c *fiber.Ctx) error {
	c.Type("html", "utf-8")
	return c.Send(indexHTML)
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.SendString("ok")
}

// handleAnalyze accepts a multipart form with optional "camera" and "file"
// parts and returns the ripeness report of the chosen image.
func (s *Server) handleAnalyze(c *fiber.Ctx) error {
	requestID := c.Get(headerRequestID)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	c.Set(headerRequestID, requestID)

	camera, err := s.readPart(c, "camera", entity.OriginCamera)
	if err != nil {
		return s.fail(c, requestID, err)
	}
	file, err := s.readPart(c, "file", entity.OriginUpload)
	if err != nil {
		return s.fail(c, requestID, err)
	}

	out, err := s.analysis.Process(c.UserContext(), requestID, camera, file)
	if err != nil {
		return s.fail(c, requestID, err)
	}

	return c.JSON(analyzeResponse{
		RequestID: out.RequestID,
		Source:    out.Image.Origin,
		Width:     out.Image.Pixels.Width,
		Height:    out.Image.Pixels.Height,
		Analyzer:  out.Analyzer,
		Report:    out.Report,
	})
}

// readPart returns the named form file. A missing part, or a body that is not
// a multipart form at all, yields an empty upload.
func (s *Server) readPart(c *fiber.Ctx, field string, origin entity.Origin) (entity.Upload, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		return entity.Upload{Origin: origin}, nil
	}
	if fh.Size > int64(s.maxBytes) {
		return entity.Upload{}, entity.NewAnalysisError(entity.ErrDecode, "acquire",
			fmt.Errorf("%s is %d bytes, limit is %d", field, fh.Size, s.maxBytes))
	}

	f, err := fh.Open()
	if err != nil {
		return entity.Upload{}, fmt.Errorf("open %s part: %w", field, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return entity.Upload{}, fmt.Errorf("read %s part: %w", field, err)
	}

	return entity.Upload{
		Origin:      origin,
		Filename:    fh.Filename,
		ContentType: fh.Header.Get(fiber.HeaderContentType),
		Data:        data,
	}, nil
}

func (s *Server) fail(c *fiber.Ctx, requestID string, err error) error {
	kind := entity.KindOf(err)
	status := statusFor(err)
	if status >= fiber.StatusInternalServerError {
		s.logger.Error("analyze request failed", "request_id", requestID, "kind", kind, "error", err)
	}
	return c.Status(status).JSON(errorResponse{
		RequestID: requestID,
		Error:     userMessage(err),
		Kind:      kind,
		Detail:    err.Error(),
	})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, entity.ErrNoImage):
		return fiber.StatusBadRequest
	case errors.Is(err, entity.ErrDecode):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, entity.ErrConfiguration):
		return fiber.StatusServiceUnavailable
	case errors.Is(err, entity.ErrTransport),
		errors.Is(err, entity.ErrProtocol),
		errors.Is(err, entity.ErrParse):
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}

func userMessage(err error) string {
	switch {
	case errors.Is(err, entity.ErrNoImage):
		return "Take a picture or upload an image first."
	case errors.Is(err, entity.ErrDecode):
		return "The image could not be read. Use a JPEG or PNG photo."
	case errors.Is(err, entity.ErrConfiguration):
		return "The vision service is not configured."
	case errors.Is(err, entity.ErrTransport):
		return "The vision service could not be reached."
	case errors.Is(err, entity.ErrProtocol):
		return "The vision service rejected the request."
	case errors.Is(err, entity.ErrParse):
		return "The vision service returned an unreadable result."
	default:
		return "Something went wrong while analyzing the image."
	}
}

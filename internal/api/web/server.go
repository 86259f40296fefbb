// Package web serves the browser UI and the JSON analysis API.
package web

import (
	"context"
	_ "embed"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	app "ripeness-detector/internal/application"
	applog "ripeness-detector/internal/log"
)

//go:embed static/index.html
var indexHTML []byte

// formOverhead leaves room for multipart boundaries and headers on top of
// the two image parts.
const formOverhead = 1 << 20

// Server is the HTTP front-end.
type Server struct {
	app      *fiber.App
	addr     string
	analysis *app.AnalysisService
	maxBytes int
	logger   *slog.Logger
}

// NewServer creates the server. maxUploadBytes bounds a single image part.
func NewServer(addr string, analysis *app.AnalysisService, maxUploadBytes int) *Server {
	if maxUploadBytes <= 0 {
		maxUploadBytes = app.DefaultMaxImageBytes
	}

	s := &Server{
		addr:     addr,
		analysis: analysis,
		maxBytes: maxUploadBytes,
		logger:   applog.With("component", "web"),
	}

	fa := fiber.New(fiber.Config{
		AppName:               "Banana Ripeness Detector",
		DisableStartupMessage: true,
		BodyLimit:             2*maxUploadBytes + formOverhead,
	})

	fa.Use(recover.New())
	fa.Use(cors.New())

	fa.Get("/", s.handleIndex)
	fa.Get("/healthz", s.handleHealth)

	api := fa.Group("/api")
	api.Post("/analyze", s.handleAnalyze)

	s.app = fa
	return s
}

// App exposes the underlying fiber app, mainly for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Start blocks serving HTTP until Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("web server listening", "addr", s.addr, "analyzer", s.analysis.AnalyzerName())
	return s.app.Listen(s.addr)
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

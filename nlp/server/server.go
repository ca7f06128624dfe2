// Package server exposes the segmentation engine over HTTP with fiber.
package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	jwtware "github.com/gofiber/contrib/jwt"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/golang-jwt/jwt/v5"
	"github.com/oarkflow/xid"

	"github.com/oarkflow/segtag/nlp/config"
	"github.com/oarkflow/segtag/nlp/metrics"
	"github.com/oarkflow/segtag/nlp/morphology"
	"github.com/oarkflow/segtag/nlp/pipeline"
	"github.com/oarkflow/segtag/nlp/store"
)

const shutdownTimeout = 10 * time.Second

type Server struct {
	cfg      config.Server
	app      *fiber.App
	engine   atomic.Pointer[morphology.Analyzer]
	store    *store.Store
	metrics  *metrics.Metrics
	logger   *slog.Logger
	pipeline pipeline.Options
	access   io.Writer
}

type Option func(*Server)

// WithStore enables persistence for the records routes.
func WithStore(st *store.Store) Option {
	return func(s *Server) { s.store = st }
}

// WithMetrics mounts the registry on the metrics path.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithPipeline sets the worker pool used by the batch route.
func WithPipeline(o pipeline.Options) Option {
	return func(s *Server) { s.pipeline = o }
}

// WithAccessLog redirects the request log; nil silences it.
func WithAccessLog(w io.Writer) Option {
	return func(s *Server) {
		if w == nil {
			w = io.Discard
		}
		s.access = w
	}
}

func New(cfg config.Server, engine *morphology.Analyzer, opts ...Option) *Server {
	s := &Server{
		cfg:    cfg,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.engine.Store(engine)
	s.app = fiber.New(fiber.Config{
		AppName:               "segtag",
		ReadTimeout:           cfg.ReadTimeoutDuration(),
		WriteTimeout:          cfg.WriteTimeoutDuration(),
		BodyLimit:             cfg.BodyLimit,
		JSONEncoder:           json.Marshal,
		JSONDecoder:           json.Unmarshal,
		DisableStartupMessage: true,
		ErrorHandler:          s.handleError,
	})
	s.routes()
	return s
}

// App exposes the fiber app, mainly for app.Test.
func (s *Server) App() *fiber.App { return s.app }

// Engine returns the analyzer currently serving requests.
func (s *Server) Engine() *morphology.Analyzer { return s.engine.Load() }

// SetEngine swaps the analyzer; in-flight requests finish on the old one.
func (s *Server) SetEngine(a *morphology.Analyzer) {
	if a != nil {
		s.engine.Store(a)
	}
}

func (s *Server) routes() {
	s.app.Use(recover.New())
	s.app.Use(requestid.New(requestid.Config{
		Generator: func() string { return xid.New().String() },
	}))
	logCfg := logger.Config{}
	if s.access != nil {
		logCfg.Output = s.access
	}
	s.app.Use(logger.New(logCfg))
	s.app.Use(cors.New())
	s.app.Use(compress.New())
	if s.cfg.RateLimit > 0 {
		s.app.Use(limiter.New(limiter.Config{
			Max:        s.cfg.RateLimit,
			Expiration: time.Minute,
		}))
	}

	s.app.Get(s.cfg.HealthPath, s.health)
	if s.metrics != nil {
		s.app.Get(s.cfg.MetricsPath, adaptor.HTTPHandler(s.metrics.Handler()))
	}

	v1 := s.app.Group("/v1")
	if s.cfg.JWTSecret != "" {
		v1.Use(withJWT([]byte(s.cfg.JWTSecret)))
	}
	v1.Post("/analyze", s.analyze)
	v1.Post("/analyze/batch", s.analyzeBatch)
	v1.Post("/bio", s.encodeBIO)
	v1.Post("/records", s.createRecord)
	v1.Get("/records", s.listRecords)
	v1.Get("/records/:word", s.getRecord)
}

func withJWT(secret []byte) fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey: jwtware.SigningKey{Key: secret},
		SuccessHandler: func(c *fiber.Ctx) error {
			if tok, ok := c.Locals("user").(*jwt.Token); ok {
				if sub, err := tok.Claims.GetSubject(); err == nil {
					c.Locals("ctx_userid", sub)
				}
			}
			return c.Next()
		},
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return formatError(c, fiber.StatusUnauthorized, "invalid or missing token")
		},
	})
}

// Listen serves until ctx is cancelled, then drains connections.
func (s *Server) Listen(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("segtag server listening", slog.String("address", s.cfg.Address))
		errCh <- s.app.Listen(s.cfg.Address)
	}()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	s.logger.Info("draining server connections and shutting down")
	if err := s.app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		return err
	}
	return nil
}

func (s *Server) handleError(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	if code >= fiber.StatusInternalServerError {
		s.logger.Error("request failed",
			slog.String("path", c.Path()),
			slog.Any("request_id", c.Locals("requestid")),
			slog.String("err", err.Error()))
	}
	msg := err.Error()
	if fe != nil {
		msg = fe.Message
	}
	return formatError(c, code, strings.TrimSpace(msg))
}

func formatError(c *fiber.Ctx, code int, msg string) error {
	return c.Status(code).JSON(fiber.Map{"error": code, "message": msg})
}

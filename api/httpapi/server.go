package httpapi

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"matchd/api/ws"
	"matchd/service"
	"matchd/snapshot"
)

// Server adapts OrderService to HTTP.
type Server struct {
	app  *fiber.App
	svc  *service.OrderService
	hub  *ws.Hub
	snap *snapshot.Writer
	log  *zap.Logger
}

func NewServer(svc *service.OrderService, hub *ws.Hub, snap *snapshot.Writer, log *zap.Logger) *Server {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	s := &Server{
		app:  app,
		svc:  svc,
		hub:  hub,
		snap: snap,
		log:  log,
	}

	// Every request carries a correlation id, echoed in the response.
	app.Use(func(c *fiber.Ctx) error {
		reqID := c.Get("X-Request-Id")
		if reqID == "" {
			reqID = uuid.NewString()
		}
		c.Locals("reqID", reqID)
		c.Set("X-Request-Id", reqID)
		return c.Next()
	})

	s.registerRoutes()
	return s
}

func (s *Server) Listen(addr string) error {
	return s.app.Listen(addr)
}

func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// App exposes the router for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Package web exposes the speechd synthesis routing service over HTTP.
package web

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"

	"github.com/lexivox/speechkit/pkg/hub"
	"github.com/lexivox/speechkit/pkg/router"
)

// Event is a synthesis event broadcast to websocket observers.
type Event struct {
	Time     string `json:"time"`
	Type     string `json:"type"` // served, fallback, error
	Provider string `json:"provider,omitempty"`
	Primary  string `json:"primary,omitempty"`
	Chars    int    `json:"chars,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Server is the speechd HTTP server.
type Server struct {
	app    *fiber.App
	port   string
	router *router.Router
	logger *slog.Logger

	// Hub for websocket event broadcast
	eventsHub *hub.Hub
}

// NewServer creates the speechd server around a provider router.
func NewServer(port string, rtr *router.Router) *Server {
	s := &Server{
		port:      port,
		router:    rtr,
		logger:    slog.Default().With("component", "web"),
		eventsHub: hub.New("events"),
	}

	app := fiber.New(fiber.Config{
		AppName:               "speechd",
		DisableStartupMessage: true,
		BodyLimit:             1 << 20, // requests are text, not audio
	})

	// CORS for the mobile client during development
	app.Use(cors.New())

	// API routes
	api := app.Group("/api")
	api.Post("/synthesize", s.handleSynthesize)
	api.Get("/voices", s.handleVoices)
	api.Get("/health", s.handleHealth)

	// WebSocket upgrade middleware
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	// WebSocket routes
	app.Get("/ws/events", websocket.New(s.handleEventsWS))

	s.app = app
	return s
}

// Start starts the server and blocks.
func (s *Server) Start() error {
	go s.eventsHub.Run()

	s.logger.Info("listening", "port", s.port)
	return s.app.Listen(":" + s.port)
}

// StartAsync starts the server in a goroutine.
func (s *Server) StartAsync() {
	go func() {
		if err := s.Start(); err != nil {
			s.logger.Error("server error", "error", err)
		}
	}()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// App returns the underlying fiber app, used by tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// publish broadcasts a synthesis event to websocket observers.
func (s *Server) publish(eventType, provider, primary string, chars int, errMsg string) {
	s.eventsHub.BroadcastJSON(Event{
		Time:     time.Now().Format(time.RFC3339),
		Type:     eventType,
		Provider: provider,
		Primary:  primary,
		Chars:    chars,
		Error:    errMsg,
	})
}

// handleEventsWS streams synthesis events to a websocket client.
func (s *Server) handleEventsWS(c *websocket.Conn) {
	hub.NewClient(s.eventsHub, c).Run()
}

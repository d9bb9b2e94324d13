package server

import (
	"context"
	"log/slog"
	"time"

	"meetagent/app/client/googlecal"
	"meetagent/app/config"
	"meetagent/app/service/engine"
	"meetagent/app/service/session"

	"github.com/gofiber/fiber/v2"
	"github.com/samber/do"
)

var _ do.Shutdownable = (*Server)(nil)

type Server struct {
	cfg       *config.Config
	appCtx    context.Context
	store     session.Store
	engineSvc *engine.Service
	calClient *googlecal.Client

	app *fiber.App
}

func New(di *do.Injector) (*Server, error) {
	s := &Server{
		cfg:       do.MustInvoke[*config.Config](di),
		appCtx:    do.MustInvoke[context.Context](di),
		store:     do.MustInvoke[session.Store](di),
		engineSvc: do.MustInvoke[*engine.Service](di),
		calClient: do.MustInvoke[*googlecal.Client](di),
	}

	s.app = fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ReadTimeout:           time.Minute,
	})

	s.app.Get("/", s.index)
	s.app.Post("/api/chat/stream", s.chatStream)
	s.app.Get("/auth/google", s.authGoogle)
	s.app.Get("/google/callback", s.authCallback)

	return s, nil
}

func (s *Server) Run(ctx context.Context) error {
	go func() {
		<-ctx.Done()

		if err := s.app.ShutdownWithTimeout(10 * time.Second); err != nil {
			slog.Error("Server shutdown failed", "error", err)
		}
	}()

	slog.Info("Listening", "addr", s.cfg.Server.Addr)

	return s.app.Listen(s.cfg.Server.Addr)
}

func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

func (s *Server) index(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"ok": true,
		"routes": fiber.Map{
			"chat_stream":    "/api/chat/stream",
			"oauth_start":    "/auth/google",
			"oauth_callback": "/google/callback",
		},
	})
}

// sessionID reads the sid cookie, minting and setting one when absent.
func (s *Server) sessionID(c *fiber.Ctx) string {
	sid := c.Cookies("sid")
	if sid == "" {
		sid = session.NewID()
	}

	c.Cookie(&fiber.Cookie{
		Name:     "sid",
		Value:    sid,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})

	return sid
}

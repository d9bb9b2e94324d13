package server

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const oauthSuccessPage = `<html><body style="font-family:system-ui;padding:24px;">
  <h2>Google Calendar connected</h2>
  <p>You can now return to the chat and confirm the booking.</p>
</body></html>`

func (s *Server) authGoogle(c *fiber.Ctx) error {
	sid := s.sessionID(c)
	sess := s.store.Get(sid)

	csrf := uuid.NewString()

	sess.Lock()
	sess.OAuthState = csrf
	sess.Unlock()
	s.store.Put(sid, sess)

	return c.Redirect(s.calClient.AuthURL(csrf), fiber.StatusFound)
}

func (s *Server) authCallback(c *fiber.Ctx) error {
	sid := s.sessionID(c)
	sess := s.store.Get(sid)

	state := c.Query("state")

	sess.Lock()
	saved := sess.OAuthState
	sess.Unlock()

	if saved == "" || saved != state {
		return fiber.NewError(fiber.StatusBadRequest, "OAuth state mismatch. Please retry /auth/google")
	}

	token, err := s.calClient.Exchange(c.Context(), c.Query("code"))
	if err != nil {
		slog.Error("OAuth exchange failed",
			"session", sid,
			"error", err)

		return fiber.NewError(fiber.StatusBadGateway, "failed to complete Google authorization")
	}

	sess.Lock()
	sess.Token = token
	sess.OAuthState = ""
	sess.Unlock()
	s.store.Put(sid, sess)

	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)

	return c.SendString(oauthSuccessPage)
}

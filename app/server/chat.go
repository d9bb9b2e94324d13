package server

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"
)

const emptyUtteranceReply = "I didn't catch that. Can you say it again?"

type chatRequest struct {
	Messages []chatMessage `json:"messages"`
	Text     string        `json:"text"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type sseEvent struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

func (s *Server) chatStream(c *fiber.Ctx) error {
	var req chatRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	utterance := strings.TrimSpace(req.Text)
	if len(req.Messages) > 0 {
		utterance = strings.TrimSpace(req.Messages[len(req.Messages)-1].Content)
	}

	sid := s.sessionID(c)

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		emit := func(text string) error {
			return writeSSE(w, sseEvent{Type: "delta", Text: text})
		}

		if utterance == "" {
			_ = emit(emptyUtteranceReply)
		} else if err := s.engineSvc.ProcessTurn(s.appCtx, sid, utterance, emit); err != nil {
			slog.Warn("Turn aborted",
				"session", sid,
				"error", err)
		}

		_ = writeSSE(w, sseEvent{Type: "done"})
	})

	return nil
}

func writeSSE(w *bufio.Writer, event sseEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	if _, err = fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
		return err
	}

	return w.Flush()
}

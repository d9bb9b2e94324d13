package reply

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"meetagent/app/config"
	"meetagent/app/service/booking"

	_ "embed"

	"github.com/samber/do"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

//go:embed reply_prompt_template.txt
var replyPromptTemplate string

const maxReplyDuration = 30 * time.Second

// Agent rephrases the engine's planned message as a token stream. The planned
// text is the ground truth: if generation fails before anything was emitted,
// the planned text itself is forwarded verbatim.
type Agent struct {
	cfg   *config.Config
	model llms.Model
}

func New(di *do.Injector) (*Agent, error) {
	cfg := do.MustInvoke[*config.Config](di)

	model, err := openai.New(
		openai.WithToken(cfg.OpenAI.Reply.Token),
		openai.WithBaseURL(cfg.OpenAI.Reply.BaseURL),
		openai.WithModel(cfg.OpenAI.Reply.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create reply model: %w", err)
	}

	return &Agent{
		cfg:   cfg,
		model: model,
	}, nil
}

// Stream forwards generated fragments to emit in order. It returns an error
// only when emit itself fails; model failures degrade to the planned text.
func (a *Agent) Stream(ctx context.Context, st booking.State, history, utterance, planned string, emit func(string) error) error {
	system := a.buildSystemPrompt(st, history)

	ctx, cancel := context.WithTimeout(ctx, maxReplyDuration)
	defer cancel()

	var emitted bool
	var emitErr error

	_, err := a.model.GenerateContent(ctx,
		[]llms.MessageContent{
			llms.TextParts(llms.ChatMessageTypeSystem, system),
			llms.TextParts(llms.ChatMessageTypeHuman,
				fmt.Sprintf("User said: %s\n\nPlanned assistant message:\n%s", utterance, planned)),
		},
		llms.WithStreamingFunc(func(_ context.Context, chunk []byte) error {
			if len(chunk) == 0 {
				return nil
			}

			emitted = true
			if err := emit(string(chunk)); err != nil {
				emitErr = err
				return err
			}

			return nil
		}),
	)

	if emitErr != nil {
		return emitErr
	}

	if err != nil {
		slog.Warn("Reply generation failed, falling back to planned text", "error", err)

		if !emitted {
			return emit(planned)
		}
	}

	return nil
}

func (a *Agent) buildSystemPrompt(st booking.State, history string) string {
	start := ""
	if !st.Start.IsZero() {
		start = st.Start.Format(time.RFC3339)
	}

	if history == "" {
		history = "No messages yet"
	}

	templateValues := map[string]any{
		"step":    string(st.Step),
		"email":   st.Email,
		"phone":   st.Phone,
		"start":   start,
		"title":   st.Title,
		"history": history,
	}

	prompt := replyPromptTemplate
	for key, value := range templateValues {
		prompt = strings.ReplaceAll(prompt, "{"+key+"}", fmt.Sprint(value))
	}

	return prompt
}

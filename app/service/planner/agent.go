package planner

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"meetagent/app/config"
	"meetagent/app/service/booking"

	_ "embed"

	"github.com/samber/do"
	"github.com/sashabaranov/go-openai"
)

//go:embed planner_prompt_template.txt
var plannerPromptTemplate string

const (
	maxExtractDuration = 30 * time.Second
	failSafeReason     = "extractor unavailable"
)

type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Agent turns free-text utterances into the fixed Extraction shape. It never
// returns an error to the caller: any failure of the underlying model
// degrades to booking.EmptyExtraction so the engine always receives a valid
// shape.
type Agent struct {
	cfg *config.Config

	client chatCompleter
	model  string
}

func New(di *do.Injector) (*Agent, error) {
	cfg := do.MustInvoke[*config.Config](di)

	return &Agent{
		cfg:    cfg,
		client: createClient(cfg.OpenAI.Planner),
		model:  cfg.OpenAI.Planner.Model,
	}, nil
}

func (a *Agent) Extract(ctx context.Context, st booking.State, utterance string) booking.Extraction {
	prompt := a.buildPrompt(st, utterance)

	ctx, cancel := context.WithTimeout(ctx, maxExtractDuration)
	defer cancel()

	aiResponse, err := a.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: a.model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleUser,
					Content: prompt,
				},
			},
			MaxCompletionTokens: 500,
			Temperature:         0,
			ResponseFormat: &openai.ChatCompletionResponseFormat{
				Type: openai.ChatCompletionResponseFormatTypeJSONObject,
			},
		},
	)
	if err != nil {
		slog.Warn("Planner call failed", "error", err)
		return booking.EmptyExtraction(failSafeReason)
	}

	if len(aiResponse.Choices) == 0 {
		slog.Warn("Planner returned no choices")
		return booking.EmptyExtraction(failSafeReason)
	}

	result := aiResponse.Choices[0].Message.Content
	result = strings.Trim(result, "`")
	result = strings.TrimSpace(result)
	result = strings.TrimPrefix(result, "json")
	result = strings.TrimSpace(result)

	var response plannerResponse
	if err = json.Unmarshal([]byte(result), &response); err != nil {
		slog.Warn("Planner returned malformed JSON", "error", err)
		return booking.EmptyExtraction(failSafeReason)
	}

	return response.toExtraction()
}

func (a *Agent) buildPrompt(st booking.State, utterance string) string {
	stateJSON, _ := json.Marshal(stateView{
		Step:     string(st.Step),
		Email:    st.Email,
		Phone:    st.Phone,
		StartISO: formatStart(st.Start),
		Title:    st.Title,
		Name:     st.Name,
	})

	templateValues := map[string]any{
		"timezone":  a.cfg.Booking.Timezone,
		"now":       time.Now().Format(time.RFC3339),
		"state":     string(stateJSON),
		"utterance": utterance,
	}

	prompt := plannerPromptTemplate
	for key, value := range templateValues {
		prompt = strings.ReplaceAll(prompt, "{"+key+"}", fmt.Sprint(value))
	}

	return prompt
}

type stateView struct {
	Step     string `json:"step"`
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
	StartISO string `json:"start_iso,omitempty"`
	Title    string `json:"title,omitempty"`
	Name     string `json:"name,omitempty"`
}

func formatStart(t time.Time) string {
	if t.IsZero() {
		return ""
	}

	return t.Format(time.RFC3339)
}

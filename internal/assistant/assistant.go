package assistant

import (
	"context"
	"errors"

	openai "github.com/sashabaranov/go-openai"

	coreconfig "github.com/hiwwer/marketbot/core/config"
	"github.com/hiwwer/marketbot/core/logger"
	"github.com/hiwwer/marketbot/internal/gateway"
	"log/slog"
)

// Backend is the gateway slice the assistant consumes.
type Backend interface {
	AssistantReply(ctx context.Context, token, sessionID, prompt string) gateway.Result[gateway.AssistantAnswer]
}

// ErrUnavailable means no reply source could answer.
var ErrUnavailable = errors.New("assistant: no source available")

const systemPrompt = "You are the support assistant of a services marketplace. " +
	"Answer briefly and help the user with questions about their orders, " +
	"messages and account. If you do not know the answer, say so."

// Source answers assistant prompts: the marketplace backend first, with an
// optional direct OpenAI fallback when a key is configured.
type Source struct {
	gw     Backend
	openai *openai.Client
	model  string
}

// New builds the reply source.
func New(gw Backend, cfg coreconfig.AssistantConfig) *Source {
	s := &Source{gw: gw}
	if cfg.OpenAIKey != "" {
		s.openai = openai.NewClient(cfg.OpenAIKey)
		s.model = cfg.OpenAIModel
		if s.model == "" {
			s.model = openai.GPT4oMini
		}
	}
	return s
}

// Reply produces one assistant answer for the prompt. The session id keeps
// backend-side context per Telegram user.
func (s *Source) Reply(ctx context.Context, token, sessionID, prompt string) (string, error) {
	if res := s.gw.AssistantReply(ctx, token, sessionID, prompt); res.OK() && res.Value.Reply != "" {
		return res.Value.Reply, nil
	}

	if s.openai == nil {
		return "", ErrUnavailable
	}

	logger.ASSIST.Info("falling back to direct completion",
		slog.String("event", "assistant.fallback"),
		slog.String("model", s.model),
	)

	resp, err := s.openai.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", ErrUnavailable
	}
	return resp.Choices[0].Message.Content, nil
}

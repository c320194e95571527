// Package llm implements debate agents backed by an OpenAI-compatible chat
// completion endpoint.
//
// Model failures never escape an agent. A failed or unparsable analysis is
// replaced by a NEUTRAL argument at FallbackConfidence; a failed rebuttal adds
// nothing; a failed synthesis returns a short placeholder closing.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/Iron-Ham/council/internal/agent"
	"github.com/Iron-Ham/council/internal/debate"
	"github.com/Iron-Ham/council/internal/errors"
	"github.com/Iron-Ham/council/internal/mailbox"
	"github.com/Iron-Ham/council/internal/util"
)

const (
	// DefaultTimeout bounds a single model call.
	DefaultTimeout = 2 * time.Minute

	// FallbackConfidence is the confidence of the NEUTRAL stance posted when
	// the model cannot be reached or its reply cannot be parsed.
	FallbackConfidence = 0.3

	// DefaultModel is used when Config.Model is empty.
	DefaultModel = openai.GPT4oMini

	promptArgumentLen = 400
)

// ChatClient is the subset of *openai.Client the agent uses.
type ChatClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Config tunes model calls.
type Config struct {
	Model       string
	Temperature float32
	MaxTokens   int
	Timeout     time.Duration
}

func (c Config) withDefaults() Config {
	if c.Model == "" {
		c.Model = DefaultModel
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	return c
}

// NewClient builds an OpenAI client. An empty baseURL keeps the default
// endpoint; set it to talk to any compatible server.
func NewClient(apiKey, baseURL string) *openai.Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return openai.NewClientWithConfig(cfg)
}

// Agent asks a chat model to argue from one perspective.
type Agent struct {
	agent.Base
	client ChatClient
	cfg    Config
}

var _ agent.Agent = (*Agent)(nil)

// New creates a model-backed agent.
func New(env agent.Env, client ChatClient, cfg Config) *Agent {
	return &Agent{Base: agent.NewBase(env), client: client, cfg: cfg.withDefaults()}
}

// Factory returns an agent.Factory sharing one client across agents.
func Factory(client ChatClient, cfg Config) agent.Factory {
	return func(env agent.Env) (agent.Agent, error) {
		if client == nil {
			return nil, errors.NewValidationError("llm client is required").
				WithField("llm").
				WithCause(errors.ErrInvalidConfig)
		}
		return New(env, client, cfg), nil
	}
}

// stance is the JSON shape the model is asked to return.
type stance struct {
	Position     string     `json:"position"`
	Confidence   float64    `json:"confidence"`
	Reasoning    string     `json:"reasoning"`
	Evidence     []string   `json:"evidence,omitempty"`
	NothingToAdd bool       `json:"nothing_to_add,omitempty"`
	Challenge    *challenge `json:"challenge,omitempty"`
}

type challenge struct {
	Target  string `json:"target"`
	Message string `json:"message"`
}

// Analyze asks the model for an opening stance.
func (a *Agent) Analyze(ctx context.Context) (*debate.Argument, error) {
	prompt := fmt.Sprintf("Topic under debate:\n%s\n\nGive your opening stance from the %s perspective.", a.Topic(), a.Perspective())
	if board := a.Board(); board != nil {
		if extra, ok := board.Metadata()["context"].(string); ok && extra != "" {
			prompt += "\n\nAdditional context:\n" + extra
		}
	}

	reply, err := a.complete(ctx, prompt, true)
	if err != nil {
		a.Logger().Warn("model analysis failed, posting fallback", "error", err)
		return a.fallback(err)
	}
	s, err := parseStance(reply)
	if err != nil {
		a.Logger().Warn("model reply unparsable, posting fallback", "error", err)
		return a.fallback(err)
	}
	arg, err := a.post(s)
	if errors.Is(err, errors.ErrInvalidArgument) {
		a.Logger().Warn("model stance rejected, posting fallback", "error", err)
		return a.fallback(err)
	}
	return arg, err
}

// rebuttalInbox keeps the exchanges a rebuttal answers to. Notes and consensus
// chatter stay out of the prompt.
var rebuttalInbox = mailbox.FilterOptions{
	Types: []mailbox.MessageType{
		mailbox.MessageChallenge,
		mailbox.MessageDefense,
		mailbox.MessageQuestion,
		mailbox.MessageAnswer,
	},
	MaxMessages: 10,
}

// Rebuttal shows the model the earlier rounds and the recent challenges and
// questions in this agent's inbox. The model may decline to add anything.
func (a *Agent) Rebuttal(ctx context.Context, prior []debate.Argument) (*debate.Argument, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Topic under debate:\n%s\n\nArguments so far:\n%s\n", a.Topic(), formatArguments(prior))
	if inbox := mailbox.FormatFiltered(a.ReadMessages(ctx, 0), rebuttalInbox); inbox != "" {
		fmt.Fprintf(&b, "\nMessages to you:\n%s\n", inbox)
	}
	fmt.Fprintf(&b, "\nRebut the strongest opposing argument from the %s perspective, "+
		"or set nothing_to_add to true. You may challenge one agent by id.", a.Perspective())

	reply, err := a.complete(ctx, b.String(), true)
	if err != nil {
		a.Logger().Warn("model rebuttal failed, adding nothing", "error", err)
		return nil, nil
	}
	s, err := parseStance(reply)
	if err != nil {
		a.Logger().Warn("model rebuttal unparsable, adding nothing", "error", err)
		return nil, nil
	}
	if s.NothingToAdd {
		return nil, nil
	}
	if s.Challenge != nil && s.Challenge.Target != "" && s.Challenge.Message != "" {
		body := fmt.Sprintf("@%s %s", s.Challenge.Target, s.Challenge.Message)
		if _, err := a.SendMessage("", mailbox.MessageChallenge, body); err != nil {
			a.Logger().Warn("challenge not sent", "target", s.Challenge.Target, "error", err)
		}
	}
	arg, err := a.post(s)
	if errors.Is(err, errors.ErrInvalidArgument) {
		a.Logger().Warn("model rebuttal rejected, adding nothing", "error", err)
		return nil, nil
	}
	return arg, err
}

// Synthesize asks the model for a short closing statement.
func (a *Agent) Synthesize(ctx context.Context, all []debate.Argument) (string, error) {
	prompt := fmt.Sprintf("Topic under debate:\n%s\n\nFull debate record:\n%s\n\n"+
		"Write a closing statement of at most three sentences from the %s perspective. Plain text.",
		a.Topic(), formatArguments(all), a.Perspective())

	reply, err := a.complete(ctx, prompt, false)
	if err != nil || strings.TrimSpace(reply) == "" {
		a.Logger().Warn("model synthesis failed", "error", err)
		return fmt.Sprintf("%s: closing statement unavailable.", a.Perspective()), nil
	}
	return strings.TrimSpace(reply), nil
}

func (a *Agent) complete(ctx context.Context, prompt string, jsonReply bool) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, a.cfg.Timeout)
	defer cancel()

	req := openai.ChatCompletionRequest{
		Model: a.cfg.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt(a.Perspective(), a.ID())},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: a.cfg.Temperature,
		MaxTokens:   a.cfg.MaxTokens,
	}
	if jsonReply {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject}
	}

	resp, err := a.client.CreateChatCompletion(ctx, req)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return "", errors.NewTimeoutError("chat completion", a.cfg.Timeout)
		}
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("empty completion")
	}
	return resp.Choices[0].Message.Content, nil
}

func (a *Agent) post(s stance) (*debate.Argument, error) {
	pos, err := debate.ParsePosition(strings.ToUpper(strings.TrimSpace(s.Position)))
	if err != nil {
		return nil, err
	}
	conf := max(0, min(1, s.Confidence))
	return a.PostArgument(pos, conf, s.Reasoning, s.Evidence...)
}

func (a *Agent) fallback(cause error) (*debate.Argument, error) {
	reasoning := fmt.Sprintf("No model assessment available (%s); defaulting to a neutral stance.", util.Excerpt(cause.Error(), 120))
	return a.PostArgument(debate.Neutral, FallbackConfidence, reasoning)
}

func systemPrompt(perspective, id string) string {
	return fmt.Sprintf("You are %q, the %s reviewer on an architecture decision council. "+
		"Argue strictly from the %s perspective. When asked for a stance, reply with a JSON object "+
		`{"position": "SUPPORT|OPPOSE|NEUTRAL", "confidence": 0.0-1.0, "reasoning": "...", "evidence": ["..."], `+
		`"nothing_to_add": false, "challenge": {"target": "agent id", "message": "..."}}. `+
		"challenge and evidence are optional.", id, perspective, perspective)
}

// parseStance extracts the first JSON object in reply, tolerating code fences
// and surrounding prose.
func parseStance(reply string) (stance, error) {
	start := strings.Index(reply, "{")
	end := strings.LastIndex(reply, "}")
	if start < 0 || end < start {
		return stance{}, errors.NewValidationError("no JSON object in model reply").
			WithValue(util.Excerpt(reply, 80)).
			WithCause(errors.ErrInvalidArgument)
	}
	var s stance
	if err := json.Unmarshal([]byte(reply[start:end+1]), &s); err != nil {
		return stance{}, errors.Wrap(err, "decode model stance")
	}
	if s.Position == "" && !s.NothingToAdd {
		return stance{}, errors.NewValidationError("model stance has no position").
			WithField("position").
			WithCause(errors.ErrInvalidArgument)
	}
	return s, nil
}

func formatArguments(args []debate.Argument) string {
	if len(args) == 0 {
		return "(none)"
	}
	var b strings.Builder
	for _, arg := range args {
		fmt.Fprintf(&b, "- [round %d] %s (%s): %s at %.2f. %s\n",
			arg.Round, arg.AgentID, arg.Perspective, arg.Position, arg.Confidence,
			util.Excerpt(arg.Reasoning, promptArgumentLen))
	}
	return b.String()
}

// Nestling - Parenting Activity Tracking Service
// Copyright 2026 Nestling Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nestling-app/nestling

// Package assistant is a thin proxy to the Gemini API for the in-app
// parenting assistant. It forwards a single user message with a fixed system
// prompt and optional child context; nothing is retried and no conversation
// state is kept server-side.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"github.com/nestling-app/nestling/internal/config"
	"github.com/nestling-app/nestling/internal/logging"
	"github.com/nestling-app/nestling/internal/models"
)

// ErrBudgetExhausted is returned when the process-wide hourly budget is
// spent. Per-user limits are enforced separately at the HTTP layer.
var ErrBudgetExhausted = errors.New("assistant budget exhausted, try again later")

// UpstreamError wraps a model API failure. It maps to 502 at the HTTP layer.
type UpstreamError struct {
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("assistant upstream failed: %v", e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// systemPrompt frames every request. The assistant gives general guidance
// and always defers medical questions to professionals.
const systemPrompt = `You are a helpful parenting assistant inside a baby care tracking app.
Answer questions about infant care, sleep, feeding, and development in a warm, practical tone.
Keep answers short and concrete. For any medical concern, advise consulting a pediatrician
instead of giving a diagnosis.`

// contentGenerator is the slice of the genai client we use. Tests substitute
// a fake.
type contentGenerator interface {
	generate(ctx context.Context, model, prompt string) (string, error)
}

// genaiGenerator adapts *genai.Client to contentGenerator.
type genaiGenerator struct {
	client *genai.Client
}

func (g *genaiGenerator) generate(ctx context.Context, model, prompt string) (string, error) {
	result, err := g.client.Models.GenerateContent(ctx, model, genai.Text(prompt), nil)
	if err != nil {
		return "", err
	}
	if len(result.Candidates) == 0 || result.Candidates[0].Content == nil || len(result.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("no content generated")
	}

	text := ""
	for _, part := range result.Candidates[0].Content.Parts {
		if part.Text != "" {
			text += part.Text
		}
	}
	return text, nil
}

// Service proxies chat messages to the model under a process-wide budget.
// Upstream calls run behind a circuit breaker: a model outage fails fast
// instead of holding request handlers for the full client timeout.
type Service struct {
	cfg       *config.AssistantConfig
	generator contentGenerator
	budget    *rate.Limiter
	breaker   *gobreaker.CircuitBreaker[string]
}

// NewService creates the assistant proxy.
func NewService(ctx context.Context, cfg *config.AssistantConfig) (*Service, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create assistant client: %w", err)
	}

	return newServiceWithGenerator(cfg, &genaiGenerator{client: client}), nil
}

// newServiceWithGenerator wires a custom generator. Test use only.
func newServiceWithGenerator(cfg *config.AssistantConfig, g contentGenerator) *Service {
	perSecond := cfg.HourlyBudget / 3600
	burst := int(cfg.HourlyBudget / 10)
	if burst < 1 {
		burst = 1
	}

	breaker := gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:        "assistant-upstream",
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	return &Service{
		cfg:       cfg,
		generator: g,
		budget:    rate.NewLimiter(rate.Limit(perSecond), burst),
		breaker:   breaker,
	}
}

// Chat forwards a message to the model and returns the reply. The optional
// child provides age context. Upstream failures surface as UpstreamError and
// are never retried.
func (s *Service) Chat(ctx context.Context, message string, child *models.Child) (string, error) {
	if !s.budget.Allow() {
		return "", ErrBudgetExhausted
	}

	prompt := systemPrompt + "\n\n"
	if child != nil {
		years, months := child.AgeAt(time.Now())
		prompt += fmt.Sprintf("The question is about a child aged %d years and %d months.\n\n", years, months)
	}
	prompt += "Question: " + message

	start := time.Now()
	reply, err := s.breaker.Execute(func() (string, error) {
		return s.generator.generate(ctx, s.cfg.Model, prompt)
	})
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("Assistant upstream call failed")
		return "", &UpstreamError{Err: err}
	}

	logging.Ctx(ctx).Debug().
		Dur("duration", time.Since(start)).
		Str("model", s.cfg.Model).
		Msg("Assistant reply generated")

	return reply, nil
}

// Nestling - Parenting Activity Tracking Service
// Copyright 2026 Nestling Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nestling-app/nestling

package assistant

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/nestling-app/nestling/internal/config"
	"github.com/nestling-app/nestling/internal/models"
)

// fakeGenerator records prompts and returns a canned reply.
type fakeGenerator struct {
	lastModel  string
	lastPrompt string
	reply      string
	err        error
}

func (f *fakeGenerator) generate(ctx context.Context, model, prompt string) (string, error) {
	f.lastModel = model
	f.lastPrompt = prompt
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func newTestService(t *testing.T, fake *fakeGenerator) *Service {
	t.Helper()
	return newServiceWithGenerator(&config.AssistantConfig{
		Enabled:      true,
		Model:        "gemini-2.0-flash",
		HourlyBudget: 3600,
	}, fake)
}

func TestChat(t *testing.T) {
	ctx := context.Background()

	t.Run("forwards message with system prompt", func(t *testing.T) {
		fake := &fakeGenerator{reply: "Try a consistent bedtime routine."}
		svc := newTestService(t, fake)

		reply, err := svc.Chat(ctx, "How do I get my baby to sleep?", nil)
		if err != nil {
			t.Fatalf("chat failed: %v", err)
		}
		if reply != "Try a consistent bedtime routine." {
			t.Errorf("reply = %q", reply)
		}
		if fake.lastModel != "gemini-2.0-flash" {
			t.Errorf("model = %q", fake.lastModel)
		}
		if !strings.Contains(fake.lastPrompt, "parenting assistant") {
			t.Error("system prompt missing")
		}
		if !strings.Contains(fake.lastPrompt, "Question: How do I get my baby to sleep?") {
			t.Errorf("message missing from prompt: %q", fake.lastPrompt)
		}
	})

	t.Run("child context adds age", func(t *testing.T) {
		fake := &fakeGenerator{reply: "ok"}
		svc := newTestService(t, fake)

		child := &models.Child{
			Name:      "Kid",
			BirthDate: time.Now().AddDate(0, -4, 0),
		}
		if _, err := svc.Chat(ctx, "Is this normal?", child); err != nil {
			t.Fatalf("chat failed: %v", err)
		}
		if !strings.Contains(fake.lastPrompt, "aged 0 years and 4 months") {
			t.Errorf("age context missing: %q", fake.lastPrompt)
		}
	})

	t.Run("upstream failure is typed and not retried", func(t *testing.T) {
		fake := &fakeGenerator{err: errors.New("quota exceeded")}
		svc := newTestService(t, fake)

		_, err := svc.Chat(ctx, "hello", nil)
		var upstreamErr *UpstreamError
		if !errors.As(err, &upstreamErr) {
			t.Fatalf("got %T, want UpstreamError", err)
		}
	})

	t.Run("repeated failures open the breaker", func(t *testing.T) {
		fake := &fakeGenerator{err: errors.New("upstream down")}
		svc := newTestService(t, fake)

		for i := 0; i < 5; i++ {
			if _, err := svc.Chat(ctx, "hello", nil); err == nil {
				t.Fatalf("call %d unexpectedly succeeded", i)
			}
		}

		fake.lastPrompt = ""
		_, err := svc.Chat(ctx, "after trip", nil)
		var upstreamErr *UpstreamError
		if !errors.As(err, &upstreamErr) {
			t.Fatalf("got %T, want UpstreamError", err)
		}
		if !errors.Is(err, gobreaker.ErrOpenState) {
			t.Errorf("got %v, want wrapped gobreaker.ErrOpenState", err)
		}
		if fake.lastPrompt != "" {
			t.Error("request reached upstream while the breaker was open")
		}
	})

	t.Run("exhausted budget rejects before upstream", func(t *testing.T) {
		fake := &fakeGenerator{reply: "ok"}
		svc := newServiceWithGenerator(&config.AssistantConfig{
			Model:        "gemini-2.0-flash",
			HourlyBudget: 10, // burst of 1
		}, fake)

		if _, err := svc.Chat(ctx, "first", nil); err != nil {
			t.Fatalf("first chat failed: %v", err)
		}
		if _, err := svc.Chat(ctx, "second", nil); !errors.Is(err, ErrBudgetExhausted) {
			t.Fatalf("got %v, want ErrBudgetExhausted", err)
		}
		if fake.lastPrompt != "" && strings.Contains(fake.lastPrompt, "second") {
			t.Error("second request reached upstream despite exhausted budget")
		}
	})
}

package router

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/lexivox/speechkit/pkg/tts"
	"github.com/lexivox/speechkit/pkg/voices"
)

func newTestMock(name, defaultVoice string, voiceIDs ...string) *tts.Mock {
	m := tts.NewMock()
	m.ProviderName = name
	m.Default = defaultVoice
	for _, id := range voiceIDs {
		m.VoiceList = append(m.VoiceList, voices.Voice{Identifier: id, Language: "en-US"})
	}
	return m
}

func failing(name string, err error) *tts.Mock {
	m := tts.WithError(err)
	m.ProviderName = name
	return m
}

func TestRoute(t *testing.T) {
	ctx := context.Background()

	t.Run("empty text rejected", func(t *testing.T) {
		r, _ := New(newTestMock("openai", "nova"), nil)
		_, err := r.Route(ctx, Request{Text: "   "})
		if !errors.Is(err, tts.ErrEmptyText) {
			t.Errorf("error = %v, want ErrEmptyText", err)
		}
	})

	t.Run("primary serves by default", func(t *testing.T) {
		primary := newTestMock("openai", "nova", "nova")
		secondary := newTestMock("gemini", "Kore", "Kore")
		r, _ := New(primary, secondary)

		result, err := r.Route(ctx, Request{Text: "hello"})
		if err != nil {
			t.Fatalf("Route: %v", err)
		}
		if result.ProviderUsed != "openai" {
			t.Errorf("ProviderUsed = %q, want openai", result.ProviderUsed)
		}
		if result.FallbackOccurred {
			t.Error("FallbackOccurred should be false")
		}
		if secondary.CallCount("Synthesize") != 0 {
			t.Error("secondary should not be called")
		}
	})

	t.Run("explicit provider hint wins", func(t *testing.T) {
		primary := newTestMock("openai", "nova", "nova")
		secondary := newTestMock("gemini", "Kore", "Kore")
		r, _ := New(primary, secondary)

		result, err := r.Route(ctx, Request{Text: "hello", Provider: "gemini"})
		if err != nil {
			t.Fatalf("Route: %v", err)
		}
		if result.ProviderUsed != "gemini" {
			t.Errorf("ProviderUsed = %q, want gemini", result.ProviderUsed)
		}
	})

	t.Run("unknown provider rejected", func(t *testing.T) {
		r, _ := New(newTestMock("openai", "nova"), nil)
		_, err := r.Route(ctx, Request{Text: "hello", Provider: "polly"})
		if !errors.Is(err, tts.ErrUnknownProvider) {
			t.Errorf("error = %v, want ErrUnknownProvider", err)
		}
	})

	t.Run("voice infers provider when hint is auto", func(t *testing.T) {
		primary := newTestMock("openai", "nova", "nova")
		secondary := newTestMock("gemini", "Kore", "Kore")
		r, _ := New(primary, secondary)

		result, err := r.Route(ctx, Request{Text: "hello", Provider: "auto", VoiceID: "Kore"})
		if err != nil {
			t.Fatalf("Route: %v", err)
		}
		if result.ProviderUsed != "gemini" {
			t.Errorf("ProviderUsed = %q, want gemini", result.ProviderUsed)
		}
	})

	t.Run("level-derived speed reaches the provider", func(t *testing.T) {
		primary := newTestMock("openai", "nova", "nova")
		r, _ := New(primary, nil)

		if _, err := r.Route(ctx, Request{Text: "hello", UserLevel: tts.LevelBeginner}); err != nil {
			t.Fatalf("Route: %v", err)
		}
		last := primary.LastCall()
		if last == nil || last.Speed != 0.8 {
			t.Errorf("provider speed = %+v, want 0.8", last)
		}
	})

	t.Run("explicit speed overrides level", func(t *testing.T) {
		primary := newTestMock("openai", "nova", "nova")
		r, _ := New(primary, nil)

		if _, err := r.Route(ctx, Request{Text: "hello", Speed: 1.5, UserLevel: tts.LevelBeginner}); err != nil {
			t.Fatalf("Route: %v", err)
		}
		if last := primary.LastCall(); last.Speed != 1.5 {
			t.Errorf("provider speed = %v, want 1.5", last.Speed)
		}
	})
}

func TestRouteFallback(t *testing.T) {
	ctx := context.Background()
	upstreamErr := &tts.APIError{StatusCode: 503, Message: "down", Provider: "openai"}

	t.Run("fails over once and reports it", func(t *testing.T) {
		primary := failing("openai", upstreamErr)
		secondary := newTestMock("gemini", "Kore", "Kore")
		r, _ := New(primary, secondary)

		result, err := r.Route(ctx, Request{Text: "hello", FallbackEnabled: true})
		if err != nil {
			t.Fatalf("Route: %v", err)
		}
		if result.ProviderUsed != "gemini" {
			t.Errorf("ProviderUsed = %q, want gemini", result.ProviderUsed)
		}
		if !result.FallbackOccurred {
			t.Error("FallbackOccurred should be true")
		}
		if result.PrimaryProvider != "openai" {
			t.Errorf("PrimaryProvider = %q, want openai", result.PrimaryProvider)
		}
	})

	t.Run("foreign voice substituted on fallback", func(t *testing.T) {
		primary := failing("openai", upstreamErr)
		secondary := newTestMock("gemini", "Kore", "Kore")
		r, _ := New(primary, secondary)

		// "nova" is not in gemini's catalog; the retry must not carry it.
		_, err := r.Route(ctx, Request{Text: "hello", VoiceID: "nova", Provider: "openai", FallbackEnabled: true})
		if err != nil {
			t.Fatalf("Route: %v", err)
		}
		if last := secondary.LastCall(); last.VoiceID != "Kore" {
			t.Errorf("fallback voice = %q, want Kore", last.VoiceID)
		}
	})

	t.Run("known voice kept on fallback", func(t *testing.T) {
		primary := failing("openai", upstreamErr)
		secondary := newTestMock("gemini", "Kore", "Kore", "Puck")
		r, _ := New(primary, secondary)

		_, err := r.Route(ctx, Request{Text: "hello", VoiceID: "Puck", Provider: "openai", FallbackEnabled: true})
		if err != nil {
			t.Fatalf("Route: %v", err)
		}
		if last := secondary.LastCall(); last.VoiceID != "Puck" {
			t.Errorf("fallback voice = %q, want Puck", last.VoiceID)
		}
	})

	t.Run("fallback disabled returns primary error", func(t *testing.T) {
		primary := failing("openai", upstreamErr)
		secondary := newTestMock("gemini", "Kore", "Kore")
		r, _ := New(primary, secondary)

		_, err := r.Route(ctx, Request{Text: "hello", FallbackEnabled: false})
		var apiErr *tts.APIError
		if !errors.As(err, &apiErr) {
			t.Fatalf("error = %v, want APIError", err)
		}
		if secondary.CallCount("Synthesize") != 0 {
			t.Error("secondary should not be tried when fallback is disabled")
		}
	})

	t.Run("both vendors failing aggregates errors", func(t *testing.T) {
		primary := failing("openai", upstreamErr)
		secondary := failing("gemini", &tts.APIError{StatusCode: 500, Message: "boom", Provider: "gemini"})
		r, _ := New(primary, secondary)

		_, err := r.Route(ctx, Request{Text: "hello", FallbackEnabled: true})
		var routingErr *RoutingError
		if !errors.As(err, &routingErr) {
			t.Fatalf("error = %v, want RoutingError", err)
		}
		if len(routingErr.Attempts) != 2 {
			t.Errorf("attempts = %d, want 2", len(routingErr.Attempts))
		}
		names := routingErr.ProviderNames()
		if len(names) != 2 || names[0] != "openai" || names[1] != "gemini" {
			t.Errorf("ProviderNames = %v", names)
		}
		if !strings.Contains(routingErr.Error(), "openai") || !strings.Contains(routingErr.Error(), "gemini") {
			t.Errorf("Error() = %q should name both vendors", routingErr.Error())
		}
	})

	t.Run("no secondary disables failover", func(t *testing.T) {
		primary := failing("openai", upstreamErr)
		r, _ := New(primary, nil)

		_, err := r.Route(ctx, Request{Text: "hello", FallbackEnabled: true})
		var apiErr *tts.APIError
		if !errors.As(err, &apiErr) {
			t.Errorf("error = %v, want primary APIError", err)
		}
	})

	t.Run("cancelled context is not retried", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(context.Background())
		cancel()

		primary := failing("openai", context.Canceled)
		secondary := newTestMock("gemini", "Kore", "Kore")
		r, _ := New(primary, secondary)

		_, err := r.Route(cancelled, Request{Text: "hello", FallbackEnabled: true})
		if !errors.Is(err, context.Canceled) {
			t.Errorf("error = %v, want context.Canceled", err)
		}
		if secondary.CallCount("Synthesize") != 0 {
			t.Error("secondary should not be tried after cancellation")
		}
	})
}

func TestRouterHealth(t *testing.T) {
	ctx := context.Background()

	t.Run("healthy while one vendor up", func(t *testing.T) {
		primary := failing("openai", errors.New("down"))
		secondary := newTestMock("gemini", "Kore")
		r, _ := New(primary, secondary)

		if err := r.Health(ctx); err != nil {
			t.Errorf("Health: %v", err)
		}
	})

	t.Run("unhealthy when all vendors down", func(t *testing.T) {
		primary := failing("openai", errors.New("down"))
		secondary := failing("gemini", errors.New("down too"))
		r, _ := New(primary, secondary)

		if err := r.Health(ctx); err == nil {
			t.Error("Health should fail with all vendors down")
		}
	})
}

func TestNewRequiresPrimary(t *testing.T) {
	if _, err := New(nil, nil); !errors.Is(err, tts.ErrProviderUnavailable) {
		t.Errorf("New(nil, nil) error = %v, want ErrProviderUnavailable", err)
	}
}

// Package router selects a synthesis vendor per request and fails over to
// the alternate vendor when the first attempt errors.
//
// Selection order: an explicit provider name wins; otherwise a voice ID that
// belongs to exactly one vendor's catalog selects that vendor; otherwise the
// primary vendor serves the request. Failover is a single retry against the
// other vendor, never blind repetition.
package router

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/lexivox/speechkit/pkg/tts"
)

// Provider hint values accepted in requests.
const (
	ProviderAuto = "auto"
)

// Request carries one remote synthesis request.
type Request struct {
	// Text is the content to synthesize. Required.
	Text string

	// Provider is an explicit vendor name ("openai", "gemini") or
	// "auto"/empty for inference.
	Provider string

	// VoiceID optionally names a vendor voice. A voice known to exactly
	// one vendor selects that vendor when Provider is auto.
	VoiceID string

	// Model overrides the vendor's default model.
	Model string

	// Speed is an explicit rate multiplier; zero defers to UserLevel.
	Speed float64

	// Format is the requested output encoding.
	Format tts.Encoding

	// UserLevel derives the rate when Speed is zero.
	UserLevel tts.UserLevel

	// FallbackEnabled permits one retry against the alternate vendor.
	FallbackEnabled bool
}

// Result is a successful routing outcome. FallbackOccurred distinguishes
// degraded-but-successful calls from clean ones.
type Result struct {
	Audio            []byte
	Format           tts.AudioFormat
	ProviderUsed     string
	VoiceUsed        string
	FallbackOccurred bool
	PrimaryProvider  string
	LatencyMs        int64
}

// Router routes requests between two competing vendors.
type Router struct {
	primary   tts.Provider
	secondary tts.Provider
	logger    *slog.Logger
}

// New creates a Router. primary serves requests with no hint; secondary is
// the failover target. secondary may be nil, which disables failover.
func New(primary, secondary tts.Provider) (*Router, error) {
	if primary == nil {
		return nil, tts.ErrProviderUnavailable
	}
	return &Router{
		primary:   primary,
		secondary: secondary,
		logger:    slog.Default().With("component", "router"),
	}, nil
}

// NewWithLogger creates a Router with a custom logger.
func NewWithLogger(logger *slog.Logger, primary, secondary tts.Provider) (*Router, error) {
	r, err := New(primary, secondary)
	if err != nil {
		return nil, err
	}
	r.logger = logger.With("component", "router")
	return r, nil
}

// Route synthesizes the request, failing over once if permitted.
func (r *Router) Route(ctx context.Context, req Request) (*Result, error) {
	if strings.TrimSpace(req.Text) == "" {
		return nil, tts.ErrEmptyText
	}

	selected, err := r.choose(req)
	if err != nil {
		return nil, err
	}

	speed := tts.EffectiveSpeed(req.Speed, req.UserLevel)

	synthReq := tts.Request{
		Text:    req.Text,
		VoiceID: req.VoiceID,
		Model:   req.Model,
		Speed:   selected.ClampSpeed(speed),
		Format:  req.Format,
	}

	result, primaryErr := selected.Synthesize(ctx, synthReq)
	if primaryErr == nil {
		return r.resultFrom(result, selected.Name(), false, ""), nil
	}

	r.logger.Warn("provider failed",
		"provider", selected.Name(),
		"error", primaryErr,
	)

	// Check if context was cancelled
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	alternate := r.alternateFor(selected)
	if !req.FallbackEnabled || alternate == nil {
		return nil, primaryErr
	}

	// The original voice may be foreign to the fallback vendor; substitute
	// its default so the retry cannot fail on voice validation.
	fallbackReq := synthReq
	if fallbackReq.VoiceID != "" && !tts.HasVoice(alternate, fallbackReq.VoiceID) {
		fallbackReq.VoiceID = alternate.DefaultVoice()
	}
	fallbackReq.Speed = alternate.ClampSpeed(speed)
	// The model hint is vendor-specific too.
	fallbackReq.Model = ""

	result, fallbackErr := alternate.Synthesize(ctx, fallbackReq)
	if fallbackErr == nil {
		r.logger.Info("fallback provider succeeded",
			"provider", alternate.Name(),
			"primary", selected.Name(),
			"chars", len(req.Text),
		)
		return r.resultFrom(result, alternate.Name(), true, selected.Name()), nil
	}

	return nil, &RoutingError{
		Attempts: []Attempt{
			{Provider: selected.Name(), Err: primaryErr},
			{Provider: alternate.Name(), Err: fallbackErr},
		},
	}
}

// Providers returns the configured vendors, primary first.
func (r *Router) Providers() []tts.Provider {
	ps := []tts.Provider{r.primary}
	if r.secondary != nil {
		ps = append(ps, r.secondary)
	}
	return ps
}

// Health reports nil if at least one vendor is healthy.
func (r *Router) Health(ctx context.Context) error {
	var healthy int
	var lastErr error

	for _, p := range r.Providers() {
		if err := p.Health(ctx); err != nil {
			lastErr = err
		} else {
			healthy++
		}
	}

	if healthy == 0 {
		return fmt.Errorf("all providers unhealthy: %w", lastErr)
	}

	r.logger.Debug("health check complete",
		"healthy", healthy,
		"total", len(r.Providers()),
	)
	return nil
}

// Close closes both vendors.
func (r *Router) Close() error {
	var lastErr error
	for _, p := range r.Providers() {
		if err := p.Close(); err != nil {
			lastErr = err
		}
	}
	return lastErr
}

// choose resolves the vendor for a request.
func (r *Router) choose(req Request) (tts.Provider, error) {
	hint := strings.ToLower(strings.TrimSpace(req.Provider))

	if hint != "" && hint != ProviderAuto {
		for _, p := range r.Providers() {
			if p.Name() == hint {
				return p, nil
			}
		}
		return nil, fmt.Errorf("%w: %q", tts.ErrUnknownProvider, req.Provider)
	}

	// Voice-based inference. Brittle across vendors with overlapping voice
	// names, hence the explicit provider field taking precedence above.
	if req.VoiceID != "" {
		for _, p := range r.Providers() {
			if tts.HasVoice(p, req.VoiceID) {
				return p, nil
			}
		}
	}

	return r.primary, nil
}

// alternateFor returns the other vendor, or nil if there is none.
func (r *Router) alternateFor(p tts.Provider) tts.Provider {
	if r.secondary == nil {
		return nil
	}
	if p == r.primary {
		return r.secondary
	}
	return r.primary
}

func (r *Router) resultFrom(res *tts.AudioResult, provider string, fellBack bool, primary string) *Result {
	return &Result{
		Audio:            res.Audio,
		Format:           res.Format,
		ProviderUsed:     provider,
		VoiceUsed:        res.Voice,
		FallbackOccurred: fellBack,
		PrimaryProvider:  primary,
		LatencyMs:        res.LatencyMs,
	}
}

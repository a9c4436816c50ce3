package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/lexivox/speechkit/internal/httpc"
	"github.com/lexivox/speechkit/pkg/voices"
)

const providerRemote = "remote"

// Metadata headers set by the speechd routing service.
const (
	HeaderProviderUsed     = "X-Provider-Used"
	HeaderVoiceUsed        = "X-Voice-Used"
	HeaderFallbackOccurred = "X-Fallback-Occurred"
	HeaderPrimaryProvider  = "X-Primary-Provider"
)

// Remote implements Provider by calling a speechd routing service over HTTP.
// Vendor selection and failover happen server-side; the client only sees the
// metadata headers that report which vendor served the request.
type Remote struct {
	config  *Config
	client  *http.Client
	logger  *slog.Logger
	baseURL string

	// ProviderHint pins requests to one vendor ("openai" or "gemini").
	// Empty means server-side auto selection.
	ProviderHint string
}

// NewRemote creates a Remote provider for the service at baseURL
// (e.g. "http://localhost:8090"). No API key is required; credentials
// live with the service.
func NewRemote(baseURL string, opts ...Option) (*Remote, error) {
	if baseURL == "" {
		return nil, WrapError(providerRemote, fmt.Errorf("base URL required"))
	}

	cfg := DefaultConfig()
	cfg.Apply(opts...)

	client := httpc.Client
	if cfg.Timeout != httpc.DefaultTimeout {
		client = httpc.NewClient(cfg.Timeout)
	}

	return &Remote{
		config:  cfg,
		client:  client,
		logger:  cfg.Logger.With("component", "tts.remote"),
		baseURL: strings.TrimRight(baseURL, "/"),
	}, nil
}

// Name returns the provider identifier.
func (r *Remote) Name() string {
	return providerRemote
}

// Synthesize sends the request to the routing service and returns the audio.
func (r *Remote) Synthesize(ctx context.Context, req Request) (*AudioResult, error) {
	if req.Text == "" {
		return nil, WrapError(providerRemote, ErrEmptyText)
	}

	start := time.Now()

	payload := map[string]interface{}{
		"text": req.Text,
	}
	if r.ProviderHint != "" {
		payload["provider"] = r.ProviderHint
	}
	if req.VoiceID != "" {
		payload["voiceId"] = req.VoiceID
	}
	if req.Model != "" {
		payload["model"] = req.Model
	}
	if req.Speed > 0 {
		payload["speed"] = req.Speed
	}
	if req.Format != "" {
		payload["responseFormat"] = string(req.Format)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, WrapError(providerRemote, fmt.Errorf("marshal payload: %w", err))
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", r.baseURL+"/api/synthesize", bytes.NewReader(body))
	if err != nil {
		return nil, WrapError(providerRemote, fmt.Errorf("create request: %w", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(httpReq)
	if err != nil {
		return nil, WrapError(providerRemote, err)
	}
	defer resp.Body.Close()

	latency := time.Since(start).Milliseconds()

	if resp.StatusCode != http.StatusOK {
		return nil, r.parseError(resp)
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, WrapError(providerRemote, fmt.Errorf("read response: %w", err))
	}

	served := resp.Header.Get(HeaderProviderUsed)
	if resp.Header.Get(HeaderFallbackOccurred) == "true" {
		r.logger.Warn("served by fallback vendor",
			"provider", served,
			"primary", resp.Header.Get(HeaderPrimaryProvider),
		)
	}

	r.logger.Debug("synthesized audio",
		"chars", len(req.Text),
		"bytes", len(audio),
		"latency_ms", latency,
		"provider", served,
	)

	return &AudioResult{
		Audio:     audio,
		Format:    formatFor(Encoding(resp.Header.Get("X-Audio-Encoding"))),
		CharCount: len(req.Text),
		LatencyMs: latency,
		Voice:     resp.Header.Get(HeaderVoiceUsed),
	}, nil
}

// Voices fetches the combined vendor catalog from the service.
// Returns nil on error; the caller treats an empty catalog as
// "use the provider default voice".
func (r *Remote) Voices() []voices.Voice {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "GET", r.baseURL+"/api/voices", nil)
	if err != nil {
		return nil
	}

	resp, err := r.client.Do(req)
	if err != nil {
		r.logger.Warn("voice catalog fetch failed", "error", err)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil
	}

	var result struct {
		Voices []voices.Voice `json:"voices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil
	}
	return result.Voices
}

// DefaultVoice returns empty: the service picks the vendor default.
func (r *Remote) DefaultVoice() string {
	return ""
}

// ClampSpeed bounds speed to the union of the vendors' ranges; the service
// applies the per-vendor clamp on top.
func (r *Remote) ClampSpeed(speed float64) float64 {
	return clampSpeed(speed, openAIMinSpeed, openAIMaxSpeed)
}

// Health checks service connectivity.
func (r *Remote) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, "GET", r.baseURL+"/api/health", nil)
	if err != nil {
		return WrapError(providerRemote, err)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return WrapError(providerRemote, fmt.Errorf("health check: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return r.parseError(resp)
	}
	return nil
}

// Close releases resources.
func (r *Remote) Close() error {
	r.client.CloseIdleConnections()
	return nil
}

// parseError reads the service's structured error body.
func (r *Remote) parseError(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)

	var errResp struct {
		Error     string   `json:"error"`
		Providers []string `json:"providers"`
	}

	message := string(body)
	if json.Unmarshal(body, &errResp) == nil && errResp.Error != "" {
		message = errResp.Error
	}

	return &APIError{
		StatusCode: resp.StatusCode,
		Message:    message,
		Provider:   providerRemote,
	}
}

// Verify Remote implements Provider at compile time.
var _ Provider = (*Remote)(nil)

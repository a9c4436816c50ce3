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

	"github.com/lexivox/speechkit/pkg/voices"
)

const (
	openAIBaseURL  = "https://api.openai.com"
	providerOpenAI = "openai"
)

// OpenAI model options.
const (
	ModelTTS1   = "tts-1"    // Standard quality, faster
	ModelTTS1HD = "tts-1-hd" // Higher quality, slower
)

// OpenAI's legal speed range for the audio/speech endpoint.
const (
	openAIMinSpeed = 0.25
	openAIMaxSpeed = 4.0
)

// OpenAI implements Provider for OpenAI TTS.
type OpenAI struct {
	config  *Config
	client  *http.Client
	logger  *slog.Logger
	baseURL string
}

// NewOpenAI creates a new OpenAI TTS provider.
func NewOpenAI(opts ...Option) (*OpenAI, error) {
	cfg := DefaultConfig()
	cfg.ModelID = ModelTTS1
	cfg.VoiceID = VoiceNova
	cfg.OutputFormat = EncodingMP3
	cfg.Apply(opts...)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Default voice if cleared by an option
	if cfg.VoiceID == "" {
		cfg.VoiceID = VoiceNova
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = openAIBaseURL
	}

	return &OpenAI{
		config:  cfg,
		client:  &http.Client{Timeout: cfg.Timeout},
		logger:  cfg.Logger.With("component", "tts.openai"),
		baseURL: strings.TrimRight(baseURL, "/"),
	}, nil
}

// Name returns the provider identifier.
func (o *OpenAI) Name() string {
	return providerOpenAI
}

// Synthesize converts text to audio, returning the complete audio buffer.
func (o *OpenAI) Synthesize(ctx context.Context, req Request) (*AudioResult, error) {
	if req.Text == "" {
		return nil, WrapError(providerOpenAI, ErrEmptyText)
	}

	start := time.Now()

	voice := req.VoiceID
	if voice == "" {
		voice = o.config.VoiceID
	}
	model := req.Model
	if model == "" {
		model = o.config.ModelID
	}
	format := req.Format
	if format == "" {
		format = o.config.OutputFormat
	}

	payload := map[string]interface{}{
		"model":           model,
		"voice":           voice,
		"input":           req.Text,
		"speed":           o.ClampSpeed(req.Speed),
		"response_format": wireFormat(format),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, WrapError(providerOpenAI, fmt.Errorf("marshal payload: %w", err))
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", o.baseURL+"/v1/audio/speech", bytes.NewReader(body))
	if err != nil {
		return nil, WrapError(providerOpenAI, fmt.Errorf("create request: %w", err))
	}

	httpReq.Header.Set("Authorization", "Bearer "+o.config.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := o.doWithRetry(ctx, httpReq, body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	latency := time.Since(start).Milliseconds()

	if resp.StatusCode != http.StatusOK {
		return nil, o.parseError(resp)
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, WrapError(providerOpenAI, fmt.Errorf("read response: %w", err))
	}

	o.logger.Debug("synthesized audio",
		"chars", len(req.Text),
		"bytes", len(audio),
		"latency_ms", latency,
		"voice", voice,
	)

	return &AudioResult{
		Audio:     audio,
		Format:    formatFor(format),
		CharCount: len(req.Text),
		LatencyMs: latency,
		Voice:     voice,
	}, nil
}

// Voices returns the OpenAI voice catalog.
func (o *OpenAI) Voices() []voices.Voice {
	out := make([]voices.Voice, len(openAIVoices))
	copy(out, openAIVoices)
	return out
}

// DefaultVoice returns the configured default voice.
func (o *OpenAI) DefaultVoice() string {
	return o.config.VoiceID
}

// ClampSpeed bounds speed to OpenAI's legal range.
func (o *OpenAI) ClampSpeed(speed float64) float64 {
	return clampSpeed(speed, openAIMinSpeed, openAIMaxSpeed)
}

// Health checks API connectivity via the models endpoint.
func (o *OpenAI) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, "GET", o.baseURL+"/v1/models", nil)
	if err != nil {
		return WrapError(providerOpenAI, err)
	}

	req.Header.Set("Authorization", "Bearer "+o.config.APIKey)

	resp, err := o.client.Do(req)
	if err != nil {
		return WrapError(providerOpenAI, fmt.Errorf("health check: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return o.parseError(resp)
	}

	return nil
}

// Close releases resources.
func (o *OpenAI) Close() error {
	o.client.CloseIdleConnections()
	return nil
}

// doWithRetry performs the request with retry logic.
func (o *OpenAI) doWithRetry(ctx context.Context, req *http.Request, body []byte) (*http.Response, error) {
	var lastErr error

	for attempt := 0; attempt <= o.config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(o.config.RetryDelay * time.Duration(attempt)):
			}

			// Reset body for retry
			req.Body = io.NopCloser(bytes.NewReader(body))
		}

		resp, err := o.client.Do(req)
		if err != nil {
			lastErr = WrapError(providerOpenAI, err)
			continue
		}

		// Check if retryable
		if resp.StatusCode == 429 || resp.StatusCode >= 500 {
			lastErr = o.parseError(resp)
			resp.Body.Close()
			o.logger.Warn("retrying request",
				"attempt", attempt+1,
				"status", resp.StatusCode,
			)
			continue
		}

		return resp, nil
	}

	return nil, lastErr
}

// parseError reads and parses an error response.
func (o *OpenAI) parseError(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)

	// Try to parse JSON error
	var errResp struct {
		Error struct {
			Message string `json:"message"`
			Type    string `json:"type"`
			Code    string `json:"code"`
		} `json:"error"`
	}

	message := string(body)
	code := ""
	if json.Unmarshal(body, &errResp) == nil && errResp.Error.Message != "" {
		message = errResp.Error.Message
		code = errResp.Error.Code
	}

	return &APIError{
		StatusCode: resp.StatusCode,
		Message:    message,
		Code:       code,
		Provider:   providerOpenAI,
	}
}

// wireFormat maps an Encoding to the response_format value OpenAI expects.
func wireFormat(enc Encoding) string {
	switch enc {
	case EncodingMP3:
		return "mp3"
	case EncodingOpus:
		return "opus"
	case EncodingWAV:
		return "wav"
	case EncodingPCM16, EncodingPCM22, EncodingPCM24:
		return "pcm"
	default:
		return "mp3"
	}
}

// formatFor returns the audio format metadata for an encoding.
func formatFor(enc Encoding) AudioFormat {
	f := AudioFormat{
		Encoding:   enc,
		SampleRate: SampleRateFromEncoding(enc),
		Channels:   1,
	}
	switch enc {
	case EncodingPCM16, EncodingPCM22, EncodingPCM24, EncodingWAV:
		f.BitDepth = 16
	}
	return f
}

// Verify OpenAI implements Provider at compile time.
var _ Provider = (*OpenAI)(nil)

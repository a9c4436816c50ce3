package tts

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/lexivox/speechkit/pkg/voices"
)

const (
	geminiBaseURL  = "https://generativelanguage.googleapis.com/v1beta"
	providerGemini = "gemini"
)

// Gemini model options.
const (
	ModelGeminiTTS    = "gemini-2.5-flash-preview-tts"
	ModelGeminiProTTS = "gemini-2.5-pro-preview-tts"
)

// Gemini's legal speaking-rate range.
const (
	geminiMinSpeed = 0.5
	geminiMaxSpeed = 2.0
)

// Gemini implements Provider for Google's Gemini TTS API.
// Note: Gemini uses a different API format than OpenAI, so we implement it directly.
type Gemini struct {
	config  *Config
	client  *http.Client
	logger  *slog.Logger
	baseURL string
}

// NewGemini creates a new Gemini TTS provider.
func NewGemini(opts ...Option) (*Gemini, error) {
	cfg := DefaultConfig()
	cfg.ModelID = ModelGeminiTTS
	cfg.VoiceID = VoiceKore
	cfg.OutputFormat = EncodingPCM24
	cfg.Apply(opts...)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.VoiceID == "" {
		cfg.VoiceID = VoiceKore
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = geminiBaseURL
	}

	return &Gemini{
		config:  cfg,
		client:  &http.Client{Timeout: cfg.Timeout},
		logger:  cfg.Logger.With("component", "tts.gemini"),
		baseURL: baseURL,
	}, nil
}

// Name returns the provider identifier.
func (g *Gemini) Name() string {
	return providerGemini
}

// Synthesize converts text to audio. Gemini returns base64 PCM inside a
// generateContent response rather than raw bytes.
func (g *Gemini) Synthesize(ctx context.Context, req Request) (*AudioResult, error) {
	if req.Text == "" {
		return nil, WrapError(providerGemini, ErrEmptyText)
	}

	start := time.Now()

	voice := req.VoiceID
	if voice == "" {
		voice = g.config.VoiceID
	}
	model := req.Model
	if model == "" {
		model = g.config.ModelID
	}

	payload := map[string]interface{}{
		"contents": []map[string]interface{}{
			{
				"parts": []map[string]interface{}{
					{"text": req.Text},
				},
			},
		},
		"generationConfig": map[string]interface{}{
			"responseModalities": []string{"AUDIO"},
			"speechConfig": map[string]interface{}{
				"voiceConfig": map[string]interface{}{
					"prebuiltVoiceConfig": map[string]interface{}{
						"voiceName": voice,
					},
				},
				"speakingRate": g.ClampSpeed(req.Speed),
			},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, WrapError(providerGemini, fmt.Errorf("marshal payload: %w", err))
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", g.baseURL, model, g.config.APIKey)
	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(body))
	if err != nil {
		return nil, WrapError(providerGemini, fmt.Errorf("create request: %w", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return nil, WrapError(providerGemini, err)
	}
	defer resp.Body.Close()

	latency := time.Since(start).Milliseconds()

	if resp.StatusCode != http.StatusOK {
		return nil, g.parseError(resp)
	}

	var result geminiTTSResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, WrapError(providerGemini, fmt.Errorf("decode response: %w", err))
	}

	if result.Error.Message != "" {
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    result.Error.Message,
			Provider:   providerGemini,
		}
	}

	if len(result.Candidates) == 0 || len(result.Candidates[0].Content.Parts) == 0 {
		return nil, WrapError(providerGemini, fmt.Errorf("no audio content"))
	}

	audio, err := base64.StdEncoding.DecodeString(result.Candidates[0].Content.Parts[0].InlineData.Data)
	if err != nil {
		return nil, WrapError(providerGemini, fmt.Errorf("decode audio: %w", err))
	}

	g.logger.Debug("synthesized audio",
		"chars", len(req.Text),
		"bytes", len(audio),
		"latency_ms", latency,
		"voice", voice,
	)

	return &AudioResult{
		Audio: audio,
		Format: AudioFormat{
			Encoding:   EncodingPCM24,
			SampleRate: 24000,
			Channels:   1,
			BitDepth:   16,
		},
		CharCount: len(req.Text),
		LatencyMs: latency,
		Voice:     voice,
	}, nil
}

// Voices returns the Gemini voice catalog.
func (g *Gemini) Voices() []voices.Voice {
	out := make([]voices.Voice, len(geminiVoices))
	copy(out, geminiVoices)
	return out
}

// DefaultVoice returns the configured default voice.
func (g *Gemini) DefaultVoice() string {
	return g.config.VoiceID
}

// ClampSpeed bounds speed to Gemini's legal range.
func (g *Gemini) ClampSpeed(speed float64) float64 {
	return clampSpeed(speed, geminiMinSpeed, geminiMaxSpeed)
}

// Health checks API connectivity by listing models.
func (g *Gemini) Health(ctx context.Context) error {
	url := fmt.Sprintf("%s/models?key=%s&pageSize=1", g.baseURL, g.config.APIKey)
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return WrapError(providerGemini, err)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return WrapError(providerGemini, fmt.Errorf("health check: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return g.parseError(resp)
	}

	return nil
}

// Close releases resources.
func (g *Gemini) Close() error {
	g.client.CloseIdleConnections()
	return nil
}

// parseError reads and parses an error response.
func (g *Gemini) parseError(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)

	var errResp struct {
		Error struct {
			Message string `json:"message"`
			Code    int    `json:"code"`
		} `json:"error"`
	}

	message := string(body)
	if json.Unmarshal(body, &errResp) == nil && errResp.Error.Message != "" {
		message = errResp.Error.Message
	}

	return &APIError{
		StatusCode: resp.StatusCode,
		Message:    message,
		Provider:   providerGemini,
	}
}

// geminiTTSResponse is the generateContent response shape for audio output.
type geminiTTSResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				InlineData struct {
					MimeType string `json:"mimeType"`
					Data     string `json:"data"`
				} `json:"inlineData"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error struct {
		Message string `json:"message"`
		Code    int    `json:"code"`
	} `json:"error"`
}

// Verify Gemini implements Provider at compile time.
var _ Provider = (*Gemini)(nil)

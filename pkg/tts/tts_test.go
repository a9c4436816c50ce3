package tts

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRateForLevel(t *testing.T) {
	tests := []struct {
		name  string
		level UserLevel
		want  float64
	}{
		{"beginner", LevelBeginner, 0.8},
		{"intermediate", LevelIntermediate, 1.0},
		{"advanced", LevelAdvanced, 1.2},
		{"empty", UserLevel(""), 1.0},
		{"unknown", UserLevel("native"), 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RateForLevel(tt.level); got != tt.want {
				t.Errorf("RateForLevel(%q) = %v, want %v", tt.level, got, tt.want)
			}
		})
	}
}

func TestEffectiveSpeed(t *testing.T) {
	t.Run("explicit speed wins over level", func(t *testing.T) {
		if got := EffectiveSpeed(1.5, LevelBeginner); got != 1.5 {
			t.Errorf("EffectiveSpeed = %v, want 1.5", got)
		}
	})

	t.Run("zero speed derives from level", func(t *testing.T) {
		if got := EffectiveSpeed(0, LevelAdvanced); got != 1.2 {
			t.Errorf("EffectiveSpeed = %v, want 1.2", got)
		}
	})

	t.Run("zero speed no level", func(t *testing.T) {
		if got := EffectiveSpeed(0, ""); got != 1.0 {
			t.Errorf("EffectiveSpeed = %v, want 1.0", got)
		}
	})
}

func TestClampSpeed(t *testing.T) {
	openai, err := NewOpenAI(WithAPIKey("test-key"))
	if err != nil {
		t.Fatalf("NewOpenAI: %v", err)
	}
	gemini, err := NewGemini(WithAPIKey("test-key"))
	if err != nil {
		t.Fatalf("NewGemini: %v", err)
	}

	tests := []struct {
		name  string
		p     Provider
		speed float64
		want  float64
	}{
		{"openai zero maps to one", openai, 0, 1.0},
		{"openai in range", openai, 0.8, 0.8},
		{"openai below min", openai, 0.1, 0.25},
		{"openai above max", openai, 10, 4.0},
		{"gemini in range", gemini, 1.2, 1.2},
		{"gemini below min", gemini, 0.25, 0.5},
		{"gemini above max", gemini, 4.0, 2.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.p.ClampSpeed(tt.speed); got != tt.want {
				t.Errorf("ClampSpeed(%v) = %v, want %v", tt.speed, got, tt.want)
			}
		})
	}
}

func TestSampleRateFromEncoding(t *testing.T) {
	tests := []struct {
		enc  Encoding
		want int
	}{
		{EncodingPCM16, 16000},
		{EncodingPCM22, 22050},
		{EncodingPCM24, 24000},
		{EncodingMP3, 44100},
		{EncodingWAV, 24000},
		{Encoding("bogus"), 24000},
	}

	for _, tt := range tests {
		if got := SampleRateFromEncoding(tt.enc); got != tt.want {
			t.Errorf("SampleRateFromEncoding(%q) = %d, want %d", tt.enc, got, tt.want)
		}
	}
}

func TestConfigOptions(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Apply(
		WithAPIKey("key"),
		WithBaseURL("http://localhost:9999"),
		WithVoice("nova"),
		WithModel("tts-1-hd"),
		WithOutputFormat(EncodingWAV),
		WithTimeout(5*time.Second),
		WithRetry(1, 50*time.Millisecond),
	)

	if cfg.APIKey != "key" {
		t.Errorf("APIKey = %q", cfg.APIKey)
	}
	if cfg.BaseURL != "http://localhost:9999" {
		t.Errorf("BaseURL = %q", cfg.BaseURL)
	}
	if cfg.VoiceID != "nova" || cfg.ModelID != "tts-1-hd" {
		t.Errorf("voice/model = %q/%q", cfg.VoiceID, cfg.ModelID)
	}
	if cfg.OutputFormat != EncodingWAV {
		t.Errorf("OutputFormat = %q", cfg.OutputFormat)
	}
	if cfg.Timeout != 5*time.Second {
		t.Errorf("Timeout = %v", cfg.Timeout)
	}
	if cfg.MaxRetries != 1 || cfg.RetryDelay != 50*time.Millisecond {
		t.Errorf("retry = %d/%v", cfg.MaxRetries, cfg.RetryDelay)
	}
}

func TestConfigValidate(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); !errors.Is(err, ErrNoAPIKey) {
		t.Errorf("Validate() = %v, want ErrNoAPIKey", err)
	}

	cfg.APIKey = "key"
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}
}

func TestAPIError(t *testing.T) {
	t.Run("retryable statuses", func(t *testing.T) {
		tests := []struct {
			status    int
			retryable bool
		}{
			{429, true},
			{500, true},
			{503, true},
			{401, false},
			{400, false},
		}
		for _, tt := range tests {
			e := &APIError{StatusCode: tt.status, Provider: "openai"}
			if got := e.IsRetryable(); got != tt.retryable {
				t.Errorf("status %d: IsRetryable = %v, want %v", tt.status, got, tt.retryable)
			}
		}
	})

	t.Run("message includes provider and code", func(t *testing.T) {
		e := &APIError{StatusCode: 429, Message: "slow down", Code: "rate_limit", Provider: "openai"}
		want := "tts [openai]: API error 429 (rate_limit): slow down"
		if e.Error() != want {
			t.Errorf("Error() = %q, want %q", e.Error(), want)
		}
	})
}

func TestWrapError(t *testing.T) {
	if WrapError("openai", nil) != nil {
		t.Error("WrapError(nil) should be nil")
	}

	wrapped := WrapError("openai", ErrEmptyText)
	if !errors.Is(wrapped, ErrEmptyText) {
		t.Error("wrapped error should unwrap to sentinel")
	}

	var pe *ProviderError
	if !errors.As(wrapped, &pe) || pe.Provider != "openai" {
		t.Errorf("wrapped error = %v, want ProviderError for openai", wrapped)
	}
}

func TestHasVoice(t *testing.T) {
	openai, _ := NewOpenAI(WithAPIKey("test-key"))
	gemini, _ := NewGemini(WithAPIKey("test-key"))

	if !HasVoice(openai, VoiceNova) {
		t.Error("nova should be an OpenAI voice")
	}
	if HasVoice(openai, VoiceKore) {
		t.Error("Kore is not an OpenAI voice")
	}
	if !HasVoice(gemini, VoiceKore) {
		t.Error("Kore should be a Gemini voice")
	}
	if HasVoice(gemini, "nonexistent") {
		t.Error("unknown voice should not match")
	}
}

func TestMockTracking(t *testing.T) {
	m := NewMock()

	_, err := m.Synthesize(context.Background(), Request{Text: "hello", VoiceID: "nova", Speed: 0.8})
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	m.Health(context.Background())

	if got := m.CallCount("Synthesize"); got != 1 {
		t.Errorf("CallCount(Synthesize) = %d, want 1", got)
	}
	last := m.LastCall()
	if last == nil || last.Method != "Health" {
		t.Errorf("LastCall = %+v, want Health", last)
	}

	m.Reset()
	if len(m.Calls()) != 0 {
		t.Error("Reset should clear calls")
	}
}

func TestMockAudioPacing(t *testing.T) {
	m := NewMock()
	result, err := m.Synthesize(context.Background(), Request{Text: "abcde"})
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if len(result.Audio) != 5*960 {
		t.Errorf("audio bytes = %d, want %d", len(result.Audio), 5*960)
	}
	if result.Duration != 100*time.Millisecond {
		t.Errorf("duration = %v, want 100ms", result.Duration)
	}
}

// Package tts provides a unified interface for text-to-speech providers.
//
// The package supports multiple synthesis backends including OpenAI and
// Gemini, plus a Remote provider that talks to a speechd routing service.
// All providers implement the Provider interface, enabling seamless
// switching without changing caller code.
//
// Example usage:
//
//	provider, _ := tts.NewOpenAI(
//	    tts.WithAPIKey(os.Getenv("OPENAI_API_KEY")),
//	    tts.WithVoice(tts.VoiceNova),
//	)
//	defer provider.Close()
//
//	result, _ := provider.Synthesize(ctx, tts.Request{Text: "Hola"})
//	// result.Audio contains the audio bytes
package tts

import (
	"context"
	"time"

	"github.com/lexivox/speechkit/pkg/voices"
)

// Provider defines the TTS provider interface.
// All implementations must satisfy this interface for seamless provider switching.
type Provider interface {
	// Name returns the provider identifier (for logging and routing).
	Name() string

	// Synthesize converts text to audio, returning the complete audio buffer.
	Synthesize(ctx context.Context, req Request) (*AudioResult, error)

	// Voices returns the provider's voice catalog.
	Voices() []voices.Voice

	// DefaultVoice returns the voice used when the request names none.
	DefaultVoice() string

	// ClampSpeed bounds a speed multiplier to the provider's legal range.
	ClampSpeed(speed float64) float64

	// Health checks provider connectivity and API key validity.
	Health(ctx context.Context) error

	// Close releases any resources held by the provider.
	Close() error
}

// Request is a single synthesis request.
type Request struct {
	// Text is the content to synthesize.
	Text string

	// VoiceID selects a voice. Empty means the provider default.
	VoiceID string

	// Speed is the speech rate multiplier. Zero means 1.0.
	// Providers clamp this to their own legal range.
	Speed float64

	// Pitch adjusts voice pitch for providers that support it.
	Pitch float64

	// Volume scales output loudness for providers that support it.
	Volume float64

	// Model overrides the provider's configured model.
	Model string

	// Format overrides the provider's configured output encoding.
	Format Encoding
}

// AudioResult represents a complete audio synthesis result.
type AudioResult struct {
	// Audio contains the raw audio data in the specified format.
	Audio []byte

	// Format describes the audio encoding and sample rate.
	Format AudioFormat

	// Duration is the estimated audio playback duration.
	Duration time.Duration

	// CharCount is the number of characters synthesized.
	CharCount int

	// LatencyMs is the time to first byte in milliseconds.
	LatencyMs int64

	// Voice is the voice that actually produced the audio.
	Voice string
}

// AudioFormat describes the audio encoding parameters.
type AudioFormat struct {
	// Encoding specifies the audio codec (e.g., pcm_24000, mp3_44100_128).
	Encoding Encoding

	// SampleRate in Hz (e.g., 24000, 44100, 22050).
	SampleRate int

	// Channels is 1 for mono, 2 for stereo.
	Channels int

	// BitDepth for PCM formats (e.g., 16 for PCM16).
	BitDepth int
}

// Encoding represents audio encoding types.
type Encoding string

const (
	// PCM formats (raw audio, lowest latency)
	EncodingPCM16 Encoding = "pcm_16000" // 16kHz mono PCM16
	EncodingPCM22 Encoding = "pcm_22050" // 22.05kHz mono PCM16
	EncodingPCM24 Encoding = "pcm_24000" // 24kHz mono PCM16

	// Compressed formats
	EncodingMP3  Encoding = "mp3_44100_128" // MP3 128kbps
	EncodingOpus Encoding = "opus"          // Opus codec
	EncodingWAV  Encoding = "wav"           // WAV container, PCM16
)

// SampleRateFromEncoding extracts the sample rate from an encoding type.
func SampleRateFromEncoding(enc Encoding) int {
	switch enc {
	case EncodingPCM16:
		return 16000
	case EncodingPCM22:
		return 22050
	case EncodingPCM24, EncodingWAV:
		return 24000
	case EncodingMP3:
		return 44100
	default:
		return 24000 // Default to 24kHz
	}
}

// UserLevel is a learner proficiency level. It drives the default speech
// rate: beginners hear slower speech, advanced learners faster.
type UserLevel string

const (
	LevelBeginner     UserLevel = "beginner"
	LevelIntermediate UserLevel = "intermediate"
	LevelAdvanced     UserLevel = "advanced"
)

// RateForLevel maps a learner level to a speech rate multiplier.
// Unknown or empty levels map to 1.0.
func RateForLevel(level UserLevel) float64 {
	switch level {
	case LevelBeginner:
		return 0.8
	case LevelAdvanced:
		return 1.2
	default:
		return 1.0
	}
}

// EffectiveSpeed returns the rate for a request: an explicit speed wins,
// otherwise the level-derived rate applies.
func EffectiveSpeed(explicit float64, level UserLevel) float64 {
	if explicit > 0 {
		return explicit
	}
	return RateForLevel(level)
}

// clampSpeed bounds speed to [min, max], mapping zero to 1.0.
func clampSpeed(speed, min, max float64) float64 {
	if speed == 0 {
		return 1.0
	}
	if speed < min {
		return min
	}
	if speed > max {
		return max
	}
	return speed
}

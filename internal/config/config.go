// Package config provides configuration helpers for speechkit commands.
package config

import (
	"fmt"
	"os"
)

// Default service configuration.
const (
	DefaultPort     = "8090"
	DefaultPrimary  = "openai"
	DefaultLogLevel = "info"
)

// Port returns the HTTP port from SPEECHD_PORT env var or default.
func Port() string {
	if port := os.Getenv("SPEECHD_PORT"); port != "" {
		return port
	}
	return DefaultPort
}

// PrimaryProvider returns the preferred synthesis vendor from
// SPEECHD_PRIMARY env var or default.
func PrimaryProvider() string {
	if p := os.Getenv("SPEECHD_PRIMARY"); p != "" {
		return p
	}
	return DefaultPrimary
}

// LogLevel returns the log level from LOG_LEVEL env var or default.
func LogLevel() string {
	if lvl := os.Getenv("LOG_LEVEL"); lvl != "" {
		return lvl
	}
	return DefaultLogLevel
}

// OpenAIKey returns the OpenAI API key from OPENAI_API_KEY env var.
// Empty if not set.
func OpenAIKey() string {
	return os.Getenv("OPENAI_API_KEY")
}

// GeminiKey returns the Gemini API key from GEMINI_API_KEY env var.
// Empty if not set.
func GeminiKey() string {
	return os.Getenv("GEMINI_API_KEY")
}

// OpenAIKeyRequired returns the OpenAI API key from OPENAI_API_KEY.
// Exits if not set.
func OpenAIKeyRequired() string {
	key := os.Getenv("OPENAI_API_KEY")
	if key == "" {
		fmt.Fprintln(os.Stderr, "Error: OPENAI_API_KEY environment variable is required")
		fmt.Fprintln(os.Stderr, "Usage: OPENAI_API_KEY=sk-... go run ./cmd/...")
		os.Exit(1)
	}
	return key
}

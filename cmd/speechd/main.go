package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/lexivox/speechkit/internal/config"
	"github.com/lexivox/speechkit/internal/log"
	"github.com/lexivox/speechkit/pkg/router"
	"github.com/lexivox/speechkit/pkg/tts"
	"github.com/lexivox/speechkit/pkg/web"
)

// speechd is the synthesis routing service. It fronts the OpenAI and Gemini
// speech APIs behind one HTTP contract and fails over between them.
func main() {
	log.Init(config.LogLevel())

	openaiKey := config.OpenAIKey()
	geminiKey := config.GeminiKey()
	if openaiKey == "" && geminiKey == "" {
		fmt.Fprintln(os.Stderr, "Error: set OPENAI_API_KEY and/or GEMINI_API_KEY")
		os.Exit(1)
	}

	var openai, gemini tts.Provider
	var err error

	if openaiKey != "" {
		openai, err = tts.NewOpenAI(tts.WithAPIKey(openaiKey))
		if err != nil {
			log.Error("openai provider init failed", "error", err)
			os.Exit(1)
		}
	}
	if geminiKey != "" {
		gemini, err = tts.NewGemini(tts.WithAPIKey(geminiKey))
		if err != nil {
			log.Error("gemini provider init failed", "error", err)
			os.Exit(1)
		}
	}

	primary, secondary := openai, gemini
	if config.PrimaryProvider() == "gemini" {
		primary, secondary = gemini, openai
	}
	if primary == nil {
		// Only one key was set; serve from whichever vendor we have.
		primary, secondary = secondary, nil
	}

	rtr, err := router.New(primary, secondary)
	if err != nil {
		log.Error("router init failed", "error", err)
		os.Exit(1)
	}
	defer rtr.Close()

	names := []string{primary.Name()}
	if secondary != nil {
		names = append(names, secondary.Name())
	}
	log.Info("speechd starting",
		"port", config.Port(),
		"providers", names,
		"primary", primary.Name(),
	)

	server := web.NewServer(config.Port(), rtr)
	server.StartAsync()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Info("shutting down")
	if err := server.Shutdown(); err != nil {
		log.Error("shutdown error", "error", err)
	}
}

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/lexivox/speechkit/internal/config"
	"github.com/lexivox/speechkit/internal/log"
	"github.com/lexivox/speechkit/pkg/speech"
	"github.com/lexivox/speechkit/pkg/tts"
	"github.com/lexivox/speechkit/pkg/voices"
)

// speak is a one-shot CLI for exercising the utterance pipeline. It queues
// each argument as its own utterance and waits for the queue to drain.
//
//	speak -level beginner "Hello there." "How are you today?"
//	speak -server http://localhost:8090 -o out.mp3 "Save me to a file."
func main() {
	server := flag.String("server", "", "speechd base URL (default: call OpenAI directly)")
	language := flag.String("lang", "en-US", "BCP-47 language tag")
	voice := flag.String("voice", "", "Voice ID (default: resolved from language)")
	level := flag.String("level", "", "Learner level: beginner, intermediate, advanced")
	rate := flag.Float64("rate", 0, "Explicit rate multiplier (overrides -level)")
	output := flag.String("o", "", "Write audio to file instead of playing")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	if *debug {
		log.Init("debug")
	} else {
		log.Init(config.LogLevel())
	}

	texts := flag.Args()
	if len(texts) == 0 {
		fmt.Fprintln(os.Stderr, "Usage: speak [flags] \"text\" [\"more text\" ...]")
		flag.PrintDefaults()
		os.Exit(1)
	}

	provider, err := buildProvider(*server)
	if err != nil {
		log.Error("provider init failed", "error", err)
		os.Exit(1)
	}
	defer provider.Close()

	if *output != "" {
		if err := synthesizeToFile(provider, texts, *output, *voice, *rate, *level); err != nil {
			log.Error("synthesis failed", "error", err)
			os.Exit(1)
		}
		return
	}

	dir := voices.NewDirectory(voices.StaticSource(provider.Voices()))
	player := speech.NewProviderPlayer(provider, speech.PacedSink())

	orch, err := speech.New(speech.Config{
		Player:          player,
		Directory:       dir,
		DefaultLanguage: *language,
	})
	if err != nil {
		log.Error("orchestrator init failed", "error", err)
		os.Exit(1)
	}
	defer orch.Close()

	opts := &speech.Options{
		Language:  *language,
		VoiceID:   *voice,
		Rate:      *rate,
		UserLevel: tts.UserLevel(*level),
		OnStart: func(id string) {
			log.Info("speaking", "id", id)
		},
		OnError: func(id string, err error) {
			log.Warn("utterance failed", "id", id, "error", err)
		},
	}

	var handles []*speech.Handle
	for _, text := range texts {
		h, err := orch.Speak(text, opts)
		if err != nil {
			log.Error("speak rejected", "error", err)
			os.Exit(1)
		}
		handles = append(handles, h)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	for _, h := range handles {
		if err := h.Wait(ctx); err != nil {
			log.Warn("utterance did not complete", "id", h.ID(), "error", err)
		}
	}
}

// buildProvider returns a remote provider when a server URL is given,
// otherwise a direct OpenAI provider.
func buildProvider(server string) (tts.Provider, error) {
	if server != "" {
		return tts.NewRemote(server)
	}
	return tts.NewOpenAI(tts.WithAPIKey(config.OpenAIKeyRequired()))
}

// synthesizeToFile joins the texts and writes one clip to path.
func synthesizeToFile(provider tts.Provider, texts []string, path, voice string, rate float64, level string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	speed := tts.EffectiveSpeed(rate, tts.UserLevel(level))
	result, err := provider.Synthesize(ctx, tts.Request{
		Text:    strings.Join(texts, " "),
		VoiceID: voice,
		Speed:   provider.ClampSpeed(speed),
	})
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, result.Audio, 0o644); err != nil {
		return err
	}

	log.Info("wrote audio",
		"path", path,
		"bytes", len(result.Audio),
		"encoding", string(result.Format.Encoding),
		"voice", result.Voice,
	)
	return nil
}

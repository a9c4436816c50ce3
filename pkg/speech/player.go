package speech

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/lexivox/speechkit/pkg/tts"
)

// PlayRequest carries one utterance to the playback layer.
type PlayRequest struct {
	Text     string
	Language string
	VoiceID  string
	Speed    float64
	Pitch    float64
	Volume   float64
}

// Player is the device playback abstraction the orchestrator drives.
//
// Speak blocks until the utterance finishes playing or Stop tears it down.
// Backends that cannot pause mid-utterance report CanPause false; the
// orchestrator then degrades pause to a stop that preserves the queue and
// restarts the utterance on resume.
type Player interface {
	// Speak synthesizes and plays the request, blocking until done.
	Speak(ctx context.Context, req PlayRequest) error

	// Pause suspends the current utterance. Only valid when CanPause.
	Pause() error

	// Resume continues a paused utterance. Only valid when CanPause.
	Resume() error

	// Stop tears down the current utterance. Any blocked Speak call
	// returns promptly.
	Stop()

	// CanPause reports whether the backend supports mid-utterance pause.
	CanPause() bool
}

// Sink receives synthesized audio for actual output. Play blocks until the
// clip has been delivered (or ctx is cancelled).
type Sink interface {
	Play(ctx context.Context, audio *tts.AudioResult) error
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(ctx context.Context, audio *tts.AudioResult) error

// Play calls the function.
func (f SinkFunc) Play(ctx context.Context, audio *tts.AudioResult) error {
	return f(ctx, audio)
}

// PausableSink is implemented by sinks that can suspend output mid-clip.
type PausableSink interface {
	Sink
	Pause() error
	Resume() error
}

// PacedSink returns a Sink that simulates playback by waiting out the
// clip's estimated duration. Useful for development without audio hardware.
func PacedSink() Sink {
	return SinkFunc(func(ctx context.Context, audio *tts.AudioResult) error {
		d := audio.Duration
		if d == 0 {
			// Rough pacing for compressed formats with no duration metadata.
			d = time.Duration(audio.CharCount) * 60 * time.Millisecond
		}
		select {
		case <-time.After(d):
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})
}

// ProviderPlayer plays utterances by synthesizing through a tts.Provider and
// handing the clip to a Sink. Pause support follows the sink: a PausableSink
// makes the player pausable, any other sink degrades pause to stop.
type ProviderPlayer struct {
	provider tts.Provider
	sink     Sink
	logger   *slog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
}

// NewProviderPlayer creates a Player backed by the given provider and sink.
func NewProviderPlayer(provider tts.Provider, sink Sink) *ProviderPlayer {
	return &ProviderPlayer{
		provider: provider,
		sink:     sink,
		logger:   slog.Default().With("component", "speech.player"),
	}
}

// Speak synthesizes and plays the request, blocking until done.
func (p *ProviderPlayer) Speak(ctx context.Context, req PlayRequest) error {
	ctx, cancel := context.WithCancel(ctx)
	p.mu.Lock()
	p.cancel = cancel
	p.mu.Unlock()
	defer func() {
		cancel()
		p.mu.Lock()
		p.cancel = nil
		p.mu.Unlock()
	}()

	result, err := p.provider.Synthesize(ctx, tts.Request{
		Text:    req.Text,
		VoiceID: req.VoiceID,
		Speed:   p.provider.ClampSpeed(req.Speed),
		Pitch:   req.Pitch,
		Volume:  req.Volume,
	})
	if err != nil {
		return err
	}

	p.logger.Debug("playing clip",
		"bytes", len(result.Audio),
		"voice", result.Voice,
		"latency_ms", result.LatencyMs,
	)

	return p.sink.Play(ctx, result)
}

// Pause suspends sink output when the sink supports it.
func (p *ProviderPlayer) Pause() error {
	if ps, ok := p.sink.(PausableSink); ok {
		return ps.Pause()
	}
	return nil
}

// Resume continues sink output when the sink supports it.
func (p *ProviderPlayer) Resume() error {
	if ps, ok := p.sink.(PausableSink); ok {
		return ps.Resume()
	}
	return nil
}

// Stop cancels the in-flight Speak, if any.
func (p *ProviderPlayer) Stop() {
	p.mu.Lock()
	cancel := p.cancel
	p.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// CanPause reports whether the sink supports mid-utterance pause.
func (p *ProviderPlayer) CanPause() bool {
	_, ok := p.sink.(PausableSink)
	return ok
}

// Verify ProviderPlayer implements Player at compile time.
var _ Player = (*ProviderPlayer)(nil)

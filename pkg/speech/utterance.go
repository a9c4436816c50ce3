package speech

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/lexivox/speechkit/pkg/tts"
)

// Errors returned through utterance handles.
var (
	// ErrStopped resolves handles whose utterance was discarded by Stop
	// or ClearQueue before completing. Callbacks do not fire for these.
	ErrStopped = errors.New("speech: utterance stopped")

	// ErrClosed is returned by Speak after the orchestrator shuts down.
	ErrClosed = errors.New("speech: orchestrator closed")
)

// Options configures a single Speak call. The zero value is valid: default
// language, provider default voice, rate derived from the user level.
type Options struct {
	// Language is a BCP-47-like tag used for voice resolution.
	// Empty falls back to the orchestrator's default language.
	Language string

	// VoiceID bypasses voice resolution with an explicit voice.
	VoiceID string

	// Rate is an explicit speech rate multiplier. Zero derives the rate
	// from UserLevel instead.
	Rate float64

	// Pitch and Volume pass through to the synthesis provider.
	Pitch  float64
	Volume float64

	// UserLevel drives the default rate (beginner 0.8, advanced 1.2).
	UserLevel tts.UserLevel

	// OnStart fires when the utterance begins playing.
	OnStart func(id string)

	// OnDone fires when the utterance finishes normally.
	OnDone func(id string)

	// OnError fires when synthesis or playback fails. The queue keeps
	// advancing after an error.
	OnError func(id string, err error)
}

// Utterance is one queued speech request. It is owned by the orchestrator
// from Speak until its terminal callback fires.
type Utterance struct {
	ID        string
	Text      string
	Language  string
	VoiceID   string
	Rate      float64
	Pitch     float64
	Volume    float64
	UserLevel tts.UserLevel

	onStart func(id string)
	onDone  func(id string)
	onError func(id string, err error)

	handle  *Handle
	started bool // onStart fired at least once

	// restartPending marks an utterance whose playback was torn down by a
	// degraded pause and must restart from the top on resume.
	restartPending bool
}

func newUtterance(text string, opts *Options, defaultLanguage string) *Utterance {
	if opts == nil {
		opts = &Options{}
	}
	lang := opts.Language
	if lang == "" {
		lang = defaultLanguage
	}

	id := uuid.NewString()
	return &Utterance{
		ID:        id,
		Text:      text,
		Language:  lang,
		VoiceID:   opts.VoiceID,
		Rate:      opts.Rate,
		Pitch:     opts.Pitch,
		Volume:    opts.Volume,
		UserLevel: opts.UserLevel,
		onStart:   opts.OnStart,
		onDone:    opts.OnDone,
		onError:   opts.OnError,
		handle:    &Handle{id: id, done: make(chan struct{})},
	}
}

// fireStart invokes OnStart once, even if playback restarts after a
// degraded pause.
func (u *Utterance) fireStart() {
	if u.started {
		return
	}
	u.started = true
	if u.onStart != nil {
		u.onStart(u.ID)
	}
}

func (u *Utterance) fireDone() {
	if u.onDone != nil {
		u.onDone(u.ID)
	}
	u.handle.resolve(nil)
}

func (u *Utterance) fireError(err error) {
	if u.onError != nil {
		u.onError(u.ID, err)
	}
	u.handle.resolve(err)
}

// discard resolves the handle without firing callbacks. Used by Stop and
// ClearQueue, which silence dropped utterances.
func (u *Utterance) discard() {
	u.handle.resolve(ErrStopped)
}

// Handle lets callers await an utterance's terminal state without racing
// the callback API.
type Handle struct {
	id   string
	once sync.Once
	done chan struct{}
	err  error
}

// ID returns the utterance identifier.
func (h *Handle) ID() string {
	return h.id
}

// Done returns a channel closed when the utterance reaches a terminal state.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Err returns the terminal error: nil on success, ErrStopped if discarded,
// or the synthesis/playback error. Only valid after Done is closed.
func (h *Handle) Err() error {
	select {
	case <-h.done:
		return h.err
	default:
		return nil
	}
}

// Wait blocks until the utterance completes or ctx expires.
func (h *Handle) Wait(ctx context.Context) error {
	select {
	case <-h.done:
		return h.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *Handle) resolve(err error) {
	h.once.Do(func() {
		h.err = err
		close(h.done)
	})
}

// Package speech owns the utterance queue and playback state machine behind
// the tutor's "speak" contract.
//
// Callers submit text through Speak and get back a handle plus optional
// callbacks; utterances play strictly in submission order, one at a time.
// Pause, resume, stop and interruption handling all operate on a single
// tagged state (Idle, Speaking, Paused) so illegal combinations are
// unrepresentable. Construct exactly one Orchestrator per process at the
// composition root and share it by reference.
package speech

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/lexivox/speechkit/pkg/tts"
	"github.com/lexivox/speechkit/pkg/voices"
)

// State is the orchestrator's playback state.
type State int

const (
	StateIdle State = iota
	StateSpeaking
	StatePaused
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateSpeaking:
		return "speaking"
	case StatePaused:
		return "paused"
	default:
		return "idle"
	}
}

// pauseReason distinguishes user pauses from interruption pauses, so a user
// who paused manually is not auto-resumed when an interruption clears.
type pauseReason int

const (
	pauseNone pauseReason = iota
	pauseUser
	pauseInterruption
)

// QueueStatus reports the queue length and whether playback is in progress.
type QueueStatus struct {
	QueueLength  int  `json:"queueLength"`
	IsProcessing bool `json:"isProcessing"`
}

// Config configures an Orchestrator.
type Config struct {
	// Player performs actual synthesis and playback. Required.
	Player Player

	// Directory resolves languages to voices. Optional; without it every
	// utterance uses the provider's default voice.
	Directory *voices.Directory

	// DefaultLanguage applies when a Speak call names no language.
	// Defaults to "en-US".
	DefaultLanguage string

	// Logger is the structured logger. Defaults to slog.Default().
	Logger *slog.Logger
}

// Orchestrator owns the utterance queue and the playback state machine.
// All methods are safe for concurrent use.
type Orchestrator struct {
	player      Player
	directory   *voices.Directory
	logger      *slog.Logger
	defaultLang string

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	state    State
	queue    []*Utterance
	active   *Utterance
	pausedBy pauseReason
	closed   bool

	// gen invalidates in-flight playback. Stop bumps it so a torn-down
	// utterance cannot start playing, fire callbacks, or advance the queue.
	gen uint64

	// playCtx is cancelled whenever gen is bumped, killing playback that
	// already left the lock.
	playCtx    context.Context
	playCancel context.CancelFunc
}

// New creates an Orchestrator. The player is required.
func New(cfg Config) (*Orchestrator, error) {
	if cfg.Player == nil {
		return nil, errors.New("speech: player required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	lang := cfg.DefaultLanguage
	if lang == "" {
		lang = "en-US"
	}

	ctx, cancel := context.WithCancel(context.Background())
	playCtx, playCancel := context.WithCancel(ctx)
	return &Orchestrator{
		player:      cfg.Player,
		directory:   cfg.Directory,
		logger:      logger.With("component", "speech.orchestrator"),
		defaultLang: lang,
		ctx:         ctx,
		cancel:      cancel,
		playCtx:     playCtx,
		playCancel:  playCancel,
	}, nil
}

// Speak accepts an utterance and returns immediately. If nothing is playing
// the utterance starts now; otherwise it queues behind earlier submissions.
// Use the returned handle to await completion deterministically.
func (o *Orchestrator) Speak(text string, opts *Options) (*Handle, error) {
	u := newUtterance(text, opts, o.defaultLang)

	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return nil, ErrClosed
	}
	o.queue = append(o.queue, u)
	o.logger.Debug("utterance queued",
		"id", u.ID,
		"chars", len(u.Text),
		"language", u.Language,
		"queue_length", len(o.queue),
	)
	if o.state == StateIdle {
		o.startNextLocked()
	}
	o.mu.Unlock()

	return u.handle, nil
}

// Pause suspends the current utterance. When the playback backend cannot
// pause mid-utterance, the current utterance is torn down instead and will
// restart from the beginning on Resume; the rest of the queue is preserved.
// Calling Pause while already paused or idle is a no-op.
func (o *Orchestrator) Pause() {
	o.pauseAs(pauseUser)
}

// Resume continues playback after Pause. Calling Resume while already
// speaking or idle is a no-op.
func (o *Orchestrator) Resume() {
	o.mu.Lock()
	o.resumeLocked()
	o.mu.Unlock()
}

// Stop halts playback immediately and clears the entire queue. Dropped
// utterances fire no callbacks; their handles resolve with ErrStopped.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	o.bumpGenLocked()
	pending := o.queue
	o.queue = nil
	active := o.active
	o.active = nil
	o.state = StateIdle
	o.pausedBy = pauseNone
	o.mu.Unlock()

	o.player.Stop()

	if active != nil {
		active.discard()
	}
	for _, u := range pending {
		u.discard()
	}

	o.logger.Debug("stopped", "dropped", len(pending))
}

// ClearQueue removes all pending utterances without touching the active one.
func (o *Orchestrator) ClearQueue() {
	o.mu.Lock()
	pending := o.queue
	o.queue = nil
	o.mu.Unlock()

	for _, u := range pending {
		u.discard()
	}

	o.logger.Debug("queue cleared", "dropped", len(pending))
}

// QueueStatus returns the pending count and whether playback is in progress.
func (o *Orchestrator) QueueStatus() QueueStatus {
	o.mu.Lock()
	defer o.mu.Unlock()
	return QueueStatus{
		QueueLength:  len(o.queue),
		IsProcessing: o.state != StateIdle,
	}
}

// IsSpeaking reports whether an utterance is actively playing.
func (o *Orchestrator) IsSpeaking() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state == StateSpeaking
}

// IsPaused reports whether playback is paused.
func (o *Orchestrator) IsPaused() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state == StatePaused
}

// State returns the current playback state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Close stops playback, discards the queue, and rejects further Speak calls.
// Call exactly once at shutdown.
func (o *Orchestrator) Close() {
	o.mu.Lock()
	o.closed = true
	o.mu.Unlock()

	o.Stop()
	o.cancel()
}

// handleInterruption pauses for an external interruption (backgrounding,
// incoming call). A pause the user initiated is left untouched so it is not
// cleared when the interruption ends.
func (o *Orchestrator) handleInterruption() {
	o.pauseAs(pauseInterruption)
}

// resumeAfterInterruption resumes only if the pause was interruption
// initiated.
func (o *Orchestrator) resumeAfterInterruption() {
	o.mu.Lock()
	if o.state == StatePaused && o.pausedBy == pauseInterruption {
		o.resumeLocked()
	}
	o.mu.Unlock()
}

func (o *Orchestrator) pauseAs(reason pauseReason) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.state != StateSpeaking {
		return
	}

	o.state = StatePaused
	o.pausedBy = reason

	if o.active != nil {
		if o.player.CanPause() {
			if err := o.player.Pause(); err != nil {
				o.logger.Warn("pause failed", "error", err)
			}
		} else {
			// Backend cannot pause mid-utterance: tear the clip down and
			// replay it from the top on resume. The queue stays intact.
			// Bumping gen invalidates the torn-down playback's completion,
			// which may land after Resume has already restarted playback.
			o.active.restartPending = true
			o.bumpGenLocked()
			o.player.Stop()
		}
	}

	o.logger.Debug("paused", "reason", reason)
}

// resumeLocked must be called with the mutex held.
func (o *Orchestrator) resumeLocked() {
	if o.state != StatePaused {
		return
	}

	o.state = StateSpeaking
	o.pausedBy = pauseNone

	switch {
	case o.active == nil:
		// Paused exactly between utterances; pick up the queue.
		o.startNextLocked()
	case o.active.restartPending:
		o.active.restartPending = false
		go o.run(o.active, o.gen)
	default:
		if err := o.player.Resume(); err != nil {
			o.logger.Warn("resume failed", "error", err)
		}
	}

	o.logger.Debug("resumed")
}

// startNextLocked dequeues and starts the next utterance, or goes idle.
// Must be called with the mutex held.
func (o *Orchestrator) startNextLocked() {
	if len(o.queue) == 0 {
		o.state = StateIdle
		o.active = nil
		return
	}

	u := o.queue[0]
	o.queue = o.queue[1:]
	o.active = u
	o.state = StateSpeaking
	go o.run(u, o.gen)
}

// bumpGenLocked invalidates all in-flight playback: goroutines holding the
// old gen become no-ops and the old play context is cancelled. Must be
// called with the mutex held.
func (o *Orchestrator) bumpGenLocked() {
	o.gen++
	o.playCancel()
	o.playCtx, o.playCancel = context.WithCancel(o.ctx)
}

// current reports whether the utterance is still the one playback should
// serve, and returns the play context for its generation.
func (o *Orchestrator) current(u *Utterance, gen uint64) (context.Context, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if gen != o.gen || o.active != u || o.closed {
		return nil, false
	}
	return o.playCtx, true
}

// run plays one utterance and reports back. It runs outside the lock, so it
// re-checks the generation before every side effect: a Stop that landed
// between spawn and here must leave no trace, not even an OnStart.
func (o *Orchestrator) run(u *Utterance, gen uint64) {
	ctx, ok := o.current(u, gen)
	if !ok {
		return
	}

	// Whitespace-only text completes immediately with no audio.
	if strings.TrimSpace(u.Text) == "" {
		u.fireStart()
		o.complete(u, gen, nil)
		return
	}

	voiceID := u.VoiceID
	if voiceID == "" && o.directory != nil {
		v, err := o.directory.Resolve(ctx, u.Language)
		switch {
		case err != nil:
			// Resolution failure is recoverable: the provider's own
			// default voice speaks instead.
			o.logger.Warn("voice resolution failed",
				"language", u.Language,
				"error", err,
			)
		case v != nil:
			voiceID = v.Identifier
		}
	}

	// Voice resolution may have blocked; the utterance could be gone.
	if _, ok := o.current(u, gen); !ok {
		return
	}

	u.fireStart()

	err := o.player.Speak(ctx, PlayRequest{
		Text:     u.Text,
		Language: u.Language,
		VoiceID:  voiceID,
		Speed:    tts.EffectiveSpeed(u.Rate, u.UserLevel),
		Pitch:    u.Pitch,
		Volume:   u.Volume,
	})

	o.complete(u, gen, err)
}

// complete handles an utterance's terminal transition and advances the
// queue. A failed utterance never stalls the queue: the error is surfaced
// through OnError and the next utterance starts as after a normal finish.
func (o *Orchestrator) complete(u *Utterance, gen uint64, err error) {
	o.mu.Lock()
	if gen != o.gen || o.active != u {
		// Stale completion: either Stop discarded the utterance, or a
		// degraded pause tore the playback down and will restart it.
		o.mu.Unlock()
		return
	}

	o.active = nil
	paused := o.state == StatePaused
	o.mu.Unlock()

	if err != nil {
		o.logger.Warn("utterance failed",
			"id", u.ID,
			"error", err,
		)
		u.fireError(err)
	} else {
		u.fireDone()
	}

	if paused {
		// Stay paused; Resume advances the queue.
		return
	}

	o.mu.Lock()
	if o.state == StateSpeaking && o.active == nil && !o.closed {
		o.startNextLocked()
	}
	o.mu.Unlock()
}

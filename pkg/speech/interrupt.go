package speech

import (
	"context"
	"log/slog"
)

// Signal is an external lifecycle or audio-route event that affects
// playback. All sources share one pause-on-interrupt / resume-on-clear
// vocabulary.
type Signal int

const (
	// AppBackgrounded fires when the application leaves the foreground.
	AppBackgrounded Signal = iota

	// AppForegrounded fires when the application returns to the foreground.
	AppForegrounded

	// InterruptionBegan fires for system interruptions such as an incoming
	// call or an audio-route change.
	InterruptionBegan

	// InterruptionEnded fires when the system interruption clears.
	InterruptionEnded
)

// String returns the signal name.
func (s Signal) String() string {
	switch s {
	case AppBackgrounded:
		return "app_backgrounded"
	case AppForegrounded:
		return "app_foregrounded"
	case InterruptionBegan:
		return "interruption_began"
	case InterruptionEnded:
		return "interruption_ended"
	default:
		return "unknown"
	}
}

// Monitor feeds lifecycle and audio-route signals to the orchestrator.
//
// Backgrounding and system interruptions pause playback; the matching clear
// signal resumes it only if the pause was interruption-initiated, so a user
// who paused manually before backgrounding is not auto-resumed.
type Monitor struct {
	orch    *Orchestrator
	signals <-chan Signal
	logger  *slog.Logger
}

// NewMonitor creates a Monitor consuming the given signal channel.
func NewMonitor(orch *Orchestrator, signals <-chan Signal) *Monitor {
	return &Monitor{
		orch:    orch,
		signals: signals,
		logger:  slog.Default().With("component", "speech.monitor"),
	}
}

// Run consumes signals until ctx is cancelled or the channel closes.
// Call in a goroutine.
func (m *Monitor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case sig, ok := <-m.signals:
			if !ok {
				return
			}
			m.Handle(sig)
		}
	}
}

// Handle applies one signal to the orchestrator.
func (m *Monitor) Handle(sig Signal) {
	m.logger.Debug("signal", "signal", sig.String())

	switch sig {
	case AppBackgrounded, InterruptionBegan:
		m.orch.handleInterruption()
	case AppForegrounded, InterruptionEnded:
		m.orch.resumeAfterInterruption()
	}
}

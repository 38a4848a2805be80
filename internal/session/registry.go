package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/uz777/discordbot-yomiage/internal/observe"
	"github.com/uz777/discordbot-yomiage/pkg/audio"
)

var (
	// ErrNothingToDo is returned by [Registry.Join] when the bot is already
	// in the requested voice channel and bound to the requested text channel.
	ErrNothingToDo = errors.New("session: already connected to that channel")

	// ErrNotConnected is returned by [Registry.Leave] and [Registry.Info]
	// helpers when the guild has no active voice session.
	ErrNotConnected = errors.New("session: not connected to a voice channel")
)

// Config holds all dependencies for a [Registry].
type Config struct {
	Platform    audio.Platform
	Synthesizer Synthesizer
	Notifier    Notifier
	Metrics     *observe.Metrics

	// WorkDir is where per-guild synthesis artifacts are written.
	// Defaults to the OS temp directory.
	WorkDir string
}

// Registry is the process-wide mapping from guild ID to [Session]. It owns
// session lifecycle: at most one session exists per guild at any time, and
// only the registry creates or destroys them. All exported methods are safe
// for concurrent use.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
	joining  map[string]bool

	platform audio.Platform
	synth    Synthesizer
	notifier Notifier
	metrics  *observe.Metrics
	workDir  string
}

// NewRegistry creates a Registry with the given dependencies.
func NewRegistry(cfg Config) *Registry {
	workDir := cfg.WorkDir
	if workDir == "" {
		workDir = os.TempDir()
	}
	return &Registry{
		sessions: make(map[string]*Session),
		joining:  make(map[string]bool),
		platform: cfg.Platform,
		synth:    cfg.Synthesizer,
		notifier: cfg.Notifier,
		metrics:  cfg.Metrics,
		workDir:  workDir,
	}
}

// Join establishes (or adjusts) the voice session for guildID. Three cases:
//
//   - no session: connect to voiceChannelID, create a session bound to both
//     channels, and start its coordinator;
//   - session already in voiceChannelID: if textChannelID is also unchanged,
//     return [ErrNothingToDo]; otherwise rebind only the text channel —
//     coordinator and queue are untouched;
//   - session in a different voice channel: tear it down (queued requests
//     are discarded) and connect fresh.
//
// ctx governs the voice-connection attempt only.
func (r *Registry) Join(ctx context.Context, guildID, voiceChannelID, textChannelID string) (Info, error) {
	r.mu.Lock()

	if existing, ok := r.sessions[guildID]; ok {
		if existing.VoiceChannelID() == voiceChannelID {
			if existing.TextChannelID() == textChannelID {
				info := existing.Info()
				r.mu.Unlock()
				return info, ErrNothingToDo
			}
			slog.Info("session: rebinding text channel",
				"guild_id", guildID,
				"text_channel_id", textChannelID,
			)
			existing.rebindText(textChannelID)
			info := existing.Info()
			r.mu.Unlock()
			return info, nil
		}

		slog.Info("session: moving voice channel, discarding queue",
			"guild_id", guildID,
			"from", existing.VoiceChannelID(),
			"to", voiceChannelID,
		)
		r.removeLocked(guildID, existing)
	}

	if r.joining[guildID] {
		// A concurrent join for this guild is mid-handshake; treat the
		// repeat as a no-op rather than racing it for the slot.
		r.mu.Unlock()
		return Info{}, ErrNothingToDo
	}
	r.joining[guildID] = true
	r.mu.Unlock()

	// The voice handshake can take seconds. It must not run under the
	// registry lock, or every other guild's Enqueue, Info, and Leave would
	// stall behind one slow gateway; the joining marker above reserves the
	// guild slot while the lock is released.
	conn, err := r.platform.Connect(ctx, guildID, voiceChannelID)

	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.joining, guildID)
	if err != nil {
		return Info{}, fmt.Errorf("session: connect voice channel %q: %w", voiceChannelID, err)
	}

	sess := newSession(sessionConfig{
		guildID:       guildID,
		textChannelID: textChannelID,
		conn:          conn,
		synth:         r.synth,
		notifier:      r.notifier,
		metrics:       r.metrics,
		workDir:       r.workDir,
	})
	r.sessions[guildID] = sess

	if r.metrics != nil {
		r.metrics.ActiveSessions.Add(ctx, 1, metric.WithAttributes(attribute.String("guild_id", guildID)))
	}
	slog.Info("session started",
		"guild_id", guildID,
		"voice_channel_id", voiceChannelID,
		"text_channel_id", textChannelID,
	)
	return sess.Info(), nil
}

// Leave disconnects guildID's voice session, cancels its coordinator, and
// discards any queued requests. Returns [ErrNotConnected] when no session
// exists.
func (r *Registry) Leave(guildID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	sess, ok := r.sessions[guildID]
	if !ok {
		return ErrNotConnected
	}
	r.removeLocked(guildID, sess)
	slog.Info("session stopped", "guild_id", guildID)
	return nil
}

// Enqueue hands req to guildID's coordinator. It never blocks. Returns false
// (request dropped) when the guild has no active session.
func (r *Registry) Enqueue(guildID string, req Request) bool {
	r.mu.Lock()
	sess, ok := r.sessions[guildID]
	r.mu.Unlock()
	if !ok {
		return false
	}

	sess.Enqueue(req)
	if r.metrics != nil {
		r.metrics.SpeechRequests.Add(context.Background(), 1,
			metric.WithAttributes(attribute.String("guild_id", guildID)))
	}
	return true
}

// Info returns a diagnostic snapshot of guildID's session.
func (r *Registry) Info(guildID string) (Info, bool) {
	r.mu.Lock()
	sess, ok := r.sessions[guildID]
	r.mu.Unlock()
	if !ok {
		return Info{}, false
	}
	return sess.Info(), true
}

// Len returns the number of active sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Close tears down every active session. Called during shutdown.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for guildID, sess := range r.sessions {
		r.removeLocked(guildID, sess)
	}
}

// removeLocked destroys a session: cancel coordinator, stop playback,
// disconnect, wait for the coordinator to exit. Caller holds r.mu.
func (r *Registry) removeLocked(guildID string, sess *Session) {
	delete(r.sessions, guildID)
	sess.close()
	if r.metrics != nil {
		r.metrics.ActiveSessions.Add(context.Background(), -1,
			metric.WithAttributes(attribute.String("guild_id", guildID)))
	}
}

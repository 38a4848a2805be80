// Package session implements the per-guild playback coordinator and its
// registry — the concurrency core of yomiage.
//
// Each active voice connection owns one [Session]: a long-lived goroutine
// that drains an unbounded FIFO queue of speech requests, serializing
// synthesize → play → wait-for-completion so overlapping messages never
// produce overlapping or out-of-order audio. Errors during synthesis or
// playback are contained within the loop iteration; a bad request never
// kills the coordinator. The [Registry] owns session lifecycle: it is the
// only code that creates and destroys sessions, and coordinators only ever
// touch their own transient state.
package session

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/uz777/discordbot-yomiage/internal/observe"
	"github.com/uz777/discordbot-yomiage/pkg/audio"
)

// Request is one unit of speech work: sanitized text plus the voice profile
// resolved at enqueue time. Later settings changes do not retroactively
// affect already-queued requests.
type Request struct {
	Text  string
	Voice string
}

// Synthesizer renders text with a voice profile into a WAV file.
// *speech.Synthesizer satisfies this; tests substitute fakes.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, voiceType, outPath string) error
}

// SynthesizerFunc adapts a function to the [Synthesizer] interface.
type SynthesizerFunc func(ctx context.Context, text, voiceType, outPath string) error

// Synthesize implements [Synthesizer].
func (f SynthesizerFunc) Synthesize(ctx context.Context, text, voiceType, outPath string) error {
	return f(ctx, text, voiceType, outPath)
}

// Notifier posts coordinator error reports to a text channel. Implementations
// must not block for long; they are called from the coordinator goroutine.
type Notifier interface {
	Notify(channelID, message string)
}

// State describes what the coordinator is currently doing. Exposed through
// [Info] for the status command.
type State int

const (
	StateIdle State = iota
	StateSynthesizing
	StatePlaying
	StateStopped
)

// String returns the human-readable state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSynthesizing:
		return "synthesizing"
	case StatePlaying:
		return "playing"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Info is a diagnostic snapshot of a session.
type Info struct {
	GuildID        string
	TextChannelID  string
	VoiceChannelID string
	QueueDepth     int
	State          State
}

// Session binds one guild to one voice connection, one bound text channel,
// and one coordinator goroutine. Create via [Registry.Join]; destroy via
// [Registry.Leave].
type Session struct {
	guildID  string
	conn     audio.Connection
	synth    Synthesizer
	notifier Notifier
	metrics  *observe.Metrics
	outPath  string

	mu            sync.Mutex
	textChannelID string
	queue         []Request
	state         State

	// notify has capacity 1 so an enqueue between the coordinator's queue
	// check and its wait can never lose the wakeup.
	notify chan struct{}
	cancel context.CancelFunc
	done   chan struct{}
}

type sessionConfig struct {
	guildID       string
	textChannelID string
	conn          audio.Connection
	synth         Synthesizer
	notifier      Notifier
	metrics       *observe.Metrics
	workDir       string
}

// newSession creates the session and starts its coordinator goroutine. The
// coordinator's context is independent of the join request's context; it
// lives until cancel.
func newSession(cfg sessionConfig) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		guildID:       cfg.guildID,
		conn:          cfg.conn,
		synth:         cfg.synth,
		notifier:      cfg.notifier,
		metrics:       cfg.metrics,
		outPath:       filepath.Join(cfg.workDir, cfg.guildID+".wav"),
		textChannelID: cfg.textChannelID,
		notify:        make(chan struct{}, 1),
		cancel:        cancel,
		done:          make(chan struct{}),
	}
	go s.run(ctx)
	return s
}

// Enqueue appends req to the FIFO queue and wakes the coordinator. It never
// blocks; the queue is unbounded.
func (s *Session) Enqueue(req Request) {
	s.mu.Lock()
	s.queue = append(s.queue, req)
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.QueueDepth.Add(context.Background(), 1)
	}

	select {
	case s.notify <- struct{}{}:
	default:
	}
}

// Info returns a diagnostic snapshot.
func (s *Session) Info() Info {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Info{
		GuildID:        s.guildID,
		TextChannelID:  s.textChannelID,
		VoiceChannelID: s.conn.ChannelID(),
		QueueDepth:     len(s.queue),
		State:          s.state,
	}
}

// TextChannelID returns the currently bound text channel.
func (s *Session) TextChannelID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.textChannelID
}

// VoiceChannelID returns the voice channel the connection occupies.
func (s *Session) VoiceChannelID() string {
	return s.conn.ChannelID()
}

// rebindText points the session at a new text channel. The coordinator and
// queue are untouched, so playback continuity is preserved.
func (s *Session) rebindText(channelID string) {
	s.mu.Lock()
	s.textChannelID = channelID
	s.mu.Unlock()
}

// close cancels the coordinator, stops playback, disconnects, and waits for
// the coordinator goroutine to exit. Queued requests are discarded.
func (s *Session) close() {
	s.cancel()
	s.conn.Stop()
	if err := s.conn.Disconnect(); err != nil {
		slog.Warn("session: voice disconnect error", "guild_id", s.guildID, "err", err)
	}
	<-s.done

	if s.metrics != nil {
		s.mu.Lock()
		discarded := len(s.queue)
		s.mu.Unlock()
		if discarded > 0 {
			s.metrics.QueueDepth.Add(context.Background(), -int64(discarded))
		}
	}
}

// run is the coordinator loop: Idle → Synthesizing → Playing → Idle until
// the session context is cancelled.
func (s *Session) run(ctx context.Context) {
	defer close(s.done)
	defer s.setState(StateStopped)

	for {
		req, ok := s.next(ctx)
		if !ok {
			return
		}
		s.process(ctx, req)
	}
}

// next blocks until a request is available or ctx is cancelled.
func (s *Session) next(ctx context.Context) (Request, bool) {
	for {
		s.mu.Lock()
		if len(s.queue) > 0 {
			req := s.queue[0]
			s.queue = s.queue[1:]
			s.mu.Unlock()
			if s.metrics != nil {
				s.metrics.QueueDepth.Add(ctx, -1)
			}
			return req, true
		}
		s.mu.Unlock()

		select {
		case <-ctx.Done():
			return Request{}, false
		case <-s.notify:
		}
	}
}

// process handles one request end to end. Every failure is contained here:
// it is logged, counted, reported to the bound text channel, and the method
// returns so the loop can serve the next request.
func (s *Session) process(ctx context.Context, req Request) {
	s.setState(StateSynthesizing)
	defer s.setState(StateIdle)

	start := time.Now()
	err := s.synth.Synthesize(ctx, req.Text, req.Voice, s.outPath)
	if s.metrics != nil {
		s.metrics.SynthesisDuration.Record(ctx, time.Since(start).Seconds(),
			metric.WithAttributes(attribute.String("guild_id", s.guildID)))
	}
	if err != nil {
		if ctx.Err() != nil {
			return // teardown, not a synthesis failure
		}
		slog.Error("session: synthesis failed", "guild_id", s.guildID, "err", err)
		s.countError(ctx, s.metricSynthesis())
		s.report("Could not synthesize that message, skipping it.")
		return
	}

	track, err := audio.DecodeWAVFile(s.outPath)
	if err != nil {
		slog.Error("session: unusable synthesis artifact", "guild_id", s.guildID, "err", err)
		s.countError(ctx, s.metricSynthesis())
		s.report("Could not synthesize that message, skipping it.")
		return
	}

	done, err := s.conn.Play(track)
	if err != nil {
		// Play registration failed before the completion channel could ever
		// fire; do not wait for a signal that will never arrive.
		slog.Error("session: playback registration failed", "guild_id", s.guildID, "err", err)
		s.countError(ctx, s.metricPlayback())
		s.report("Could not play that message, skipping it.")
		return
	}

	s.setState(StatePlaying)
	select {
	case playErr := <-done:
		if playErr != nil {
			slog.Error("session: playback failed", "guild_id", s.guildID, "err", playErr)
			s.countError(ctx, s.metricPlayback())
			s.report("Playback was interrupted.")
		}
	case <-ctx.Done():
		s.conn.Stop()
	}
}

func (s *Session) setState(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

// report posts msg to the bound text channel, if one is known.
func (s *Session) report(msg string) {
	if s.notifier == nil {
		return
	}
	s.mu.Lock()
	ch := s.textChannelID
	s.mu.Unlock()
	if ch != "" {
		s.notifier.Notify(ch, msg)
	}
}

func (s *Session) metricSynthesis() metric.Int64Counter {
	if s.metrics == nil {
		return nil
	}
	return s.metrics.SynthesisErrors
}

func (s *Session) metricPlayback() metric.Int64Counter {
	if s.metrics == nil {
		return nil
	}
	return s.metrics.PlaybackErrors
}

func (s *Session) countError(ctx context.Context, counter metric.Int64Counter) {
	if counter != nil {
		counter.Add(ctx, 1, metric.WithAttributes(attribute.String("guild_id", s.guildID)))
	}
}

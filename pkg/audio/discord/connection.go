package discord

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/uz777/discordbot-yomiage/pkg/audio"
)

// Compile-time interface assertion.
var _ audio.Connection = (*Connection)(nil)

// sendTimeout bounds a single OpusSend write. A healthy voice connection
// drains frames in real time; a blocked send means the transport is gone.
const sendTimeout = 5 * time.Second

// Connection wraps a discordgo.VoiceConnection and adapts it to the
// [audio.Connection] interface. It encodes one PCM track at a time to Opus
// and streams it in 20 ms frames, signalling completion through the channel
// returned by [Connection.Play].
//
// Connection is safe for concurrent use.
type Connection struct {
	vc        *discordgo.VoiceConnection
	channelID string

	mu      sync.Mutex
	enc     *opusEncoder
	current chan struct{} // stop signal for the active track; nil when idle

	done      chan struct{}
	closeOnce sync.Once
}

// newConnection initialises a Connection for an already-joined voice channel.
func newConnection(vc *discordgo.VoiceConnection, channelID string) *Connection {
	return &Connection{
		vc:        vc,
		channelID: channelID,
		done:      make(chan struct{}),
	}
}

// ChannelID returns the voice channel this connection occupies.
func (c *Connection) ChannelID() string {
	return c.channelID
}

// Play converts track to Discord's 48 kHz stereo format and starts streaming
// it on a background goroutine. See [audio.Connection.Play] for the
// completion-channel contract.
func (c *Connection) Play(track audio.Track) (<-chan error, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	select {
	case <-c.done:
		return nil, fmt.Errorf("discord: play: connection closed")
	default:
	}
	if c.current != nil {
		return nil, fmt.Errorf("discord: play: a track is already playing")
	}

	if c.enc == nil {
		enc, err := newOpusEncoder()
		if err != nil {
			return nil, err
		}
		c.enc = enc
	}

	conv := audio.FormatConverter{Target: audio.Format{SampleRate: opusSampleRate, Channels: opusChannels}}
	converted := conv.Convert(track)
	if len(converted.Data) == 0 {
		return nil, fmt.Errorf("discord: play: track has no PCM data")
	}

	stop := make(chan struct{})
	complete := make(chan error, 1)
	c.current = stop

	go c.stream(c.enc, chunkFrames(converted.Data), stop, complete)

	return complete, nil
}

// Stop aborts the current track, if any. The track's completion channel
// receives nil.
func (c *Connection) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current != nil {
		close(c.current)
		c.current = nil
	}
}

// Disconnect stops playback and tears down the voice connection. Safe to
// call more than once.
func (c *Connection) Disconnect() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		c.Stop()
		err = c.vc.Disconnect()
	})
	return err
}

// stream encodes and sends the prepared frames, then delivers exactly one
// completion value. The encoder is only ever touched from here while the
// track is active; Play will not hand it to another goroutine until
// clearCurrent runs.
func (c *Connection) stream(enc *opusEncoder, frames [][]byte, stop chan struct{}, complete chan<- error) {
	c.setSpeaking(true)
	result := c.sendFrames(enc, frames, stop)
	c.setSpeaking(false)
	c.clearCurrent(stop)

	// The slot must be free before the completion value is delivered, so a
	// caller woken by it can start the next track immediately.
	complete <- result
}

// sendFrames encodes and writes frames to the voice transport until it runs
// out of frames, is stopped, or a single send stalls past sendTimeout.
func (c *Connection) sendFrames(enc *opusEncoder, frames [][]byte, stop chan struct{}) error {
	timer := time.NewTimer(sendTimeout)
	defer timer.Stop()

	for _, frame := range frames {
		pkt, err := enc.encode(frame)
		if err != nil {
			return err
		}

		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(sendTimeout)

		select {
		case c.vc.OpusSend <- pkt:
		case <-stop:
			return nil
		case <-c.done:
			return nil
		case <-timer.C:
			return fmt.Errorf("discord: voice send stalled for %s", sendTimeout)
		}
	}

	return nil
}

// clearCurrent resets the active-track slot, but only if it still belongs to
// this track (Stop may have already cleared it).
func (c *Connection) clearCurrent(stop chan struct{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == stop {
		c.current = nil
	}
}

// setSpeaking sends a speaking notification to Discord, logging any errors.
func (c *Connection) setSpeaking(b bool) {
	if err := c.vc.Speaking(b); err != nil {
		slog.Warn("discord: speaking notification error", "speaking", b, "error", err)
	}
}

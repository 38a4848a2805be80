// Package mock provides in-memory mock implementations of the
// [audio.Platform] and [audio.Connection] interfaces for use in unit tests.
//
// All mocks are safe for concurrent use. They record every method call so
// that tests can assert on call counts and arguments, and they expose
// exported fields that the test can set to control return values.
//
// Typical usage:
//
//	conn := &mock.Connection{AutoComplete: true}
//	platform := &mock.Platform{ConnectResult: conn}
//	got, err := platform.Connect(ctx, "guild-1", "channel-42")
package mock

import (
	"context"
	"sync"

	"github.com/uz777/discordbot-yomiage/pkg/audio"
)

// ─── Connection ───────────────────────────────────────────────────────────────

// Connection is a mock implementation of [audio.Connection].
// Set the exported Result fields before use; inspect the Call* fields after.
type Connection struct {
	mu sync.Mutex

	// ChannelIDResult is returned by [Connection.ChannelID].
	ChannelIDResult string

	// PlayError is returned by [Connection.Play]. When non-nil, no completion
	// channel is created.
	PlayError error

	// AutoComplete, when true, makes every Play completion channel receive
	// nil immediately. When false, tests complete playback manually via
	// [Connection.CompleteCurrent] or by sending on the recorded channels.
	AutoComplete bool

	// DisconnectError is returned by [Connection.Disconnect].
	DisconnectError error

	// PlayCalls records the tracks passed to Play, in order.
	PlayCalls []audio.Track

	// PlayChans holds the completion channels created by Play, in order.
	PlayChans []chan error

	// CallCountStop records how many times Stop was called.
	CallCountStop int

	// CallCountDisconnect records how many times Disconnect was called.
	CallCountDisconnect int
}

// Play implements [audio.Connection].
func (c *Connection) Play(track audio.Track) (<-chan error, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.PlayCalls = append(c.PlayCalls, track)
	if c.PlayError != nil {
		return nil, c.PlayError
	}
	ch := make(chan error, 1)
	c.PlayChans = append(c.PlayChans, ch)
	if c.AutoComplete {
		ch <- nil
	}
	return ch, nil
}

// Stop implements [audio.Connection]. It completes the most recent
// uncompleted play with nil, mirroring the real adapter's behaviour.
func (c *Connection) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.CallCountStop++
	if n := len(c.PlayChans); n > 0 && !c.AutoComplete {
		select {
		case c.PlayChans[n-1] <- nil:
		default:
		}
	}
}

// ChannelID implements [audio.Connection].
func (c *Connection) ChannelID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ChannelIDResult
}

// Disconnect implements [audio.Connection].
func (c *Connection) Disconnect() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.CallCountDisconnect++
	return c.DisconnectError
}

// CompleteCurrent delivers result on the completion channel of play number
// idx (0-based). It reports whether the send succeeded.
func (c *Connection) CompleteCurrent(idx int, result error) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if idx < 0 || idx >= len(c.PlayChans) {
		return false
	}
	select {
	case c.PlayChans[idx] <- result:
		return true
	default:
		return false
	}
}

// Plays returns a snapshot of the tracks played so far.
func (c *Connection) Plays() []audio.Track {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]audio.Track, len(c.PlayCalls))
	copy(out, c.PlayCalls)
	return out
}

// ─── Platform ─────────────────────────────────────────────────────────────────

// ConnectCall records the arguments of one [Platform.Connect] invocation.
type ConnectCall struct {
	GuildID   string
	ChannelID string
}

// Platform is a mock implementation of [audio.Platform].
type Platform struct {
	mu sync.Mutex

	// ConnectResult is returned by [Platform.Connect] when ConnectFunc is nil.
	ConnectResult audio.Connection

	// ConnectError is returned by [Platform.Connect] when non-nil.
	ConnectError error

	// ConnectFunc, when set, overrides the canned results. Useful when a test
	// needs a fresh Connection per call.
	ConnectFunc func(ctx context.Context, guildID, channelID string) (audio.Connection, error)

	// ConnectCalls records every Connect invocation, in order.
	ConnectCalls []ConnectCall
}

// Connect implements [audio.Platform].
func (p *Platform) Connect(ctx context.Context, guildID, channelID string) (audio.Connection, error) {
	p.mu.Lock()
	p.ConnectCalls = append(p.ConnectCalls, ConnectCall{GuildID: guildID, ChannelID: channelID})
	fn := p.ConnectFunc
	res, errResult := p.ConnectResult, p.ConnectError
	p.mu.Unlock()

	if fn != nil {
		return fn(ctx, guildID, channelID)
	}
	if errResult != nil {
		return nil, errResult
	}
	return res, nil
}

// Calls returns a snapshot of the recorded Connect calls.
func (p *Platform) Calls() []ConnectCall {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]ConnectCall, len(p.ConnectCalls))
	copy(out, p.ConnectCalls)
	return out
}

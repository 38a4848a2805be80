// Package audio defines the interfaces and types for voice-channel playback
// within yomiage.
//
// The two primary abstractions are:
//
//   - [Platform] — connects to a voice channel and returns a [Connection].
//   - [Connection] — represents an active voice connection, accepting one
//     [Track] at a time for playback.
//
// Implementations are provided by platform-specific adapter packages
// (e.g., audio/discord). The interfaces are intentionally narrow to keep the
// playback coordinator decoupled from provider details.
//
// This package lives under pkg/ because external code (third-party platform
// adapters) is expected to implement [Platform] and [Connection].
package audio

import "context"

// Connection represents an active voice connection on a channel.
//
// A Connection is obtained by calling [Platform.Connect] and remains valid
// until [Connection.Disconnect] is called. Implementations must be safe for
// concurrent use.
type Connection interface {
	// Play registers track for playback and returns a completion channel
	// that receives exactly one value when playback ends: nil on a normal
	// finish or an explicit [Connection.Stop], or an error if the transport
	// failed mid-playback. The channel is buffered, so the completion is
	// delivered even if the caller reads it late.
	//
	// Play returns a non-nil error only if playback could not be started at
	// all (another track is active, connection closed, codec failure); in
	// that case the completion channel is nil and will never fire.
	Play(track Track) (<-chan error, error)

	// Stop aborts the current track, if any. The track's completion channel
	// receives nil. Stop is a no-op when nothing is playing.
	Stop()

	// ChannelID returns the platform identifier of the occupied voice channel.
	ChannelID() string

	// Disconnect cleanly tears down the connection, stopping any current
	// playback. It is safe to call Disconnect more than once; subsequent
	// calls are no-ops and return nil.
	Disconnect() error
}

// Platform is the entry point for a voice-channel provider.
// Implementations wrap provider-specific SDKs and expose a uniform
// [Connection] abstraction.
//
// Implementations must be safe for concurrent use.
type Platform interface {
	// Connect joins the voice channel identified by channelID within guildID
	// and returns an active [Connection]. The supplied ctx governs the
	// connection attempt only; once connected, the Connection remains alive
	// until [Connection.Disconnect] is called.
	Connect(ctx context.Context, guildID, channelID string) (Connection, error)
}

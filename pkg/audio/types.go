package audio

import "time"

// Format describes the sample rate and channel count of a PCM payload.
type Format struct {
	// SampleRate in Hz (e.g., 48000 for Discord Opus).
	SampleRate int

	// Channels: 1 for mono (synthesizer output), 2 for stereo (Discord output).
	Channels int
}

// Track is a fully decoded audio clip queued for playback in a voice channel.
// Data is little-endian int16 PCM in the format described by Format.
type Track struct {
	Data   []byte
	Format Format
}

// Duration returns the playback length of the track, or 0 for a
// zero-value or malformed track.
func (t Track) Duration() time.Duration {
	if t.Format.SampleRate <= 0 || t.Format.Channels <= 0 {
		return 0
	}
	samples := len(t.Data) / 2 / t.Format.Channels
	return time.Duration(samples) * time.Second / time.Duration(t.Format.SampleRate)
}

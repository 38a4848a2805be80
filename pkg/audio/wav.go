package audio

import (
	"fmt"
	"io"
	"os"

	"github.com/go-audio/wav"
)

// DecodeWAV reads a RIFF/WAVE stream and returns its PCM payload as a [Track].
// Only 16-bit integer PCM is supported; that is what speech synthesizers
// produce. Bit depths other than 16 are rejected rather than silently scaled.
func DecodeWAV(r io.ReadSeeker) (Track, error) {
	dec := wav.NewDecoder(r)
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return Track{}, fmt.Errorf("audio: decode wav: %w", err)
	}
	if dec.Err() != nil {
		return Track{}, fmt.Errorf("audio: decode wav: %w", dec.Err())
	}
	if buf == nil || buf.Format == nil || len(buf.Data) == 0 {
		return Track{}, fmt.Errorf("audio: decode wav: empty PCM payload")
	}
	if dec.BitDepth != 16 {
		return Track{}, fmt.Errorf("audio: decode wav: unsupported bit depth %d (want 16)", dec.BitDepth)
	}

	pcm := make([]byte, len(buf.Data)*2)
	for i, s := range buf.Data {
		pcm[i*2] = byte(s)
		pcm[i*2+1] = byte(s >> 8)
	}

	return Track{
		Data: pcm,
		Format: Format{
			SampleRate: buf.Format.SampleRate,
			Channels:   buf.Format.NumChannels,
		},
	}, nil
}

// DecodeWAVFile decodes the WAV file at path. See [DecodeWAV].
func DecodeWAVFile(path string) (Track, error) {
	f, err := os.Open(path)
	if err != nil {
		return Track{}, fmt.Errorf("audio: open wav %q: %w", path, err)
	}
	defer f.Close()
	return DecodeWAV(f)
}

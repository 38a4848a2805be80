package speech_test

import (
	"sort"
	"testing"

	"github.com/uz777/discordbot-yomiage/internal/speech"
)

func TestIsValidVoiceType(t *testing.T) {
	t.Parallel()

	for _, vt := range []string{"n", "ma", "mn", "ts"} {
		if !speech.IsValidVoiceType(vt) {
			t.Errorf("IsValidVoiceType(%q) = false, want true", vt)
		}
	}
	for _, vt := range []string{"", "x", "mei", "N"} {
		if speech.IsValidVoiceType(vt) {
			t.Errorf("IsValidVoiceType(%q) = true, want false", vt)
		}
	}
}

func TestVoiceTypeKeysSorted(t *testing.T) {
	t.Parallel()

	keys := speech.VoiceTypeKeys()
	if len(keys) != len(speech.VoiceTypes) {
		t.Fatalf("len(keys) = %d, want %d", len(keys), len(speech.VoiceTypes))
	}
	if !sort.StringsAreSorted(keys) {
		t.Errorf("VoiceTypeKeys() not sorted: %v", keys)
	}
}

func TestClosestVoiceType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"mz", "ma"}, // distance 1, first in sort order among the m* keys
		{"tz", "ta"}, // distance 1, ta sorts before th/tn/ts
		{"n", "n"},   // exact match
	}
	for _, tc := range tests {
		if got := speech.ClosestVoiceType(tc.in); got != tc.want {
			t.Errorf("ClosestVoiceType(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}

	// Whatever the input, the suggestion must be a usable voice type.
	for _, in := range []string{"", "zzz", "mei_normal"} {
		if got := speech.ClosestVoiceType(in); !speech.IsValidVoiceType(got) {
			t.Errorf("ClosestVoiceType(%q) = %q, not a valid voice type", in, got)
		}
	}
}

// Package speech turns chat text into playable audio: it sanitizes raw
// message content into speakable text and invokes the external Open JTalk
// synthesizer to produce WAV output.
package speech

import (
	"sort"

	"github.com/antzucaro/matchr"
)

// DefaultVoiceType is the built-in fallback voice profile.
const DefaultVoiceType = "n"

// VoiceTypes maps the short voice-profile keys users type to the HTS voice
// model filenames shipped with Open JTalk.
var VoiceTypes = map[string]string{
	"n":  "nitech_jp_atr503_m001.htsvoice",
	"ma": "mei_angry.htsvoice",
	"mb": "mei_bashful.htsvoice",
	"mh": "mei_happy.htsvoice",
	"mn": "mei_normal.htsvoice",
	"ms": "mei_sad.htsvoice",
	"ta": "takumi_angry.htsvoice",
	"th": "takumi_happy.htsvoice",
	"tn": "takumi_normal.htsvoice",
	"ts": "takumi_sad.htsvoice",
}

// IsValidVoiceType reports whether vt is a known voice-profile key.
func IsValidVoiceType(vt string) bool {
	_, ok := VoiceTypes[vt]
	return ok
}

// VoiceTypeKeys returns the known voice-profile keys in sorted order.
func VoiceTypeKeys() []string {
	keys := make([]string, 0, len(VoiceTypes))
	for k := range VoiceTypes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ClosestVoiceType returns the known voice-profile key with the smallest
// Levenshtein distance to input, for "did you mean" suggestions. Ties are
// broken by sort order so the result is deterministic.
func ClosestVoiceType(input string) string {
	best := DefaultVoiceType
	bestDist := -1
	for _, k := range VoiceTypeKeys() {
		d := matchr.Levenshtein(input, k)
		if bestDist < 0 || d < bestDist {
			best = k
			bestDist = d
		}
	}
	return best
}

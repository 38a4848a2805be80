package speech

import (
	"regexp"
	"strings"
)

// Placeholders spoken in place of content the synthesizer cannot read aloud.
const (
	// urlPlaceholder is read as "u-r-l" in Japanese.
	urlPlaceholder = "ゆーあーるえる"

	// digitRunPlaceholder is read as "takusan" ("a lot").
	digitRunPlaceholder = "たくさん"
)

var (
	mentionPattern  = regexp.MustCompile(`@\d{18}`)
	urlPattern      = regexp.MustCompile(`https?://[\w/:%#$&?()~.=+\-]+`)
	digitRunPattern = regexp.MustCompile(`\d{5,}`)
	emojiPattern    = regexp.MustCompile(`<:\w+:\d+>`)
)

// MakeSpeakable converts raw message content to text suitable for speech
// synthesis. It never fails; empty output is valid (callers decide whether
// an empty result is still enqueued).
//
// The transform order matters — later patterns assume earlier ones already
// collapsed the text to a single line:
//  1. keep only the content before the first line break;
//  2. strip user-mention tokens;
//  3. replace URL-shaped substrings with a spoken placeholder;
//  4. replace runs of 5+ consecutive digits with a spoken placeholder;
//  5. strip custom-emoji markup.
func MakeSpeakable(text string) string {
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		text = text[:i]
	}
	text = mentionPattern.ReplaceAllString(text, "")
	text = urlPattern.ReplaceAllString(text, urlPlaceholder)
	text = digitRunPattern.ReplaceAllString(text, digitRunPlaceholder)
	return emojiPattern.ReplaceAllString(text, "")
}

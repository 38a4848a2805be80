package discord

import (
	"context"
	"strings"
	"testing"

	"github.com/uz777/discordbot-yomiage/internal/session"
	"github.com/uz777/discordbot-yomiage/internal/settings"
	audiomock "github.com/uz777/discordbot-yomiage/pkg/audio/mock"
)

func newTestBot(t *testing.T) (*Bot, *settings.Registry, *audiomock.Connection) {
	t.Helper()

	bot, err := New(Config{Token: "test-token"})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	conn := &audiomock.Connection{ChannelIDResult: "vc-1", AutoComplete: true}
	st := settings.NewRegistry("!", "n")
	sessions := session.NewRegistry(session.Config{
		Platform: &audiomock.Platform{ConnectResult: conn},
		Synthesizer: session.SynthesizerFunc(func(_ context.Context, _, _, _ string) error {
			return nil
		}),
		WorkDir: t.TempDir(),
	})
	t.Cleanup(sessions.Close)
	bot.Attach(st, sessions)
	return bot, st, conn
}

func TestCmdVoice(t *testing.T) {
	t.Parallel()

	bot, st, _ := newTestBot(t)

	// Valid voice type is stored.
	ctx, replies := testContext("mh")
	if err := bot.cmdVoice(ctx); err != nil {
		t.Fatalf("cmdVoice() error: %v", err)
	}
	if got := st.Voice("g1", "u1"); got != "mh" {
		t.Errorf("stored voice = %q, want mh", got)
	}
	if len(*replies) != 1 {
		t.Fatalf("replies = %v, want one confirmation", *replies)
	}

	// Unknown voice type falls back to the default, with a suggestion.
	ctx, replies = testContext("mz")
	if err := bot.cmdVoice(ctx); err != nil {
		t.Fatalf("cmdVoice() error: %v", err)
	}
	if got := st.Voice("g1", "u1"); got != "n" {
		t.Errorf("stored voice after unknown type = %q, want default n", got)
	}
	if !strings.Contains((*replies)[0], `"ma"`) {
		t.Errorf("reply = %q, want a did-you-mean suggestion for ma", (*replies)[0])
	}

	// Reset removes the personal override.
	st.SetUserVoice("g1", "u1", "alice", "ts")
	ctx, _ = testContext("reset")
	if err := bot.cmdVoice(ctx); err != nil {
		t.Fatalf("cmdVoice(reset) error: %v", err)
	}
	if got := st.Voice("g1", "u1"); got != "n" {
		t.Errorf("voice after reset = %q, want default n", got)
	}

	// No args prints usage.
	ctx, replies = testContext()
	if err := bot.cmdVoice(ctx); err != nil {
		t.Fatalf("cmdVoice() error: %v", err)
	}
	if !strings.Contains((*replies)[0], "Usage") {
		t.Errorf("reply = %q, want usage text", (*replies)[0])
	}
}

func TestCmdGuildVoice(t *testing.T) {
	t.Parallel()

	bot, st, _ := newTestBot(t)

	ctx, _ := testContext("tn")
	if err := bot.cmdGuildVoice(ctx); err != nil {
		t.Fatalf("cmdGuildVoice() error: %v", err)
	}
	if got := st.Voice("g1", "someone-else"); got != "tn" {
		t.Errorf("guild voice = %q, want tn", got)
	}

	// Unknown types are rejected rather than silently replaced.
	ctx, replies := testContext("alien")
	if err := bot.cmdGuildVoice(ctx); err != nil {
		t.Fatalf("cmdGuildVoice() error: %v", err)
	}
	if got := st.Voice("g1", "someone-else"); got != "tn" {
		t.Errorf("guild voice after bad input = %q, want unchanged tn", got)
	}
	if !strings.Contains((*replies)[0], "Unknown voice type") {
		t.Errorf("reply = %q, want a rejection", (*replies)[0])
	}
}

func TestCmdPrefix(t *testing.T) {
	t.Parallel()

	bot, st, _ := newTestBot(t)

	ctx, _ := testContext("$")
	if err := bot.cmdPrefix(ctx); err != nil {
		t.Fatalf("cmdPrefix() error: %v", err)
	}
	if got := st.Prefix("g1"); got != "$" {
		t.Errorf("prefix = %q, want $", got)
	}
}

func TestCmdByeWithoutSession(t *testing.T) {
	t.Parallel()

	bot, _, _ := newTestBot(t)

	ctx, replies := testContext()
	if err := bot.cmdBye(ctx); err != nil {
		t.Fatalf("cmdBye() error: %v", err)
	}
	if len(*replies) != 1 || !strings.Contains((*replies)[0], "Not connected") {
		t.Errorf("replies = %v, want a not-connected notice", *replies)
	}
}

func TestCmdJoinWithoutVoiceState(t *testing.T) {
	t.Parallel()

	bot, _, _ := newTestBot(t)

	// The caller is not in any voice channel the gateway told us about.
	ctx, replies := testContext()
	ctx.Session = bot.session
	if err := bot.cmdJoin(ctx); err != nil {
		t.Fatalf("cmdJoin() error: %v", err)
	}
	if len(*replies) != 1 || !strings.Contains((*replies)[0], "Join a voice channel") {
		t.Errorf("replies = %v, want a join-first notice", *replies)
	}
}

func TestCmdStatusWithoutSession(t *testing.T) {
	t.Parallel()

	bot, _, _ := newTestBot(t)

	ctx, replies := testContext()
	if err := bot.cmdStatus(ctx); err != nil {
		t.Fatalf("cmdStatus() error: %v", err)
	}
	if len(*replies) != 1 || !strings.HasPrefix((*replies)[0], "embed:") {
		t.Errorf("replies = %v, want one embed", *replies)
	}
}

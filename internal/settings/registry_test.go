package settings_test

import (
	"testing"

	"github.com/uz777/discordbot-yomiage/internal/settings"
)

func TestVoiceResolution(t *testing.T) {
	t.Parallel()

	r := settings.NewRegistry("!", "n")
	r.AddGuild("g1")

	// No overrides anywhere: global default.
	if got := r.Voice("g1", "u1"); got != "n" {
		t.Errorf("Voice = %q, want global default %q", got, "n")
	}

	// Guild override applies to every member without a personal setting.
	r.SetGuildVoice("g1", "mn")
	if got := r.Voice("g1", "u1"); got != "mn" {
		t.Errorf("Voice = %q, want guild voice %q", got, "mn")
	}

	// Personal setting wins over the guild voice.
	r.SetUserVoice("g1", "u1", "alice", "ta")
	if got := r.Voice("g1", "u1"); got != "ta" {
		t.Errorf("Voice = %q, want user voice %q", got, "ta")
	}

	// Other members still get the guild voice.
	if got := r.Voice("g1", "u2"); got != "mn" {
		t.Errorf("Voice = %q, want guild voice %q", got, "mn")
	}

	// Reset drops back to the guild voice.
	r.ResetUserVoice("g1", "u1")
	if got := r.Voice("g1", "u1"); got != "mn" {
		t.Errorf("Voice after reset = %q, want guild voice %q", got, "mn")
	}

	// Unknown guild falls through to the global default.
	if got := r.Voice("nope", "u1"); got != "n" {
		t.Errorf("Voice for unknown guild = %q, want %q", got, "n")
	}
}

func TestPrefixResolution(t *testing.T) {
	t.Parallel()

	r := settings.NewRegistry("!", "n")
	r.AddGuild("g1")

	if got := r.Prefix("g1"); got != "!" {
		t.Errorf("Prefix = %q, want default %q", got, "!")
	}

	r.SetGuildPrefix("g1", "$")
	if got := r.Prefix("g1"); got != "$" {
		t.Errorf("Prefix = %q, want %q", got, "$")
	}

	// Other guilds keep the default.
	if got := r.Prefix("g2"); got != "!" {
		t.Errorf("Prefix for other guild = %q, want %q", got, "!")
	}
}

func TestRemoveGuildDropsSettings(t *testing.T) {
	t.Parallel()

	r := settings.NewRegistry("!", "n")
	r.AddGuild("g1")
	r.SetGuildVoice("g1", "mn")
	r.SetUserVoice("g1", "u1", "alice", "ta")

	r.RemoveGuild("g1")

	if got := r.Voice("g1", "u1"); got != "n" {
		t.Errorf("Voice after RemoveGuild = %q, want global default %q", got, "n")
	}
	if got := r.Prefix("g1"); got != "!" {
		t.Errorf("Prefix after RemoveGuild = %q, want default %q", got, "!")
	}
}

func TestUsersSortedByName(t *testing.T) {
	t.Parallel()

	r := settings.NewRegistry("!", "n")
	r.SetUserVoice("g1", "u3", "carol", "ts")
	r.SetUserVoice("g1", "u1", "alice", "ta")
	r.SetUserVoice("g1", "u2", "bob", "mn")

	users := r.Users("g1")
	if len(users) != 3 {
		t.Fatalf("len(users) = %d, want 3", len(users))
	}
	wantNames := []string{"alice", "bob", "carol"}
	for i, want := range wantNames {
		if users[i].Name != want {
			t.Errorf("users[%d].Name = %q, want %q", i, users[i].Name, want)
		}
	}

	if got := r.Users("empty"); len(got) != 0 {
		t.Errorf("Users for unknown guild = %v, want empty", got)
	}
}

func TestSetUserVoiceCreatesGuild(t *testing.T) {
	t.Parallel()

	// A voice command can arrive before the guild-available event; settings
	// writes must not depend on AddGuild ordering.
	r := settings.NewRegistry("!", "n")
	r.SetUserVoice("g1", "u1", "alice", "mh")
	if got := r.Voice("g1", "u1"); got != "mh" {
		t.Errorf("Voice = %q, want %q", got, "mh")
	}
}

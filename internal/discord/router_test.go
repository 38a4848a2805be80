package discord

import (
	"errors"
	"strings"
	"testing"

	"github.com/bwmarrin/discordgo"
)

// testContext builds a CommandContext whose replies are recorded instead of
// sent to Discord.
func testContext(args ...string) (*CommandContext, *[]string) {
	var replies []string
	ctx := &CommandContext{
		Message: &discordgo.MessageCreate{Message: &discordgo.Message{
			GuildID:   "g1",
			ChannelID: "tc-1",
			Author:    &discordgo.User{ID: "u1", Username: "alice"},
		}},
		Args: args,
		reply: func(content string) error {
			replies = append(replies, content)
			return nil
		},
		embed: func(e *discordgo.MessageEmbed) error {
			replies = append(replies, "embed: "+e.Title)
			return nil
		},
	}
	return ctx, &replies
}

func TestRouterDispatch(t *testing.T) {
	t.Parallel()

	r := NewRouter()
	var gotArgs []string
	r.Register("Voice", func(c *CommandContext) error {
		gotArgs = c.Args
		return nil
	})

	ctx, _ := testContext("mn", "extra")
	r.dispatch("voice", ctx)
	if len(gotArgs) != 2 || gotArgs[0] != "mn" {
		t.Errorf("handler args = %v, want [mn extra]", gotArgs)
	}

	// Unknown commands are silently ignored.
	ctx, replies := testContext()
	r.dispatch("nope", ctx)
	if len(*replies) != 0 {
		t.Errorf("unknown command produced replies: %v", *replies)
	}
}

func TestRouterReportsHandlerError(t *testing.T) {
	t.Parallel()

	r := NewRouter()
	r.Register("boom", func(c *CommandContext) error {
		return errors.New("no voice state")
	})

	ctx, replies := testContext()
	r.dispatch("boom", ctx)
	if len(*replies) != 1 || !strings.Contains((*replies)[0], "no voice state") {
		t.Errorf("replies = %v, want one error reply", *replies)
	}
}

func TestRouterContainsPanic(t *testing.T) {
	t.Parallel()

	r := NewRouter()
	r.Register("panic", func(c *CommandContext) error {
		panic("handler bug")
	})

	ctx, replies := testContext()
	r.dispatch("panic", ctx) // must not propagate
	if len(*replies) != 1 {
		t.Errorf("replies = %v, want one apology", *replies)
	}
}

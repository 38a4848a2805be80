package discord

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/uz777/discordbot-yomiage/internal/session"
	"github.com/uz777/discordbot-yomiage/internal/speech"
)

// joinTimeout bounds the voice gateway handshake when connecting to a
// channel. A slow handshake should fail the command, not hang the handler.
const joinTimeout = 10 * time.Second

func (b *Bot) registerCommands() {
	b.router.Register("join", b.cmdJoin)
	b.router.Register("bye", b.cmdBye)
	b.router.Register("voice", b.cmdVoice)
	b.router.Register("guildvoice", b.cmdGuildVoice)
	b.router.Register("prefix", b.cmdPrefix)
	b.router.Register("status", b.cmdStatus)
}

// cmdJoin connects the bot to the caller's current voice channel and binds
// readout to the text channel the command was issued in.
func (b *Bot) cmdJoin(c *CommandContext) error {
	m := c.Message
	vs, err := c.Session.State.VoiceState(m.GuildID, m.Author.ID)
	if err != nil || vs == nil || vs.ChannelID == "" {
		c.Reply("Join a voice channel first, then run the command again.")
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), joinTimeout)
	defer cancel()

	_, err = b.sessions.Join(ctx, m.GuildID, vs.ChannelID, m.ChannelID)
	switch {
	case errors.Is(err, session.ErrNothingToDo):
		c.Reply("Already reading this channel into that voice channel.")
		return nil
	case err != nil:
		return fmt.Errorf("join voice channel: %w", err)
	}

	c.Reply(fmt.Sprintf("Now reading <#%s> into <#%s>.", m.ChannelID, vs.ChannelID))
	return nil
}

// cmdBye disconnects the bot from the guild's voice channel.
func (b *Bot) cmdBye(c *CommandContext) error {
	err := b.sessions.Leave(c.Message.GuildID)
	if errors.Is(err, session.ErrNotConnected) {
		c.Reply("Not connected to a voice channel.")
		return nil
	}
	if err != nil {
		return err
	}
	c.Reply("Bye.")
	return nil
}

// cmdVoice sets or resets the caller's personal voice type. An unrecognized
// type falls back to the global default, with a closest-match suggestion.
func (b *Bot) cmdVoice(c *CommandContext) error {
	m := c.Message
	if len(c.Args) == 0 {
		c.Reply("Usage: voice <" + strings.Join(speech.VoiceTypeKeys(), "|") + "> or voice reset")
		return nil
	}

	arg := strings.ToLower(c.Args[0])
	if arg == "reset" {
		b.settings.ResetUserVoice(m.GuildID, m.Author.ID)
		c.Reply(fmt.Sprintf("Voice for %s reset to the server default.", m.Author.Username))
		return nil
	}

	if !speech.IsValidVoiceType(arg) {
		fallback := b.settings.DefaultVoice()
		b.settings.SetUserVoice(m.GuildID, m.Author.ID, m.Author.Username, fallback)
		c.Reply(fmt.Sprintf("Unknown voice type %q (did you mean %q?), using %q instead.",
			arg, speech.ClosestVoiceType(arg), fallback))
		return nil
	}

	b.settings.SetUserVoice(m.GuildID, m.Author.ID, m.Author.Username, arg)
	c.Reply(fmt.Sprintf("Voice for %s set to %q.", m.Author.Username, arg))
	return nil
}

// cmdGuildVoice sets the guild-wide voice type used for members without a
// personal override.
func (b *Bot) cmdGuildVoice(c *CommandContext) error {
	m := c.Message
	if len(c.Args) == 0 {
		c.Reply("Usage: guildvoice <" + strings.Join(speech.VoiceTypeKeys(), "|") + ">")
		return nil
	}

	arg := strings.ToLower(c.Args[0])
	if !speech.IsValidVoiceType(arg) {
		c.Reply(fmt.Sprintf("Unknown voice type %q. Did you mean %q?",
			arg, speech.ClosestVoiceType(arg)))
		return nil
	}

	b.settings.SetGuildVoice(m.GuildID, arg)
	c.Reply(fmt.Sprintf("Server voice set to %q.", arg))
	return nil
}

// cmdPrefix changes the command prefix for this guild.
func (b *Bot) cmdPrefix(c *CommandContext) error {
	m := c.Message
	if len(c.Args) == 0 {
		c.Reply(fmt.Sprintf("Current prefix is %q. Usage: prefix <new-prefix>", b.settings.Prefix(m.GuildID)))
		return nil
	}

	prefix := c.Args[0]
	b.settings.SetGuildPrefix(m.GuildID, prefix)
	c.Reply(fmt.Sprintf("Prefix for this server is now %q.", prefix))
	return nil
}

// cmdStatus reports the guild's session and voice configuration as an embed.
func (b *Bot) cmdStatus(c *CommandContext) error {
	m := c.Message
	embed := &discordgo.MessageEmbed{
		Title: "Yomiage status",
		Color: 0x5865F2,
	}

	if info, ok := b.sessions.Info(m.GuildID); ok {
		embed.Fields = append(embed.Fields,
			&discordgo.MessageEmbedField{
				Name:   "Session",
				Value:  fmt.Sprintf("Reading <#%s> into <#%s>", info.TextChannelID, info.VoiceChannelID),
				Inline: false,
			},
			&discordgo.MessageEmbedField{
				Name:   "State",
				Value:  info.State.String(),
				Inline: true,
			},
			&discordgo.MessageEmbedField{
				Name:   "Queued messages",
				Value:  fmt.Sprintf("%d", info.QueueDepth),
				Inline: true,
			},
		)
	} else {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "Session",
			Value: "Not connected",
		})
	}

	guildVoice := b.settings.GuildVoice(m.GuildID)
	if guildVoice == "" {
		guildVoice = b.settings.DefaultVoice() + " (default)"
	}
	embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
		Name:   "Server voice",
		Value:  guildVoice,
		Inline: true,
	})

	if users := b.settings.Users(m.GuildID); len(users) > 0 {
		var sb strings.Builder
		for _, u := range users {
			fmt.Fprintf(&sb, "%-20s %s\n", u.Name, u.Voice)
		}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "Voice overrides",
			Value: "```\n" + sb.String() + "```",
		})
	}

	c.ReplyEmbed(embed)
	return nil
}

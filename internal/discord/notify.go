package discord

import (
	"log/slog"

	"github.com/bwmarrin/discordgo"

	"github.com/uz777/discordbot-yomiage/internal/session"
)

// Notifier posts session notifications (skipped messages, interrupted
// playback) to Discord text channels.
type Notifier struct {
	session *discordgo.Session
}

var _ session.Notifier = (*Notifier)(nil)

// Notify posts content to the given text channel. Failures are logged and
// dropped; a notification is best effort and must not stall the coordinator.
func (n *Notifier) Notify(channelID, content string) {
	if _, err := n.session.ChannelMessageSend(channelID, content); err != nil {
		slog.Warn("discord: failed to post notification",
			"channel_id", channelID, "err", err)
	}
}

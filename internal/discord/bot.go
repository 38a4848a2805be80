// Package discord provides the Discord layer for yomiage. It owns the
// discordgo.Session lifecycle, filters inbound messages into the playback
// pipeline, and routes prefix commands to registered handlers.
package discord

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/bwmarrin/discordgo"

	"github.com/uz777/discordbot-yomiage/internal/session"
	"github.com/uz777/discordbot-yomiage/internal/settings"
	"github.com/uz777/discordbot-yomiage/internal/speech"
	"github.com/uz777/discordbot-yomiage/pkg/audio"
	discordaudio "github.com/uz777/discordbot-yomiage/pkg/audio/discord"
)

// Config holds Discord bot configuration.
type Config struct {
	// Token is the Discord bot token.
	Token string

	// Version is the application version, logged on ready.
	Version string

	// DropEmpty drops messages whose sanitized text is empty instead of
	// enqueueing them.
	DropEmpty bool
}

// Bot owns the Discord gateway connection. Construct with [New], wire the
// registries with [Attach], then call [Bot.Run].
type Bot struct {
	session   *discordgo.Session
	router    *Router
	version   string
	dropEmpty bool

	settings *settings.Registry
	sessions *session.Registry

	closeOnce sync.Once
}

// New creates a Bot and its gateway session. The session is not opened until
// [Bot.Run]; this lets the caller construct the session registry from
// [Bot.Platform] and [Bot.Notifier] before any event can arrive.
func New(cfg Config) (*Bot, error) {
	ds, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("discord: create session: %w", err)
	}

	ds.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildVoiceStates |
		discordgo.IntentsMessageContent

	return &Bot{
		session:   ds,
		router:    NewRouter(),
		version:   cfg.Version,
		dropEmpty: cfg.DropEmpty,
	}, nil
}

// Platform returns the voice [audio.Platform] backed by this bot's session.
func (b *Bot) Platform() audio.Platform {
	return discordaudio.New(b.session)
}

// Notifier returns a [session.Notifier] that posts to text channels through
// this bot's session.
func (b *Bot) Notifier() session.Notifier {
	return &Notifier{session: b.session}
}

// Attach wires the settings and session registries and registers all event
// handlers and commands. Must be called before [Bot.Run].
func (b *Bot) Attach(st *settings.Registry, sr *session.Registry) {
	b.settings = st
	b.sessions = sr
	b.registerCommands()

	b.session.AddHandler(b.handleReady)
	b.session.AddHandler(b.handleGuildCreate)
	b.session.AddHandler(b.handleGuildDelete)
	b.session.AddHandler(b.handleMessageCreate)
}

// Run opens the gateway connection and blocks until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("discord: open session: %w", err)
	}
	slog.Info("discord gateway connected")
	<-ctx.Done()
	return ctx.Err()
}

// Close disconnects from the gateway. Safe to call more than once.
func (b *Bot) Close() error {
	var closeErr error
	b.closeOnce.Do(func() {
		if err := b.session.Close(); err != nil {
			closeErr = fmt.Errorf("discord: close session: %w", err)
		}
		slog.Info("discord bot closed")
	})
	return closeErr
}

// Ready is a readiness check for the health endpoint: it fails until the
// gateway handshake has completed.
func (b *Bot) Ready(_ context.Context) error {
	if b.session.State == nil || b.session.State.User == nil {
		return fmt.Errorf("gateway handshake not complete")
	}
	return nil
}

// handleReady logs the startup banner, mirroring the information an operator
// needs to confirm the configuration took effect.
func (b *Bot) handleReady(_ *discordgo.Session, r *discordgo.Ready) {
	slog.Info("yomiage ready",
		"version", b.version,
		"cmd_prefix", b.settings.DefaultPrefix(),
		"voice_type", b.settings.DefaultVoice(),
		"bot_user", r.User.ID+"/"+r.User.Username,
	)
}

// handleGuildCreate creates the guild's settings entry when the guild
// becomes available.
func (b *Bot) handleGuildCreate(_ *discordgo.Session, g *discordgo.GuildCreate) {
	b.settings.AddGuild(g.ID)
	slog.Debug("guild available", "guild_id", g.ID)
}

// handleGuildDelete destroys the guild's settings entry and tears down any
// active session when the guild becomes unavailable.
func (b *Bot) handleGuildDelete(_ *discordgo.Session, g *discordgo.GuildDelete) {
	b.settings.RemoveGuild(g.ID)
	if err := b.sessions.Leave(g.ID); err == nil {
		slog.Info("session closed: guild unavailable", "guild_id", g.ID)
	}
	slog.Debug("guild unavailable", "guild_id", g.ID)
}

// handleMessageCreate is the ingestion path. Commands are dispatched first;
// everything else is filtered, sanitized, resolved, and enqueued. Enqueue
// never blocks, so this handler returns quickly regardless of queue depth.
func (b *Bot) handleMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot || m.GuildID == "" {
		return
	}

	prefix := b.settings.Prefix(m.GuildID)
	if prefix != "" && strings.HasPrefix(m.Content, prefix) {
		b.router.Dispatch(s, m, strings.TrimPrefix(m.Content, prefix))
		return
	}

	info, ok := b.sessions.Info(m.GuildID)
	if !ok {
		return
	}
	if info.TextChannelID != m.ChannelID {
		return
	}

	text := speech.MakeSpeakable(m.Content)
	slog.Debug("message accepted for reading",
		"guild_id", m.GuildID,
		"user", m.Author.ID+"/"+m.Author.Username,
		"speakable", text,
	)
	if b.dropEmpty && strings.TrimSpace(text) == "" {
		return
	}

	b.sessions.Enqueue(m.GuildID, session.Request{
		Text:  text,
		Voice: b.settings.Voice(m.GuildID, m.Author.ID),
	})
}

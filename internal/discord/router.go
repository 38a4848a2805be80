package discord

import (
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"
	"sync"

	"github.com/bwmarrin/discordgo"
)

// CommandContext carries everything a prefix command handler needs. Reply is
// injectable so handlers can be tested without a live gateway connection.
type CommandContext struct {
	Session *discordgo.Session
	Message *discordgo.MessageCreate

	// Args are the whitespace-separated tokens after the command name.
	Args []string

	reply func(content string) error
	embed func(e *discordgo.MessageEmbed) error
}

// Reply posts a plain text message to the channel the command came from.
func (c *CommandContext) Reply(content string) {
	if err := c.reply(content); err != nil {
		slog.Warn("discord: failed to send reply",
			"channel_id", c.Message.ChannelID, "err", err)
	}
}

// ReplyEmbed posts an embed to the channel the command came from.
func (c *CommandContext) ReplyEmbed(e *discordgo.MessageEmbed) {
	if err := c.embed(e); err != nil {
		slog.Warn("discord: failed to send embed",
			"channel_id", c.Message.ChannelID, "err", err)
	}
}

// CommandFunc is the signature for prefix command handlers. A returned error
// is reported back to the channel; panics are recovered by the router.
type CommandFunc func(ctx *CommandContext) error

// Router dispatches prefix commands (e.g. "!join") to registered handlers.
type Router struct {
	mu       sync.RWMutex
	commands map[string]CommandFunc
}

// NewRouter creates an empty router.
func NewRouter() *Router {
	return &Router{commands: make(map[string]CommandFunc)}
}

// Register registers a handler under a command name. Names are matched
// case-insensitively.
func (r *Router) Register(name string, handler CommandFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commands[strings.ToLower(name)] = handler
}

// Names returns the registered command names, unordered.
func (r *Router) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.commands))
	for name := range r.commands {
		names = append(names, name)
	}
	return names
}

// Dispatch parses the stripped command line (prefix already removed) and
// invokes the matching handler. Unknown commands are ignored so that chat
// lines which merely start with the prefix do not produce noise.
func (r *Router) Dispatch(s *discordgo.Session, m *discordgo.MessageCreate, line string) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return
	}
	ctx := &CommandContext{
		Session: s,
		Message: m,
		Args:    fields[1:],
		reply: func(content string) error {
			_, err := s.ChannelMessageSend(m.ChannelID, content)
			return err
		},
		embed: func(e *discordgo.MessageEmbed) error {
			_, err := s.ChannelMessageSendEmbed(m.ChannelID, e)
			return err
		},
	}
	r.dispatch(strings.ToLower(fields[0]), ctx)
}

// dispatch looks up name and invokes its handler. Split from [Router.Dispatch]
// so tests can supply a CommandContext with a recording reply function.
func (r *Router) dispatch(name string, ctx *CommandContext) {
	r.mu.RLock()
	handler, ok := r.commands[name]
	r.mu.RUnlock()
	if !ok {
		slog.Debug("discord: unknown command", "name", name, "guild_id", ctx.Message.GuildID)
		return
	}
	r.invoke(name, handler, ctx)
}

// invoke runs a handler with panic containment. A misbehaving command must
// never take down the gateway event loop.
func (r *Router) invoke(name string, handler CommandFunc, ctx *CommandContext) {
	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("discord: command panicked",
				"name", name,
				"guild_id", ctx.Message.GuildID,
				"panic", rec,
				"stack", string(debug.Stack()),
			)
			ctx.Reply("Something went wrong while running that command.")
		}
	}()

	if err := handler(ctx); err != nil {
		slog.Warn("discord: command failed",
			"name", name, "guild_id", ctx.Message.GuildID, "err", err)
		ctx.Reply(fmt.Sprintf("Error: %v", err))
	}
}

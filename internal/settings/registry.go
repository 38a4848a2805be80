// Package settings holds the process-lifetime runtime settings for the bot:
// the global defaults plus per-guild and per-user overrides that decide which
// voice profile reads a message and which command prefix a guild answers to.
//
// Resolution precedence (highest wins): per-user voice override → per-guild
// default override → global default. Prefixes have no per-user layer. An
// empty-string override means "unset" and falls through to the next layer.
//
// The Registry is an explicitly owned object created in main and passed by
// handle to the Discord layer; there is no package-level state. All methods
// are safe for concurrent use — discordgo delivers events on multiple
// goroutines.
package settings

import (
	"sort"
	"sync"
)

// UserSettings is one user's per-guild overrides.
type UserSettings struct {
	// ID is the Discord user ID.
	ID string

	// Name is the display name captured when the override was last set.
	Name string

	// Voice is the voice-profile override. Empty means "inherit".
	Voice string
}

// guildEntry holds one guild's overrides. Created when the guild becomes
// available, destroyed when it becomes unavailable. Independent of whether a
// voice session is active.
type guildEntry struct {
	prefix string
	voice  string
	users  map[string]UserSettings
}

// Registry resolves effective settings for (guild, user) pairs.
type Registry struct {
	mu            sync.RWMutex
	defaultPrefix string
	defaultVoice  string
	guilds        map[string]*guildEntry
}

// NewRegistry creates a Registry with the given global defaults.
func NewRegistry(defaultPrefix, defaultVoice string) *Registry {
	return &Registry{
		defaultPrefix: defaultPrefix,
		defaultVoice:  defaultVoice,
		guilds:        make(map[string]*guildEntry),
	}
}

// AddGuild registers guildID, keeping any existing entry (guild-available
// events fire again after gateway reconnects).
func (r *Registry) AddGuild(guildID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.guilds[guildID]; !ok {
		r.guilds[guildID] = newGuildEntry()
	}
}

// RemoveGuild drops guildID and all of its user overrides.
func (r *Registry) RemoveGuild(guildID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.guilds, guildID)
}

// Voice resolves the effective voice profile for userID in guildID.
// It never fails: absent layers and empty overrides fall through to the
// global default.
func (r *Registry) Voice(guildID, userID string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if g, ok := r.guilds[guildID]; ok {
		if u, ok := g.users[userID]; ok && u.Voice != "" {
			return u.Voice
		}
		if g.voice != "" {
			return g.voice
		}
	}
	return r.defaultVoice
}

// Prefix resolves the effective command prefix for guildID.
func (r *Registry) Prefix(guildID string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if g, ok := r.guilds[guildID]; ok && g.prefix != "" {
		return g.prefix
	}
	return r.defaultPrefix
}

// SetUserVoice records a voice override for userID in guildID, creating the
// guild entry if the guild-available event has not been seen yet.
func (r *Registry) SetUserVoice(guildID, userID, name, voice string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	g := r.ensureGuild(guildID)
	g.users[userID] = UserSettings{ID: userID, Name: name, Voice: voice}
}

// ResetUserVoice clears userID's voice override in guildID.
func (r *Registry) ResetUserVoice(guildID, userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if g, ok := r.guilds[guildID]; ok {
		delete(g.users, userID)
	}
}

// SetGuildVoice sets guildID's default voice override. An empty voice resets
// to the global default.
func (r *Registry) SetGuildVoice(guildID, voice string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ensureGuild(guildID).voice = voice
}

// SetGuildPrefix sets guildID's command-prefix override. An empty prefix
// resets to the global default.
func (r *Registry) SetGuildPrefix(guildID, prefix string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ensureGuild(guildID).prefix = prefix
}

// Users returns guildID's user overrides sorted by display name, for the
// status command.
func (r *Registry) Users(guildID string) []UserSettings {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.guilds[guildID]
	if !ok {
		return nil
	}
	out := make([]UserSettings, 0, len(g.users))
	for _, u := range g.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// DefaultVoice returns the global default voice profile.
func (r *Registry) DefaultVoice() string {
	return r.defaultVoice
}

// DefaultPrefix returns the global default command prefix.
func (r *Registry) DefaultPrefix() string {
	return r.defaultPrefix
}

// GuildVoice returns guildID's default voice override ("" when unset).
func (r *Registry) GuildVoice(guildID string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if g, ok := r.guilds[guildID]; ok {
		return g.voice
	}
	return ""
}

func (r *Registry) ensureGuild(guildID string) *guildEntry {
	g, ok := r.guilds[guildID]
	if !ok {
		g = newGuildEntry()
		r.guilds[guildID] = g
	}
	return g
}

func newGuildEntry() *guildEntry {
	return &guildEntry{users: make(map[string]UserSettings)}
}

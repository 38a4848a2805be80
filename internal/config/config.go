// Package config provides the configuration schema and loader for the
// yomiage bot.
package config

import "log/slog"

// LogLevel controls log verbosity.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// Level converts l to a slog.Level. Unrecognised values map to Info.
func (l LogLevel) Level() slog.Level {
	switch l {
	case LogDebug:
		return slog.LevelDebug
	case LogWarn:
		return slog.LevelWarn
	case LogError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Config is the root configuration structure. It is typically loaded from a
// YAML file using [Load] or [LoadFromReader]; selected fields can then be
// overridden from the environment (see [ApplyEnv]).
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Discord DiscordConfig `yaml:"discord"`
	Speech  SpeechConfig  `yaml:"speech"`
}

// ServerConfig holds network and logging settings.
type ServerConfig struct {
	// ListenAddr is the TCP address for the health/metrics endpoints
	// (e.g., ":8080"). Empty disables the HTTP server.
	ListenAddr string `yaml:"listen_addr"`

	// LogLevel controls verbosity.
	LogLevel LogLevel `yaml:"log_level"`
}

// DiscordConfig holds the gateway credentials and the global command prefix.
type DiscordConfig struct {
	// Token is the Discord bot token. Can also be supplied via the
	// YOMIAGE_TOKEN environment variable, which takes precedence.
	Token string `yaml:"token" env:"YOMIAGE_TOKEN"`

	// CmdPrefix is the global default command prefix. Guilds may override
	// it at runtime. Default: "!".
	CmdPrefix string `yaml:"cmd_prefix"`
}

// SpeechConfig holds the external synthesizer settings and the global
// default voice profile.
type SpeechConfig struct {
	// Command is the Open JTalk invocation. Default: "open_jtalk".
	Command string `yaml:"command"`

	// DictionaryDir is the Open JTalk dictionary directory (-x).
	DictionaryDir string `yaml:"dictionary_dir"`

	// VoiceDir is the directory holding the .htsvoice model files.
	VoiceDir string `yaml:"voice_dir"`

	// VoiceType is the global default voice profile key. Unknown keys are
	// replaced with the built-in default at load time.
	VoiceType string `yaml:"voice_type"`

	// Rate is the speech rate passed to the synthesizer. Default: 1.0.
	Rate float64 `yaml:"rate"`

	// WorkDir is where per-guild synthesis artifacts are written.
	// Defaults to the OS temp directory.
	WorkDir string `yaml:"work_dir"`

	// DropEmpty controls whether a message that sanitizes to empty text is
	// silently dropped instead of being enqueued. The reference behaviour
	// (false) still enqueues it.
	DropEmpty bool `yaml:"drop_empty"`
}

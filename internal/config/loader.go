package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/uz777/discordbot-yomiage/internal/speech"
)

// Load reads the YAML configuration file at path, applies environment
// overrides, and returns a validated [Config].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r, applies environment overrides
// and defaults, and validates the result. Useful in tests where configs are
// constructed from string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && err != io.EOF {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := ApplyEnv(cfg); err != nil {
		return nil, err
	}
	applyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overlays environment variables onto cfg. Only fields carrying an
// `env` tag participate; set variables win over file values.
func ApplyEnv(cfg *Config) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("config: apply environment: %w", err)
	}
	return nil
}

// applyDefaults fills unset fields with working defaults.
func applyDefaults(cfg *Config) {
	if cfg.Discord.CmdPrefix == "" {
		cfg.Discord.CmdPrefix = "!"
	}
	if cfg.Speech.Command == "" {
		cfg.Speech.Command = "open_jtalk"
	}
	if cfg.Speech.VoiceType == "" {
		cfg.Speech.VoiceType = speech.DefaultVoiceType
	}
	if cfg.Speech.Rate == 0 {
		cfg.Speech.Rate = 1.0
	}
	if cfg.Server.LogLevel == "" {
		cfg.Server.LogLevel = LogInfo
	}
}

// Validate checks that cfg contains a coherent set of values. A missing
// token or out-of-range rate is fatal; an unknown voice type is replaced
// with the built-in default and logged rather than failing startup.
func Validate(cfg *Config) error {
	if !cfg.Server.LogLevel.IsValid() {
		return fmt.Errorf("config: server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel)
	}
	if cfg.Discord.Token == "" {
		return fmt.Errorf("config: discord.token is required (or set YOMIAGE_TOKEN)")
	}
	if cfg.Speech.Rate <= 0 || cfg.Speech.Rate > 10 {
		return fmt.Errorf("config: speech.rate %.2f is out of range (0, 10]", cfg.Speech.Rate)
	}
	if !speech.IsValidVoiceType(cfg.Speech.VoiceType) {
		slog.Warn("config: unknown voice type, replacing with default",
			"voice_type", cfg.Speech.VoiceType,
			"default", speech.DefaultVoiceType,
		)
		cfg.Speech.VoiceType = speech.DefaultVoiceType
	}
	if cfg.Speech.DictionaryDir == "" {
		slog.Warn("config: speech.dictionary_dir is empty; synthesis will fail until it is set")
	}
	return nil
}

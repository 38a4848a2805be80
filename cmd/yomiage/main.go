// Command yomiage is a Discord bot that reads text-channel messages aloud in
// a voice channel with Open JTalk.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/uz777/discordbot-yomiage/internal/config"
	discordbot "github.com/uz777/discordbot-yomiage/internal/discord"
	"github.com/uz777/discordbot-yomiage/internal/health"
	"github.com/uz777/discordbot-yomiage/internal/observe"
	"github.com/uz777/discordbot-yomiage/internal/session"
	"github.com/uz777/discordbot-yomiage/internal/settings"
	"github.com/uz777/discordbot-yomiage/internal/speech"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	// ── CLI flags ──────────────────────────────────────────────────────────────
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	flag.Parse()

	// ── Load configuration ────────────────────────────────────────────────────
	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "yomiage: config file %q not found — copy configs/example.yaml to get started\n", *configPath)
		} else {
			fmt.Fprintf(os.Stderr, "yomiage: %v\n", err)
		}
		return 1
	}

	// ── Logger ────────────────────────────────────────────────────────────────
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.Server.LogLevel.Level(),
	}))
	slog.SetDefault(logger)

	slog.Info("yomiage starting",
		"version", version,
		"config", *configPath,
		"listen_addr", cfg.Server.ListenAddr,
		"log_level", cfg.Server.LogLevel,
	)

	// ── Signal context ────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Metrics ───────────────────────────────────────────────────────────────
	shutdownMetrics, err := observe.InitProvider(ctx, observe.ProviderConfig{
		ServiceVersion: version,
	})
	if err != nil {
		slog.Error("failed to initialise metrics", "err", err)
		return 1
	}
	metrics := observe.DefaultMetrics()

	// ── Speech synthesis ──────────────────────────────────────────────────────
	synth, err := speech.NewSynthesizer(speech.SynthesizerConfig{
		Command:       cfg.Speech.Command,
		DictionaryDir: cfg.Speech.DictionaryDir,
		VoiceDir:      cfg.Speech.VoiceDir,
		Rate:          cfg.Speech.Rate,
	})
	if err != nil {
		slog.Error("failed to create synthesizer", "err", err)
		return 1
	}

	// ── Settings ──────────────────────────────────────────────────────────────
	st := settings.NewRegistry(cfg.Discord.CmdPrefix, cfg.Speech.VoiceType)

	// ── Discord bot and playback sessions ─────────────────────────────────────
	// The bot is created unopened so its platform and notifier can feed the
	// session registry before any gateway event arrives.
	bot, err := discordbot.New(discordbot.Config{
		Token:     cfg.Discord.Token,
		Version:   version,
		DropEmpty: cfg.Speech.DropEmpty,
	})
	if err != nil {
		slog.Error("failed to create Discord bot", "err", err)
		return 1
	}

	sessions := session.NewRegistry(session.Config{
		Platform:    bot.Platform(),
		Synthesizer: synth,
		Notifier:    bot.Notifier(),
		Metrics:     metrics,
		WorkDir:     cfg.Speech.WorkDir,
	})
	bot.Attach(st, sessions)

	// ── Run ───────────────────────────────────────────────────────────────────
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return bot.Run(gctx)
	})

	// ── HTTP server: health and Prometheus metrics ────────────────────────────
	if cfg.Server.ListenAddr != "" {
		mux := http.NewServeMux()
		health.New(health.Checker{Name: "discord", Check: bot.Ready}).Register(mux)
		mux.Handle("GET /metrics", promhttp.Handler())
		srv := &http.Server{
			Addr:              cfg.Server.ListenAddr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		g.Go(func() error {
			err := srv.ListenAndServe()
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	} else {
		slog.Info("http server disabled; no listen_addr configured")
	}

	slog.Info("server ready — press Ctrl+C to shut down")

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("run error", "err", err)
		return 1
	}

	// ── Graceful shutdown ─────────────────────────────────────────────────────
	slog.Info("shutdown signal received, stopping…")

	sessions.Close()
	if err := bot.Close(); err != nil {
		slog.Warn("discord bot close error", "err", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := shutdownMetrics(shutdownCtx); err != nil {
		slog.Warn("metrics shutdown error", "err", err)
	}
	slog.Info("goodbye")
	return 0
}

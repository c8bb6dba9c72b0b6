package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/zhouzirui/holdings-chat/internal/client"
	"github.com/zhouzirui/holdings-chat/internal/config"
	"github.com/zhouzirui/holdings-chat/internal/ui/line"
	"github.com/zhouzirui/holdings-chat/internal/ui/tui"
	"github.com/zhouzirui/holdings-chat/internal/widget"
	"github.com/zhouzirui/holdings-chat/pkg/utils"
)

const (
	modeTUI  = "tui"
	modeLine = "line"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// options is the resolved command line after env defaults are applied.
type options struct {
	url      string
	mode     string
	render   widget.RenderMode
	timeout  time.Duration
	markdown bool
	logLevel string
	logFile  string
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "chat",
		Short:         "Chat with the holdings assistant from the terminal",
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			// .env is optional.
			_ = godotenv.Load()

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			opts, err := resolveOptions(cmd, cfg.Client, cfg.Log)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, cmd.OutOrStdout(), opts)
		},
	}

	cmd.Flags().String("url", "", "backend base URL (default $CHAT_BACKEND_URL)")
	cmd.Flags().String("mode", modeTUI, "front end: tui or line")
	cmd.Flags().String("render", "", "render mode: escape, legacy or sanitize (default $CHAT_RENDER_MODE)")
	cmd.Flags().Duration("timeout", 0, "per-request timeout, 0 for none (default $CHAT_TIMEOUT)")
	cmd.Flags().Bool("markdown", false, "render bot replies as markdown in tui mode")
	cmd.Flags().String("log-level", "", "log level (default $LOG_LEVEL)")
	cmd.Flags().String("log-file", "", "write logs to this file; tui mode discards logs otherwise")

	return cmd
}

func resolveOptions(cmd *cobra.Command, clientCfg config.ClientConfig, logCfg config.LogConfig) (options, error) {
	flags := cmd.Flags()
	opts := options{
		url:      clientCfg.BackendURL,
		timeout:  clientCfg.Timeout,
		logLevel: logCfg.Level,
	}
	renderRaw := clientCfg.RenderMode

	if flags.Changed("url") {
		opts.url, _ = flags.GetString("url")
	}
	if flags.Changed("render") {
		renderRaw, _ = flags.GetString("render")
	}
	if flags.Changed("timeout") {
		opts.timeout, _ = flags.GetDuration("timeout")
	}
	if flags.Changed("log-level") {
		opts.logLevel, _ = flags.GetString("log-level")
	}
	opts.mode, _ = flags.GetString("mode")
	opts.markdown, _ = flags.GetBool("markdown")
	opts.logFile, _ = flags.GetString("log-file")

	if opts.mode != modeTUI && opts.mode != modeLine {
		return options{}, fmt.Errorf("unknown mode %q: want %s or %s", opts.mode, modeTUI, modeLine)
	}
	if opts.timeout < 0 {
		return options{}, fmt.Errorf("timeout must not be negative")
	}

	render, err := widget.ParseRenderMode(renderRaw)
	if err != nil {
		return options{}, err
	}
	opts.render = render
	return opts, nil
}

func run(ctx context.Context, out io.Writer, opts options) error {
	logOut := io.Writer(os.Stderr)
	if opts.mode == modeTUI {
		logOut = io.Discard
	}
	if opts.logFile != "" {
		f, err := os.OpenFile(opts.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer f.Close()
		logOut = f
	}

	logger, err := utils.NewLogger(opts.logLevel, logOut)
	if err != nil {
		return err
	}

	c, err := client.New(opts.url,
		client.WithTimeout(opts.timeout),
		client.WithLogger(logger.With().Str("component", "client").Logger()),
	)
	if err != nil {
		return err
	}
	logger.Info().Str("endpoint", c.Endpoint()).Str("mode", opts.mode).Msg("starting chat")

	widgetLogger := logger.With().Str("component", "widget").Logger()
	if opts.mode == modeLine {
		return line.Run(ctx, out, c, line.Options{RenderMode: opts.render, Logger: widgetLogger})
	}
	return tui.Run(ctx, c, tui.Options{
		RenderMode: opts.render,
		Markdown:   opts.markdown,
		Logger:     widgetLogger,
	})
}


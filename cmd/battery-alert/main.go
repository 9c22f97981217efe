package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/cptspacemanspiff/battery-alert/internal/collector"
	"github.com/cptspacemanspiff/battery-alert/internal/config"
	dbussvc "github.com/cptspacemanspiff/battery-alert/internal/dbus"
	"github.com/cptspacemanspiff/battery-alert/internal/monitor"
	"github.com/cptspacemanspiff/battery-alert/internal/notify"
)

var (
	verbose    bool
	logTopics  string
	configPath string
)

// topicHandler wraps an slog.Handler and filters records by a "topic" attribute.
// Records without a topic, and any record at Warn or above, always pass.
// Other topic records pass only if that topic is enabled.
type topicHandler struct {
	inner  slog.Handler
	topics map[string]bool
	topic  string // set when WithAttrs includes a "topic" key
}

func (h *topicHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *topicHandler) Handle(ctx context.Context, r slog.Record) error {
	if h.topics["all"] || r.Level >= slog.LevelWarn {
		return h.inner.Handle(ctx, r)
	}
	topic := h.topic
	if topic == "" {
		// Check record-level attrs as fallback.
		r.Attrs(func(a slog.Attr) bool {
			if a.Key == "topic" {
				topic = a.Value.String()
				return false
			}
			return true
		})
	}
	if topic != "" && !h.topics[topic] {
		return nil
	}
	return h.inner.Handle(ctx, r)
}

func (h *topicHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	topic := h.topic
	for _, a := range attrs {
		if a.Key == "topic" {
			topic = a.Value.String()
		}
	}
	return &topicHandler{inner: h.inner.WithAttrs(attrs), topics: h.topics, topic: topic}
}

func (h *topicHandler) WithGroup(name string) slog.Handler {
	return &topicHandler{inner: h.inner.WithGroup(name), topics: h.topics, topic: h.topic}
}

func parseTopics(all bool, list string) map[string]bool {
	topics := make(map[string]bool)
	if all {
		topics["all"] = true
	}
	if list != "" {
		for _, t := range strings.Split(list, ",") {
			if t = strings.TrimSpace(t); t != "" {
				topics[t] = true
			}
		}
	}
	return topics
}

func newLogger() *slog.Logger {
	return slog.New(&topicHandler{
		inner:  slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}),
		topics: parseTopics(verbose, logTopics),
	})
}

// loadConfig reads --config when given, otherwise the default path, which
// may be absent.
func loadConfig(cmd *cobra.Command) (*config.Config, string, error) {
	if cmd.Flags().Changed("config") {
		cfg, err := config.Load(configPath)
		if err != nil {
			return nil, configPath, fmt.Errorf("load config %s: %w", configPath, err)
		}
		return cfg, configPath, nil
	}
	path, err := config.DefaultPath()
	if err != nil {
		return nil, "", err
	}
	cfg, err := config.LoadOrDefault(path)
	if err != nil {
		return nil, path, fmt.Errorf("load config %s: %w", path, err)
	}
	return cfg, path, nil
}

func main() {
	if err := NewCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "battery-alert",
		Short: "Desktop notifications when the battery runs low",
		Long: `battery-alert polls UPower for battery state and shows a desktop
notification when the charge drops below the low or critical threshold.
Alerts repeat while the battery stays low and stop once it is charging.`,
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDaemon(cmd)
		},
	}

	globalFlags := cmd.PersistentFlags()
	globalFlags.BoolVar(&verbose, "verbose", false, "enable all verbose logging (equivalent to --log=all)")
	globalFlags.StringVar(&logTopics, "log", "", "comma-separated log topics: sample,alert,notify,sleep (or 'all')")
	globalFlags.StringVar(&configPath, "config", "", "config file path (default $XDG_CONFIG_HOME/battery-alert/config.toml)")

	cmd.AddCommand(
		NewStatusCommand(),
		NewConfigCommand(),
	)

	return cmd
}

func runDaemon(cmd *cobra.Command) error {
	logger := newLogger()
	sleepLog := logger.With("topic", "sleep")

	cfg, path, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	upower, err := collector.NewUPower()
	if err != nil {
		return err
	}
	defer upower.Close()

	var display notify.Display
	fd, err := notify.NewFreedesktop(cfg.Notification.AppName, cfg.Notification.ReplacePrevious)
	if err != nil {
		logger.Error("notifications unavailable", "err", err)
		display = notify.Unavailable(err)
	} else {
		display = fd
		defer fd.Close()
	}

	m := monitor.New(
		collector.NewSampler(upower, logger.With("topic", "sample")),
		notify.New(display, cfg.Notification.Summary, cfg.Notification.Icon),
		cfg.Policy(),
		cfg.Interval(),
		logger,
	)

	if cfg.Status.Export {
		svc := dbussvc.NewService()
		conn, err := svc.Export()
		if err != nil {
			logger.Warn("status service unavailable", "err", err)
		} else {
			defer conn.Close()
			m.SetReporter(svc)
			logger.Info("D-Bus service registered", "name", "org.gnome.BatteryAlert")
		}
	}

	sleepMon, err := collector.NewSleepMonitor(sleepLog)
	if err != nil {
		logger.Warn("sleep monitor unavailable", "err", err)
	} else {
		m.SetWake(sleepMon.Wake())
		defer sleepMon.Close()
	}

	logger.Info("battery-alert started",
		"config", path,
		"interval", cfg.Interval(),
		"low_percent", cfg.Thresholds.LowPercent,
		"critical_percent", cfg.Thresholds.CriticalPercent)

	if err := m.Run(ctx); err != nil {
		logger.Error("monitor stopped", "err", err)
		return err
	}
	logger.Info("shutting down")
	return nil
}

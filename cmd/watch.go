package cmd

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/Mohsinsiddi/txdash/internal/metrics"
	"github.com/Mohsinsiddi/txdash/internal/notify"
	"github.com/Mohsinsiddi/txdash/internal/poller"
	"github.com/Mohsinsiddi/txdash/internal/session"
	"github.com/Mohsinsiddi/txdash/internal/ui"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

var (
	watchLive     bool
	watchInterval time.Duration
	watchKey      string
)

var watchCmd = &cobra.Command{
	Use:   "watch [address]",
	Short: "Open the live transaction dashboard for an address",
	Long: `Fetch the transaction history of an address and show it as a dashboard:
totals, top counterparties, daily volume and gas, and the latest
transactions.

With live mode on, the explorer is polled every poll_interval seconds and
new transactions are merged in as they appear. Live mode can be toggled
from the dashboard.

Keyboard controls:
  l           toggle live mode
  r           re-fetch
  ↑↓ / j k    navigate rows
  o           open selected tx in explorer
  c           copy selected tx hash
  q           quit

Examples:
  txdash watch 0xd8dA6BF26964aF9D7eEd9e03E53415D37aA96045 --live
  txdash watch --interval 30s`,
	Args:        cobra.MaximumNArgs(1),
	Annotations: map[string]string{annotationTUI: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		address, err := resolveAddress(args)
		if err != nil {
			return err
		}
		key, err := resolveKey(watchKey)
		if err != nil {
			return err
		}
		return runWatch(cmd.Context(), key, address)
	},
}

func runWatch(parent context.Context, key, address string) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	src, net, err := newSource(m)
	if err != nil {
		return err
	}

	interval := cfg.PollIntervalDuration()
	if watchInterval > 0 {
		interval = watchInterval
	}

	var prog *tea.Program
	notifiers := notify.Multi{
		notify.Func(func(_ context.Context, ev poller.Event) error {
			prog.Send(ui.NewTxMsg{Event: ev})
			return nil
		}),
	}
	if cfg.NATSURL != "" {
		nc, err := notify.ConnectNATS(cfg.NATSURL, cfg.NATSSubject, log)
		if err != nil {
			return err
		}
		defer nc.Close()
		notifiers = append(notifiers, nc)
	}

	engine := poller.New(src, session.New(), poller.Config{
		Interval:    interval,
		SettleDelay: cfg.SettleDelayDuration(),
	},
		poller.WithNotifier(notifiers),
		poller.WithLogger(log),
		poller.WithMetrics(m),
	)
	engine.SetLive(watchLive)

	if cfg.MetricsAddr != "" {
		go func() {
			if err := metrics.Serve(ctx, cfg.MetricsAddr, reg, log); err != nil {
				log.Error().Err(err).Msg("metrics server stopped")
			}
		}()
	}

	if err := cfg.RememberAddress(address); err != nil {
		log.Warn().Err(err).Msg("could not save recent address")
	}

	model := ui.NewDashboard(ctx, engine, ui.DashboardOptions{
		Credential: key,
		Address:    address,
		Network:    net,
		ToastFor:   cfg.SettleDelayDuration(),
		AutoFetch:  true,
	})
	prog = tea.NewProgram(model, tea.WithAltScreen(), tea.WithInput(os.Stdin), tea.WithOutput(os.Stdout))

	done := make(chan error, 1)
	go func() { done <- engine.Run(ctx) }()

	_, err = prog.Run()
	cancel()
	engine.Stop()
	if runErr := <-done; runErr != nil && !errors.Is(runErr, context.Canceled) {
		log.Error().Err(runErr).Msg("poll loop stopped")
	}
	return err
}

func init() {
	watchCmd.Flags().BoolVar(&watchLive, "live", false, "start with live mode on")
	watchCmd.Flags().DurationVar(&watchInterval, "interval", 0, "poll interval (default: poll_interval from config)")
	watchCmd.Flags().StringVar(&watchKey, "key", "", "explorer API key")
}

package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"FinDesk/internal/config"
	"FinDesk/internal/market"
	"FinDesk/internal/model"
	"FinDesk/internal/poller"
)

// clearScreen moves the cursor home and clears the terminal.
const clearScreen = "\033[H\033[2J"

func newWatchCmd(cfgPath *string) *cobra.Command {
	var timeframe, interval string
	cmd := &cobra.Command{
		Use:   "watch SYMBOL",
		Short: "Mount a live chart view in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*cfgPath)
			if err != nil {
				return err
			}
			tf, err := model.ParseTimeframe(timeframe)
			if err != nil {
				return err
			}
			opts := market.Options{Symbol: args[0], Timeframe: tf}
			if interval != "" {
				if opts.Interval, err = model.ParseInterval(interval); err != nil {
					return err
				}
			}
			return watch(cmd, cfg, opts)
		},
	}
	cmd.Flags().StringVar(&timeframe, "timeframe", string(model.Timeframe1M), "history window (1D, 1W, 1M, 3M, 1Y, 5Y, MAX)")
	cmd.Flags().StringVar(&interval, "interval", "", "polling interval (5s, 10s, 15s, 30s, 60s)")
	return cmd
}

// watch mounts a single view and redraws it on every update until
// interrupted.
func watch(cmd *cobra.Command, cfg *config.Config, opts market.Options) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	p, err := newProvider(cfg)
	if err != nil {
		return err
	}
	sched := poller.NewScheduler()
	sched.Start()
	defer sched.Stop()

	views := market.NewManager(ctx, market.Deps{
		Provider:          p,
		Scheduler:         sched,
		HistoricalTimeout: cfg.Polling.HistoricalTimeout,
		LiveTailSize:      cfg.Polling.LiveTailSize,
		DefaultInterval:   cfg.Polling.DefaultInterval,
	}, 1)
	defer views.Close()

	v, err := views.Create(opts)
	if err != nil {
		return err
	}
	states, cancel := v.Subscribe(4)
	defer cancel()

	out := cmd.OutOrStdout()
	for {
		select {
		case <-ctx.Done():
			return nil
		case st, ok := <-states:
			if !ok {
				return nil
			}
			fmt.Fprint(out, clearScreen+renderState(st)+"\n")
		}
	}
}

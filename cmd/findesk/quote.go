package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"FinDesk/internal/model"
	"FinDesk/internal/provider"
)

func newQuoteCmd(cfgPath *string) *cobra.Command {
	var timeframe string
	cmd := &cobra.Command{
		Use:   "quote SYMBOL",
		Short: "Fetch one quote and its historical series",
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
			symbol, err := provider.CleanSymbol(args[0])
			if err != nil {
				return err
			}
			p, err := newProvider(cfg)
			if err != nil {
				return err
			}
			q, err := p.GetQuote(cmd.Context(), symbol)
			if err != nil {
				return err
			}
			series, err := p.GetHistorical(cmd.Context(), symbol, tf)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), panelStyle.Render(renderQuote(q)+"\n"+renderSeries(series)))
			return nil
		},
	}
	cmd.Flags().StringVar(&timeframe, "timeframe", string(model.Timeframe1M), "history window (1D, 1W, 1M, 3M, 1Y, 5Y, MAX)")
	return cmd
}

package cli

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"keylevels/internal/performance"
)

func newWarmCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "warm <ticker>...",
		Short: "Precompute key levels for a set of tickers",
		Long: `Precompute key levels for multiple tickers so later requests hit
the cache. Tickers are processed concurrently by a bounded worker pool.`,
		Example: `  keylevels warm AAPL MSFT TSLA
  keylevels warm AAPL MSFT --timeframe 4h --workers 2`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
			defer cancel()

			timeframe, lookback, err := resolveWindow(cmd)
			if err != nil {
				output.Error("%v", err)
				return err
			}

			svc, cleanup, err := buildService(app)
			if err != nil {
				return err
			}
			defer cleanup()

			workers, _ := cmd.Flags().GetInt("workers")
			pool := performance.NewWorkerPool(workers)
			pool.Start()
			defer pool.Stop()

			type outcome struct {
				ticker string
				zones  int
				err    error
			}
			results := make([]outcome, len(args))

			var wg sync.WaitGroup
			for i, raw := range args {
				i, ticker := i, strings.ToUpper(raw)
				wg.Add(1)
				ok := pool.Submit(func() {
					defer wg.Done()
					levels, err := svc.GetKeyLevels(ctx, ticker, timeframe, lookback, app.Config.Algorithm)
					if err != nil {
						results[i] = outcome{ticker: ticker, err: err}
						return
					}
					results[i] = outcome{ticker: ticker, zones: len(levels.Zones)}
				})
				if !ok {
					wg.Done()
					results[i] = outcome{ticker: ticker, err: ctx.Err()}
				}
			}
			wg.Wait()

			failed := 0
			for _, r := range results {
				if r.err != nil {
					failed++
					output.Error("%s: %v", r.ticker, r.err)
					continue
				}
				output.Success("%s: %d zones cached", r.ticker, r.zones)
			}
			if failed > 0 {
				output.Warning("%d of %d tickers failed", failed, len(args))
			}
			return nil
		},
	}

	addWindowFlags(cmd)
	cmd.Flags().Int("workers", 4, "concurrent workers")

	return cmd
}

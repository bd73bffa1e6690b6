package cli

import (
	"context"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

func newLevelsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "levels <ticker>",
		Short: "Detect key support/resistance zones for a ticker",
		Long: `Detect key support and resistance zones for a ticker.

Swing pivots are clustered into price zones using a volatility-scaled
tolerance, then scored by touch count, reaction strength, and recency.
The strongest zones are shown first.`,
		Example: `  keylevels levels AAPL
  keylevels levels MSFT --timeframe 4h
  keylevels levels TSLA --max-zones 10 --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
			defer cancel()

			ticker := strings.ToUpper(args[0])
			timeframe, lookback, err := resolveWindow(cmd)
			if err != nil {
				output.Error("%v", err)
				return err
			}

			params := app.Config.Algorithm
			if n, _ := cmd.Flags().GetInt("pivot-window"); n > 0 {
				params.PivotWindow = n
			}
			if n, _ := cmd.Flags().GetInt("max-zones"); n > 0 {
				params.MaxZones = n
			}
			if f, _ := cmd.Flags().GetFloat64("atr-multiplier"); f > 0 {
				params.ATRMultiplier = f
			}
			if err := params.Validate(); err != nil {
				output.Error("%v", err)
				return err
			}

			svc, cleanup, err := buildService(app)
			if err != nil {
				return err
			}
			defer cleanup()

			levels, err := svc.GetKeyLevels(ctx, ticker, timeframe, lookback, params)
			if err != nil {
				output.Error("Failed to compute key levels: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(levels)
			}

			output.Bold("%s  %s  %d day lookback", levels.Ticker, levels.Timeframe, levels.Lookback)
			if len(levels.Zones) == 0 {
				output.Warning("No key levels found")
				return nil
			}

			output.Printf("%-12s %-26s %-12s %8s %8s %-17s\n",
				"TYPE", "RANGE", "STRENGTH", "CONF", "TOUCHES", "LAST TOUCH")
			for _, z := range levels.Zones {
				output.Printf("%-12s %-26s %s %7.0f%% %8d %-17s\n",
					output.ZoneKindLabel(z.Type),
					FormatRange(z.PriceLow, z.PriceHigh),
					FormatStrength(z.Strength),
					z.Confidence,
					z.Touches,
					FormatTime(z.LastTouchTime))
			}
			return nil
		},
	}

	addWindowFlags(cmd)
	cmd.Flags().Int("pivot-window", 0, "pivot detection window (overrides config)")
	cmd.Flags().Int("max-zones", 0, "maximum zones to return (overrides config)")
	cmd.Flags().Float64("atr-multiplier", 0, "clustering tolerance in ATR multiples (overrides config)")

	return cmd
}

package cli

import (
	"context"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"keylevels/internal/errors"
	"keylevels/internal/models"
)

func errUnsupportedTimeframe(raw string) error {
	return errors.Wrapf(errors.ErrUnsupportedTimeframe, "%q (supported: 1d, 4h, 1h, 15m)", raw)
}

func newDataCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "data <ticker>",
		Short: "Fetch historical OHLCV bars for a ticker",
		Long: `Fetch and display historical OHLCV bars for a ticker.

Bars come from the configured provider, with fresh local store data
reused when available.`,
		Example: `  keylevels data AAPL
  keylevels data MSFT --timeframe 1h --lookback 14
  keylevels data TSLA --json`,
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

			svc, cleanup, err := buildService(app)
			if err != nil {
				return err
			}
			defer cleanup()

			data, err := svc.GetMarketData(ctx, ticker, timeframe, lookback)
			if err != nil {
				output.Error("Failed to fetch data: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(data)
			}

			output.Bold("%s  %s  %d bars", data.Ticker, data.Timeframe, len(data.Bars))
			output.Printf("%-17s %10s %10s %10s %10s %10s\n",
				"TIME", "OPEN", "HIGH", "LOW", "CLOSE", "VOLUME")
			for _, bar := range data.Bars {
				output.Printf("%-17s %10.2f %10.2f %10.2f %10.2f %10s\n",
					FormatTime(bar.Time), bar.Open, bar.High, bar.Low, bar.Close,
					FormatVolume(bar.Volume))
			}
			return nil
		},
	}

	addWindowFlags(cmd)
	return cmd
}

// addWindowFlags registers the shared timeframe/lookback flags.
func addWindowFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("timeframe", "t", "1d", "bar timeframe (1d, 4h, 1h, 15m)")
	cmd.Flags().IntP("lookback", "l", 0, "lookback in days (default per timeframe)")
}

// resolveWindow reads and validates the timeframe/lookback flags.
func resolveWindow(cmd *cobra.Command) (models.Timeframe, int, error) {
	raw, _ := cmd.Flags().GetString("timeframe")
	timeframe := models.Timeframe(strings.ToLower(raw))
	if !timeframe.Valid() {
		return "", 0, errUnsupportedTimeframe(raw)
	}
	lookback, _ := cmd.Flags().GetInt("lookback")
	if lookback <= 0 {
		lookback = timeframe.DefaultLookbackDays()
	}
	return timeframe, lookback, nil
}

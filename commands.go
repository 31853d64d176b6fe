package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"google.golang.org/api/option"

	"r3e-sheets/internal"
	"r3e-sheets/internal/gsheets"
	"r3e-sheets/internal/log"
)

func newSaveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "save [car...]",
		Short: "Writes the standings of the given cars (default: all configured cars)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.Config()
			if err != nil {
				return err
			}
			cars := cfg.Cars
			if len(args) > 0 {
				if cars, err = internal.ParseCarIDs(args); err != nil {
					return err
				}
			}
			o, err := newSheetOrchestrator(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			return o.SaveAllCars(cmd.Context(), cars)
		},
	}
}

func newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Keeps the spreadsheet up to date, one pass per interval or trigger",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.Config()
			if err != nil {
				return err
			}
			o, err := newSheetOrchestrator(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			var triggers <-chan []internal.CarID
			if cfg.Schedule.TriggerFile != "" {
				w := internal.NewRefreshWatcher(cfg.Schedule.TriggerFile)
				if err := w.Start(ctx); err != nil {
					return err
				}
				triggers = w.Triggers()
			}
			err = o.Watch(ctx, triggers)
			if ctx.Err() != nil {
				log.Info("Watch stopped")
				return nil
			}
			return err
		},
	}
	opts.registerWatch(cmd.Flags())
	return cmd
}

func newLookupCmd() *cobra.Command {
	var car string
	var track int
	cmd := &cobra.Command{
		Use:   "lookup",
		Short: "Prints the standings of one car on one layout",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.Config()
			if err != nil {
				return err
			}
			carID := internal.CarID(car)
			if err := carID.Validate(); err != nil {
				return err
			}
			gd, err := internal.LoadGameData(cfg.GameDataFile)
			if err != nil {
				return err
			}
			o := NewOrchestrator(cfg, gd, internal.NewAPIClient(cfg.Leaderboard), nil)
			combo, res, err := o.Lookup(cmd.Context(), carID, track)
			if err != nil {
				return err
			}
			return printResult(cmd, cfg.Drivers, combo, res)
		},
	}
	cmd.Flags().StringVar(&car, "car", "", "car id, either <id> or class-<id>")
	cmd.Flags().IntVar(&track, "track", 0, "layout id")
	_ = cmd.MarkFlagRequired("car")
	_ = cmd.MarkFlagRequired("track")
	return cmd
}

func newTracksCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tracks",
		Short: "Lists the layouts in processing order",
		RunE: func(cmd *cobra.Command, args []string) error {
			gd, err := internal.LoadGameData(opts.gameData)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, t := range gd.GetTracks() {
				fmt.Fprintf(w, "%d\t%s\n", t.LayoutID, t.Name)
			}
			return w.Flush()
		},
	}
}

func printResult(cmd *cobra.Command, drivers []string, combo internal.Combo, res internal.LeaderboardResult) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s / %s\n", combo.CarName, combo.Track.Name)
	if res.Empty() {
		fmt.Fprintln(out, "no lap recorded")
		return nil
	}
	fmt.Fprintf(out, "World record: %s (%d drivers)\n", res.WorldRecord, res.Total)
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, driver := range drivers {
		d, ok := res.Driver(driver)
		if !ok {
			fmt.Fprintf(w, "%s\t-\t-\n", driver)
			continue
		}
		fmt.Fprintf(w, "%s\t%s\t%d/%d\n", driver, d.LapTime, d.Rank, res.Total)
	}
	return w.Flush()
}

// newSheetOrchestrator wires the leaderboard client and the authorized
// spreadsheet client
func newSheetOrchestrator(ctx context.Context, cfg internal.Config) (*Orchestrator, error) {
	gd, err := internal.LoadGameData(cfg.GameDataFile)
	if err != nil {
		return nil, err
	}
	ts, err := gsheets.TokenSource(ctx, cfg.Sheet.CredentialsFile, cfg.Sheet.TokenFile,
		func(authURL string) {
			fmt.Fprintf(os.Stderr, "Open the following link in your browser to authorize access:\n%s\n", authURL)
		})
	if err != nil {
		return nil, err
	}
	client, err := gsheets.New(ctx, cfg.Sheet.SpreadsheetID, option.WithTokenSource(ts))
	if err != nil {
		return nil, err
	}
	return NewOrchestrator(cfg, gd, internal.NewAPIClient(cfg.Leaderboard), client), nil
}

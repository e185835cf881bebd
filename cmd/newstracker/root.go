package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"NewsTracker/internal/app"
	"NewsTracker/internal/config"
	"NewsTracker/internal/logging"
)

const dateLayout = "2006-01-02"

type cli struct {
	cfgFile  string
	verbose  bool
	scrape   int
	maintain bool

	cfg      config.Config
	logger   *slog.Logger
	closeLog func() error
	app      *app.Application
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:   "newstracker",
		Short: "Track news sentiment about configured topics",
		Long: `newstracker pulls daily articles about each configured topic from NewsAPI,
classifies their sentiment toward the topic and upserts them into the articles table.

Example usage:
  newstracker --scrape 7            # backfill the 7 days ending at SCRAPING_END_DATE
  newstracker --scrape -1           # backfill until the API has no older data
  newstracker --maintain            # run every day at scheduler.at
  newstracker --scrape 3 --maintain # backfill, then keep running daily`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup()
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return c.close()
		},
		RunE: c.runRoot,
	}

	root.PersistentFlags().StringVar(&c.cfgFile, "config", "", "YAML config file (overrides NEWSTRACKER_CONFIG)")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "debug logging")
	root.Flags().IntVarP(&c.scrape, "scrape", "s", 0, "scrape this many days ending at the configured end date (-1 for all)")
	root.Flags().BoolVarP(&c.maintain, "maintain", "m", false, "keep the database current by running every day")

	root.AddCommand(
		newMigrateCmd(c),
		newCaptureCmd(c),
		newReplayCmd(c),
		newReportCmd(c),
	)
	return root
}

func (c *cli) setup() error {
	if c.cfgFile != "" {
		if err := os.Setenv("NEWSTRACKER_CONFIG", c.cfgFile); err != nil {
			return fmt.Errorf("set config path: %w", err)
		}
	}
	c.cfg = config.Load()

	level := c.cfg.Logging.Level
	if c.verbose {
		level = "debug"
	}
	logger, closeLog, err := logging.NewWithFile(level, c.cfg.Logging.File)
	if err != nil {
		return err
	}
	c.logger = logger
	c.closeLog = closeLog

	application, err := app.New(c.cfg, logger)
	if err != nil {
		return err
	}
	c.app = application
	return nil
}

func (c *cli) close() error {
	var err error
	if c.app != nil {
		err = c.app.Close()
	}
	if c.closeLog != nil {
		if closeErr := c.closeLog(); err == nil {
			err = closeErr
		}
	}
	return err
}

func (c *cli) runRoot(cmd *cobra.Command, args []string) error {
	scrapeSet := cmd.Flags().Changed("scrape") && c.scrape != 0
	if !scrapeSet && !c.maintain {
		return cmd.Help()
	}

	ctx, stop := signalContext(cmd.Context())
	defer stop()

	if scrapeSet {
		var days *int
		if c.scrape > 0 {
			days = &c.scrape
		} else if c.scrape != -1 {
			return fmt.Errorf("--scrape must be positive or -1, got %d", c.scrape)
		}
		if err := c.app.Scrape(ctx, days); err != nil {
			return err
		}
	}

	if c.maintain {
		return c.app.Maintain(ctx)
	}
	return nil
}

func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

func parseDay(value string, loc *time.Location) (time.Time, error) {
	if value == "" {
		now := time.Now().In(loc)
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc), nil
	}
	day, err := time.ParseInLocation(dateLayout, value, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", value, err)
	}
	return day, nil
}

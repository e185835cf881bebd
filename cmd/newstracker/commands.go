package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newMigrateCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the articles table if it does not exist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext(cmd.Context())
			defer stop()

			if err := c.app.Migrate(ctx); err != nil {
				return err
			}
			c.logger.Info("schema ready", "driver", c.cfg.Database.Driver)
			return nil
		},
	}
}

func newCaptureCmd(c *cli) *cobra.Command {
	var topic, date, out string

	cmd := &cobra.Command{
		Use:   "capture",
		Short: "Save one topic/day batch from the search API to a JSON file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext(cmd.Context())
			defer stop()

			day, err := parseDay(date, c.cfg.Scheduler.Location())
			if err != nil {
				return err
			}
			if out == "" {
				out = fmt.Sprintf("%s-%s.json", slug(topic), day.Format(dateLayout))
			}

			n, err := c.app.Capture(ctx, topic, day, out)
			if err != nil {
				return err
			}
			c.logger.Info("batch captured", "topic", topic, "day", day.Format(dateLayout), "articles", n, "path", out)
			return nil
		},
	}

	cmd.Flags().StringVar(&topic, "topic", "", "topic to query")
	cmd.Flags().StringVar(&date, "date", "", "day to fetch (YYYY-MM-DD, default today)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default <topic>-<date>.json)")
	_ = cmd.MarkFlagRequired("topic")
	return cmd
}

func newReplayCmd(c *cli) *cobra.Command {
	var topic, file string

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Classify and store a batch saved by capture",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext(cmd.Context())
			defer stop()

			report, err := c.app.Replay(ctx, topic, file)
			if err != nil {
				return err
			}
			c.logger.Info("replay finished",
				"topic", report.Topic,
				"fetched", report.Fetched,
				"stored", report.Stored,
				"invalid", report.Invalid,
				"unknown", report.Unknown,
				"failed", report.Failed,
			)
			return nil
		},
	}

	cmd.Flags().StringVar(&topic, "topic", "", "topic the batch was fetched for")
	cmd.Flags().StringVarP(&file, "file", "f", "", "snapshot file")
	_ = cmd.MarkFlagRequired("topic")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func newReportCmd(c *cli) *cobra.Command {
	var topic, from, to string

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print daily sentiment counts for a topic",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext(cmd.Context())
			defer stop()

			loc := c.cfg.Scheduler.Location()
			end, err := parseDay(to, loc)
			if err != nil {
				return err
			}
			end = end.AddDate(0, 0, 1)

			start := end.AddDate(0, 0, -7)
			if from != "" {
				if start, err = parseDay(from, loc); err != nil {
					return err
				}
			}

			rows, err := c.app.Report(ctx, topic, start, end)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "DAY\tSENTIMENT\tCOUNT")
			for _, row := range rows {
				fmt.Fprintf(w, "%s\t%s\t%d\n", row.Day.Format(dateLayout), row.Sentiment, row.Count)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&topic, "topic", "", "topic to report on")
	cmd.Flags().StringVar(&from, "from", "", "first day (YYYY-MM-DD, default a week before --to)")
	cmd.Flags().StringVar(&to, "to", "", "last day, inclusive (YYYY-MM-DD, default today)")
	_ = cmd.MarkFlagRequired("topic")
	return cmd
}

func slug(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), "-"))
}

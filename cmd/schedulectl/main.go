package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"meetup_bot/internal/app"
	"meetup_bot/internal/config"
	"meetup_bot/internal/domain"
	"meetup_bot/internal/export"
	"meetup_bot/internal/logging"
	"meetup_bot/internal/schedule"
	"meetup_bot/internal/service"
)

const usage = `usage: schedulectl [-config path] <command> [flags]

commands:
  list                         show the weekly schedule
  check [-day name]            decide whether the digest would be posted now
  init                         create or correct the weekly schedule from config
  snooze [-day name] <mode>    snooze a day (modes: 5_minutes, next_scheduled, rest_of_week)
  events [-format text|json|ics]  print upcoming events without posting
`

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	logger := logging.New("info", "json")

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger = logging.New(cfg.LogLevel, "text")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	if err := run(ctx, a, flag.Arg(0), flag.Args()[1:], os.Stdout, logger); err != nil {
		logger.Error(flag.Arg(0)+" failed", "error", err)
		a.Close()
		os.Exit(1)
	}
}

func run(ctx context.Context, a *app.App, cmd string, args []string, out io.Writer, logger *slog.Logger) error {
	now := time.Now()

	switch cmd {
	case "list":
		records, err := a.Schedules.List(ctx, now)
		if err != nil {
			return err
		}
		return printSchedules(out, records, a.Location, now)

	case "check":
		fs := flag.NewFlagSet("check", flag.ContinueOnError)
		dayName := fs.String("day", "", "weekday to check (default today)")
		if err := fs.Parse(args); err != nil {
			return err
		}
		day, err := resolveDay(*dayName, now, a.Location)
		if err != nil {
			return err
		}
		result, err := a.Schedules.CheckDay(ctx, day, now)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "day:        %s\n", result.Day)
		fmt.Fprintf(out, "publish:    %t\n", result.Publish)
		fmt.Fprintf(out, "reason:     %s\n", result.Reason)
		if !result.ScheduledAt.IsZero() {
			fmt.Fprintf(out, "scheduled:  %s\n", result.ScheduledAt.In(a.Location).Format(time.RFC1123))
			fmt.Fprintf(out, "difference: %d min\n", result.DiffMinutes)
		}
		fmt.Fprintf(out, "now:        %s\n", now.In(a.Location).Format(time.RFC1123))
		return nil

	case "init":
		changed, err := a.Schedules.InitializeWeek(ctx, now)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%d day(s) created or corrected\n", changed)
		return nil

	case "snooze":
		fs := flag.NewFlagSet("snooze", flag.ContinueOnError)
		dayName := fs.String("day", "", "weekday to snooze (default today)")
		if err := fs.Parse(args); err != nil {
			return err
		}
		if fs.NArg() != 1 {
			return fmt.Errorf("expected one mode, one of %v", schedule.Modes)
		}
		day, err := resolveDay(*dayName, now, a.Location)
		if err != nil {
			return err
		}
		rec, err := a.Schedules.Snooze(ctx, day, fs.Arg(0), now)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s snoozed until %s\n", day, rec.SnoozeUntil.In(a.Location).Format(time.RFC1123))
		return nil

	case "events":
		fs := flag.NewFlagSet("events", flag.ContinueOnError)
		format := fs.String("format", "text", "output format: text, json or ics")
		if err := fs.Parse(args); err != nil {
			return err
		}
		events, stats, err := a.Digest.Events(ctx, now)
		if err != nil {
			return err
		}
		logger.Info("aggregated", "kept", stats.Kept, "failed_sources", stats.Failed)
		return printEvents(out, events, *format, a.Location, now)
	}

	return fmt.Errorf("unknown command %q", cmd)
}

func resolveDay(name string, now time.Time, loc *time.Location) (time.Weekday, error) {
	if name == "" {
		return now.In(loc).Weekday(), nil
	}
	return schedule.ParseWeekday(name)
}

func printSchedules(out io.Writer, records []domain.ScheduleRecord, loc *time.Location, now time.Time) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DAY\tUTC\tLOCAL\tSTATE\tSNOOZE UNTIL\tLAST CHANGED")
	for _, r := range records {
		local, err := schedule.LocalTime(r.ScheduleTime, loc, now)
		if err != nil {
			local = "?"
		}
		until := "-"
		if r.SnoozeUntil != nil {
			until = r.SnoozeUntil.In(loc).Format("Mon Jan 2 15:04")
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			r.Day, r.ScheduleTime, local, r.State(now), until,
			r.LastChanged.In(loc).Format("2006-01-02 15:04"),
		)
	}
	return tw.Flush()
}

func printEvents(out io.Writer, events []domain.Event, format string, loc *time.Location, now time.Time) error {
	switch strings.ToLower(format) {
	case "json":
		return export.WriteJSON(out, events)
	case "ics":
		return export.WriteICS(out, events, "Meetup events", now)
	case "text":
		if len(events) == 0 {
			_, err := fmt.Fprintln(out, "no upcoming events")
			return err
		}
		_, err := fmt.Fprintln(out, service.FormatDigest(events, loc))
		return err
	}
	return fmt.Errorf("unknown format %q", format)
}

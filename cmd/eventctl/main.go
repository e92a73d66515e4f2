package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/k-negishi/event-scheduler/internal/config"
	"github.com/k-negishi/event-scheduler/internal/domain"
	"github.com/k-negishi/event-scheduler/internal/gateway"
	"github.com/k-negishi/event-scheduler/internal/logging"
	"github.com/k-negishi/event-scheduler/internal/usecase"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		slog.Error("Application failed", "error", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "eventctl",
		Usage: "Build calendar events and export Google Calendar schedules as iCalendar.",
		Commands: []*cli.Command{
			demoCommand(),
			exportCommand(),
		},
	}
}

func demoCommand() *cli.Command {
	return &cli.Command{
		Name:  "demo",
		Usage: "Build a sample event and print it.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "name", Value: "my_name", Usage: "Event name (max 25 characters)."},
			&cli.StringSliceFlag{Name: "attendee", Usage: "Attendee to add. May be repeated."},
			&cli.StringSliceFlag{Name: "label", Usage: "Label to add. May be repeated."},
		},
		Action: func(c *cli.Context) error {
			e, err := domain.NewEvent(
				c.String("name"),
				time.Date(2024, 1, 7, 15, 16, 0, 0, time.Local),
				30*24*time.Hour,
				domain.WithAttendees(c.StringSlice("attendee")...),
				domain.WithLabels(c.StringSlice("label")...),
			)
			if err != nil {
				return fmt.Errorf("failed to build event: %w", err)
			}
			_, err = fmt.Fprint(c.App.Writer, e)
			return err
		},
	}
}

func exportCommand() *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export Google Calendar events as iCalendar.",
		Flags: []cli.Flag{
			&cli.TimestampFlag{Name: "date", Layout: time.DateOnly, Usage: "First day to export (default: today)."},
			&cli.IntFlag{Name: "days", Value: 1, Usage: "Number of days to export."},
			&cli.PathFlag{Name: "out", Usage: "Output file (default: stdout)."},
		},
		Action: func(c *cli.Context) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			logger := logging.Setup(cfg.LogLevel)

			loc, err := cfg.Location()
			if err != nil {
				return err
			}

			if c.Int("days") < 1 {
				return fmt.Errorf("--days must be positive, got %d", c.Int("days"))
			}
			days := exportDays(startDay(c.Timestamp("date"), loc), c.Int("days"))

			repo, err := gateway.NewGoogleCalendarRepository(c.Context, []byte(cfg.GoogleCredentials), cfg.CalendarID, loc)
			if err != nil {
				return fmt.Errorf("failed to create google calendar repository: %w", err)
			}

			uc := usecase.NewExportScheduleUseCase(repo.WithLogger(logger), gateway.NewICalExporter(cfg.ExportProductID), logger)
			var count int
			err = writeOutput(c.App.Writer, c.Path("out"), func(w io.Writer) error {
				var err error
				count, err = uc.Execute(c.Context, w, days...)
				return err
			})
			if err != nil {
				return fmt.Errorf("export failed: %w", err)
			}
			logger.Info("Export finished.", "count", count, "days", len(days))
			return nil
		},
	}
}

// writeOutput runs write against stdout, or against a newly created file when path is set.
func writeOutput(stdout io.Writer, path string, write func(io.Writer) error) error {
	if path == "" {
		return write(stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	return writeAndClose(f, path, write)
}

// writeAndClose closes wc after write. A close error is returned only when write succeeded.
func writeAndClose(wc io.WriteCloser, name string, write func(io.Writer) error) (err error) {
	defer func() {
		if cerr := wc.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close %s: %w", name, cerr)
		}
	}()
	return write(wc)
}

// startDay returns midnight of date (or of today when date is nil) in loc.
func startDay(date *time.Time, loc *time.Location) time.Time {
	d := time.Now().In(loc)
	if date != nil {
		d = *date
	}
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, loc)
}

func exportDays(first time.Time, n int) []time.Time {
	days := make([]time.Time, n)
	for i := range days {
		days[i] = first.AddDate(0, 0, i)
	}
	return days
}

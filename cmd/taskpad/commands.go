package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/urfave/cli/v3"

	"taskpad/internal/app"
	"taskpad/internal/config"
	"taskpad/internal/todo"
	"taskpad/internal/ui"
)

func newRootCommand() *cli.Command {
	return &cli.Command{
		Name:  "taskpad",
		Usage: "A terminal todo list with undo and due-date reminders",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to config file",
				Value:   config.ResolveConfigPath(),
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug logging",
			},
		},
		Action: runTUI,
		Commands: []*cli.Command{
			newExportCommand(),
			newListCommand(),
		},
	}
}

func newExportCommand() *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Write all tasks to todos_<date>.json",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "dir",
				Usage: "Directory for the export file (defaults to export_dir from the config)",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return withApp(ctx, cmd, func(a *app.App) error {
				dir := cmd.String("dir")
				if dir == "" {
					dir = a.Config.ExportDir
				}
				path, err := todo.ExportFile(dir, a.Tasks.Tasks(), time.Now())
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.Root().Writer, path)
				return nil
			})
		},
	}
}

func newListCommand() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "Print the task list",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "filter",
				Usage: "all, active or completed",
			},
			&cli.StringFlag{
				Name:  "search",
				Usage: "Only show tasks containing this text",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return withApp(ctx, cmd, func(a *app.App) error {
				filter := a.Config.Filter()
				if v := cmd.String("filter"); v != "" {
					f, err := todo.ParseFilter(v)
					if err != nil {
						return err
					}
					filter = f
				}
				view := todo.Render(a.Tasks.Tasks(), filter, cmd.String("search"))
				return printView(cmd.Root().Writer, view)
			})
		},
	}
}

func runTUI(ctx context.Context, cmd *cli.Command) error {
	cfg, logger, closeLog, err := setup(cmd)
	if err != nil {
		return err
	}
	defer closeLog()

	n := ui.NewNotifier()
	a := app.Open(ctx, cfg, n, logger)
	defer a.Close()
	if a.StartErr == nil {
		a.RearmReminders()
	}
	return ui.Run(a, n)
}

// withApp opens the app for a one-shot command. Unlike the TUI, these commands
// fail outright when the task store cannot be opened.
func withApp(ctx context.Context, cmd *cli.Command, fn func(a *app.App) error) error {
	cfg, logger, closeLog, err := setup(cmd)
	if err != nil {
		return err
	}
	defer closeLog()

	a := app.Open(ctx, cfg, nil, logger)
	defer a.Close()
	if a.StartErr != nil {
		return fmt.Errorf("opening task store: %w", a.StartErr)
	}
	return fn(a)
}

// setup loads the config and points slog at the log file; the terminal
// belongs to the UI.
func setup(cmd *cli.Command) (config.Config, *slog.Logger, func(), error) {
	cfg, err := config.LoadOrCreate(cmd.String("config"))
	if err != nil {
		return cfg, nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	level := slog.LevelInfo
	if cmd.Bool("debug") {
		level = slog.LevelDebug
	}

	var w io.Writer = io.Discard
	closeLog := func() {}
	if cfg.LogPath != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.LogPath), 0o755); err != nil {
			return cfg, nil, nil, fmt.Errorf("creating log directory: %w", err)
		}
		f, err := os.OpenFile(cfg.LogPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return cfg, nil, nil, fmt.Errorf("opening log file: %w", err)
		}
		w = f
		closeLog = func() { f.Close() }
	}

	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return cfg, logger, closeLog, nil
}

func printView(w io.Writer, view todo.View) error {
	if view.Empty {
		if _, err := fmt.Fprintln(w, "No tasks."); err != nil {
			return err
		}
	}
	for _, r := range view.Rows {
		box := "[ ]"
		if r.Task.Completed {
			box = "[x]"
		}
		var meta []string
		if r.Task.Priority != todo.PriorityNone {
			meta = append(meta, string(r.Task.Priority))
		}
		if r.DueLabel != "" {
			meta = append(meta, "Due: "+r.DueLabel)
		}
		if r.Task.Category != "" {
			meta = append(meta, "#"+r.Task.Category)
		}
		line := box + " " + r.Task.Text
		if len(meta) > 0 {
			line += " (" + strings.Join(meta, ", ") + ")"
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "%s • %d%% complete\n", view.Stats, view.Stats.Percent)
	return err
}

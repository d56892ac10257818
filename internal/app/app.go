// Package app wires storage, settings, the task store and the reminder
// scheduler into one object with an explicit open/close lifecycle.
package app

import (
	"context"
	"log/slog"

	"taskpad/internal/config"
	"taskpad/internal/notify"
	"taskpad/internal/settings"
	"taskpad/internal/storage"
	"taskpad/internal/todo"
)

type App struct {
	Config    config.Config
	Storage   *storage.Store
	Tasks     *todo.Store
	Prefs     *settings.Live
	Reminders *notify.Scheduler

	// StartErr is set when the task store could not be initialised. The app
	// still runs, with an empty list and every task operation failing.
	StartErr error

	logger *slog.Logger
}

// Open builds the application. Storage failures do not abort it; they are
// reported through StartErr.
func Open(ctx context.Context, cfg config.Config, notifier notify.Notifier, logger *slog.Logger) *App {
	if logger == nil {
		logger = slog.Default()
	}
	a := &App{Config: cfg, logger: logger}

	st, err := storage.Open(cfg.DBPath)
	if err != nil {
		logger.Error("open storage failed", "path", cfg.DBPath, "error", err)
		a.StartErr = err
	} else {
		a.Storage = st
	}

	prefs := settings.Defaults()
	if a.Storage != nil {
		if loaded, err := settings.Load(ctx, a.Storage); err != nil {
			logger.Warn("load settings failed, using defaults", "error", err)
		} else {
			prefs = loaded
		}
	}
	a.Prefs = settings.NewLive(prefs)

	a.Reminders = notify.New(notify.Config{
		Notifier:   notifier,
		Permission: a.Prefs.Permission,
		Logger:     logger,
	})

	opts := todo.Options{Reminders: a.Reminders, Logger: logger}
	if a.Storage != nil {
		opts.Persister = a.Storage
	}
	a.Tasks = todo.New(opts)
	a.Tasks.SetNotifications(prefs.NotificationsEnabled)

	if a.StartErr == nil {
		if _, err := a.Tasks.Load(ctx); err != nil {
			a.StartErr = err
		}
	}
	return a
}

// RearmReminders schedules reminders for open tasks whose due time is still
// ahead. Timers do not survive a restart, so this runs once after Open.
func (a *App) RearmReminders() int {
	if !a.Tasks.NotificationsEnabled() {
		return 0
	}
	n := 0
	for _, t := range a.Tasks.Tasks() {
		if t.Completed {
			continue
		}
		if a.Reminders.Schedule(t) {
			n++
		}
	}
	if n > 0 {
		a.logger.Info("reminders rearmed", "count", n)
	}
	return n
}

// SaveSettings persists s and applies it to the running app.
func (a *App) SaveSettings(ctx context.Context, s settings.Settings) error {
	a.Prefs.Set(s)
	a.Tasks.SetNotifications(s.NotificationsEnabled)
	if a.Storage == nil {
		return todo.ErrUnavailable
	}
	return settings.Save(ctx, a.Storage, s)
}

func (a *App) Close() error {
	a.Reminders.Stop()
	a.Tasks.Close()
	if a.Storage != nil {
		return a.Storage.Close()
	}
	return nil
}

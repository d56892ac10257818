// Package settings holds the user preferences kept in the local key-value store.
package settings

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"taskpad/internal/notify"
	"taskpad/internal/todo"
)

const (
	KeyDefaultPriority        = "default_priority"
	KeyNotificationsEnabled   = "notifications_enabled"
	KeyNotificationPermission = "notification_permission"
)

// KV is a string key-value store.
type KV interface {
	Setting(ctx context.Context, key string) (string, bool, error)
	PutSettings(ctx context.Context, values map[string]string) error
}

type Settings struct {
	DefaultPriority      todo.Priority
	NotificationsEnabled bool
	Permission           notify.Permission
}

func Defaults() Settings {
	return Settings{
		DefaultPriority:      todo.PriorityMedium,
		NotificationsEnabled: true,
		Permission:           notify.PermissionDefault,
	}
}

// Load reads settings, keeping the default for any key that is missing or malformed.
func Load(ctx context.Context, kv KV) (Settings, error) {
	s := Defaults()

	if v, ok, err := kv.Setting(ctx, KeyDefaultPriority); err != nil {
		return s, err
	} else if ok {
		if p, err := todo.ParsePriority(v); err == nil {
			s.DefaultPriority = p
		}
	}

	if v, ok, err := kv.Setting(ctx, KeyNotificationsEnabled); err != nil {
		return s, err
	} else if ok {
		if b, err := strconv.ParseBool(v); err == nil {
			s.NotificationsEnabled = b
		}
	}

	if v, ok, err := kv.Setting(ctx, KeyNotificationPermission); err != nil {
		return s, err
	} else if ok {
		if p, err := notify.ParsePermission(v); err == nil {
			s.Permission = p
		}
	}
	return s, nil
}

func Save(ctx context.Context, kv KV, s Settings) error {
	err := kv.PutSettings(ctx, map[string]string{
		KeyDefaultPriority:        string(s.DefaultPriority),
		KeyNotificationsEnabled:   strconv.FormatBool(s.NotificationsEnabled),
		KeyNotificationPermission: string(s.Permission),
	})
	if err != nil {
		return fmt.Errorf("saving settings: %w", err)
	}
	return nil
}

// Live holds the current settings. The UI writes it and the reminder
// scheduler reads the permission from it.
type Live struct {
	mu sync.RWMutex
	s  Settings
}

func NewLive(s Settings) *Live {
	return &Live{s: s}
}

func (l *Live) Get() Settings {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.s
}

func (l *Live) Set(s Settings) {
	l.mu.Lock()
	l.s = s
	l.mu.Unlock()
}

func (l *Live) Permission() notify.Permission {
	return l.Get().Permission
}

package alert

import (
	"fmt"
	"time"

	"github.com/Dicklesworthstone/netspeed/internal/persist"
)

// SnoozeStore persists the global snooze deadline. A zero time means not snoozed.
type SnoozeStore interface {
	Load() (time.Time, error)
	Save(until time.Time) error
}

// FileSnoozeStore keeps {"snoozeUntil": ...} in a JSON file.
type FileSnoozeStore struct {
	Path string
}

type snoozeDocument struct {
	SnoozeUntil *time.Time `json:"snoozeUntil"`
}

func (f FileSnoozeStore) Load() (time.Time, error) {
	var doc snoozeDocument
	if err := persist.ReadJSON(f.Path, &doc); err != nil {
		if persist.IsNotExist(err) {
			return time.Time{}, nil
		}
		return time.Time{}, fmt.Errorf("loading snooze state: %w", err)
	}
	if doc.SnoozeUntil == nil {
		return time.Time{}, nil
	}
	return *doc.SnoozeUntil, nil
}

func (f FileSnoozeStore) Save(until time.Time) error {
	var doc snoozeDocument
	if !until.IsZero() {
		doc.SnoozeUntil = &until
	}
	if err := persist.WriteJSON(f.Path, doc); err != nil {
		return fmt.Errorf("saving snooze state: %w", err)
	}
	return nil
}

// MemorySnoozeStore keeps the deadline for the process lifetime only.
type MemorySnoozeStore struct {
	until time.Time
}

func (m *MemorySnoozeStore) Load() (time.Time, error) { return m.until, nil }

func (m *MemorySnoozeStore) Save(until time.Time) error {
	m.until = until
	return nil
}

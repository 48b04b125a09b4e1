package stats

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/Dicklesworthstone/netspeed/internal/model"
	"github.com/Dicklesworthstone/netspeed/internal/persist"
)

// DocumentVersion is written into every saved document.
const DocumentVersion = 1

// Counters are the byte totals of one bucket.
type Counters struct {
	RxBytes uint64 `json:"rxBytes"`
	TxBytes uint64 `json:"txBytes"`
}

func (c *Counters) add(rx, tx uint64) {
	c.RxBytes += rx
	c.TxBytes += tx
}

func (c Counters) totals() model.Totals {
	return model.Totals{Rx: c.RxBytes, Tx: c.TxBytes, Total: c.RxBytes + c.TxBytes}
}

type SessionBucket struct {
	Counters
	StartTime time.Time `json:"startTime"`
}

type DailyBucket struct {
	Counters
	Date string `json:"date"`
}

type WeeklyBucket struct {
	Counters
	WeekStart string `json:"weekStart"`
}

type MonthlyBucket struct {
	Counters
	Month string `json:"month"`
}

// Document is the on-disk statistics schema.
type Document struct {
	Version int           `json:"version"`
	Session SessionBucket `json:"session"`
	Daily   DailyBucket   `json:"daily"`
	Weekly  WeeklyBucket  `json:"weekly"`
	Monthly MonthlyBucket `json:"monthly"`
}

// NewDocument returns an empty document keyed to now.
func NewDocument(now time.Time) Document {
	k := PeriodKeys(now)
	return Document{
		Version: DocumentVersion,
		Session: SessionBucket{StartTime: now},
		Daily:   DailyBucket{Date: k.Date},
		Weekly:  WeeklyBucket{WeekStart: k.WeekStart},
		Monthly: MonthlyBucket{Month: k.Month},
	}
}

// Rollover zeroes every bucket whose key no longer matches now. It reports
// whether anything changed.
func (d *Document) Rollover(now time.Time) bool {
	k := PeriodKeys(now)
	changed := false
	if d.Daily.Date != k.Date {
		d.Daily = DailyBucket{Date: k.Date}
		changed = true
	}
	if d.Weekly.WeekStart != k.WeekStart {
		d.Weekly = WeeklyBucket{WeekStart: k.WeekStart}
		changed = true
	}
	if d.Monthly.Month != k.Month {
		d.Monthly = MonthlyBucket{Month: k.Month}
		changed = true
	}
	if d.Session.StartTime.IsZero() {
		d.Session = SessionBucket{StartTime: now}
		changed = true
	}
	return changed
}

// Clock supplies the current local time.
type Clock interface {
	Now() time.Time
}

// Aggregator owns the statistics document. It is not safe for concurrent
// use; one goroutine drives it.
type Aggregator struct {
	path   string
	clock  Clock
	logger *slog.Logger
	doc    Document
	dirty  bool
}

// Open loads path and rolls stale buckets over immediately. A missing file
// starts empty; an unreadable one is logged and left in place until the next
// successful Save replaces it. An empty path keeps statistics in memory only.
func Open(path string, clock Clock, logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	now := clock.Now()
	a := &Aggregator{path: path, clock: clock, logger: logger, doc: NewDocument(now)}
	if path == "" {
		return a
	}

	var loaded Document
	switch err := persist.ReadJSON(path, &loaded); {
	case err == nil:
		a.doc = loaded
		a.doc.Version = DocumentVersion
		a.dirty = a.doc.Rollover(now)
	case persist.IsNotExist(err):
		a.dirty = true
	default:
		logger.Warn("statistics unreadable, starting fresh", "path", path, "err", err)
		a.dirty = true
	}
	return a
}

// AddTraffic adds validated deltas to every bucket after rolling over stale
// ones. Negative deltas are a counter regression and are rejected.
func (a *Aggregator) AddTraffic(dRx, dTx int64) bool {
	if dRx < 0 || dTx < 0 {
		return false
	}
	a.doc.Rollover(a.clock.Now())
	rx, tx := uint64(dRx), uint64(dTx)
	a.doc.Session.add(rx, tx)
	a.doc.Daily.add(rx, tx)
	a.doc.Weekly.add(rx, tx)
	a.doc.Monthly.add(rx, tx)
	a.dirty = true
	return true
}

// Stats returns a copy of the bucket totals.
func (a *Aggregator) Stats() model.Stats {
	return model.Stats{
		Session: a.doc.Session.totals(),
		Daily:   a.doc.Daily.totals(),
		Weekly:  a.doc.Weekly.totals(),
		Monthly: a.doc.Monthly.totals(),
	}
}

func (a *Aggregator) SessionStart() time.Time { return a.doc.Session.StartTime }

// ResetSession zeroes the session bucket and saves.
func (a *Aggregator) ResetSession() error {
	a.doc.Session = SessionBucket{StartTime: a.clock.Now()}
	a.dirty = true
	return a.Save()
}

// Save writes the document when it changed since the last successful save.
// On failure the in-memory state is kept and the next Save retries.
func (a *Aggregator) Save() error {
	if a.path == "" || !a.dirty {
		return nil
	}
	if err := persist.WriteJSON(a.path, a.doc); err != nil {
		return fmt.Errorf("saving statistics: %w", err)
	}
	a.dirty = false
	a.logger.Debug("statistics saved", "path", a.path)
	return nil
}

// Close flushes pending changes.
func (a *Aggregator) Close() error {
	return a.Save()
}

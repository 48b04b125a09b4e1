// Package alert turns metric values into rate-limited notification requests.
package alert

import (
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/Dicklesworthstone/netspeed/internal/config"
	"github.com/Dicklesworthstone/netspeed/internal/model"
)

type Clock interface {
	Now() time.Time
}

// Metrics is everything one evaluation looks at.
type Metrics struct {
	Network     model.NetworkRate
	CPUPercent  float64
	MemPercent  float64
	Temperature model.Temperature
	// MonthlyBytes is compared against the quota.
	MonthlyBytes uint64
}

// Engine gates notifications behind a per-type cooldown and one global
// snooze deadline. Not safe for concurrent use.
type Engine struct {
	clock  Clock
	store  SnoozeStore
	logger *slog.Logger

	cooldown  time.Duration
	limiters  map[model.AlertType]*rate.Limiter
	lastFired map[model.AlertType]time.Time
	snooze    time.Time
}

// New restores the snooze deadline from store. A nil store keeps it in memory.
func New(clock Clock, store SnoozeStore, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	if store == nil {
		store = &MemorySnoozeStore{}
	}
	e := &Engine{
		clock:     clock,
		store:     store,
		logger:    logger,
		limiters:  make(map[model.AlertType]*rate.Limiter),
		lastFired: make(map[model.AlertType]time.Time),
	}
	until, err := store.Load()
	if err != nil {
		logger.Warn("snooze state unreadable, alerts active", "err", err)
	}
	e.snooze = until
	return e
}

func every(cooldown time.Duration) rate.Limit {
	if cooldown <= 0 {
		return rate.Inf
	}
	return rate.Every(cooldown)
}

func (e *Engine) limiter(t model.AlertType, cooldown time.Duration, now time.Time) *rate.Limiter {
	if cooldown != e.cooldown {
		e.cooldown = cooldown
		for _, lim := range e.limiters {
			lim.SetLimitAt(now, every(cooldown))
		}
	}
	lim, ok := e.limiters[t]
	if !ok {
		lim = rate.NewLimiter(every(cooldown), 1)
		e.limiters[t] = lim
	}
	return lim
}

// fire applies the master switch, the snooze gate and then the cooldown.
// Snooze is checked first so a suppressed tick does not spend the cooldown.
func (e *Engine) fire(n model.Notification, s config.AlertSettings) (model.Notification, bool) {
	if !s.Enabled {
		return model.Notification{}, false
	}
	now := e.clock.Now()
	if e.snoozedAt(now) {
		return model.Notification{}, false
	}
	if !e.limiter(n.Type, s.Cooldown, now).AllowN(now, 1) {
		return model.Notification{}, false
	}
	e.lastFired[n.Type] = now
	n.CreatedAt = now
	e.logger.Info("alert fired", "type", n.Type, "value", n.Value, "threshold", n.Threshold)
	return n, true
}

// CheckNetworkDropout fires when traffic is flowing but at or below the
// dropout threshold. Invalid measurements never fire.
func (e *Engine) CheckNetworkDropout(r model.NetworkRate, s config.AlertSettings) (model.Notification, bool) {
	if !s.NetworkDropout || !r.Valid {
		return model.Notification{}, false
	}
	threshold := s.DropoutMbit * 1e6 / 8
	if r.BytesPerSec <= 0 || r.BytesPerSec > threshold {
		return model.Notification{}, false
	}
	return e.fire(model.Notification{
		Type:      model.AlertNetworkDropout,
		Severity:  model.SeverityWarning,
		Title:     "Network Speed Low",
		Message:   fmt.Sprintf("Network speed dropped to %.1f Mbit/s (threshold: %g Mbit/s)", r.Mbit, s.DropoutMbit),
		Value:     r.Mbit,
		Threshold: s.DropoutMbit,
	}, s)
}

func (e *Engine) CheckCPUHigh(percent float64, s config.AlertSettings) (model.Notification, bool) {
	if !s.CPUHigh || percent < s.CPUPercent {
		return model.Notification{}, false
	}
	return e.fire(model.Notification{
		Type:      model.AlertCPUHigh,
		Severity:  model.SeverityWarning,
		Title:     "High CPU Usage",
		Message:   fmt.Sprintf("CPU usage is at %.1f%% (threshold: %g%%)", percent, s.CPUPercent),
		Value:     percent,
		Threshold: s.CPUPercent,
	}, s)
}

func (e *Engine) CheckMemoryHigh(percent float64, s config.AlertSettings) (model.Notification, bool) {
	if !s.MemoryHigh || percent < s.MemoryPercent {
		return model.Notification{}, false
	}
	return e.fire(model.Notification{
		Type:      model.AlertMemoryHigh,
		Severity:  model.SeverityWarning,
		Title:     "High Memory Usage",
		Message:   fmt.Sprintf("Memory usage is at %.1f%% (threshold: %g%%)", percent, s.MemoryPercent),
		Value:     percent,
		Threshold: s.MemoryPercent,
	}, s)
}

func (e *Engine) CheckTemperatureHigh(t model.Temperature, s config.AlertSettings) (model.Notification, bool) {
	if !s.TemperatureHigh || !t.Valid || t.Celsius < s.TemperatureC {
		return model.Notification{}, false
	}
	return e.fire(model.Notification{
		Type:      model.AlertTemperatureHigh,
		Severity:  model.SeverityDanger,
		Title:     "High Temperature Warning",
		Message:   fmt.Sprintf("Temperature is at %.0f°C (threshold: %g°C)", t.Celsius, s.TemperatureC),
		Value:     t.Celsius,
		Threshold: s.TemperatureC,
	}, s)
}

// QuotaPercent is used/quota*100, or 0 without a quota.
func QuotaPercent(usedBytes uint64, s config.AlertSettings) float64 {
	quota := s.QuotaBytes()
	if quota <= 0 {
		return 0
	}
	return float64(usedBytes) / quota * 100
}

// CheckQuota evaluates the critical band first; inside it the warning is
// never considered while the critical alert is enabled.
func (e *Engine) CheckQuota(usedBytes uint64, s config.AlertSettings) (model.Notification, bool) {
	quota := s.QuotaBytes()
	if quota <= 0 {
		return model.Notification{}, false
	}
	pct := QuotaPercent(usedBytes, s)
	detail := fmt.Sprintf("%.1f%% used (%.1f GB / %.1f GB)", pct, float64(usedBytes)/(1<<30), quota/(1<<30))

	if pct >= s.QuotaCriticalPercent && s.QuotaCritical {
		return e.fire(model.Notification{
			Type:      model.AlertQuotaCritical,
			Severity:  model.SeverityDanger,
			Title:     "Bandwidth Quota Critical",
			Message:   detail,
			Value:     pct,
			Threshold: s.QuotaCriticalPercent,
		}, s)
	}
	if pct >= s.QuotaWarningPercent && s.QuotaWarning {
		return e.fire(model.Notification{
			Type:      model.AlertQuotaWarning,
			Severity:  model.SeverityWarning,
			Title:     "Bandwidth Quota Warning",
			Message:   detail,
			Value:     pct,
			Threshold: s.QuotaWarningPercent,
		}, s)
	}
	return model.Notification{}, false
}

// Evaluate runs every check once and returns what fired, in type order.
func (e *Engine) Evaluate(m Metrics, s config.AlertSettings) []model.Notification {
	var out []model.Notification
	add := func(n model.Notification, ok bool) {
		if ok {
			out = append(out, n)
		}
	}
	add(e.CheckNetworkDropout(m.Network, s))
	add(e.CheckCPUHigh(m.CPUPercent, s))
	add(e.CheckMemoryHigh(m.MemPercent, s))
	add(e.CheckTemperatureHigh(m.Temperature, s))
	add(e.CheckQuota(m.MonthlyBytes, s))
	return out
}

// LastFired returns when t last produced a notification.
func (e *Engine) LastFired(t model.AlertType) (time.Time, bool) {
	at, ok := e.lastFired[t]
	return at, ok
}

func (e *Engine) ResetCooldown(t model.AlertType) {
	delete(e.limiters, t)
	delete(e.lastFired, t)
}

func (e *Engine) ResetAllCooldowns() {
	for _, t := range model.AlertTypes {
		e.ResetCooldown(t)
	}
}

// snoozedAt clears an expired deadline as a side effect.
func (e *Engine) snoozedAt(now time.Time) bool {
	if e.snooze.IsZero() {
		return false
	}
	if now.Before(e.snooze) {
		return true
	}
	e.logger.Info("snooze expired")
	e.setSnooze(time.Time{})
	return false
}

func (e *Engine) setSnooze(until time.Time) {
	e.snooze = until
	if err := e.store.Save(until); err != nil {
		e.logger.Warn("persisting snooze failed", "err", err)
	}
}

// Snooze suppresses every alert type for d.
func (e *Engine) Snooze(d time.Duration) time.Time {
	until := e.clock.Now().Add(d)
	e.setSnooze(until)
	e.logger.Info("alerts snoozed", "until", until)
	return until
}

// Resume ends a snooze early.
func (e *Engine) Resume() {
	if e.snooze.IsZero() {
		return
	}
	e.setSnooze(time.Time{})
	e.logger.Info("alerts resumed")
}

// ToggleSnooze snoozes for d unless already snoozed, in which case it
// resumes. It reports whether alerts are snoozed afterwards.
func (e *Engine) ToggleSnooze(d time.Duration) bool {
	if e.snoozedAt(e.clock.Now()) {
		e.Resume()
		return false
	}
	e.Snooze(d)
	return true
}

// SnoozedUntil returns the active deadline, if any.
func (e *Engine) SnoozedUntil() (time.Time, bool) {
	if !e.snoozedAt(e.clock.Now()) {
		return time.Time{}, false
	}
	return e.snooze, true
}

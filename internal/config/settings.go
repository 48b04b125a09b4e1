package config

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalid wraps every Settings validation failure.
var ErrInvalid = errors.New("invalid settings")

// InterfaceMode selects between automatic ranking and a pinned interface.
type InterfaceMode string

const (
	InterfaceAuto   InterfaceMode = "auto"
	InterfaceManual InterfaceMode = "manual"
)

// Settings is the plain-data snapshot handed to the core on every tick.
type Settings struct {
	Interface         InterfaceSettings `yaml:"interface" json:"interface"`
	DiskDevice        string            `yaml:"disk_device" json:"disk_device"`
	TemperatureSensor string            `yaml:"temperature_sensor" json:"temperature_sensor"`
	TrackStatistics   bool              `yaml:"track_statistics" json:"track_statistics"`
	Alerts            AlertSettings     `yaml:"alerts" json:"alerts"`
	Levels            LevelSettings     `yaml:"levels" json:"levels"`
}

// InterfaceSettings controls network interface selection.
type InterfaceSettings struct {
	Mode          InterfaceMode `yaml:"mode" json:"mode"`
	Pinned        string        `yaml:"pinned" json:"pinned"`
	HideVirtual   bool          `yaml:"hide_virtual" json:"hide_virtual"`
	HideContainer bool          `yaml:"hide_container" json:"hide_container"`
	HideMesh      bool          `yaml:"hide_mesh" json:"hide_mesh"`
}

// PinnedName returns the pinned interface when manual mode is active.
func (s InterfaceSettings) PinnedName() string {
	if s.Mode != InterfaceManual {
		return ""
	}
	return s.Pinned
}

// AlertSettings holds toggles and thresholds for every alert type.
type AlertSettings struct {
	Enabled bool `yaml:"enabled" json:"enabled"`

	NetworkDropout  bool `yaml:"network_dropout" json:"network_dropout"`
	CPUHigh         bool `yaml:"cpu_high" json:"cpu_high"`
	MemoryHigh      bool `yaml:"memory_high" json:"memory_high"`
	TemperatureHigh bool `yaml:"temperature_high" json:"temperature_high"`
	QuotaWarning    bool `yaml:"quota_warning" json:"quota_warning"`
	QuotaCritical   bool `yaml:"quota_critical" json:"quota_critical"`

	DropoutMbit          float64 `yaml:"dropout_mbit" json:"dropout_mbit"`
	CPUPercent           float64 `yaml:"cpu_percent" json:"cpu_percent"`
	MemoryPercent        float64 `yaml:"memory_percent" json:"memory_percent"`
	TemperatureC         float64 `yaml:"temperature_c" json:"temperature_c"`
	QuotaGB              float64 `yaml:"quota_gb" json:"quota_gb"`
	QuotaWarningPercent  float64 `yaml:"quota_warning_percent" json:"quota_warning_percent"`
	QuotaCriticalPercent float64 `yaml:"quota_critical_percent" json:"quota_critical_percent"`

	Cooldown       time.Duration `yaml:"cooldown" json:"cooldown"`
	SnoozeDuration time.Duration `yaml:"snooze_duration" json:"snooze_duration"`
}

// QuotaBytes converts the GiB quota into bytes; zero means no quota.
func (a AlertSettings) QuotaBytes() float64 {
	if a.QuotaGB <= 0 {
		return 0
	}
	return a.QuotaGB * (1 << 30)
}

// LevelSettings are the activity thresholds renderers use to pick icons.
type LevelSettings struct {
	TurtleMbit   float64 `yaml:"turtle_mbit" json:"turtle_mbit"`
	RabbitMbit   float64 `yaml:"rabbit_mbit" json:"rabbit_mbit"`
	DiskLowMB    float64 `yaml:"disk_low_mb" json:"disk_low_mb"`
	DiskMediumMB float64 `yaml:"disk_medium_mb" json:"disk_medium_mb"`
	DiskHighMB   float64 `yaml:"disk_high_mb" json:"disk_high_mb"`
	TempWarm     float64 `yaml:"temp_warm" json:"temp_warm"`
	TempHot      float64 `yaml:"temp_hot" json:"temp_hot"`
	TempCritical float64 `yaml:"temp_critical" json:"temp_critical"`
}

func DefaultSettings() Settings {
	return Settings{
		Interface: InterfaceSettings{
			Mode:          InterfaceAuto,
			HideVirtual:   true,
			HideContainer: true,
			HideMesh:      false,
		},
		TrackStatistics: true,
		Alerts: AlertSettings{
			Enabled:              true,
			NetworkDropout:       false,
			CPUHigh:              true,
			MemoryHigh:           true,
			TemperatureHigh:      true,
			QuotaWarning:         true,
			QuotaCritical:        true,
			DropoutMbit:          1,
			CPUPercent:           90,
			MemoryPercent:        90,
			TemperatureC:         80,
			QuotaWarningPercent:  80,
			QuotaCriticalPercent: 95,
			Cooldown:             5 * time.Minute,
			SnoozeDuration:       30 * time.Minute,
		},
		Levels: LevelSettings{
			TurtleMbit:   1,
			RabbitMbit:   10,
			DiskLowMB:    1,
			DiskMediumMB: 10,
			DiskHighMB:   50,
			TempWarm:     50,
			TempHot:      70,
			TempCritical: 85,
		},
	}
}

// Validate rejects snapshots the core cannot interpret.
func (s Settings) Validate() error {
	switch s.Interface.Mode {
	case InterfaceAuto, InterfaceManual:
	default:
		return fmt.Errorf("%w: interface mode %q", ErrInvalid, s.Interface.Mode)
	}
	a := s.Alerts
	if a.Cooldown < 0 || a.SnoozeDuration < 0 {
		return fmt.Errorf("%w: negative alert duration", ErrInvalid)
	}
	if a.QuotaGB < 0 {
		return fmt.Errorf("%w: negative quota", ErrInvalid)
	}
	if a.QuotaWarningPercent > a.QuotaCriticalPercent {
		return fmt.Errorf("%w: quota warning %.1f%% above critical %.1f%%", ErrInvalid, a.QuotaWarningPercent, a.QuotaCriticalPercent)
	}
	for name, v := range map[string]float64{
		"cpu":    a.CPUPercent,
		"memory": a.MemoryPercent,
	} {
		if v < 0 || v > 100 {
			return fmt.Errorf("%w: %s threshold %.1f outside 0-100", ErrInvalid, name, v)
		}
	}
	l := s.Levels
	if l.TurtleMbit > l.RabbitMbit {
		return fmt.Errorf("%w: turtle threshold above rabbit threshold", ErrInvalid)
	}
	return nil
}

package model

import "time"

// NetworkRate is the per-second traffic of the tracked interface.
// Valid is false on the first sample after (re)selection and on a counter regression.
type NetworkRate struct {
	Interface   string  `json:"interface"`
	Valid       bool    `json:"valid"`
	Regressed   bool    `json:"regressed,omitempty"`
	RxBps       float64 `json:"rx_bps"`
	TxBps       float64 `json:"tx_bps"`
	BytesPerSec float64 `json:"bytes_per_sec"`
	Mbit        float64 `json:"mbit"`
	DeltaRx     int64   `json:"delta_rx"`
	DeltaTx     int64   `json:"delta_tx"`
}

// CPU aggregates instantaneous CPU usage.
type CPU struct {
	Total  float64 `json:"total"` // percent 0-100
	Load1  float64 `json:"load1"`
	Load5  float64 `json:"load5"`
	Load15 float64 `json:"load15"`
}

// Memory is the used share of physical memory.
type Memory struct {
	Percent float64 `json:"percent"`
}

// DiskRate holds read/write throughput of the tracked whole device in bytes/sec.
type DiskRate struct {
	Device     string  `json:"device"`
	ReadSpeed  float64 `json:"read_speed"`
	WriteSpeed float64 `json:"write_speed"`
}

// Temperature is a single sensor reading; absent when Valid is false.
type Temperature struct {
	SourceID string  `json:"source_id,omitempty"`
	Name     string  `json:"name,omitempty"`
	Celsius  float64 `json:"celsius"`
	Valid    bool    `json:"valid"`
}

// Totals is one read-only statistics bucket.
type Totals struct {
	Rx    uint64 `json:"rx"`
	Tx    uint64 `json:"tx"`
	Total uint64 `json:"total"`
}

// Stats are the four rolling traffic buckets.
type Stats struct {
	Session Totals `json:"session"`
	Daily   Totals `json:"daily"`
	Weekly  Totals `json:"weekly"`
	Monthly Totals `json:"monthly"`
}

// Host describes the machine the snapshot was taken on.
type Host struct {
	Hostname      string `json:"hostname"`
	Kernel        string `json:"kernel"`
	UptimeSeconds uint64 `json:"uptime_seconds"`
}

// Sensor identifies one discovered temperature source.
type Sensor struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Devices lists what can be pinned: interfaces, whole disks and sensors.
type Devices struct {
	Interfaces []string `json:"interfaces"`
	Disks      []string `json:"disks"`
	Sensors    []Sensor `json:"sensors"`
}

// Snapshot is the full result of one tick exchanged between sampler, UI, and JSON exporter.
type Snapshot struct {
	Timestamp     time.Time      `json:"timestamp"`
	Interval      time.Duration  `json:"interval"`
	Host          Host           `json:"host"`
	Network       NetworkRate    `json:"network"`
	CPU           CPU            `json:"cpu"`
	Memory        Memory         `json:"memory"`
	Disk          DiskRate       `json:"disk"`
	Temperature   Temperature    `json:"temperature"`
	Stats         *Stats         `json:"stats,omitempty"`
	SessionStart  time.Time      `json:"session_start,omitempty"`
	QuotaPercent  float64        `json:"quota_percent,omitempty"`
	Notifications []Notification `json:"notifications,omitempty"`
	SnoozedUntil  time.Time      `json:"snoozed_until,omitempty"`
	Devices       Devices        `json:"devices"`
}

// Zero returns an empty snapshot for initialization.
func Zero() Snapshot { return Snapshot{Timestamp: time.Now()} }

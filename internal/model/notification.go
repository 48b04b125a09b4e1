package model

import "time"

// AlertType identifies one of the six independently toggled alerts.
type AlertType string

const (
	AlertNetworkDropout  AlertType = "network-dropout"
	AlertCPUHigh         AlertType = "cpu-high"
	AlertMemoryHigh      AlertType = "memory-high"
	AlertTemperatureHigh AlertType = "temperature-high"
	AlertQuotaWarning    AlertType = "quota-warning"
	AlertQuotaCritical   AlertType = "quota-critical"
)

// AlertTypes lists every alert type in evaluation order.
var AlertTypes = []AlertType{
	AlertNetworkDropout,
	AlertCPUHigh,
	AlertMemoryHigh,
	AlertTemperatureHigh,
	AlertQuotaWarning,
	AlertQuotaCritical,
}

// Severity mirrors the dashboard notification kinds.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityDanger  Severity = "danger"
)

// Notification is a request for a collaborator to show something to the user.
type Notification struct {
	Type      AlertType `json:"type"`
	Severity  Severity  `json:"severity"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Value     float64   `json:"value"`
	Threshold float64   `json:"threshold"`
	CreatedAt time.Time `json:"created_at"`
}

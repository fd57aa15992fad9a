package model

import "time"

// swagger:model HealthStatus
type HealthStatus struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message"`
	Version   string    `json:"version"`
	Service   string    `json:"service"`
}

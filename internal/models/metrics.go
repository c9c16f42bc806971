package models

import "time"

// SystemMetrics is a point-in-time snapshot of runtime counters exposed
// on the admin performance endpoint.
type SystemMetrics struct {
	RequestsTotal     int64         `json:"requests_total"`
	ErrorsTotal       int64         `json:"errors_total"`
	AvgLatency        time.Duration `json:"avg_latency_ns"`
	NotificationsSent int64         `json:"notifications_sent"`
	Uptime            time.Duration `json:"uptime_ns"`
	CollectedAt       time.Time     `json:"collected_at"`
}

// DashboardStats aggregates facility workload counts for the dashboard.
type DashboardStats struct {
	TotalComplaints     int `json:"total_complaints" db:"total_complaints"`
	PendingComplaints   int `json:"pending_complaints" db:"pending_complaints"`
	CompletedComplaints int `json:"completed_complaints" db:"completed_complaints"`
	OpenTickets         int `json:"open_tickets" db:"open_tickets"`
	ResolvedTickets     int `json:"resolved_tickets" db:"resolved_tickets"`
}

package models

// DashboardSummary mirrors the totals the sheet backend's getDashboard
// action returns.
type DashboardSummary struct {
	TotalAnnouncements int `json:"total_announcements"`
	TotalVehicleLogs   int `json:"total_vehicle_logs"`
	ActiveVehicles     int `json:"active_vehicles"`
}

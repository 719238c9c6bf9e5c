package models

// VehicleLog is a normalized vehicle-usage row from the sheet backend.
// Mileage cells pass through as presented; the sheet sometimes stores them
// as numbers and sometimes as text.
type VehicleLog struct {
	ID            string            `json:"id"`
	Date          string            `json:"date"`
	CarLicense    string            `json:"car_license"`
	Destination   string            `json:"destination"`
	Driver        string            `json:"driver,omitempty"`
	Requestor     string            `json:"requestor,omitempty"`
	Status        string            `json:"status,omitempty"`
	DepartureTime string            `json:"departure_time,omitempty"`
	ReturnTime    string            `json:"return_time,omitempty"`
	MileageStart  string            `json:"mileage_start,omitempty"`
	MileageEnd    string            `json:"mileage_end,omitempty"`
	Extra         map[string]string `json:"extra,omitempty"`
}

package model

// Wire payloads published to the bus. Field names match what the dashboard
// subscribes to; timestamps are Unix seconds.

// LocationUpdate is the per-cadence vehicle position report.
type LocationUpdate struct {
	Lat        float64 `json:"lat"`
	Lon        float64 `json:"lon"`
	SpeedKmh   float64 `json:"speed_kmh"`
	Heading    float64 `json:"heading"`
	DistanceKm float64 `json:"distance_km"`
	Status     string  `json:"status"`
	Timestamp  int64   `json:"timestamp"`
}

// ETAUpdate reports time and distance remaining to the destination.
// ETASeconds and ETAMinutes are -1 when the ETA is unknown (zero speed).
type ETAUpdate struct {
	ETASeconds  int     `json:"eta_seconds"`
	ETAMinutes  int     `json:"eta_minutes"`
	RemainingKm float64 `json:"remaining_km"`
	Status      string  `json:"status"`
	Timestamp   int64   `json:"timestamp"`
}

// VitalsSample is a rounded snapshot of the patient's vital signs.
// GPS and Heading are enrichment from the latest vehicle position and are
// omitted until a position has been produced.
type VitalsSample struct {
	HeartRate   int     `json:"hr"`
	SpO2        float64 `json:"spo2"`
	Systolic    int     `json:"systolic"`
	Diastolic   int     `json:"diastolic"`
	Temperature float64 `json:"temp"`
	Respiration int     `json:"resp"`
	GPS         string  `json:"gps,omitempty"`
	Heading     string  `json:"heading,omitempty"`
	Timestamp   int64   `json:"timestamp"`
}

// ECGBatch is a fixed-length run of waveform samples.
type ECGBatch struct {
	Samples   []float64 `json:"samples"`
	Timestamp int64     `json:"timestamp"`
}

// TrafficReport carries categorical road and weather conditions.
type TrafficReport struct {
	Density   string `json:"density"`
	Weather   string `json:"weather"`
	Route     string `json:"route"`
	Timestamp int64  `json:"timestamp"`
}

// EmergencyContact is part of the patient profile.
type EmergencyContact struct {
	Name         string `json:"name" yaml:"name"`
	Phone        string `json:"phone" yaml:"phone"`
	Relationship string `json:"relationship" yaml:"relationship"`
}

// PatientProfile is static patient metadata, published once and retained so
// late subscribers still receive it.
type PatientProfile struct {
	ID          string           `json:"id" yaml:"id"`
	Name        string           `json:"name" yaml:"name"`
	Age         int              `json:"age" yaml:"age"`
	Sex         string           `json:"sex" yaml:"sex"`
	BloodType   string           `json:"blood" yaml:"blood"`
	Conditions  []string         `json:"conditions" yaml:"conditions"`
	Medications []string         `json:"medications" yaml:"medications"`
	Allergies   string           `json:"allergy" yaml:"allergy"`
	Emergency   EmergencyContact `json:"emergency" yaml:"emergency"`
	Timestamp   int64            `json:"timestamp" yaml:"-"`
}

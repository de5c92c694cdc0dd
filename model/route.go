package model

// Waypoint is a named control point on a route. Consecutive waypoints
// define the legs the vehicle travels along.
type Waypoint struct {
	Lat   float64 `json:"lat" yaml:"lat"`
	Lon   float64 `json:"lon" yaml:"lon"`
	Label string  `json:"label,omitempty" yaml:"label,omitempty"`
}

// VehicleStatus describes where the vehicle is in its run.
type VehicleStatus string

const (
	StatusPickup  VehicleStatus = "pickup"
	StatusEnRoute VehicleStatus = "en_route"
	StatusArrived VehicleStatus = "arrived"
)

// Position is a point along the route at a given elapsed time.
// TraveledKm never exceeds the route's total distance, and Segment is
// monotonically non-decreasing as time advances.
type Position struct {
	Lat        float64
	Lon        float64
	TraveledKm float64
	Segment    int
	Status     VehicleStatus
}

package core

import (
	"fmt"
	"math"
	"time"

	"github.com/rescuelink/telemetry-simulator/model"
)

// Route is an immutable, ordered path from pickup to destination. Leg and
// total distances are computed once at construction and shared read-only by
// everything that needs position or ETA queries.
type Route struct {
	waypoints []model.Waypoint
	legsKm    []float64
	totalKm   float64
}

// NewRoute validates the waypoint sequence and precomputes leg distances.
// A route with fewer than two waypoints or with non-finite or out-of-range
// coordinates is refused: producing undefined positions is worse than not
// running at all.
func NewRoute(waypoints []model.Waypoint) (*Route, error) {
	if len(waypoints) < 2 {
		return nil, fmt.Errorf("route needs at least 2 waypoints, got %d", len(waypoints))
	}
	for i, wp := range waypoints {
		if !isFinite(wp.Lat) || !isFinite(wp.Lon) {
			return nil, fmt.Errorf("waypoint %d has non-finite coordinates (%v, %v)", i, wp.Lat, wp.Lon)
		}
		if wp.Lat < -90 || wp.Lat > 90 || wp.Lon < -180 || wp.Lon > 180 {
			return nil, fmt.Errorf("waypoint %d out of range (%v, %v)", i, wp.Lat, wp.Lon)
		}
	}

	r := &Route{
		waypoints: append([]model.Waypoint(nil), waypoints...),
		legsKm:    make([]float64, len(waypoints)-1),
	}
	for i := 0; i < len(waypoints)-1; i++ {
		leg := Haversine(waypoints[i].Lat, waypoints[i].Lon, waypoints[i+1].Lat, waypoints[i+1].Lon)
		r.legsKm[i] = leg
		r.totalKm += leg
	}
	return r, nil
}

// TotalKm returns the cached total route distance in kilometres.
func (r *Route) TotalKm() float64 { return r.totalKm }

// Start returns the pickup waypoint.
func (r *Route) Start() model.Waypoint { return r.waypoints[0] }

// End returns the destination waypoint.
func (r *Route) End() model.Waypoint { return r.waypoints[len(r.waypoints)-1] }

// PositionAtElapsed computes the vehicle position after the given elapsed
// time at the given speed. Distance traveled is capped at the total route
// distance; once reached, the final waypoint is returned with status
// "arrived". A zero-length leg (duplicate consecutive waypoints) is treated
// as crossed instantly.
func (r *Route) PositionAtElapsed(elapsed time.Duration, speedKmh float64) model.Position {
	traveled := speedKmh * elapsed.Hours()
	if traveled < 0 {
		traveled = 0
	}
	if traveled >= r.totalKm {
		end := r.End()
		return model.Position{
			Lat:        end.Lat,
			Lon:        end.Lon,
			TraveledKm: r.totalKm,
			Segment:    len(r.legsKm) - 1,
			Status:     model.StatusArrived,
		}
	}

	status := model.StatusEnRoute
	if traveled == 0 {
		status = model.StatusPickup
	}

	soFar := 0.0
	for i, leg := range r.legsKm {
		if soFar+leg >= traveled {
			progress := 1.0
			if leg > 0 {
				progress = (traveled - soFar) / leg
			}
			a, b := r.waypoints[i], r.waypoints[i+1]
			return model.Position{
				Lat:        a.Lat + (b.Lat-a.Lat)*progress,
				Lon:        a.Lon + (b.Lon-a.Lon)*progress,
				TraveledKm: traveled,
				Segment:    i,
				Status:     status,
			}
		}
		soFar += leg
	}

	// Unreachable given the cap above, but fall back to the destination.
	end := r.End()
	return model.Position{
		Lat:        end.Lat,
		Lon:        end.Lon,
		TraveledKm: r.totalKm,
		Segment:    len(r.legsKm) - 1,
		Status:     model.StatusArrived,
	}
}

// RemainingKm returns the distance left to the destination, never negative.
func (r *Route) RemainingKm(elapsed time.Duration, speedKmh float64) float64 {
	traveled := speedKmh * elapsed.Hours()
	if traveled >= r.totalKm {
		return 0
	}
	if traveled < 0 {
		traveled = 0
	}
	return r.totalKm - traveled
}

// ETA returns the time remaining until arrival. Once arrived it is 0. With
// zero or negative speed the ETA cannot be computed and ok is false; callers
// must treat that as "unknown" rather than an infinite duration.
func (r *Route) ETA(elapsed time.Duration, speedKmh float64) (eta time.Duration, ok bool) {
	remaining := r.RemainingKm(elapsed, speedKmh)
	if remaining == 0 {
		return 0, true
	}
	if speedKmh <= 0 {
		return 0, false
	}
	return time.Duration(remaining / speedKmh * float64(time.Hour)), true
}

// Heading returns the bearing in degrees from the given position towards the
// next waypoint on its segment. At the destination the heading of the final
// leg is kept so the reported course stays stable after arrival.
func (r *Route) Heading(p model.Position) float64 {
	seg := p.Segment
	if seg < 0 {
		seg = 0
	}
	if seg >= len(r.legsKm) {
		seg = len(r.legsKm) - 1
	}
	target := r.waypoints[seg+1]
	if target.Lat == p.Lat && target.Lon == p.Lon {
		// Sitting on the segment's end point: aim along the leg itself.
		from := r.waypoints[seg]
		return InitialBearing(from.Lat, from.Lon, target.Lat, target.Lon)
	}
	return InitialBearing(p.Lat, p.Lon, target.Lat, target.Lon)
}

// RouteTracker anchors a Route to a start time and speed so producers can
// ask for the position "now" instead of tracking elapsed time themselves.
type RouteTracker struct {
	route    *Route
	speedKmh float64
	start    time.Time
}

// NewRouteTracker creates a tracker. Speed may be zero (the vehicle never
// moves and the ETA is unknown) but not negative.
func NewRouteTracker(route *Route, speedKmh float64, start time.Time) (*RouteTracker, error) {
	if route == nil {
		return nil, fmt.Errorf("route tracker needs a route")
	}
	if speedKmh < 0 {
		return nil, fmt.Errorf("speed must not be negative, got %v km/h", speedKmh)
	}
	return &RouteTracker{route: route, speedKmh: speedKmh, start: start}, nil
}

// Route returns the underlying immutable route.
func (t *RouteTracker) Route() *Route { return t.route }

// SpeedKmh returns the configured vehicle speed.
func (t *RouteTracker) SpeedKmh() float64 { return t.speedKmh }

// PositionAt returns the position at the given wall/simulation time.
func (t *RouteTracker) PositionAt(now time.Time) model.Position {
	return t.route.PositionAtElapsed(now.Sub(t.start), t.speedKmh)
}

// RemainingAt returns the remaining distance at the given time.
func (t *RouteTracker) RemainingAt(now time.Time) float64 {
	return t.route.RemainingKm(now.Sub(t.start), t.speedKmh)
}

// ETAAt returns the ETA at the given time; ok is false when unknown.
func (t *RouteTracker) ETAAt(now time.Time) (time.Duration, bool) {
	return t.route.ETA(now.Sub(t.start), t.speedKmh)
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

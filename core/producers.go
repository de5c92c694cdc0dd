package core

import (
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/rescuelink/telemetry-simulator/model"
)

// PositionCell holds the latest vehicle position for cross-producer reads.
// The location producer is the single writer; the vitals producer reads it
// to enrich its payload. Readers never observe a half-written update.
type PositionCell struct {
	mu      sync.RWMutex
	pos     model.Position
	heading float64
	set     bool
}

// Set stores the latest position and heading.
func (c *PositionCell) Set(pos model.Position, heading float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pos = pos
	c.heading = heading
	c.set = true
}

// Get returns the latest position and heading; ok is false before the first
// Set.
func (c *PositionCell) Get() (pos model.Position, heading float64, ok bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.pos, c.heading, c.set
}

// ProgressRecorder observes route progress, for metrics export.
type ProgressRecorder interface {
	SetRouteProgress(traveledKm float64, arrived bool)
}

// NewLocationProducer returns the producer for the location topic class. It
// is the single writer of the shared position cell. rec may be nil.
func NewLocationProducer(tracker *RouteTracker, cell *PositionCell, rec ProgressRecorder) Producer {
	return ProducerFunc(func(now time.Time) (any, error) {
		pos := tracker.PositionAt(now)
		heading := tracker.Route().Heading(pos)
		cell.Set(pos, heading)
		if rec != nil {
			rec.SetRouteProgress(pos.TraveledKm, pos.Status == model.StatusArrived)
		}
		return model.LocationUpdate{
			Lat:        round6(pos.Lat),
			Lon:        round6(pos.Lon),
			SpeedKmh:   tracker.SpeedKmh(),
			Heading:    round1(heading),
			DistanceKm: round2(pos.TraveledKm),
			Status:     string(pos.Status),
			Timestamp:  now.Unix(),
		}, nil
	})
}

// NewETAProducer returns the producer for the eta topic class. With zero
// speed the ETA fields are -1 ("unknown") rather than infinite.
func NewETAProducer(tracker *RouteTracker) Producer {
	return ProducerFunc(func(now time.Time) (any, error) {
		etaSeconds, etaMinutes := -1, -1
		if eta, ok := tracker.ETAAt(now); ok {
			etaSeconds = int(eta / time.Second)
			etaMinutes = etaSeconds / 60
		}
		return model.ETAUpdate{
			ETASeconds:  etaSeconds,
			ETAMinutes:  etaMinutes,
			RemainingKm: round2(tracker.RemainingAt(now)),
			Status:      string(tracker.PositionAt(now).Status),
			Timestamp:   now.Unix(),
		}, nil
	})
}

// NewVitalsProducer returns the producer for the vitals topic class,
// enriching each sample with the latest position from the shared cell.
func NewVitalsProducer(vitals *VitalsModel, cell *PositionCell) Producer {
	return ProducerFunc(func(now time.Time) (any, error) {
		sample := vitals.Generate(now)
		if pos, heading, ok := cell.Get(); ok {
			sample.GPS = fmt.Sprintf("%.4f° N, %.4f° E", pos.Lat, pos.Lon)
			sample.Heading = CompassDirection(heading)
		}
		return sample, nil
	})
}

// NewECGProducer returns the producer for the ecg topic class.
func NewECGProducer(synth *ECGSynth) Producer {
	return ProducerFunc(func(now time.Time) (any, error) {
		return synth.Generate(now), nil
	})
}

// Categorical condition values for the traffic topic class.
var (
	trafficDensities = []string{"Light", "Moderate", "Heavy", "Severe"}
	weatherKinds     = []string{"Clear", "Cloudy", "Rainy", "Foggy", "Stormy"}
	routeStatuses    = []string{"Clear", "Minor Delays", "Congestion Ahead", "Accident Reported", "Road Work"}
)

// NewTrafficProducer returns the producer for the traffic topic class. The
// conditions are independent categorical draws; no continuity is modelled.
func NewTrafficProducer(rng *rand.Rand) Producer {
	return ProducerFunc(func(now time.Time) (any, error) {
		return model.TrafficReport{
			Density:   trafficDensities[rng.Intn(len(trafficDensities))],
			Weather:   weatherKinds[rng.Intn(len(weatherKinds))],
			Route:     routeStatuses[rng.Intn(len(routeStatuses))],
			Timestamp: now.Unix(),
		}, nil
	})
}

func round6(v float64) float64 { return math.Round(v*1e6) / 1e6 }

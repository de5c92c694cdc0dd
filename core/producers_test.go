package core

import (
	"math/rand"
	"testing"
	"time"

	"github.com/rescuelink/telemetry-simulator/model"
)

type progressCapture struct {
	traveledKm float64
	arrived    bool
	calls      int
}

func (p *progressCapture) SetRouteProgress(traveledKm float64, arrived bool) {
	p.traveledKm = traveledKm
	p.arrived = arrived
	p.calls++
}

func newTestTracker(t *testing.T, speedKmh float64, start time.Time) *RouteTracker {
	t.Helper()
	r, err := NewRoute(testWaypoints())
	if err != nil {
		t.Fatalf("unexpected route error: %v", err)
	}
	tracker, err := NewRouteTracker(r, speedKmh, start)
	if err != nil {
		t.Fatalf("unexpected tracker error: %v", err)
	}
	return tracker
}

func TestLocationProducer_PublishesAndSharesPosition(t *testing.T) {
	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	tracker := newTestTracker(t, 50, start)
	cell := &PositionCell{}
	progress := &progressCapture{}

	p := NewLocationProducer(tracker, cell, progress)

	now := start.Add(30 * time.Second)
	payload, err := p.Produce(now)
	if err != nil {
		t.Fatalf("unexpected produce error: %v", err)
	}

	update, ok := payload.(model.LocationUpdate)
	if !ok {
		t.Fatalf("expected LocationUpdate payload, got %T", payload)
	}
	if update.Status != string(model.StatusEnRoute) {
		t.Fatalf("expected en_route after 30s, got %q", update.Status)
	}
	if update.SpeedKmh != 50 {
		t.Fatalf("expected configured speed in payload, got %v", update.SpeedKmh)
	}
	if update.Timestamp != now.Unix() {
		t.Fatalf("expected timestamp %d, got %d", now.Unix(), update.Timestamp)
	}

	pos, heading, set := cell.Get()
	if !set {
		t.Fatalf("expected the shared cell to hold the position after Produce")
	}
	if pos.Status != model.StatusEnRoute {
		t.Fatalf("cell status %q does not match payload", pos.Status)
	}
	if heading < 0 || heading >= 360 {
		t.Fatalf("cell heading out of range: %v", heading)
	}
	if progress.calls != 1 || progress.arrived {
		t.Fatalf("expected one en-route progress record, got %+v", progress)
	}
}

func TestLocationProducer_NilProgressRecorder(t *testing.T) {
	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	tracker := newTestTracker(t, 50, start)

	p := NewLocationProducer(tracker, &PositionCell{}, nil)
	if _, err := p.Produce(start); err != nil {
		t.Fatalf("unexpected produce error with nil recorder: %v", err)
	}
}

func TestETAProducer_CountsDownAndReportsArrival(t *testing.T) {
	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	tracker := newTestTracker(t, 50, start)
	p := NewETAProducer(tracker)

	first, err := p.Produce(start)
	if err != nil {
		t.Fatalf("unexpected produce error: %v", err)
	}
	later, err := p.Produce(start.Add(time.Minute))
	if err != nil {
		t.Fatalf("unexpected produce error: %v", err)
	}

	a := first.(model.ETAUpdate)
	b := later.(model.ETAUpdate)
	if a.ETASeconds <= 0 {
		t.Fatalf("expected a positive ETA at departure, got %d", a.ETASeconds)
	}
	if b.ETASeconds >= a.ETASeconds {
		t.Fatalf("ETA did not decrease: %d -> %d", a.ETASeconds, b.ETASeconds)
	}
	if b.RemainingKm >= a.RemainingKm {
		t.Fatalf("remaining distance did not decrease: %v -> %v", a.RemainingKm, b.RemainingKm)
	}

	done, err := p.Produce(start.Add(24 * time.Hour))
	if err != nil {
		t.Fatalf("unexpected produce error: %v", err)
	}
	c := done.(model.ETAUpdate)
	if c.ETASeconds != 0 || c.RemainingKm != 0 {
		t.Fatalf("expected zero ETA and distance after arrival, got %+v", c)
	}
	if c.Status != string(model.StatusArrived) {
		t.Fatalf("expected arrived status, got %q", c.Status)
	}
}

func TestETAProducer_ZeroSpeedIsUnknown(t *testing.T) {
	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	tracker := newTestTracker(t, 0, start)
	p := NewETAProducer(tracker)

	payload, err := p.Produce(start.Add(time.Minute))
	if err != nil {
		t.Fatalf("unexpected produce error: %v", err)
	}
	update := payload.(model.ETAUpdate)
	if update.ETASeconds != -1 || update.ETAMinutes != -1 {
		t.Fatalf("expected -1 sentinel for unknown ETA, got %+v", update)
	}
	if update.RemainingKm <= 0 {
		t.Fatalf("remaining distance should still be reported, got %v", update.RemainingKm)
	}
}

func TestVitalsProducer_EnrichedOnlyAfterFirstFix(t *testing.T) {
	cell := &PositionCell{}
	p := NewVitalsProducer(NewVitalsModel(rand.New(rand.NewSource(1))), cell)
	now := time.Unix(1700000000, 0)

	payload, err := p.Produce(now)
	if err != nil {
		t.Fatalf("unexpected produce error: %v", err)
	}
	sample := payload.(model.VitalsSample)
	if sample.GPS != "" || sample.Heading != "" {
		t.Fatalf("expected no position enrichment before first fix, got %+v", sample)
	}

	cell.Set(model.Position{Lat: 23.2599, Lon: 77.4126, Status: model.StatusEnRoute}, 170)
	payload, err = p.Produce(now.Add(2 * time.Second))
	if err != nil {
		t.Fatalf("unexpected produce error: %v", err)
	}
	sample = payload.(model.VitalsSample)
	if sample.GPS != "23.2599° N, 77.4126° E" {
		t.Fatalf("unexpected GPS formatting: %q", sample.GPS)
	}
	if sample.Heading != "South" {
		t.Fatalf("expected compass name South for bearing 170, got %q", sample.Heading)
	}
}

func TestECGProducer_WrapsBatches(t *testing.T) {
	p := NewECGProducer(NewECGSynth(rand.New(rand.NewSource(1)), 100, 12))
	now := time.Unix(1700000000, 0)

	payload, err := p.Produce(now)
	if err != nil {
		t.Fatalf("unexpected produce error: %v", err)
	}
	batch := payload.(model.ECGBatch)
	if len(batch.Samples) != 12 {
		t.Fatalf("expected 12 samples, got %d", len(batch.Samples))
	}
	if batch.Timestamp != now.Unix() {
		t.Fatalf("expected timestamp %d, got %d", now.Unix(), batch.Timestamp)
	}
}

func TestTrafficProducer_DrawsFromKnownCategories(t *testing.T) {
	p := NewTrafficProducer(rand.New(rand.NewSource(9)))
	now := time.Unix(1700000000, 0)

	contains := func(vs []string, v string) bool {
		for _, it := range vs {
			if it == v {
				return true
			}
		}
		return false
	}

	for i := 0; i < 100; i++ {
		payload, err := p.Produce(now.Add(time.Duration(i) * 10 * time.Second))
		if err != nil {
			t.Fatalf("unexpected produce error: %v", err)
		}
		report := payload.(model.TrafficReport)
		if !contains(trafficDensities, report.Density) {
			t.Fatalf("unknown density %q", report.Density)
		}
		if !contains(weatherKinds, report.Weather) {
			t.Fatalf("unknown weather %q", report.Weather)
		}
		if !contains(routeStatuses, report.Route) {
			t.Fatalf("unknown route condition %q", report.Route)
		}
	}
}

func TestPositionCell_GetBeforeSet(t *testing.T) {
	cell := &PositionCell{}
	if _, _, ok := cell.Get(); ok {
		t.Fatalf("expected ok=false before first Set")
	}
	cell.Set(model.Position{Lat: 1, Lon: 2}, 90)
	pos, heading, ok := cell.Get()
	if !ok || pos.Lat != 1 || pos.Lon != 2 || heading != 90 {
		t.Fatalf("unexpected cell contents: %+v heading=%v ok=%v", pos, heading, ok)
	}
}

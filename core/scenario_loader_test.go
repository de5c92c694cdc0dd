package core

import (
	"strings"
	"testing"

	"github.com/rescuelink/telemetry-simulator/model"
)

func TestLoadScenario_FullDocument(t *testing.T) {
	doc := `
vehicle_id: amb-7
speed_kmh: 40
waypoints:
  - {lat: 23.2599, lon: 77.4126, label: "Pickup"}
  - {lat: 23.2156, lon: 77.4304, label: "Hospital"}
patient:
  id: P-1
  name: John Smith
  age: 60
  sex: Male
  blood: A-
topics:
  location: {topic: "fleet/amb-7/pos", qos: 1, cadence_ms: 500}
ecg_sample_rate: 250
ecg_batch_size: 25
`
	s, err := LoadScenario(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if s.VehicleID != "amb-7" || s.SpeedKmh != 40 {
		t.Fatalf("vehicle fields not parsed: %+v", s)
	}
	if len(s.Waypoints) != 2 || s.Waypoints[1].Label != "Hospital" {
		t.Fatalf("waypoints not parsed: %+v", s.Waypoints)
	}
	if s.Patient.Name != "John Smith" || s.Patient.BloodType != "A-" {
		t.Fatalf("patient not parsed: %+v", s.Patient)
	}
	if s.ECGSampleRate != 250 || s.ECGBatchSize != 25 {
		t.Fatalf("ecg parameters not parsed: %+v", s)
	}

	loc := s.Topics[model.ClassLocation]
	if loc.Topic != "fleet/amb-7/pos" || loc.CadenceMs != 500 {
		t.Fatalf("explicit topic override lost: %+v", loc)
	}
	// Unmentioned classes fall back to the defaults for this vehicle/patient.
	eta := s.Topics[model.ClassETA]
	if eta.Topic != "rescue/eta" || eta.CadenceMs != 2000 {
		t.Fatalf("eta default not applied: %+v", eta)
	}
	vitals := s.Topics[model.ClassVitals]
	if vitals.Topic != "patient/P-1/vitals" {
		t.Fatalf("vitals default should use the scenario's patient id, got %+v", vitals)
	}
}

func TestLoadScenario_EmptyDocumentGetsDefaults(t *testing.T) {
	s, err := LoadScenario(strings.NewReader("{}"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	def := DefaultScenario()
	if s.VehicleID != def.VehicleID || s.SpeedKmh != def.SpeedKmh {
		t.Fatalf("expected default vehicle, got %+v", s)
	}
	if len(s.Waypoints) != len(def.Waypoints) {
		t.Fatalf("expected default route, got %d waypoints", len(s.Waypoints))
	}
	if s.Patient.Name != "Jane Doe" {
		t.Fatalf("expected default patient, got %+v", s.Patient)
	}
	if len(s.Topics) != 6 {
		t.Fatalf("expected all 6 default topic classes, got %d", len(s.Topics))
	}
}

func TestLoadScenario_RejectsMalformedYAML(t *testing.T) {
	if _, err := LoadScenario(strings.NewReader("waypoints: [unclosed")); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestLoadScenario_RejectsInvalidRoute(t *testing.T) {
	doc := `
waypoints:
  - {lat: 95.0, lon: 77.4126}
  - {lat: 23.2156, lon: 77.4304}
`
	if _, err := LoadScenario(strings.NewReader(doc)); err == nil {
		t.Fatalf("expected validation error for out-of-range latitude")
	}
}

func TestLoadScenario_RejectsNegativeSpeed(t *testing.T) {
	doc := `
speed_kmh: -10
waypoints:
  - {lat: 23.2599, lon: 77.4126}
  - {lat: 23.2156, lon: 77.4304}
`
	if _, err := LoadScenario(strings.NewReader(doc)); err == nil {
		t.Fatalf("expected validation error for negative speed")
	}
}

func TestScenarioValidate_TopicChecks(t *testing.T) {
	base := func() *Scenario {
		s := DefaultScenario()
		return s
	}

	s := base()
	spec := s.Topics[model.ClassVitals]
	spec.Topic = ""
	s.Topics[model.ClassVitals] = spec
	if err := s.Validate(); err == nil {
		t.Errorf("expected error for empty topic")
	}

	s = base()
	spec = s.Topics[model.ClassECG]
	spec.QoS = 3
	s.Topics[model.ClassECG] = spec
	if err := s.Validate(); err == nil {
		t.Errorf("expected error for qos above 2")
	}

	s = base()
	spec = s.Topics[model.ClassTraffic]
	spec.CadenceMs = 0
	s.Topics[model.ClassTraffic] = spec
	if err := s.Validate(); err == nil {
		t.Errorf("expected error for missing cadence on a scheduled class")
	}

	// The retained profile legitimately has no cadence.
	if err := base().Validate(); err != nil {
		t.Errorf("default scenario should validate, got %v", err)
	}
}

func TestDefaultTopics_MirrorOriginalLayout(t *testing.T) {
	topics := DefaultTopics("amb-42", "P-8492")

	cases := []struct {
		class string
		topic string
	}{
		{model.ClassLocation, "ambulance/amb-42/location"},
		{model.ClassETA, "rescue/eta"},
		{model.ClassVitals, "patient/P-8492/vitals"},
		{model.ClassECG, "patient/P-8492/ecg"},
		{model.ClassTraffic, "rescue/traffic"},
		{model.ClassProfile, "rescue/patient/profile"},
	}
	for _, tc := range cases {
		spec, ok := topics[tc.class]
		if !ok {
			t.Errorf("missing topic class %q", tc.class)
			continue
		}
		if spec.Topic != tc.topic {
			t.Errorf("%s: expected topic %q, got %q", tc.class, tc.topic, spec.Topic)
		}
	}

	if !topics[model.ClassProfile].Retain {
		t.Errorf("profile must be retained for late subscribers")
	}
	if topics[model.ClassECG].QoS != 0 {
		t.Errorf("waveform batches should be fire-and-forget, got qos %d", topics[model.ClassECG].QoS)
	}
}

package core

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/rescuelink/telemetry-simulator/model"
)

// Scenario describes one simulated run: the vehicle, its route and speed,
// the patient on board, and the topic mapping table. Everything the four
// original dashboard feeds hard-coded lives here instead.
type Scenario struct {
	VehicleID string           `yaml:"vehicle_id"`
	SpeedKmh  float64          `yaml:"speed_kmh"`
	Waypoints []model.Waypoint `yaml:"waypoints"`

	Patient model.PatientProfile `yaml:"patient"`

	// Topics maps topic classes to broker topics, delivery options, and
	// cadences. Missing classes fall back to the defaults.
	Topics map[string]model.TopicSpec `yaml:"topics"`

	// ECG synthesis parameters.
	ECGSampleRate float64 `yaml:"ecg_sample_rate"`
	ECGBatchSize  int     `yaml:"ecg_batch_size"`
}

// DefaultScenario returns the built-in Bhopal demo run: Rani Kamlapati
// Railway Station to AIIMS Bhopal at 50 km/h, with the topic layout the
// dashboard subscribes to.
func DefaultScenario() *Scenario {
	return &Scenario{
		VehicleID: "amb-42",
		SpeedKmh:  50,
		Waypoints: []model.Waypoint{
			{Lat: 23.2599, Lon: 77.4126, Label: "Rani Kamlapati Railway Station (Pickup)"},
			{Lat: 23.2580, Lon: 77.4140, Label: "Station Road"},
			{Lat: 23.2550, Lon: 77.4165, Label: "Platform Road Junction"},
			{Lat: 23.2510, Lon: 77.4190, Label: "Hamidia Road"},
			{Lat: 23.2470, Lon: 77.4220, Label: "MP Nagar Zone 1"},
			{Lat: 23.2420, Lon: 77.4250, Label: "DB City Mall Area"},
			{Lat: 23.2360, Lon: 77.4275, Label: "Bittan Market"},
			{Lat: 23.2300, Lon: 77.4290, Label: "Karond Circle"},
			{Lat: 23.2240, Lon: 77.4300, Label: "Danish Kunj"},
			{Lat: 23.2190, Lon: 77.4305, Label: "Saket Nagar"},
			{Lat: 23.2156, Lon: 77.4304, Label: "AIIMS Bhopal (Hospital)"},
		},
		Patient: model.PatientProfile{
			ID:          "P-8492",
			Name:        "Jane Doe",
			Age:         45,
			Sex:         "Female",
			BloodType:   "O+",
			Conditions:  []string{"Hypertension", "Type 2 Diabetes"},
			Medications: []string{"Metformin 500mg", "Lisinopril 10mg", "Aspirin 81mg"},
			Allergies:   "Penicillin, Latex",
			Emergency: model.EmergencyContact{
				Name:         "John Doe",
				Phone:        "(555) 123-4567",
				Relationship: "Spouse",
			},
		},
		Topics:        DefaultTopics("amb-42", "P-8492"),
		ECGSampleRate: 100,
		ECGBatchSize:  12,
	}
}

// DefaultTopics returns the default topic mapping for a vehicle/patient
// pair. The waveform feed is fire-and-forget (QoS 0) to minimise latency;
// the slower status feeds use at-least-once delivery; the profile is
// retained for late subscribers.
func DefaultTopics(vehicleID, patientID string) map[string]model.TopicSpec {
	return map[string]model.TopicSpec{
		model.ClassLocation: {Topic: "ambulance/" + vehicleID + "/location", QoS: 1, CadenceMs: 1000},
		model.ClassETA:      {Topic: "rescue/eta", QoS: 1, CadenceMs: 2000},
		model.ClassVitals:   {Topic: "patient/" + patientID + "/vitals", QoS: 1, CadenceMs: 2000},
		model.ClassECG:      {Topic: "patient/" + patientID + "/ecg", QoS: 0, CadenceMs: 100},
		model.ClassTraffic:  {Topic: "rescue/traffic", QoS: 1, CadenceMs: 10000},
		model.ClassProfile:  {Topic: "rescue/patient/profile", QoS: 1, Retain: true},
	}
}

// LoadScenario reads a YAML scenario from r, fills unset fields from the
// defaults, and validates the result. The route itself is validated by
// constructing it, so a malformed scenario is refused before anything runs.
func LoadScenario(r io.Reader) (*Scenario, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}

	s := &Scenario{}
	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	s.applyDefaults()

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// applyDefaults fills unset fields from DefaultScenario.
func (s *Scenario) applyDefaults() {
	def := DefaultScenario()
	if s.VehicleID == "" {
		s.VehicleID = def.VehicleID
	}
	if s.SpeedKmh == 0 {
		s.SpeedKmh = def.SpeedKmh
	}
	if len(s.Waypoints) == 0 {
		s.Waypoints = def.Waypoints
	}
	if s.Patient.ID == "" {
		s.Patient = def.Patient
	}
	if s.ECGSampleRate == 0 {
		s.ECGSampleRate = def.ECGSampleRate
	}
	if s.ECGBatchSize == 0 {
		s.ECGBatchSize = def.ECGBatchSize
	}

	defTopics := DefaultTopics(s.VehicleID, s.Patient.ID)
	if s.Topics == nil {
		s.Topics = defTopics
		return
	}
	for class, spec := range defTopics {
		if _, ok := s.Topics[class]; !ok {
			s.Topics[class] = spec
		}
	}
}

// Validate checks the scenario invariants: a constructible route, a
// non-negative speed, and positive cadences for every scheduled class.
func (s *Scenario) Validate() error {
	if _, err := NewRoute(s.Waypoints); err != nil {
		return fmt.Errorf("scenario route: %w", err)
	}
	if s.SpeedKmh < 0 {
		return fmt.Errorf("scenario speed must not be negative, got %v", s.SpeedKmh)
	}
	for class, spec := range s.Topics {
		if spec.Topic == "" {
			return fmt.Errorf("topic class %q has no topic", class)
		}
		if spec.QoS > 2 {
			return fmt.Errorf("topic class %q has invalid qos %d", class, spec.QoS)
		}
		if class != model.ClassProfile && spec.CadenceMs <= 0 {
			return fmt.Errorf("topic class %q needs a positive cadence", class)
		}
	}
	return nil
}

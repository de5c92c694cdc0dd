package model

import "time"

// Topic classes. Producers are registered under these names and the mapping
// table in the scenario decides the concrete topic, QoS, retain flag, and
// cadence for each one.
const (
	ClassLocation = "location"
	ClassETA      = "eta"
	ClassVitals   = "vitals"
	ClassECG      = "ecg"
	ClassTraffic  = "traffic"
	ClassProfile  = "profile"
)

// TopicSpec maps one topic class onto the bus. CadenceMs is the publish
// period in milliseconds; zero means the class is published once at startup
// rather than on a cadence.
type TopicSpec struct {
	Topic     string `yaml:"topic"`
	QoS       byte   `yaml:"qos"`
	Retain    bool   `yaml:"retain"`
	CadenceMs int    `yaml:"cadence_ms"`
}

// Cadence returns the publish period as a duration.
func (s TopicSpec) Cadence() time.Duration {
	return time.Duration(s.CadenceMs) * time.Millisecond
}

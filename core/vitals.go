package core

import (
	"math"
	"math/rand"
	"time"

	"github.com/rescuelink/telemetry-simulator/model"
)

// Clinical bounds for each vital sign: the per-step walk range and the range
// the value is clamped to. The walks are illustrative, not medically
// validated.
const (
	hrStep, hrMin, hrMax       = 2.0, 60.0, 100.0
	spo2Step, spo2Min, spo2Max = 0.5, 94.0, 100.0
	sysStep, sysMin, sysMax    = 3.0, 110.0, 140.0
	diaStep, diaMin, diaMax    = 2.0, 70.0, 90.0
	tempStep, tempMin, tempMax = 0.1, 36.5, 37.5
	respStep, respMin, respMax = 1.0, 12.0, 20.0
)

// VitalsModel evolves a patient's vital signs by independent bounded random
// walks. Each Generate call advances every field one step and clamps it to
// its clinical range, so repeated samples form a continuous trajectory
// rather than independent draws. The random source is injected once at
// construction and never reseeded.
type VitalsModel struct {
	rng *rand.Rand

	heartRate   float64
	spo2        float64
	systolic    float64
	diastolic   float64
	temperature float64
	respiration float64
}

// NewVitalsModel creates a model starting from mid-range resting values.
func NewVitalsModel(rng *rand.Rand) *VitalsModel {
	return &VitalsModel{
		rng:         rng,
		heartRate:   75,
		spo2:        98,
		systolic:    120,
		diastolic:   80,
		temperature: 37.0,
		respiration: 16,
	}
}

// Generate advances all fields one step and returns a rounded snapshot
// stamped with the given time.
func (m *VitalsModel) Generate(now time.Time) model.VitalsSample {
	m.heartRate = clamp(m.heartRate+m.step(hrStep), hrMin, hrMax)
	m.spo2 = clamp(m.spo2+m.step(spo2Step), spo2Min, spo2Max)
	m.systolic = clamp(m.systolic+m.step(sysStep), sysMin, sysMax)
	m.diastolic = clamp(m.diastolic+m.step(diaStep), diaMin, diaMax)
	m.temperature = clamp(m.temperature+m.step(tempStep), tempMin, tempMax)
	m.respiration = clamp(m.respiration+m.step(respStep), respMin, respMax)

	return model.VitalsSample{
		HeartRate:   int(math.Round(m.heartRate)),
		SpO2:        round1(m.spo2),
		Systolic:    int(math.Round(m.systolic)),
		Diastolic:   int(math.Round(m.diastolic)),
		Temperature: round1(m.temperature),
		Respiration: int(math.Round(m.respiration)),
		Timestamp:   now.Unix(),
	}
}

// HeartRate returns the current un-rounded heart rate, for coupling the
// waveform generator to the vitals trajectory.
func (m *VitalsModel) HeartRate() float64 { return m.heartRate }

// step draws uniformly from [-size, size].
func (m *VitalsModel) step(size float64) float64 {
	return (m.rng.Float64()*2 - 1) * size
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }

func round2(v float64) float64 { return math.Round(v*100) / 100 }

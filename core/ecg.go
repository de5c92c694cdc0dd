package core

import (
	"math"
	"math/rand"
	"time"

	"github.com/rescuelink/telemetry-simulator/model"
)

// Phase sub-windows of the unit cardiac cycle and pulse amplitudes. The
// ordering P < QRS < T must hold and the P and QRS windows must not overlap.
const (
	pStart, pEnd, pAmp       = 0.05, 0.15, 0.6
	qrsStart, qrsEnd, qrsAmp = 0.30, 0.40, 5.5
	tStart, tEnd, tAmp       = 0.50, 0.75, 1.2

	// Uniform noise added to every sample; samples outside all three
	// windows are nothing but this noise.
	ecgNoiseAmp = 0.125
)

// ECGSynth produces an analytic, electrocardiogram-like waveform phase-locked
// to a slowly wandering heart rate. The phase accumulator only ever grows, so
// the waveform is continuous across batches; it is reduced modulo 1 to locate
// each sample within the PQRST cycle.
//
// The shape is illustrative (half-sine pulses), not clinically meaningful.
type ECGSynth struct {
	rng        *rand.Rand
	sampleRate float64
	batchSize  int

	phase     float64
	heartRate float64
}

// NewECGSynth creates a synthesizer emitting batchSize samples per Generate
// call at the given sample rate (samples per second of waveform time).
func NewECGSynth(rng *rand.Rand, sampleRate float64, batchSize int) *ECGSynth {
	if sampleRate <= 0 {
		sampleRate = 100
	}
	if batchSize <= 0 {
		batchSize = 12
	}
	return &ECGSynth{
		rng:        rng,
		sampleRate: sampleRate,
		batchSize:  batchSize,
		heartRate:  75,
	}
}

// Generate advances the heart rate one bounded random-walk step, then emits
// the next batch of waveform samples.
func (s *ECGSynth) Generate(now time.Time) model.ECGBatch {
	s.heartRate = clamp(s.heartRate+(s.rng.Float64()*2-1)*hrStep, hrMin, hrMax)

	samples := make([]float64, s.batchSize)
	for i := range samples {
		t := math.Mod(s.phase, 1)
		v := pAmp*halfSine(t, pStart, pEnd) +
			qrsAmp*halfSine(t, qrsStart, qrsEnd) +
			tAmp*halfSine(t, tStart, tEnd)
		v += (s.rng.Float64()*2 - 1) * ecgNoiseAmp
		samples[i] = round2(v)

		s.phase += (s.heartRate / 60) / s.sampleRate
	}

	return model.ECGBatch{Samples: samples, Timestamp: now.Unix()}
}

// Phase returns the unbounded phase accumulator, in cycles.
func (s *ECGSynth) Phase() float64 { return s.phase }

// HeartRate returns the synthesizer's current heart rate in bpm.
func (s *ECGSynth) HeartRate() float64 { return s.heartRate }

// halfSine evaluates a half-sine bell over [start, end), zero elsewhere.
func halfSine(t, start, end float64) float64 {
	if t < start || t >= end {
		return 0
	}
	return math.Sin((t - start) / (end - start) * math.Pi)
}

// Package types defines the health-metric data model shared across the
// ingestion pipeline: metric kinds, typed readings, per-call groups, and
// row/chunk outcomes.
package types

// Kind identifies one supported health-metric category. Each kind maps to a
// fixed column schema in the relational store; the column count drives chunk
// sizing against the store's bound-parameter ceiling.
type Kind string

const (
	KindHeartRate       Kind = "heart_rate"
	KindBloodPressure   Kind = "blood_pressure"
	KindSleep           Kind = "sleep"
	KindActivity        Kind = "activity"
	KindBodyMeasurement Kind = "body_measurement"
	KindTemperature     Kind = "temperature"
	KindRespiratory     Kind = "respiratory"
	KindWorkout         Kind = "workout"
	KindBloodGlucose    Kind = "blood_glucose"
	KindNutrition       Kind = "nutrition"
	KindMenstrual       Kind = "menstrual"
	KindFertility       Kind = "fertility"
	KindEnvironmental   Kind = "environmental"
	KindAudioExposure   Kind = "audio_exposure"
	KindSafetyEvent     Kind = "safety_event"
	KindMindfulness     Kind = "mindfulness"
	KindMentalHealth    Kind = "mental_health"
	KindSymptom         Kind = "symptom"
	KindHygiene         Kind = "hygiene"

	// KindUnknown tags readings whose kind string was not recognized by the
	// parser. They flow through the pipeline unvalidated so that new client
	// kinds surface operationally instead of vanishing.
	KindUnknown Kind = "unknown"
)

// columnCounts is the number of bound parameters one row of each kind
// occupies in its insert statement, user_id included.
var columnCounts = map[Kind]int{
	KindHeartRate:       10,
	KindBloodPressure:   6,
	KindSleep:           10,
	KindActivity:        19,
	KindBodyMeasurement: 16,
	KindTemperature:     8,
	KindRespiratory:     7,
	KindWorkout:         10,
	KindBloodGlucose:    8,
	KindNutrition:       32,
	KindMenstrual:       8,
	KindFertility:       12,
	KindEnvironmental:   14,
	KindAudioExposure:   7,
	KindSafetyEvent:     8,
	KindMindfulness:     9,
	KindMentalHealth:    10,
	KindSymptom:         9,
	KindHygiene:         8,
}

// Columns returns the bound-parameter count per row for the kind.
// Returns 0 for kinds with no registered schema (including KindUnknown).
func (k Kind) Columns() int {
	return columnCounts[k]
}

// Known reports whether the kind has a registered column schema.
func (k Kind) Known() bool {
	_, ok := columnCounts[k]
	return ok
}

func (k Kind) String() string {
	return string(k)
}

// Kinds returns all kinds with a registered schema, in stable order.
func Kinds() []Kind {
	return []Kind{
		KindHeartRate,
		KindBloodPressure,
		KindSleep,
		KindActivity,
		KindBodyMeasurement,
		KindTemperature,
		KindRespiratory,
		KindWorkout,
		KindBloodGlucose,
		KindNutrition,
		KindMenstrual,
		KindFertility,
		KindEnvironmental,
		KindAudioExposure,
		KindSafetyEvent,
		KindMindfulness,
		KindMentalHealth,
		KindSymptom,
		KindHygiene,
	}
}

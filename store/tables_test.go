package store

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/vitalsink/vitalsink/types"
)

// sampleMetrics yields one populated reading per kind so every binder can be
// exercised against its column list.
func sampleMetrics(t *testing.T) map[types.Kind]types.Metric {
	t.Helper()
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	return map[types.Kind]types.Metric{
		types.KindHeartRate:       &types.HeartRateMetric{Time: now},
		types.KindBloodPressure:   &types.BloodPressureMetric{Time: now, Systolic: 120, Diastolic: 80},
		types.KindSleep:           &types.SleepMetric{Start: now, End: now.Add(8 * time.Hour), DurationMinutes: 480},
		types.KindActivity:        &types.ActivityMetric{Date: now},
		types.KindBodyMeasurement: &types.BodyMeasurementMetric{Time: now},
		types.KindTemperature:     &types.TemperatureMetric{Time: now},
		types.KindRespiratory:     &types.RespiratoryMetric{Time: now},
		types.KindWorkout:         &types.WorkoutMetric{WorkoutType: "running", Start: now, End: now.Add(time.Hour)},
		types.KindBloodGlucose:    &types.BloodGlucoseMetric{Time: now, GlucoseMgDl: 95},
		types.KindNutrition:       &types.NutritionMetric{Time: now},
		types.KindMenstrual:       &types.MenstrualMetric{Time: now},
		types.KindFertility:       &types.FertilityMetric{Time: now},
		types.KindEnvironmental:   &types.EnvironmentalMetric{Time: now},
		types.KindAudioExposure:   &types.AudioExposureMetric{Time: now},
		types.KindSafetyEvent:     &types.SafetyEventMetric{Time: now, EventType: "fall"},
		types.KindMindfulness:     &types.MindfulnessMetric{Time: now},
		types.KindMentalHealth:    &types.MentalHealthMetric{Time: now},
		types.KindSymptom:         &types.SymptomMetric{Time: now, SymptomType: "headache"},
		types.KindHygiene:         &types.HygieneMetric{Time: now, ActivityType: "handwashing"},
	}
}

// Chunk sizing plans against Kind.Columns(); the insert statement binds
// len(spec.columns) values. The two must never drift.
func TestTableSpecs_ColumnCountsAlign(t *testing.T) {
	samples := sampleMetrics(t)
	userID := uuid.New()

	for _, kind := range types.Kinds() {
		spec, ok := tableSpecs[kind]
		if !ok {
			t.Errorf("kind %s: no table spec", kind)
			continue
		}
		if len(spec.columns) != kind.Columns() {
			t.Errorf("kind %s: %d columns in spec, Columns() = %d",
				kind, len(spec.columns), kind.Columns())
		}

		args, err := spec.bind(userID, samples[kind])
		if err != nil {
			t.Errorf("kind %s: bind: %v", kind, err)
			continue
		}
		if len(args) != len(spec.columns) {
			t.Errorf("kind %s: binder produced %d args for %d columns",
				kind, len(args), len(spec.columns))
		}
	}
}

func TestTableSpecs_BindRejectsWrongType(t *testing.T) {
	spec := tableSpecs[types.KindHeartRate]
	_, err := spec.bind(uuid.New(), &types.SleepMetric{})
	if err == nil {
		t.Fatal("binding a sleep reading as heart_rate should fail")
	}
}

func TestTableSpecs_WorkoutGeneratesID(t *testing.T) {
	spec := tableSpecs[types.KindWorkout]
	m := sampleMetrics(t)[types.KindWorkout]

	a, err := spec.bind(uuid.New(), m)
	if err != nil {
		t.Fatalf("bind: %v", err)
	}
	b, err := spec.bind(uuid.New(), m)
	if err != nil {
		t.Fatalf("bind: %v", err)
	}
	idA, ok := a[0].(uuid.UUID)
	if !ok {
		t.Fatalf("first workout arg is %T, want uuid.UUID", a[0])
	}
	if idA == b[0].(uuid.UUID) {
		t.Error("two binds produced the same workout id")
	}
}

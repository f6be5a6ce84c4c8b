package validate

import (
	"bytes"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/vitalsink/vitalsink/log"
	"github.com/vitalsink/vitalsink/types"
)

func i16(v int16) *int16     { return &v }
func i32(v int32) *int32     { return &v }
func f64(v float64) *float64 { return &v }
func f32(v float32) *float32 { return &v }

var at = time.Date(2026, 8, 1, 7, 0, 0, 0, time.UTC)

func TestValidators_Table(t *testing.T) {
	tests := []struct {
		name   string
		metric types.Metric
		wantOK bool
		reason string // substring of the rejection reason
	}{
		{"heart rate in range", &types.HeartRateMetric{Time: at, BPM: i16(62)}, true, ""},
		{"heart rate too low", &types.HeartRateMetric{Time: at, BPM: i16(10)}, false, "bpm"},
		{"heart rate too high", &types.HeartRateMetric{Time: at, BPM: i16(350)}, false, "bpm"},

		{"blood pressure in range", &types.BloodPressureMetric{Time: at, Systolic: 118, Diastolic: 76}, true, ""},
		{"systolic out of range", &types.BloodPressureMetric{Time: at, Systolic: 300, Diastolic: 76}, false, "systolic"},
		{"systolic not above diastolic", &types.BloodPressureMetric{Time: at, Systolic: 80, Diastolic: 80}, false, "higher than diastolic"},
		{"pulse out of range", &types.BloodPressureMetric{Time: at, Systolic: 118, Diastolic: 76, Pulse: i16(400)}, false, "pulse"},

		{"sleep consistent", &types.SleepMetric{Start: at, End: at.Add(8 * time.Hour), DurationMinutes: 480}, true, ""},
		{"sleep duration within tolerance", &types.SleepMetric{Start: at, End: at.Add(8 * time.Hour), DurationMinutes: 450}, true, ""},
		{"sleep duration off by too much", &types.SleepMetric{Start: at, End: at.Add(8 * time.Hour), DurationMinutes: 300}, false, "does not match"},
		{"sleep end before start", &types.SleepMetric{Start: at, End: at.Add(-time.Hour), DurationMinutes: 60}, false, "end must be after"},
		{"sleep stages exceed session", &types.SleepMetric{
			Start: at, End: at.Add(2 * time.Hour), DurationMinutes: 120,
			DeepMinutes: i32(90), RemMinutes: i32(60),
		}, false, "stages"},
		{"sleep efficiency out of range", &types.SleepMetric{
			Start: at, End: at.Add(8 * time.Hour), DurationMinutes: 480, Efficiency: f32(130),
		}, false, "efficiency"},

		{"activity plausible", &types.ActivityMetric{Date: at, Steps: i32(12000)}, true, ""},
		{"activity steps absurd", &types.ActivityMetric{Date: at, Steps: i32(300000)}, false, "steps"},
		{"activity negative distance", &types.ActivityMetric{Date: at, DistanceMeters: f64(-5)}, false, "distance"},

		{"body weight in range", &types.BodyMeasurementMetric{Time: at, WeightKg: f64(72.5)}, true, ""},
		{"body weight out of range", &types.BodyMeasurementMetric{Time: at, WeightKg: f64(600)}, false, "weight"},
		{"bmi out of range", &types.BodyMeasurementMetric{Time: at, BMI: f64(60)}, false, "bmi"},

		{"respiratory in range", &types.RespiratoryMetric{Time: at, RatePerMin: i32(16), OxygenSaturation: f64(98)}, true, ""},
		{"spo2 too low", &types.RespiratoryMetric{Time: at, OxygenSaturation: f64(60)}, false, "oxygen_saturation"},
		{"respiratory rate out of range", &types.RespiratoryMetric{Time: at, RatePerMin: i32(90)}, false, "respiratory rate"},

		{"glucose in range", &types.BloodGlucoseMetric{Time: at, GlucoseMgDl: 95}, true, ""},
		{"glucose out of range", &types.BloodGlucoseMetric{Time: at, GlucoseMgDl: 700}, false, "glucose"},

		{"workout valid", &types.WorkoutMetric{WorkoutType: "running", Start: at, End: at.Add(time.Hour)}, true, ""},
		{"workout missing type", &types.WorkoutMetric{Start: at, End: at.Add(time.Hour)}, false, "workout_type"},
		{"workout too long", &types.WorkoutMetric{WorkoutType: "ultra", Start: at, End: at.Add(30 * time.Hour)}, false, "duration exceeds"},
		{"workout route latitude", &types.WorkoutMetric{
			WorkoutType: "running", Start: at, End: at.Add(time.Hour),
			Route: []types.GPSPoint{{Latitude: 95, Longitude: 0, Time: at.Add(time.Minute)}},
		}, false, "latitude"},
		{"workout route point outside window", &types.WorkoutMetric{
			WorkoutType: "running", Start: at, End: at.Add(time.Hour),
			Route: []types.GPSPoint{{Latitude: 40, Longitude: -70, Time: at.Add(2 * time.Hour)}},
		}, false, "outside workout"},

		{"temperature in range", &types.TemperatureMetric{Time: at, BodyCelsius: f64(36.6)}, true, ""},
		{"temperature out of range", &types.TemperatureMetric{Time: at, BodyCelsius: f64(50)}, false, "body_celsius"},

		{"nutrition non-negative", &types.NutritionMetric{Time: at, ProteinG: f64(30)}, true, ""},
		{"nutrition negative", &types.NutritionMetric{Time: at, SodiumMg: f64(-1)}, false, "sodium"},

		{"environmental coordinates", &types.EnvironmentalMetric{Time: at, Latitude: f64(51.5), Longitude: f64(-0.1)}, true, ""},
		{"environmental longitude out of range", &types.EnvironmentalMetric{Time: at, Longitude: f64(200)}, false, "longitude"},

		{"safety event typed", &types.SafetyEventMetric{Time: at, EventType: "fall"}, true, ""},
		{"safety event untyped", &types.SafetyEventMetric{Time: at}, false, "event_type"},

		{"mental health ratings", &types.MentalHealthMetric{Time: at, MoodRating: i16(4)}, true, ""},
		{"symptom severity out of range", &types.SymptomMetric{Time: at, SymptomType: "headache", Severity: i16(15)}, false, "severity"},
	}

	reg := NewRegistry(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			group := types.MetricGroup{
				Kind: tt.metric.Kind(),
				Rows: []types.Row{{Index: 0, Metric: tt.metric}},
			}
			rows := reg.Apply(group)
			if len(rows) != 1 {
				t.Fatalf("Apply produced %d rows, want 1", len(rows))
			}
			got := rows[0]
			if tt.wantOK {
				if got.Outcome != types.RowAccepted {
					t.Fatalf("outcome = %s (%s), want accepted", got.Outcome, got.Reason)
				}
				return
			}
			if got.Outcome != types.RowRejected {
				t.Fatalf("outcome = %s, want rejected", got.Outcome)
			}
			if !strings.Contains(got.Reason, tt.reason) {
				t.Errorf("reason %q does not mention %q", got.Reason, tt.reason)
			}
		})
	}
}

func TestValidators_NaNRejected(t *testing.T) {
	nan := f64(math.NaN())
	reg := NewRegistry(nil)
	group := types.MetricGroup{
		Kind: types.KindHeartRate,
		Rows: []types.Row{{Index: 0, Metric: &types.HeartRateMetric{Time: at, HRVMillis: nan}}},
	}
	rows := reg.Apply(group)
	if rows[0].Outcome != types.RowRejected {
		t.Fatalf("NaN accepted: %+v", rows[0])
	}
	if !strings.Contains(rows[0].Reason, "finite") {
		t.Errorf("reason %q does not mention finiteness", rows[0].Reason)
	}
}

func TestApply_MixedGroupKeepsOrder(t *testing.T) {
	reg := NewRegistry(nil)
	group := types.MetricGroup{
		Kind: types.KindHeartRate,
		Rows: []types.Row{
			{Index: 0, Metric: &types.HeartRateMetric{Time: at, BPM: i16(60)}},
			{Index: 1, Metric: &types.HeartRateMetric{Time: at, BPM: i16(999)}},
			{Index: 2, Metric: &types.HeartRateMetric{Time: at, BPM: i16(70)}},
		},
	}
	rows := reg.Apply(group)
	if len(rows) != 3 {
		t.Fatalf("Apply produced %d rows, want 3", len(rows))
	}
	wants := []types.RowOutcome{types.RowAccepted, types.RowRejected, types.RowAccepted}
	for i, want := range wants {
		if rows[i].Row.Index != i {
			t.Errorf("row %d: index = %d", i, rows[i].Row.Index)
		}
		if rows[i].Outcome != want {
			t.Errorf("row %d: outcome = %s, want %s", i, rows[i].Outcome, want)
		}
	}
}

func TestApply_UnknownKindWarnsOnce(t *testing.T) {
	var buf bytes.Buffer
	logger := log.Nop().WithOutput(&buf)
	reg := NewRegistry(logger)

	group := types.MetricGroup{
		Kind: types.KindUnknown,
		Rows: []types.Row{
			{Index: 0, Metric: &types.UnknownMetric{KindName: "brainwave", Time: at}},
		},
	}

	for i := 0; i < 3; i++ {
		rows := reg.Apply(group)
		if rows[0].Outcome != types.RowAccepted {
			t.Fatalf("unknown kind with timestamp rejected: %+v", rows[0])
		}
	}

	if got := strings.Count(buf.String(), "brainwave"); got != 1 {
		t.Errorf("unknown-kind warning logged %d times, want 1", got)
	}
}

func TestApply_UnknownKindMissingTimestamp(t *testing.T) {
	reg := NewRegistry(nil)
	group := types.MetricGroup{
		Kind: types.KindUnknown,
		Rows: []types.Row{{Index: 0, Metric: &types.UnknownMetric{KindName: "brainwave"}}},
	}
	rows := reg.Apply(group)
	if rows[0].Outcome != types.RowRejected {
		t.Fatalf("missing timestamp accepted: %+v", rows[0])
	}
}

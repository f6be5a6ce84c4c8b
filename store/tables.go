package store

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/vitalsink/vitalsink/types"
)

// tableSpec describes how one metric kind maps onto its table: the column
// list in insert order and the binder that flattens a reading into args.
// len(columns) must equal the kind's declared column count; a test enforces
// this so chunk sizing and the real statements can never drift apart.
type tableSpec struct {
	table   string
	columns []string
	bind    func(userID uuid.UUID, m types.Metric) ([]any, error)
}

func bindErr(kind types.Kind, m types.Metric) error {
	return fmt.Errorf("cannot bind %T as %s row", m, kind)
}

var tableSpecs = map[types.Kind]tableSpec{
	types.KindHeartRate: {
		table: "heart_rate_metrics",
		columns: []string{
			"user_id", "recorded_at", "bpm", "resting_bpm", "hrv_ms",
			"walking_avg_bpm", "recovery_bpm", "vo2_max", "context", "source_device",
		},
		bind: func(userID uuid.UUID, m types.Metric) ([]any, error) {
			hr, ok := m.(*types.HeartRateMetric)
			if !ok {
				return nil, bindErr(types.KindHeartRate, m)
			}
			return []any{
				userID, hr.Time, hr.BPM, hr.RestingBPM, hr.HRVMillis,
				hr.WalkingAvgBPM, hr.RecoveryBPM, hr.VO2Max, hr.Context, hr.SourceDevice,
			}, nil
		},
	},
	types.KindBloodPressure: {
		table: "blood_pressure_metrics",
		columns: []string{
			"user_id", "recorded_at", "systolic", "diastolic", "pulse", "source_device",
		},
		bind: func(userID uuid.UUID, m types.Metric) ([]any, error) {
			bp, ok := m.(*types.BloodPressureMetric)
			if !ok {
				return nil, bindErr(types.KindBloodPressure, m)
			}
			return []any{userID, bp.Time, bp.Systolic, bp.Diastolic, bp.Pulse, bp.SourceDevice}, nil
		},
	},
	types.KindSleep: {
		table: "sleep_metrics",
		columns: []string{
			"user_id", "sleep_start", "sleep_end", "duration_minutes",
			"deep_sleep_minutes", "rem_sleep_minutes", "light_sleep_minutes",
			"awake_minutes", "efficiency", "source_device",
		},
		bind: func(userID uuid.UUID, m types.Metric) ([]any, error) {
			s, ok := m.(*types.SleepMetric)
			if !ok {
				return nil, bindErr(types.KindSleep, m)
			}
			return []any{
				userID, s.Start, s.End, s.DurationMinutes,
				s.DeepMinutes, s.RemMinutes, s.LightMinutes,
				s.AwakeMinutes, s.Efficiency, s.SourceDevice,
			}, nil
		},
	},
	types.KindActivity: {
		table: "activity_metrics",
		columns: []string{
			"user_id", "recorded_date", "step_count", "distance_meters",
			"active_energy_kcal", "basal_energy_kcal", "flights_climbed",
			"distance_cycling_meters", "distance_swimming_meters",
			"distance_wheelchair_meters", "distance_downhill_meters",
			"push_count", "swimming_stroke_count", "nike_fuel_points",
			"exercise_minutes", "stand_minutes", "move_minutes",
			"stand_hour_achieved", "source_device",
		},
		bind: func(userID uuid.UUID, m types.Metric) ([]any, error) {
			a, ok := m.(*types.ActivityMetric)
			if !ok {
				return nil, bindErr(types.KindActivity, m)
			}
			return []any{
				userID, a.Date, a.Steps, a.DistanceMeters,
				a.ActiveKcal, a.BasalKcal, a.FlightsClimbed,
				a.CyclingMeters, a.SwimmingMeters,
				a.WheelchairMeters, a.DownhillMeters,
				a.PushCount, a.StrokeCount, a.NikeFuelPoints,
				a.ExerciseMinutes, a.StandMinutes, a.MoveMinutes,
				a.StandHourAchieved, a.SourceDevice,
			}, nil
		},
	},
	types.KindBodyMeasurement: {
		table: "body_measurements",
		columns: []string{
			"user_id", "recorded_at", "body_weight_kg", "body_mass_index",
			"body_fat_percentage", "lean_body_mass_kg", "height_cm",
			"waist_circumference_cm", "hip_circumference_cm",
			"chest_circumference_cm", "arm_circumference_cm",
			"thigh_circumference_cm", "body_temperature_celsius",
			"basal_body_temperature_celsius", "measurement_source", "source_device",
		},
		bind: func(userID uuid.UUID, m types.Metric) ([]any, error) {
			b, ok := m.(*types.BodyMeasurementMetric)
			if !ok {
				return nil, bindErr(types.KindBodyMeasurement, m)
			}
			return []any{
				userID, b.Time, b.WeightKg, b.BMI,
				b.BodyFatPercent, b.LeanMassKg, b.HeightCm,
				b.WaistCm, b.HipCm, b.ChestCm, b.ArmCm, b.ThighCm,
				b.BodyTempCelsius, b.BasalTempCelsius, b.MeasurementSource, b.SourceDevice,
			}, nil
		},
	},
	types.KindTemperature: {
		table: "temperature_metrics",
		columns: []string{
			"user_id", "recorded_at", "body_temperature_celsius",
			"basal_body_temperature_celsius", "wrist_temperature_celsius",
			"water_temperature_celsius", "temperature_source", "source_device",
		},
		bind: func(userID uuid.UUID, m types.Metric) ([]any, error) {
			t, ok := m.(*types.TemperatureMetric)
			if !ok {
				return nil, bindErr(types.KindTemperature, m)
			}
			return []any{
				userID, t.Time, t.BodyCelsius, t.BasalCelsius,
				t.WristCelsius, t.WaterCelsius, t.Source, t.SourceDevice,
			}, nil
		},
	},
	types.KindRespiratory: {
		table: "respiratory_metrics",
		columns: []string{
			"user_id", "recorded_at", "respiratory_rate", "oxygen_saturation",
			"forced_vital_capacity_l", "forced_expiratory_volume_1_l", "source_device",
		},
		bind: func(userID uuid.UUID, m types.Metric) ([]any, error) {
			r, ok := m.(*types.RespiratoryMetric)
			if !ok {
				return nil, bindErr(types.KindRespiratory, m)
			}
			return []any{
				userID, r.Time, r.RatePerMin, r.OxygenSaturation,
				r.FVCLiters, r.FEV1Liters, r.SourceDevice,
			}, nil
		},
	},
	types.KindWorkout: {
		table: "workouts",
		columns: []string{
			"id", "user_id", "workout_type", "started_at", "ended_at",
			"total_energy_kcal", "distance_meters", "avg_heart_rate",
			"max_heart_rate", "source_device",
		},
		bind: func(userID uuid.UUID, m types.Metric) ([]any, error) {
			w, ok := m.(*types.WorkoutMetric)
			if !ok {
				return nil, bindErr(types.KindWorkout, m)
			}
			return []any{
				uuid.New(), userID, w.WorkoutType, w.Start, w.End,
				w.EnergyKcal, w.DistanceMeters, w.AvgHeartRate,
				w.MaxHeartRate, w.SourceDevice,
			}, nil
		},
	},
	types.KindBloodGlucose: {
		table: "blood_glucose_metrics",
		columns: []string{
			"user_id", "recorded_at", "blood_glucose_mg_dl", "measurement_context",
			"medication_taken", "insulin_delivery_units", "glucose_source", "source_device",
		},
		bind: func(userID uuid.UUID, m types.Metric) ([]any, error) {
			g, ok := m.(*types.BloodGlucoseMetric)
			if !ok {
				return nil, bindErr(types.KindBloodGlucose, m)
			}
			return []any{
				userID, g.Time, g.GlucoseMgDl, g.MeasurementContext,
				g.MedicationTaken, g.InsulinUnits, g.Source, g.SourceDevice,
			}, nil
		},
	},
	types.KindNutrition: {
		table: "nutrition_metrics",
		columns: []string{
			"user_id", "recorded_at", "water_ml", "energy_kcal", "protein_g",
			"carbohydrates_g", "fiber_g", "sugar_g", "fat_total_g",
			"fat_saturated_g", "fat_monounsaturated_g", "fat_polyunsaturated_g",
			"cholesterol_mg", "sodium_mg", "potassium_mg", "calcium_mg",
			"iron_mg", "magnesium_mg", "zinc_mg", "phosphorus_mg",
			"caffeine_mg", "vitamin_a_mcg", "vitamin_c_mg", "vitamin_d_mcg",
			"vitamin_e_mg", "vitamin_k_mcg", "vitamin_b6_mg", "vitamin_b12_mcg",
			"folate_mcg", "meal_type", "meal_id", "source_device",
		},
		bind: func(userID uuid.UUID, m types.Metric) ([]any, error) {
			n, ok := m.(*types.NutritionMetric)
			if !ok {
				return nil, bindErr(types.KindNutrition, m)
			}
			return []any{
				userID, n.Time, n.WaterMl, n.EnergyKcal, n.ProteinG,
				n.CarbohydratesG, n.FiberG, n.SugarG, n.FatTotalG,
				n.FatSaturatedG, n.FatMonounsaturatedG, n.FatPolyunsaturatedG,
				n.CholesterolMg, n.SodiumMg, n.PotassiumMg, n.CalciumMg,
				n.IronMg, n.MagnesiumMg, n.ZincMg, n.PhosphorusMg,
				n.CaffeineMg, n.VitaminAMcg, n.VitaminCMg, n.VitaminDMcg,
				n.VitaminEMg, n.VitaminKMcg, n.VitaminB6Mg, n.VitaminB12Mcg,
				n.FolateMcg, n.MealType, n.MealID, n.SourceDevice,
			}, nil
		},
	},
	types.KindMenstrual: {
		table: "menstrual_metrics",
		columns: []string{
			"user_id", "recorded_at", "menstrual_flow", "spotting",
			"cycle_day", "cramps_severity", "notes", "source_device",
		},
		bind: func(userID uuid.UUID, m types.Metric) ([]any, error) {
			mn, ok := m.(*types.MenstrualMetric)
			if !ok {
				return nil, bindErr(types.KindMenstrual, m)
			}
			return []any{
				userID, mn.Time, mn.Flow, mn.Spotting,
				mn.CycleDay, mn.CrampsSeverity, mn.Notes, mn.SourceDevice,
			}, nil
		},
	},
	types.KindFertility: {
		table: "fertility_metrics",
		columns: []string{
			"user_id", "recorded_at", "cervical_mucus_quality",
			"ovulation_test_result", "sexual_activity", "pregnancy_test_result",
			"basal_body_temperature", "cervix_firmness", "cervix_position",
			"lh_level", "notes", "source_device",
		},
		bind: func(userID uuid.UUID, m types.Metric) ([]any, error) {
			f, ok := m.(*types.FertilityMetric)
			if !ok {
				return nil, bindErr(types.KindFertility, m)
			}
			return []any{
				userID, f.Time, f.CervicalMucus,
				f.OvulationTestResult, f.SexualActivity, f.PregnancyTestResult,
				f.BasalTempCelsius, f.CervixFirmness, f.CervixPosition,
				f.LHLevel, f.Notes, f.SourceDevice,
			}, nil
		},
	},
	types.KindEnvironmental: {
		table: "environmental_metrics",
		columns: []string{
			"user_id", "recorded_at", "environmental_audio_exposure_db",
			"headphone_audio_exposure_db", "uv_index", "uv_exposure_minutes",
			"ambient_temperature_celsius", "humidity_percent", "air_pressure_hpa",
			"altitude_meters", "time_in_daylight_minutes", "location_latitude",
			"location_longitude", "source_device",
		},
		bind: func(userID uuid.UUID, m types.Metric) ([]any, error) {
			e, ok := m.(*types.EnvironmentalMetric)
			if !ok {
				return nil, bindErr(types.KindEnvironmental, m)
			}
			return []any{
				userID, e.Time, e.AudioExposureDb,
				e.HeadphoneDb, e.UVIndex, e.UVMinutes,
				e.AmbientCelsius, e.HumidityPercent, e.AirPressureHpa,
				e.AltitudeMeters, e.DaylightMinutes, e.Latitude,
				e.Longitude, e.SourceDevice,
			}, nil
		},
	},
	types.KindAudioExposure: {
		table: "audio_exposure_metrics",
		columns: []string{
			"user_id", "recorded_at", "environmental_audio_exposure_db",
			"headphone_audio_exposure_db", "exposure_duration_minutes",
			"audio_exposure_event", "source_device",
		},
		bind: func(userID uuid.UUID, m types.Metric) ([]any, error) {
			a, ok := m.(*types.AudioExposureMetric)
			if !ok {
				return nil, bindErr(types.KindAudioExposure, m)
			}
			return []any{
				userID, a.Time, a.AmbientDb, a.HeadphoneDb,
				a.DurationMinutes, a.ExposureEvent, a.SourceDevice,
			}, nil
		},
	},
	types.KindSafetyEvent: {
		table: "safety_event_metrics",
		columns: []string{
			"user_id", "recorded_at", "event_type", "severity_level",
			"location", "description", "emergency_contact_notified", "source_device",
		},
		bind: func(userID uuid.UUID, m types.Metric) ([]any, error) {
			s, ok := m.(*types.SafetyEventMetric)
			if !ok {
				return nil, bindErr(types.KindSafetyEvent, m)
			}
			return []any{
				userID, s.Time, s.EventType, s.Severity,
				s.Location, s.Description, s.ContactNotified, s.SourceDevice,
			}, nil
		},
	},
	types.KindMindfulness: {
		table: "mindfulness_metrics",
		columns: []string{
			"user_id", "recorded_at", "session_type", "duration_minutes",
			"stress_level_before", "stress_level_after", "focus_rating",
			"notes", "source_device",
		},
		bind: func(userID uuid.UUID, m types.Metric) ([]any, error) {
			mf, ok := m.(*types.MindfulnessMetric)
			if !ok {
				return nil, bindErr(types.KindMindfulness, m)
			}
			return []any{
				userID, mf.Time, mf.SessionType, mf.DurationMinutes,
				mf.StressBefore, mf.StressAfter, mf.FocusRating,
				mf.Notes, mf.SourceDevice,
			}, nil
		},
	},
	types.KindMentalHealth: {
		table: "mental_health_metrics",
		columns: []string{
			"user_id", "recorded_at", "mood_rating", "anxiety_level",
			"stress_level", "energy_level", "sleep_quality_rating",
			"medication_taken", "notes", "source_device",
		},
		bind: func(userID uuid.UUID, m types.Metric) ([]any, error) {
			mh, ok := m.(*types.MentalHealthMetric)
			if !ok {
				return nil, bindErr(types.KindMentalHealth, m)
			}
			return []any{
				userID, mh.Time, mh.MoodRating, mh.AnxietyLevel,
				mh.StressLevel, mh.EnergyLevel, mh.SleepQuality,
				mh.MedicationTaken, mh.Notes, mh.SourceDevice,
			}, nil
		},
	},
	types.KindSymptom: {
		table: "symptom_metrics",
		columns: []string{
			"user_id", "recorded_at", "symptom_type", "severity_rating",
			"location", "duration_minutes", "triggers", "notes", "source_device",
		},
		bind: func(userID uuid.UUID, m types.Metric) ([]any, error) {
			s, ok := m.(*types.SymptomMetric)
			if !ok {
				return nil, bindErr(types.KindSymptom, m)
			}
			return []any{
				userID, s.Time, s.SymptomType, s.Severity,
				s.Location, s.DurationMinutes, s.Triggers, s.Notes, s.SourceDevice,
			}, nil
		},
	},
	types.KindHygiene: {
		table: "hygiene_metrics",
		columns: []string{
			"user_id", "recorded_at", "activity_type", "frequency",
			"duration_minutes", "quality_rating", "notes", "source_device",
		},
		bind: func(userID uuid.UUID, m types.Metric) ([]any, error) {
			h, ok := m.(*types.HygieneMetric)
			if !ok {
				return nil, bindErr(types.KindHygiene, m)
			}
			return []any{
				userID, h.Time, h.ActivityType, h.Frequency,
				h.DurationMinutes, h.QualityRating, h.Notes, h.SourceDevice,
			}, nil
		},
	},
}

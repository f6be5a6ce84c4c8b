package validate

import (
	"fmt"
	"math"

	"github.com/vitalsink/vitalsink/types"
)

// Clinically plausible bounds, inclusive. Values outside these ranges are
// rejected rather than clamped: a wrong reading stored silently is worse
// than a rejection the client can see.
const (
	bpmMin, bpmMax             = 20, 300
	systolicMin, systolicMax   = 50, 250
	diastolicMin, diastolicMax = 30, 150

	sleepDurationToleranceMin = 60
	efficiencyMin             = 0.0
	efficiencyMax             = 100.0

	stepsMax          = 200_000
	distanceMaxMeters = 500_000.0

	weightMinKg, weightMaxKg = 20.0, 500.0
	bmiMin, bmiMax           = 15.0, 50.0
	bodyFatMin, bodyFatMax   = 3.0, 50.0

	bodyTempMinC, bodyTempMaxC   = 30.0, 45.0
	basalTempMinC, basalTempMaxC = 35.0, 39.0
	waterTempMinC, waterTempMaxC = 0.0, 100.0

	respRateMin, respRateMax = 5, 60
	spo2Min, spo2Max         = 70.0, 100.0
	fvcMinL, fvcMaxL         = 1.0, 8.0
	fev1MinL, fev1MaxL       = 0.5, 6.0

	workoutMaxDurationHours = 24

	glucoseMinMgDl, glucoseMaxMgDl = 30.0, 600.0
	insulinMaxUnits                = 100.0

	cycleDayMin, cycleDayMax = 1, 45
	severityMin, severityMax = 0, 10
	ratingMin, ratingMax     = 1, 5

	audioDbMin, audioDbMax = 0.0, 140.0
	uvIndexMax             = 20.0
	pressureMinHpa         = 800.0
	pressureMaxHpa         = 1100.0
)

// finite rejects NaN and infinities in optional numeric fields. Malformed
// values become rejection reasons, never panics.
func finite(name string, v *float64) error {
	if v == nil {
		return nil
	}
	if math.IsNaN(*v) || math.IsInf(*v, 0) {
		return fmt.Errorf("%s must be a finite number", name)
	}
	return nil
}

func inRangeI16(name string, v *int16, lo, hi int16) error {
	if v == nil {
		return nil
	}
	if *v < lo || *v > hi {
		return fmt.Errorf("%s %d is out of range (%d-%d)", name, *v, lo, hi)
	}
	return nil
}

func inRangeF(name string, v *float64, lo, hi float64) error {
	if err := finite(name, v); err != nil {
		return err
	}
	if v == nil {
		return nil
	}
	if *v < lo || *v > hi {
		return fmt.Errorf("%s %g is out of range (%g-%g)", name, *v, lo, hi)
	}
	return nil
}

func nonNegativeF(name string, v *float64) error {
	if err := finite(name, v); err != nil {
		return err
	}
	if v != nil && *v < 0 {
		return fmt.Errorf("%s cannot be negative", name)
	}
	return nil
}

func nonNegativeI32(name string, v *int32) error {
	if v != nil && *v < 0 {
		return fmt.Errorf("%s cannot be negative", name)
	}
	return nil
}

func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

func validateHeartRate(m types.Metric) error {
	hr, ok := m.(*types.HeartRateMetric)
	if !ok {
		return fmt.Errorf("unexpected payload type for heart_rate")
	}
	return firstErr(
		inRangeI16("bpm", hr.BPM, bpmMin, bpmMax),
		inRangeI16("resting_bpm", hr.RestingBPM, bpmMin, bpmMax),
		inRangeI16("walking_avg_bpm", hr.WalkingAvgBPM, bpmMin, bpmMax),
		inRangeI16("recovery_bpm", hr.RecoveryBPM, bpmMin, bpmMax),
		nonNegativeF("hrv_ms", hr.HRVMillis),
		inRangeF("vo2_max", hr.VO2Max, 0, 100),
	)
}

func validateBloodPressure(m types.Metric) error {
	bp, ok := m.(*types.BloodPressureMetric)
	if !ok {
		return fmt.Errorf("unexpected payload type for blood_pressure")
	}
	if bp.Systolic < systolicMin || bp.Systolic > systolicMax {
		return fmt.Errorf("systolic %d is out of range (%d-%d)", bp.Systolic, systolicMin, systolicMax)
	}
	if bp.Diastolic < diastolicMin || bp.Diastolic > diastolicMax {
		return fmt.Errorf("diastolic %d is out of range (%d-%d)", bp.Diastolic, diastolicMin, diastolicMax)
	}
	if bp.Systolic <= bp.Diastolic {
		return fmt.Errorf("systolic %d must be higher than diastolic %d", bp.Systolic, bp.Diastolic)
	}
	return inRangeI16("pulse", bp.Pulse, bpmMin, bpmMax)
}

func validateSleep(m types.Metric) error {
	s, ok := m.(*types.SleepMetric)
	if !ok {
		return fmt.Errorf("unexpected payload type for sleep")
	}
	if !s.End.After(s.Start) {
		return fmt.Errorf("sleep end must be after sleep start")
	}

	calculated := int32(s.End.Sub(s.Start).Minutes())
	if diff := s.DurationMinutes - calculated; diff > sleepDurationToleranceMin || diff < -sleepDurationToleranceMin {
		return fmt.Errorf("duration_minutes %d does not match session length (%d minutes)", s.DurationMinutes, calculated)
	}

	if s.Efficiency != nil {
		e := float64(*s.Efficiency)
		if math.IsNaN(e) || e < efficiencyMin || e > efficiencyMax {
			return fmt.Errorf("efficiency %g is out of range (0-100)", e)
		}
	}

	// Stage minutes must fit inside the session.
	var stages int32
	for _, v := range []*int32{s.DeepMinutes, s.RemMinutes, s.LightMinutes, s.AwakeMinutes} {
		if v != nil {
			if *v < 0 {
				return fmt.Errorf("sleep stage minutes cannot be negative")
			}
			stages += *v
		}
	}
	if stages > calculated {
		return fmt.Errorf("sleep stages total %d minutes exceeds session length (%d minutes)", stages, calculated)
	}
	return nil
}

func validateActivity(m types.Metric) error {
	a, ok := m.(*types.ActivityMetric)
	if !ok {
		return fmt.Errorf("unexpected payload type for activity")
	}
	if a.Steps != nil && (*a.Steps < 0 || *a.Steps > stepsMax) {
		return fmt.Errorf("steps %d is out of range (0-%d)", *a.Steps, stepsMax)
	}
	if a.DistanceMeters != nil && (*a.DistanceMeters < 0 || *a.DistanceMeters > distanceMaxMeters) {
		return fmt.Errorf("distance_meters %g is out of range (0-%g)", *a.DistanceMeters, distanceMaxMeters)
	}
	return firstErr(
		nonNegativeF("active_kcal", a.ActiveKcal),
		nonNegativeF("basal_kcal", a.BasalKcal),
		nonNegativeI32("flights_climbed", a.FlightsClimbed),
		nonNegativeF("cycling_meters", a.CyclingMeters),
		nonNegativeF("swimming_meters", a.SwimmingMeters),
		nonNegativeF("wheelchair_meters", a.WheelchairMeters),
		nonNegativeF("downhill_meters", a.DownhillMeters),
		nonNegativeI32("push_count", a.PushCount),
		nonNegativeI32("stroke_count", a.StrokeCount),
		nonNegativeI32("exercise_minutes", a.ExerciseMinutes),
		nonNegativeI32("stand_minutes", a.StandMinutes),
		nonNegativeI32("move_minutes", a.MoveMinutes),
	)
}

func validateBodyMeasurement(m types.Metric) error {
	b, ok := m.(*types.BodyMeasurementMetric)
	if !ok {
		return fmt.Errorf("unexpected payload type for body_measurement")
	}
	return firstErr(
		inRangeF("weight_kg", b.WeightKg, weightMinKg, weightMaxKg),
		inRangeF("bmi", b.BMI, bmiMin, bmiMax),
		inRangeF("body_fat_percent", b.BodyFatPercent, bodyFatMin, bodyFatMax),
		nonNegativeF("lean_mass_kg", b.LeanMassKg),
		inRangeF("height_cm", b.HeightCm, 50, 280),
		nonNegativeF("waist_cm", b.WaistCm),
		nonNegativeF("hip_cm", b.HipCm),
		nonNegativeF("chest_cm", b.ChestCm),
		nonNegativeF("arm_cm", b.ArmCm),
		nonNegativeF("thigh_cm", b.ThighCm),
		inRangeF("body_temp_celsius", b.BodyTempCelsius, bodyTempMinC, bodyTempMaxC),
		inRangeF("basal_temp_celsius", b.BasalTempCelsius, basalTempMinC, basalTempMaxC),
	)
}

func validateTemperature(m types.Metric) error {
	t, ok := m.(*types.TemperatureMetric)
	if !ok {
		return fmt.Errorf("unexpected payload type for temperature")
	}
	return firstErr(
		inRangeF("body_celsius", t.BodyCelsius, bodyTempMinC, bodyTempMaxC),
		inRangeF("basal_celsius", t.BasalCelsius, basalTempMinC, basalTempMaxC),
		inRangeF("wrist_celsius", t.WristCelsius, bodyTempMinC, bodyTempMaxC),
		inRangeF("water_celsius", t.WaterCelsius, waterTempMinC, waterTempMaxC),
	)
}

func validateRespiratory(m types.Metric) error {
	r, ok := m.(*types.RespiratoryMetric)
	if !ok {
		return fmt.Errorf("unexpected payload type for respiratory")
	}
	if r.RatePerMin != nil && (*r.RatePerMin < respRateMin || *r.RatePerMin > respRateMax) {
		return fmt.Errorf("respiratory rate %d is out of range (%d-%d)", *r.RatePerMin, respRateMin, respRateMax)
	}
	return firstErr(
		inRangeF("oxygen_saturation", r.OxygenSaturation, spo2Min, spo2Max),
		inRangeF("fvc_liters", r.FVCLiters, fvcMinL, fvcMaxL),
		inRangeF("fev1_liters", r.FEV1Liters, fev1MinL, fev1MaxL),
	)
}

func validateWorkout(m types.Metric) error {
	w, ok := m.(*types.WorkoutMetric)
	if !ok {
		return fmt.Errorf("unexpected payload type for workout")
	}
	if w.WorkoutType == "" {
		return fmt.Errorf("workout_type cannot be empty")
	}
	if !w.End.After(w.Start) {
		return fmt.Errorf("workout end must be after start")
	}
	if w.End.Sub(w.Start).Hours() > workoutMaxDurationHours {
		return fmt.Errorf("workout duration exceeds %d hours", workoutMaxDurationHours)
	}
	if err := firstErr(
		nonNegativeF("energy_kcal", w.EnergyKcal),
		nonNegativeF("distance_meters", w.DistanceMeters),
		inRangeI16("avg_heart_rate", w.AvgHeartRate, bpmMin, bpmMax),
		inRangeI16("max_heart_rate", w.MaxHeartRate, bpmMin, bpmMax),
	); err != nil {
		return err
	}

	for i, p := range w.Route {
		if p.Latitude < -90 || p.Latitude > 90 {
			return fmt.Errorf("route point %d: latitude %g is out of range (-90 to 90)", i, p.Latitude)
		}
		if p.Longitude < -180 || p.Longitude > 180 {
			return fmt.Errorf("route point %d: longitude %g is out of range (-180 to 180)", i, p.Longitude)
		}
		if p.Time.Before(w.Start) || p.Time.After(w.End) {
			return fmt.Errorf("route point %d timestamp is outside workout duration", i)
		}
	}
	return nil
}

func validateBloodGlucose(m types.Metric) error {
	g, ok := m.(*types.BloodGlucoseMetric)
	if !ok {
		return fmt.Errorf("unexpected payload type for blood_glucose")
	}
	if math.IsNaN(g.GlucoseMgDl) || g.GlucoseMgDl < glucoseMinMgDl || g.GlucoseMgDl > glucoseMaxMgDl {
		return fmt.Errorf("glucose_mg_dl %g is out of range (%g-%g)", g.GlucoseMgDl, glucoseMinMgDl, glucoseMaxMgDl)
	}
	return inRangeF("insulin_units", g.InsulinUnits, 0, insulinMaxUnits)
}

func validateNutrition(m types.Metric) error {
	n, ok := m.(*types.NutritionMetric)
	if !ok {
		return fmt.Errorf("unexpected payload type for nutrition")
	}
	fields := []struct {
		name string
		v    *float64
	}{
		{"water_ml", n.WaterMl}, {"energy_kcal", n.EnergyKcal},
		{"protein_g", n.ProteinG}, {"carbohydrates_g", n.CarbohydratesG},
		{"fiber_g", n.FiberG}, {"sugar_g", n.SugarG},
		{"fat_total_g", n.FatTotalG}, {"fat_saturated_g", n.FatSaturatedG},
		{"fat_monounsaturated_g", n.FatMonounsaturatedG},
		{"fat_polyunsaturated_g", n.FatPolyunsaturatedG},
		{"cholesterol_mg", n.CholesterolMg}, {"sodium_mg", n.SodiumMg},
		{"potassium_mg", n.PotassiumMg}, {"calcium_mg", n.CalciumMg},
		{"iron_mg", n.IronMg}, {"magnesium_mg", n.MagnesiumMg},
		{"zinc_mg", n.ZincMg}, {"phosphorus_mg", n.PhosphorusMg},
		{"caffeine_mg", n.CaffeineMg}, {"vitamin_a_mcg", n.VitaminAMcg},
		{"vitamin_c_mg", n.VitaminCMg}, {"vitamin_d_mcg", n.VitaminDMcg},
		{"vitamin_e_mg", n.VitaminEMg}, {"vitamin_k_mcg", n.VitaminKMcg},
		{"vitamin_b6_mg", n.VitaminB6Mg}, {"vitamin_b12_mcg", n.VitaminB12Mcg},
		{"folate_mcg", n.FolateMcg},
	}
	for _, f := range fields {
		if err := nonNegativeF(f.name, f.v); err != nil {
			return err
		}
	}
	return nil
}

func validateMenstrual(m types.Metric) error {
	mn, ok := m.(*types.MenstrualMetric)
	if !ok {
		return fmt.Errorf("unexpected payload type for menstrual")
	}
	return firstErr(
		inRangeI16("cycle_day", mn.CycleDay, cycleDayMin, cycleDayMax),
		inRangeI16("cramps_severity", mn.CrampsSeverity, severityMin, severityMax),
	)
}

func validateFertility(m types.Metric) error {
	f, ok := m.(*types.FertilityMetric)
	if !ok {
		return fmt.Errorf("unexpected payload type for fertility")
	}
	return firstErr(
		inRangeF("basal_temp_celsius", f.BasalTempCelsius, basalTempMinC, basalTempMaxC),
		nonNegativeF("lh_level", f.LHLevel),
	)
}

func validateEnvironmental(m types.Metric) error {
	e, ok := m.(*types.EnvironmentalMetric)
	if !ok {
		return fmt.Errorf("unexpected payload type for environmental")
	}
	if e.Latitude != nil && (*e.Latitude < -90 || *e.Latitude > 90) {
		return fmt.Errorf("latitude %g is out of range (-90 to 90)", *e.Latitude)
	}
	if e.Longitude != nil && (*e.Longitude < -180 || *e.Longitude > 180) {
		return fmt.Errorf("longitude %g is out of range (-180 to 180)", *e.Longitude)
	}
	return firstErr(
		inRangeF("audio_exposure_db", e.AudioExposureDb, audioDbMin, audioDbMax),
		inRangeF("headphone_db", e.HeadphoneDb, audioDbMin, audioDbMax),
		inRangeF("uv_index", e.UVIndex, 0, uvIndexMax),
		nonNegativeI32("uv_minutes", e.UVMinutes),
		inRangeF("humidity_percent", e.HumidityPercent, 0, 100),
		inRangeF("air_pressure_hpa", e.AirPressureHpa, pressureMinHpa, pressureMaxHpa),
		nonNegativeI32("daylight_minutes", e.DaylightMinutes),
	)
}

func validateAudioExposure(m types.Metric) error {
	a, ok := m.(*types.AudioExposureMetric)
	if !ok {
		return fmt.Errorf("unexpected payload type for audio_exposure")
	}
	return firstErr(
		inRangeF("ambient_db", a.AmbientDb, audioDbMin, audioDbMax),
		inRangeF("headphone_db", a.HeadphoneDb, audioDbMin, audioDbMax),
		nonNegativeI32("duration_minutes", a.DurationMinutes),
	)
}

func validateSafetyEvent(m types.Metric) error {
	s, ok := m.(*types.SafetyEventMetric)
	if !ok {
		return fmt.Errorf("unexpected payload type for safety_event")
	}
	if s.EventType == "" {
		return fmt.Errorf("event_type cannot be empty")
	}
	return inRangeI16("severity", s.Severity, 1, severityMax)
}

func validateMindfulness(m types.Metric) error {
	mf, ok := m.(*types.MindfulnessMetric)
	if !ok {
		return fmt.Errorf("unexpected payload type for mindfulness")
	}
	if mf.DurationMinutes != nil && (*mf.DurationMinutes < 0 || *mf.DurationMinutes > 1440) {
		return fmt.Errorf("duration_minutes %d is out of range (0-1440)", *mf.DurationMinutes)
	}
	return firstErr(
		inRangeI16("stress_before", mf.StressBefore, 1, severityMax),
		inRangeI16("stress_after", mf.StressAfter, 1, severityMax),
		inRangeI16("focus_rating", mf.FocusRating, ratingMin, ratingMax),
	)
}

func validateMentalHealth(m types.Metric) error {
	mh, ok := m.(*types.MentalHealthMetric)
	if !ok {
		return fmt.Errorf("unexpected payload type for mental_health")
	}
	return firstErr(
		inRangeI16("mood_rating", mh.MoodRating, ratingMin, ratingMax),
		inRangeI16("anxiety_level", mh.AnxietyLevel, 1, severityMax),
		inRangeI16("stress_level", mh.StressLevel, 1, severityMax),
		inRangeI16("energy_level", mh.EnergyLevel, ratingMin, ratingMax),
		inRangeI16("sleep_quality", mh.SleepQuality, ratingMin, ratingMax),
	)
}

func validateSymptom(m types.Metric) error {
	s, ok := m.(*types.SymptomMetric)
	if !ok {
		return fmt.Errorf("unexpected payload type for symptom")
	}
	if s.SymptomType == "" {
		return fmt.Errorf("symptom_type cannot be empty")
	}
	return firstErr(
		inRangeI16("severity", s.Severity, 1, severityMax),
		nonNegativeI32("duration_minutes", s.DurationMinutes),
	)
}

func validateHygiene(m types.Metric) error {
	h, ok := m.(*types.HygieneMetric)
	if !ok {
		return fmt.Errorf("unexpected payload type for hygiene")
	}
	if h.ActivityType == "" {
		return fmt.Errorf("activity_type cannot be empty")
	}
	return firstErr(
		inRangeI16("frequency", h.Frequency, 1, 100),
		inRangeI16("quality_rating", h.QualityRating, ratingMin, ratingMax),
		nonNegativeI32("duration_minutes", h.DurationMinutes),
	)
}

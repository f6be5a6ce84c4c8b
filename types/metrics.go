package types

import (
	"fmt"
	"time"
)

// Metric is one typed health reading. Concrete metric structs are produced by
// the upstream parser; the pipeline never mutates them, only filters.
type Metric interface {
	// Kind returns the metric category this reading belongs to.
	Kind() Kind
	// RecordedAt is the reading's primary timestamp, used as the base of the
	// dedup key. For interval metrics this is the interval start.
	RecordedAt() time.Time
	// DedupSuffix returns extra dedup-key material for kinds that allow
	// multiple distinct readings at the same instant. Empty when unused.
	DedupSuffix() string
}

// HeartRateMetric is a point-in-time cardiovascular reading.
type HeartRateMetric struct {
	Time          time.Time `json:"recorded_at"`
	BPM           *int16    `json:"bpm,omitempty"`
	RestingBPM    *int16    `json:"resting_bpm,omitempty"`
	HRVMillis     *float64  `json:"hrv_ms,omitempty"`
	WalkingAvgBPM *int16    `json:"walking_avg_bpm,omitempty"`
	RecoveryBPM   *int16    `json:"recovery_bpm,omitempty"`
	VO2Max        *float64  `json:"vo2_max,omitempty"`
	Context       *string   `json:"context,omitempty"` // resting, exercise, recovery
	SourceDevice  *string   `json:"source_device,omitempty"`
}

func (m *HeartRateMetric) Kind() Kind            { return KindHeartRate }
func (m *HeartRateMetric) RecordedAt() time.Time { return m.Time }
func (m *HeartRateMetric) DedupSuffix() string   { return "" }

// BloodPressureMetric is a single cuff reading.
type BloodPressureMetric struct {
	Time         time.Time `json:"recorded_at"`
	Systolic     int16     `json:"systolic"`
	Diastolic    int16     `json:"diastolic"`
	Pulse        *int16    `json:"pulse,omitempty"`
	SourceDevice *string   `json:"source_device,omitempty"`
}

func (m *BloodPressureMetric) Kind() Kind            { return KindBloodPressure }
func (m *BloodPressureMetric) RecordedAt() time.Time { return m.Time }
func (m *BloodPressureMetric) DedupSuffix() string   { return "" }

// SleepMetric covers one sleep session. Identity is the (start, end) pair:
// overlapping sessions from different trackers are distinct readings.
type SleepMetric struct {
	Start           time.Time `json:"sleep_start"`
	End             time.Time `json:"sleep_end"`
	DurationMinutes int32     `json:"duration_minutes"`
	DeepMinutes     *int32    `json:"deep_sleep_minutes,omitempty"`
	RemMinutes      *int32    `json:"rem_sleep_minutes,omitempty"`
	LightMinutes    *int32    `json:"light_sleep_minutes,omitempty"`
	AwakeMinutes    *int32    `json:"awake_minutes,omitempty"`
	Efficiency      *float32  `json:"efficiency,omitempty"` // percent, 0-100
	SourceDevice    *string   `json:"source_device,omitempty"`
}

func (m *SleepMetric) Kind() Kind            { return KindSleep }
func (m *SleepMetric) RecordedAt() time.Time { return m.Start }
func (m *SleepMetric) DedupSuffix() string {
	return fmt.Sprintf("end=%d", m.End.UnixMilli())
}

// ActivityMetric is a daily activity summary keyed by calendar date.
type ActivityMetric struct {
	Date              time.Time `json:"recorded_date"` // midnight UTC of the summary day
	Steps             *int32    `json:"step_count,omitempty"`
	DistanceMeters    *float64  `json:"distance_meters,omitempty"`
	ActiveKcal        *float64  `json:"active_energy_kcal,omitempty"`
	BasalKcal         *float64  `json:"basal_energy_kcal,omitempty"`
	FlightsClimbed    *int32    `json:"flights_climbed,omitempty"`
	CyclingMeters     *float64  `json:"distance_cycling_meters,omitempty"`
	SwimmingMeters    *float64  `json:"distance_swimming_meters,omitempty"`
	WheelchairMeters  *float64  `json:"distance_wheelchair_meters,omitempty"`
	DownhillMeters    *float64  `json:"distance_downhill_meters,omitempty"`
	PushCount         *int32    `json:"push_count,omitempty"`
	StrokeCount       *int32    `json:"swimming_stroke_count,omitempty"`
	NikeFuelPoints    *int32    `json:"nike_fuel_points,omitempty"`
	ExerciseMinutes   *int32    `json:"exercise_minutes,omitempty"`
	StandMinutes      *int32    `json:"stand_minutes,omitempty"`
	MoveMinutes       *int32    `json:"move_minutes,omitempty"`
	StandHourAchieved *bool     `json:"stand_hour_achieved,omitempty"`
	SourceDevice      *string   `json:"source_device,omitempty"`
}

func (m *ActivityMetric) Kind() Kind            { return KindActivity }
func (m *ActivityMetric) RecordedAt() time.Time { return m.Date }
func (m *ActivityMetric) DedupSuffix() string   { return "" }

// BodyMeasurementMetric is a body composition snapshot.
type BodyMeasurementMetric struct {
	Time              time.Time `json:"recorded_at"`
	WeightKg          *float64  `json:"body_weight_kg,omitempty"`
	BMI               *float64  `json:"body_mass_index,omitempty"`
	BodyFatPercent    *float64  `json:"body_fat_percentage,omitempty"`
	LeanMassKg        *float64  `json:"lean_body_mass_kg,omitempty"`
	HeightCm          *float64  `json:"height_cm,omitempty"`
	WaistCm           *float64  `json:"waist_circumference_cm,omitempty"`
	HipCm             *float64  `json:"hip_circumference_cm,omitempty"`
	ChestCm           *float64  `json:"chest_circumference_cm,omitempty"`
	ArmCm             *float64  `json:"arm_circumference_cm,omitempty"`
	ThighCm           *float64  `json:"thigh_circumference_cm,omitempty"`
	BodyTempCelsius   *float64  `json:"body_temperature_celsius,omitempty"`
	BasalTempCelsius  *float64  `json:"basal_body_temperature_celsius,omitempty"`
	MeasurementSource *string   `json:"measurement_source,omitempty"`
	SourceDevice      *string   `json:"source_device,omitempty"`
}

func (m *BodyMeasurementMetric) Kind() Kind            { return KindBodyMeasurement }
func (m *BodyMeasurementMetric) RecordedAt() time.Time { return m.Time }
func (m *BodyMeasurementMetric) DedupSuffix() string   { return "" }

// TemperatureMetric groups the temperature streams a device may emit.
// Multiple sources can report at the same instant, so the source joins the key.
type TemperatureMetric struct {
	Time         time.Time `json:"recorded_at"`
	BodyCelsius  *float64  `json:"body_temperature_celsius,omitempty"`
	BasalCelsius *float64  `json:"basal_body_temperature_celsius,omitempty"`
	WristCelsius *float64  `json:"wrist_temperature_celsius,omitempty"`
	WaterCelsius *float64  `json:"water_temperature_celsius,omitempty"`
	Source       *string   `json:"temperature_source,omitempty"`
	SourceDevice *string   `json:"source_device,omitempty"`
}

func (m *TemperatureMetric) Kind() Kind            { return KindTemperature }
func (m *TemperatureMetric) RecordedAt() time.Time { return m.Time }
func (m *TemperatureMetric) DedupSuffix() string {
	if m.Source == nil {
		return ""
	}
	return "src=" + *m.Source
}

// RespiratoryMetric is a respiratory/pulmonary reading.
type RespiratoryMetric struct {
	Time             time.Time `json:"recorded_at"`
	RatePerMin       *int32    `json:"respiratory_rate,omitempty"`
	OxygenSaturation *float64  `json:"oxygen_saturation,omitempty"` // percent
	FVCLiters        *float64  `json:"forced_vital_capacity_l,omitempty"`
	FEV1Liters       *float64  `json:"forced_expiratory_volume_1_l,omitempty"`
	SourceDevice     *string   `json:"source_device,omitempty"`
}

func (m *RespiratoryMetric) Kind() Kind            { return KindRespiratory }
func (m *RespiratoryMetric) RecordedAt() time.Time { return m.Time }
func (m *RespiratoryMetric) DedupSuffix() string   { return "" }

// GPSPoint is one coordinate of a workout route.
type GPSPoint struct {
	Latitude       float64   `json:"latitude"`
	Longitude      float64   `json:"longitude"`
	AltitudeMeters *float64  `json:"altitude_meters,omitempty"`
	Time           time.Time `json:"recorded_at"`
}

// WorkoutMetric is a workout session, optionally with a GPS route.
// Route points ride along for validation but are persisted separately by the
// upstream schema; they do not count toward the workout row's columns.
type WorkoutMetric struct {
	WorkoutType    string     `json:"workout_type"`
	Start          time.Time  `json:"started_at"`
	End            time.Time  `json:"ended_at"`
	EnergyKcal     *float64   `json:"total_energy_kcal,omitempty"`
	DistanceMeters *float64   `json:"distance_meters,omitempty"`
	AvgHeartRate   *int16     `json:"avg_heart_rate,omitempty"`
	MaxHeartRate   *int16     `json:"max_heart_rate,omitempty"`
	SourceDevice   *string    `json:"source_device,omitempty"`
	Route          []GPSPoint `json:"route,omitempty"`
}

func (m *WorkoutMetric) Kind() Kind            { return KindWorkout }
func (m *WorkoutMetric) RecordedAt() time.Time { return m.Start }
func (m *WorkoutMetric) DedupSuffix() string   { return "" }

// BloodGlucoseMetric is a glucose reading. CGMs and manual meters may report
// at the same instant, so the source joins the key.
type BloodGlucoseMetric struct {
	Time               time.Time `json:"recorded_at"`
	GlucoseMgDl        float64   `json:"blood_glucose_mg_dl"`
	MeasurementContext *string   `json:"measurement_context,omitempty"` // fasting, post_meal, random
	MedicationTaken    *bool     `json:"medication_taken,omitempty"`
	InsulinUnits       *float64  `json:"insulin_delivery_units,omitempty"`
	Source             *string   `json:"glucose_source,omitempty"`
	SourceDevice       *string   `json:"source_device,omitempty"`
}

func (m *BloodGlucoseMetric) Kind() Kind            { return KindBloodGlucose }
func (m *BloodGlucoseMetric) RecordedAt() time.Time { return m.Time }
func (m *BloodGlucoseMetric) DedupSuffix() string {
	if m.Source == nil {
		return ""
	}
	return "src=" + *m.Source
}

// NutritionMetric is one logged intake entry.
type NutritionMetric struct {
	Time                time.Time `json:"recorded_at"`
	WaterMl             *float64  `json:"water_ml,omitempty"`
	EnergyKcal          *float64  `json:"energy_kcal,omitempty"`
	ProteinG            *float64  `json:"protein_g,omitempty"`
	CarbohydratesG      *float64  `json:"carbohydrates_g,omitempty"`
	FiberG              *float64  `json:"fiber_g,omitempty"`
	SugarG              *float64  `json:"sugar_g,omitempty"`
	FatTotalG           *float64  `json:"fat_total_g,omitempty"`
	FatSaturatedG       *float64  `json:"fat_saturated_g,omitempty"`
	FatMonounsaturatedG *float64  `json:"fat_monounsaturated_g,omitempty"`
	FatPolyunsaturatedG *float64  `json:"fat_polyunsaturated_g,omitempty"`
	CholesterolMg       *float64  `json:"cholesterol_mg,omitempty"`
	SodiumMg            *float64  `json:"sodium_mg,omitempty"`
	PotassiumMg         *float64  `json:"potassium_mg,omitempty"`
	CalciumMg           *float64  `json:"calcium_mg,omitempty"`
	IronMg              *float64  `json:"iron_mg,omitempty"`
	MagnesiumMg         *float64  `json:"magnesium_mg,omitempty"`
	ZincMg              *float64  `json:"zinc_mg,omitempty"`
	PhosphorusMg        *float64  `json:"phosphorus_mg,omitempty"`
	CaffeineMg          *float64  `json:"caffeine_mg,omitempty"`
	VitaminAMcg         *float64  `json:"vitamin_a_mcg,omitempty"`
	VitaminCMg          *float64  `json:"vitamin_c_mg,omitempty"`
	VitaminDMcg         *float64  `json:"vitamin_d_mcg,omitempty"`
	VitaminEMg          *float64  `json:"vitamin_e_mg,omitempty"`
	VitaminKMcg         *float64  `json:"vitamin_k_mcg,omitempty"`
	VitaminB6Mg         *float64  `json:"vitamin_b6_mg,omitempty"`
	VitaminB12Mcg       *float64  `json:"vitamin_b12_mcg,omitempty"`
	FolateMcg           *float64  `json:"folate_mcg,omitempty"`
	MealType            *string   `json:"meal_type,omitempty"`
	MealID              *string   `json:"meal_id,omitempty"`
	SourceDevice        *string   `json:"source_device,omitempty"`
}

func (m *NutritionMetric) Kind() Kind            { return KindNutrition }
func (m *NutritionMetric) RecordedAt() time.Time { return m.Time }
func (m *NutritionMetric) DedupSuffix() string {
	if m.MealID == nil {
		return ""
	}
	return "meal=" + *m.MealID
}

// MenstrualMetric is a cycle-tracking entry.
type MenstrualMetric struct {
	Time           time.Time `json:"recorded_at"`
	Flow           *string   `json:"menstrual_flow,omitempty"`
	Spotting       *bool     `json:"spotting,omitempty"`
	CycleDay       *int16    `json:"cycle_day,omitempty"`
	CrampsSeverity *int16    `json:"cramps_severity,omitempty"` // 0-10
	Notes          *string   `json:"notes,omitempty"`
	SourceDevice   *string   `json:"source_device,omitempty"`
}

func (m *MenstrualMetric) Kind() Kind            { return KindMenstrual }
func (m *MenstrualMetric) RecordedAt() time.Time { return m.Time }
func (m *MenstrualMetric) DedupSuffix() string   { return "" }

// FertilityMetric is a fertility-tracking entry.
type FertilityMetric struct {
	Time                time.Time `json:"recorded_at"`
	CervicalMucus       *string   `json:"cervical_mucus_quality,omitempty"`
	OvulationTestResult *string   `json:"ovulation_test_result,omitempty"`
	SexualActivity      *bool     `json:"sexual_activity,omitempty"`
	PregnancyTestResult *string   `json:"pregnancy_test_result,omitempty"`
	BasalTempCelsius    *float64  `json:"basal_body_temperature,omitempty"`
	CervixFirmness      *string   `json:"cervix_firmness,omitempty"`
	CervixPosition      *string   `json:"cervix_position,omitempty"`
	LHLevel             *float64  `json:"lh_level,omitempty"`
	Notes               *string   `json:"notes,omitempty"`
	SourceDevice        *string   `json:"source_device,omitempty"`
}

func (m *FertilityMetric) Kind() Kind            { return KindFertility }
func (m *FertilityMetric) RecordedAt() time.Time { return m.Time }
func (m *FertilityMetric) DedupSuffix() string   { return "" }

// EnvironmentalMetric is an ambient-conditions sample.
type EnvironmentalMetric struct {
	Time            time.Time `json:"recorded_at"`
	AudioExposureDb *float64  `json:"environmental_audio_exposure_db,omitempty"`
	HeadphoneDb     *float64  `json:"headphone_audio_exposure_db,omitempty"`
	UVIndex         *float64  `json:"uv_index,omitempty"`
	UVMinutes       *int32    `json:"uv_exposure_minutes,omitempty"`
	AmbientCelsius  *float64  `json:"ambient_temperature_celsius,omitempty"`
	HumidityPercent *float64  `json:"humidity_percent,omitempty"`
	AirPressureHpa  *float64  `json:"air_pressure_hpa,omitempty"`
	AltitudeMeters  *float64  `json:"altitude_meters,omitempty"`
	DaylightMinutes *int32    `json:"time_in_daylight_minutes,omitempty"`
	Latitude        *float64  `json:"location_latitude,omitempty"`
	Longitude       *float64  `json:"location_longitude,omitempty"`
	SourceDevice    *string   `json:"source_device,omitempty"`
}

func (m *EnvironmentalMetric) Kind() Kind            { return KindEnvironmental }
func (m *EnvironmentalMetric) RecordedAt() time.Time { return m.Time }
func (m *EnvironmentalMetric) DedupSuffix() string   { return "" }

// AudioExposureMetric is a sound-level exposure window.
type AudioExposureMetric struct {
	Time            time.Time `json:"recorded_at"`
	AmbientDb       *float64  `json:"environmental_audio_exposure_db,omitempty"`
	HeadphoneDb     *float64  `json:"headphone_audio_exposure_db,omitempty"`
	DurationMinutes *int32    `json:"exposure_duration_minutes,omitempty"`
	ExposureEvent   *bool     `json:"audio_exposure_event,omitempty"`
	SourceDevice    *string   `json:"source_device,omitempty"`
}

func (m *AudioExposureMetric) Kind() Kind            { return KindAudioExposure }
func (m *AudioExposureMetric) RecordedAt() time.Time { return m.Time }
func (m *AudioExposureMetric) DedupSuffix() string   { return "" }

// SafetyEventMetric records a fall or similar detected safety event.
type SafetyEventMetric struct {
	Time            time.Time `json:"recorded_at"`
	EventType       string    `json:"event_type"`
	Severity        *int16    `json:"severity_level,omitempty"`
	Location        *string   `json:"location,omitempty"`
	Description     *string   `json:"description,omitempty"`
	ContactNotified *bool     `json:"emergency_contact_notified,omitempty"`
	SourceDevice    *string   `json:"source_device,omitempty"`
}

func (m *SafetyEventMetric) Kind() Kind            { return KindSafetyEvent }
func (m *SafetyEventMetric) RecordedAt() time.Time { return m.Time }
func (m *SafetyEventMetric) DedupSuffix() string   { return "evt=" + m.EventType }

// MindfulnessMetric is a meditation/breathing session.
type MindfulnessMetric struct {
	Time            time.Time `json:"recorded_at"`
	SessionType     *string   `json:"session_type,omitempty"`
	DurationMinutes *int32    `json:"duration_minutes,omitempty"`
	StressBefore    *int16    `json:"stress_level_before,omitempty"`
	StressAfter     *int16    `json:"stress_level_after,omitempty"`
	FocusRating     *int16    `json:"focus_rating,omitempty"`
	Notes           *string   `json:"notes,omitempty"`
	SourceDevice    *string   `json:"source_device,omitempty"`
}

func (m *MindfulnessMetric) Kind() Kind            { return KindMindfulness }
func (m *MindfulnessMetric) RecordedAt() time.Time { return m.Time }
func (m *MindfulnessMetric) DedupSuffix() string   { return "" }

// MentalHealthMetric is a self-reported wellbeing entry.
type MentalHealthMetric struct {
	Time            time.Time `json:"recorded_at"`
	MoodRating      *int16    `json:"mood_rating,omitempty"` // 1-5
	AnxietyLevel    *int16    `json:"anxiety_level,omitempty"`
	StressLevel     *int16    `json:"stress_level,omitempty"`
	EnergyLevel     *int16    `json:"energy_level,omitempty"`
	SleepQuality    *int16    `json:"sleep_quality_rating,omitempty"`
	MedicationTaken *bool     `json:"medication_taken,omitempty"`
	Notes           *string   `json:"notes,omitempty"`
	SourceDevice    *string   `json:"source_device,omitempty"`
}

func (m *MentalHealthMetric) Kind() Kind            { return KindMentalHealth }
func (m *MentalHealthMetric) RecordedAt() time.Time { return m.Time }
func (m *MentalHealthMetric) DedupSuffix() string   { return "" }

// SymptomMetric records a symptom occurrence. Several symptoms may be logged
// for the same instant, so the symptom type joins the key.
type SymptomMetric struct {
	Time            time.Time `json:"recorded_at"`
	SymptomType     string    `json:"symptom_type"`
	Severity        *int16    `json:"severity_rating,omitempty"` // 1-10
	Location        *string   `json:"location,omitempty"`
	DurationMinutes *int32    `json:"duration_minutes,omitempty"`
	Triggers        *string   `json:"triggers,omitempty"`
	Notes           *string   `json:"notes,omitempty"`
	SourceDevice    *string   `json:"source_device,omitempty"`
}

func (m *SymptomMetric) Kind() Kind            { return KindSymptom }
func (m *SymptomMetric) RecordedAt() time.Time { return m.Time }
func (m *SymptomMetric) DedupSuffix() string   { return "sym=" + m.SymptomType }

// HygieneMetric records a hygiene activity (handwashing, brushing, ...).
type HygieneMetric struct {
	Time            time.Time `json:"recorded_at"`
	ActivityType    string    `json:"activity_type"`
	Frequency       *int16    `json:"frequency,omitempty"`
	DurationMinutes *int32    `json:"duration_minutes,omitempty"`
	QualityRating   *int16    `json:"quality_rating,omitempty"`
	Notes           *string   `json:"notes,omitempty"`
	SourceDevice    *string   `json:"source_device,omitempty"`
}

func (m *HygieneMetric) Kind() Kind            { return KindHygiene }
func (m *HygieneMetric) RecordedAt() time.Time { return m.Time }
func (m *HygieneMetric) DedupSuffix() string   { return "act=" + m.ActivityType }

// UnknownMetric carries an unrecognized kind's raw fields through the
// pipeline. It cannot be persisted, but it keeps the reading countable so the
// report can show exactly what was skipped and why.
type UnknownMetric struct {
	KindName string
	Time     time.Time
	Fields   map[string]any
}

func (m *UnknownMetric) Kind() Kind            { return KindUnknown }
func (m *UnknownMetric) RecordedAt() time.Time { return m.Time }
func (m *UnknownMetric) DedupSuffix() string   { return "kind=" + m.KindName }

package types

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// ParsePayload decodes the wire form of a bulk payload:
//
//	{"metrics": {"heart_rate": [{...}, ...], "sleep": [...], ...}}
//
// Unrecognized kind names decode into UnknownMetric so the rows stay
// countable downstream. Row indexes are assigned per payload in sorted kind
// order, deterministic for identical bytes.
func ParsePayload(raw []byte) (ParsedPayload, error) {
	var wire struct {
		Metrics map[string]json.RawMessage `json:"metrics"`
	}
	if err := json.Unmarshal(raw, &wire); err != nil {
		return ParsedPayload{}, fmt.Errorf("decode payload: %w", err)
	}
	if len(wire.Metrics) == 0 {
		return ParsedPayload{Raw: raw}, nil
	}

	names := make([]string, 0, len(wire.Metrics))
	for name := range wire.Metrics {
		names = append(names, name)
	}
	sort.Strings(names)

	payload := ParsedPayload{Raw: raw}
	index := 0
	for _, name := range names {
		metrics, err := decodeGroup(name, wire.Metrics[name])
		if err != nil {
			return ParsedPayload{}, fmt.Errorf("decode %s metrics: %w", name, err)
		}
		if len(metrics) == 0 {
			continue
		}

		group := MetricGroup{Kind: metrics[0].Kind()}
		for _, m := range metrics {
			group.Rows = append(group.Rows, Row{Index: index, Metric: m})
			index++
		}
		payload.Groups = append(payload.Groups, group)
	}
	return payload, nil
}

func decodeGroup(name string, raw json.RawMessage) ([]Metric, error) {
	switch Kind(name) {
	case KindHeartRate:
		return decodeMetrics[HeartRateMetric](raw)
	case KindBloodPressure:
		return decodeMetrics[BloodPressureMetric](raw)
	case KindSleep:
		return decodeMetrics[SleepMetric](raw)
	case KindActivity:
		return decodeMetrics[ActivityMetric](raw)
	case KindBodyMeasurement:
		return decodeMetrics[BodyMeasurementMetric](raw)
	case KindTemperature:
		return decodeMetrics[TemperatureMetric](raw)
	case KindRespiratory:
		return decodeMetrics[RespiratoryMetric](raw)
	case KindWorkout:
		return decodeMetrics[WorkoutMetric](raw)
	case KindBloodGlucose:
		return decodeMetrics[BloodGlucoseMetric](raw)
	case KindNutrition:
		return decodeMetrics[NutritionMetric](raw)
	case KindMenstrual:
		return decodeMetrics[MenstrualMetric](raw)
	case KindFertility:
		return decodeMetrics[FertilityMetric](raw)
	case KindEnvironmental:
		return decodeMetrics[EnvironmentalMetric](raw)
	case KindAudioExposure:
		return decodeMetrics[AudioExposureMetric](raw)
	case KindSafetyEvent:
		return decodeMetrics[SafetyEventMetric](raw)
	case KindMindfulness:
		return decodeMetrics[MindfulnessMetric](raw)
	case KindMentalHealth:
		return decodeMetrics[MentalHealthMetric](raw)
	case KindSymptom:
		return decodeMetrics[SymptomMetric](raw)
	case KindHygiene:
		return decodeMetrics[HygieneMetric](raw)
	default:
		return decodeUnknown(name, raw)
	}
}

// metricPtr constrains decodeMetrics to pointer receivers implementing Metric.
type metricPtr[T any] interface {
	*T
	Metric
}

func decodeMetrics[T any, P metricPtr[T]](raw json.RawMessage) ([]Metric, error) {
	var entries []T
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, err
	}
	out := make([]Metric, len(entries))
	for i := range entries {
		out[i] = P(&entries[i])
	}
	return out, nil
}

func decodeUnknown(name string, raw json.RawMessage) ([]Metric, error) {
	var entries []map[string]any
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, err
	}
	out := make([]Metric, len(entries))
	for i, fields := range entries {
		m := &UnknownMetric{KindName: name, Fields: fields}
		if ts, ok := fields["recorded_at"].(string); ok {
			if t, err := time.Parse(time.RFC3339, ts); err == nil {
				m.Time = t
			}
		}
		out[i] = m
	}
	return out, nil
}

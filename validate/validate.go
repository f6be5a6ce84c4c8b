// Package validate holds the per-kind range and consistency checks applied to
// every reading before persistence. Validators are pure: they never touch
// I/O, and a failing row never aborts the batch; it becomes a rejected
// outcome with a human-readable reason.
package validate

import (
	"fmt"
	"sync"

	"github.com/vitalsink/vitalsink/log"
	"github.com/vitalsink/vitalsink/types"
)

// Func checks one reading. A nil return accepts the row; a non-nil error's
// message is recorded verbatim as the rejection reason.
type Func func(m types.Metric) error

// Registry resolves the validator for a kind. Kinds without a registered
// validator fall back to a conservative presence/finiteness check, with a
// one-time warning per kind name so coverage gaps are discoverable.
type Registry struct {
	logger *log.Logger

	mu     sync.Mutex
	warned map[string]struct{}
}

// NewRegistry creates a registry. The logger may be nil.
func NewRegistry(logger *log.Logger) *Registry {
	if logger == nil {
		logger = log.Nop()
	}
	return &Registry{
		logger: logger,
		warned: make(map[string]struct{}),
	}
}

// validators maps each kind to its check. The set is closed at compile time;
// unknown kinds take the default path.
var validators = map[types.Kind]Func{
	types.KindHeartRate:       validateHeartRate,
	types.KindBloodPressure:   validateBloodPressure,
	types.KindSleep:           validateSleep,
	types.KindActivity:        validateActivity,
	types.KindBodyMeasurement: validateBodyMeasurement,
	types.KindTemperature:     validateTemperature,
	types.KindRespiratory:     validateRespiratory,
	types.KindWorkout:         validateWorkout,
	types.KindBloodGlucose:    validateBloodGlucose,
	types.KindNutrition:       validateNutrition,
	types.KindMenstrual:       validateMenstrual,
	types.KindFertility:       validateFertility,
	types.KindEnvironmental:   validateEnvironmental,
	types.KindAudioExposure:   validateAudioExposure,
	types.KindSafetyEvent:     validateSafetyEvent,
	types.KindMindfulness:     validateMindfulness,
	types.KindMentalHealth:    validateMentalHealth,
	types.KindSymptom:         validateSymptom,
	types.KindHygiene:         validateHygiene,
}

// Apply validates every row of the group, mapping each to exactly one
// outcome. Input order is preserved.
func (r *Registry) Apply(group types.MetricGroup) []types.ValidatedRow {
	out := make([]types.ValidatedRow, 0, len(group.Rows))
	fn := r.resolve(group)

	for _, row := range group.Rows {
		if err := fn(row.Metric); err != nil {
			out = append(out, types.ValidatedRow{
				Row:     row,
				Outcome: types.RowRejected,
				Reason:  err.Error(),
			})
			continue
		}
		out = append(out, types.ValidatedRow{Row: row, Outcome: types.RowAccepted})
	}
	return out
}

func (r *Registry) resolve(group types.MetricGroup) Func {
	if fn, ok := validators[group.Kind]; ok {
		return fn
	}
	r.warnOnce(group)
	return defaultValidator
}

// warnOnce logs one warning per unrecognized kind name per process.
func (r *Registry) warnOnce(group types.MetricGroup) {
	name := group.Kind.String()
	if group.Kind == types.KindUnknown && len(group.Rows) > 0 {
		if u, ok := group.Rows[0].Metric.(*types.UnknownMetric); ok {
			name = u.KindName
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, seen := r.warned[name]; seen {
		return
	}
	r.warned[name] = struct{}{}
	r.logger.Warn("no validator registered for metric kind", map[string]any{
		"kind": name,
	})
}

// defaultValidator accepts any reading that has a timestamp. It exists so
// that forward-compatible kinds pass through rather than failing hard.
func defaultValidator(m types.Metric) error {
	if m.RecordedAt().IsZero() {
		return fmt.Errorf("missing timestamp")
	}
	return nil
}

package project

import (
	"autotune/common/utils/maths"
	"fmt"
	"math"
	"strings"

	uuid "github.com/satori/go.uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// SILENT mode keeps the chopper in the audible-safe PWM band.
const (
	SILENT_PWM_FREQ_MIN = 15e3
	SILENT_PWM_FREQ_MAX = 20e3
)

// TUNED_COOLSTEP are the current reduction thresholds applied on every run.
// seup counts current increments per SG sample; TMCDriver encodes 4 as 2.
var TUNED_COOLSTEP = []FieldValue{
	{"semax", 3},
	{"semin", 1},
	{"seup", 4},
	{"sedn", 2},
}

// TunerInputs is everything one tuning run derives registers from.
type TunerInputs struct {
	Stepper          string
	Goal             TuningGoal
	Motor            *MotorConstants
	Fclk             float64
	Voltage          float64
	Current          float64
	Pwm_freq_target  float64
	Extra_hysteresis int
	Tbl              int
	Toff             *int
	Apply_hysteresis bool
}

// ResolvedRegisterSet is the output of one tuning run. It holds no state from
// earlier runs.
type ResolvedRegisterSet struct {
	Stepper     string
	Goal        TuningGoal
	Stealthchop bool
	// Pwm_freq is in Hz; 0 when the step was skipped.
	Pwm_freq int64
	Coolstep []FieldValue

	Hysteresis_valid bool
	Hstrt            int
	Hend             int
	Apply_hysteresis bool
	Tbl              int
	Toff             *int

	// Advisory values, not written to the driver.
	Pwm_grad    int
	Pwm_ofs     int
	Max_pwm_rps float64
}

// Silent_pwm_freq clamps target into the SILENT band.
func Silent_pwm_freq(target float64) float64 {
	return maths.ClampFloat(target, SILENT_PWM_FREQ_MIN, SILENT_PWM_FREQ_MAX)
}

// Compute_register_set derives the register set for a resolved goal. Steps
// whose inputs are missing or out of range are skipped and logged.
func Compute_register_set(in TunerInputs, log *zap.SugaredLogger) (*ResolvedRegisterSet, error) {
	if !in.Goal.Is_resolved() {
		return nil, fmt.Errorf("tuning goal '%s' must be resolved before tuning", in.Goal)
	}
	if in.Motor == nil {
		return nil, fmt.Errorf("no motor constants for '%s'", in.Stepper)
	}
	set := &ResolvedRegisterSet{
		Stepper:          in.Stepper,
		Goal:             in.Goal,
		Stealthchop:      in.Goal == TuningGoalSilent,
		Coolstep:         append([]FieldValue{}, TUNED_COOLSTEP...),
		Apply_hysteresis: in.Apply_hysteresis,
		Tbl:              in.Tbl,
		Toff:             in.Toff,
	}

	if in.Pwm_freq_target > 0 {
		pwm_freq := in.Pwm_freq_target
		if set.Stealthchop {
			pwm_freq = Silent_pwm_freq(pwm_freq)
		}
		set.Pwm_freq = int64(math.Round(pwm_freq))
	} else {
		log.Warnf("no PWM frequency target, leaving pwm_freq unchanged")
	}

	toff := 0
	if in.Toff != nil {
		toff = *in.Toff
	}
	hstrt, hend, err := in.Motor.Hysteresis(in.Extra_hysteresis, in.Fclk, in.Voltage, in.Current, in.Tbl, toff)
	if err != nil {
		log.Warnf("skipping hysteresis: %v", err)
	} else {
		set.Hysteresis_valid, set.Hstrt, set.Hend = true, hstrt, hend
	}

	if set.Pwm_grad, err = in.Motor.Pwmgrad(in.Fclk, 0, in.Voltage); err != nil {
		log.Debugf("no pwm_grad: %v", err)
	}
	if set.Pwm_ofs, err = in.Motor.Pwmofs(in.Voltage, in.Current); err != nil {
		log.Debugf("no pwm_ofs: %v", err)
	}
	if set.Max_pwm_rps, err = in.Motor.Maxpwmrps(in.Fclk, 0, in.Voltage, in.Current); err != nil {
		log.Debugf("no max PWM rps: %v", err)
	}
	log.Debugf("pwm_grad = %d, pwm_ofs = %d, max PWM rps = %.2f", set.Pwm_grad, set.Pwm_ofs, set.Max_pwm_rps)
	return set, nil
}

func bool_field(v bool) int64 {
	if v {
		return 1
	}
	return 0
}

// Field_values lists the writes of the set in application order: chopper
// mode, PWM frequency, CoolStep, then hysteresis when enabled.
func (self *ResolvedRegisterSet) Field_values() []FieldValue {
	values := []FieldValue{
		{"en_pwm_mode", bool_field(self.Stealthchop)},
		{"en_spreadcycle", bool_field(!self.Stealthchop)},
	}
	if self.Pwm_freq > 0 {
		values = append(values, FieldValue{"pwm_freq", self.Pwm_freq})
	}
	values = append(values, self.Coolstep...)
	if self.Apply_hysteresis && self.Hysteresis_valid {
		values = append(values, FieldValue{"tbl", int64(self.Tbl)})
		if self.Toff != nil {
			values = append(values, FieldValue{"toff", int64(*self.Toff)})
		}
		values = append(values, FieldValue{"hstrt", int64(self.Hstrt)}, FieldValue{"hend", int64(self.Hend)})
	}
	return values
}

// Canonical is the stable text form of the set.
func (self *ResolvedRegisterSet) Canonical() string {
	parts := []string{self.Stepper, self.Goal.String()}
	for _, fv := range self.Field_values() {
		parts = append(parts, fmt.Sprintf("%s=%d", fv.Field, fv.Value))
	}
	if self.Hysteresis_valid {
		parts = append(parts, fmt.Sprintf("hysteresis=%d/%d", self.Hstrt, self.Hend))
	}
	parts = append(parts, fmt.Sprintf("pwm_grad=%d", self.Pwm_grad), fmt.Sprintf("pwm_ofs=%d", self.Pwm_ofs))
	return strings.Join(parts, ";")
}

// Fingerprint is a name-based UUID of the canonical form; unchanged inputs
// always give the same fingerprint.
func (self *ResolvedRegisterSet) Fingerprint() string {
	return uuid.NewV5(uuid.NamespaceOID, self.Canonical()).String()
}

// Apply_register_set writes every field of set to sink. Fields the sink does
// not have are skipped. A failing field is logged and the run continues; the
// returned error combines every failure.
func Apply_register_set(sink DriverFieldSink, set *ResolvedRegisterSet, log *zap.SugaredLogger) error {
	lookup, can_lookup := sink.(IFieldLookup)
	var errs error
	for _, fv := range set.Field_values() {
		if can_lookup && !lookup.Has_field(fv.Field) {
			log.Debugf("driver has no field '%s', skipped", fv.Field)
			continue
		}
		if err := sink.Apply_field(fv.Field, fv.Value); err != nil {
			log.Errorf("cannot set %s=%d: %v", fv.Field, fv.Value, err)
			errs = multierr.Append(errs, err)
			continue
		}
		log.Debugf("%s=%d", fv.Field, fv.Value)
	}
	return errs
}

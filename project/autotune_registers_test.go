package project

import (
	"errors"
	"reflect"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type recordingSink struct {
	applied []FieldValue
	fail    map[string]error
	fields  map[string]bool
}

func (self *recordingSink) Apply_field(field_name string, value int64) error {
	if err := self.fail[field_name]; err != nil {
		return err
	}
	self.applied = append(self.applied, FieldValue{field_name, value})
	return nil
}

// lookupSink is a recordingSink that also reports which fields exist.
type lookupSink struct {
	recordingSink
}

func (self *lookupSink) Has_field(field_name string) bool {
	return self.fields[field_name]
}

func testInputs(t *testing.T, goal TuningGoal) TunerInputs {
	toff := 3
	return TunerInputs{
		Stepper:         "stepper_z",
		Goal:            goal,
		Motor:           testMotor(t),
		Fclk:            12.5e6,
		Voltage:         24.,
		Pwm_freq_target: 55e3,
		Tbl:             1,
		Toff:            &toff,
	}
}

func nopLog() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}

func TestSilentPwmFreqClamp(t *testing.T) {
	cases := map[float64]int64{55e3: 20000, 10e3: 15000, 18e3: 18000, 15e3: 15000, 20e3: 20000}
	for target, want := range cases {
		in := testInputs(t, TuningGoalSilent)
		in.Pwm_freq_target = target
		set, err := Compute_register_set(in, nopLog())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if set.Pwm_freq != want {
			t.Fatalf("target %v: pwm_freq = %d, want %d", target, set.Pwm_freq, want)
		}
	}
	in := testInputs(t, TuningGoalPerformance)
	in.Pwm_freq_target = 10e3
	set, _ := Compute_register_set(in, nopLog())
	if set.Pwm_freq != 10000 {
		t.Fatalf("performance must not clamp, got %d", set.Pwm_freq)
	}
}

func TestFieldValuesOrder(t *testing.T) {
	set, err := Compute_register_set(testInputs(t, TuningGoalSilent), nopLog())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []FieldValue{
		{"en_pwm_mode", 1}, {"en_spreadcycle", 0},
		{"pwm_freq", 20000},
		{"semax", 3}, {"semin", 1}, {"seup", 4}, {"sedn", 2},
	}
	if got := set.Field_values(); !reflect.DeepEqual(got, want) {
		t.Fatalf("silent fields = %v", got)
	}

	set, _ = Compute_register_set(testInputs(t, TuningGoalPerformance), nopLog())
	got := set.Field_values()
	if got[0] != (FieldValue{"en_pwm_mode", 0}) || got[1] != (FieldValue{"en_spreadcycle", 1}) || got[2].Value != 55000 {
		t.Fatalf("performance fields = %v", got)
	}
}

func TestHysteresisAdvisoryOrApplied(t *testing.T) {
	in := testInputs(t, TuningGoalPerformance)
	set, _ := Compute_register_set(in, nopLog())
	if !set.Hysteresis_valid || set.Hstrt != 4 || set.Hend != 3 {
		t.Fatalf("hysteresis = %v %d/%d", set.Hysteresis_valid, set.Hstrt, set.Hend)
	}
	for _, fv := range set.Field_values() {
		if fv.Field == "hstrt" || fv.Field == "hend" {
			t.Fatalf("hysteresis must stay advisory by default")
		}
	}

	in.Apply_hysteresis = true
	set, _ = Compute_register_set(in, nopLog())
	values := set.Field_values()
	tail := values[len(values)-4:]
	want := []FieldValue{{"tbl", 1}, {"toff", 3}, {"hstrt", 4}, {"hend", 3}}
	if !reflect.DeepEqual(tail, want) {
		t.Fatalf("applied hysteresis fields = %v", tail)
	}
}

func TestSkippedSteps(t *testing.T) {
	in := testInputs(t, TuningGoalSilent)
	in.Pwm_freq_target = 0
	in.Voltage = 0
	in.Apply_hysteresis = true
	set, err := Compute_register_set(in, nopLog())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, fv := range set.Field_values() {
		switch fv.Field {
		case "pwm_freq", "hstrt", "hend":
			t.Fatalf("%s must be skipped", fv.Field)
		}
	}
	if set.Hysteresis_valid {
		t.Fatalf("hysteresis needs a voltage")
	}
}

func TestComputeNeedsResolvedGoal(t *testing.T) {
	if _, err := Compute_register_set(testInputs(t, TuningGoalAuto), nopLog()); err == nil {
		t.Fatalf("auto must be resolved first")
	}
	in := testInputs(t, TuningGoalSilent)
	in.Motor = nil
	if _, err := Compute_register_set(in, nopLog()); err == nil {
		t.Fatalf("a motor is required")
	}
}

func TestTuningIsIdempotent(t *testing.T) {
	first, second := &recordingSink{}, &recordingSink{}
	set1, _ := Compute_register_set(testInputs(t, TuningGoalSilent), nopLog())
	set2, _ := Compute_register_set(testInputs(t, TuningGoalSilent), nopLog())
	if err := Apply_register_set(first, set1, nopLog()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := Apply_register_set(second, set2, nopLog()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(first.applied, second.applied) {
		t.Fatalf("runs differ: %v vs %v", first.applied, second.applied)
	}
	if set1.Fingerprint() != set2.Fingerprint() || set1.Canonical() != set2.Canonical() {
		t.Fatalf("fingerprints differ")
	}
	set3, _ := Compute_register_set(testInputs(t, TuningGoalPerformance), nopLog())
	if set3.Fingerprint() == set1.Fingerprint() {
		t.Fatalf("different goals must not share a fingerprint")
	}
}

func TestApplyContinuesAfterSinkError(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := zap.New(core).Sugar()
	errPwm := errors.New("bus error")
	sink := &recordingSink{fail: map[string]error{"pwm_freq": errPwm}}
	set, _ := Compute_register_set(testInputs(t, TuningGoalSilent), nopLog())

	err := Apply_register_set(sink, set, log)
	if !errors.Is(err, errPwm) {
		t.Fatalf("expected the sink error, got %v", err)
	}
	if len(sink.applied) != len(set.Field_values())-1 {
		t.Fatalf("remaining fields must still be applied, got %v", sink.applied)
	}
	if n := logs.FilterLevelExact(zapcore.ErrorLevel).Len(); n != 1 {
		t.Fatalf("expected one logged error, got %d", n)
	}
}

func TestApplySkipsMissingFields(t *testing.T) {
	sink := &lookupSink{recordingSink{fields: map[string]bool{
		"en_spreadcycle": true, "pwm_freq": true, "semin": true, "semax": true,
	}}}
	set, _ := Compute_register_set(testInputs(t, TuningGoalPerformance), nopLog())
	if err := Apply_register_set(sink, set, nopLog()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []FieldValue{{"en_spreadcycle", 1}, {"pwm_freq", 55000}, {"semax", 3}, {"semin", 1}}
	if !reflect.DeepEqual(sink.applied, want) {
		t.Fatalf("applied = %v", sink.applied)
	}
}

func TestAdvisoryValues(t *testing.T) {
	in := testInputs(t, TuningGoalSilent)
	set, _ := Compute_register_set(in, nopLog())
	if set.Pwm_grad != 16 || set.Pwm_ofs != 38 {
		t.Fatalf("pwm_grad = %d, pwm_ofs = %d", set.Pwm_grad, set.Pwm_ofs)
	}
	if !nearlyEqual(set.Max_pwm_rps, 4.3171, 1e-3) {
		t.Fatalf("max PWM rps = %f", set.Max_pwm_rps)
	}
}

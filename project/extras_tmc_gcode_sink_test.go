package project

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
)

func TestGcodeForwarder(t *testing.T) {
	var buf bytes.Buffer
	fwd := NewGcodeForwarder("buffer", &buf)
	if err := fwd.Forward_field("stepper_z", "en_pwm_mode", 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := fwd.Forward_field("stepper_z", "pwm_freq", 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "SET_TMC_FIELD STEPPER=stepper_z FIELD=EN_PWM_MODE VALUE=1\n" +
		"SET_TMC_FIELD STEPPER=stepper_z FIELD=PWM_FREQ VALUE=0\n"
	if buf.String() != want {
		t.Fatalf("forwarded %q", buf.String())
	}
	if err := fwd.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestOpenSerialForwarderMissing(t *testing.T) {
	_, err := Open_serial_forwarder(filepath.Join(t.TempDir(), "ttyNOPE"), 250000)
	if err == nil || !strings.HasPrefix(err.Error(), NOT_FOUND_SERIAL_ERROR) {
		t.Fatalf("expected a not found error, got %v", err)
	}
}

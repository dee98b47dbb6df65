package configparser

import (
	"errors"
	"reflect"
	"testing"
)

const sample = `
# printer
[stepper_x]
step_pin: PC2
microsteps = 16

[TMC2209   stepper_x]
run_current: 0.8 ; amps
driver_SGTHRS: 0

[gcode_macro START]
gcode:
  G28
  G1 Z5
`

func TestReadString(t *testing.T) {
	p := NewRawConfigParser()
	if err := p.Read_string(sample, "printer.cfg"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"stepper_x", "tmc2209 stepper_x", "gcode_macro start"}
	if !reflect.DeepEqual(p.Sections(), want) {
		t.Fatalf("unexpected sections %v", p.Sections())
	}
	if v, ok := p.Get("stepper_x", "MICROSTEPS"); !ok || v != "16" {
		t.Fatalf("unexpected microsteps %q", v)
	}
	if v, _ := p.Get("tmc2209 stepper_x", "run_current"); v != "0.8" {
		t.Fatalf("comment not stripped: %q", v)
	}
	if !p.Has_option("tmc2209 stepper_x", "driver_sgthrs") {
		t.Fatalf("option names must be case folded")
	}
	if v, _ := p.Get("gcode_macro start", "gcode"); v != "\nG28\nG1 Z5" {
		t.Fatalf("unexpected continuation value %q", v)
	}
	if !reflect.DeepEqual(p.Options("stepper_x"), []string{"microsteps", "step_pin"}) {
		t.Fatalf("unexpected options %v", p.Options("stepper_x"))
	}
}

func TestReadStringMerges(t *testing.T) {
	p := NewRawConfigParser()
	p.Read_string("[a]\nx: 1\ny: 2\n", "one")
	p.Read_string("[a]\nx: 3\n", "two")
	if v, _ := p.Get("a", "x"); v != "3" {
		t.Fatalf("later value must win, got %q", v)
	}
	if v, _ := p.Get("a", "y"); v != "2" {
		t.Fatalf("earlier value must survive, got %q", v)
	}
	if len(p.Sections()) != 1 {
		t.Fatalf("duplicate section recorded")
	}
}

func TestReadStringErrors(t *testing.T) {
	cases := []string{
		"x: 1\n",
		"[a\nx: 1\n",
		"[]\n",
		"[a]\njunk line\n",
		"[a]\n  dangling\n",
	}
	for _, c := range cases {
		err := NewRawConfigParser().Read_string(c, "bad.cfg")
		var perr *ParseError
		if !errors.As(err, &perr) {
			t.Fatalf("expected ParseError for %q, got %v", c, err)
		}
	}
}

package project

import (
	"autotune/common/config"
	"bytes"
	"strings"
	"testing"
)

const test_printer_cfg = `
[stepper_x]
step_pin: PA0

[tmc2209 stepper_x]
run_current: 0.8

[autotune_tmc stepper_x]
motor: ldo-42sth48-2004mah

[stepper_z]
step_pin: PA1

[tmc5160 stepper_z]
run_current: 1.0

[autotune_tmc stepper_z]
motor: my-motor
tuning_goal: auto

[motor_constants my-motor]
resistance: 2.0
inductance: 0.003
holding_torque: 0.5
max_current: 1.5
steps_per_revolution: 200
`

func startTestPrinter(t *testing.T, cfg string) (*Printer, *bytes.Buffer) {
	t.Helper()
	fileconfig, err := Parse_config(cfg, "printer.cfg")
	if err != nil {
		t.Fatalf("config does not parse: %v", err)
	}
	var out bytes.Buffer
	printer, err := Start_printer(config.Default(), fileconfig, &out, nil)
	if err != nil {
		t.Fatalf("printer does not start: %v", err)
	}
	return printer, &out
}

func lookupDriverField(t *testing.T, printer *Printer, driver, field string) int64 {
	t.Helper()
	tmc, ok := printer.Lookup_object(driver, nil).(*TMCDriver)
	if !ok {
		t.Fatalf("no driver %s", driver)
	}
	return tmc.Get_fields().Get_field(field)
}

func lookupAutotune(printer *Printer, stepper string) *AutotuneTMC {
	return printer.Lookup_object("autotune_tmc "+stepper, Sentinel{}).(*AutotuneTMC)
}

func TestAutotuneAtReady(t *testing.T) {
	printer, _ := startTestPrinter(t, test_printer_cfg)

	x := lookupAutotune(printer, "stepper_x")
	if x.Get_status(0)["tuning_goal"] != "performance" {
		t.Fatalf("stepper_x must resolve to performance: %v", x.Get_status(0))
	}
	if lookupDriverField(t, printer, "tmc2209 stepper_x", "en_spreadcycle") != 1 {
		t.Fatalf("stepper_x must run SpreadCycle")
	}
	if lookupDriverField(t, printer, "tmc2209 stepper_x", "pwm_freq") != 3 {
		t.Fatalf("55 kHz on a 12 MHz clock is pwm_freq 3")
	}

	z := lookupAutotune(printer, "stepper_z")
	if z.Get_status(0)["tuning_goal"] != "silent" {
		t.Fatalf("stepper_z must resolve to silent: %v", z.Get_status(0))
	}
	if lookupDriverField(t, printer, "tmc5160 stepper_z", "en_pwm_mode") != 1 {
		t.Fatalf("stepper_z must run StealthChop")
	}
	if lookupDriverField(t, printer, "tmc5160 stepper_z", "pwm_freq") != 0 {
		t.Fatalf("20 kHz on a 12 MHz clock is pwm_freq 0")
	}
	// seup is written as its register encoding
	for field, want := range map[string]int64{"semax": 3, "semin": 1, "seup": 2, "sedn": 2} {
		if got := lookupDriverField(t, printer, "tmc5160 stepper_z", field); got != want {
			t.Fatalf("%s = %d, want %d", field, got, want)
		}
	}
	// advisory by default
	if lookupDriverField(t, printer, "tmc5160 stepper_z", "hstrt") != 5 {
		t.Fatalf("hstrt must keep the chip default")
	}
	if z.Get_status(0)["fclk"] != 12e6 {
		t.Fatalf("tmc5160 clock not negotiated: %v", z.Get_status(0)["fclk"])
	}
}

func TestAutotuneCommand(t *testing.T) {
	printer, out := startTestPrinter(t, test_printer_cfg)
	gcode := printer.Get_gcode()
	z := lookupAutotune(printer, "stepper_z")

	if err := gcode.Run_script_line("AUTOTUNE_TMC STEPPER=stepper_z TUNING_GOAL=performance"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := gcode.Run_script_line("AUTOTUNE_TMC STEPPER=stepper_x"); err != nil {
		t.Fatalf("tmc2209 tuning must not fail: %v", err)
	}
	if lookupDriverField(t, printer, "tmc2209 stepper_x", "seup") != 2 {
		t.Fatalf("seup not applied to the tmc2209")
	}
	if lookupDriverField(t, printer, "tmc5160 stepper_z", "en_pwm_mode") != 0 ||
		lookupDriverField(t, printer, "tmc5160 stepper_z", "pwm_freq") != 3 {
		t.Fatalf("performance not applied")
	}
	if !strings.Contains(out.String(), "// stepper_z: performance") {
		t.Fatalf("missing command response:\n%s", out.String())
	}
	fingerprint := z.Get_status(0)["fingerprint"]

	err := gcode.Run_script_line("AUTOTUNE_TMC STEPPER=stepper_z TUNING_GOAL=quiet")
	if err == nil || !strings.Contains(err.Error(), "quiet") {
		t.Fatalf("invalid goal must be rejected, got %v", err)
	}
	status := z.Get_status(0)
	if status["requested_goal"] != "performance" || status["fingerprint"] != fingerprint {
		t.Fatalf("rejected goal changed state: %v", status)
	}

	for _, bad := range []string{"20", "-1", "abc"} {
		if err := gcode.Run_script_line("AUTOTUNE_TMC STEPPER=stepper_z EXTRA_HYSTERESIS=" + bad); err != nil {
			t.Fatalf("EXTRA_HYSTERESIS=%s: unexpected error: %v", bad, err)
		}
		if z.Get_status(0)["extra_hysteresis"] != 0 {
			t.Fatalf("EXTRA_HYSTERESIS=%s must be ignored", bad)
		}
	}
	if z.Get_status(0)["fingerprint"] != fingerprint {
		t.Fatalf("rerun with unchanged inputs must be identical")
	}
	if err := gcode.Run_script_line("AUTOTUNE_TMC STEPPER=stepper_z EXTRA_HYSTERESIS=2"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if z.Get_status(0)["extra_hysteresis"] != 2 {
		t.Fatalf("extra hysteresis override not applied")
	}

	if err := gcode.Run_script_line("AUTOTUNE_TMC STEPPER=stepper_z TUNING_GOAL=auto"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if z.Get_status(0)["tuning_goal"] != "silent" ||
		lookupDriverField(t, printer, "tmc5160 stepper_z", "en_pwm_mode") != 1 {
		t.Fatalf("auto must re-resolve with the cached preference")
	}
}

func TestAutotuneAutoswitch(t *testing.T) {
	cfg := strings.Replace(test_printer_cfg, "tuning_goal: auto", "tuning_goal: AutoSwitch", 1)
	printer, _ := startTestPrinter(t, cfg)
	reports, err := printer.Autotune_reports("stepper_z")
	if err != nil || len(reports) != 1 {
		t.Fatalf("unexpected reports %v, %v", reports, err)
	}
	if !reports[0].Experimental || reports[0].Tuning_goal != "silent" || reports[0].Requested_goal != "autoswitch" {
		t.Fatalf("unexpected autoswitch report %+v", reports[0])
	}
}

func TestAutotuneApplyHysteresis(t *testing.T) {
	cfg := strings.Replace(test_printer_cfg, "tuning_goal: auto", "tuning_goal: auto\napply_hysteresis: True\ntoff: 3", 1)
	printer, _ := startTestPrinter(t, cfg)
	z := lookupAutotune(printer, "stepper_z")
	set := z.Get_last_register_set()
	if !set.Hysteresis_valid {
		t.Fatalf("hysteresis not computed")
	}
	if lookupDriverField(t, printer, "tmc5160 stepper_z", "hstrt") != int64(set.Hstrt) ||
		lookupDriverField(t, printer, "tmc5160 stepper_z", "hend") != int64(set.Hend) ||
		lookupDriverField(t, printer, "tmc5160 stepper_z", "tbl") != 1 {
		t.Fatalf("hysteresis not applied")
	}
}

func TestAutotuneConfigErrors(t *testing.T) {
	cases := map[string]struct {
		cfg  string
		want string
	}{
		"missing stepper": {
			"[tmc2209 stepper_y]\n[autotune_tmc stepper_y]\nmotor: ldo-42sth48-2004mah\n",
			"Could not find stepper config section '[stepper_y]'",
		},
		"missing driver": {
			"[stepper_y]\n[autotune_tmc stepper_y]\nmotor: ldo-42sth48-2004mah\n",
			"Could not find any TMC driver config section",
		},
		"missing motor option": {
			"[stepper_y]\n[tmc2209 stepper_y]\n[autotune_tmc stepper_y]\n",
			"Option 'motor' in section 'autotune_tmc stepper_y' must be specified",
		},
		"bad goal": {
			"[stepper_y]\n[tmc2209 stepper_y]\n[autotune_tmc stepper_y]\nmotor: x\ntuning_goal: loud\n",
			"Tuning goal 'loud' is invalid",
		},
		"extra hysteresis range": {
			"[stepper_y]\n[tmc2209 stepper_y]\n[autotune_tmc stepper_y]\nmotor: x\nextra_hysteresis: 9\n",
			"must have maximum of 8",
		},
		"pwm target range": {
			"[stepper_y]\n[tmc2209 stepper_y]\n[autotune_tmc stepper_y]\nmotor: x\npwm_freq_target: 5000\n",
			"pwm_freq_target",
		},
		"bad motor": {
			"[motor_constants bad]\nresistance: 1\ninductance: 0.001\nholding_torque: 0.2\nmax_current: 0\nsteps_per_revolution: 200\n",
			"max_current must be above 0",
		},
	}
	for name, c := range cases {
		fileconfig, err := Parse_config(c.cfg, "printer.cfg")
		if err != nil {
			t.Fatalf("%s: config does not parse: %v", name, err)
		}
		err = NewPrinter(config.Default(), nil).Load_config(fileconfig)
		if err == nil || !strings.Contains(err.Error(), c.want) {
			t.Fatalf("%s: expected %q, got %v", name, c.want, err)
		}
	}
}

func TestAutotuneMissingMotorAtConnect(t *testing.T) {
	fileconfig, _ := Parse_config("[stepper_y]\n[tmc2209 stepper_y]\n[autotune_tmc stepper_y]\nmotor: nope\n", "printer.cfg")
	printer := NewPrinter(config.Default(), nil)
	if err := printer.Load_config(fileconfig); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err := printer.Connect()
	if err == nil || !strings.Contains(err.Error(), "[motor_constants nope]") {
		t.Fatalf("expected a missing motor error, got %v", err)
	}
}

func TestAutotuneDefaultsRecord(t *testing.T) {
	defaults, err := config.ParseDefaults("tuning_goal = \"silent\"\n[pwm_freq_targets]\ntmc2209 = 18000.0\n")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	fileconfig, _ := Parse_config(test_printer_cfg, "printer.cfg")
	printer, err := Start_printer(defaults, fileconfig, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	x := lookupAutotune(printer, "stepper_x")
	if x.Get_status(0)["tuning_goal"] != "silent" {
		t.Fatalf("defaults record goal not used")
	}
	if x.Get_last_register_set().Pwm_freq != 18000 {
		t.Fatalf("defaults record PWM target not used: %d", x.Get_last_register_set().Pwm_freq)
	}
}

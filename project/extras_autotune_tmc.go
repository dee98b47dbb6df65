package project

import (
	"autotune/common/config"
	"autotune/common/logger"
	"autotune/common/utils/sys"
	"fmt"
	"math"
	"strings"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

const cmd_AUTOTUNE_TMC_help = "Apply autotuning configuration to TMC stepper driver"

// AutotuneTMC tunes the TMC driver of one stepper from its motor constants.
type AutotuneTMC struct {
	printer     *Printer
	defaults    config.AutotuneDefaults
	log         *zap.SugaredLogger
	name        string
	driver_name string
	driver_type string
	motor_name  string

	requested_goal TuningGoal
	resolved_goal  TuningGoal
	auto_silent    bool

	extra_hysteresis int
	tbl              int
	toff             *int
	tpfd             *int
	sgt              int
	sg4_thrs         int
	voltage          float64
	overvoltage_vth  *float64
	pwm_freq_target  float64
	apply_hysteresis bool

	tmc_object *TMCDriver
	motor      *MotorConstants
	fclk       float64
	last       *ResolvedRegisterSet
	last_err   error
}

func Load_config_autotune_tmc(config *ConfigWrapper) (*AutotuneTMC, error) {
	return NewAutotuneTMC(config)
}

func NewAutotuneTMC(config *ConfigWrapper) (self *AutotuneTMC, err error) {
	defer sys.CatchPanic(&err)
	self = new(AutotuneTMC)
	self.printer = config.Get_printer()
	self.defaults = self.printer.Get_defaults()
	parts := splitSectionName(config.Get_name())
	self.name = strings.Join(parts[1:], " ")
	self.log = logger.Named(self.name)
	if !config.Has_section(self.name) {
		return nil, config_errorf(
			"Could not find stepper config section '[%s]' required by TMC autotuning", self.name)
	}
	for _, driver := range TRINAMIC_DRIVERS {
		driver_name := fmt.Sprintf("%s %s", driver, self.name)
		if config.Has_section(driver_name) {
			self.driver_name = driver_name
			self.driver_type = driver
			break
		}
	}
	if self.driver_name == "" {
		return nil, config_errorf(
			"Could not find any TMC driver config section for '%s' required by TMC autotuning", self.name)
	}

	self.motor_name = config.Get("motor", Sentinel{})
	tgoal := config.Get("tuning_goal", self.defaults.Tuning_goal)
	self.requested_goal, err = Parse_tuning_goal(tgoal)
	if err != nil {
		return nil, &Config_error{E: err.Error()}
	}
	self.resolved_goal = self.requested_goal
	self.extra_hysteresis = config.Getint("extra_hysteresis", self.defaults.Extra_hysteresis, 0, 8)
	self.tbl = config.Getint("tbl", self.defaults.Tbl, 0, 3)
	self.toff = config.GetintNone("toff", 1, 15)
	self.tpfd = config.GetintNone("tpfd", 0, 15)
	self.sgt = config.Getint("sgt", self.defaults.Sgt, -64, 63)
	self.sg4_thrs = config.Getint("sg4_thrs", self.defaults.Sg4_thrs, 0, 255)
	self.voltage = config.Getfloat("voltage", self.defaults.Voltage, 0., 60., math.Inf(-1))
	self.overvoltage_vth = config.GetfloatNone("overvoltage_vth", 0., 60., math.Inf(-1))
	pwm_target, _ := self.defaults.Pwm_freq_target(self.driver_type)
	self.pwm_freq_target = config.Getfloat("pwm_freq_target", pwm_target, 10e3, 100e3, math.Inf(-1))
	self.apply_hysteresis = config.Getboolean("apply_hysteresis", false)

	self.printer.Register_event_handler("project:connect", self.handle_connect)
	self.printer.Register_event_handler("project:ready", self.handle_ready)
	self.printer.Get_gcode().Register_mux_command("AUTOTUNE_TMC", "STEPPER", self.name,
		self.cmd_AUTOTUNE_TMC, cmd_AUTOTUNE_TMC_help)
	return self, nil
}

func (self *AutotuneTMC) Get_name() string {
	return self.name
}

func (self *AutotuneTMC) handle_connect([]interface{}) error {
	tmc_object, ok := self.printer.Lookup_object(self.driver_name, nil).(*TMCDriver)
	if !ok {
		return config_errorf("Could not find TMC driver '[%s]' required by TMC autotuning", self.driver_name)
	}
	self.tmc_object = tmc_object
	motor, ok := self.printer.Lookup_motor(self.motor_name)
	if !ok {
		return config_errorf(
			"Could not find motor definition '[motor_constants %s]' required by TMC autotuning. "+
				"It is not part of the database, please define it in your config!", self.motor_name)
	}
	self.motor = motor
	self.auto_silent = Auto_silent(self.name, motor.T)
	self.resolved_goal = Resolve_tuning_goal(self.requested_goal, self.auto_silent)
	if self.requested_goal == TuningGoalAutoswitch {
		self.log.Warnf("tuning goal autoswitch is experimental, tuning for %s", self.resolved_goal)
	}
	self.log.Infof("motor %s, tuning goal %s resolved to %s", motor.Name, self.requested_goal, self.resolved_goal)
	return nil
}

func (self *AutotuneTMC) handle_ready([]interface{}) error {
	self.fclk = Negotiate_tmc_frequency(self.tmc_object, self.defaults.Tmc_frequency)
	if _, err := self.Tune_driver(); err != nil {
		self.log.Warnf("tuning finished with errors: %v", err)
	}
	return nil
}

func (self *AutotuneTMC) cmd_AUTOTUNE_TMC(argv interface{}) error {
	gcmd := argv.(*GCodeCommand)
	self.log.Infof("AUTOTUNE_TMC %s", self.name)
	if self.tmc_object == nil || self.fclk == 0 {
		return fmt.Errorf("AUTOTUNE_TMC %s: printer is not ready", self.name)
	}
	if gcmd.Has("TUNING_GOAL") {
		goal, err := Parse_tuning_goal(gcmd.Get("TUNING_GOAL", ""))
		if err != nil {
			return err
		}
		self.requested_goal = goal
		self.resolved_goal = Resolve_tuning_goal(goal, self.auto_silent)
	}
	if gcmd.Has("EXTRA_HYSTERESIS") {
		if extra, ok := self.extra_hysteresis_override(gcmd); ok {
			self.extra_hysteresis = extra
		}
	}
	set, err := self.Tune_driver()
	if set != nil {
		gcmd.Respond_info(Render_summary(set), true)
	}
	return err
}

// extra_hysteresis_override reads EXTRA_HYSTERESIS; a bad value is ignored.
func (self *AutotuneTMC) extra_hysteresis_override(gcmd *GCodeCommand) (extra int, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			self.log.Warnf("ignoring EXTRA_HYSTERESIS: %v", r)
			extra, ok = self.extra_hysteresis, false
		}
	}()
	minval, maxval := 0, 8
	return gcmd.Get_int("EXTRA_HYSTERESIS", self.extra_hysteresis, &minval, &maxval), true
}

func (self *AutotuneTMC) current() float64 {
	if self.tmc_object == nil {
		return 0.
	}
	return self.tmc_object.Get_run_current()
}

func (self *AutotuneTMC) tuner_inputs() TunerInputs {
	return TunerInputs{
		Stepper:          self.name,
		Goal:             self.resolved_goal,
		Motor:            self.motor,
		Fclk:             self.fclk,
		Voltage:          self.voltage,
		Current:          self.current(),
		Pwm_freq_target:  self.pwm_freq_target,
		Extra_hysteresis: self.extra_hysteresis,
		Tbl:              self.tbl,
		Toff:             self.toff,
		Apply_hysteresis: self.apply_hysteresis,
	}
}

// Tune_driver recomputes every field from the current inputs and applies
// them. Field errors do not stop the run and are returned combined.
func (self *AutotuneTMC) Tune_driver() (*ResolvedRegisterSet, error) {
	self.log.Infof("tuning driver for %s mode on thread %d", strings.ToUpper(self.resolved_goal.String()), sys.GetGID())
	set, err := Compute_register_set(self.tuner_inputs(), self.log)
	if err != nil {
		return nil, err
	}
	self.last = set
	self.last_err = Apply_register_set(self.tmc_object, set, self.log)
	return set, self.last_err
}

func (self *AutotuneTMC) Get_last_register_set() *ResolvedRegisterSet {
	return self.last
}

// Get_report collects the last tuning run and the options it used.
func (self *AutotuneTMC) Get_report() *AutotuneReport {
	if self.last == nil {
		return nil
	}
	report := New_autotune_report(self.last)
	report.Driver = self.driver_name
	report.Motor = self.motor_name
	report.Requested_goal = self.requested_goal.String()
	report.Experimental = self.requested_goal == TuningGoalAutoswitch
	report.Fclk = self.fclk
	report.Voltage = self.voltage
	report.Current = self.current()
	report.Extra_hysteresis = self.extra_hysteresis
	report.Sgt = self.sgt
	report.Sg4_thrs = self.sg4_thrs
	report.Tpfd = self.tpfd
	report.Overvoltage_vth = self.overvoltage_vth
	report.Coolstep_defaults = self.defaults.Coolstep
	for _, err := range multierr.Errors(self.last_err) {
		report.Errors = append(report.Errors, err.Error())
	}
	return report
}

func (self *AutotuneTMC) Get_status(eventtime float64) map[string]interface{} {
	status := map[string]interface{}{
		"motor":            self.motor_name,
		"driver":           self.driver_name,
		"requested_goal":   self.requested_goal.String(),
		"tuning_goal":      self.resolved_goal.String(),
		"extra_hysteresis": self.extra_hysteresis,
		"fclk":             self.fclk,
	}
	if self.last != nil {
		status["fingerprint"] = self.last.Fingerprint()
		fields := make(map[string]interface{})
		for _, fv := range self.last.Field_values() {
			fields[fv.Field] = fv.Value
		}
		status["fields"] = fields
	}
	return status
}

package project

import (
	"autotune/common/logger"
	"autotune/common/utils/maths"
	"autotune/common/utils/sys"
	"errors"
	"fmt"
	"math"
)

// Chip datasheet constants used by the derived-value formulas.
const (
	// PWM_GRAD_SMOOTH_FACTOR scales the back-EMF based PWM gradient.
	PWM_GRAD_SMOOTH_FACTOR = 1.46
	PWM_GRAD_STEPS_SCALE   = 256.0
	// PWM_OFS_SCALE converts R·I/V into PWM_OFS counts.
	PWM_OFS_SCALE = 374.0
	PWM_SCALE_MAX = 255.0
	// Idle run current as a fraction of rated current.
	RUN_CURRENT_FRACTION = 0.8

	TBLANK_CLOCKS      = 16.0
	TBLANK_BASE        = 1.5
	TSD_BASE_CLOCKS    = 12.0
	TSD_TOFF_CLOCKS    = 32.0
	HYST_CURRENT_SCALE = 248.0
	HYST_STEP_SCALE    = 32.0
	HYST_OFFSET        = 8.0
	HYST_RAW_FLOOR     = -2.0
	HYST_TOTAL_MAX     = 14
	HSTRT_MIN          = 1
	HSTRT_MAX          = 8
	HEND_MAX           = 12
	// Register encoding of the working values: HSTRT=hstrt-1, HEND=hend+3.
	HSTRT_REGISTER_OFFSET = -1
	HEND_REGISTER_OFFSET  = 3
)

var (
	ErrInvalidMotorCurrent    = errors.New("motor max_current must be above 0")
	ErrInvalidMotorResistance = errors.New("motor resistance must be above 0")
	ErrNegativeInductance     = errors.New("motor inductance must not be negative")
	ErrNegativeTorque         = errors.New("motor holding_torque must not be negative")
	ErrInvalidSteps           = errors.New("motor steps_per_revolution must be above 0")
	ErrZeroInductance         = errors.New("hysteresis needs a motor inductance above 0")
	ErrInvalidVoltage         = errors.New("supply voltage must be above 0")
	ErrInvalidClock           = errors.New("driver clock frequency must be above 0")
	ErrInvalidHysteresis      = errors.New("hysteresis is not a number for these inputs")
)

// MotorConstants is the electrical model of one motor. It is immutable once
// built and every formula is recomputed from its arguments on each call.
type MotorConstants struct {
	Name  string
	R     float64 // coil resistance, ohms
	L     float64 // coil inductance, henries
	T     float64 // holding torque, N·m
	S     int     // full steps per revolution
	I     float64 // rated current, amps
	cbemf float64
}

func NewMotorConstants(name string, r, l, t float64, s int, i float64) (*MotorConstants, error) {
	var err error
	switch {
	case !(i > 0):
		err = ErrInvalidMotorCurrent
	case !(r > 0):
		err = ErrInvalidMotorResistance
	case !(l >= 0):
		err = ErrNegativeInductance
	case !(t >= 0):
		err = ErrNegativeTorque
	case s <= 0:
		err = ErrInvalidSteps
	}
	if err != nil {
		return nil, fmt.Errorf("motor '%s': %w", name, err)
	}
	self := &MotorConstants{Name: name, R: r, L: l, T: t, S: s, I: i}
	self.cbemf = t / (2.0 * i)
	return self, nil
}

// Load_config_motor_constants reads a [motor_constants <name>] section.
func Load_config_motor_constants(config *ConfigWrapper) (m *MotorConstants, err error) {
	defer sys.CatchPanic(&err)
	parts := splitSectionName(config.Get_name())
	inf := math.Inf(1)
	r := config.Getfloat("resistance", Sentinel{}, 0., inf, math.Inf(-1))
	l := config.Getfloat("inductance", Sentinel{}, 0., inf, math.Inf(-1))
	t := config.Getfloat("holding_torque", Sentinel{}, 0., inf, math.Inf(-1))
	s := config.Getint("steps_per_revolution", Sentinel{}, 1, math.MaxInt32)
	i := config.Getfloat("max_current", Sentinel{}, 0., inf, math.Inf(-1))
	m, err = NewMotorConstants(parts[len(parts)-1], r, l, t, s, i)
	if err != nil {
		return nil, &Config_error{E: err.Error()}
	}
	return m, nil
}

// Cbemf is the back-EMF constant T/(2·Imax).
func (self *MotorConstants) Cbemf() float64 {
	return self.cbemf
}

func (self *MotorConstants) current(current float64) float64 {
	if current > 0.0 {
		return current
	}
	return self.I * RUN_CURRENT_FRACTION
}

// Pwmgrad is the StealthChop PWM gradient for the given clock, microstep
// count (0 selects the motor's full steps) and supply voltage.
func (self *MotorConstants) Pwmgrad(fclk float64, steps int, volts float64) (int, error) {
	if steps <= 0 {
		steps = self.S
	}
	if !(fclk > 0) {
		return 0, ErrInvalidClock
	}
	if !(volts > 0) {
		return 0, ErrInvalidVoltage
	}
	grad := self.cbemf * 2 * math.Pi * fclk * PWM_GRAD_SMOOTH_FACTOR / (volts * PWM_GRAD_STEPS_SCALE * float64(steps))
	return maths.CeilInt(grad), nil
}

// Pwmofs is the StealthChop PWM offset; current 0 selects 80% of rated current.
func (self *MotorConstants) Pwmofs(volts, current float64) (int, error) {
	if !(volts > 0) {
		return 0, ErrInvalidVoltage
	}
	I := self.current(current)
	return maths.CeilInt(PWM_OFS_SCALE * self.R * I / volts), nil
}

// Maxpwmrps is the rotation rate (rev/s) past which the PWM scale saturates.
func (self *MotorConstants) Maxpwmrps(fclk float64, steps int, volts, current float64) (float64, error) {
	ofs, err := self.Pwmofs(volts, current)
	if err != nil {
		return 0, err
	}
	grad, err := self.Pwmgrad(fclk, steps, volts)
	if err != nil {
		return 0, err
	}
	if grad == 0 {
		// zero torque motor: the scale never ramps
		return math.Inf(1), nil
	}
	return (PWM_SCALE_MAX - float64(ofs)) / (math.Pi * float64(grad)), nil
}

// Hysteresis returns the SpreadCycle (HSTRT, HEND) register values for the
// given extra hysteresis, clock, voltage, current, blank time index and off time.
func (self *MotorConstants) Hysteresis(extra int, fclk, volts, current float64, tbl, toff int) (int, int, error) {
	if !(fclk > 0) {
		return 0, 0, ErrInvalidClock
	}
	if !(volts > 0) {
		return 0, 0, ErrInvalidVoltage
	}
	if !(self.L > 0) {
		return 0, 0, ErrZeroInductance
	}
	I := self.current(current)
	tblank := TBLANK_CLOCKS * math.Pow(TBLANK_BASE, float64(tbl)) / fclk
	tsd := (TSD_BASE_CLOCKS + TSD_TOFF_CLOCKS*float64(toff)) / fclk
	dcoilblank := volts * tblank / self.L
	dcoilsd := self.R * I * 2.0 * tsd / self.L
	logger.Debugf("motor %s: dcoilblank = %f, dcoilsd = %f", self.Name, dcoilblank, dcoilsd)
	raw := math.Max(0.5+((dcoilblank+dcoilsd)*2*HYST_CURRENT_SCALE*HYST_STEP_SCALE/I)/HYST_STEP_SCALE-HYST_OFFSET, HYST_RAW_FLOOR)
	// anything above the total maximum saturates, including +Inf from a tiny inductance
	raw = math.Min(raw, HYST_TOTAL_MAX)
	if !maths.IsFinite(raw) {
		return 0, 0, ErrInvalidHysteresis
	}
	hysteresis := extra + maths.CeilInt(raw)
	htotal := maths.Min(hysteresis, HYST_TOTAL_MAX)
	hstrt := maths.Clamp(htotal, HSTRT_MIN, HSTRT_MAX)
	hend := maths.Min(htotal-hstrt, HEND_MAX)
	logger.Debugf("motor %s: hysteresis = %d, htotal = %d, hstrt = %d, hend = %d",
		self.Name, hysteresis, htotal, hstrt, hend)
	return hstrt + HSTRT_REGISTER_OFFSET, hend + HEND_REGISTER_OFFSET, nil
}

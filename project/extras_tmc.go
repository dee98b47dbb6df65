// Common helpers for Trinamic stepper drivers
//
// Copyright (C) 2018-2020  Kevin O'Connor <kevin@koconnor.net>
//
// This file may be distributed under the terms of the GNU GPLv3 license.
package project

import (
	"autotune/common/logger"
	"autotune/common/utils/sys"
	"fmt"
	"math"
	"math/bits"
	"sort"
	"strings"
)

// Return the position of the first bit set in a mask
func ffs(mask int64) int {
	return bits.TrailingZeros64(uint64(mask))
}

type FieldError struct {
	Driver string
	Field  string
	Value  int64
	Reason string
}

func (self *FieldError) Error() string {
	return fmt.Sprintf("TMC '%s' field '%s' value %d: %s", self.Driver, self.Field, self.Value, self.Reason)
}

/*
######################################################################
# Field helpers
######################################################################
*/

type FieldHelper struct {
	all_fields        map[string]map[string]int64
	signed_fields     map[string]struct{}
	registers         map[string]int64
	field_to_register map[string]string
}

func NewFieldHelper(all_fields map[string]map[string]int64, signed_fields []string) *FieldHelper {
	self := new(FieldHelper)
	self.all_fields = all_fields
	self.signed_fields = make(map[string]struct{})
	for _, field := range signed_fields {
		self.signed_fields[field] = struct{}{}
	}
	self.registers = make(map[string]int64)
	self.field_to_register = make(map[string]string)
	for r, fields := range self.all_fields {
		for f := range fields {
			self.field_to_register[f] = r
		}
	}
	return self
}

func (self *FieldHelper) Lookup_register(field_name string) (string, bool) {
	reg, ok := self.field_to_register[field_name]
	return reg, ok
}

// Field_range returns the values a field can represent.
func (self *FieldHelper) Field_range(field_name string) (int64, int64) {
	reg := self.field_to_register[field_name]
	mask := self.all_fields[reg][field_name]
	maxval := mask >> ffs(mask)
	if _, ok := self.signed_fields[field_name]; ok {
		return -(maxval/2 + 1), maxval / 2
	}
	return 0, maxval
}

// Get_field returns the value of the register field
func (self *FieldHelper) Get_field(field_name string) int64 {
	reg_name := self.field_to_register[field_name]
	reg_value := self.registers[reg_name]
	mask := self.all_fields[reg_name][field_name]
	field_value := (reg_value & mask) >> ffs(mask)
	if _, ok := self.signed_fields[field_name]; ok && ((reg_value&mask)<<1) > mask {
		field_value -= 1 << bits.Len64(uint64(mask>>ffs(mask)))
	}
	return field_value
}

// Set_field fills the field bits with the supplied value and returns the new
// register value.
func (self *FieldHelper) Set_field(field_name string, field_value int64) int64 {
	reg_name := self.field_to_register[field_name]
	mask := self.all_fields[reg_name][field_name]
	reg_value := self.registers[reg_name]
	new_value := (reg_value & ^mask) | ((field_value << ffs(mask)) & mask)
	self.registers[reg_name] = new_value
	return new_value
}

// Set_config_field allows a field to be set from the config file
func (self *FieldHelper) Set_config_field(config *ConfigWrapper, field_name string, _default int64) int64 {
	config_name := "driver_" + strings.ToUpper(field_name)
	minval, maxval := self.Field_range(field_name)
	var val int64
	if minval == 0 && maxval == 1 {
		if config.Getboolean(config_name, _default != 0) {
			val = 1
		}
	} else {
		val = int64(config.Getint(config_name, int(_default), int(minval), int(maxval)))
	}
	return self.Set_field(field_name, val)
}

// Registers returns the names of the registers written so far, sorted.
func (self *FieldHelper) Registers() []string {
	names := make([]string, 0, len(self.registers))
	for k := range self.registers {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

func (self *FieldHelper) Get_register(reg_name string) int64 {
	return self.registers[reg_name]
}

/*
######################################################################
# Driver objects
######################################################################
*/

// FieldValue is one named register field assignment.
type FieldValue struct {
	Field string
	Value int64
}

// TMCChip describes one Trinamic driver type.
type TMCChip struct {
	Name          string
	Registers     map[string]int64
	Fields        map[string]map[string]int64
	Signed_fields []string
	// Frequency is the internal clock in Hz; 0 when the clock is not known.
	Frequency float64
	// Init_fields are the register defaults applied before config overrides.
	Init_fields []FieldValue
}

// PWM_FREQ_DIVIDERS are the fclk dividers selected by the 2-bit pwm_freq field.
var PWM_FREQ_DIVIDERS = []float64{1024, 683, 512, 410}

// Pwm_freq_index picks the pwm_freq setting whose PWM frequency 2·fclk/div is
// closest to target.
func Pwm_freq_index(fclk, target float64) int64 {
	best, best_err := 0, math.Inf(1)
	for i, div := range PWM_FREQ_DIVIDERS {
		err := math.Abs(2*fclk/div - target)
		if err < best_err {
			best, best_err = i, err
		}
	}
	return int64(best)
}

// TMCDriver is the register image of one driver. It is the DriverFieldSink
// the autotuner writes into.
type TMCDriver struct {
	name         string
	stepper_name string
	chip         *TMCChip
	fields       *FieldHelper
	run_current  float64
	fclk         float64
	forwarder    IFieldForwarder
}

func NewTMCDriver(config *ConfigWrapper, chip *TMCChip) *TMCDriver {
	self := new(TMCDriver)
	self.name = config.Get_name()
	self.stepper_name = strings.Join(splitSectionName(self.name)[1:], " ")
	self.chip = chip
	self.fields = NewFieldHelper(chip.Fields, chip.Signed_fields)
	self.fclk = chip.Frequency
	self.run_current = config.Getfloat("run_current", 0., 0., 10., math.Inf(-1))
	set_config_field := self.fields.Set_config_field
	for _, fv := range chip.Init_fields {
		set_config_field(config, fv.Field, fv.Value)
	}
	return self
}

func (self *TMCDriver) Get_name() string {
	return self.name
}

func (self *TMCDriver) Get_fields() *FieldHelper {
	return self.fields
}

func (self *TMCDriver) Get_chip() *TMCChip {
	return self.chip
}

func (self *TMCDriver) Get_stepper_name() string {
	return self.stepper_name
}

// Get_run_current returns the configured run current, 0 when unset.
func (self *TMCDriver) Get_run_current() float64 {
	return self.run_current
}

func (self *TMCDriver) Set_forwarder(forwarder IFieldForwarder) {
	self.forwarder = forwarder
}

func (self *TMCDriver) Has_field(field_name string) bool {
	_, ok := self.fields.Lookup_register(field_name)
	return ok
}

// Get_tmc_frequency reports the chip clock; it fails for chips whose clock
// is not known.
func (self *TMCDriver) Get_tmc_frequency() (float64, error) {
	if self.fclk <= 0 {
		return 0, fmt.Errorf("TMC '%s' has no known clock frequency", self.name)
	}
	return self.fclk, nil
}

// encode converts an engine value into the raw field value.
func (self *TMCDriver) encode(field_name string, value int64) (int64, error) {
	switch field_name {
	case "pwm_freq":
		// pwm_freq arrives in Hz
		if self.fclk <= 0 {
			return 0, &FieldError{self.name, field_name, value, "no clock frequency to encode the PWM frequency"}
		}
		return Pwm_freq_index(self.fclk, float64(value)), nil
	case "seup":
		// current increments per SG sample: 1, 2, 4 or 8
		if value <= 0 || value > 8 || value&(value-1) != 0 {
			return 0, &FieldError{self.name, field_name, value, "current increment must be 1, 2, 4 or 8"}
		}
		return int64(bits.TrailingZeros64(uint64(value))), nil
	}
	return value, nil
}

func (self *TMCDriver) Apply_field(field_name string, value int64) error {
	if !self.Has_field(field_name) {
		return &FieldError{self.name, field_name, value, "unsupported field"}
	}
	raw, err := self.encode(field_name, value)
	if err != nil {
		return err
	}
	minval, maxval := self.fields.Field_range(field_name)
	if raw < minval || raw > maxval {
		return &FieldError{self.name, field_name, value,
			fmt.Sprintf("outside register range [%d, %d]", minval, maxval)}
	}
	reg := self.fields.Set_field(field_name, raw)
	logger.Debugf("TMC '%s' %s=%d (register %08x)", self.name, field_name, raw, uint32(reg))
	if self.forwarder != nil {
		return self.forwarder.Forward_field(self.stepper_name, field_name, raw)
	}
	return nil
}

// TMC_CHIPS lists the supported driver types by config prefix.
var TMC_CHIPS = map[string]*TMCChip{
	"tmc2130": &TMC2130_Chip,
	"tmc2208": &TMC2208_Chip,
	"tmc2209": &TMC2209_Chip,
	"tmc2240": &TMC2240_Chip,
	"tmc2660": &TMC2660_Chip,
	"tmc5160": &TMC5160_Chip,
}

// TRINAMIC_DRIVERS is the lookup order for a stepper's driver section.
var TRINAMIC_DRIVERS = []string{"tmc2130", "tmc2208", "tmc2209", "tmc2240", "tmc2660", "tmc5160"}

func Load_config_tmc(config *ConfigWrapper) (driver *TMCDriver, err error) {
	defer sys.CatchPanic(&err)
	chip, ok := TMC_CHIPS[splitSectionName(config.Get_name())[0]]
	if !ok {
		return nil, config_errorf("Unknown TMC driver section '%s'", config.Get_name())
	}
	return NewTMCDriver(config, chip), nil
}

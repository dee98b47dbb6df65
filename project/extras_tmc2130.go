package project

const TMC2130_TMC_FREQUENCY = 13200000.

var TMC2130_Registers = map[string]int64{
	"GCONF":      0x00,
	"IHOLD_IRUN": 0x10,
	"TPOWERDOWN": 0x11,
	"TPWMTHRS":   0x13,
	"TCOOLTHRS":  0x14,
	"THIGH":      0x15,
	"CHOPCONF":   0x6c,
	"COOLCONF":   0x6d,
	"PWMCONF":    0x70,
}

var TMC2130_Fields = map[string]map[string]int64{
	"GCONF": {
		"i_scale_analog":   0x01 << 0,
		"internal_rsense":  0x01 << 1,
		"en_pwm_mode":      0x01 << 2,
		"shaft":            0x01 << 4,
		"small_hysteresis": 0x01 << 14,
		"stop_enable":      0x01 << 15,
		"direct_mode":      0x01 << 16,
	},
	"IHOLD_IRUN": {
		"ihold":      0x1f << 0,
		"irun":       0x1f << 8,
		"iholddelay": 0x0f << 16,
	},
	"TPOWERDOWN": {"tpowerdown": 0xff},
	"TPWMTHRS":   {"tpwmthrs": 0xfffff},
	"TCOOLTHRS":  {"tcoolthrs": 0xfffff},
	"THIGH":      {"thigh": 0xfffff},
	"CHOPCONF": {
		"toff":     0x0f << 0,
		"hstrt":    0x07 << 4,
		"hend":     0x0f << 7,
		"fd3":      0x01 << 11,
		"disfdcc":  0x01 << 12,
		"rndtf":    0x01 << 13,
		"chm":      0x01 << 14,
		"tbl":      0x03 << 15,
		"vsense":   0x01 << 17,
		"vhighfs":  0x01 << 18,
		"vhighchm": 0x01 << 19,
		"sync":     0x0f << 20,
		"mres":     0x0f << 24,
		"intpol":   0x01 << 28,
		"dedge":    0x01 << 29,
		"diss2g":   0x01 << 30,
	},
	"COOLCONF": {
		"semin":  0x0f << 0,
		"seup":   0x03 << 5,
		"semax":  0x0f << 8,
		"sedn":   0x03 << 13,
		"seimin": 0x01 << 15,
		"sgt":    0x7f << 16,
		"sfilt":  0x01 << 24,
	},
	"PWMCONF": {
		"pwm_ampl":      0xff << 0,
		"pwm_grad":      0xff << 8,
		"pwm_freq":      0x03 << 16,
		"pwm_autoscale": 0x01 << 18,
		"pwm_symmetric": 0x01 << 19,
		"freewheel":     0x03 << 20,
	},
}

var TMC2130_SignedFields = []string{"sgt"}

var TMC2130_Chip = TMCChip{
	Name:          "tmc2130",
	Registers:     TMC2130_Registers,
	Fields:        TMC2130_Fields,
	Signed_fields: TMC2130_SignedFields,
	Frequency:     TMC2130_TMC_FREQUENCY,
	Init_fields: []FieldValue{
		{"toff", 4}, {"hstrt", 0}, {"hend", 7}, {"tbl", 1}, {"mres", 4}, {"intpol", 1},
		{"iholddelay", 8}, {"tpowerdown", 0},
		{"pwm_ampl", 128}, {"pwm_grad", 4}, {"pwm_freq", 1}, {"pwm_autoscale", 1},
		{"semin", 0}, {"seup", 0}, {"semax", 0}, {"sedn", 0}, {"seimin", 0},
		{"sgt", 0}, {"sfilt", 0},
	},
}

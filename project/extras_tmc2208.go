package project

const TMC2208_TMC_FREQUENCY = 12000000.

var TMC2208_Registers = map[string]int64{
	"GCONF":      0x00,
	"IHOLD_IRUN": 0x10,
	"TPOWERDOWN": 0x11,
	"TPWMTHRS":   0x13,
	"CHOPCONF":   0x6c,
	"PWMCONF":    0x70,
}

var TMC2208_Fields = map[string]map[string]int64{
	"GCONF": {
		"i_scale_analog":   0x01,
		"internal_rsense":  0x01 << 1,
		"en_spreadcycle":   0x01 << 2,
		"shaft":            0x01 << 3,
		"index_otpw":       0x01 << 4,
		"index_step":       0x01 << 5,
		"pdn_disable":      0x01 << 6,
		"mstep_reg_select": 0x01 << 7,
		"multistep_filt":   0x01 << 8,
		"test_mode":        0x01 << 9,
	},
	"IHOLD_IRUN": {
		"ihold":      0x1f,
		"irun":       0x1f << 8,
		"iholddelay": 0x0f << 16,
	},
	"TPOWERDOWN": {"tpowerdown": 0xff},
	"TPWMTHRS":   {"tpwmthrs": 0xfffff},
	"CHOPCONF": {
		"toff":    0x0f,
		"hstrt":   0x07 << 4,
		"hend":    0x0f << 7,
		"tbl":     0x03 << 15,
		"vsense":  0x01 << 17,
		"mres":    0x0f << 24,
		"intpol":  0x01 << 28,
		"dedge":   0x01 << 29,
		"diss2g":  0x01 << 30,
		"diss2vs": 0x01 << 31,
	},
	"PWMCONF": {
		"pwm_ofs":       0xff,
		"pwm_grad":      0xff << 8,
		"pwm_freq":      0x03 << 16,
		"pwm_autoscale": 0x01 << 18,
		"pwm_autograd":  0x01 << 19,
		"freewheel":     0x03 << 20,
		"pwm_reg":       0xf << 24,
		"pwm_lim":       0xf << 28,
	},
}

// TMC2208_Init_fields are shared with the TMC2209.
var TMC2208_Init_fields = []FieldValue{
	{"pdn_disable", 1}, {"mstep_reg_select", 1}, {"multistep_filt", 1},
	{"toff", 3}, {"hstrt", 5}, {"hend", 0}, {"tbl", 2}, {"mres", 4}, {"intpol", 1},
	{"iholddelay", 8}, {"tpowerdown", 20},
	{"pwm_ofs", 36}, {"pwm_grad", 14}, {"pwm_freq", 1}, {"pwm_autoscale", 1},
	{"pwm_autograd", 1}, {"pwm_reg", 8}, {"pwm_lim", 12},
}

var TMC2208_Chip = TMCChip{
	Name:        "tmc2208",
	Registers:   TMC2208_Registers,
	Fields:      TMC2208_Fields,
	Frequency:   TMC2208_TMC_FREQUENCY,
	Init_fields: TMC2208_Init_fields,
}

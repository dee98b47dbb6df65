package project

const TMC5160_TMC_FREQUENCY = 12000000.

var TMC5160_Registers = map[string]int64{
	"GCONF":        0x00,
	"SHORT_CONF":   0x09,
	"DRV_CONF":     0x0A,
	"GLOBALSCALER": 0x0B,
	"IHOLD_IRUN":   0x10,
	"TPOWERDOWN":   0x11,
	"TPWMTHRS":     0x13,
	"TCOOLTHRS":    0x14,
	"THIGH":        0x15,
	"CHOPCONF":     0x6C,
	"COOLCONF":     0x6D,
	"PWMCONF":      0x70,
}

var TMC5160_Fields = make(map[string]map[string]int64)

func init() {
	TMC5160_Fields["COOLCONF"] = map[string]int64{
		"semin":  0x0F << 0,
		"seup":   0x03 << 5,
		"semax":  0x0F << 8,
		"sedn":   0x03 << 13,
		"seimin": 0x01 << 15,
		"sgt":    0x7F << 16,
		"sfilt":  0x01 << 24,
	}
	TMC5160_Fields["CHOPCONF"] = map[string]int64{
		"toff":     0x0F << 0,
		"hstrt":    0x07 << 4,
		"hend":     0x0F << 7,
		"fd3":      0x01 << 11,
		"disfdcc":  0x01 << 12,
		"chm":      0x01 << 14,
		"tbl":      0x03 << 15,
		"vhighfs":  0x01 << 18,
		"vhighchm": 0x01 << 19,
		"tpfd":     0x0F << 20,
		"mres":     0x0F << 24,
		"intpol":   0x01 << 28,
		"dedge":    0x01 << 29,
		"diss2g":   0x01 << 30,
		"diss2vs":  0x01 << 31,
	}
	TMC5160_Fields["DRV_CONF"] = map[string]int64{
		"bbmtime":     0x1F << 0,
		"bbmclks":     0x0F << 8,
		"otselect":    0x03 << 16,
		"drvstrength": 0x03 << 18,
		"filt_isense": 0x03 << 20,
	}
	TMC5160_Fields["GCONF"] = map[string]int64{
		"recalibrate":      0x01 << 0,
		"faststandstill":   0x01 << 1,
		"en_pwm_mode":      0x01 << 2,
		"multistep_filt":   0x01 << 3,
		"shaft":            0x01 << 4,
		"small_hysteresis": 0x01 << 14,
		"stop_enable":      0x01 << 15,
		"direct_mode":      0x01 << 16,
	}
	TMC5160_Fields["GLOBALSCALER"] = map[string]int64{
		"globalscaler": 0xFF << 0,
	}
	TMC5160_Fields["IHOLD_IRUN"] = map[string]int64{
		"ihold":      0x1F << 0,
		"irun":       0x1F << 8,
		"iholddelay": 0x0F << 16,
	}
	TMC5160_Fields["PWMCONF"] = map[string]int64{
		"pwm_ofs":       0xFF << 0,
		"pwm_grad":      0xFF << 8,
		"pwm_freq":      0x03 << 16,
		"pwm_autoscale": 0x01 << 18,
		"pwm_autograd":  0x01 << 19,
		"freewheel":     0x03 << 20,
		"pwm_reg":       0x0F << 24,
		"pwm_lim":       0x0F << 28,
	}
	TMC5160_Fields["SHORT_CONF"] = map[string]int64{
		"s2vs_level":  0x0F << 0,
		"s2g_level":   0x0F << 8,
		"shortfilter": 0x03 << 16,
		"shortdelay":  0x01 << 18,
	}
	TMC5160_Fields["TPOWERDOWN"] = map[string]int64{
		"tpowerdown": 0xff << 0,
	}
	TMC5160_Fields["TPWMTHRS"] = map[string]int64{
		"tpwmthrs": 0xfffff << 0,
	}
	TMC5160_Fields["TCOOLTHRS"] = map[string]int64{
		"tcoolthrs": 0xfffff << 0,
	}
	TMC5160_Fields["THIGH"] = map[string]int64{
		"thigh": 0xfffff << 0,
	}
}

var TMC5160_SignedFields = []string{"sgt"}

var TMC5160_Chip = TMCChip{
	Name:          "tmc5160",
	Registers:     TMC5160_Registers,
	Fields:        TMC5160_Fields,
	Signed_fields: TMC5160_SignedFields,
	Frequency:     TMC5160_TMC_FREQUENCY,
	Init_fields: []FieldValue{
		{"multistep_filt", 1},
		{"toff", 3}, {"hstrt", 5}, {"hend", 2}, {"fd3", 0}, {"disfdcc", 0},
		{"chm", 0}, {"tbl", 2}, {"tpfd", 4}, {"mres", 4}, {"intpol", 1},
		{"iholddelay", 6}, {"tpowerdown", 10},
		{"pwm_ofs", 30}, {"pwm_grad", 0}, {"pwm_freq", 0}, {"pwm_autoscale", 1},
		{"pwm_autograd", 1}, {"freewheel", 0}, {"pwm_reg", 4}, {"pwm_lim", 12},
		{"semin", 0}, {"seup", 0}, {"semax", 0}, {"sedn", 0}, {"seimin", 0},
		{"sgt", 0}, {"sfilt", 0},
		{"s2vs_level", 6}, {"s2g_level", 6}, {"shortfilter", 1}, {"shortdelay", 0},
		{"bbmtime", 0}, {"bbmclks", 4}, {"otselect", 0}, {"drvstrength", 0}, {"filt_isense", 0},
	},
}

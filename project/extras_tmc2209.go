package project

const TMC2209_TMC_FREQUENCY = 12000000.

var TMC2209_Registers = map[string]int64{
	"TCOOLTHRS": 0x14,
	"COOLCONF":  0x42,
	"SGTHRS":    0x40,
}

var TMC2209_Fields = make(map[string]map[string]int64)

// The TMC2209 extends the TMC2208 register set with StallGuard4 and CoolStep.
func init() {
	for k, v := range TMC2208_Registers {
		TMC2209_Registers[k] = v
	}
	for reg, fields := range TMC2208_Fields {
		TMC2209_Fields[reg] = fields
	}
	TMC2209_Fields["COOLCONF"] = map[string]int64{
		"semin":  0x0F << 0,
		"seup":   0x03 << 5,
		"semax":  0x0F << 8,
		"sedn":   0x03 << 13,
		"seimin": 0x01 << 15,
	}
	TMC2209_Fields["SGTHRS"] = map[string]int64{
		"sgthrs": 0xFF << 0,
	}
	TMC2209_Fields["TCOOLTHRS"] = map[string]int64{
		"tcoolthrs": 0xfffff,
	}
}

var TMC2209_Init_fields = append(append([]FieldValue{}, TMC2208_Init_fields...),
	FieldValue{"semin", 0}, FieldValue{"seup", 0}, FieldValue{"semax", 0},
	FieldValue{"sedn", 0}, FieldValue{"seimin", 0}, FieldValue{"sgthrs", 0})

var TMC2209_Chip = TMCChip{
	Name:        "tmc2209",
	Registers:   TMC2209_Registers,
	Fields:      TMC2209_Fields,
	Frequency:   TMC2209_TMC_FREQUENCY,
	Init_fields: TMC2209_Init_fields,
}

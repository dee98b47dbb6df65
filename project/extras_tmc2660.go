package project

var TMC2660_Registers = map[string]int64{
	"DRVCONF": 0xE, "SGCSCONF": 0xC, "SMARTEN": 0xA,
	"CHOPCONF": 0x8, "DRVCTRL": 0x0,
}

// The TMC2660 has neither StealthChop nor a clock query.
var TMC2660_Fields = map[string]map[string]int64{

	"DRVCTRL": {
		"mres":   0x0f,
		"dedge":  0x01 << 8,
		"intpol": 0x01 << 9,
	},

	"CHOPCONF": {
		"toff":  0x0f,
		"hstrt": 0x7 << 4,
		"hend":  0x0f << 7,
		"hdec":  0x03 << 11,
		"rndtf": 0x01 << 13,
		"chm":   0x01 << 14,
		"tbl":   0x03 << 15,
	},

	"SMARTEN": {
		"semin":  0x0f,
		"seup":   0x03 << 5,
		"semax":  0x0f << 8,
		"sedn":   0x03 << 13,
		"seimin": 0x01 << 15,
	},

	"SGCSCONF": {
		"cs":    0x1f,
		"sgt":   0x7F << 8,
		"sfilt": 0x01 << 16,
	},

	"DRVCONF": {
		"rdsel":  0x03 << 4,
		"vsense": 0x01 << 6,
		"sdoff":  0x01 << 7,
		"ts2g":   0x03 << 8,
		"diss2g": 0x01 << 10,
		"slpl":   0x03 << 12,
		"slph":   0x03 << 14,
		"tst":    0x01 << 16,
	},
}

var TMC2660_SignedFields = []string{"sgt"}

var TMC2660_Chip = TMCChip{
	Name:          "tmc2660",
	Registers:     TMC2660_Registers,
	Fields:        TMC2660_Fields,
	Signed_fields: TMC2660_SignedFields,
	Init_fields: []FieldValue{
		{"mres", 4}, {"intpol", 1},
		{"toff", 4}, {"hstrt", 3}, {"hend", 2}, {"hdec", 0}, {"chm", 0}, {"tbl", 2},
		{"semin", 0}, {"seup", 0}, {"semax", 0}, {"sedn", 0}, {"seimin", 0},
		{"sgt", 0}, {"sfilt", 0},
		{"slph", 0}, {"slpl", 0}, {"ts2g", 3},
	},
}

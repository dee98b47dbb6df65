package project

import (
	_ "embed"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
)

//go:embed motor_database.toml
var motor_database_toml string

var motor_record_keys = []string{"resistance", "inductance", "holding_torque", "max_current", "steps_per_revolution"}

type motorRecord struct {
	Resistance           float64 `toml:"resistance"`
	Inductance           float64 `toml:"inductance"`
	Holding_torque       float64 `toml:"holding_torque"`
	Max_current          float64 `toml:"max_current"`
	Steps_per_revolution int     `toml:"steps_per_revolution"`
}

// MotorDatabase is a read-only set of motor definitions keyed by lowercase name.
type MotorDatabase struct {
	motors map[string]*MotorConstants
}

// Load_motor_database decodes a TOML motor table. Every motor must define all
// five constants.
func Load_motor_database(data string, source string) (*MotorDatabase, error) {
	var records map[string]motorRecord
	md, err := toml.Decode(data, &records)
	if err != nil {
		return nil, errors.Wrapf(err, "Cannot load motor database '%s'", source)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, errors.Errorf("Cannot load motor database '%s': unknown key '%s'", source, undecoded[0].String())
	}
	self := &MotorDatabase{motors: make(map[string]*MotorConstants, len(records))}
	for name, rec := range records {
		for _, key := range motor_record_keys {
			if !md.IsDefined(name, key) {
				return nil, errors.Errorf("Cannot load motor database '%s': motor '%s' is missing '%s'", source, name, key)
			}
		}
		m, err := NewMotorConstants(strings.ToLower(name), rec.Resistance, rec.Inductance,
			rec.Holding_torque, rec.Steps_per_revolution, rec.Max_current)
		if err != nil {
			return nil, errors.Wrapf(err, "Cannot load motor database '%s'", source)
		}
		self.motors[m.Name] = m
	}
	return self, nil
}

// Default_motor_database returns the database embedded in the binary.
func Default_motor_database() (*MotorDatabase, error) {
	return Load_motor_database(motor_database_toml, "motor_database.toml")
}

func (self *MotorDatabase) Lookup(name string) (*MotorConstants, bool) {
	m, ok := self.motors[strings.ToLower(name)]
	return m, ok
}

// Names returns the motor names, sorted.
func (self *MotorDatabase) Names() []string {
	names := make([]string, 0, len(self.motors))
	for k := range self.motors {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Merge returns a new database where the given motors replace entries with
// the same name. The receiver is left untouched.
func (self *MotorDatabase) Merge(motors ...*MotorConstants) *MotorDatabase {
	ret := &MotorDatabase{motors: make(map[string]*MotorConstants, len(self.motors)+len(motors))}
	for k, v := range self.motors {
		ret.motors[k] = v
	}
	for _, m := range motors {
		ret.motors[strings.ToLower(m.Name)] = m
	}
	return ret
}

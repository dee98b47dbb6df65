package config

import (
	"fmt"
	"os"
	"sort"

	"github.com/BurntSushi/toml"
)

const DEFAULT_TMC_FREQUENCY = 12.5e6

// CoolStep holds the load-based current reduction thresholds.
type CoolStep struct {
	Semin int `toml:"semin"`
	Semax int `toml:"semax"`
	Seup  int `toml:"seup"`
	Sedn  int `toml:"sedn"`
}

// AutotuneDefaults is the default value of every autotune option. Records are
// values: Default and LoadDefaults return fresh copies, and the PWM target map
// is only reachable through Pwm_freq_target.
type AutotuneDefaults struct {
	Tuning_goal      string
	Extra_hysteresis int
	Tbl              int
	Sgt              int
	Sg4_thrs         int
	Voltage          float64
	Tmc_frequency    float64
	Coolstep         CoolStep
	pwm_freq_targets map[string]float64
}

func Default() AutotuneDefaults {
	return AutotuneDefaults{
		Tuning_goal:      "auto",
		Extra_hysteresis: 0,
		Tbl:              1,
		Sgt:              1,
		Sg4_thrs:         40,
		Voltage:          24.0,
		Tmc_frequency:    DEFAULT_TMC_FREQUENCY,
		Coolstep:         CoolStep{Semin: 2, Semax: 4, Seup: 3, Sedn: 2},
		pwm_freq_targets: map[string]float64{
			"tmc2130": 55e3,
			"tmc2208": 55e3,
			"tmc2209": 55e3,
			"tmc2240": 20e3, // 2240s run very hot at high frequencies
			"tmc2660": 55e3,
			"tmc5160": 55e3,
		},
	}
}

// Pwm_freq_target returns the PWM frequency target for a driver type.
func (self AutotuneDefaults) Pwm_freq_target(driver_type string) (float64, bool) {
	v, ok := self.pwm_freq_targets[driver_type]
	return v, ok
}

// Driver_types lists the driver types that have a PWM target, sorted.
func (self AutotuneDefaults) Driver_types() []string {
	types := make([]string, 0, len(self.pwm_freq_targets))
	for k := range self.pwm_freq_targets {
		types = append(types, k)
	}
	sort.Strings(types)
	return types
}

type defaultsFile struct {
	Tuning_goal      *string            `toml:"tuning_goal"`
	Extra_hysteresis *int               `toml:"extra_hysteresis"`
	Tbl              *int               `toml:"tbl"`
	Sgt              *int               `toml:"sgt"`
	Sg4_thrs         *int               `toml:"sg4_thrs"`
	Voltage          *float64           `toml:"voltage"`
	Tmc_frequency    *float64           `toml:"tmc_frequency"`
	Coolstep         *CoolStep          `toml:"coolstep"`
	Pwm_freq_targets map[string]float64 `toml:"pwm_freq_targets"`
}

// LoadDefaults overlays the TOML file at path onto Default. Only the keys
// present in the file change; unknown keys are rejected.
func LoadDefaults(path string) (AutotuneDefaults, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return AutotuneDefaults{}, err
	}
	return ParseDefaults(string(content))
}

func ParseDefaults(content string) (AutotuneDefaults, error) {
	d := Default()
	var f defaultsFile
	md, err := toml.Decode(content, &f)
	if err != nil {
		return AutotuneDefaults{}, fmt.Errorf("autotune defaults: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return AutotuneDefaults{}, fmt.Errorf("autotune defaults: unknown key '%s'", undecoded[0].String())
	}
	if f.Tuning_goal != nil {
		d.Tuning_goal = *f.Tuning_goal
	}
	if f.Extra_hysteresis != nil {
		d.Extra_hysteresis = *f.Extra_hysteresis
	}
	if f.Tbl != nil {
		d.Tbl = *f.Tbl
	}
	if f.Sgt != nil {
		d.Sgt = *f.Sgt
	}
	if f.Sg4_thrs != nil {
		d.Sg4_thrs = *f.Sg4_thrs
	}
	if f.Voltage != nil {
		d.Voltage = *f.Voltage
	}
	if f.Tmc_frequency != nil {
		if *f.Tmc_frequency <= 0 {
			return AutotuneDefaults{}, fmt.Errorf("autotune defaults: tmc_frequency must be above 0")
		}
		d.Tmc_frequency = *f.Tmc_frequency
	}
	if f.Coolstep != nil {
		d.Coolstep = *f.Coolstep
	}
	for driver, target := range f.Pwm_freq_targets {
		if _, ok := d.pwm_freq_targets[driver]; !ok {
			return AutotuneDefaults{}, fmt.Errorf("autotune defaults: unknown driver type '%s'", driver)
		}
		d.pwm_freq_targets[driver] = target
	}
	return d, nil
}

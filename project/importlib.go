package project

import (
	"sort"
)

// ModuleLoader builds the printer object for one config section.
type ModuleLoader func(config *ConfigWrapper) (interface{}, error)

func load_tmc(config *ConfigWrapper) (interface{}, error) {
	return Load_config_tmc(config)
}

func load_motor_constants(config *ConfigWrapper) (interface{}, error) {
	return Load_config_motor_constants(config)
}

func load_autotune_tmc(config *ConfigWrapper) (interface{}, error) {
	return Load_config_autotune_tmc(config)
}

// load main module for application, keyed by section prefix
func LoadMainModule() map[string]ModuleLoader {
	module := map[string]ModuleLoader{
		"motor_constants": load_motor_constants,
		"autotune_tmc":    load_autotune_tmc,
	}
	for _, driver := range TRINAMIC_DRIVERS {
		module[driver] = load_tmc
	}
	return module
}

// Module_load_order is the order in which sections are loaded: motors and
// drivers come before the autotune sections that look them up.
func Module_load_order() []string {
	order := []string{"motor_constants"}
	drivers := append([]string{}, TRINAMIC_DRIVERS...)
	sort.Strings(drivers)
	order = append(order, drivers...)
	return append(order, "autotune_tmc")
}

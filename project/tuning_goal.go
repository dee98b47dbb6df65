package project

import (
	"fmt"
	"strings"
)

type TuningGoal int

const (
	// TuningGoalAuto picks SILENT for heavy non-XY motors and PERFORMANCE otherwise.
	TuningGoalAuto TuningGoal = iota
	// TuningGoalAutoswitch is experimental: StealthChop at low speed, SpreadCycle
	// when needed. Until the switching policy exists it resolves like AUTO.
	TuningGoalAutoswitch
	// TuningGoalSilent is StealthChop at all speeds.
	TuningGoalSilent
	// TuningGoalPerformance is SpreadCycle at all speeds.
	TuningGoalPerformance
)

var tuning_goal_names = map[TuningGoal]string{
	TuningGoalAuto:        "auto",
	TuningGoalAutoswitch:  "autoswitch",
	TuningGoalSilent:      "silent",
	TuningGoalPerformance: "performance",
}

func (self TuningGoal) String() string {
	if name, ok := tuning_goal_names[self]; ok {
		return name
	}
	return fmt.Sprintf("TuningGoal(%d)", int(self))
}

// Is_resolved reports whether the goal can drive register derivation directly.
func (self TuningGoal) Is_resolved() bool {
	return self == TuningGoalSilent || self == TuningGoalPerformance
}

type TuningGoalError struct {
	Value string
}

func (self *TuningGoalError) Error() string {
	return fmt.Sprintf("Tuning goal '%s' is invalid for TMC autotuning", self.Value)
}

// Parse_tuning_goal accepts the goal names case insensitively.
func Parse_tuning_goal(s string) (TuningGoal, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for goal, goal_name := range tuning_goal_names {
		if goal_name == name {
			return goal, nil
		}
	}
	return 0, &TuningGoalError{Value: s}
}

// Steppers that AUTO always tunes for performance.
var AUTO_PERFORMANCE_MOTORS = map[string]struct{}{
	"stepper_x":  {},
	"stepper_y":  {},
	"stepper_x1": {},
	"stepper_y1": {},
	"stepper_a":  {},
	"stepper_b":  {},
	"stepper_c":  {},
}

// AUTO_SILENT_MIN_TORQUE is the holding torque (N·m) above which AUTO prefers SILENT.
const AUTO_SILENT_MIN_TORQUE = 0.3

// Auto_silent is the AUTO preference for a stepper: silent unless the stepper
// is a performance axis or the motor is too weak.
func Auto_silent(stepper_name string, torque float64) bool {
	_, performance := AUTO_PERFORMANCE_MOTORS[stepper_name]
	return !performance && torque > AUTO_SILENT_MIN_TORQUE
}

// Resolve_tuning_goal concretizes requested using the cached AUTO preference.
func Resolve_tuning_goal(requested TuningGoal, auto_silent bool) TuningGoal {
	if requested.Is_resolved() {
		return requested
	}
	if auto_silent {
		return TuningGoalSilent
	}
	return TuningGoalPerformance
}

package project

import (
	"autotune/common/config"
	"autotune/common/configparser"
	"autotune/common/logger"
	"autotune/common/utils/sys"
	"fmt"
	"io"
	"os"
	"strings"
)

const (
	printer_state_init = iota
	printer_state_configured
	printer_state_connected
	printer_state_ready
)

// Printer owns the loaded config objects and fires the lifecycle events.
// Everything runs on the caller's goroutine.
type Printer struct {
	defaults       config.AutotuneDefaults
	objects        map[string]interface{}
	object_order   []string
	event_handlers map[string][]func([]interface{}) error
	state          int
	motor_db       *MotorDatabase
	gcode          *GCodeDispatch
}

func NewPrinter(defaults config.AutotuneDefaults, out io.Writer) *Printer {
	self := new(Printer)
	self.defaults = defaults
	self.objects = make(map[string]interface{})
	self.event_handlers = make(map[string][]func([]interface{}) error)
	if out == nil {
		out = os.Stdout
	}
	self.gcode = NewGCodeDispatch(out)
	self.Add_object("gcode", self.gcode)
	return self
}

func (self *Printer) Get_defaults() config.AutotuneDefaults {
	return self.defaults
}

func (self *Printer) Get_gcode() *GCodeDispatch {
	return self.gcode
}

func (self *Printer) Get_motor_database() *MotorDatabase {
	return self.motor_db
}

func (self *Printer) Add_object(name string, obj interface{}) {
	if _, ok := self.objects[name]; !ok {
		self.object_order = append(self.object_order, name)
	}
	self.objects[name] = obj
}

// Lookup_object returns the named object, or default1 when it is missing.
// A Sentinel default makes the object required.
func (self *Printer) Lookup_object(name string, default1 interface{}) interface{} {
	if obj, ok := self.objects[name]; ok {
		return obj
	}
	if _, ok := default1.(Sentinel); ok {
		panic(config_errorf("Unknown config object '%s'", name))
	}
	return default1
}

// Lookup_objects returns the objects whose name starts with module, in load order.
func (self *Printer) Lookup_objects(module string) []interface{} {
	var ret []interface{}
	prefix := module + " "
	for _, name := range self.object_order {
		if name == module || strings.HasPrefix(name, prefix) {
			ret = append(ret, self.objects[name])
		}
	}
	return ret
}

// Lookup_motor finds a motor in the database built by Load_config, where
// merge_user_motors has already replaced entries with the printer config's
// [motor_constants] sections.
func (self *Printer) Lookup_motor(name string) (*MotorConstants, bool) {
	if self.motor_db == nil {
		return nil, false
	}
	return self.motor_db.Lookup(name)
}

// Set_field_forwarder mirrors the field writes of every TMC driver to fwd.
func (self *Printer) Set_field_forwarder(fwd IFieldForwarder) {
	for _, driver := range TRINAMIC_DRIVERS {
		for _, obj := range self.Lookup_objects(driver) {
			obj.(*TMCDriver).Set_forwarder(fwd)
		}
	}
}

// Autotune_reports returns the report of every tuned stepper, or only of the
// named steppers when names is not empty.
func (self *Printer) Autotune_reports(names ...string) ([]*AutotuneReport, error) {
	var reports []*AutotuneReport
	found := make(map[string]bool)
	for _, obj := range self.Lookup_objects("autotune_tmc") {
		at := obj.(*AutotuneTMC)
		if len(names) > 0 && !contains(names, at.Get_name()) {
			continue
		}
		found[at.Get_name()] = true
		if report := at.Get_report(); report != nil {
			reports = append(reports, report)
		}
	}
	for _, name := range names {
		if !found[name] {
			return nil, fmt.Errorf("no [autotune_tmc %s] section", name)
		}
	}
	return reports, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func (self *Printer) Register_event_handler(event string, callback func([]interface{}) error) {
	self.event_handlers[event] = append(self.event_handlers[event], callback)
}

// Send_event runs every handler of event in registration order. It stops at
// the first failing handler.
func (self *Printer) Send_event(event string, params []interface{}) ([]interface{}, error) {
	var ret []interface{}
	for _, cb := range self.event_handlers[event] {
		if err := cb(params); err != nil {
			return ret, err
		}
		ret = append(ret, nil)
	}
	return ret, nil
}

// Load_config builds every object of the printer config: the motor database
// merged with user motors, the TMC drivers and one autotuner per
// [autotune_tmc] section.
func (self *Printer) Load_config(fileconfig *configparser.RawConfigParser) (err error) {
	defer sys.CatchPanic(&err)
	if self.state != printer_state_init {
		return fmt.Errorf("printer config already loaded")
	}
	db, err := Default_motor_database()
	if err != nil {
		return err
	}
	self.motor_db = db
	modules := LoadMainModule()
	root := NewConfigWrapper(self, fileconfig, "printer")
	for _, module := range Module_load_order() {
		load := modules[module]
		for _, section_config := range root.Get_prefix_sections(module) {
			parts := splitSectionName(section_config.Get_name())
			if parts[0] != module {
				continue
			}
			obj, err := load(section_config)
			if err != nil {
				return err
			}
			self.Add_object(section_config.Get_name(), obj)
			logger.Debugf("loaded config section [%s]", section_config.Get_name())
		}
		if module == "motor_constants" {
			self.merge_user_motors()
		}
	}
	self.state = printer_state_configured
	return nil
}

func (self *Printer) merge_user_motors() {
	var user []*MotorConstants
	for _, obj := range self.Lookup_objects("motor_constants") {
		user = append(user, obj.(*MotorConstants))
	}
	if len(user) > 0 {
		self.motor_db = self.motor_db.Merge(user...)
	}
}

func (self *Printer) lifecycle(event string, from, to int) (err error) {
	defer sys.CatchPanic(&err)
	if self.state != from {
		return fmt.Errorf("cannot send '%s' in printer state %d", event, self.state)
	}
	if _, err = self.Send_event(event, nil); err != nil {
		return err
	}
	self.state = to
	return nil
}

// Connect fires "project:connect" once, after Load_config.
func (self *Printer) Connect() error {
	return self.lifecycle("project:connect", printer_state_configured, printer_state_connected)
}

// Ready fires "project:ready" once, after Connect.
func (self *Printer) Ready() error {
	return self.lifecycle("project:ready", printer_state_connected, printer_state_ready)
}

func (self *Printer) Is_ready() bool {
	return self.state == printer_state_ready
}

// Start_printer loads fileconfig and runs both lifecycle events. fwd may be nil.
func Start_printer(defaults config.AutotuneDefaults, fileconfig *configparser.RawConfigParser,
	out io.Writer, fwd IFieldForwarder) (*Printer, error) {
	printer := NewPrinter(defaults, out)
	if err := printer.Load_config(fileconfig); err != nil {
		return nil, err
	}
	if fwd != nil {
		printer.Set_field_forwarder(fwd)
	}
	if err := printer.Connect(); err != nil {
		return nil, err
	}
	if err := printer.Ready(); err != nil {
		return nil, err
	}
	return printer, nil
}

// splitSectionName splits "autotune_tmc stepper_x" into its words.
func splitSectionName(name string) []string {
	parts := strings.Fields(name)
	if len(parts) == 0 {
		return []string{""}
	}
	return parts
}

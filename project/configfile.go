package project

import (
	"autotune/common/configparser"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config_error is raised (as a panic value) by the ConfigWrapper getters and
// returned by the loaders once recovered.
type Config_error struct {
	E string
}

func (self *Config_error) Error() string {
	return self.E
}

func config_errorf(format string, args ...interface{}) *Config_error {
	return &Config_error{E: fmt.Sprintf(format, args...)}
}

// Sentinel marks an option as required when passed as the default.
type Sentinel struct{}

type ConfigWrapper struct {
	printer    *Printer
	fileconfig *configparser.RawConfigParser
	Section    string
}

func NewConfigWrapper(printer *Printer, fileconfig *configparser.RawConfigParser, section string) *ConfigWrapper {
	self := ConfigWrapper{}
	self.printer = printer
	self.fileconfig = fileconfig
	self.Section = section

	return &self
}

func (self *ConfigWrapper) Get_printer() *Printer {
	return self.printer
}
func (self *ConfigWrapper) Get_name() string {
	return self.Section
}

func (self *ConfigWrapper) raw(option string, default1 interface{}) (string, bool) {
	v, ok := self.fileconfig.Get(self.Section, option)
	if ok {
		return v, true
	}
	if _, required := default1.(Sentinel); required {
		panic(config_errorf("Option '%s' in section '%s' must be specified", option, self.Section))
	}
	return "", false
}

func (self *ConfigWrapper) Get(option string, default1 interface{}) string {
	v, ok := self.raw(option, default1)
	if !ok {
		s, _ := default1.(string)
		return s
	}
	return v
}

func (self *ConfigWrapper) check_int(option string, n, minval, maxval int) int {
	if n < minval {
		panic(config_errorf("Option '%s' in section '%s' must have minimum of %d", option, self.Section, minval))
	}
	if n > maxval {
		panic(config_errorf("Option '%s' in section '%s' must have maximum of %d", option, self.Section, maxval))
	}
	return n
}

func (self *ConfigWrapper) parse_int(option, v string) int {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		panic(config_errorf("Unable to parse option '%s' in section '%s'", option, self.Section))
	}
	return n
}

// Getint returns the option in [minval, maxval]. A default outside the range
// is a programming error and is not checked.
func (self *ConfigWrapper) Getint(option string, default1 interface{}, minval, maxval int) int {
	v, ok := self.raw(option, default1)
	if !ok {
		ret, _ := default1.(int)
		return ret
	}
	return self.check_int(option, self.parse_int(option, v), minval, maxval)
}

// GetintNone is Getint for options without a default; nil when unset.
func (self *ConfigWrapper) GetintNone(option string, minval, maxval int) *int {
	v, ok := self.raw(option, nil)
	if !ok {
		return nil
	}
	n := self.check_int(option, self.parse_int(option, v), minval, maxval)
	return &n
}

func (self *ConfigWrapper) check_float(option string, n, minval, maxval, above float64) float64 {
	if n < minval {
		panic(config_errorf("Option '%s' in section '%s' must have minimum of %f", option, self.Section, minval))
	}
	if n > maxval {
		panic(config_errorf("Option '%s' in section '%s' must have maximum of %f", option, self.Section, maxval))
	}
	if n <= above {
		panic(config_errorf("Option '%s' in section '%s' must be above %f", option, self.Section, above))
	}
	return n
}

func (self *ConfigWrapper) parse_float(option, v string) float64 {
	n, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		panic(config_errorf("Unable to parse option '%s' in section '%s'", option, self.Section))
	}
	return n
}

// Getfloat returns the option in [minval, maxval] and strictly above `above`.
// Pass math.Inf(-1) / math.Inf(1) to leave a side open.
func (self *ConfigWrapper) Getfloat(option string, default1 interface{}, minval, maxval, above float64) float64 {
	v, ok := self.raw(option, default1)
	if !ok {
		ret, _ := default1.(float64)
		return ret
	}
	return self.check_float(option, self.parse_float(option, v), minval, maxval, above)
}

func (self *ConfigWrapper) GetfloatNone(option string, minval, maxval, above float64) *float64 {
	v, ok := self.raw(option, nil)
	if !ok {
		return nil
	}
	n := self.check_float(option, self.parse_float(option, v), minval, maxval, above)
	return &n
}

func (self *ConfigWrapper) Getboolean(option string, default1 interface{}) bool {
	v, ok := self.raw(option, default1)
	if !ok {
		ret, _ := default1.(bool)
		return ret
	}
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "yes", "true", "on":
		return true
	case "0", "no", "false", "off":
		return false
	}
	panic(config_errorf("Unable to parse option '%s' in section '%s'", option, self.Section))
}

// Getchoice returns choices[value]; the lookup is case insensitive.
func (self *ConfigWrapper) Getchoice(option string, choices map[string]interface{}, default1 interface{}) interface{} {
	c := strings.ToLower(self.Get(option, default1))
	ret, ok := choices[c]
	if !ok {
		panic(config_errorf("Choice '%s' for option '%s' in section '%s' is not a valid choice", c, option, self.Section))
	}
	return ret
}

func (self *ConfigWrapper) Has_section(section string) bool {
	return self.fileconfig.Has_section(section)
}

func (self *ConfigWrapper) Getsection(section string) *ConfigWrapper {
	return NewConfigWrapper(self.printer, self.fileconfig, strings.ToLower(section))
}

// Get_prefix_sections returns the sections whose name starts with prefix, in
// file order.
func (self *ConfigWrapper) Get_prefix_sections(prefix string) []*ConfigWrapper {
	prefix = strings.ToLower(prefix)
	var ret []*ConfigWrapper
	for _, s := range self.fileconfig.Sections() {
		if strings.HasPrefix(s, prefix) {
			ret = append(ret, self.Getsection(s))
		}
	}
	return ret
}

// Read_config parses a printer config file into a fresh parser.
func Read_config(filename string) (*configparser.RawConfigParser, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("Unable to open config file %s", filename)
	}
	return Parse_config(string(data), filename)
}

func Parse_config(data, source string) (*configparser.RawConfigParser, error) {
	fileconfig := configparser.NewRawConfigParser()
	if err := fileconfig.Read_string(data, source); err != nil {
		return nil, &Config_error{E: err.Error()}
	}
	return fileconfig, nil
}

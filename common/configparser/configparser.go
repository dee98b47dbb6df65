package configparser

import (
	"bufio"
	"fmt"
	"sort"
	"strings"
)

// RawConfigParser reads Klipper style config text: "[section]" headers,
// "option: value" or "option = value" lines, "#" and ";" comments and
// indented continuation lines. Section and option names are case folded.
type RawConfigParser struct {
	sections map[string]map[string]string
	order    []string
}

func NewRawConfigParser() *RawConfigParser {
	return &RawConfigParser{sections: map[string]map[string]string{}}
}

type ParseError struct {
	Source string
	Line   int
	Msg    string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s:%d: %s", e.Source, e.Line, e.Msg)
}

func stripComment(line string) string {
	for _, c := range []string{"#", ";"} {
		if i := strings.Index(line, c); i >= 0 {
			line = line[:i]
		}
	}
	return strings.TrimRight(line, " \t\r")
}

// Read_string merges the config text into the parser. Later sections with the
// same name add to or override earlier options.
func (self *RawConfigParser) Read_string(data string, source string) error {
	scanner := bufio.NewScanner(strings.NewReader(data))
	var section, option string
	lineno := 0
	for scanner.Scan() {
		lineno++
		raw := scanner.Text()
		line := stripComment(raw)
		if strings.TrimSpace(line) == "" {
			continue
		}
		if line[0] == ' ' || line[0] == '\t' {
			if option == "" {
				return &ParseError{source, lineno, "continuation line without option"}
			}
			opts := self.sections[section]
			opts[option] = opts[option] + "\n" + strings.TrimSpace(line)
			continue
		}
		if line[0] == '[' {
			end := strings.Index(line, "]")
			if end < 0 {
				return &ParseError{source, lineno, "unterminated section header"}
			}
			section = strings.ToLower(strings.Join(strings.Fields(line[1:end]), " "))
			if section == "" {
				return &ParseError{source, lineno, "empty section name"}
			}
			self.Add_section(section)
			option = ""
			continue
		}
		if section == "" {
			return &ParseError{source, lineno, "option outside of a section"}
		}
		sep := strings.IndexAny(line, ":=")
		if sep <= 0 {
			return &ParseError{source, lineno, fmt.Sprintf("unable to parse line '%s'", strings.TrimSpace(raw))}
		}
		option = strings.ToLower(strings.TrimSpace(line[:sep]))
		self.sections[section][option] = strings.TrimSpace(line[sep+1:])
	}
	return scanner.Err()
}

func (self *RawConfigParser) Add_section(section string) {
	if _, ok := self.sections[section]; !ok {
		self.sections[section] = map[string]string{}
		self.order = append(self.order, section)
	}
}

func (self *RawConfigParser) Set(section, option, value string) {
	self.Add_section(section)
	self.sections[section][strings.ToLower(option)] = value
}

// Sections returns section names in file order.
func (self *RawConfigParser) Sections() []string {
	return append([]string(nil), self.order...)
}

func (self *RawConfigParser) Has_section(section string) bool {
	_, ok := self.sections[strings.ToLower(section)]
	return ok
}

func (self *RawConfigParser) Has_option(section, option string) bool {
	opts, ok := self.sections[strings.ToLower(section)]
	if !ok {
		return false
	}
	_, ok = opts[strings.ToLower(option)]
	return ok
}

func (self *RawConfigParser) Get(section, option string) (string, bool) {
	opts, ok := self.sections[strings.ToLower(section)]
	if !ok {
		return "", false
	}
	v, ok := opts[strings.ToLower(option)]
	return v, ok
}

// Options returns the option names of a section, sorted.
func (self *RawConfigParser) Options(section string) []string {
	opts := self.sections[strings.ToLower(section)]
	names := make([]string, 0, len(opts))
	for k := range opts {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

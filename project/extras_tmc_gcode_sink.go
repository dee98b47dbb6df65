package project

import (
	"autotune/common/logger"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/tarm/serial"
)

const (
	NOT_FOUND_SERIAL_ERROR = "serial port not found"
	OPEN_SERIAL_DEV_ERROR  = "failed to open serial port"
)

// GcodeForwarder mirrors applied fields as SET_TMC_FIELD commands, one per
// line, for a running Klipper host.
type GcodeForwarder struct {
	name string
	dev  io.Writer
}

func NewGcodeForwarder(name string, dev io.Writer) *GcodeForwarder {
	return &GcodeForwarder{name: name, dev: dev}
}

func (self *GcodeForwarder) Forward_field(stepper_name, field_name string, value int64) error {
	line := fmt.Sprintf("SET_TMC_FIELD STEPPER=%s FIELD=%s VALUE=%d\n",
		stepper_name, strings.ToUpper(field_name), value)
	if _, err := io.WriteString(self.dev, line); err != nil {
		return fmt.Errorf("%s: %w", self.name, err)
	}
	return nil
}

func (self *GcodeForwarder) Close() error {
	if c, ok := self.dev.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func check_serial_port(fileName string) bool {
	info, err := os.Stat(fileName)
	if os.IsNotExist(err) {
		return false
	}
	return err == nil && !info.IsDir()
}

// Open_serial_forwarder opens the serial device or pseudo-tty at name.
func Open_serial_forwarder(name string, baud int) (*GcodeForwarder, error) {
	if !check_serial_port(name) {
		return nil, fmt.Errorf("%s %s", NOT_FOUND_SERIAL_ERROR, name)
	}
	cfg := &serial.Config{Name: name, Baud: baud, ReadTimeout: time.Millisecond * 100}
	port, err := serial.OpenPort(cfg)
	if err != nil {
		logger.Errorf("%s %s: %s", OPEN_SERIAL_DEV_ERROR, name, err)
		return nil, fmt.Errorf("%s %s: %s", OPEN_SERIAL_DEV_ERROR, name, err)
	}
	return NewGcodeForwarder(name, port), nil
}

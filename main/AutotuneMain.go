package main

import (
	"autotune/common/config"
	"autotune/common/file"
	"autotune/common/logger"
	"autotune/common/utils/sys"
	"autotune/project"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"
)

type options struct {
	config_file   string
	defaults_file string
	steppers      []string
	serial_port   string
	serial_baud   int
	format        string
	output        string
	log_file      string
	log_level     string
}

func (self *options) init_logger() {
	logger.InitLogger(logger.ParseLevel(self.log_level), self.log_file, logger.SUPPORT_COLOR, 10, 3, 7)
	logger.Debugf("main thread %d running", sys.GetGID())
}

func (self *options) load_defaults() (config.AutotuneDefaults, error) {
	if self.defaults_file == "" {
		return config.Default(), nil
	}
	return config.LoadDefaults(self.defaults_file)
}

// start loads the printer config and runs it up to ready, which tunes every
// [autotune_tmc] stepper.
func (self *options) start() (*project.Printer, func(), error) {
	defaults, err := self.load_defaults()
	if err != nil {
		return nil, nil, err
	}
	fileconfig, err := project.Read_config(self.config_file)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {}
	var fwd project.IFieldForwarder
	if self.serial_port != "" {
		serial_fwd, err := project.Open_serial_forwarder(self.serial_port, self.serial_baud)
		if err != nil {
			return nil, nil, err
		}
		fwd = serial_fwd
		cleanup = func() {
			if err := serial_fwd.Close(); err != nil {
				logger.Warnf("closing %s: %v", self.serial_port, err)
			}
		}
	}
	printer, err := project.Start_printer(defaults, fileconfig, os.Stdout, fwd)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	logger.Infof("printer ready, config %s", self.config_file)
	return printer, cleanup, nil
}

func (self *options) write_reports(printer *project.Printer) error {
	reports, err := printer.Autotune_reports(self.steppers...)
	if err != nil {
		return err
	}
	out, err := project.Render_reports(reports, self.format)
	if err != nil {
		return err
	}
	if self.output == "" {
		_, err = os.Stdout.Write(out)
		return err
	}
	return file.WriteFileWithSync(self.output, out)
}

func newRootCommand() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "autotune-tmc",
		Short:         "Derive TMC stepper driver registers from motor constants",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			opts.init_logger()
		},
	}
	flags := root.PersistentFlags()
	flags.StringVarP(&opts.config_file, "config", "c", "printer.cfg", "printer config file")
	flags.StringVar(&opts.defaults_file, "defaults", "", "TOML file overriding the autotune defaults")
	flags.StringVar(&opts.log_file, "log-file", "", "also log to this file")
	flags.StringVar(&opts.log_level, "log-level", "info", "debug, info, warn or error")
	flags.StringVar(&opts.serial_port, "serial", "", "forward SET_TMC_FIELD commands to this serial port or pseudo-tty")
	flags.IntVar(&opts.serial_baud, "baud", 250000, "baud rate of --serial")

	tune := &cobra.Command{
		Use:   "tune",
		Short: "Tune every configured stepper and print the report",
		RunE: func(cmd *cobra.Command, args []string) error {
			printer, cleanup, err := opts.start()
			if err != nil {
				return err
			}
			defer cleanup()
			return opts.write_reports(printer)
		},
	}
	tune.Flags().StringSliceVarP(&opts.steppers, "stepper", "s", nil, "only report these steppers")
	tune.Flags().StringVarP(&opts.format, "format", "f", "text", "report format: text or yaml")
	tune.Flags().StringVarP(&opts.output, "output", "o", "", "write the report to this file")

	console := &cobra.Command{
		Use:   "console",
		Short: "Tune, then run AUTOTUNE_TMC commands read from stdin",
		RunE: func(cmd *cobra.Command, args []string) error {
			printer, cleanup, err := opts.start()
			if err != nil {
				return err
			}
			defer cleanup()
			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
			defer cancel()
			return printer.Get_gcode().Run_console(ctx, os.Stdin)
		},
	}

	motors := &cobra.Command{
		Use:   "motors",
		Short: "List the motors of the built-in database",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := project.Default_motor_database()
			if err != nil {
				return err
			}
			for _, name := range db.Names() {
				m, _ := db.Lookup(name)
				fmt.Fprintf(cmd.OutOrStdout(), "%-24s R=%.2f L=%.4f T=%.2f I=%.2f S=%d\n",
					name, m.R, m.L, m.T, m.I, m.S)
			}
			return nil
		},
	}

	root.AddCommand(tune, console, motors)
	return root
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		logger.Fatalf("%s", strings.TrimSpace(err.Error()))
	}
	logger.Sync()
}

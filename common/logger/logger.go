package logger

import (
	"fmt"
	"log"
	"os"

	"github.com/natefinch/lumberjack"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	Logger *zap.Logger
)

type LogLevel int8

const (
	DebugLevel LogLevel = iota - 1
	InfoLevel
	WarnLevel
	ErrorLevel
)
const SUPPORT_COLOR = true

// ParseLevel maps the CLI level names onto LogLevel, defaulting to info.
func ParseLevel(name string) LogLevel {
	switch name {
	case "debug":
		return DebugLevel
	case "warn", "warning":
		return WarnLevel
	case "error":
		return ErrorLevel
	}
	return InfoLevel
}

func newEncoder(supportColor bool) zapcore.Encoder {
	encodeLevel := zapcore.CapitalLevelEncoder
	if supportColor {
		encodeLevel = zapcore.CapitalColorLevelEncoder
	}
	encoderConfig := zapcore.EncoderConfig{
		MessageKey:       "message",
		LevelKey:         "level",
		TimeKey:          "time",
		NameKey:          "stepper",
		CallerKey:        "caller",
		EncodeLevel:      encodeLevel,
		EncodeTime:       zapcore.ISO8601TimeEncoder,
		EncodeCaller:     zapcore.ShortCallerEncoder,
		EncodeName:       zapcore.FullNameEncoder,
		ConsoleSeparator: " ",
	}

	return zapcore.NewConsoleEncoder(encoderConfig)
}

func newConsoleCore(encoder zapcore.Encoder, level zapcore.Level) zapcore.Core {
	return zapcore.NewCore(encoder, zapcore.Lock(os.Stderr), level)
}

func newFileCore(encoder zapcore.Encoder, level zapcore.Level, logfile string, maxSize, maxBackups, maxAge int) zapcore.Core {
	logFile := &lumberjack.Logger{
		Filename:   logfile,
		MaxSize:    maxSize,
		MaxBackups: maxBackups,
		MaxAge:     maxAge,
		Compress:   false,
		LocalTime:  true,
	}

	return zapcore.NewCore(encoder, zapcore.AddSync(logFile), level)
}

// InitLogger logs to stderr and, when logfile is set, to a rotated file.
func InitLogger(level LogLevel, logfile string, supportColor bool, maxSize, maxBackups, maxAge int) {
	consoleCore := newConsoleCore(newEncoder(supportColor), zapcore.Level(level))
	core := consoleCore
	if logfile != "" {
		// the file never gets color escapes
		fileCore := newFileCore(newEncoder(false), zapcore.Level(level), logfile, maxSize, maxBackups, maxAge)
		core = zapcore.NewTee(consoleCore, fileCore)
	}
	SetLogger(zap.New(core, zap.AddCaller()))
}

// SetLogger installs l as the process logger; tests use it with an observer core.
func SetLogger(l *zap.Logger) {
	Logger = l.WithOptions(zap.AddCallerSkip(1))
}

// Named returns a sugared logger tagged with name. It is a no-op logger until
// one of the Init functions ran.
func Named(name string) *zap.SugaredLogger {
	if Logger == nil {
		return zap.NewNop().Sugar()
	}
	return Logger.WithOptions(zap.AddCallerSkip(-1)).Named(name).Sugar()
}

func Sync() {
	if Logger != nil {
		err := Logger.Sync()
		if err != nil && !os.IsNotExist(err) {
			log.Printf("failed to sync logger: %v", err)
		}
	}
}

func Infof(format string, args ...interface{}) {
	if Logger != nil {
		Logger.Sugar().Infof(format, args...)
	}
}


func Debugf(format string, args ...interface{}) {
	if Logger != nil {
		Logger.Sugar().Debugf(format, args...)
	}
}

func Warnf(format string, args ...interface{}) {
	if Logger != nil {
		Logger.Sugar().Warnf(format, args...)
	}
}

func Errorf(format string, args ...interface{}) {
	if Logger != nil {
		Logger.Sugar().Errorf(format, args...)
	}
}


func Fatalf(format string, args ...interface{}) {
	message := fmt.Sprintf(format, args...)
	if Logger != nil {
		Logger.Error(message)
		Logger.Sync()
	} else {
		log.Print(message)
	}
	os.Exit(1)
}

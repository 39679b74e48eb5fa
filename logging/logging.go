package logging

import (
	"io"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options select the logger output.
type Options struct {
	Service string
	Debug   bool
	// Format is "json" or "text".
	Format string
	// File enables a rotating log file next to stderr.
	File string
}

// New returns a configured logger. The standard logrus logger is configured
// the same way so package-level log calls share the output.
func New(opts Options) (*log.Logger, error) {
	logger := log.New()
	if err := Configure(logger, opts); err != nil {
		return nil, err
	}
	std := log.StandardLogger()
	std.SetLevel(logger.GetLevel())
	std.SetFormatter(logger.Formatter)
	std.SetOutput(logger.Out)
	if opts.Service != "" {
		std.AddHook(serviceHook{name: opts.Service})
	}
	return logger, nil
}

// Configure applies opts to an existing logger.
func Configure(logger *log.Logger, opts Options) error {
	if opts.Debug {
		logger.SetLevel(log.DebugLevel)
	} else {
		logger.SetLevel(log.InfoLevel)
	}

	switch opts.Format {
	case "json":
		logger.SetFormatter(&log.JSONFormatter{})
	default:
		logger.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}

	var out io.Writer = os.Stderr
	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0o750); err != nil {
			return err
		}
		out = io.MultiWriter(os.Stderr, &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    10,
			MaxBackups: 3,
			MaxAge:     28,
			Compress:   true,
		})
	}
	logger.SetOutput(out)

	if opts.Service != "" {
		logger.AddHook(serviceHook{name: opts.Service})
	}
	return nil
}

// serviceHook stamps every entry with the emitting service.
type serviceHook struct {
	name string
}

func (h serviceHook) Levels() []log.Level { return log.AllLevels }

func (h serviceHook) Fire(e *log.Entry) error {
	if _, ok := e.Data["service"]; !ok {
		e.Data["service"] = h.name
	}
	return nil
}

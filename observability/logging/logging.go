package logging

import (
	"io"
	"log"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// FileConfig configures the optional rotated log file sink.
type FileConfig struct {
	Path       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

func (c FileConfig) writer() io.Writer {
	if strings.TrimSpace(c.Path) == "" {
		return nil
	}
	size := c.MaxSizeMB
	if size <= 0 {
		size = 100
	}
	return &lumberjack.Logger{
		Filename:   c.Path,
		MaxSize:    size,
		MaxBackups: c.MaxBackups,
		MaxAge:     c.MaxAgeDays,
		Compress:   true,
	}
}

// Options describes the process logger.
type Options struct {
	Service string
	Env     string
	Level   slog.Level
	File    FileConfig
}

// Setup installs a JSON logger as the slog and std log default. Lines go to
// stdout and, when opts.File.Path is set, to a rotated file.
func Setup(opts Options) *slog.Logger {
	var out io.Writer = os.Stdout
	if sink := opts.File.writer(); sink != nil {
		out = io.MultiWriter(os.Stdout, sink)
	}
	return setup(out, opts)
}

// renameAttr maps slog's built-in keys onto the names log shippers index
// and redacts sensitive keys.
func renameAttr(groups []string, attr slog.Attr) slog.Attr {
	if len(groups) > 0 {
		return redactAttr(attr)
	}
	switch attr.Key {
	case slog.TimeKey:
		attr.Key = "timestamp"
	case slog.LevelKey:
		return slog.String("severity", strings.ToUpper(attr.Value.String()))
	case slog.MessageKey:
		attr.Key = "message"
	default:
		return redactAttr(attr)
	}
	return attr
}

func setup(out io.Writer, opts Options) *slog.Logger {
	handler := slog.NewJSONHandler(out, &slog.HandlerOptions{
		Level:       opts.Level,
		ReplaceAttr: renameAttr,
	})

	base := []slog.Attr{slog.String("service", strings.TrimSpace(opts.Service))}
	if env := strings.TrimSpace(opts.Env); env != "" {
		base = append(base, slog.String("env", env))
	}
	withBase := handler.WithAttrs(base)

	logger := slog.New(withBase)
	slog.SetDefault(logger)

	bridge := slog.NewLogLogger(withBase, slog.LevelInfo)
	log.SetOutput(bridge.Writer())
	log.SetFlags(0)
	log.SetPrefix("")
	return logger
}

package logging

import (
	"fmt"
	"io"
	"os"

	applogging "multitun/application/logging"

	"gopkg.in/op/go-logging.v1"
)

const logFormat = "%{time:15:04:05.000} %{level:.4s} %{module}: %{message}"

// Backend writes every module's records to stdout and, when configured, to an append-only log file.
type Backend struct {
	file    *os.File
	backend logging.LeveledBackend
}

// NewBackend initializes a logging backend at the given level.
func NewBackend(logFile string, level string) (*Backend, error) {
	var (
		w    io.Writer = os.Stdout
		file *os.File
	)
	if logFile != "" {
		const fileMode = 0600

		var err error
		file, err = os.OpenFile(logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, fileMode)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		w = io.MultiWriter(os.Stdout, file)
	}
	b, err := newBackend(w, level)
	if err != nil {
		if file != nil {
			_ = file.Close()
		}
		return nil, err
	}
	b.file = file
	return b, nil
}

func newBackend(w io.Writer, level string) (*Backend, error) {
	lvl, err := logging.LogLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	base := logging.NewLogBackend(w, "", 0)
	formatted := logging.NewBackendFormatter(base, logging.MustStringFormatter(logFormat))
	leveled := logging.AddModuleLevel(formatted)
	leveled.SetLevel(lvl, "")
	return &Backend{backend: leveled}, nil
}

// GetLogger returns a per-module logger that writes to the backend.
func (b *Backend) GetLogger(module string) *logging.Logger {
	l := logging.MustGetLogger(module)
	l.SetBackend(b.backend)
	return l
}

// NewLogger adapts a module logger to the Printf contract; records are logged at INFO.
func (b *Backend) NewLogger(module string) applogging.Logger {
	return Logger{log: b.GetLogger(module)}
}

func (b *Backend) Close() error {
	if b.file == nil {
		return nil
	}
	return b.file.Close()
}

type Logger struct {
	log *logging.Logger
}

func (l Logger) Printf(format string, v ...any) {
	l.log.Infof(format, v...)
}

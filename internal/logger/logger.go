package logger

import (
	"io"
	"log"
)

type Logger interface {
	Infof(format string, v ...any)
	Errorf(format string, v ...any)
}

type stdLogger struct {
	l *log.Logger
}

func New() Logger { return &stdLogger{l: log.Default()} }

// NewWriter logs to w with the standard flags.
func NewWriter(w io.Writer) Logger { return &stdLogger{l: log.New(w, "", log.LstdFlags)} }

func (s *stdLogger) Infof(format string, v ...any)  { s.l.Printf("[INFO] "+format, v...) }
func (s *stdLogger) Errorf(format string, v ...any) { s.l.Printf("[ERROR] "+format, v...) }

type discard struct{}

// Discard drops every line.
func Discard() Logger { return discard{} }

func (discard) Infof(string, ...any)  {}
func (discard) Errorf(string, ...any) {}

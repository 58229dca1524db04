package utils

import (
	"io"
	"log"
	"os"
	"strings"
)

type LogLevel string

const (
	LevelDebug LogLevel = "debug"
	LevelInfo  LogLevel = "info"
	LevelWarn  LogLevel = "warn"
	LevelError LogLevel = "error"
)

type Logger struct {
	level       LogLevel
	infoLogger  *log.Logger
	warnLogger  *log.Logger
	errorLogger *log.Logger
	debugLogger *log.Logger
	fatalLogger *log.Logger
	RawBodyLog  bool
}

func NewLogger(level string, rawBodyLog bool) *Logger {
	logLevel := parseLogLevel(level)

	return &Logger{
		level:       logLevel,
		infoLogger:  log.New(os.Stdout, "INFO: ", log.Ldate|log.Ltime|log.Lshortfile),
		warnLogger:  log.New(os.Stderr, "WARN: ", log.Ldate|log.Ltime|log.Lshortfile),
		errorLogger: log.New(os.Stderr, "ERROR: ", log.Ldate|log.Ltime|log.Lshortfile),
		debugLogger: log.New(
			os.Stdout,
			"DEBUG: ",
			log.Ldate|log.Ltime|log.Lshortfile,
		),
		fatalLogger: log.New(os.Stderr, "FATAL: ", log.Ldate|log.Ltime|log.Lshortfile),
		RawBodyLog:  rawBodyLog,
	}
}

func NewDiscardLogger() *Logger {
	return &Logger{
		level:       LevelInfo,
		infoLogger:  log.New(io.Discard, "", 0),
		warnLogger:  log.New(io.Discard, "", 0),
		errorLogger: log.New(io.Discard, "", 0),
		debugLogger: log.New(io.Discard, "", 0),
		fatalLogger: log.New(io.Discard, "", 0),
	}
}

func parseLogLevel(level string) LogLevel {
	switch strings.ToLower(level) {
	case "debug":
		return LevelDebug
	case "info":
		return LevelInfo
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// withID prefixes the message with the run or request id when one is given.
func withID(id *string, format string) string {
	if id == nil || *id == "" {
		return format
	}
	return "[" + *id + "] " + format
}

func (l *Logger) Info(id *string, format string, v ...any) {
	if l.level == LevelError || l.level == LevelWarn {
		return
	}
	l.infoLogger.Printf(withID(id, format), v...)
}

func (l *Logger) Warn(id *string, format string, v ...any) {
	if l.level == LevelError {
		return
	}
	l.warnLogger.Printf(withID(id, format), v...)
}

func (l *Logger) Error(id *string, format string, v ...any) {
	l.errorLogger.Printf(withID(id, format), v...)
}

func (l *Logger) Debug(id *string, format string, v ...any) {
	if l.level != LevelDebug {
		return
	}
	l.debugLogger.Printf(withID(id, format), v...)
}

func (l *Logger) Fatal(v ...any) {
	l.fatalLogger.Fatal(v...)
}

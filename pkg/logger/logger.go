// Package logger provides interfaces and implementations for working with logs
package logger

import (
	"fmt"
	"log"
	"runtime"
	"strings"
)

// Logger is satisfied by *slog.Logger, which is what the server passes around
type Logger interface {
	Debug(string, ...any)
	Info(string, ...any)
	Warn(string, ...any)
	Error(string, ...any)
}

var (
	_ Logger = ConsoleLogger{}
	_ Logger = &DevNullLogger{}
)

// ConsoleLogger writes to the standard library logger, prefixing each line with the caller
type ConsoleLogger struct{}

func (c ConsoleLogger) Debug(msg string, fields ...any) {
	c.log("DEBUG", msg, fields...)
}

func (c ConsoleLogger) Info(msg string, fields ...any) {
	c.log("INFO", msg, fields...)
}

func (c ConsoleLogger) Warn(msg string, fields ...any) {
	c.log("WARN", msg, fields...)
}

func (c ConsoleLogger) Error(msg string, fields ...any) {
	c.log("ERROR", msg, fields...)
}

func (c ConsoleLogger) log(level, msg string, fields ...any) {
	file, line, funcName := getCallerInfo(3)
	log.Printf("[%s] %s:%d %s() - %s%s", level, file, line, funcName, msg, formatFields(fields))
}

// formatFields renders key/value pairs as " k=v k=v". A trailing key without value is printed as-is.
func formatFields(fields []any) string {
	if len(fields) == 0 {
		return ""
	}
	var b strings.Builder
	for i := 0; i < len(fields); i += 2 {
		if i+1 >= len(fields) {
			fmt.Fprintf(&b, " %v", fields[i])
			break
		}
		fmt.Fprintf(&b, " %v=%v", fields[i], fields[i+1])
	}
	return b.String()
}

// getCallerInfo gets the file, line, and function name of the caller
func getCallerInfo(skip int) (string, int, string) {
	pc, file, line, ok := runtime.Caller(skip)
	if !ok {
		return "unknown_file", 0, "unknown_func"
	}

	funcName := runtime.FuncForPC(pc).Name()
	funcName = trimFunctionName(funcName)

	fileParts := strings.Split(file, "/")
	file = fileParts[len(fileParts)-1]

	return file, line, funcName
}

func trimFunctionName(funcName string) string {
	funcParts := strings.Split(funcName, "/")
	return funcParts[len(funcParts)-1]
}

type DevNullLogger struct{}

// Debug implements Logger.
func (d *DevNullLogger) Debug(string, ...any) {
}

// Error implements Logger.
func (d *DevNullLogger) Error(string, ...any) {
}

// Info implements Logger.
func (d *DevNullLogger) Info(string, ...any) {
}

// Warn implements Logger.
func (d *DevNullLogger) Warn(string, ...any) {
}

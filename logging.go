// Package main - logging.go
//
// Centralized logging for the agent, backed by zap with file rotation.
//
// Major Components:
//
// 1. Logging System:
//    - Rotating file log (agent.log, lumberjack) plus console mirror
//    - Four log levels: DEBUG, INFO, WARN, ERROR
//    - Microsecond timestamps for tick timing analysis
//    - Global sugared logger accessible via convenience functions
//
// Logging Best Practices:
//   - DEBUG: Detailed operation info (pixel counts, coordinates, timing)
//   - INFO: Important events (startup, state transitions, collections)
//   - WARN: Non-critical issues (cookie load failure, transient capture errors)
//   - ERROR: Serious problems (actuator loss, file access errors)
package main

import (
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	globalLogger *zap.SugaredLogger
	loggerMu     sync.RWMutex
)

// InitLogger initializes the global logger. Log lines go to agent.log
// (rotated at 10MB, 3 backups) and are mirrored to stdout.
func InitLogger(debug bool) {
	level := zapcore.InfoLevel
	if debug {
		level = zapcore.DebugLevel
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05.000000")
	encoderCfg.EncodeLevel = zapcore.CapitalLevelEncoder

	fileSink := zapcore.AddSync(&lumberjack.Logger{
		Filename:   "agent.log",
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     7, // days
	})

	core := zapcore.NewTee(
		zapcore.NewCore(zapcore.NewConsoleEncoder(encoderCfg), fileSink, level),
		zapcore.NewCore(zapcore.NewConsoleEncoder(encoderCfg), zapcore.AddSync(os.Stdout), level),
	)

	loggerMu.Lock()
	globalLogger = zap.New(core).Sugar()
	loggerMu.Unlock()

	LogInfo("Logger initialized (level=%s)", level)
}

// CloseLogger flushes buffered log entries
func CloseLogger() {
	loggerMu.RLock()
	defer loggerMu.RUnlock()
	if globalLogger != nil {
		_ = globalLogger.Sync()
	}
}

// LogDebug is a convenience function for debug logging
func LogDebug(format string, v ...interface{}) {
	loggerMu.RLock()
	defer loggerMu.RUnlock()
	if globalLogger != nil {
		globalLogger.Debugf(format, v...)
	}
}

// LogInfo is a convenience function for info logging
func LogInfo(format string, v ...interface{}) {
	loggerMu.RLock()
	defer loggerMu.RUnlock()
	if globalLogger != nil {
		globalLogger.Infof(format, v...)
	}
}

// LogWarn is a convenience function for warning logging
func LogWarn(format string, v ...interface{}) {
	loggerMu.RLock()
	defer loggerMu.RUnlock()
	if globalLogger != nil {
		globalLogger.Warnf(format, v...)
	}
}

// LogError is a convenience function for error logging
func LogError(format string, v ...interface{}) {
	loggerMu.RLock()
	defer loggerMu.RUnlock()
	if globalLogger != nil {
		globalLogger.Errorf(format, v...)
	}
}

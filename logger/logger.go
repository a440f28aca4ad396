package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

type _Logger struct {
	logger *zap.Logger
	sugar  *zap.SugaredLogger
}

// 未 Init 前日志全部丢弃
var l = newLoggerImp(zap.NewNop())

func newLoggerImp(zl *zap.Logger) *_Logger {
	return &_Logger{logger: zl, sugar: zl.Sugar()}
}

// Init logger initialize
//	 keys: logger.level logger.dir logger.rotation logger.stdout
//	 logger.maxsize logger.maxage logger.maxbackups logger.localtime logger.compress
func Init(name string, config *viper.Viper) {
	l = newLoggerImp(newLogger(name, config))
	l.logger.Info("initialize logger", zap.String("name", name))
}

// Set replaces the logger, mostly for tests
func Set(zl *zap.Logger) {
	l = newLoggerImp(zl)
}

// Get returns the current zap logger
func Get() *zap.Logger {
	return l.logger
}

// Sync flushes buffered entries
func Sync() error {
	return l.logger.Sync()
}

// Debugf logger
func Debugf(format string, args ...interface{}) {
	l.sugar.Debugf(format, args...)
}

// Infof logger
func Infof(format string, args ...interface{}) {
	l.sugar.Infof(format, args...)
}

// Warnf logger
func Warnf(format string, args ...interface{}) {
	l.sugar.Warnf(format, args...)
}

// Errorf logger
func Errorf(format string, args ...interface{}) {
	l.sugar.Errorf(format, args...)
}

// Debug logger
func Debug(msg string, fields ...zapcore.Field) {
	l.logger.Debug(msg, fields...)
}

// Info logger
func Info(msg string, fields ...zapcore.Field) {
	l.logger.Info(msg, fields...)
}

// Warn logger
func Warn(msg string, fields ...zapcore.Field) {
	l.logger.Warn(msg, fields...)
}

// Error logger
func Error(msg string, fields ...zapcore.Field) {
	l.logger.Error(msg, fields...)
}

// Fatal logger, log message then call os.Exit(1).
func Fatal(msg string, fields ...zapcore.Field) {
	l.logger.Fatal(msg, fields...)
}

func parseLevel(level string) zapcore.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zapcore.DebugLevel
	case "info", "":
		return zapcore.InfoLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	}
	fmt.Println("Logger level invalid, must be one of: DEBUG, INFO, WARN, or ERROR")
	return zapcore.InfoLevel
}

func newLogger(name string, config *viper.Viper) *zap.Logger {
	level := parseLevel(config.GetString("logger.level"))
	fileDir := config.GetString("logger.dir")
	rotation := config.GetBool("logger.rotation")
	stdout := config.GetBool("logger.stdout")

	consoleLogger := newJSONLogger(os.Stdout, level)
	if fileDir == "" {
		zap.RedirectStdLog(consoleLogger)
		return consoleLogger
	}

	// {dir}/{name}.log
	file := filepath.Join(fileDir, name+".log")

	var fileLogger *zap.Logger
	if rotation {
		fileLogger = newRotatingJSONFileLogger(config, consoleLogger, file, level)
	} else {
		fileLogger = newJSONFileLogger(consoleLogger, file, level)
	}

	if fileLogger == nil {
		zap.RedirectStdLog(consoleLogger)
		return consoleLogger
	}

	if stdout {
		multiLogger := newMultiLogger(consoleLogger, fileLogger)
		zap.RedirectStdLog(multiLogger)
		return multiLogger
	}
	zap.RedirectStdLog(fileLogger)
	return fileLogger
}

func newJSONFileLogger(consoleLogger *zap.Logger, fileName string, level zapcore.Level) *zap.Logger {
	if err := os.MkdirAll(filepath.Dir(fileName), 0755); err != nil {
		consoleLogger.Error("Could not create log directory", zap.Error(err))
		return nil
	}

	output, err := os.OpenFile(fileName, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0666)
	if err != nil {
		consoleLogger.Error("Could not create log file", zap.Error(err))
		return nil
	}

	return newJSONLogger(output, level)
}

func newRotatingJSONFileLogger(config *viper.Viper, consoleLogger *zap.Logger, fileName string, level zapcore.Level) *zap.Logger {
	if err := os.MkdirAll(filepath.Dir(fileName), 0755); err != nil {
		consoleLogger.Error("Could not create log directory", zap.Error(err))
		return nil
	}

	writeSyncer := zapcore.AddSync(&lumberjack.Logger{
		Filename:   fileName,
		MaxSize:    config.GetInt("logger.maxsize"),
		MaxAge:     config.GetInt("logger.maxage"),
		MaxBackups: config.GetInt("logger.maxbackups"),
		LocalTime:  config.GetBool("logger.localtime"),
		Compress:   config.GetBool("logger.compress"),
	})

	core := zapcore.NewCore(newJSONEncoder(), writeSyncer, level)
	return zap.New(core, zap.AddStacktrace(zap.ErrorLevel), zap.AddCaller(), zap.AddCallerSkip(1))
}

func newMultiLogger(loggers ...*zap.Logger) *zap.Logger {
	cores := make([]zapcore.Core, 0, len(loggers))
	for _, logger := range loggers {
		cores = append(cores, logger.Core())
	}
	teeCore := zapcore.NewTee(cores...)
	return zap.New(teeCore, zap.AddStacktrace(zap.ErrorLevel), zap.AddCaller(), zap.AddCallerSkip(1))
}

func newJSONLogger(output *os.File, level zapcore.Level) *zap.Logger {
	core := zapcore.NewCore(newJSONEncoder(), zapcore.Lock(output), level)
	return zap.New(core, zap.AddStacktrace(zap.ErrorLevel), zap.AddCaller(), zap.AddCallerSkip(1))
}

func newJSONEncoder() zapcore.Encoder {
	return zapcore.NewJSONEncoder(zapcore.EncoderConfig{
		TimeKey:        "ts",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	})
}

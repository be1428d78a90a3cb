package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	Log *zap.Logger
)

func init() {
	// 默认初始化一个 Nop Logger，防止未 Init 就调用导致 panic
	Log = zap.NewNop()
}

// Init initializes the global logger.
// The CLI writes its own output to stdout, so logs always go to stderr.
func Init(env string, level string) {
	var config zap.Config

	if env == "production" {
		config = zap.NewProductionConfig()
		config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	} else {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	config.OutputPaths = []string{"stderr"}
	config.ErrorOutputPaths = []string{"stderr"}

	if level != "" {
		lvl, err := zapcore.ParseLevel(level)
		if err == nil {
			config.Level = zap.NewAtomicLevelAt(lvl)
		}
	}

	var err error
	Log, err = config.Build(zap.AddCallerSkip(1)) // Skip 1 caller so logs show where logger.Info was called, not wrapper
	if err != nil {
		panic(err)
	}

	zap.ReplaceGlobals(Log)
}

// Sync flushes any buffered log entries
func Sync() {
	_ = Log.Sync()
}

// Named returns a child of the global logger without the wrapper caller skip,
// for components that keep their own *zap.Logger.
func Named(name string) *zap.Logger {
	return Log.WithOptions(zap.AddCallerSkip(-1)).Named(name)
}

func Info(msg string, fields ...zap.Field) {
	Log.Info(msg, fields...)
}

func Warn(msg string, fields ...zap.Field) {
	Log.Warn(msg, fields...)
}

func Error(msg string, fields ...zap.Field) {
	Log.Error(msg, fields...)
}

func Fatal(msg string, fields ...zap.Field) {
	Log.Fatal(msg, fields...)
}

func Debug(msg string, fields ...zap.Field) {
	Log.Debug(msg, fields...)
}

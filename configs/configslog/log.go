package configslog

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Log is the structured logger; SLog is its sugared twin for printf-style messages.
// Both are no-ops until InitLogger runs.
var (
	Log  = zap.NewNop()
	SLog = Log.Sugar()
)

// InitLogger builds the process logger. Development gets a colored console
// encoder, every other environment gets JSON.
func InitLogger(env, level string) error {
	var cfg zap.Config
	if env == "development" {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.TimeKey = "timestamp"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	if level != "" {
		lvl, err := zapcore.ParseLevel(level)
		if err != nil {
			return err
		}
		cfg.Level = zap.NewAtomicLevelAt(lvl)
	}

	logger, err := cfg.Build(zap.AddCaller())
	if err != nil {
		return err
	}
	Log = logger
	SLog = logger.Sugar()
	zap.ReplaceGlobals(logger)
	return nil
}

// SyncLogger flushes buffered entries; call it deferred from main.
func SyncLogger() {
	_ = Log.Sync()
}
